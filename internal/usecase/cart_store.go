package usecase

import (
	"context"
	"math"
	"sync"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"go.uber.org/zap"
)

// CartStore は1つのカート（明細の並び）を持つ。
// 変更のたびに丸ごと保存する。保存に失敗してもメモリ上の状態を正とする。
type CartStore struct {
	mu      sync.Mutex
	key     string
	storage repo.CartStorage
	log     *zap.Logger
	lines   []model.CartLine
}

// storageがnilならメモリだけで持つ。
func NewCartStore(key string, storage repo.CartStorage, log *zap.Logger) *CartStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &CartStore{
		key:     key,
		storage: storage,
		log:     log,
		lines:   []model.CartLine{},
	}
}

// Load は保存済みの明細を読み込む（起動時に1回）。
// 読めなければ空カートで始める。
func (s *CartStore) Load(ctx context.Context) {
	if s.storage == nil {
		return
	}

	lines, err := s.storage.Load(ctx, s.key)
	if err != nil {
		s.log.Warn("cart load failed, starting empty", zap.String("key", s.key), zap.Error(err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = sanitizeLines(lines)
}

// Add は同一商品＋同一variantなら数量+1、無ければ数量1で末尾に追加。
// 在庫はここでは見ない。
func (s *CartStore) Add(ctx context.Context, p model.Product, v *model.Variant) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := model.LineKey{ProductID: p.ID}
	if v != nil {
		key.VariantID = v.ID
	}

	if i := s.indexOf(key); i >= 0 {
		s.lines[i].Quantity++
		s.persist(ctx)
		return
	}

	line := model.CartLine{
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Image:     p.Image,
		Category:  p.Category,
		Quantity:  1,
	}
	if v != nil {
		line.VariantID = v.ID
		line.VariantName = v.Name
	}

	s.lines = append(s.lines, line)
	s.persist(ctx)
}

// Remove は該当明細を削除。無ければ何もしない。
func (s *CartStore) Remove(ctx context.Context, productID string, variantID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(model.LineKey{ProductID: productID, VariantID: variantID})
	if i < 0 {
		return
	}

	s.lines = append(s.lines[:i], s.lines[i+1:]...)
	s.persist(ctx)
}

// UpdateQuantity は数量を max(1, 数量+delta) にする。
// 在庫を超える増加は拒否しない（表示側で制御）。
func (s *CartStore) UpdateQuantity(ctx context.Context, productID string, variantID string, delta int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(model.LineKey{ProductID: productID, VariantID: variantID})
	if i < 0 {
		return
	}

	cur := s.lines[i].Quantity
	qty := cur + delta
	//あふれたら上限で止める
	if delta > 0 && qty < cur {
		qty = math.MaxInt64
	}
	if qty < 1 {
		qty = 1
	}
	if qty == s.lines[i].Quantity {
		return
	}

	s.lines[i].Quantity = qty
	s.persist(ctx)
}

// Clear は全明細を削除（注文確定後など）。
func (s *CartStore) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lines = []model.CartLine{}
	s.persist(ctx)
}

// RemoveOrdered は注文した分だけカートから外す。
// 注文後に増えた数量は残し、注文後に追加された明細には触らない。
func (s *CartStore) RemoveOrdered(ctx context.Context, ordered []model.CartLine) {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := false
	for _, o := range ordered {
		i := s.indexOf(o.Key())
		if i < 0 {
			continue
		}
		changed = true
		if s.lines[i].Quantity > o.Quantity {
			s.lines[i].Quantity -= o.Quantity
			continue
		}
		s.lines = append(s.lines[:i], s.lines[i+1:]...)
	}

	if changed {
		s.persist(ctx)
	}
}

// Lines は明細のコピーを追加順で返す。
func (s *CartStore) Lines() []model.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.CartLine, len(s.lines))
	copy(out, s.lines)
	return out
}

func (s *CartStore) ComputeView(catalog *model.Catalog, lowStockThreshold int64) []model.ResolvedLine {
	return ComputeView(s.Lines(), catalog, lowStockThreshold)
}

func (s *CartStore) indexOf(key model.LineKey) int {
	for i := range s.lines {
		if s.lines[i].Key() == key {
			return i
		}
	}
	return -1
}

// mu を持った状態で呼ぶ
func (s *CartStore) persist(ctx context.Context) {
	if s.storage == nil {
		return
	}

	snapshot := make([]model.CartLine, len(s.lines))
	copy(snapshot, s.lines)

	if err := s.storage.Save(ctx, s.key, snapshot); err != nil {
		s.log.Warn("cart save failed", zap.String("key", s.key), zap.Error(err))
	}
}

// 保存データは外から来るので、数量1未満と重複キーをここで直す。
func sanitizeLines(in []model.CartLine) []model.CartLine {
	out := make([]model.CartLine, 0, len(in))
	pos := make(map[model.LineKey]int, len(in))

	for _, l := range in {
		if l.ProductID == "" {
			continue
		}
		if l.Quantity < 1 {
			l.Quantity = 1
		}
		if i, dup := pos[l.Key()]; dup {
			out[i].Quantity += l.Quantity
			continue
		}
		pos[l.Key()] = len(out)
		out = append(out, l)
	}
	return out
}
