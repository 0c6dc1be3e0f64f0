package usecase

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"storefront/internal/config"
	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
)

const (
	defaultCartCacheSize = 10000
	defaultCartCacheTTL  = 10 * time.Minute
)

// CartCacheOptions はメモリに持つカートの数と期限。
// 追い出したカートは次のアクセスで保存先から読み直す。
type CartCacheOptions struct {
	Size int
	TTL  time.Duration
}

// CartUsecase は /cart の業務ロジックです。
// セッションごとにCartStoreを1つ持ち、最初に触ったときに保存先から読み込みます。
// 期限はアクセスで延ばさないので、他インスタンスの更新もTTL以内に読み直されます。
type CartUsecase struct {
	storage   repo.CartStorage
	feed      *CatalogFeed
	rules     config.CartConfig
	keyPrefix string
	log       *zap.Logger

	mu     sync.Mutex
	stores *expirable.LRU[string, *cartEntry]
}

// 読み込みはセッションごとに1回。レジストリのロックの外で行う。
type cartEntry struct {
	store *CartStore
	once  sync.Once
}

func NewCartUsecase(
	storage repo.CartStorage,
	feed *CatalogFeed,
	rules config.CartConfig,
	keyPrefix string,
	cache CartCacheOptions,
	log *zap.Logger,
) *CartUsecase {
	if log == nil {
		log = zap.NewNop()
	}
	if cache.Size <= 0 {
		cache.Size = defaultCartCacheSize
	}
	if cache.TTL <= 0 {
		cache.TTL = defaultCartCacheTTL
	}
	return &CartUsecase{
		storage:   storage,
		feed:      feed,
		rules:     rules,
		keyPrefix: keyPrefix,
		log:       log,
		stores:    expirable.NewLRU[string, *cartEntry](cache.Size, nil, cache.TTL),
	}
}

// CartResponse は明細＋在庫状況＋金額＋注文に進めるか。
type CartResponse struct {
	Items         []model.ResolvedLine `json:"items"`
	Totals        CartTotals           `json:"totals"`
	CheckoutReady bool                 `json:"checkout_ready"`
}

type AddCartInput struct {
	ProductID string
	VariantID string
}

type UpdateCartItemInput struct {
	ProductID string
	VariantID string
	Delta     int64
}

type RemoveCartItemInput struct {
	ProductID string
	VariantID string
}

// Store はセッションのカートを返す（無ければ作って読み込む）。
func (u *CartUsecase) Store(ctx context.Context, sessionID string) *CartStore {
	u.mu.Lock()
	e, ok := u.stores.Get(sessionID)
	if !ok {
		e = &cartEntry{store: NewCartStore(u.keyPrefix+":"+sessionID, u.storage, u.log)}
		u.stores.Add(sessionID, e)
	}
	u.mu.Unlock()

	// 同じセッションの同時アクセスは読み込み完了を待つ
	e.once.Do(func() { e.store.Load(ctx) })
	return e.store
}

// CachedCarts はメモリ上のカート数。
func (u *CartUsecase) CachedCarts() int {
	return u.stores.Len()
}

// GetCart はカート取得。在庫状況は毎回最新カタログで計算し直す。
func (u *CartUsecase) GetCart(ctx context.Context, sessionID string) (CartResponse, error) {
	if sessionID == "" {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return u.buildCartResponse(u.Store(ctx, sessionID)), nil
}

// AddToCart はカートに追加（同一商品＋同一variantは数量加算）。
// 在庫はここではチェックしない。
func (u *CartUsecase) AddToCart(ctx context.Context, sessionID string, in AddCartInput) (CartResponse, error) {
	if sessionID == "" {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	productID := strings.TrimSpace(in.ProductID)
	variantID := strings.TrimSpace(in.VariantID)
	if productID == "" {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}

	// 商品チェック（公開のみ）
	p, ok := u.feed.Current().Lookup(productID)
	if !ok || !p.IsActive() {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid")
	}

	var variant *model.Variant
	switch {
	case p.HasVariants() && variantID == "":
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "variant required")
	case p.HasVariants():
		v, ok := p.FindVariant(variantID)
		if !ok {
			return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid variant")
		}
		variant = &v
	case variantID != "":
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid variant")
	}

	s := u.Store(ctx, sessionID)
	s.Add(ctx, p, variant)

	return u.buildCartResponse(s), nil
}

// 数量変更（1未満にはならない）。
func (u *CartUsecase) UpdateCartItem(ctx context.Context, sessionID string, in UpdateCartItemInput) (CartResponse, error) {
	if sessionID == "" {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if strings.TrimSpace(in.ProductID) == "" {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}
	if in.Delta == 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid delta")
	}

	s := u.Store(ctx, sessionID)
	s.UpdateQuantity(ctx, strings.TrimSpace(in.ProductID), strings.TrimSpace(in.VariantID), in.Delta)

	return u.buildCartResponse(s), nil
}

// 明細削除（無ければ何もしない）
func (u *CartUsecase) DeleteCartItem(ctx context.Context, sessionID string, in RemoveCartItemInput) (CartResponse, error) {
	if sessionID == "" {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if strings.TrimSpace(in.ProductID) == "" {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}

	s := u.Store(ctx, sessionID)
	s.Remove(ctx, strings.TrimSpace(in.ProductID), strings.TrimSpace(in.VariantID))

	return u.buildCartResponse(s), nil
}

// カートを空にする
func (u *CartUsecase) ClearCart(ctx context.Context, sessionID string) (CartResponse, error) {
	if sessionID == "" {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	s := u.Store(ctx, sessionID)
	s.Clear(ctx)

	return u.buildCartResponse(s), nil
}

func (u *CartUsecase) buildCartResponse(s *CartStore) CartResponse {
	lines := s.Lines()
	view := ComputeView(lines, u.feed.Current(), u.rules.LowStockThreshold)

	return CartResponse{
		Items:         view,
		Totals:        ComputeTotals(lines, u.rules),
		CheckoutReady: CheckoutReady(view),
	}
}
