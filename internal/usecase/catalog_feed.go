package usecase

import (
	"sync"
	"sync/atomic"

	"storefront/internal/domain/model"
)

// CatalogFeed は最新のカタログスナップショットを1つだけ持つ。
// 後から来たものが勝つ。読み取りはロック無し。
type CatalogFeed struct {
	mu  sync.Mutex // 書き込み同士の直列化
	cur atomic.Pointer[model.Catalog]
}

func NewCatalogFeed() *CatalogFeed {
	f := &CatalogFeed{}
	f.cur.Store(model.NewCatalog(nil))
	return f
}

// Current は最新スナップショット（nilにはならない）。
func (f *CatalogFeed) Current() *model.Catalog {
	return f.cur.Load()
}

func (f *CatalogFeed) Publish(c *model.Catalog) {
	if c == nil {
		c = model.NewCatalog(nil)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cur.Store(c)
}

// ApplyStock は1商品（variant）の在庫だけ差し替える。知らないIDなら false。
func (f *CatalogFeed) ApplyStock(productID string, variantID string, stock int64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	next, ok := f.cur.Load().WithStock(productID, variantID, stock)
	if ok {
		f.cur.Store(next)
	}
	return ok
}

func (f *CatalogFeed) ApplyStatus(productID string, status model.ProductStatus) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	next, ok := f.cur.Load().WithStatus(productID, status)
	if ok {
		f.cur.Store(next)
	}
	return ok
}
