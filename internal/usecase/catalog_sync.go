package usecase

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"go.uber.org/zap"
)

// CatalogSync はDBの商品を読み直してフィードへ流す。
type CatalogSync struct {
	products repo.ProductRepository
	feed     *CatalogFeed
	log      *zap.Logger
}

func NewCatalogSync(products repo.ProductRepository, feed *CatalogFeed, log *zap.Logger) *CatalogSync {
	if log == nil {
		log = zap.NewNop()
	}
	return &CatalogSync{products: products, feed: feed, log: log}
}

// Refresh は全件読み直し。失敗したら前のスナップショットのまま。
func (s *CatalogSync) Refresh(ctx context.Context) error {
	products, err := s.products.ListCatalog(ctx)
	if err != nil {
		return fmt.Errorf("list catalog: %w", err)
	}

	c := model.NewCatalog(products)
	s.feed.Publish(c)
	s.log.Debug("catalog refreshed", zap.Int("products", c.Len()))
	return nil
}

// Run はすぐに1回読み直し、その後intervalごとに繰り返す。ctxで止まる。
func (s *CatalogSync) Run(ctx context.Context, interval time.Duration) {
	if err := s.Refresh(ctx); err != nil {
		s.log.Error("catalog refresh failed", zap.Error(err))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("stopping catalog sync")
			return
		case <-ticker.C:
			if err := s.Refresh(ctx); err != nil && ctx.Err() == nil {
				s.log.Error("catalog refresh failed", zap.Error(err))
			}
		}
	}
}
