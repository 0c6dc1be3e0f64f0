package repository

import (
	"context"
	"errors"

	"storefront/internal/domain/model"
)

var ErrNotFound = errors.New("not found")

// カタログ読み込みの約束。
type ProductRepository interface {
	// カタログ用に全商品をvariants込みで返す（statusでは絞らない）
	ListCatalog(ctx context.Context) ([]model.Product, error)
}
