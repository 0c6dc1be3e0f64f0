package repository

import (
	"context"

	"storefront/internal/domain/model"
)

// カタログ変更イベントの送信先。
type CatalogEventPublisher interface {
	Publish(ctx context.Context, events ...model.CatalogEvent) error
}
