package repository

import (
	"context"

	"storefront/internal/domain/model"
)

// variantIDが空なら商品本体の在庫、あればvariantの在庫を対象にする。
type InventoryRepository interface {
	// 在庫の現在値を取得
	GetStock(ctx context.Context, productID string, variantID string) (int64, error)

	// 在庫の現在値を設定
	SetStock(ctx context.Context, productID string, variantID string, newStock int64) error

	// 在庫が足りるときだけ減算（減算後の在庫を返す）
	DecreaseStockIfEnough(ctx context.Context, productID string, variantID string, qty int64) (int64, bool, error)

	// 調整履歴作成
	CreateAdjustment(ctx context.Context, adjustment model.InventoryAdjustment) error
}
