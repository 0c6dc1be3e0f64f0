package repository

import (
	"context"

	"storefront/internal/domain/model"
)

// カート明細の保存先（キー1つにJSON配列で丸ごと保存）。
// 保存されていなければ空のスライスを返す。
type CartStorage interface {
	Load(ctx context.Context, key string) ([]model.CartLine, error)
	Save(ctx context.Context, key string, lines []model.CartLine) error
}
