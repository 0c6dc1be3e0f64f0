package repository

import (
	"context"
	"errors"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

type InventoryGormRepository struct {
	db *gorm.DB
}

func NewInventoryGormRepository(db *gorm.DB) *InventoryGormRepository {
	return &InventoryGormRepository{db: db}
}

// variantIDが空なら products、あれば product_variants を対象にする
func (r *InventoryGormRepository) stockTarget(ctx context.Context, productID string, variantID string) *gorm.DB {
	if variantID == "" {
		return r.db.WithContext(ctx).
			Model(&model.Product{}).
			Where("id = ?", productID)
	}
	return r.db.WithContext(ctx).
		Model(&model.Variant{}).
		Where("product_id = ? AND id = ?", productID, variantID)
}

// 在庫の現在値を取得
func (r *InventoryGormRepository) GetStock(ctx context.Context, productID string, variantID string) (int64, error) {
	var stocks []int64
	if err := r.stockTarget(ctx, productID, variantID).Pluck("stock", &stocks).Error; err != nil {
		if isNotFound(err) {
			return 0, repo.ErrNotFound
		}
		return 0, err
	}
	if len(stocks) == 0 {
		return 0, repo.ErrNotFound
	}
	return stocks[0], nil
}

// 在庫の現在値を設定
func (r *InventoryGormRepository) SetStock(ctx context.Context, productID string, variantID string, newStock int64) error {
	res := r.stockTarget(ctx, productID, variantID).
		Update("stock", newStock)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 在庫が足りるときだけ減らす（減らした後の在庫を返す）
func (r *InventoryGormRepository) DecreaseStockIfEnough(ctx context.Context, productID string, variantID string, qty int64) (int64, bool, error) {
	res := r.stockTarget(ctx, productID, variantID).
		Where("stock >= ?", qty).
		Update("stock", gorm.Expr("stock - ?", qty))

	if res.Error != nil {
		return 0, false, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, false, nil
	}

	//減算後の値を読み直す（同じtx内）
	left, err := r.GetStock(ctx, productID, variantID)
	if err != nil {
		return 0, false, err
	}
	return left, true, nil
}

// 調整履歴作成
func (r *InventoryGormRepository) CreateAdjustment(ctx context.Context, adj model.InventoryAdjustment) error {
	if err := r.db.WithContext(ctx).Create(&adj).Error; err != nil {
		return err
	}
	return nil
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
