package repository

import (
	"context"

	"storefront/internal/domain/model"

	"gorm.io/gorm"
)

type ProductGormRepository struct {
	db *gorm.DB
}

// DI
func NewProductGormRepository(db *gorm.DB) *ProductGormRepository {
	return &ProductGormRepository{db: db}
}

// カタログ用に削除されていない全商品をvariants込みで返す。
// statusの判定はカタログ側でするのでここでは絞らない。
func (r *ProductGormRepository) ListCatalog(ctx context.Context) ([]model.Product, error) {
	var products []model.Product

	err := r.db.WithContext(ctx).
		Preload("Variants", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("id asc")
		}).
		Order("created_at desc").
		Order("id desc").
		Find(&products).Error
	if err != nil {
		return []model.Product{}, err
	}

	return products, nil
}
