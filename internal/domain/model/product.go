package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "Active"
	ProductStatusDraft    ProductStatus = "Draft"
	ProductStatusArchived ProductStatus = "Archived"
)

// 商品。variantsがある場合はvariant側の在庫で判定する。
type Product struct {
	ID          string          `gorm:"type:varchar(64);primaryKey" json:"id"`
	Name        string          `gorm:"type:varchar(255);not null" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	Image       string          `gorm:"type:varchar(1024)" json:"image"`
	Category    string          `gorm:"type:varchar(100);index" json:"category"`
	Status      ProductStatus   `gorm:"type:varchar(20);not null;index" json:"status"`
	Stock       int64           `gorm:"not null;default:0" json:"stock"`
	Variants    []Variant       `gorm:"foreignKey:ProductID" json:"variants,omitempty"`
	Tags        []string        `gorm:"serializer:json;type:text" json:"tags,omitempty"`
	CreatedAt   time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`
}

// Variantは親商品の中でだけIDがユニーク。
type Variant struct {
	ProductID string `gorm:"type:varchar(64);primaryKey" json:"-"`
	ID        string `gorm:"type:varchar(64);primaryKey" json:"id"`
	Name      string `gorm:"type:varchar(255);not null" json:"name"`
	Stock     int64  `gorm:"not null;default:0" json:"stock"`
}

func (Variant) TableName() string { return "product_variants" }

func (p Product) IsActive() bool {
	return p.Status == ProductStatusActive
}

func (p Product) HasVariants() bool {
	return len(p.Variants) > 0
}

// FindVariant は親商品の中からvariantを探す。
func (p Product) FindVariant(variantID string) (Variant, bool) {
	for _, v := range p.Variants {
		if v.ID == variantID {
			return v, true
		}
	}
	return Variant{}, false
}
