package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending  OrderStatus = "PENDING"
	OrderStatusPaid     OrderStatus = "PAID"
	OrderStatusShipped  OrderStatus = "SHIPPED"
	OrderStatusCanceled OrderStatus = "CANCELED"
)

// 注文。金額はカート確定時点の計算結果をそのまま残す。
type Order struct {
	ID             string          `gorm:"type:uuid;primaryKey" json:"id"`
	SessionID      string          `gorm:"type:varchar(64);not null;uniqueIndex:idx_orders_session_key" json:"-"`
	Status         OrderStatus     `gorm:"type:varchar(20);not null;index" json:"status"`
	Subtotal       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"subtotal"`
	ShippingCost   decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"shipping_cost"`
	Tax            decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"tax"`
	Total          decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total"`
	IdempotencyKey string          `gorm:"type:varchar(255);not null;uniqueIndex:idx_orders_session_key" json:"-"`
	CreatedAt      time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
