package model

import "time"

type CatalogEventType string

const (
	// 商品またはvariantの在庫が変わった
	CatalogEventStockChanged CatalogEventType = "StockChanged"
	// 商品のstatusが変わった
	CatalogEventStatusChanged CatalogEventType = "StatusChanged"
	// それ以外の変更（全件読み直し）
	CatalogEventCatalogChanged CatalogEventType = "CatalogChanged"
)

// カタログ変更イベント（Kafkaに流すJSON）
type CatalogEvent struct {
	EventID   string           `json:"event_id"`
	EventType CatalogEventType `json:"event_type"`
	ProductID string           `json:"product_id,omitempty"`
	VariantID string           `json:"variant_id,omitempty"`
	Stock     *int64           `json:"stock,omitempty"`
	Status    ProductStatus    `json:"status,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}
