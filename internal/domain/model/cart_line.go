package model

import "github.com/shopspring/decimal"

// カートの明細
// 追加時点の商品情報（名前・価格・画像・カテゴリ）を必ず保存。
type CartLine struct {
	ProductID   string          `json:"product_id"`
	VariantID   string          `json:"variant_id,omitempty"`
	VariantName string          `json:"variant_name,omitempty"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image,omitempty"`
	Category    string          `json:"category,omitempty"`
	Quantity    int64           `json:"quantity"`
}

// 同一商品＋同一variantで1明細
type LineKey struct {
	ProductID string
	VariantID string
}

func (l CartLine) Key() LineKey {
	return LineKey{ProductID: l.ProductID, VariantID: l.VariantID}
}

// LineTotal はスナップショット価格×数量。
func (l CartLine) LineTotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(l.Quantity))
}

// カタログと突き合わせた結果
type ResolvedLine struct {
	CartLine
	LiveStock    int64 `json:"live_stock"`
	IsOutOfStock bool  `json:"is_out_of_stock"`
	IsLowStock   bool  `json:"is_low_stock"`
	// 在庫以上には増やせない（表示側の制御用）
	CanIncrement bool `json:"can_increment"`
}
