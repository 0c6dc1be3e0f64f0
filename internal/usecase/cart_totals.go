package usecase

import (
	"storefront/internal/config"
	"storefront/internal/domain/model"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// 金額の集計結果（価格は明細のスナップショットを使う）
type CartTotals struct {
	Subtotal                decimal.Decimal `json:"subtotal"`
	ShippingCost            decimal.Decimal `json:"shipping_cost"`
	Tax                     decimal.Decimal `json:"tax"`
	Total                   decimal.Decimal `json:"total"`
	ShippingProgressPercent decimal.Decimal `json:"shipping_progress_percent"`
}

func ComputeTotals(lines []model.CartLine, rules config.CartConfig) CartTotals {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.LineTotal())
	}

	shipping := rules.ShippingFee
	if subtotal.GreaterThanOrEqual(rules.FreeShippingThreshold) {
		shipping = decimal.Zero
	}

	//税は小数2桁に丸める
	tax := subtotal.Mul(rules.TaxRate).Round(2)

	return CartTotals{
		Subtotal:                subtotal,
		ShippingCost:            shipping,
		Tax:                     tax,
		Total:                   subtotal.Add(shipping).Add(tax),
		ShippingProgressPercent: shippingProgress(subtotal, rules.FreeShippingThreshold),
	}
}

func shippingProgress(subtotal decimal.Decimal, threshold decimal.Decimal) decimal.Decimal {
	if !threshold.IsPositive() {
		return hundred
	}
	p := subtotal.Mul(hundred).Div(threshold).Round(2)
	return decimal.Min(p, hundred)
}
