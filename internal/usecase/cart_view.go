package usecase

import "storefront/internal/domain/model"

// ComputeView はカート明細を最新カタログと突き合わせる（更新はしない）。
//
// 商品が無い／Activeでない → 在庫0で購入不可。
// variantありの商品 → 明細のvariantの在庫（無くなっていれば0）。
// variantありなのに明細にvariantが無い → 壊れた明細なので購入不可。
// variantなし → 商品本体の在庫。
func ComputeView(lines []model.CartLine, catalog *model.Catalog, lowStockThreshold int64) []model.ResolvedLine {
	out := make([]model.ResolvedLine, 0, len(lines))

	for _, l := range lines {
		liveStock, available := resolveStock(l, catalog)

		outOfStock := !available || liveStock <= 0
		out = append(out, model.ResolvedLine{
			CartLine:     l,
			LiveStock:    liveStock,
			IsOutOfStock: outOfStock,
			IsLowStock:   available && liveStock > 0 && liveStock <= lowStockThreshold,
			CanIncrement: !outOfStock && l.Quantity < liveStock,
		})
	}

	return out
}

func resolveStock(l model.CartLine, catalog *model.Catalog) (int64, bool) {
	p, ok := catalog.Lookup(l.ProductID)
	if !ok || !p.IsActive() {
		return 0, false
	}

	if p.HasVariants() {
		if l.VariantID == "" {
			return 0, false
		}
		v, ok := p.FindVariant(l.VariantID)
		if !ok {
			return 0, true
		}
		return v.Stock, true
	}

	return p.Stock, true
}

// CheckoutReady は「空でない」かつ「在庫切れの明細が無い」ときだけ true。
func CheckoutReady(view []model.ResolvedLine) bool {
	if len(view) == 0 {
		return false
	}
	for _, l := range view {
		if l.IsOutOfStock {
			return false
		}
	}
	return true
}
