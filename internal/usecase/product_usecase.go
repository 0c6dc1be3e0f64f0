package usecase

import (
	"net/http"
	"sort"
	"strings"

	"storefront/internal/domain/model"

	"github.com/shopspring/decimal"
)

// ProductUsecase は公開商品の検索。最新のカタログスナップショットに対して絞り込む。
type ProductUsecase struct {
	feed *CatalogFeed
}

// DI
func NewProductUsecase(feed *CatalogFeed) *ProductUsecase {
	return &ProductUsecase{feed: feed}
}

// GET /productsの入力DTO
type ListProductsInput struct {
	Page        int
	Limit       int
	Q           string
	Category    string
	Tag         string
	MinPrice    *decimal.Decimal
	MaxPrice    *decimal.Decimal
	InStockOnly bool
	Sort        string
}

type ProductListOutput struct {
	Items   []model.Product `json:"items"`
	Total   int64           `json:"total"`
	Page    int             `json:"page"`
	Limit   int             `json:"limit"`
	HasMore bool            `json:"has_more"`
}

func (u *ProductUsecase) ListPublicProducts(in ListProductsInput) (ProductListOutput, error) {
	if in.Page < 1 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if in.Limit < 1 || in.Limit > 100 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if len(in.Q) > 100 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "q too long")
	}
	if in.MinPrice != nil && in.MinPrice.IsNegative() {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "min_price must be >= 0")
	}
	if in.MaxPrice != nil && in.MaxPrice.IsNegative() {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "max_price must be >= 0")
	}
	if in.MinPrice != nil && in.MaxPrice != nil && in.MinPrice.GreaterThan(*in.MaxPrice) {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "min_price must be <= max_price")
	}
	switch in.Sort {
	case "", "new", "price_asc", "price_desc", "name":
	default:
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid sort")
	}

	q := strings.ToLower(strings.TrimSpace(in.Q))
	category := strings.TrimSpace(in.Category)
	tag := strings.TrimSpace(in.Tag)

	matched := make([]model.Product, 0)
	for _, p := range u.feed.Current().Products() {
		// 公開（Active）のみ
		if !p.IsActive() {
			continue
		}
		if q != "" && !matchesQuery(p, q) {
			continue
		}
		if category != "" && !strings.EqualFold(p.Category, category) {
			continue
		}
		if tag != "" && !hasTag(p, tag) {
			continue
		}

		//価格帯
		if in.MinPrice != nil && p.Price.LessThan(*in.MinPrice) {
			continue
		}
		if in.MaxPrice != nil && p.Price.GreaterThan(*in.MaxPrice) {
			continue
		}
		if in.InStockOnly && totalStock(p) <= 0 {
			continue
		}
		matched = append(matched, p)
	}

	//sort（newはカタログ順のまま）
	switch in.Sort {
	case "price_asc":
		sort.SliceStable(matched, func(i, j int) bool { return matched[i].Price.LessThan(matched[j].Price) })
	case "price_desc":
		sort.SliceStable(matched, func(i, j int) bool { return matched[i].Price.GreaterThan(matched[j].Price) })
	case "name":
		sort.SliceStable(matched, func(i, j int) bool {
			return strings.ToLower(matched[i].Name) < strings.ToLower(matched[j].Name)
		})
	}

	//範囲外のpageは空ページ（掛け算の前に判定してあふれを防ぐ）
	total := len(matched)
	offset, end := total, total
	if in.Page-1 <= total/in.Limit {
		offset = (in.Page - 1) * in.Limit
		if offset > total {
			offset = total
		}
		end = offset + in.Limit
		if end > total {
			end = total
		}
	}

	return ProductListOutput{
		Items:   matched[offset:end],
		Total:   int64(total),
		Page:    in.Page,
		Limit:   in.Limit,
		HasMore: end < total,
	}, nil
}

func (u *ProductUsecase) GetProductDetail(productID string) (model.Product, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	p, ok := u.feed.Current().Lookup(productID)
	if !ok || !p.IsActive() {
		return model.Product{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	return p, nil
}

// name / description / tags を部分一致（qは小文字済み）
func matchesQuery(p model.Product, q string) bool {
	if strings.Contains(strings.ToLower(p.Name), q) || strings.Contains(strings.ToLower(p.Description), q) {
		return true
	}
	for _, t := range p.Tags {
		if strings.Contains(strings.ToLower(t), q) {
			return true
		}
	}
	return false
}

func hasTag(p model.Product, tag string) bool {
	for _, t := range p.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// variantありならvariant在庫の合計
func totalStock(p model.Product) int64 {
	if !p.HasVariants() {
		return p.Stock
	}
	var n int64
	for _, v := range p.Variants {
		n += v.Stock
	}
	return n
}
