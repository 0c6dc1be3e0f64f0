package model

import "strings"

// Catalog はある時点の商品一覧（読み取り専用のスナップショット）。
// 取り込み時に形を整えるので、参照側では値を信用してよい。
type Catalog struct {
	products []Product
	index    map[string]int
}

// NewCatalog はDBやイベントから来た商品を正規化してスナップショットを作る。
func NewCatalog(products []Product) *Catalog {
	c := &Catalog{
		products: make([]Product, 0, len(products)),
		index:    make(map[string]int, len(products)),
	}

	for _, p := range products {
		p.ID = strings.TrimSpace(p.ID)
		if p.ID == "" || p.Price.IsNegative() {
			continue
		}
		//重複IDは先勝ち
		if _, dup := c.index[p.ID]; dup {
			continue
		}

		p.Name = strings.TrimSpace(p.Name)
		p.Category = strings.TrimSpace(p.Category)
		if p.Status == "" {
			p.Status = ProductStatusDraft
		}
		if p.Stock < 0 {
			p.Stock = 0
		}

		p.Variants = normalizeVariants(p.ID, p.Variants)
		if len(p.Tags) > 0 {
			p.Tags = append([]string(nil), p.Tags...)
		}

		c.index[p.ID] = len(c.products)
		c.products = append(c.products, p)
	}

	return c
}

func normalizeVariants(productID string, in []Variant) []Variant {
	if len(in) == 0 {
		return nil
	}

	out := make([]Variant, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, v := range in {
		v.ID = strings.TrimSpace(v.ID)
		if v.ID == "" {
			continue
		}
		if _, dup := seen[v.ID]; dup {
			continue
		}
		seen[v.ID] = struct{}{}

		v.ProductID = productID
		v.Name = strings.TrimSpace(v.Name)
		if v.Stock < 0 {
			v.Stock = 0
		}
		out = append(out, v)
	}

	if len(out) == 0 {
		return nil
	}
	return out
}

// Lookup はIDで商品を探す。
func (c *Catalog) Lookup(productID string) (Product, bool) {
	if c == nil {
		return Product{}, false
	}
	i, ok := c.index[productID]
	if !ok {
		return Product{}, false
	}
	return c.products[i], true
}

// Products はスナップショットの商品を取り込み順で返す（コピー）。
func (c *Catalog) Products() []Product {
	if c == nil {
		return []Product{}
	}
	out := make([]Product, len(c.products))
	copy(out, c.products)
	return out
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.products)
}

// WithStock は1商品（またはそのvariant）の在庫だけ差し替えた新しいスナップショットを返す。
// 該当が無ければ false。
func (c *Catalog) WithStock(productID string, variantID string, stock int64) (*Catalog, bool) {
	return c.withProduct(productID, func(p *Product) bool {
		if stock < 0 {
			stock = 0
		}
		if variantID == "" {
			p.Stock = stock
			return true
		}

		vs := make([]Variant, len(p.Variants))
		copy(vs, p.Variants)
		for i := range vs {
			if vs[i].ID == variantID {
				vs[i].Stock = stock
				p.Variants = vs
				return true
			}
		}
		return false
	})
}

// WithStatus は1商品のstatusだけ差し替えた新しいスナップショットを返す。
func (c *Catalog) WithStatus(productID string, status ProductStatus) (*Catalog, bool) {
	return c.withProduct(productID, func(p *Product) bool {
		if status == "" {
			return false
		}
		p.Status = status
		return true
	})
}

func (c *Catalog) withProduct(productID string, patch func(p *Product) bool) (*Catalog, bool) {
	if c == nil {
		return c, false
	}
	i, ok := c.index[productID]
	if !ok {
		return c, false
	}

	p := c.products[i]
	if !patch(&p) {
		return c, false
	}

	products := make([]Product, len(c.products))
	copy(products, c.products)
	products[i] = p

	// indexは変わらないので共有する
	return &Catalog{products: products, index: c.index}, true
}
