package catalog

import (
	"storefront-service/internal/models"

	"github.com/shopspring/decimal"
)

// Facets are the filter controls derived from the catalog
type Facets struct {
	Tags       []string        `json:"tags"`
	Categories []string        `json:"categories"`
	PriceCap   decimal.Decimal `json:"price_cap"`
}

var (
	minPriceCap = decimal.NewFromInt(500)
	capStep     = decimal.NewFromInt(50)
)

// BuildFacets collects distinct tags and categories in first-seen order and
// the price slider cap: max(500, ceil(maxPrice/50)*50)
func BuildFacets(products []models.Product) Facets {
	f := Facets{Tags: []string{}, Categories: []string{}}
	seenTags := make(map[string]bool)
	seenCats := make(map[string]bool)
	maxPrice := decimal.Zero

	for _, p := range products {
		for _, t := range p.Tags {
			if !seenTags[t] {
				seenTags[t] = true
				f.Tags = append(f.Tags, t)
			}
		}
		if p.Category != "" && !seenCats[p.Category] {
			seenCats[p.Category] = true
			f.Categories = append(f.Categories, p.Category)
		}
		if p.Price.GreaterThan(maxPrice) {
			maxPrice = p.Price
		}
	}

	f.PriceCap = decimal.Max(minPriceCap, maxPrice.Div(capStep).Ceil().Mul(capStep))
	return f
}
