// Package catalog filters, pages and loads the product catalog.
package catalog

import (
	"net/url"
	"strings"

	"storefront-service/internal/models"

	"github.com/shopspring/decimal"
)

// Criteria holds the active catalog filters. Zero values mean "unset".
type Criteria struct {
	Text     string          `json:"q,omitempty"`
	Category string          `json:"cat,omitempty"`
	MinPrice decimal.Decimal `json:"min"`
	MaxPrice decimal.Decimal `json:"max"`
	Tags     []string        `json:"tags,omitempty"`
}

// Filter re-scans products and keeps, in order, every product matching c
func Filter(products []models.Product, c Criteria) []models.Product {
	q := strings.ToLower(c.Text)
	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if matches(p, c, q) {
			out = append(out, p)
		}
	}
	return out
}

func matches(p models.Product, c Criteria, q string) bool {
	if c.Category != "" && p.Category != c.Category {
		return false
	}
	if q != "" {
		text := strings.ToLower(strings.Join(append([]string{p.Title, p.Description}, p.Tags...), " "))
		if !strings.Contains(text, q) {
			return false
		}
	}
	if !c.MinPrice.IsZero() && p.Price.LessThan(c.MinPrice) {
		return false
	}
	if !c.MaxPrice.IsZero() && p.Price.GreaterThan(c.MaxPrice) {
		return false
	}
	if len(c.Tags) == 0 {
		return true
	}
	for _, t := range c.Tags {
		if p.HasTag(t) {
			return true
		}
	}
	return false
}

// ParseCriteria reads filters from catalog query parameters.
// Unparsable prices are treated as unset.
func ParseCriteria(v url.Values) Criteria {
	c := Criteria{
		Text:     v.Get("q"),
		Category: v.Get("cat"),
		MinPrice: parsePrice(v.Get("min")),
		MaxPrice: parsePrice(v.Get("max")),
	}
	for _, t := range strings.Split(v.Get("tags"), ",") {
		if t != "" {
			c.Tags = append(c.Tags, t)
		}
	}
	return c
}

func parsePrice(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Values encodes c as query parameters, omitting unset filters
func (c Criteria) Values() url.Values {
	v := url.Values{}
	if c.Text != "" {
		v.Set("q", c.Text)
	}
	if c.Category != "" {
		v.Set("cat", c.Category)
	}
	if !c.MinPrice.IsZero() {
		v.Set("min", c.MinPrice.String())
	}
	if !c.MaxPrice.IsZero() {
		v.Set("max", c.MaxPrice.String())
	}
	if len(c.Tags) > 0 {
		v.Set("tags", strings.Join(c.Tags, ","))
	}
	return v
}

// Encode returns the query string form of c
func (c Criteria) Encode() string {
	return c.Values().Encode()
}
