package catalog

import "storefront-service/internal/models"

// DefaultPageSize is the number of products revealed per sentinel trigger
const DefaultPageSize = 6

// Paginator reveals a filtered list in fixed-size pages.
// Rendering is append-only until Reset.
type Paginator struct {
	items    []models.Product
	rendered int
	pageSize int
}

// NewPaginator creates a paginator over items with nothing rendered yet
func NewPaginator(items []models.Product, pageSize int) *Paginator {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Paginator{items: items, pageSize: pageSize}
}

// Reset swaps in a new list and restarts paging from the top
func (p *Paginator) Reset(items []models.Product) {
	p.items = items
	p.rendered = 0
}

// Reveal renders the next page and returns only the newly shown items.
// It returns nil once everything is rendered.
func (p *Paginator) Reveal() []models.Product {
	if p.Done() {
		return nil
	}
	start := p.rendered
	end := start + p.pageSize
	if end > len(p.items) {
		end = len(p.items)
	}
	p.rendered = end
	return p.items[start:end]
}

// Rendered returns every item shown so far
func (p *Paginator) Rendered() []models.Product {
	return p.items[:p.rendered]
}

// RenderedCount returns how many items are shown
func (p *Paginator) RenderedCount() int {
	return p.rendered
}

// Total returns the size of the underlying list
func (p *Paginator) Total() int {
	return len(p.items)
}

// Done reports whether every item has been rendered
func (p *Paginator) Done() bool {
	return p.rendered >= len(p.items)
}

// PageSize returns the configured page size
func (p *Paginator) PageSize() int {
	return p.pageSize
}
