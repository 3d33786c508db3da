package catalog

import "storefront-service/internal/models"

// View is the catalog page: the active criteria and the pages revealed so far
type View struct {
	products  []models.Product
	criteria  Criteria
	paginator *Paginator
}

// NewView creates a view over products with no filters applied and nothing rendered
func NewView(products []models.Product, pageSize int) *View {
	return &View{
		products:  products,
		paginator: NewPaginator(products, pageSize),
	}
}

// Apply re-filters the full product list, restarts paging and reveals the
// first page
func (v *View) Apply(c Criteria) []models.Product {
	v.criteria = c
	v.paginator.Reset(Filter(v.products, c))
	return v.paginator.Reveal()
}

// LoadMore reveals the next page when the sentinel becomes visible
func (v *View) LoadMore() []models.Product {
	return v.paginator.Reveal()
}

// Criteria returns the active filters
func (v *View) Criteria() Criteria {
	return v.criteria
}

// Rendered returns every product shown so far
func (v *View) Rendered() []models.Product {
	return v.paginator.Rendered()
}

// Matched returns the number of products passing the filters
func (v *View) Matched() int {
	return v.paginator.Total()
}

// HasMore reports whether another page can be revealed
func (v *View) HasMore() bool {
	return !v.paginator.Done()
}
