package service

import (
	"context"
	"fmt"

	"storefront-service/internal/catalog"
	"storefront-service/internal/models"
	"storefront-service/internal/store"
	"storefront-service/internal/util"
)

// CatalogService serves filtered, paged product listings
type CatalogService struct {
	*env
	pageSize int
}

// CatalogPage is the result of browsing up to a page
type CatalogPage struct {
	Items    []models.Product `json:"items"`
	LastPage []models.Product `json:"last_page"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
	Rendered int              `json:"rendered"`
	Matched  int              `json:"matched"`
	HasMore  bool             `json:"has_more"`
	Query    string           `json:"query"`
}

// NewView returns a fresh catalog view over the loaded products
func (s *CatalogService) NewView() *catalog.View {
	return catalog.NewView(s.state.Products, s.pageSize)
}

// Browse applies criteria and reveals pages 1..page, returning everything
// rendered so far and the last revealed page. The encoded criteria are
// cached for deep links.
func (s *CatalogService) Browse(ctx context.Context, c catalog.Criteria, page int) (*CatalogPage, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.Browse")
	defer span.End()

	if page < 1 {
		page = 1
	}

	view := s.NewView()
	last := view.Apply(c)
	for p := 2; p <= page; p++ {
		if !view.HasMore() {
			last = nil
			break
		}
		last = view.LoadMore()
	}
	if last == nil {
		last = []models.Product{}
	}
	rendered := append([]models.Product{}, view.Rendered()...)

	query := c.Encode()
	if err := s.repo.Save(ctx, store.KeyCatalogFilters, query); err != nil {
		return nil, err
	}
	s.notify(TopicCatalog)

	return &CatalogPage{
		Items:    rendered,
		LastPage: last,
		Page:     page,
		PageSize: s.pageSize,
		Rendered: len(rendered),
		Matched:  view.Matched(),
		HasMore:  view.HasMore(),
		Query:    query,
	}, nil
}

// LastQuery returns the most recently browsed filter query string
func (s *CatalogService) LastQuery(ctx context.Context) (string, error) {
	return store.Load(ctx, s.repo, store.KeyCatalogFilters, "")
}

// Product returns a single product and records the view
func (s *CatalogService) Product(ctx context.Context, id string) (*models.Product, error) {
	p, ok := s.state.FindProduct(id)
	if !ok {
		return nil, fmt.Errorf("%w: product %s", ErrNotFound, id)
	}

	s.tracker.Track(ctx, models.EventViewItem, map[string]interface{}{
		"id":    p.ID,
		"price": p.Price.InexactFloat64(),
	})
	return &p, nil
}

// Facets returns tag chips, categories and the price slider cap
func (s *CatalogService) Facets() catalog.Facets {
	return catalog.BuildFacets(s.state.Products)
}
