package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"storefront-service/internal/models"
)

// Source loads the static product catalog
type Source interface {
	Load(ctx context.Context) ([]models.Product, error)
}

// NewSource picks an HTTP or file source depending on location
func NewSource(location string) Source {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return &HTTPSource{URL: location, Client: http.DefaultClient}
	}
	return &FileSource{Path: location}
}

// FileSource reads the catalog from a JSON file on disk
type FileSource struct {
	Path string
}

// Load reads and validates the catalog file
func (s *FileSource) Load(_ context.Context) ([]models.Product, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer f.Close()

	return Decode(f)
}

// HTTPSource fetches the catalog from a URL
type HTTPSource struct {
	URL    string
	Client *http.Client
}

// Load fetches and validates the catalog
func (s *HTTPSource) Load(ctx context.Context) ([]models.Product, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch catalog: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch catalog: status %d", resp.StatusCode)
	}

	return Decode(resp.Body)
}

// StaticSource serves a fixed product list
type StaticSource []models.Product

// Load returns the fixed list
func (s StaticSource) Load(_ context.Context) ([]models.Product, error) {
	return []models.Product(s), nil
}

// Decode parses a JSON array of products, validating each record
func Decode(r io.Reader) ([]models.Product, error) {
	var raw []models.Product
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	return Validate(raw)
}

// Validate checks every product and rejects duplicate ids
func Validate(raw []models.Product) ([]models.Product, error) {
	products := make([]models.Product, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for i, p := range raw {
		valid, err := models.NewProduct(p)
		if err != nil {
			return nil, fmt.Errorf("product %d: %w", i, err)
		}
		if seen[valid.ID] {
			return nil, fmt.Errorf("product %d: duplicate id %q", i, valid.ID)
		}
		seen[valid.ID] = true
		products = append(products, valid)
	}
	return products, nil
}
