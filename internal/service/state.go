package service

import (
	"context"
	"encoding/json"

	"storefront-service/internal/catalog"
	"storefront-service/internal/models"
	"storefront-service/internal/store"

	"go.uber.org/zap"
)

// State is everything one client sees during a page load. It is built once
// by Open and shared by reference with every service.
type State struct {
	Products []models.Product
	Cart     []models.CartLine
	Saved    []models.CartLine
	Wishlist []string
	Coupon   string
	Users    []models.User
	Session  string
}

// LoadState reads every collection from repo. Collections that are missing
// or fail to parse start empty. static is used unless the client stored a
// products override.
func LoadState(ctx context.Context, repo *store.Repository, static []models.Product, logger *zap.Logger) (*State, error) {
	var err error
	s := &State{}

	if s.Products, err = loadProducts(ctx, repo, static, logger); err != nil {
		return nil, err
	}
	if s.Cart, err = store.Load(ctx, repo, store.KeyCart, []models.CartLine{}); err != nil {
		return nil, err
	}
	if s.Saved, err = store.Load(ctx, repo, store.KeySaved, []models.CartLine{}); err != nil {
		return nil, err
	}
	if s.Wishlist, err = store.Load(ctx, repo, store.KeyWishlist, []string{}); err != nil {
		return nil, err
	}
	if s.Coupon, err = store.Load(ctx, repo, store.KeyCoupon, ""); err != nil {
		return nil, err
	}
	if s.Users, err = store.Load(ctx, repo, store.KeyUsers, []models.User{}); err != nil {
		return nil, err
	}
	if s.Session, err = store.Load(ctx, repo, store.KeySession, ""); err != nil {
		return nil, err
	}

	s.normalize()
	return s, nil
}

// normalize replaces JSON nulls with empty collections
func (s *State) normalize() {
	if s.Cart == nil {
		s.Cart = []models.CartLine{}
	}
	if s.Saved == nil {
		s.Saved = []models.CartLine{}
	}
	if s.Wishlist == nil {
		s.Wishlist = []string{}
	}
	if s.Users == nil {
		s.Users = []models.User{}
	}
	for i := range s.Users {
		if s.Users[i].Wishlist == nil {
			s.Users[i].Wishlist = []string{}
		}
	}
}

func loadProducts(ctx context.Context, repo *store.Repository, static []models.Product, logger *zap.Logger) ([]models.Product, error) {
	raw, ok, err := repo.Raw(ctx, store.KeyProductsOverride)
	if err != nil {
		return nil, err
	}
	if !ok || len(raw) == 0 {
		return static, nil
	}

	var override []models.Product
	if err := json.Unmarshal(raw, &override); err != nil {
		logger.Warn("Ignoring unparsable products override", zap.Error(err))
		return []models.Product{}, nil
	}
	products, err := catalog.Validate(override)
	if err != nil {
		logger.Warn("Ignoring invalid products override", zap.Error(err))
		return []models.Product{}, nil
	}
	return products, nil
}

// CurrentUser returns the signed-in user, or nil for a guest
func (s *State) CurrentUser() *models.User {
	if s.Session == "" {
		return nil
	}
	for i := range s.Users {
		if s.Users[i].ID == s.Session {
			return &s.Users[i]
		}
	}
	return nil
}

// FindProduct looks a product up by id
func (s *State) FindProduct(id string) (models.Product, bool) {
	for _, p := range s.Products {
		if p.ID == id {
			return p, true
		}
	}
	return models.Product{}, false
}

// WishlistIDs returns whichever wishlist is authoritative for the session
func (s *State) WishlistIDs() []string {
	if u := s.CurrentUser(); u != nil {
		return u.Wishlist
	}
	return s.Wishlist
}

func indexOfLine(lines []models.CartLine, id string) int {
	for i, l := range lines {
		if l.ID == id {
			return i
		}
	}
	return -1
}

func withoutLine(lines []models.CartLine, id string) []models.CartLine {
	out := make([]models.CartLine, 0, len(lines))
	for _, l := range lines {
		if l.ID != id {
			out = append(out, l)
		}
	}
	return out
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func withoutID(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
