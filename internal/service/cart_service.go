package service

import (
	"context"

	"storefront-service/internal/models"
	"storefront-service/internal/pricing"
	"storefront-service/internal/store"
	"storefront-service/internal/util"

	"go.uber.org/zap"
)

// CartService manages the cart, the saved-for-later list and the wishlist.
// Unknown ids are silently ignored. Each step is persisted on its own.
type CartService struct {
	*env
}

// CartSummary is the cart page view
type CartSummary struct {
	Items     []models.CartLine `json:"items"`
	Saved     []models.CartLine `json:"saved"`
	Coupon    string            `json:"coupon"`
	Totals    models.Totals     `json:"totals"`
	ItemCount int               `json:"item_count"`
}

// Summary returns the cart with standard-shipping totals
func (s *CartService) Summary() CartSummary {
	return CartSummary{
		Items:     s.state.Cart,
		Saved:     s.state.Saved,
		Coupon:    s.state.Coupon,
		Totals:    pricing.ComputeTotals(s.state.Cart, s.state.Coupon),
		ItemCount: pricing.ItemCount(s.state.Cart),
	}
}

// AddToCart increments an existing line or snapshots the product into a new one
func (s *CartService) AddToCart(ctx context.Context, productID string) error {
	ctx, span := util.StartSpan(ctx, "CartService.AddToCart")
	defer span.End()

	if i := indexOfLine(s.state.Cart, productID); i >= 0 {
		s.state.Cart[i].Qty++
	} else {
		p, ok := s.state.FindProduct(productID)
		if !ok {
			s.logger.Debug("Ignoring add of unknown product", zap.String("product_id", productID))
			return nil
		}
		s.state.Cart = append(s.state.Cart, models.NewCartLine(p))
	}

	if err := s.saveCart(ctx); err != nil {
		return err
	}

	util.CartAddsTotal.Inc()
	s.notify(TopicCart)
	s.tracker.Track(ctx, models.EventAddToCart, map[string]interface{}{"id": productID})
	return nil
}

// RemoveFromCart deletes the line for productID
func (s *CartService) RemoveFromCart(ctx context.Context, productID string) error {
	ctx, span := util.StartSpan(ctx, "CartService.RemoveFromCart")
	defer span.End()

	if indexOfLine(s.state.Cart, productID) < 0 {
		return nil
	}

	s.state.Cart = withoutLine(s.state.Cart, productID)
	if err := s.saveCart(ctx); err != nil {
		return err
	}

	s.notify(TopicCart)
	return nil
}

// UpdateQty sets the quantity of a line, clamped to at least 1
func (s *CartService) UpdateQty(ctx context.Context, productID string, qty int) error {
	ctx, span := util.StartSpan(ctx, "CartService.UpdateQty")
	defer span.End()

	i := indexOfLine(s.state.Cart, productID)
	if i < 0 {
		return nil
	}
	if qty < 1 {
		qty = 1
	}

	s.state.Cart[i].Qty = qty
	if err := s.saveCart(ctx); err != nil {
		return err
	}

	s.notify(TopicCart)
	return nil
}

// SaveForLater moves a line from the cart to the saved list
func (s *CartService) SaveForLater(ctx context.Context, productID string) error {
	ctx, span := util.StartSpan(ctx, "CartService.SaveForLater")
	defer span.End()

	i := indexOfLine(s.state.Cart, productID)
	if i < 0 {
		return nil
	}

	line := s.state.Cart[i]
	if j := indexOfLine(s.state.Saved, productID); j >= 0 {
		s.state.Saved[j].Qty += line.Qty
	} else {
		s.state.Saved = append(s.state.Saved, line)
	}
	s.state.Cart = withoutLine(s.state.Cart, productID)

	if err := s.saveCart(ctx); err != nil {
		return err
	}
	if err := s.saveSaved(ctx); err != nil {
		return err
	}

	s.notify(TopicSaved)
	return nil
}

// MoveToCart moves a saved line back, merging into an existing cart line
func (s *CartService) MoveToCart(ctx context.Context, productID string) error {
	ctx, span := util.StartSpan(ctx, "CartService.MoveToCart")
	defer span.End()

	j := indexOfLine(s.state.Saved, productID)
	if j < 0 {
		return nil
	}

	line := s.state.Saved[j]
	if i := indexOfLine(s.state.Cart, productID); i >= 0 {
		s.state.Cart[i].Qty += line.Qty
	} else {
		s.state.Cart = append(s.state.Cart, line)
	}
	s.state.Saved = withoutLine(s.state.Saved, productID)

	if err := s.saveCart(ctx); err != nil {
		return err
	}
	if err := s.saveSaved(ctx); err != nil {
		return err
	}

	s.notify(TopicCart)
	return nil
}

// RemoveSaved drops a line from the saved list
func (s *CartService) RemoveSaved(ctx context.Context, productID string) error {
	if indexOfLine(s.state.Saved, productID) < 0 {
		return nil
	}

	s.state.Saved = withoutLine(s.state.Saved, productID)
	if err := s.saveSaved(ctx); err != nil {
		return err
	}

	s.notify(TopicSaved)
	return nil
}

// ApplyCoupon stores the normalized coupon code for the whole cart
func (s *CartService) ApplyCoupon(ctx context.Context, code string) error {
	s.state.Coupon = pricing.NormalizeCoupon(code)
	if err := s.repo.Save(ctx, store.KeyCoupon, s.state.Coupon); err != nil {
		return err
	}

	s.notify(TopicCart)
	return nil
}

// AddToWishlist adds productID to the session's wishlist, or the guest one
func (s *CartService) AddToWishlist(ctx context.Context, productID string) error {
	ctx, span := util.StartSpan(ctx, "CartService.AddToWishlist")
	defer span.End()

	if _, ok := s.state.FindProduct(productID); !ok {
		return nil
	}

	if u := s.state.CurrentUser(); u != nil {
		if containsID(u.Wishlist, productID) {
			return nil
		}
		if _, err := s.updateUser(ctx, u.ID, func(u *models.User) {
			u.Wishlist = append(append([]string{}, u.Wishlist...), productID)
		}); err != nil {
			return err
		}
	} else {
		if containsID(s.state.Wishlist, productID) {
			return nil
		}
		wishlist := append(append([]string{}, s.state.Wishlist...), productID)
		if err := s.repo.Save(ctx, store.KeyWishlist, wishlist); err != nil {
			return err
		}
		s.state.Wishlist = wishlist
	}

	util.WishlistAddsTotal.Inc()
	s.notify(TopicWishlist)
	s.tracker.Track(ctx, models.EventAddToWishlist, map[string]interface{}{"id": productID})
	return nil
}

// RemoveFromWishlist removes productID from the authoritative wishlist
func (s *CartService) RemoveFromWishlist(ctx context.Context, productID string) error {
	ctx, span := util.StartSpan(ctx, "CartService.RemoveFromWishlist")
	defer span.End()

	if u := s.state.CurrentUser(); u != nil {
		if !containsID(u.Wishlist, productID) {
			return nil
		}
		if _, err := s.updateUser(ctx, u.ID, func(u *models.User) {
			u.Wishlist = withoutID(u.Wishlist, productID)
		}); err != nil {
			return err
		}
	} else {
		if !containsID(s.state.Wishlist, productID) {
			return nil
		}
		wishlist := withoutID(s.state.Wishlist, productID)
		if err := s.repo.Save(ctx, store.KeyWishlist, wishlist); err != nil {
			return err
		}
		s.state.Wishlist = wishlist
	}

	s.notify(TopicWishlist)
	return nil
}

// Wishlist resolves the authoritative wishlist to products, skipping ids no
// longer in the catalog
func (s *CartService) Wishlist() []models.Product {
	ids := s.state.WishlistIDs()
	out := make([]models.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := s.state.FindProduct(id); ok {
			out = append(out, p)
		}
	}
	return out
}

// MoveWishlistToCart adds the product to the cart, then drops it from the wishlist
func (s *CartService) MoveWishlistToCart(ctx context.Context, productID string) error {
	if err := s.AddToCart(ctx, productID); err != nil {
		return err
	}
	return s.RemoveFromWishlist(ctx, productID)
}
