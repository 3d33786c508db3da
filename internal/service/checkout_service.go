package service

import (
	"context"
	"fmt"
	"time"

	"storefront-service/internal/models"
	"storefront-service/internal/pricing"
	"storefront-service/internal/store"
	"storefront-service/internal/util"

	"go.uber.org/zap"
)

// CheckoutService prices the cart for a shipping method and places orders
type CheckoutService struct {
	*env
}

// Quote prices the current cart for method
func (s *CheckoutService) Quote(method pricing.Method) models.Totals {
	return pricing.ComputeTotalsWith(s.state.Cart, s.state.Coupon, method)
}

// PlaceOrder snapshots the cart into an order on the signed-in user, records
// the totals as the last order and empties the cart. Order totals are the
// same as the cart quote, so an applied coupon is honored. An empty cart
// cannot be ordered.
func (s *CheckoutService) PlaceOrder(ctx context.Context, method pricing.Method) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "CheckoutService.PlaceOrder")
	defer span.End()

	u := s.state.CurrentUser()
	if u == nil {
		return nil, fmt.Errorf("%w: please register to place an order", ErrAuth)
	}
	if len(s.state.Cart) == 0 {
		return nil, fmt.Errorf("%w: cart is empty", ErrValidation)
	}

	items := make([]map[string]interface{}, 0, len(s.state.Cart))
	for _, l := range s.state.Cart {
		items = append(items, map[string]interface{}{"id": l.ID, "qty": l.Qty})
	}
	s.tracker.Track(ctx, models.EventBeginCheckout, map[string]interface{}{"items": items})

	snapshot := make([]models.CartLine, len(s.state.Cart))
	copy(snapshot, s.state.Cart)

	order := models.Order{
		ID:     newShortID("o_"),
		Items:  snapshot,
		Totals: s.Quote(method),
		Method: string(method),
		Date:   time.Now().UTC(),
	}

	u, err := s.updateUser(ctx, u.ID, func(u *models.User) {
		u.Orders = append(append([]models.Order{}, u.Orders...), order)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save order: %w", err)
	}
	if err := s.repo.Save(ctx, store.KeyLastOrderTotal, order.Totals); err != nil {
		return nil, err
	}

	empty := []models.CartLine{}
	if err := s.repo.Save(ctx, store.KeyCart, empty); err != nil {
		return nil, err
	}
	s.state.Cart = empty

	util.OrdersPlacedTotal.WithLabelValues(string(method)).Inc()
	util.OrderValue.Observe(order.Totals.Total.InexactFloat64())
	s.logger.Info("Order placed",
		zap.String("order_id", order.ID),
		zap.String("user_id", u.ID),
		zap.String("total", order.Totals.Total.StringFixed(2)))

	s.notify(TopicCheckout)
	s.tracker.Track(ctx, models.EventPurchase, map[string]interface{}{
		"id":    order.ID,
		"total": order.Totals.Total.InexactFloat64(),
	})
	return &order, nil
}

// LastOrderTotals returns the totals of the most recent order placed by this
// client, if any
func (s *CheckoutService) LastOrderTotals(ctx context.Context) (*models.Totals, error) {
	var totals models.Totals
	ok, err := s.repo.Load(ctx, store.KeyLastOrderTotal, &totals)
	if err != nil || !ok {
		return nil, err
	}
	return &totals, nil
}
