package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"storefront-service/internal/catalog"
	"storefront-service/internal/models"
	"storefront-service/internal/pricing"
	"storefront-service/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingTracker struct {
	events []string
}

func (r *recordingTracker) Track(_ context.Context, eventType string, _ map[string]interface{}) {
	r.events = append(r.events, eventType)
}

func testProducts() []models.Product {
	mk := func(id, title, category, price string, tags ...string) models.Product {
		return models.Product{
			ID:       id,
			Title:    title,
			Category: category,
			Price:    decimal.RequireFromString(price),
			Currency: "EUR",
			Tags:     tags,
			Stock:    5,
		}
	}
	return []models.Product{
		mk("p1", "Rack Server", "hardware", "100", "server"),
		mk("p2", "Backup Suite", "software", "50", "backup"),
		mk("p3", "Managed Firewall", "services", "20", "security"),
		mk("p4", "Edge Router", "hardware", "80", "network"),
		mk("p5", "VPN Licence", "software", "30", "security", "network"),
		mk("p6", "SIEM Setup", "services", "400", "security"),
		mk("p7", "NAS Appliance", "hardware", "250", "backup"),
	}
}

// openPage simulates one page load against kv
func openPage(t *testing.T, kv store.KV) (*Storefront, *recordingTracker) {
	t.Helper()
	tracker := &recordingTracker{}
	sf, err := Open(context.Background(), "test", store.NewRepository(kv), testProducts(), tracker, Options{PageSize: 3})
	require.NoError(t, err)
	return sf, tracker
}

func TestAddToCartTwiceIncrementsQty(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	sf, tracker := openPage(t, kv)

	require.NoError(t, sf.Cart.AddToCart(ctx, "p1"))
	require.NoError(t, sf.Cart.AddToCart(ctx, "p1"))

	reloaded, _ := openPage(t, kv)
	require.Len(t, reloaded.State.Cart, 1)
	assert.Equal(t, 2, reloaded.State.Cart[0].Qty)
	assert.Equal(t, []string{models.EventAddToCart, models.EventAddToCart}, tracker.events)
}

func TestAddUnknownProductIsIgnored(t *testing.T) {
	sf, tracker := openPage(t, store.NewMemory())

	require.NoError(t, sf.Cart.AddToCart(context.Background(), "nope"))
	assert.Empty(t, sf.State.Cart)
	assert.Empty(t, tracker.events)
}

func TestAddThenRemoveLeavesCartUnchanged(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	sf, _ := openPage(t, kv)
	require.NoError(t, sf.Cart.AddToCart(ctx, "p2"))
	before := append([]models.CartLine(nil), sf.State.Cart...)

	require.NoError(t, sf.Cart.AddToCart(ctx, "p1"))
	require.NoError(t, sf.Cart.RemoveFromCart(ctx, "p1"))

	reloaded, _ := openPage(t, kv)
	assert.Equal(t, before, reloaded.State.Cart)
}

func TestUpdateQtyClampsToOne(t *testing.T) {
	ctx := context.Background()
	sf, _ := openPage(t, store.NewMemory())
	require.NoError(t, sf.Cart.AddToCart(ctx, "p1"))

	require.NoError(t, sf.Cart.UpdateQty(ctx, "p1", 0))
	assert.Equal(t, 1, sf.State.Cart[0].Qty)

	require.NoError(t, sf.Cart.UpdateQty(ctx, "p1", -4))
	assert.Equal(t, 1, sf.State.Cart[0].Qty)

	require.NoError(t, sf.Cart.UpdateQty(ctx, "p1", 7))
	assert.Equal(t, 7, sf.State.Cart[0].Qty)
}

func TestSaveForLaterAndMoveBackMerges(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	sf, _ := openPage(t, kv)

	require.NoError(t, sf.Cart.AddToCart(ctx, "p1"))
	require.NoError(t, sf.Cart.AddToCart(ctx, "p1"))
	require.NoError(t, sf.Cart.SaveForLater(ctx, "p1"))
	assert.Empty(t, sf.State.Cart)
	require.Len(t, sf.State.Saved, 1)
	assert.Equal(t, 2, sf.State.Saved[0].Qty)

	require.NoError(t, sf.Cart.AddToCart(ctx, "p1"))
	require.NoError(t, sf.Cart.MoveToCart(ctx, "p1"))

	reloaded, _ := openPage(t, kv)
	assert.Empty(t, reloaded.State.Saved)
	require.Len(t, reloaded.State.Cart, 1)
	assert.Equal(t, 3, reloaded.State.Cart[0].Qty)
}

func TestRemoveSaved(t *testing.T) {
	ctx := context.Background()
	sf, _ := openPage(t, store.NewMemory())
	require.NoError(t, sf.Cart.AddToCart(ctx, "p3"))
	require.NoError(t, sf.Cart.SaveForLater(ctx, "p3"))

	require.NoError(t, sf.Cart.RemoveSaved(ctx, "p3"))
	assert.Empty(t, sf.State.Saved)
}

func TestCouponAppliesToSummary(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	sf, _ := openPage(t, kv)
	require.NoError(t, sf.Cart.AddToCart(ctx, "p1"))
	require.NoError(t, sf.Cart.ApplyCoupon(ctx, " ndi10 "))

	reloaded, _ := openPage(t, kv)
	summary := reloaded.Cart.Summary()
	assert.Equal(t, pricing.CouponCode, summary.Coupon)
	assert.Equal(t, 1, summary.ItemCount)
	// 100 - 10 + 7.5 + 22
	assert.True(t, decimal.RequireFromString("119.5").Equal(summary.Totals.Total), summary.Totals.Total.String())
}

func TestWishlistGuestAndUser(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	sf, _ := openPage(t, kv)

	require.NoError(t, sf.Cart.AddToWishlist(ctx, "p2"))
	require.NoError(t, sf.Cart.AddToWishlist(ctx, "p2"))
	require.NoError(t, sf.Cart.AddToWishlist(ctx, "missing"))
	assert.Equal(t, []string{"p2"}, sf.State.Wishlist)

	_, err := sf.Accounts.Register(ctx, "a@example.com", "pw", "A")
	require.NoError(t, err)
	assert.Empty(t, sf.Cart.Wishlist(), "signed-in users see their own wishlist")

	require.NoError(t, sf.Cart.AddToWishlist(ctx, "p4"))

	reloaded, _ := openPage(t, kv)
	assert.Equal(t, []string{"p2"}, reloaded.State.Wishlist)
	assert.Equal(t, []string{"p4"}, reloaded.State.CurrentUser().Wishlist)

	require.NoError(t, reloaded.Accounts.Logout(ctx))
	wl := reloaded.Cart.Wishlist()
	require.Len(t, wl, 1)
	assert.Equal(t, "p2", wl[0].ID)
}

func TestMoveWishlistToCart(t *testing.T) {
	ctx := context.Background()
	sf, _ := openPage(t, store.NewMemory())
	require.NoError(t, sf.Cart.AddToWishlist(ctx, "p5"))

	require.NoError(t, sf.Cart.MoveWishlistToCart(ctx, "p5"))
	assert.Empty(t, sf.State.Wishlist)
	require.Len(t, sf.State.Cart, 1)
	assert.Equal(t, "p5", sf.State.Cart[0].ID)
}

func TestRegisterGrantsAdminOnlyToFirstUser(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	sf, _ := openPage(t, kv)

	first, err := sf.Accounts.Register(ctx, "First@Example.com ", "pw", "First")
	require.NoError(t, err)
	assert.True(t, first.HasRole(models.RoleAdmin))
	assert.Equal(t, "first@example.com", first.Email)
	assert.Regexp(t, `^u_[0-9a-f]{8}$`, first.ID)

	second, err := sf.Accounts.Register(ctx, "second@example.com", "pw", "Second")
	require.NoError(t, err)
	assert.False(t, second.HasRole(models.RoleAdmin))

	reloaded, _ := openPage(t, kv)
	assert.Equal(t, second.ID, reloaded.State.Session)
	assert.Len(t, reloaded.State.Users, 2)
}

func TestRegisterErrors(t *testing.T) {
	ctx := context.Background()
	sf, _ := openPage(t, store.NewMemory())

	_, err := sf.Accounts.Register(ctx, "", "pw", "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = sf.Accounts.Register(ctx, "a@example.com", "", "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = sf.Accounts.Register(ctx, "a@example.com", "pw", "")
	require.NoError(t, err)

	_, err = sf.Accounts.Register(ctx, "A@EXAMPLE.COM", "other", "")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestLoginWrongPasswordKeepsSession(t *testing.T) {
	ctx := context.Background()
	sf, _ := openPage(t, store.NewMemory())

	u, err := sf.Accounts.Register(ctx, "a@example.com", "secret", "")
	require.NoError(t, err)

	_, err = sf.Accounts.Login(ctx, "a@example.com", "wrong")
	assert.ErrorIs(t, err, ErrAuth)
	assert.Equal(t, u.ID, sf.State.Session)

	require.NoError(t, sf.Accounts.Logout(ctx))
	_, err = sf.Accounts.Login(ctx, "nobody@example.com", "secret")
	assert.ErrorIs(t, err, ErrAuth)
	assert.Empty(t, sf.State.Session)

	logged, err := sf.Accounts.Login(ctx, " A@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, u.ID, logged.ID)
}

func TestResetPassword(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	sf, _ := openPage(t, kv)
	_, err := sf.Accounts.Register(ctx, "a@example.com", "old", "")
	require.NoError(t, err)

	assert.ErrorIs(t, sf.Accounts.ResetPassword(ctx, "x@example.com", "new"), ErrNotFound)
	require.NoError(t, sf.Accounts.ResetPassword(ctx, "a@example.com", "new"))

	reloaded, _ := openPage(t, kv)
	_, err = reloaded.Accounts.Login(ctx, "a@example.com", "old")
	assert.ErrorIs(t, err, ErrAuth)
	_, err = reloaded.Accounts.Login(ctx, "a@example.com", "new")
	assert.NoError(t, err)
}

func TestAddressesAndOrdersRequireSession(t *testing.T) {
	ctx := context.Background()
	sf, _ := openPage(t, store.NewMemory())

	_, err := sf.Accounts.AddAddress(ctx, models.Address{Line1: "Via Roma 1"})
	assert.ErrorIs(t, err, ErrAuth)
	_, err = sf.Accounts.Orders()
	assert.ErrorIs(t, err, ErrAuth)

	_, err = sf.Accounts.Register(ctx, "a@example.com", "pw", "")
	require.NoError(t, err)
	u, err := sf.Accounts.AddAddress(ctx, models.Address{Line1: "Via Roma 1", City: "Milano"})
	require.NoError(t, err)
	assert.Len(t, u.Addresses, 1)

	orders, err := sf.Accounts.Orders()
	require.NoError(t, err)
	assert.Empty(t, orders)

	_, err = sf.Accounts.Order("o_missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPlaceOrderRequiresSessionAndItems(t *testing.T) {
	ctx := context.Background()
	sf, _ := openPage(t, store.NewMemory())
	require.NoError(t, sf.Cart.AddToCart(ctx, "p1"))

	_, err := sf.Checkout.PlaceOrder(ctx, pricing.MethodStandard)
	assert.ErrorIs(t, err, ErrAuth)
	assert.Len(t, sf.State.Cart, 1)

	_, err = sf.Accounts.Register(ctx, "a@example.com", "pw", "")
	require.NoError(t, err)
	require.NoError(t, sf.Cart.RemoveFromCart(ctx, "p1"))

	_, err = sf.Checkout.PlaceOrder(ctx, pricing.MethodStandard)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestPlaceOrderSnapshotsCart(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	sf, tracker := openPage(t, kv)

	_, err := sf.Accounts.Register(ctx, "a@example.com", "pw", "")
	require.NoError(t, err)
	require.NoError(t, sf.Cart.AddToCart(ctx, "p1"))
	require.NoError(t, sf.Cart.AddToCart(ctx, "p3"))

	quote := sf.Checkout.Quote(pricing.MethodExpress)
	order, err := sf.Checkout.PlaceOrder(ctx, pricing.MethodExpress)
	require.NoError(t, err)
	assert.Regexp(t, `^o_[0-9a-f]{8}$`, order.ID)
	assert.Equal(t, "express", order.Method)
	assert.Len(t, order.Items, 2)
	assert.True(t, quote.Total.Equal(order.Totals.Total))
	assert.True(t, decimal.RequireFromString("14.5").Equal(order.Totals.Shipping))
	assert.Contains(t, tracker.events, models.EventBeginCheckout)
	assert.Contains(t, tracker.events, models.EventPurchase)

	reloaded, _ := openPage(t, kv)
	assert.Empty(t, reloaded.State.Cart)
	orders, err := reloaded.Accounts.Orders()
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, order.ID, orders[0].ID)

	last, err := reloaded.Checkout.LastOrderTotals(ctx)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.True(t, order.Totals.Total.Equal(last.Total))
}

func TestReviewsStayPendingUntilApproved(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	sf, _ := openPage(t, kv)

	_, err := sf.Reviews.Submit(ctx, "p1", ReviewInput{Rating: 5, Body: "great"})
	assert.ErrorIs(t, err, ErrAuth)

	_, err = sf.Accounts.Register(ctx, "a@example.com", "pw", "")
	require.NoError(t, err)

	_, err = sf.Reviews.Submit(ctx, "nope", ReviewInput{Rating: 5, Body: "great"})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = sf.Reviews.Submit(ctx, "p1", ReviewInput{Rating: 6, Body: "great"})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = sf.Reviews.Submit(ctx, "p1", ReviewInput{Rating: 4, Body: "  "})
	assert.ErrorIs(t, err, ErrValidation)

	first, err := sf.Reviews.Submit(ctx, "p1", ReviewInput{Rating: 4, Title: "Solid", Body: "works"})
	require.NoError(t, err)
	assert.Equal(t, models.ReviewStatusPending, first.Status)
	second, err := sf.Reviews.Submit(ctx, "p1", ReviewInput{Rating: 2, Body: "loud fans"})
	require.NoError(t, err)

	listed, err := sf.Reviews.ListApproved(ctx, "p1")
	require.NoError(t, err)
	assert.Zero(t, listed.Count)
	assert.Empty(t, listed.Reviews)

	moderator, _ := openPage(t, kv)
	require.NoError(t, moderator.Reviews.Approve(ctx, "p1", first.ID))
	require.NoError(t, moderator.Reviews.Approve(ctx, "p1", first.ID))
	assert.ErrorIs(t, moderator.Reviews.Approve(ctx, "p1", "missing"), ErrNotFound)

	listed, err = sf.Reviews.ListApproved(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 1, listed.Count)
	assert.Equal(t, first.ID, listed.Reviews[0].ID)
	assert.Equal(t, 4.0, listed.AverageRating)
	assert.NotEqual(t, second.ID, listed.Reviews[0].ID)
}

func TestBrowseRevealsPagesAndCachesQuery(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	sf, _ := openPage(t, kv)

	page, err := sf.Catalog.Browse(ctx, catalog.Criteria{}, 1)
	require.NoError(t, err)
	assert.Len(t, page.Items, 3)
	assert.Equal(t, 3, page.Rendered)
	assert.Equal(t, 7, page.Matched)
	assert.True(t, page.HasMore)

	page, err = sf.Catalog.Browse(ctx, catalog.Criteria{}, 3)
	require.NoError(t, err)
	assert.Len(t, page.Items, 7)
	require.Len(t, page.LastPage, 1)
	assert.Equal(t, "p7", page.LastPage[0].ID)
	assert.Equal(t, 7, page.Rendered)
	assert.False(t, page.HasMore)

	page, err = sf.Catalog.Browse(ctx, catalog.Criteria{Tags: []string{"security"}, Category: "software"}, 1)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "p5", page.Items[0].ID)

	reloaded, _ := openPage(t, kv)
	last, err := reloaded.Catalog.LastQuery(ctx)
	require.NoError(t, err)
	assert.Equal(t, "cat=software&tags=security", last)
}

func TestProductViewIsTracked(t *testing.T) {
	ctx := context.Background()
	sf, tracker := openPage(t, store.NewMemory())

	p, err := sf.Catalog.Product(ctx, "p2")
	require.NoError(t, err)
	assert.Equal(t, "Backup Suite", p.Title)
	assert.Equal(t, []string{models.EventViewItem}, tracker.events)

	_, err = sf.Catalog.Product(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProductsOverride(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	require.NoError(t, kv.Set(ctx, store.KeyProductsOverride,
		[]byte(`[{"id":"x1","title":"Override","price":9.5,"currency":"EUR","stock":1}]`)))

	sf, _ := openPage(t, kv)
	require.Len(t, sf.State.Products, 1)
	assert.Equal(t, "x1", sf.State.Products[0].ID)

	require.NoError(t, kv.Set(ctx, store.KeyProductsOverride, []byte(`{broken`)))
	sf, _ = openPage(t, kv)
	assert.Empty(t, sf.State.Products)
}

func TestNotifierDeliversAfterMutation(t *testing.T) {
	ctx := context.Background()
	sf, _ := openPage(t, store.NewMemory())

	var changes []Change
	sf.Notifier.Subscribe(func(c Change) { changes = append(changes, c) })

	require.NoError(t, sf.Cart.AddToCart(ctx, "p1"))
	require.NoError(t, sf.Cart.AddToCart(ctx, "p1"))
	require.NoError(t, sf.Cart.AddToWishlist(ctx, "p2"))

	require.Len(t, changes, 3)
	assert.Equal(t, Change{Topic: TopicCart, CartCount: 1}, changes[0])
	assert.Equal(t, Change{Topic: TopicCart, CartCount: 2}, changes[1])
	assert.Equal(t, TopicWishlist, changes[2].Topic)
}

func TestFactoryScopesClients(t *testing.T) {
	ctx := context.Background()
	f := NewFactory(store.NewMemory(), testProducts(), nil, Options{})

	alice, err := f.Open(ctx, "alice")
	require.NoError(t, err)
	require.NoError(t, alice.Cart.AddToCart(ctx, "p1"))

	bob, err := f.Open(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, bob.State.Cart)

	alice, err = f.Open(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, alice.State.Cart, 1)
}

// failingKV rejects writes to one key
type failingKV struct {
	store.KV
	key string
}

func (f *failingKV) Set(ctx context.Context, key string, value []byte) error {
	if key == f.key {
		return errors.New("write refused")
	}
	return f.KV.Set(ctx, key, value)
}

func TestBrowsePastLastPageStopsAtEnd(t *testing.T) {
	sf, _ := openPage(t, store.NewMemory())

	start := time.Now()
	page, err := sf.Catalog.Browse(context.Background(), catalog.Criteria{}, math.MaxInt)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)

	assert.Len(t, page.Items, 7)
	assert.Equal(t, 7, page.Rendered)
	assert.Empty(t, page.LastPage)
	assert.False(t, page.HasMore)
}

func TestPlaceOrderHonorsCoupon(t *testing.T) {
	ctx := context.Background()
	sf, _ := openPage(t, store.NewMemory())

	_, err := sf.Accounts.Register(ctx, "a@example.com", "pw", "")
	require.NoError(t, err)
	require.NoError(t, sf.Cart.AddToCart(ctx, "p6"))
	require.NoError(t, sf.Cart.ApplyCoupon(ctx, "NDI10"))

	order, err := sf.Checkout.PlaceOrder(ctx, pricing.MethodStandard)
	require.NoError(t, err)
	// 400 - 40 + 0 + 88
	assert.True(t, decimal.RequireFromString("448").Equal(order.Totals.Total), order.Totals.Total.String())
	assert.True(t, decimal.RequireFromString("40").Equal(order.Totals.Discount))
}

func TestRegisterLeavesStateUntouchedWhenWriteFails(t *testing.T) {
	ctx := context.Background()
	sf, _ := openPage(t, &failingKV{KV: store.NewMemory(), key: store.KeyUsers})

	_, err := sf.Accounts.Register(ctx, "a@example.com", "pw", "")
	require.Error(t, err)
	assert.Empty(t, sf.State.Users)
	assert.Empty(t, sf.State.Session)

	sf, _ = openPage(t, &failingKV{KV: store.NewMemory(), key: store.KeySession})
	_, err = sf.Accounts.Register(ctx, "a@example.com", "pw", "")
	require.Error(t, err)
	assert.Len(t, sf.State.Users, 1)
	assert.Empty(t, sf.State.Session)
}

func TestPlaceOrderLeavesStateUntouchedWhenWriteFails(t *testing.T) {
	ctx := context.Background()
	kv := &failingKV{KV: store.NewMemory()}
	sf, _ := openPage(t, kv)

	_, err := sf.Accounts.Register(ctx, "a@example.com", "pw", "")
	require.NoError(t, err)
	require.NoError(t, sf.Cart.AddToCart(ctx, "p1"))

	kv.key = store.KeyUsers
	_, err = sf.Checkout.PlaceOrder(ctx, pricing.MethodStandard)
	require.Error(t, err)
	assert.Empty(t, sf.State.CurrentUser().Orders)
	assert.Len(t, sf.State.Cart, 1)

	kv.key = store.KeyCart
	_, err = sf.Checkout.PlaceOrder(ctx, pricing.MethodStandard)
	require.Error(t, err)
	assert.Len(t, sf.State.Cart, 1)
}

func TestFactoryRejectsInvalidClientID(t *testing.T) {
	f := NewFactory(store.NewMemory(), testProducts(), nil, Options{})

	for _, id := range []string{"", "a:b", "has space", strings.Repeat("a", 65)} {
		_, err := f.Open(context.Background(), id)
		assert.ErrorIs(t, err, ErrValidation, "client id %q", id)
	}
	assert.True(t, ValidClientID("alice_01-x"))
}
