package service

import (
	"context"
	"fmt"
	"regexp"

	"storefront-service/internal/analytics"
	"storefront-service/internal/catalog"
	"storefront-service/internal/models"
	"storefront-service/internal/pricing"
	"storefront-service/internal/store"
	"storefront-service/internal/util"

	"go.uber.org/zap"
)

// env is the shared plumbing handed to every service
type env struct {
	state    *State
	repo     *store.Repository
	notifier *Notifier
	tracker  analytics.Tracker
	logger   *zap.Logger
}

func (e *env) notify(topic Topic) {
	e.notifier.Publish(Change{Topic: topic, CartCount: pricing.ItemCount(e.state.Cart)})
}

func (e *env) saveCart(ctx context.Context) error {
	return e.repo.Save(ctx, store.KeyCart, e.state.Cart)
}

func (e *env) saveSaved(ctx context.Context) error {
	return e.repo.Save(ctx, store.KeySaved, e.state.Saved)
}

// updateUser applies fn to a copy of the user with id and persists the
// collection. The in-memory state only changes once the write succeeds.
func (e *env) updateUser(ctx context.Context, id string, fn func(u *models.User)) (*models.User, error) {
	users := make([]models.User, len(e.state.Users))
	copy(users, e.state.Users)

	for i := range users {
		if users[i].ID != id {
			continue
		}
		fn(&users[i])
		if err := e.repo.Save(ctx, store.KeyUsers, users); err != nil {
			return nil, err
		}
		e.state.Users = users
		return &users[i], nil
	}
	return nil, fmt.Errorf("%w: user %s", ErrNotFound, id)
}

// Storefront is the top-level controller for one client's page load
type Storefront struct {
	ClientID string
	State    *State
	Notifier *Notifier

	Cart     *CartService
	Accounts *AccountService
	Checkout *CheckoutService
	Reviews  *ReviewService
	Catalog  *CatalogService
}

// Options tunes a storefront
type Options struct {
	PageSize int
}

// Open loads the client's state from repo and wires the services around it
func Open(
	ctx context.Context,
	clientID string,
	repo *store.Repository,
	products []models.Product,
	tracker analytics.Tracker,
	opts Options,
) (*Storefront, error) {
	logger := util.GetLogger().With(zap.String("client_id", clientID))

	state, err := LoadState(ctx, repo, products, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}

	if tracker == nil {
		tracker = analytics.Nop{}
	}
	if opts.PageSize <= 0 {
		opts.PageSize = catalog.DefaultPageSize
	}

	e := &env{
		state:    state,
		repo:     repo,
		notifier: NewNotifier(),
		tracker:  tracker,
		logger:   logger,
	}

	return &Storefront{
		ClientID: clientID,
		State:    state,
		Notifier: e.notifier,
		Cart:     &CartService{env: e},
		Accounts: &AccountService{env: e},
		Checkout: &CheckoutService{env: e},
		Reviews:  &ReviewService{env: e},
		Catalog:  &CatalogService{env: e, pageSize: opts.PageSize},
	}, nil
}

// Factory opens storefronts for clients sharing one KV backend
type Factory struct {
	kv        store.KV
	products  []models.Product
	publisher analytics.Publisher
	opts      Options
}

// NewFactory creates a factory. publisher may be nil to keep analytics local.
func NewFactory(kv store.KV, products []models.Product, publisher analytics.Publisher, opts Options) *Factory {
	return &Factory{
		kv:        kv,
		products:  products,
		publisher: publisher,
		opts:      opts,
	}
}

var clientIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidClientID reports whether id can name a storage namespace
func ValidClientID(id string) bool {
	return clientIDPattern.MatchString(id)
}

// Open loads the storefront for clientID
func (f *Factory) Open(ctx context.Context, clientID string) (*Storefront, error) {
	if !ValidClientID(clientID) {
		return nil, fmt.Errorf("%w: invalid client id %q", ErrValidation, clientID)
	}
	repo := store.NewRepository(store.Scope(f.kv, clientID))
	tracker := analytics.NewEventLog(repo, clientID, f.publisher)
	return Open(ctx, clientID, repo, f.products, tracker, f.opts)
}
