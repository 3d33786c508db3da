package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"storefront-service/internal/models"
	"storefront-service/internal/store"
	"storefront-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AccountService registers and authenticates users and owns the session.
// Passwords are stored as an unsalted SHA-256 digest; this is a mock account
// system, not a security boundary.
type AccountService struct {
	*env
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func hashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

func newShortID(prefix string) string {
	return prefix + strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
}

func (s *AccountService) findByEmail(email string) *models.User {
	for i := range s.state.Users {
		if s.state.Users[i].Email == email {
			return &s.state.Users[i]
		}
	}
	return nil
}

func (s *AccountService) setSession(ctx context.Context, userID string) error {
	if err := s.repo.Save(ctx, store.KeySession, userID); err != nil {
		return err
	}
	s.state.Session = userID
	s.notify(TopicSession)
	return nil
}

// CurrentUser returns the signed-in user, or nil for a guest
func (s *AccountService) CurrentUser() *models.User {
	return s.state.CurrentUser()
}

// Register creates a user and signs them in. The first user to register
// while nobody holds the admin role becomes admin.
func (s *AccountService) Register(ctx context.Context, email, password, name string) (*models.User, error) {
	ctx, span := util.StartSpan(ctx, "AccountService.Register")
	defer span.End()

	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password required", ErrValidation)
	}
	if s.findByEmail(email) != nil {
		return nil, fmt.Errorf("%w: email already registered", ErrConflict)
	}

	hasAdmin := false
	for i := range s.state.Users {
		if s.state.Users[i].HasRole(models.RoleAdmin) {
			hasAdmin = true
			break
		}
	}

	user := models.User{
		ID:           s.uniqueUserID(),
		Email:        email,
		PasswordHash: hashPassword(password),
		Name:         strings.TrimSpace(name),
		Roles:        []string{},
		Addresses:    []models.Address{},
		Wishlist:     []string{},
		Orders:       []models.Order{},
	}
	if !hasAdmin {
		user.Roles = append(user.Roles, models.RoleAdmin)
	}

	users := append(append(make([]models.User, 0, len(s.state.Users)+1), s.state.Users...), user)
	if err := s.repo.Save(ctx, store.KeyUsers, users); err != nil {
		return nil, err
	}
	s.state.Users = users
	if err := s.setSession(ctx, user.ID); err != nil {
		return nil, err
	}

	util.RegistrationsTotal.Inc()
	s.logger.Info("User registered",
		zap.String("user_id", user.ID),
		zap.Bool("admin", !hasAdmin))
	return s.state.CurrentUser(), nil
}

func (s *AccountService) uniqueUserID() string {
	for {
		id := newShortID("u_")
		taken := false
		for i := range s.state.Users {
			if s.state.Users[i].ID == id {
				taken = true
				break
			}
		}
		if !taken {
			return id
		}
	}
}

// Login signs in the user matching email and password. A failed login
// leaves the session untouched.
func (s *AccountService) Login(ctx context.Context, email, password string) (*models.User, error) {
	ctx, span := util.StartSpan(ctx, "AccountService.Login")
	defer span.End()

	u := s.findByEmail(normalizeEmail(email))
	if u == nil || u.PasswordHash != hashPassword(password) {
		util.LoginsTotal.WithLabelValues("failure").Inc()
		return nil, fmt.Errorf("%w: invalid credentials", ErrAuth)
	}

	if err := s.setSession(ctx, u.ID); err != nil {
		return nil, err
	}

	util.LoginsTotal.WithLabelValues("success").Inc()
	return u, nil
}

// Logout clears the session
func (s *AccountService) Logout(ctx context.Context) error {
	return s.setSession(ctx, "")
}

// ResetPassword overwrites the password of the account with email.
// No proof of identity is asked for.
func (s *AccountService) ResetPassword(ctx context.Context, email, newPassword string) error {
	ctx, span := util.StartSpan(ctx, "AccountService.ResetPassword")
	defer span.End()

	u := s.findByEmail(normalizeEmail(email))
	if u == nil {
		return fmt.Errorf("%w: email not found", ErrNotFound)
	}

	digest := hashPassword(newPassword)
	if _, err := s.updateUser(ctx, u.ID, func(u *models.User) { u.PasswordHash = digest }); err != nil {
		return err
	}

	s.notify(TopicUsers)
	return nil
}

// AddAddress appends an address to the signed-in user
func (s *AccountService) AddAddress(ctx context.Context, addr models.Address) (*models.User, error) {
	u := s.state.CurrentUser()
	if u == nil {
		return nil, fmt.Errorf("%w: sign in to manage addresses", ErrAuth)
	}

	u, err := s.updateUser(ctx, u.ID, func(u *models.User) {
		u.Addresses = append(append([]models.Address{}, u.Addresses...), addr)
	})
	if err != nil {
		return nil, err
	}

	s.notify(TopicUsers)
	return u, nil
}

// Orders lists the signed-in user's orders, oldest first
func (s *AccountService) Orders() ([]models.Order, error) {
	u := s.state.CurrentUser()
	if u == nil {
		return nil, fmt.Errorf("%w: sign in to view orders", ErrAuth)
	}
	if u.Orders == nil {
		return []models.Order{}, nil
	}
	return u.Orders, nil
}

// Order looks up one of the signed-in user's orders
func (s *AccountService) Order(orderID string) (*models.Order, error) {
	orders, err := s.Orders()
	if err != nil {
		return nil, err
	}
	for i := range orders {
		if orders[i].ID == orderID {
			return &orders[i], nil
		}
	}
	return nil, fmt.Errorf("%w: order %s", ErrNotFound, orderID)
}
