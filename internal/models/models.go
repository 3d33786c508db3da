package models

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a catalog entry. Reference data, never mutated after load.
type Product struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Currency    string          `json:"currency"`
	Image       string          `json:"image"`
	Category    string          `json:"category"`
	Tags        []string        `json:"tags"`
	Stock       int             `json:"stock"`
	Specs       []string        `json:"specs"`
	Rating      float64         `json:"rating"`
	Reviews     int             `json:"reviews"`
}

// NewProduct validates the required product fields
func NewProduct(p Product) (Product, error) {
	if strings.TrimSpace(p.ID) == "" {
		return Product{}, errors.New("product id is required")
	}
	if p.Price.IsNegative() {
		return Product{}, errors.New("product price must not be negative")
	}
	if p.Stock < 0 {
		return Product{}, errors.New("product stock must not be negative")
	}
	return p, nil
}

// InStock reports whether the product can be shipped
func (p Product) InStock() bool {
	return p.Stock > 0
}

// HasTag reports whether the product carries tag
func (p Product) HasTag(tag string) bool {
	for _, t := range p.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// CartLine is a product snapshot taken when the item was added.
// Saved-for-later entries share the same shape.
type CartLine struct {
	ID       string          `json:"id"`
	Title    string          `json:"title"`
	Price    decimal.Decimal `json:"price"`
	Currency string          `json:"currency"`
	Image    string          `json:"image"`
	Qty      int             `json:"qty"`
}

// NewCartLine snapshots p with quantity 1
func NewCartLine(p Product) CartLine {
	return CartLine{
		ID:       p.ID,
		Title:    p.Title,
		Price:    p.Price,
		Currency: p.Currency,
		Image:    p.Image,
		Qty:      1,
	}
}

// LineTotal returns price * qty
func (l CartLine) LineTotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Qty)))
}

// Totals holds the derived amounts of a cart or order
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Shipping decimal.Decimal `json:"shipping"`
	Tax      decimal.Decimal `json:"tax"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
}

// Address is a delivery address on a user account
type Address struct {
	Line1   string `json:"line1"`
	City    string `json:"city"`
	Postal  string `json:"postal"`
	Country string `json:"country"`
}

// Order is an immutable purchase record owned by a user
type Order struct {
	ID     string     `json:"id"`
	Items  []CartLine `json:"items"`
	Totals Totals     `json:"totals"`
	Method string     `json:"method"`
	Date   time.Time  `json:"date"`
}

// User represents a registered storefront account
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	Name         string    `json:"name"`
	Roles        []string  `json:"roles"`
	Addresses    []Address `json:"addresses"`
	Wishlist     []string  `json:"wishlist"`
	Orders       []Order   `json:"orders"`
}

// HasRole reports whether the user holds role
func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Review represents a product review submitted by a user
type Review struct {
	ID        string    `json:"id"`
	ProductID string    `json:"productId"`
	UserID    string    `json:"userId"`
	UserEmail string    `json:"userEmail"`
	Rating    int       `json:"rating"`
	Title     string    `json:"title,omitempty"`
	Body      string    `json:"body"`
	Date      time.Time `json:"date"`
	Status    string    `json:"status"`
}

// Roles
const (
	RoleAdmin = "admin"
)

// Review statuses
const (
	ReviewStatusPending  = "pending"
	ReviewStatusApproved = "approved"
)
