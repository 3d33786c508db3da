// Package pricing computes cart and checkout totals.
//
// All functions are pure: identical inputs always give identical Totals.
package pricing

import (
	"strings"

	"storefront-service/internal/models"

	"github.com/shopspring/decimal"
)

// CouponCode is the only code that unlocks the discount
const CouponCode = "NDI10"

// Method is a checkout shipping method
type Method string

const (
	MethodStandard Method = "standard"
	MethodExpress  Method = "express"
)

var (
	freeShippingOver = decimal.NewFromInt(300)
	standardFee      = decimal.RequireFromString("7.5")
	expressFee       = decimal.RequireFromString("14.5")
	taxRate          = decimal.RequireFromString("0.22")
	couponRate       = decimal.RequireFromString("0.10")
)

// ParseMethod maps user input to a shipping method, defaulting to standard
func ParseMethod(s string) Method {
	if Method(strings.ToLower(strings.TrimSpace(s))) == MethodExpress {
		return MethodExpress
	}
	return MethodStandard
}

// NormalizeCoupon trims and upper-cases coupon input
func NormalizeCoupon(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Subtotal sums price * qty over all lines
func Subtotal(lines []models.CartLine) decimal.Decimal {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.LineTotal())
	}
	return subtotal
}

// ItemCount sums quantities; this is the cart badge number
func ItemCount(lines []models.CartLine) int {
	count := 0
	for _, l := range lines {
		count += l.Qty
	}
	return count
}

// Shipping returns the fee for method given a subtotal.
// Express is a flat fee with no free-shipping threshold.
func Shipping(subtotal decimal.Decimal, method Method) decimal.Decimal {
	if !subtotal.IsPositive() {
		return decimal.Zero
	}
	if method == MethodExpress {
		return expressFee
	}
	if subtotal.GreaterThan(freeShippingOver) {
		return decimal.Zero
	}
	return standardFee
}

// Discount returns the coupon discount for subtotal
func Discount(subtotal decimal.Decimal, coupon string) decimal.Decimal {
	if coupon != CouponCode {
		return decimal.Zero
	}
	return subtotal.Mul(couponRate)
}

// ComputeTotals prices a cart with standard shipping
func ComputeTotals(lines []models.CartLine, coupon string) models.Totals {
	return ComputeTotalsWith(lines, coupon, MethodStandard)
}

// ComputeTotalsWith prices a cart for the given shipping method
func ComputeTotalsWith(lines []models.CartLine, coupon string, method Method) models.Totals {
	subtotal := Subtotal(lines)
	shipping := Shipping(subtotal, method)
	tax := subtotal.Mul(taxRate)
	discount := Discount(subtotal, coupon)

	return models.Totals{
		Subtotal: subtotal,
		Shipping: shipping,
		Tax:      tax,
		Discount: discount,
		Total:    subtotal.Sub(discount).Add(shipping).Add(tax),
	}
}
