package pricing

import (
	"testing"

	"storefront-service/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func line(id, price string, qty int) models.CartLine {
	return models.CartLine{ID: id, Price: decimal.RequireFromString(price), Qty: qty}
}

func assertDecimal(t *testing.T, expected string, actual decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(expected).Equal(actual), "expected %s, got %s", expected, actual)
}

func TestComputeTotalsCouponExample(t *testing.T) {
	totals := ComputeTotals([]models.CartLine{line("p1", "100", 1)}, "NDI10")

	assertDecimal(t, "100", totals.Subtotal)
	assertDecimal(t, "10", totals.Discount)
	assertDecimal(t, "22", totals.Tax)
	assertDecimal(t, "7.5", totals.Shipping)
	assertDecimal(t, "119.5", totals.Total)
}

func TestShippingThresholds(t *testing.T) {
	tests := []struct {
		name     string
		lines    []models.CartLine
		shipping string
	}{
		{"empty cart", nil, "0"},
		{"small cart", []models.CartLine{line("p1", "10", 2)}, "7.5"},
		{"exactly 300", []models.CartLine{line("p1", "150", 2)}, "7.5"},
		{"over 300", []models.CartLine{line("p1", "150.01", 2)}, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertDecimal(t, tt.shipping, ComputeTotals(tt.lines, "").Shipping)
		})
	}
}

func TestExpressShippingHasNoThreshold(t *testing.T) {
	big := []models.CartLine{line("p1", "500", 1)}

	assertDecimal(t, "14.5", ComputeTotalsWith(big, "", MethodExpress).Shipping)
	assertDecimal(t, "0", ComputeTotalsWith(nil, "", MethodExpress).Shipping)
	assertDecimal(t, "0", ComputeTotalsWith(big, "", MethodStandard).Shipping)
}

func TestTotalIdentity(t *testing.T) {
	carts := [][]models.CartLine{
		nil,
		{line("a", "19.99", 3)},
		{line("a", "120", 1), line("b", "89.5", 2)},
		{line("a", "0.01", 7), line("b", "999.99", 1)},
	}

	for _, cart := range carts {
		for _, coupon := range []string{"", "NDI10", "nope"} {
			totals := ComputeTotals(cart, coupon)
			expected := totals.Subtotal.Sub(totals.Discount).Add(totals.Shipping).Add(totals.Tax)
			assert.True(t, expected.Equal(totals.Total))
			assert.True(t, totals.Subtotal.Mul(decimal.RequireFromString("0.22")).Equal(totals.Tax))
		}
	}
}

func TestUnknownCouponGivesNoDiscount(t *testing.T) {
	totals := ComputeTotals([]models.CartLine{line("p1", "50", 2)}, "ndi10")
	assertDecimal(t, "0", totals.Discount)
}

func TestComputeTotalsIsDeterministic(t *testing.T) {
	cart := []models.CartLine{line("a", "33.33", 3), line("b", "12.5", 1)}
	assert.Equal(t, ComputeTotals(cart, "NDI10"), ComputeTotals(cart, "NDI10"))
}

func TestParseMethodAndNormalizeCoupon(t *testing.T) {
	assert.Equal(t, MethodExpress, ParseMethod(" Express "))
	assert.Equal(t, MethodStandard, ParseMethod("overnight"))
	assert.Equal(t, MethodStandard, ParseMethod(""))
	assert.Equal(t, "NDI10", NormalizeCoupon("  ndi10 "))
}

func TestItemCount(t *testing.T) {
	assert.Equal(t, 0, ItemCount(nil))
	assert.Equal(t, 5, ItemCount([]models.CartLine{line("a", "1", 2), line("b", "1", 3)}))
}
