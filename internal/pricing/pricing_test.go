package pricing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func testEngine() *Engine {
	return NewEngine(dec("0.10"), dec("50.00"), dec("9.99"), DefaultCoupons())
}

func TestPriceWithPercentageCoupon(t *testing.T) {
	e := testEngine()

	lines := []Line{
		{ProductID: "p1", UnitPrice: dec("199.99"), Quantity: 1},
		{ProductID: "p2", UnitPrice: dec("79.99"), Quantity: 1},
	}

	bd, err := e.Price(lines, "SAVE20")
	require.NoError(t, err)

	assert.Equal(t, "279.98", bd.Subtotal.StringFixed(2))
	assert.Equal(t, "56.00", bd.Discount.StringFixed(2))
	assert.Equal(t, "0.00", bd.Shipping.StringFixed(2))
	assert.Equal(t, "22.40", bd.Tax.StringFixed(2))
	assert.Equal(t, "246.38", bd.GrandTotal.StringFixed(2))
	assert.Equal(t, "SAVE20", bd.AppliedCoupon)
}

func TestPriceWithoutCoupon(t *testing.T) {
	e := testEngine()

	bd, err := e.Price([]Line{{ProductID: "p1", UnitPrice: dec("30.00"), Quantity: 1}}, "")
	require.NoError(t, err)

	assert.Equal(t, "30.00", bd.Subtotal.StringFixed(2))
	assert.Equal(t, "0.00", bd.Discount.StringFixed(2))
	assert.Equal(t, "9.99", bd.Shipping.StringFixed(2))
	assert.Equal(t, "3.00", bd.Tax.StringFixed(2))
	assert.Equal(t, "42.99", bd.GrandTotal.StringFixed(2))
	assert.Empty(t, bd.AppliedCoupon)
}

func TestPriceCouponCodeIsCaseInsensitive(t *testing.T) {
	e := testEngine()
	lines := []Line{{ProductID: "p1", UnitPrice: dec("100.00"), Quantity: 1}}

	upper, err := e.Price(lines, "SAVE20")
	require.NoError(t, err)
	lower, err := e.Price(lines, "save20")
	require.NoError(t, err)

	assert.True(t, upper.GrandTotal.Equal(lower.GrandTotal))
	assert.Equal(t, "SAVE20", lower.AppliedCoupon)
}

func TestPriceFixedCouponNeverExceedsSubtotal(t *testing.T) {
	coupons := CouponTable{
		"TENNER": {Code: "TENNER", Type: CouponFixed, Value: dec("10.00")},
	}
	e := NewEngine(dec("0.10"), dec("50.00"), dec("9.99"), coupons)

	bd, err := e.Price([]Line{{ProductID: "p1", UnitPrice: dec("4.00"), Quantity: 1}}, "TENNER")
	require.NoError(t, err)

	assert.Equal(t, "4.00", bd.Discount.StringFixed(2))
	// Nothing left after the discount: shipping plus zero tax.
	assert.Equal(t, "9.99", bd.GrandTotal.StringFixed(2))
	assert.False(t, bd.GrandTotal.IsNegative())
}

func TestPriceFixedCouponAtMinimum(t *testing.T) {
	e := testEngine()

	bd, err := e.Price([]Line{{ProductID: "p1", UnitPrice: dec("200.00"), Quantity: 1}}, "FLAT50")
	require.NoError(t, err)

	assert.Equal(t, "50.00", bd.Discount.StringFixed(2))
	assert.Equal(t, "0.00", bd.Shipping.StringFixed(2))
	assert.Equal(t, "15.00", bd.Tax.StringFixed(2))
	assert.Equal(t, "165.00", bd.GrandTotal.StringFixed(2))
}

func TestPriceRejectsCouponBelowMinimum(t *testing.T) {
	e := testEngine()

	_, err := e.Price([]Line{{ProductID: "p1", UnitPrice: dec("199.99"), Quantity: 1}}, "FLAT50")
	assert.ErrorIs(t, err, ErrCouponMinimum)
}

func TestPriceRejectsUnknownCoupon(t *testing.T) {
	e := testEngine()

	_, err := e.Price([]Line{{ProductID: "p1", UnitPrice: dec("100.00"), Quantity: 1}}, "NOPE99")
	assert.ErrorIs(t, err, ErrCouponNotFound)
}

func TestPriceRejectsExpiredCoupon(t *testing.T) {
	e := testEngine()
	e.now = func() time.Time {
		return time.Now().UTC().Add(31 * 24 * time.Hour)
	}

	_, err := e.Price([]Line{{ProductID: "p1", UnitPrice: dec("100.00"), Quantity: 1}}, "SAVE20")
	assert.ErrorIs(t, err, ErrCouponExpired)
}

func TestPriceShippingBoundary(t *testing.T) {
	e := testEngine()

	// Exactly at the threshold still pays the flat fee.
	atThreshold, err := e.Price([]Line{{ProductID: "p1", UnitPrice: dec("50.00"), Quantity: 1}}, "")
	require.NoError(t, err)
	assert.Equal(t, "9.99", atThreshold.Shipping.StringFixed(2))

	// One cent over the threshold ships free.
	overThreshold, err := e.Price([]Line{{ProductID: "p1", UnitPrice: dec("50.01"), Quantity: 1}}, "")
	require.NoError(t, err)
	assert.Equal(t, "0.00", overThreshold.Shipping.StringFixed(2))
}

func TestPriceShippingUsesDiscountedSubtotal(t *testing.T) {
	e := testEngine()

	// 60.00 gross but 48.00 after SAVE20: below the threshold, so the fee
	// applies even though the raw subtotal clears it.
	bd, err := e.Price([]Line{{ProductID: "p1", UnitPrice: dec("60.00"), Quantity: 1}}, "SAVE20")
	require.NoError(t, err)

	assert.Equal(t, "12.00", bd.Discount.StringFixed(2))
	assert.Equal(t, "9.99", bd.Shipping.StringFixed(2))
}

func TestPriceIsDeterministic(t *testing.T) {
	e := testEngine()
	lines := []Line{
		{ProductID: "p1", UnitPrice: dec("19.99"), Quantity: 3},
		{ProductID: "p2", UnitPrice: dec("5.50"), Quantity: 2},
	}

	first, err := e.Price(lines, "SAVE20")
	require.NoError(t, err)
	second, err := e.Price(lines, "SAVE20")
	require.NoError(t, err)

	assert.True(t, first.GrandTotal.Equal(second.GrandTotal))
	assert.True(t, first.Tax.Equal(second.Tax))
	assert.True(t, first.Discount.Equal(second.Discount))
}

func TestMergeLinesCollapsesDuplicates(t *testing.T) {
	merged, err := MergeLines([]Line{
		{ProductID: "p1", UnitPrice: dec("10.00"), Quantity: 1},
		{ProductID: "p2", UnitPrice: dec("5.00"), Quantity: 1},
		{ProductID: "p1", UnitPrice: dec("10.00"), Quantity: 2},
	})
	require.NoError(t, err)

	require.Len(t, merged, 2)
	assert.Equal(t, "p1", merged[0].ProductID)
	assert.Equal(t, 3, merged[0].Quantity)
	assert.Equal(t, "p2", merged[1].ProductID)
}

func TestMergeLinesRejectsConflictingPrices(t *testing.T) {
	_, err := MergeLines([]Line{
		{ProductID: "p1", UnitPrice: dec("10.00"), Quantity: 1},
		{ProductID: "p1", UnitPrice: dec("9.00"), Quantity: 1},
	})
	assert.ErrorIs(t, err, ErrInvalidLine)
}

func TestMergeLinesRejectsBadInput(t *testing.T) {
	_, err := MergeLines([]Line{{ProductID: "p1", UnitPrice: dec("10.00"), Quantity: 0}})
	assert.ErrorIs(t, err, ErrInvalidLine)

	_, err = MergeLines([]Line{{ProductID: "p1", UnitPrice: dec("10.00"), Quantity: -2}})
	assert.ErrorIs(t, err, ErrInvalidLine)

	_, err = MergeLines([]Line{{ProductID: "p1", UnitPrice: dec("-1.00"), Quantity: 1}})
	assert.ErrorIs(t, err, ErrInvalidLine)
}

func TestCouponLookup(t *testing.T) {
	table := DefaultCoupons()

	c, ok := table.Lookup("  save20 ")
	require.True(t, ok)
	assert.Equal(t, "SAVE20", c.Code)

	_, ok = table.Lookup("SAVE21")
	assert.False(t, ok)
}

func TestCouponExpired(t *testing.T) {
	now := time.Now().UTC()

	c := Coupon{Code: "X", ExpiresAt: now.Add(time.Hour)}
	assert.False(t, c.Expired(now))
	assert.True(t, c.Expired(now.Add(2*time.Hour)))

	// Zero expiry never expires.
	forever := Coupon{Code: "Y"}
	assert.False(t, forever.Expired(now.Add(1000*time.Hour)))
}
