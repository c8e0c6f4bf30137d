package pricing

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Coupon kinds.
const (
	CouponPercentage = "percentage"
	CouponFixed      = "fixed"
)

// Coupon is a named discount rule. MaxUses exists in the seed data but is
// never consulted at checkout; the limit is unenforced.
type Coupon struct {
	Code        string
	Type        string
	Value       decimal.Decimal
	MinOrder    decimal.Decimal
	Description string
	MaxUses     int
	ExpiresAt   time.Time
}

// Expired reports whether the coupon's expiry has passed at now. A zero
// expiry never expires.
func (c Coupon) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// CouponTable resolves codes case-insensitively.
type CouponTable map[string]Coupon

// Lookup returns the coupon for code, matching case-insensitively.
func (t CouponTable) Lookup(code string) (Coupon, bool) {
	c, ok := t[strings.ToUpper(strings.TrimSpace(code))]
	return c, ok
}

// DefaultCoupons is the static promotion table. Expiries are anchored to
// process start, mirroring the seeded offers.
func DefaultCoupons() CouponTable {
	now := time.Now().UTC()
	return CouponTable{
		"SAVE20": {
			Code:        "SAVE20",
			Type:        CouponPercentage,
			Value:       decimal.NewFromInt(20),
			Description: "Save 20% on your purchase",
			MaxUses:     100,
			ExpiresAt:   now.Add(30 * 24 * time.Hour),
		},
		"FLAT50": {
			Code:        "FLAT50",
			Type:        CouponFixed,
			Value:       decimal.NewFromInt(50),
			MinOrder:    decimal.NewFromInt(200),
			Description: "Get $50 off on orders over $200",
			MaxUses:     50,
			ExpiresAt:   now.Add(15 * 24 * time.Hour),
		},
		"SUMMER30": {
			Code:        "SUMMER30",
			Type:        CouponPercentage,
			Value:       decimal.NewFromInt(30),
			Description: "Summer special - 30% off selected items",
			MaxUses:     75,
			ExpiresAt:   now.Add(7 * 24 * time.Hour),
		},
	}
}
