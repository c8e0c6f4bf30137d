package pricing

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidLine is returned for a non-positive quantity, a negative
	// unit price, or duplicate lines that disagree on the unit price.
	// Invalid input is rejected, never clamped.
	ErrInvalidLine = errors.New("invalid cart line")
	// ErrCouponNotFound distinguishes an unknown code from no code at all.
	ErrCouponNotFound = errors.New("coupon not found")
	// ErrCouponExpired is returned when the code resolves but has expired.
	ErrCouponExpired = errors.New("coupon expired")
	// ErrCouponMinimum is returned when the subtotal is below the coupon's
	// minimum order amount. The coupon is reported as not applied rather
	// than silently ignored.
	ErrCouponMinimum = errors.New("order below coupon minimum")
)

// Line is one cart entry as held by the client: the product, the unit price
// captured when it was added, and a quantity of at least one.
type Line struct {
	ProductID string          `json:"product_id"`
	UnitPrice decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// Breakdown is the totals produced for a cart.
type Breakdown struct {
	Subtotal      decimal.Decimal `json:"subtotal"`
	Discount      decimal.Decimal `json:"discount"`
	Shipping      decimal.Decimal `json:"shipping"`
	Tax           decimal.Decimal `json:"tax"`
	GrandTotal    decimal.Decimal `json:"total"`
	AppliedCoupon string          `json:"applied_coupon,omitempty"`
}

// Engine prices a cart. It holds only read-only configuration, so a single
// instance is safe for concurrent use, and Price is deterministic for a
// given clock.
type Engine struct {
	TaxRate               decimal.Decimal
	FreeShippingThreshold decimal.Decimal
	ShippingFee           decimal.Decimal
	Coupons               CouponTable

	now func() time.Time
}

func NewEngine(taxRate, freeShippingThreshold, shippingFee decimal.Decimal, coupons CouponTable) *Engine {
	return &Engine{
		TaxRate:               taxRate,
		FreeShippingThreshold: freeShippingThreshold,
		ShippingFee:           shippingFee,
		Coupons:               coupons,
		now:                   time.Now,
	}
}

// MergeLines normalizes caller input: duplicate product ids collapse into
// one line with the summed quantity, in first-seen order. Duplicates that
// disagree on unit price are rejected so a stale client cannot smuggle two
// prices for one product.
func MergeLines(lines []Line) ([]Line, error) {
	merged := make([]Line, 0, len(lines))
	index := make(map[string]int, len(lines))
	for _, l := range lines {
		if l.Quantity <= 0 || l.UnitPrice.IsNegative() {
			return nil, ErrInvalidLine
		}
		if i, ok := index[l.ProductID]; ok {
			if !merged[i].UnitPrice.Equal(l.UnitPrice) {
				return nil, ErrInvalidLine
			}
			merged[i].Quantity += l.Quantity
			continue
		}
		index[l.ProductID] = len(merged)
		merged = append(merged, l)
	}
	return merged, nil
}

// Price computes the totals breakdown for a cart and an optional coupon
// code. An empty code means no coupon; an unknown, expired, or
// below-minimum code is an error, never a silent no-op.
func (e *Engine) Price(lines []Line, couponCode string) (Breakdown, error) {
	merged, err := MergeLines(lines)
	if err != nil {
		return Breakdown{}, err
	}

	subtotal := decimal.Zero
	for _, l := range merged {
		subtotal = subtotal.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}

	discount := decimal.Zero
	applied := ""
	if couponCode != "" {
		coupon, ok := e.Coupons.Lookup(couponCode)
		if !ok {
			return Breakdown{}, ErrCouponNotFound
		}
		if coupon.Expired(e.now().UTC()) {
			return Breakdown{}, ErrCouponExpired
		}
		if subtotal.LessThan(coupon.MinOrder) {
			return Breakdown{}, ErrCouponMinimum
		}
		switch coupon.Type {
		case CouponPercentage:
			discount = subtotal.Mul(coupon.Value).Div(decimal.NewFromInt(100)).Round(2)
		case CouponFixed:
			// A fixed discount never exceeds the subtotal.
			discount = decimal.Min(coupon.Value, subtotal)
		}
		applied = coupon.Code
	}

	afterDiscount := subtotal.Sub(discount)

	shipping := e.ShippingFee
	if afterDiscount.GreaterThan(e.FreeShippingThreshold) {
		shipping = decimal.Zero
	}

	tax := afterDiscount.Mul(e.TaxRate).Round(2)

	grand := subtotal.Sub(discount).Add(shipping).Add(tax)
	if grand.IsNegative() {
		grand = decimal.Zero
	}

	return Breakdown{
		Subtotal:      subtotal,
		Discount:      discount,
		Shipping:      shipping,
		Tax:           tax,
		GrandTotal:    grand,
		AppliedCoupon: applied,
	}, nil
}
