package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is an immutable snapshot of a priced cart. After creation only the
// status ever changes; orders are never deleted.
type Order struct {
	ID         string          `json:"id"`
	UserID     string          `json:"user_id"`
	Status     Status          `json:"status"`
	Items      []OrderItem     `json:"items"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	Discount   decimal.Decimal `json:"discount"`
	Shipping   decimal.Decimal `json:"shipping"`
	Tax        decimal.Decimal `json:"tax"`
	Total      decimal.Decimal `json:"total"`
	CouponCode string          `json:"coupon_code,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// OrderItem snapshots the product name and unit price at creation time so
// later product edits never change a historical order.
type OrderItem struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}
