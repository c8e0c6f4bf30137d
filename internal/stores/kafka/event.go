package kafka

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	TopicOrderPlaced        = `orders.order-placed`
	TopicOrderStatusChanged = `orders.status-changed`
)

// OrderPlacedEvent is published after a checkout persists an order.
type OrderPlacedEvent struct {
	OrderID   string          `json:"order_id"`
	UserID    string          `json:"user_id"`
	Total     decimal.Decimal `json:"total"`
	Coupon    string          `json:"coupon,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// OrderStatusChangedEvent is published after a successful status
// transition.
type OrderStatusChangedEvent struct {
	OrderID    string    `json:"order_id"`
	FromStatus string    `json:"from_status"`
	ToStatus   string    `json:"to_status"`
	ChangedAt  time.Time `json:"changed_at"`
}
