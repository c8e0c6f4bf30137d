package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"storefront-service/internal/auth"
	"storefront-service/internal/pricing"
)

var (
	// ErrEmptyOrder is returned when checkout is attempted with no lines.
	ErrEmptyOrder = errors.New("order has no items")
	// ErrProductNotFound is returned when a cart line references a product
	// id that does not exist.
	ErrProductNotFound = errors.New("product in cart not found")
	// ErrNotFound is returned when an order id does not resolve.
	ErrNotFound = errors.New("order not found")
	// ErrForbidden is returned when a caller is neither the owner nor an
	// admin. It is distinct from ErrNotFound on purpose.
	ErrForbidden = errors.New("not allowed to access this order")
	// ErrIllegalTransition is returned for a status edge the state machine
	// does not permit.
	ErrIllegalTransition = errors.New("illegal status transition")
	// ErrStatusConflict is returned when a legal transition lost the race
	// against a concurrent one from the same prior status.
	ErrStatusConflict = errors.New("order status changed concurrently")
)

type Conf struct {
	db *sql.DB
}

func NewConf(db *sql.DB) (*Conf, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &Conf{db: db}, nil
}

// CreateOrder snapshots a priced cart into a pending order. Every product
// id is verified inside the transaction and the product name is captured at
// creation time; the unit price comes from the cart line the totals were
// computed from.
func (c *Conf) CreateOrder(ctx context.Context, userID string, lines []pricing.Line, bd pricing.Breakdown) (Order, error) {
	if len(lines) == 0 {
		return Order{}, ErrEmptyOrder
	}
	merged, err := pricing.MergeLines(lines)
	if err != nil {
		return Order{}, err
	}
	for _, l := range merged {
		// A malformed product id cannot resolve; rejecting it here keeps
		// the uuid cast error out of the driver.
		if uuid.Validate(l.ProductID) != nil {
			return Order{}, fmt.Errorf("%w: %s", ErrProductNotFound, l.ProductID)
		}
	}

	order := Order{
		ID:         uuid.NewString(),
		UserID:     userID,
		Status:     StatusPending,
		Subtotal:   bd.Subtotal,
		Discount:   bd.Discount,
		Shipping:   bd.Shipping,
		Tax:        bd.Tax,
		Total:      bd.GrandTotal,
		CouponCode: bd.AppliedCoupon,
	}

	err = c.withTx(ctx, func(tx *sql.Tx) error {
		for _, l := range merged {
			var name string
			err := tx.QueryRowContext(ctx, `SELECT name FROM products WHERE id = $1`, l.ProductID).Scan(&name)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return fmt.Errorf("%w: %s", ErrProductNotFound, l.ProductID)
				}
				return fmt.Errorf("failed to look up product %s: %w", l.ProductID, err)
			}
			order.Items = append(order.Items, OrderItem{
				ProductID: l.ProductID,
				Name:      name,
				UnitPrice: l.UnitPrice,
				Quantity:  l.Quantity,
			})
		}

		queryOrder := `
			INSERT INTO orders (id, user_id, status, subtotal, discount, shipping, tax, total, coupon_code)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING created_at, updated_at
		`
		err := tx.QueryRowContext(ctx, queryOrder, order.ID, order.UserID, order.Status,
			order.Subtotal, order.Discount, order.Shipping, order.Tax, order.Total, order.CouponCode).
			Scan(&order.CreatedAt, &order.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert order: %w", err)
		}

		for _, it := range order.Items {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO order_items (order_id, product_id, name, unit_price, quantity)
				VALUES ($1, $2, $3, $4, $5)`,
				order.ID, it.ProductID, it.Name, it.UnitPrice, it.Quantity)
			if err != nil {
				return fmt.Errorf("failed to insert order item: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return Order{}, err
	}
	return order, nil
}

// Transition moves an order along one legal edge. The update is conditional
// on the prior status so two concurrent transitions from the same state
// cannot both succeed.
func (c *Conf) Transition(ctx context.Context, orderID string, to Status) (Order, error) {
	if !ValidStatus(to) {
		return Order{}, ErrIllegalTransition
	}
	if uuid.Validate(orderID) != nil {
		return Order{}, ErrNotFound
	}

	var from Status
	err := c.db.QueryRowContext(ctx, `SELECT status FROM orders WHERE id = $1`, orderID).Scan(&from)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		return Order{}, fmt.Errorf("failed to query order status: %w", err)
	}

	if !CanTransition(from, to) {
		return Order{}, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
	}

	res, err := c.db.ExecContext(ctx, `
		UPDATE orders SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2`,
		orderID, from, to)
	if err != nil {
		return Order{}, fmt.Errorf("failed to update order status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Order{}, fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return Order{}, ErrStatusConflict
	}

	return c.GetOrder(ctx, orderID)
}

// GetOrder fetches an order with its item snapshots, without any access
// check. Callers that act for a user go through GetForCaller.
func (c *Conf) GetOrder(ctx context.Context, orderID string) (Order, error) {
	if uuid.Validate(orderID) != nil {
		return Order{}, ErrNotFound
	}
	var o Order
	query := `
		SELECT id, user_id, status, subtotal, discount, shipping, tax, total, coupon_code, created_at, updated_at
		FROM orders
		WHERE id = $1
	`
	err := c.db.QueryRowContext(ctx, query, orderID).
		Scan(&o.ID, &o.UserID, &o.Status, &o.Subtotal, &o.Discount, &o.Shipping, &o.Tax, &o.Total,
			&o.CouponCode, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		return Order{}, fmt.Errorf("failed to query order: %w", err)
	}
	if err := c.loadItems(ctx, &o); err != nil {
		return Order{}, err
	}
	return o, nil
}

// GetForCaller fetches an order and enforces ownership: only the owning
// account or an admin may read it. A denial is an authorization failure,
// never masked as not-found.
func (c *Conf) GetForCaller(ctx context.Context, orderID, callerID, callerRole string) (Order, error) {
	o, err := c.GetOrder(ctx, orderID)
	if err != nil {
		return Order{}, err
	}
	if callerRole != auth.RoleAdmin && o.UserID != callerID {
		return Order{}, ErrForbidden
	}
	return o, nil
}

// ListForUser returns the orders owned by one account, newest first.
func (c *Conf) ListForUser(ctx context.Context, userID string) ([]Order, error) {
	return c.list(ctx, `WHERE user_id = $1`, userID)
}

// ListAll returns every order, newest first. Gated to admins by the caller.
func (c *Conf) ListAll(ctx context.Context) ([]Order, error) {
	return c.list(ctx, ``)
}

func (c *Conf) list(ctx context.Context, where string, args ...any) ([]Order, error) {
	query := `
		SELECT id, user_id, status, subtotal, discount, shipping, tax, total, coupon_code, created_at, updated_at
		FROM orders ` + where + `
		ORDER BY created_at DESC, id
	`
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		var o Order
		err := rows.Scan(&o.ID, &o.UserID, &o.Status, &o.Subtotal, &o.Discount, &o.Shipping, &o.Tax,
			&o.Total, &o.CouponCode, &o.CreatedAt, &o.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	for i := range out {
		if err := c.loadItems(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (c *Conf) loadItems(ctx context.Context, o *Order) error {
	rows, err := c.db.QueryContext(ctx, `
		SELECT product_id, name, unit_price, quantity
		FROM order_items
		WHERE order_id = $1
		ORDER BY id`, o.ID)
	if err != nil {
		return fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ProductID, &it.Name, &it.UnitPrice, &it.Quantity); err != nil {
			return fmt.Errorf("failed to scan order item: %w", err)
		}
		o.Items = append(o.Items, it)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating order items: %w", err)
	}
	return nil
}

func (c *Conf) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}

	if err := fn(tx); err != nil {
		if er := tx.Rollback(); er != nil && !errors.Is(er, sql.ErrTxDone) {
			return fmt.Errorf("failed to rollback withTx: %w", err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit withTx: %w", err)
	}
	return nil
}
