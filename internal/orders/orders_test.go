package orders

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"storefront-service/internal/pricing"
)

func TestCreateOrderRejectsMalformedProductID(t *testing.T) {
	c := &Conf{}

	lines := []pricing.Line{
		{ProductID: "not-a-uuid", UnitPrice: decimal.NewFromInt(10), Quantity: 1},
	}
	_, err := c.CreateOrder(context.Background(), "user_1", lines, pricing.Breakdown{})
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestCreateOrderRejectsEmptyCart(t *testing.T) {
	c := &Conf{}

	_, err := c.CreateOrder(context.Background(), "user_1", nil, pricing.Breakdown{})
	assert.ErrorIs(t, err, ErrEmptyOrder)
}

// A malformed order id must read as not-found, never reach the driver as a
// bad uuid cast.
func TestStoreRejectsMalformedOrderID(t *testing.T) {
	c := &Conf{}
	ctx := context.Background()

	for _, id := range []string{"", "abc", "not-a-uuid"} {
		_, err := c.GetOrder(ctx, id)
		assert.ErrorIs(t, err, ErrNotFound, "get %q", id)

		_, err = c.GetForCaller(ctx, id, "user_1", "customer")
		assert.ErrorIs(t, err, ErrNotFound, "get for caller %q", id)

		_, err = c.Transition(ctx, id, StatusProcessing)
		assert.ErrorIs(t, err, ErrNotFound, "transition %q", id)
	}
}

func TestTransitionRejectsUnknownStatus(t *testing.T) {
	c := &Conf{}

	_, err := c.Transition(context.Background(), "not-a-uuid", Status("returned"))
	assert.ErrorIs(t, err, ErrIllegalTransition)
}
