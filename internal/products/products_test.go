package products

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

// A malformed id must read as not-found, never reach the driver as a bad
// uuid cast.
func TestStoreRejectsMalformedID(t *testing.T) {
	c := &Conf{}
	ctx := context.Background()

	for _, id := range []string{"", "abc", "not-a-uuid", "0d4f2a66-9a11-4f2e-8a4f"} {
		_, err := c.GetProductByID(ctx, id)
		assert.ErrorIs(t, err, ErrNotFound, "get %q", id)

		_, err = c.UpdateProductInDB(ctx, id, NewProduct{Name: "x", Category: "Electronics"})
		assert.ErrorIs(t, err, ErrNotFound, "update %q", id)

		err = c.DeleteProductFromDB(ctx, id)
		assert.ErrorIs(t, err, ErrNotFound, "delete %q", id)
	}
}
