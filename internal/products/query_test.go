package products

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildWhere(t *testing.T) {
	clause, args := buildWhere(Filter{})
	assert.Empty(t, clause)
	assert.Nil(t, args)

	clause, args = buildWhere(Filter{Category: "Electronics"})
	assert.Equal(t, "WHERE category = $1", clause)
	assert.Equal(t, []any{"Electronics"}, args)

	clause, args = buildWhere(Filter{Search: "head"})
	assert.Equal(t, "WHERE (name ILIKE $1 OR description ILIKE $1)", clause)
	assert.Equal(t, []any{"%head%"}, args)

	clause, args = buildWhere(Filter{Category: "Electronics", Search: "head"})
	assert.Equal(t, "WHERE category = $1 AND (name ILIKE $2 OR description ILIKE $2)", clause)
	assert.Equal(t, []any{"Electronics", "%head%"}, args)
}

// A search term containing LIKE metacharacters must match literally, not as
// a pattern.
func TestBuildWhereEscapesSearchPattern(t *testing.T) {
	_, args := buildWhere(Filter{Search: "100%"})
	assert.Equal(t, []any{`%100\%%`}, args)

	_, args = buildWhere(Filter{Search: "usb_c"})
	assert.Equal(t, []any{`%usb\_c%`}, args)

	_, args = buildWhere(Filter{Search: `back\slash`})
	assert.Equal(t, []any{`%back\\slash%`}, args)
}

func TestOrderClause(t *testing.T) {
	assert.Equal(t, "ORDER BY price ASC, id", orderClause(SortPriceLow))
	assert.Equal(t, "ORDER BY price DESC, id", orderClause(SortPriceHigh))
	assert.Equal(t, "ORDER BY rating DESC, id", orderClause(SortRating))
	assert.Equal(t, "ORDER BY created_at, id", orderClause(""))
	assert.Equal(t, "ORDER BY created_at, id", orderClause("alphabetical"))
}

func TestPages(t *testing.T) {
	assert.Equal(t, 0, Pages(0, 12))
	assert.Equal(t, 1, Pages(1, 12))
	assert.Equal(t, 1, Pages(12, 12))
	assert.Equal(t, 2, Pages(13, 12))
	assert.Equal(t, 5, Pages(49, 10))
	assert.Equal(t, 0, Pages(10, 0))
}

func TestDiscountPercent(t *testing.T) {
	pct := func(price, original string) int {
		p, err := decimal.NewFromString(price)
		require.NoError(t, err)
		o, err := decimal.NewFromString(original)
		require.NoError(t, err)
		return DiscountPercent(p, o)
	}

	assert.Equal(t, 20, pct("80.00", "100.00"))
	assert.Equal(t, 33, pct("199.99", "299.99"))

	// No markdown, zero original, or price above original all read as 0.
	assert.Equal(t, 0, pct("50.00", "50.00"))
	assert.Equal(t, 0, pct("50.00", "0"))
	assert.Equal(t, 0, pct("60.00", "50.00"))
}

func TestValidCategory(t *testing.T) {
	for _, c := range Categories {
		assert.True(t, ValidCategory(c), c)
	}
	assert.False(t, ValidCategory("Groceries"))
	assert.False(t, ValidCategory(""))
	assert.False(t, ValidCategory("electronics")) // case matters
}
