package products

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Sort keys accepted by the catalog listing. Anything else falls back to
// insertion order.
const (
	SortPriceLow  = "price-low"
	SortPriceHigh = "price-high"
	SortRating    = "rating"
)

// buildWhere turns a Filter into a WHERE clause and its arguments. An empty
// filter yields an empty clause.
func buildWhere(f Filter) (string, []any) {
	var conds []string
	var args []any
	if f.Category != "" {
		args = append(args, f.Category)
		conds = append(conds, fmt.Sprintf("category = $%d", len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+escapeLike(f.Search)+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf("(name ILIKE $%d OR description ILIKE $%d)", n, n))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

// escapeLike neutralizes the LIKE metacharacters so a search for "100%"
// matches the literal text instead of acting as a wildcard.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// orderClause maps a sort key to its ORDER BY. The secondary id column
// keeps pagination stable when the sort key ties.
func orderClause(sort string) string {
	switch sort {
	case SortPriceLow:
		return "ORDER BY price ASC, id"
	case SortPriceHigh:
		return "ORDER BY price DESC, id"
	case SortRating:
		return "ORDER BY rating DESC, id"
	default:
		return "ORDER BY created_at, id"
	}
}

// Pages is ceil(total/limit).
func Pages(total, limit int) int {
	if limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

// DiscountPercent derives the displayed discount from the price pair. It is
// 0 when the prices are equal and guards the zero original price rather
// than dividing by it.
func DiscountPercent(price, originalPrice decimal.Decimal) int {
	if originalPrice.IsZero() || originalPrice.LessThanOrEqual(price) {
		return 0
	}
	pct := originalPrice.Sub(price).
		Div(originalPrice).
		Mul(decimal.NewFromInt(100)).
		Round(0)
	return int(pct.IntPart())
}
