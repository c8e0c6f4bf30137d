package products

import (
	"time"

	"github.com/shopspring/decimal"
)

// Categories is the fixed set a product may belong to.
var Categories = []string{"Electronics", "Fashion", "Home & Living", "Sports & Outdoor"}

// ValidCategory reports whether s is one of the known categories.
func ValidCategory(s string) bool {
	for _, c := range Categories {
		if c == s {
			return true
		}
	}
	return false
}

type Product struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Category        string          `json:"category"`
	Description     string          `json:"description"`
	Price           decimal.Decimal `json:"price"`
	OriginalPrice   decimal.Decimal `json:"originalPrice"`
	DiscountPercent int             `json:"discountPercent"`
	Rating          float64         `json:"rating"`
	Reviews         int             `json:"reviews"`
	Stock           int             `json:"stock"`
	Image           string          `json:"image"`
	VendorID        string          `json:"vendorId"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// NewProduct is the creation/update payload. Price bounds are checked in
// code because they are relational (originalPrice >= price).
type NewProduct struct {
	Name          string          `json:"name" validate:"required"`
	Category      string          `json:"category" validate:"required"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	OriginalPrice decimal.Decimal `json:"originalPrice"`
	Rating        float64         `json:"rating" validate:"gte=0,lte=5"`
	Reviews       int             `json:"reviews" validate:"gte=0"`
	Stock         int             `json:"stock" validate:"gte=0"`
	Image         string          `json:"image"`
}

// Filter narrows a catalog listing. Category is an exact match; Search is a
// case-insensitive substring over name or description. Both combine with
// AND.
type Filter struct {
	Category string
	Search   string
}

// ListResult is one stable page of the filtered catalog plus the totals of
// the whole filtered set.
type ListResult struct {
	Products []Product `json:"products"`
	Page     int       `json:"page"`
	Limit    int       `json:"limit"`
	Total    int       `json:"total"`
	Pages    int       `json:"pages"`
}
