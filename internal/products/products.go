package products

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a product id does not resolve.
	ErrNotFound = errors.New("product not found")
	// ErrInvalidPrice covers a negative price or originalPrice below price.
	ErrInvalidPrice = errors.New("price must be non-negative and not exceed originalPrice")
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

const productColumns = `id, name, category, description, price, original_price, rating, reviews, stock, image, vendor_id, created_at, updated_at`

func scanProduct(row interface{ Scan(...any) error }) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Category, &p.Description, &p.Price, &p.OriginalPrice,
		&p.Rating, &p.Reviews, &p.Stock, &p.Image, &p.VendorID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Product{}, err
	}
	p.DiscountPercent = DiscountPercent(p.Price, p.OriginalPrice)
	return p, nil
}

func validatePrices(np NewProduct) error {
	if np.Price.IsNegative() {
		return ErrInvalidPrice
	}
	if np.OriginalPrice.LessThan(np.Price) {
		return ErrInvalidPrice
	}
	return nil
}

// InsertProduct creates a catalog entry owned by vendorID. An omitted
// originalPrice means "no discount" and is set equal to price.
func (c *Conf) InsertProduct(ctx context.Context, np NewProduct, vendorID string) (Product, error) {
	if np.OriginalPrice.IsZero() {
		np.OriginalPrice = np.Price
	}
	if err := validatePrices(np); err != nil {
		return Product{}, err
	}

	id := uuid.NewString()
	query := `
		INSERT INTO products (id, name, category, description, price, original_price, rating, reviews, stock, image, vendor_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + productColumns
	row := c.db.QueryRowContext(ctx, query, id, np.Name, np.Category, np.Description,
		np.Price, np.OriginalPrice, np.Rating, np.Reviews, np.Stock, np.Image, vendorID)
	p, err := scanProduct(row)
	if err != nil {
		return Product{}, fmt.Errorf("failed to insert product: %w", err)
	}
	return p, nil
}

func (c *Conf) GetProductByID(ctx context.Context, productID string) (Product, error) {
	// A malformed id cannot resolve; checking here keeps the uuid cast
	// error out of the driver.
	if uuid.Validate(productID) != nil {
		return Product{}, ErrNotFound
	}
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	p, err := scanProduct(c.db.QueryRowContext(ctx, query, productID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, fmt.Errorf("failed to query product: %w", err)
	}
	return p, nil
}

// UpdateProductInDB replaces the mutable fields of an existing product.
// Ownership is the caller's concern; this only enforces price bounds.
func (c *Conf) UpdateProductInDB(ctx context.Context, productID string, np NewProduct) (Product, error) {
	if uuid.Validate(productID) != nil {
		return Product{}, ErrNotFound
	}
	if np.OriginalPrice.IsZero() {
		np.OriginalPrice = np.Price
	}
	if err := validatePrices(np); err != nil {
		return Product{}, err
	}

	query := `
		UPDATE products
		SET name = $2, category = $3, description = $4, price = $5, original_price = $6,
		    rating = $7, reviews = $8, stock = $9, image = $10, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + productColumns
	row := c.db.QueryRowContext(ctx, query, productID, np.Name, np.Category, np.Description,
		np.Price, np.OriginalPrice, np.Rating, np.Reviews, np.Stock, np.Image)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, fmt.Errorf("failed to update product: %w", err)
	}
	return p, nil
}

func (c *Conf) DeleteProductFromDB(ctx context.Context, productID string) error {
	if uuid.Validate(productID) != nil {
		return ErrNotFound
	}
	res, err := c.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, productID)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// List evaluates a catalog query: filter, sort the whole filtered set, then
// slice one page. Total is counted independently of the slice so Pages is
// right even when the requested page is past the end (items come back
// empty, not as an error).
func (c *Conf) List(ctx context.Context, f Filter, page, limit int, sort string) (ListResult, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 12
	}

	where, args := buildWhere(f)

	var total int
	countQuery := `SELECT COUNT(*) FROM products ` + where
	if err := c.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return ListResult{}, fmt.Errorf("failed to count products: %w", err)
	}

	pageArgs := append(args, limit, (page-1)*limit)
	listQuery := fmt.Sprintf(`SELECT %s FROM products %s %s LIMIT $%d OFFSET $%d`,
		productColumns, where, orderClause(sort), len(args)+1, len(args)+2)
	rows, err := c.db.QueryContext(ctx, listQuery, pageArgs...)
	if err != nil {
		return ListResult{}, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	items := make([]Product, 0, limit)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return ListResult{}, fmt.Errorf("failed to scan product: %w", err)
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return ListResult{}, fmt.Errorf("error iterating products: %w", err)
	}

	return ListResult{
		Products: items,
		Page:     page,
		Limit:    limit,
		Total:    total,
		Pages:    Pages(total, limit),
	}, nil
}
