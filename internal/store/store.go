package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"storefront-service/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Sentinel errors surfaced by the store. Callers match them with
// errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrDuplicateSKU = errors.New("duplicate sku")
	ErrEmptyCart    = errors.New("cart is empty")
)

const pqUniqueViolation = "23505"

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// ProductFilter narrows a catalog listing. Categories are OR-matched,
// MaxPrice is an inclusive upper bound applied only when set.
type ProductFilter struct {
	Categories []string
	MaxPrice   *decimal.Decimal
	Sort       string
}

// ListProducts retrieves products matching the filter
func (s *Store) ListProducts(ctx context.Context, filter ProductFilter) ([]models.Product, error) {
	query := "SELECT * FROM products"
	var clauses []string
	var args []interface{}

	if len(filter.Categories) > 0 {
		clauses = append(clauses, "category IN (?)")
		args = append(args, filter.Categories)
	}
	if filter.MaxPrice != nil {
		clauses = append(clauses, "price <= ?")
		args = append(args, *filter.MaxPrice)
	}

	for i, clause := range clauses {
		if i == 0 {
			query += " WHERE " + clause
		} else {
			query += " AND " + clause
		}
	}

	switch filter.Sort {
	case models.SortPriceAsc:
		query += " ORDER BY price ASC"
	case models.SortPriceDesc:
		query += " ORDER BY price DESC"
	default:
		query += " ORDER BY id"
	}

	query, expanded, err := sqlx.In(query, args...)
	if err != nil {
		return nil, err
	}
	query = s.db.Rebind(query)

	products := []models.Product{}
	err = s.db.SelectContext(ctx, &products, query, expanded...)
	return products, err
}

// GetProductByID retrieves a product with its sizes
func (s *Store) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	err := s.db.GetContext(ctx, &product, "SELECT * FROM products WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("product %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	sizes, err := s.GetProductSizes(ctx, id)
	if err != nil {
		return nil, err
	}
	product.Sizes = sizes

	return &product, nil
}

// GetProductSizes retrieves the sizes associated with a product
func (s *Store) GetProductSizes(ctx context.Context, productID int64) ([]models.Size, error) {
	sizes := []models.Size{}
	err := s.db.SelectContext(ctx, &sizes, `
		SELECT s.id, s.name FROM sizes s
		JOIN product_sizes ps ON ps.size_id = s.id
		WHERE ps.product_id = $1
		ORDER BY s.id`, productID)
	return sizes, err
}

// CreateProduct inserts a new product. A duplicate SKU is rejected with
// ErrDuplicateSKU, never overwritten.
func (s *Store) CreateProduct(ctx context.Context, product *models.Product) error {
	query := `
		INSERT INTO products
			(category, name, price, sku, description, image_main,
			 image_thumb1, image_thumb2, image_thumb3, stock, is_on_sale, sale_price)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at`

	err := s.db.GetContext(ctx, product, query,
		product.Category, product.Name, product.Price, product.SKU,
		product.Description, product.ImageMain,
		product.ImageThumb1, product.ImageThumb2, product.ImageThumb3,
		product.Stock, product.IsOnSale, product.SalePrice)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return fmt.Errorf("sku %q: %w", product.SKU, ErrDuplicateSKU)
		}
		return err
	}
	return nil
}

// UpdateProduct updates an existing product's catalog fields
func (s *Store) UpdateProduct(ctx context.Context, product *models.Product) error {
	query := `
		UPDATE products SET
			category = $1, name = $2, price = $3, description = $4,
			image_main = $5, image_thumb1 = $6, image_thumb2 = $7, image_thumb3 = $8,
			stock = $9, is_on_sale = $10, sale_price = $11, updated_at = NOW()
		WHERE id = $12`

	res, err := s.db.ExecContext(ctx, query,
		product.Category, product.Name, product.Price, product.Description,
		product.ImageMain, product.ImageThumb1, product.ImageThumb2, product.ImageThumb3,
		product.Stock, product.IsOnSale, product.SalePrice, product.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return fmt.Errorf("sku %q: %w", product.SKU, ErrDuplicateSKU)
		}
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("product %d: %w", product.ID, ErrNotFound)
	}
	return nil
}

// ListSizes retrieves all size labels
func (s *Store) ListSizes(ctx context.Context) ([]models.Size, error) {
	sizes := []models.Size{}
	err := s.db.SelectContext(ctx, &sizes, "SELECT * FROM sizes ORDER BY id")
	return sizes, err
}

// SetProductSizes replaces the size associations for a product
func (s *Store) SetProductSizes(ctx context.Context, productID int64, sizeIDs []int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM product_sizes WHERE product_id = $1", productID); err != nil {
		return err
	}

	for _, sizeID := range sizeIDs {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO product_sizes (product_id, size_id) VALUES ($1, $2)",
			productID, sizeID); err != nil {
			return err
		}
	}

	return tx.Commit()
}
