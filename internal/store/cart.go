package store

import (
	"context"

	"storefront-service/internal/models"
)

// CreateCartItem inserts a new cart item snapshot
func (s *Store) CreateCartItem(ctx context.Context, item *models.CartItem) error {
	query := `
		INSERT INTO cart_items (user_id, product_name, size, quantity, price, image_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	return s.db.GetContext(ctx, item, query,
		item.UserID, item.ProductName, item.Size, item.Quantity, item.Price, item.ImageURL)
}

// GetCartItems retrieves all cart items owned by a user
func (s *Store) GetCartItems(ctx context.Context, userID int64) ([]models.CartItem, error) {
	items := []models.CartItem{}
	err := s.db.SelectContext(ctx, &items,
		"SELECT * FROM cart_items WHERE user_id = $1 ORDER BY id", userID)
	return items, err
}

// DeleteCartItem deletes a cart item scoped to its owner. Deleting an
// id that does not exist or belongs to another user affects zero rows
// and is not an error.
func (s *Store) DeleteCartItem(ctx context.Context, userID, itemID int64) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM cart_items WHERE id = $1 AND user_id = $2", itemID, userID)
	return err
}

// CountCartItems returns the number of cart rows owned by a user
func (s *Store) CountCartItems(ctx context.Context, userID int64) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM cart_items WHERE user_id = $1", userID)
	return count, err
}
