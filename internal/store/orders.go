package store

import (
	"context"
	"fmt"

	"storefront-service/internal/models"

	"github.com/jmoiron/sqlx"
)

// CheckoutCart converts a user's entire cart into an order inside one
// transaction:
//
//  1. the user's cart rows are read and row-locked, so a concurrent
//     checkout for the same user serializes behind this one
//  2. the order row is inserted with the shipping details carried on
//     order and status pending
//  3. one order item is inserted per cart row, copying the snapshot
//     fields verbatim (the cart-time price is the order-time price)
//  4. exactly the read cart rows are deleted
//
// Any failure rolls the whole transition back: no order, no items, and
// the cart untouched. An empty cart aborts with ErrEmptyCart before
// anything is written.
func (s *Store) CheckoutCart(ctx context.Context, order *models.Order) (*models.Order, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin checkout: %w", err)
	}
	defer tx.Rollback()

	cartItems := []models.CartItem{}
	err = tx.SelectContext(ctx, &cartItems,
		"SELECT * FROM cart_items WHERE user_id = $1 ORDER BY id FOR UPDATE", order.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to read cart: %w", err)
	}
	if len(cartItems) == 0 {
		return nil, ErrEmptyCart
	}

	query := `
		INSERT INTO orders
			(user_id, full_name, email, phone, country, city, state, zip_code, address, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at`

	err = tx.GetContext(ctx, order, query,
		order.UserID, order.FullName, order.Email, order.Phone,
		order.Country, order.City, order.State, order.ZipCode,
		order.Address, order.Status)
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	order.Items = make([]models.OrderItem, 0, len(cartItems))
	for i := range cartItems {
		item, err := insertOrderItem(ctx, tx, order.ID, &cartItems[i])
		if err != nil {
			return nil, fmt.Errorf("failed to create order item: %w", err)
		}
		order.Items = append(order.Items, *item)
	}

	ids := make([]int64, len(cartItems))
	for i := range cartItems {
		ids[i] = cartItems[i].ID
	}
	delQuery, args, err := sqlx.In("DELETE FROM cart_items WHERE id IN (?)", ids)
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(delQuery), args...); err != nil {
		return nil, fmt.Errorf("failed to clear cart: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit checkout: %w", err)
	}
	return order, nil
}

func insertOrderItem(ctx context.Context, tx *sqlx.Tx, orderID int64, src *models.CartItem) (*models.OrderItem, error) {
	item := models.OrderItem{
		OrderID:     orderID,
		ProductName: src.ProductName,
		Size:        src.Size,
		Quantity:    src.Quantity,
		Price:       src.Price,
	}
	if src.ImageURL != "" {
		item.ImageURL = &src.ImageURL
	}

	query := `
		INSERT INTO order_items (order_id, product_name, size, quantity, price, image_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	err := tx.GetContext(ctx, &item.ID, query,
		item.OrderID, item.ProductName, item.Size, item.Quantity, item.Price, item.ImageURL)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// GetOrdersByUserID retrieves a user's orders, newest first, with their
// items attached
func (s *Store) GetOrdersByUserID(ctx context.Context, userID int64) ([]models.Order, error) {
	orders := []models.Order{}
	err := s.db.SelectContext(ctx, &orders,
		"SELECT * FROM orders WHERE user_id = $1 ORDER BY created_at DESC, id DESC", userID)
	if err != nil {
		return nil, err
	}

	for i := range orders {
		items, err := s.GetOrderItemsByOrderID(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}
	return orders, nil
}

// GetOrderItemsByOrderID retrieves all items for an order
func (s *Store) GetOrderItemsByOrderID(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	items := []models.OrderItem{}
	err := s.db.SelectContext(ctx, &items,
		"SELECT * FROM order_items WHERE order_id = $1 ORDER BY id", orderID)
	return items, err
}

// UpdateOrderStatus updates order status. This is the administrator
// write path; the owning user never mutates status.
func (s *Store) UpdateOrderStatus(ctx context.Context, orderID int64, status string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE orders SET status = $1 WHERE id = $2", status, orderID)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("order %d: %w", orderID, ErrNotFound)
	}
	return nil
}
