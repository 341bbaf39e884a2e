package service

import (
	"context"
	"strings"
	"time"

	"storefront-service/internal/models"
	"storefront-service/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CartStore is the persistence surface the cart service needs
type CartStore interface {
	CreateCartItem(ctx context.Context, item *models.CartItem) error
	GetCartItems(ctx context.Context, userID int64) ([]models.CartItem, error)
	DeleteCartItem(ctx context.Context, userID, itemID int64) error
	CountCartItems(ctx context.Context, userID int64) (int, error)
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
}

// CartCountCache caches the cart badge count per user. Best effort: a
// failed cache never fails the cart operation.
type CartCountCache interface {
	SetCartCount(ctx context.Context, userID int64, count int, ttl time.Duration) error
	GetCartCount(ctx context.Context, userID int64) (int, bool, error)
	InvalidateCartCount(ctx context.Context, userID int64) error
}

const cartCountTTL = 10 * time.Minute

// CartService handles the per-user mutable cart
type CartService struct {
	store  CartStore
	cache  CartCountCache
	logger *zap.Logger
}

// NewCartService creates a new cart service. cache may be nil.
func NewCartService(store CartStore, cache CartCountCache) *CartService {
	return &CartService{
		store:  store,
		cache:  cache,
		logger: util.GetLogger(),
	}
}

// Cart is a user's cart items with derived aggregates
type Cart struct {
	Items []models.CartItem `json:"items"`
	Total decimal.Decimal   `json:"total"`
	Count int               `json:"count"`
}

// AddToCart validates the request and creates a CartItem snapshotting
// the product's current name, effective price and main image. Any
// validation failure creates nothing.
func (s *CartService) AddToCart(ctx context.Context, userID, productID int64, size string, quantity int) (*models.CartItem, error) {
	if strings.TrimSpace(size) == "" {
		util.CartAddsRejectedTotal.WithLabelValues("missing_size").Inc()
		return nil, missingField("size")
	}
	if quantity < 1 {
		util.CartAddsRejectedTotal.WithLabelValues("invalid_quantity").Inc()
		return nil, &ValidationError{Field: "quantity", Reason: "must be at least 1"}
	}

	product, err := s.store.GetProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	item := &models.CartItem{
		UserID:      userID,
		ProductName: product.Name,
		Size:        size,
		Quantity:    quantity,
		Price:       product.DisplayPrice(),
		ImageURL:    product.ImageMain,
	}

	if err := s.store.CreateCartItem(ctx, item); err != nil {
		return nil, err
	}

	util.CartItemsAddedTotal.Inc()
	s.invalidateCount(ctx, userID)

	s.logger.Info("Cart item added",
		zap.Int64("user_id", userID),
		zap.Int64("cart_item_id", item.ID),
		zap.String("product_name", item.ProductName))
	return item, nil
}

// RemoveItem deletes a cart item scoped to the requesting user. An
// unknown id or one owned by another user is a silent no-op, so the
// operation is idempotent.
func (s *CartService) RemoveItem(ctx context.Context, userID, itemID int64) error {
	if err := s.store.DeleteCartItem(ctx, userID, itemID); err != nil {
		return err
	}

	util.CartItemsRemovedTotal.Inc()
	s.invalidateCount(ctx, userID)
	return nil
}

// GetCart returns all of the user's cart items plus the derived total
// and item count
func (s *CartService) GetCart(ctx context.Context, userID int64) (*Cart, error) {
	items, err := s.store.GetCartItems(ctx, userID)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	for i := range items {
		total = total.Add(items[i].TotalPrice())
	}

	cart := &Cart{Items: items, Total: total, Count: len(items)}

	if s.cache != nil {
		if err := s.cache.SetCartCount(ctx, userID, cart.Count, cartCountTTL); err != nil {
			s.logger.Warn("Failed to cache cart count", zap.Int64("user_id", userID), zap.Error(err))
		}
	}
	return cart, nil
}

// CartCount returns the number of items in the user's cart, serving
// from the cache when possible
func (s *CartService) CartCount(ctx context.Context, userID int64) (int, error) {
	if s.cache != nil {
		if count, ok, err := s.cache.GetCartCount(ctx, userID); err == nil && ok {
			return count, nil
		}
	}

	count, err := s.store.CountCartItems(ctx, userID)
	if err != nil {
		return 0, err
	}

	if s.cache != nil {
		if err := s.cache.SetCartCount(ctx, userID, count, cartCountTTL); err != nil {
			s.logger.Warn("Failed to cache cart count", zap.Int64("user_id", userID), zap.Error(err))
		}
	}
	return count, nil
}

func (s *CartService) invalidateCount(ctx context.Context, userID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateCartCount(ctx, userID); err != nil {
		s.logger.Warn("Failed to invalidate cart count", zap.Int64("user_id", userID), zap.Error(err))
	}
}
