package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"storefront-service/internal/models"
	"storefront-service/internal/store"
	"storefront-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderStore is the persistence surface the order service needs. The
// cart to order transition itself lives behind CheckoutCart so that the
// all-or-nothing guarantee is owned by a single transaction.
type OrderStore interface {
	CheckoutCart(ctx context.Context, order *models.Order) (*models.Order, error)
	GetOrdersByUserID(ctx context.Context, userID int64) ([]models.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID int64, status string) error
}

// CheckoutLocker serializes checkouts per user
type CheckoutLocker interface {
	AcquireCheckoutLock(ctx context.Context, userID int64, ttl time.Duration) (token string, ok bool, err error)
	ReleaseCheckoutLock(ctx context.Context, userID int64, token string) error
}

// OrderEventPublisher publishes order domain events
type OrderEventPublisher interface {
	PublishOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error
}

const checkoutLockTTL = 30 * time.Second

// OrderService handles checkout and order history
type OrderService struct {
	store     OrderStore
	locker    CheckoutLocker
	publisher OrderEventPublisher
	logger    *zap.Logger
}

// NewOrderService creates a new order service. locker and publisher may
// be nil.
func NewOrderService(store OrderStore, locker CheckoutLocker, publisher OrderEventPublisher) *OrderService {
	return &OrderService{
		store:     store,
		locker:    locker,
		publisher: publisher,
		logger:    util.GetLogger(),
	}
}

// ShippingInfo carries the checkout form fields. Every field is
// required.
type ShippingInfo struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Country  string `json:"country"`
	City     string `json:"city"`
	State    string `json:"state"`
	ZipCode  string `json:"zip_code"`
	Address  string `json:"address"`
}

func (si *ShippingInfo) validate() error {
	fields := []struct {
		name  string
		value string
	}{
		{"full_name", si.FullName},
		{"email", si.Email},
		{"phone", si.Phone},
		{"country", si.Country},
		{"city", si.City},
		{"state", si.State},
		{"zip_code", si.ZipCode},
		{"address", si.Address},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return missingField(f.name)
		}
	}
	return nil
}

// Checkout converts the user's entire cart into an order.
//
// Shipping info is validated first; a missing field fails the call with
// the field named and nothing mutated. The per-user lock then keeps a
// second simultaneous checkout from reading the same cart rows. The
// transition itself is one transaction: order + items created from the
// cart snapshot, cart cleared, or none of it. An empty cart is rejected
// rather than producing an order with no items.
func (s *OrderService) Checkout(ctx context.Context, userID int64, shipping *ShippingInfo) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.Checkout")
	defer span.End()

	start := time.Now()

	if err := shipping.validate(); err != nil {
		util.CheckoutsFailedTotal.WithLabelValues("validation").Inc()
		return nil, err
	}

	if s.locker != nil {
		token, ok, err := s.locker.AcquireCheckoutLock(ctx, userID, checkoutLockTTL)
		if err != nil {
			util.CheckoutsFailedTotal.WithLabelValues("lock_error").Inc()
			return nil, err
		}
		if !ok {
			util.CheckoutsFailedTotal.WithLabelValues("lock_held").Inc()
			return nil, ErrCheckoutInProgress
		}
		defer func() {
			if err := s.locker.ReleaseCheckoutLock(ctx, userID, token); err != nil {
				s.logger.Warn("Failed to release checkout lock",
					zap.Int64("user_id", userID), zap.Error(err))
			}
		}()
	}

	order := &models.Order{
		UserID:   userID,
		FullName: shipping.FullName,
		Email:    shipping.Email,
		Phone:    shipping.Phone,
		Country:  shipping.Country,
		City:     shipping.City,
		State:    shipping.State,
		ZipCode:  shipping.ZipCode,
		Address:  shipping.Address,
		Status:   models.OrderStatusPending,
	}

	order, err := s.store.CheckoutCart(ctx, order)
	if err != nil {
		if errors.Is(err, store.ErrEmptyCart) {
			util.CheckoutsFailedTotal.WithLabelValues("empty_cart").Inc()
			return nil, &ValidationError{Field: "cart", Reason: "is empty"}
		}
		util.CheckoutsFailedTotal.WithLabelValues("db_error").Inc()
		return nil, err
	}

	util.CheckoutsTotal.Inc()
	util.CheckoutLatency.Observe(time.Since(start).Seconds())
	s.logger.Info("Order placed",
		zap.Int64("order_id", order.ID),
		zap.Int64("user_id", userID),
		zap.Int("items", len(order.Items)),
		zap.String("total", order.Total().String()))

	s.publishOrderPlaced(ctx, order)

	return order, nil
}

// publishOrderPlaced emits the confirmation event. Publish failures are
// logged, never surfaced: the order is already committed.
func (s *OrderService) publishOrderPlaced(ctx context.Context, order *models.Order) {
	if s.publisher == nil {
		return
	}

	items := make([]models.OrderItemData, 0, len(order.Items))
	for i := range order.Items {
		items = append(items, models.OrderItemData{
			ProductName: order.Items[i].ProductName,
			Size:        order.Items[i].Size,
			Quantity:    order.Items[i].Quantity,
			Price:       order.Items[i].Price,
		})
	}

	event := &models.OrderPlacedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderPlaced,
			Timestamp: time.Now(),
		},
		OrderID:   order.ID,
		UserID:    order.UserID,
		Email:     order.Email,
		FullName:  order.FullName,
		Total:     order.Total(),
		ItemCount: len(order.Items),
		Items:     items,
	}

	if err := s.publisher.PublishOrderPlaced(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderPlaced event",
			zap.Int64("order_id", order.ID), zap.Error(err))
	}
}

// ListOrders returns the user's order history, newest first
func (s *OrderService) ListOrders(ctx context.Context, userID int64) ([]models.Order, error) {
	return s.store.GetOrdersByUserID(ctx, userID)
}

// UpdateOrderStatus moves an order to a new status. Administrator-only;
// the route layer enforces the privilege.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, orderID int64, status string) error {
	if !models.ValidOrderStatus(status) {
		return &ValidationError{Field: "status", Reason: "must be one of pending, processing, shipped, delivered, cancelled"}
	}

	if err := s.store.UpdateOrderStatus(ctx, orderID, status); err != nil {
		return err
	}

	s.logger.Info("Order status updated",
		zap.Int64("order_id", orderID),
		zap.String("status", status))
	return nil
}
