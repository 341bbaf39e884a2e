package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront-service/internal/auth"
	"storefront-service/internal/models"
	"storefront-service/internal/service"
	"storefront-service/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	products map[int64]*models.Product
	cart     []models.CartItem
	orders   []models.Order
	nextID   int64
}

func (m *memStore) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return p, nil
}

func (m *memStore) CreateCartItem(ctx context.Context, item *models.CartItem) error {
	m.nextID++
	item.ID = m.nextID
	m.cart = append(m.cart, *item)
	return nil
}

func (m *memStore) GetCartItems(ctx context.Context, userID int64) ([]models.CartItem, error) {
	var out []models.CartItem
	for _, item := range m.cart {
		if item.UserID == userID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (m *memStore) DeleteCartItem(ctx context.Context, userID, itemID int64) error {
	for i, item := range m.cart {
		if item.ID == itemID && item.UserID == userID {
			m.cart = append(m.cart[:i], m.cart[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *memStore) CountCartItems(ctx context.Context, userID int64) (int, error) {
	count := 0
	for _, item := range m.cart {
		if item.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (m *memStore) CheckoutCart(ctx context.Context, order *models.Order) (*models.Order, error) {
	var kept []models.CartItem
	for _, item := range m.cart {
		if item.UserID != order.UserID {
			kept = append(kept, item)
			continue
		}
		order.Items = append(order.Items, models.OrderItem{
			ProductName: item.ProductName,
			Size:        item.Size,
			Quantity:    item.Quantity,
			Price:       item.Price,
		})
	}
	if len(order.Items) == 0 {
		return nil, store.ErrEmptyCart
	}
	m.nextID++
	order.ID = m.nextID
	order.CreatedAt = time.Now()
	m.cart = kept
	m.orders = append(m.orders, *order)
	return order, nil
}

func (m *memStore) GetOrdersByUserID(ctx context.Context, userID int64) ([]models.Order, error) {
	var out []models.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *memStore) UpdateOrderStatus(ctx context.Context, orderID int64, status string) error {
	for i := range m.orders {
		if m.orders[i].ID == orderID {
			m.orders[i].Status = status
			return nil
		}
	}
	return store.ErrNotFound
}

func setupRouter(t *testing.T, st *memStore) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens := auth.NewTokenIssuer("test-secret", time.Hour)
	token, err := tokens.Issue(7, "jane", false)
	require.NoError(t, err)

	cartSvc := service.NewCartService(st, nil)
	orderSvc := service.NewOrderService(st, nil, nil)

	handler := NewHandler(nil, cartSvc, orderSvc, nil, nil, tokens, "1000")
	router := gin.New()
	handler.SetupRoutes(router)
	return router, token
}

func storeFixture() *memStore {
	return &memStore{
		products: map[int64]*models.Product{
			1: {ID: 1, Name: "Red Shirt", SKU: "SHIRT-RED",
				Price:     decimal.RequireFromString("20.00"),
				ImageMain: "/media/products/red-shirt.jpg"},
		},
	}
}

func doJSON(router *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCartRequiresAuth(t *testing.T) {
	router, _ := setupRouter(t, storeFixture())

	w := doJSON(router, http.MethodGet, "/api/v1/cart", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAddToCartAndCheckout(t *testing.T) {
	st := storeFixture()
	router, token := setupRouter(t, st)

	w := doJSON(router, http.MethodPost, "/api/v1/cart/items", token, gin.H{
		"product_id": 1, "size": "M", "quantity": 2,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(router, http.MethodPost, "/api/v1/checkout", token, gin.H{
		"full_name": "Jane Doe", "email": "jane@example.com", "phone": "555",
		"country": "USA", "city": "Portland", "state": "OR",
		"zip_code": "97201", "address": "1 Main St",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Total decimal.Decimal `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Total.Equal(decimal.RequireFromString("40.00")))
	assert.Empty(t, st.cart)
}

func TestCheckoutMissingFieldReturns400WithField(t *testing.T) {
	st := storeFixture()
	st.cart = []models.CartItem{{ID: 1, UserID: 7, ProductName: "Red Shirt",
		Size: "M", Quantity: 1, Price: decimal.RequireFromString("20.00")}}
	router, token := setupRouter(t, st)

	w := doJSON(router, http.MethodPost, "/api/v1/checkout", token, gin.H{
		"full_name": "Jane Doe", "email": "jane@example.com", "phone": "555",
		"country": "USA", "city": "Portland", "state": "OR",
		"zip_code": "97201",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "address", resp["field"])
	assert.Len(t, st.cart, 1, "cart must be untouched")
	assert.Empty(t, st.orders)
}

func TestAddToCartNonNumericQuantityRejected(t *testing.T) {
	st := storeFixture()
	router, token := setupRouter(t, st)

	w := doJSON(router, http.MethodPost, "/api/v1/cart/items", token, gin.H{
		"product_id": 1, "size": "M", "quantity": "two",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, st.cart, "no cart item must be created")
}

func TestRemoveCartItemIdempotent(t *testing.T) {
	st := storeFixture()
	st.cart = []models.CartItem{{ID: 5, UserID: 7, ProductName: "Red Shirt",
		Size: "M", Quantity: 1, Price: decimal.RequireFromString("20.00")}}
	router, token := setupRouter(t, st)

	w := doJSON(router, http.MethodDelete, "/api/v1/cart/items/5", token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, st.cart)

	w = doJSON(router, http.MethodDelete, "/api/v1/cart/items/5", token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestAdminRouteForbiddenForShoppers(t *testing.T) {
	router, token := setupRouter(t, storeFixture())

	w := doJSON(router, http.MethodPut, "/api/v1/admin/orders/1/status", token, gin.H{
		"status": "shipped",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}
