package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// User represents a registered shopper
type User struct {
	ID           int64     `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	IsAdmin      bool      `db:"is_admin" json:"is_admin"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Product represents a product in the catalog
type Product struct {
	ID          int64               `db:"id" json:"id"`
	Category    string              `db:"category" json:"category"`
	Name        string              `db:"name" json:"name"`
	Price       decimal.Decimal     `db:"price" json:"price"`
	SKU         string              `db:"sku" json:"sku"`
	Description string              `db:"description" json:"description"`
	ImageMain   string              `db:"image_main" json:"image_main"`
	ImageThumb1 *string             `db:"image_thumb1" json:"image_thumb1,omitempty"`
	ImageThumb2 *string             `db:"image_thumb2" json:"image_thumb2,omitempty"`
	ImageThumb3 *string             `db:"image_thumb3" json:"image_thumb3,omitempty"`
	Stock       int                 `db:"stock" json:"stock"`
	IsOnSale    bool                `db:"is_on_sale" json:"is_on_sale"`
	SalePrice   decimal.NullDecimal `db:"sale_price" json:"sale_price,omitempty"`
	CreatedAt   time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time           `db:"updated_at" json:"updated_at"`

	Sizes []Size `db:"-" json:"sizes,omitempty"`
}

// DisplayPrice returns the effective price for listing: the sale price
// when the product is on sale and a sale price is set, the base price
// otherwise.
func (p *Product) DisplayPrice() decimal.Decimal {
	if p.IsOnSale && p.SalePrice.Valid {
		return p.SalePrice.Decimal
	}
	return p.Price
}

// Size represents a size label (S, M, L, XL) shared across products
type Size struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// CartItem is a per-user snapshot of a product taken at add-to-cart
// time. It deliberately carries no product foreign key: the name, size,
// price and image are frozen copies so later catalog edits never change
// what the shopper put in the cart.
type CartItem struct {
	ID          int64           `db:"id" json:"id"`
	UserID      int64           `db:"user_id" json:"user_id"`
	ProductName string          `db:"product_name" json:"product_name"`
	Size        string          `db:"size" json:"size"`
	Quantity    int             `db:"quantity" json:"quantity"`
	Price       decimal.Decimal `db:"price" json:"price"`
	ImageURL    string          `db:"image_url" json:"image_url"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}

// TotalPrice returns price multiplied by quantity
func (ci *CartItem) TotalPrice() decimal.Decimal {
	return ci.Price.Mul(decimal.NewFromInt(int64(ci.Quantity)))
}

// Order captures the shipping details and status of a placed order
type Order struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	FullName  string    `db:"full_name" json:"full_name"`
	Email     string    `db:"email" json:"email"`
	Phone     string    `db:"phone" json:"phone"`
	Country   string    `db:"country" json:"country"`
	City      string    `db:"city" json:"city"`
	State     string    `db:"state" json:"state"`
	ZipCode   string    `db:"zip_code" json:"zip_code"`
	Address   string    `db:"address" json:"address"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`

	Items []OrderItem `db:"-" json:"items,omitempty"`
}

// Total returns the sum of the line item totals
func (o *Order) Total() decimal.Decimal {
	total := decimal.Zero
	for i := range o.Items {
		total = total.Add(o.Items[i].TotalPrice())
	}
	return total
}

// OrderItem is an immutable line item copied verbatim from a CartItem
// during checkout. Like CartItem it is a denormalized snapshot with no
// product reference, so order history survives catalog changes.
type OrderItem struct {
	ID          int64           `db:"id" json:"id"`
	OrderID     int64           `db:"order_id" json:"order_id"`
	ProductName string          `db:"product_name" json:"product_name"`
	Size        string          `db:"size" json:"size"`
	Quantity    int             `db:"quantity" json:"quantity"`
	Price       decimal.Decimal `db:"price" json:"price"`
	ImageURL    *string         `db:"image_url" json:"image_url,omitempty"`
}

// TotalPrice returns price multiplied by quantity
func (oi *OrderItem) TotalPrice() decimal.Decimal {
	return oi.Price.Mul(decimal.NewFromInt(int64(oi.Quantity)))
}

// Contact is a write-once inbound message from the contact form
type Contact struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	Subject   string    `db:"subject" json:"subject"`
	Message   string    `db:"message" json:"message"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Order statuses. Only administrators move an order past pending.
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// ValidOrderStatus reports whether s is one of the known order statuses
func ValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// Product sort options for catalog listing
const (
	SortNone      = ""
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
)
