package commerce

import (
	"time"

	"github.com/uptrace/bun"
)

// Order lifecycle. A draft accumulates items; confirmation is terminal.
const (
	OrderStatusDraft     = "draft"
	OrderStatusConfirmed = "confirmed"
)

const RestockStatusPending = "pending"

type Product struct {
	bun.BaseModel `bun:"table:products,alias:p"`

	ProductID   int64   `bun:"product_id,pk,autoincrement"`
	ProductName string  `bun:"product_name"`
	Category    string  `bun:"category"`
	Price       float64 `bun:"price"`
	Description string  `bun:"description"`
	ImageURL    string  `bun:"image_url"`
	Colour      string  `bun:"colour"`

	Inventory []*Inventory `bun:"rel:has-many,join:product_id=product_id"`
}

type Inventory struct {
	bun.BaseModel `bun:"table:inventory,alias:i"`

	InventoryID   int64  `bun:"inventory_id,pk,autoincrement"`
	ProductID     int64  `bun:"product_id"`
	Size          string `bun:"size"`
	StockQuantity int    `bun:"stock_quantity"`
}

type Customer struct {
	bun.BaseModel `bun:"table:customers,alias:c"`

	CustomerID      string    `bun:"customer_id,pk"`
	Email           string    `bun:"email,nullzero"`
	FullName        string    `bun:"full_name,nullzero"`
	PhoneNumber     string    `bun:"phone_number,nullzero"`
	ShippingAddress string    `bun:"shipping_address,nullzero"`
	CreatedAt       time.Time `bun:"created_at,nullzero,default:current_timestamp"`
}

type Order struct {
	bun.BaseModel `bun:"table:orders,alias:o"`

	OrderID     string    `bun:"order_id,pk"`
	CustomerID  string    `bun:"customer_id"`
	ThreadID    string    `bun:"thread_id"`
	Status      string    `bun:"status"`
	TotalAmount float64   `bun:"total_amount"`
	CreatedAt   time.Time `bun:"created_at,nullzero,default:current_timestamp"`

	Items []*OrderItem `bun:"rel:has-many,join:order_id=order_id"`
}

// OrderItem snapshots the product name and unit price at purchase time so
// later catalog edits never rewrite recorded orders.
type OrderItem struct {
	bun.BaseModel `bun:"table:order_items,alias:oi"`

	ID              int64   `bun:"id,pk,autoincrement"`
	OrderID         string  `bun:"order_id"`
	ProductName     string  `bun:"product_name"`
	Size            string  `bun:"size"`
	Quantity        int     `bun:"quantity"`
	PriceAtPurchase float64 `bun:"price_at_purchase"`
}

type RestockNotification struct {
	bun.BaseModel `bun:"table:restock_notifications,alias:rn"`

	ID            int64  `bun:"id,pk,autoincrement"`
	CustomerEmail string `bun:"customer_email"`
	ProductID     int64  `bun:"product_id"`
	Size          string `bun:"size"`
	Status        string `bun:"status"`
}
