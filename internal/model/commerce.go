package model

import "time"

type Cart struct {
	ID            string    `json:"id"`
	SessionID     string    `json:"-"`
	Currency      string    `json:"currency"`
	SubtotalCents int64     `json:"subtotal_cents"`
	TotalCents    int64     `json:"total_cents"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CartItem carries the variant's sku and name denormalized for display;
// unit price is snapshotted from the variant at add time.
type CartItem struct {
	ID             string `json:"id"`
	CartID         string `json:"-"`
	VariantID      string `json:"variant_id"`
	SKU            string `json:"sku"`
	Name           string `json:"name"`
	Qty            int64  `json:"qty"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	RowTotalCents  int64  `json:"row_total_cents"`
}

type Customer struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	OrderStatusCreated = "created"
	OrderStatusPaid    = "paid"
)

type Order struct {
	ID            string     `json:"id"`
	CustomerID    string     `json:"customer_id"`
	Status        string     `json:"status"`
	SubtotalCents int64      `json:"subtotal_cents"`
	TotalCents    int64      `json:"total_cents"`
	Currency      string     `json:"currency"`
	PlacedAt      *time.Time `json:"placed_at"`
	CreatedAt     time.Time  `json:"created_at"`
}

type OrderItem struct {
	ID             string  `json:"id"`
	OrderID        string  `json:"-"`
	ProductID      *string `json:"product_id"`
	VariantID      *string `json:"variant_id"`
	SKU            string  `json:"sku"`
	Name           string  `json:"name"`
	Qty            int64   `json:"qty"`
	UnitPriceCents int64   `json:"unit_price_cents"`
	RowTotalCents  int64   `json:"row_total_cents"`
}
