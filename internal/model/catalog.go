package model

import "time"

type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	ParentID  *string   `json:"parent_id"`
	CreatedAt time.Time `json:"created_at"`
}

type Variant struct {
	ID         string `json:"id"`
	ProductID  string `json:"product_id"`
	SKU        string `json:"sku"`
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
	Currency   string `json:"currency"`
	StockQty   int64  `json:"stock_qty"`
}

type Product struct {
	ID              string         `json:"id"`
	SKU             string         `json:"sku"`
	Name            string         `json:"name"`
	Description     *string        `json:"description"`
	Brand           *string        `json:"brand"`
	Attributes      map[string]any `json:"attributes"`
	DefaultImageURL *string        `json:"default_image_url"`
	Categories      []Category     `json:"categories"`
	Variants        []Variant      `json:"variants"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}
