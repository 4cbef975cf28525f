package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/bykirken/bykirken/internal/model"
)

type OrderStore struct {
	db *sql.DB
}

func NewOrderStore(db *sql.DB) *OrderStore {
	return &OrderStore{db: db}
}

// EnsureCustomer returns the customer for an email, creating one if needed.
func (s *OrderStore) EnsureCustomer(email string) (*model.Customer, error) {
	_, err := s.db.Exec(
		`INSERT INTO customers (id, email) VALUES (?, ?) ON CONFLICT(email) DO NOTHING`,
		uuid.NewString(), email,
	)
	if err != nil {
		return nil, fmt.Errorf("insert customer: %w", err)
	}

	var c model.Customer
	err = s.db.QueryRow(`SELECT id, email, created_at FROM customers WHERE email = ?`, email).
		Scan(&c.ID, &c.Email, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return &c, nil
}

// CreateFromCart snapshots the cart into an order in one transaction and
// empties the cart. Item rows carry denormalized sku/name so later catalog
// edits do not rewrite order history.
func (s *OrderStore) CreateFromCart(customerID string, cart *model.Cart, items []model.CartItem) (*model.Order, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("create order: cart is empty")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin order tx: %w", err)
	}
	defer tx.Rollback()

	orderID := uuid.NewString()
	_, err = tx.Exec(
		`INSERT INTO orders (id, customer_id, status, subtotal_cents, total_cents, currency)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		orderID, customerID, model.OrderStatusCreated, cart.SubtotalCents, cart.TotalCents, cart.Currency,
	)
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}

	for _, item := range items {
		var productID sql.NullString
		err := tx.QueryRow(`SELECT product_id FROM pim_variants WHERE id = ?`, item.VariantID).Scan(&productID)
		if err != nil && err != sql.ErrNoRows {
			return nil, fmt.Errorf("resolve variant product: %w", err)
		}

		_, err = tx.Exec(
			`INSERT INTO order_items (id, order_id, product_id, variant_id, sku, name, qty, unit_price_cents, row_total_cents)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			uuid.NewString(), orderID, productID, item.VariantID, item.SKU, item.Name,
			item.Qty, item.UnitPriceCents, item.RowTotalCents,
		)
		if err != nil {
			return nil, fmt.Errorf("insert order item: %w", err)
		}
	}

	if _, err := tx.Exec(`DELETE FROM cart_items WHERE cart_id = ?`, cart.ID); err != nil {
		return nil, fmt.Errorf("empty cart: %w", err)
	}
	if _, err := tx.Exec(
		`UPDATE carts SET subtotal_cents = 0, total_cents = 0, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		cart.ID,
	); err != nil {
		return nil, fmt.Errorf("reset cart totals: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit order tx: %w", err)
	}
	return s.GetByID(orderID)
}

const orderCols = `id, customer_id, status, subtotal_cents, total_cents, currency, placed_at, created_at`

func scanOrder(scanner interface{ Scan(...any) error }) (*model.Order, error) {
	var o model.Order
	var placedAt sql.NullTime

	err := scanner.Scan(&o.ID, &o.CustomerID, &o.Status, &o.SubtotalCents, &o.TotalCents, &o.Currency, &placedAt, &o.CreatedAt)
	if err != nil {
		return nil, err
	}
	if placedAt.Valid {
		o.PlacedAt = &placedAt.Time
	}
	return &o, nil
}

func (s *OrderStore) GetByID(id string) (*model.Order, error) {
	row := s.db.QueryRow(`SELECT `+orderCols+` FROM orders WHERE id = ?`, id)
	o, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

func (s *OrderStore) Items(orderID string) ([]model.OrderItem, error) {
	rows, err := s.db.Query(
		`SELECT id, order_id, product_id, variant_id, sku, name, qty, unit_price_cents, row_total_cents
		 FROM order_items WHERE order_id = ? ORDER BY sku ASC`,
		orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	var items []model.OrderItem
	for rows.Next() {
		var item model.OrderItem
		var productID, variantID sql.NullString
		if err := rows.Scan(&item.ID, &item.OrderID, &productID, &variantID, &item.SKU, &item.Name,
			&item.Qty, &item.UnitPriceCents, &item.RowTotalCents); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		if productID.Valid {
			item.ProductID = &productID.String
		}
		if variantID.Valid {
			item.VariantID = &variantID.String
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *OrderStore) ListByCustomer(customerID string) ([]model.Order, error) {
	rows, err := s.db.Query(
		`SELECT `+orderCols+` FROM orders WHERE customer_id = ? ORDER BY created_at DESC`,
		customerID,
	)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

// MarkPaid transitions an order to paid and stamps placed_at. Safe to call
// twice; the second call is a no-op.
func (s *OrderStore) MarkPaid(id string) error {
	_, err := s.db.Exec(
		`UPDATE orders SET status = ?, placed_at = COALESCE(placed_at, CURRENT_TIMESTAMP) WHERE id = ? AND status = ?`,
		model.OrderStatusPaid, id, model.OrderStatusCreated,
	)
	if err != nil {
		return fmt.Errorf("mark order paid: %w", err)
	}
	return nil
}
