package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/bykirken/bykirken/internal/commerce"
	"github.com/bykirken/bykirken/internal/model"
)

type CartStore struct {
	db *sql.DB
}

func NewCartStore(db *sql.DB) *CartStore {
	return &CartStore{db: db}
}

const cartCols = `id, session_id, currency, subtotal_cents, total_cents, created_at, updated_at`

func scanCart(scanner interface{ Scan(...any) error }) (*model.Cart, error) {
	var c model.Cart
	err := scanner.Scan(&c.ID, &c.SessionID, &c.Currency, &c.SubtotalCents, &c.TotalCents, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetOrCreate returns the cart bound to the visitor's session cookie,
// creating an empty one on first touch.
func (s *CartStore) GetOrCreate(sessionID string) (*model.Cart, error) {
	cart, err := s.GetBySessionID(sessionID)
	if err != nil {
		return nil, err
	}
	if cart != nil {
		return cart, nil
	}

	id := uuid.NewString()
	_, err = s.db.Exec(
		`INSERT INTO carts (id, session_id) VALUES (?, ?)
		 ON CONFLICT(session_id) DO NOTHING`,
		id, sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("insert cart: %w", err)
	}
	return s.GetBySessionID(sessionID)
}

func (s *CartStore) GetBySessionID(sessionID string) (*model.Cart, error) {
	row := s.db.QueryRow(`SELECT `+cartCols+` FROM carts WHERE session_id = ?`, sessionID)
	c, err := scanCart(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cart by session: %w", err)
	}
	return c, nil
}

func (s *CartStore) GetByID(id string) (*model.Cart, error) {
	row := s.db.QueryRow(`SELECT `+cartCols+` FROM carts WHERE id = ?`, id)
	c, err := scanCart(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	return c, nil
}

// AddItem adds a quantity of a variant, merging into an existing line. The
// unit price is snapshotted from the variant at add time.
func (s *CartStore) AddItem(cartID string, v *model.Variant, qty int64) error {
	if qty <= 0 {
		return fmt.Errorf("add item: quantity must be positive, got %d", qty)
	}

	_, err := s.db.Exec(
		`INSERT INTO cart_items (id, cart_id, variant_id, qty, unit_price_cents, row_total_cents)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(cart_id, variant_id) DO UPDATE SET
		     qty = cart_items.qty + excluded.qty,
		     row_total_cents = (cart_items.qty + excluded.qty) * cart_items.unit_price_cents`,
		uuid.NewString(), cartID, v.ID, qty, v.PriceCents, commerce.RowTotal(v.PriceCents, qty),
	)
	if err != nil {
		return fmt.Errorf("add cart item: %w", err)
	}
	return s.recalcTotals(cartID)
}

// SetItemQty sets a line's quantity; zero removes the line.
func (s *CartStore) SetItemQty(cartID, itemID string, qty int64) error {
	if qty < 0 {
		return fmt.Errorf("set qty: quantity must not be negative, got %d", qty)
	}

	if qty == 0 {
		_, err := s.db.Exec(`DELETE FROM cart_items WHERE id = ? AND cart_id = ?`, itemID, cartID)
		if err != nil {
			return fmt.Errorf("remove cart item: %w", err)
		}
		return s.recalcTotals(cartID)
	}

	_, err := s.db.Exec(
		`UPDATE cart_items SET qty = ?, row_total_cents = ? * unit_price_cents WHERE id = ? AND cart_id = ?`,
		qty, qty, itemID, cartID,
	)
	if err != nil {
		return fmt.Errorf("update cart item: %w", err)
	}
	return s.recalcTotals(cartID)
}

func (s *CartStore) Items(cartID string) ([]model.CartItem, error) {
	rows, err := s.db.Query(
		`SELECT ci.id, ci.cart_id, ci.variant_id, v.sku, v.name, ci.qty, ci.unit_price_cents, ci.row_total_cents
		 FROM cart_items ci
		 JOIN pim_variants v ON v.id = ci.variant_id
		 WHERE ci.cart_id = ?
		 ORDER BY v.sku ASC`,
		cartID,
	)
	if err != nil {
		return nil, fmt.Errorf("query cart items: %w", err)
	}
	defer rows.Close()

	var items []model.CartItem
	for rows.Next() {
		var item model.CartItem
		if err := rows.Scan(&item.ID, &item.CartID, &item.VariantID, &item.SKU, &item.Name,
			&item.Qty, &item.UnitPriceCents, &item.RowTotalCents); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *CartStore) Clear(cartID string) error {
	_, err := s.db.Exec(`DELETE FROM cart_items WHERE cart_id = ?`, cartID)
	if err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return s.recalcTotals(cartID)
}

func (s *CartStore) recalcTotals(cartID string) error {
	items, err := s.Items(cartID)
	if err != nil {
		return err
	}

	subtotal := commerce.Subtotal(items)
	total := commerce.Total(subtotal)

	_, err = s.db.Exec(
		`UPDATE carts SET subtotal_cents = ?, total_cents = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		subtotal, total, cartID,
	)
	if err != nil {
		return fmt.Errorf("update cart totals: %w", err)
	}
	return nil
}
