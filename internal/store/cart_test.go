package store

import (
	"testing"

	"github.com/bykirken/bykirken/internal/model"
)

func TestCartGetOrCreate(t *testing.T) {
	carts := NewCartStore(openTestDB(t))

	first, err := carts.GetOrCreate("session-abc")
	if err != nil {
		t.Fatalf("get or create: %v", err)
	}
	if first.Currency != "NOK" {
		t.Errorf("currency = %q, want NOK", first.Currency)
	}

	second, err := carts.GetOrCreate("session-abc")
	if err != nil {
		t.Fatalf("second get or create: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("cart id changed: %s vs %s", first.ID, second.ID)
	}
}

func TestCartAddItemAndTotals(t *testing.T) {
	db := openTestDB(t)
	carts := NewCartStore(db)
	products := NewProductStore(db)
	categories := NewCategoryStore(db)

	p := seedProduct(t, products, categories)
	std := p.Variants[1] // BOOK-001-STD, 24900

	cart, err := carts.GetOrCreate("session-abc")
	if err != nil {
		t.Fatalf("get or create: %v", err)
	}

	if err := carts.AddItem(cart.ID, &std, 2); err != nil {
		t.Fatalf("add item: %v", err)
	}

	cart, err = carts.GetByID(cart.ID)
	if err != nil {
		t.Fatalf("reload cart: %v", err)
	}
	if cart.SubtotalCents != 49800 {
		t.Errorf("subtotal = %d, want 49800", cart.SubtotalCents)
	}
	if cart.TotalCents != 49800 {
		t.Errorf("total = %d, want 49800", cart.TotalCents)
	}

	// Adding the same variant merges the line.
	if err := carts.AddItem(cart.ID, &std, 1); err != nil {
		t.Fatalf("add same variant: %v", err)
	}
	items, err := carts.Items(cart.ID)
	if err != nil {
		t.Fatalf("items: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("got %d lines, want 1", len(items))
	}
	if items[0].Qty != 3 {
		t.Errorf("qty = %d, want 3", items[0].Qty)
	}
	if items[0].RowTotalCents != 74700 {
		t.Errorf("row total = %d, want 74700", items[0].RowTotalCents)
	}

	if err := carts.AddItem(cart.ID, &std, 0); err == nil {
		t.Error("expected error for non-positive quantity")
	}
}

func TestCartSetItemQty(t *testing.T) {
	db := openTestDB(t)
	carts := NewCartStore(db)
	products := NewProductStore(db)
	categories := NewCategoryStore(db)

	p := seedProduct(t, products, categories)
	std := p.Variants[1]

	cart, err := carts.GetOrCreate("session-abc")
	if err != nil {
		t.Fatalf("get or create: %v", err)
	}
	if err := carts.AddItem(cart.ID, &std, 2); err != nil {
		t.Fatalf("add item: %v", err)
	}
	items, _ := carts.Items(cart.ID)

	if err := carts.SetItemQty(cart.ID, items[0].ID, 5); err != nil {
		t.Fatalf("set qty: %v", err)
	}
	items, err = carts.Items(cart.ID)
	if err != nil {
		t.Fatalf("items: %v", err)
	}
	if items[0].Qty != 5 || items[0].RowTotalCents != 5*24900 {
		t.Errorf("line = %+v, want qty 5", items[0])
	}

	// Zero removes the line and totals drop to zero.
	if err := carts.SetItemQty(cart.ID, items[0].ID, 0); err != nil {
		t.Fatalf("set qty zero: %v", err)
	}
	items, err = carts.Items(cart.ID)
	if err != nil {
		t.Fatalf("items: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("got %d lines, want 0", len(items))
	}
	cart, _ = carts.GetByID(cart.ID)
	if cart.SubtotalCents != 0 || cart.TotalCents != 0 {
		t.Errorf("totals = %d/%d, want 0/0", cart.SubtotalCents, cart.TotalCents)
	}
}

func TestOrderCreateFromCart(t *testing.T) {
	db := openTestDB(t)
	carts := NewCartStore(db)
	orders := NewOrderStore(db)
	products := NewProductStore(db)
	categories := NewCategoryStore(db)

	p := seedProduct(t, products, categories)
	std := p.Variants[1]

	cart, err := carts.GetOrCreate("session-abc")
	if err != nil {
		t.Fatalf("get or create: %v", err)
	}
	if err := carts.AddItem(cart.ID, &std, 2); err != nil {
		t.Fatalf("add item: %v", err)
	}
	cart, _ = carts.GetByID(cart.ID)
	items, _ := carts.Items(cart.ID)

	customer, err := orders.EnsureCustomer("kunde@example.com")
	if err != nil {
		t.Fatalf("ensure customer: %v", err)
	}
	// Second call returns the same customer.
	again, err := orders.EnsureCustomer("kunde@example.com")
	if err != nil {
		t.Fatalf("ensure customer again: %v", err)
	}
	if again.ID != customer.ID {
		t.Errorf("customer id changed: %s vs %s", customer.ID, again.ID)
	}

	order, err := orders.CreateFromCart(customer.ID, cart, items)
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if order.Status != model.OrderStatusCreated {
		t.Errorf("status = %q, want created", order.Status)
	}
	if order.TotalCents != 49800 {
		t.Errorf("total = %d, want 49800", order.TotalCents)
	}

	orderItems, err := orders.Items(order.ID)
	if err != nil {
		t.Fatalf("order items: %v", err)
	}
	if len(orderItems) != 1 {
		t.Fatalf("got %d order items, want 1", len(orderItems))
	}
	if orderItems[0].SKU != "BOOK-001-STD" || orderItems[0].Qty != 2 {
		t.Errorf("item = %+v", orderItems[0])
	}
	if orderItems[0].ProductID == nil || *orderItems[0].ProductID != p.ID {
		t.Errorf("product id = %v, want %s", orderItems[0].ProductID, p.ID)
	}

	// The cart was emptied by the checkout.
	left, _ := carts.Items(cart.ID)
	if len(left) != 0 {
		t.Errorf("cart still has %d lines after checkout", len(left))
	}

	// MarkPaid is idempotent.
	if err := orders.MarkPaid(order.ID); err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	if err := orders.MarkPaid(order.ID); err != nil {
		t.Fatalf("second mark paid: %v", err)
	}
	order, _ = orders.GetByID(order.ID)
	if order.Status != model.OrderStatusPaid {
		t.Errorf("status = %q, want paid", order.Status)
	}
	if order.PlacedAt == nil {
		t.Error("placed_at should be stamped")
	}
}

func TestOrderCreateFromEmptyCart(t *testing.T) {
	db := openTestDB(t)
	carts := NewCartStore(db)
	orders := NewOrderStore(db)

	cart, err := carts.GetOrCreate("session-abc")
	if err != nil {
		t.Fatalf("get or create: %v", err)
	}
	customer, err := orders.EnsureCustomer("kunde@example.com")
	if err != nil {
		t.Fatalf("ensure customer: %v", err)
	}

	if _, err := orders.CreateFromCart(customer.ID, cart, nil); err == nil {
		t.Error("expected error for empty cart")
	}
}
