package store

import (
	"testing"

	"github.com/bykirken/bykirken/internal/model"
)

func seedProduct(t *testing.T, products *ProductStore, categories *CategoryStore) *model.Product {
	t.Helper()

	cat, err := categories.Create("Bøker", "boker", nil)
	if err != nil {
		t.Fatalf("create category: %v", err)
	}

	p, err := products.Create(&model.Product{
		SKU:  "BOOK-001",
		Name: "Sangbok",
		Variants: []model.Variant{
			{SKU: "BOOK-001-STD", Name: "Standard", PriceCents: 24900, StockQty: 10},
			{SKU: "BOOK-001-LTD", Name: "Innbundet", PriceCents: 39900, StockQty: 3},
		},
		Categories: []model.Category{*cat},
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	return p
}

func TestProductCreateAndGet(t *testing.T) {
	db := openTestDB(t)
	products := NewProductStore(db)
	categories := NewCategoryStore(db)

	p := seedProduct(t, products, categories)

	if len(p.Variants) != 2 {
		t.Fatalf("got %d variants, want 2", len(p.Variants))
	}
	if p.Variants[0].Currency != "NOK" {
		t.Errorf("currency = %q, want NOK default", p.Variants[0].Currency)
	}
	if len(p.Categories) != 1 || p.Categories[0].Slug != "boker" {
		t.Errorf("categories = %+v", p.Categories)
	}

	got, err := products.GetBySKU("BOOK-001")
	if err != nil {
		t.Fatalf("get by sku: %v", err)
	}
	if got == nil || got.ID != p.ID {
		t.Errorf("got = %+v, want product %s", got, p.ID)
	}
}

func TestProductListByCategory(t *testing.T) {
	db := openTestDB(t)
	products := NewProductStore(db)
	categories := NewCategoryStore(db)

	seedProduct(t, products, categories)

	list, err := products.ListByCategorySlug("boker")
	if err != nil {
		t.Fatalf("list by category: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("got %d products, want 1", len(list))
	}
	if len(list[0].Variants) != 2 {
		t.Errorf("variants not loaded, got %d", len(list[0].Variants))
	}

	list, err = products.ListByCategorySlug("finnes-ikke")
	if err != nil {
		t.Fatalf("list unknown category: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("got %d products for unknown category, want 0", len(list))
	}
}

func TestAdjustStock(t *testing.T) {
	db := openTestDB(t)
	products := NewProductStore(db)
	categories := NewCategoryStore(db)

	p := seedProduct(t, products, categories)
	v := p.Variants[0] // BOOK-001-LTD sorts first, stock 3

	if err := products.AdjustStock(v.ID, -2); err != nil {
		t.Fatalf("adjust stock: %v", err)
	}
	got, err := products.GetVariant(v.ID)
	if err != nil {
		t.Fatalf("get variant: %v", err)
	}
	if got.StockQty != 1 {
		t.Errorf("stock = %d, want 1", got.StockQty)
	}

	if err := products.AdjustStock(v.ID, -5); err == nil {
		t.Error("expected error when stock would go negative")
	}
}
