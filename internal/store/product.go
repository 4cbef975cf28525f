package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/bykirken/bykirken/internal/model"
)

type ProductStore struct {
	db *sql.DB
}

func NewProductStore(db *sql.DB) *ProductStore {
	return &ProductStore{db: db}
}

const productCols = `id, sku, name, description, brand, attributes, default_image_url, created_at, updated_at`

func scanProduct(scanner interface{ Scan(...any) error }) (*model.Product, error) {
	var p model.Product
	var description, brand, imageURL sql.NullString
	var attributes string

	err := scanner.Scan(&p.ID, &p.SKU, &p.Name, &description, &brand, &attributes, &imageURL, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if description.Valid {
		p.Description = &description.String
	}
	if brand.Valid {
		p.Brand = &brand.String
	}
	if imageURL.Valid {
		p.DefaultImageURL = &imageURL.String
	}
	if attributes != "" {
		if err := json.Unmarshal([]byte(attributes), &p.Attributes); err != nil {
			return nil, fmt.Errorf("unmarshal product attributes: %w", err)
		}
	}
	return &p, nil
}

// Create inserts the product, its variants and its category links in one
// transaction. IDs are assigned here when empty.
func (s *ProductStore) Create(p *model.Product) (*model.Product, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	attributes := "{}"
	if p.Attributes != nil {
		data, err := json.Marshal(p.Attributes)
		if err != nil {
			return nil, fmt.Errorf("marshal product attributes: %w", err)
		}
		attributes = string(data)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin product tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO pim_products (id, sku, name, description, brand, attributes, default_image_url)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.SKU, p.Name, nullString(p.Description), nullString(p.Brand), attributes, nullString(p.DefaultImageURL),
	)
	if err != nil {
		return nil, fmt.Errorf("insert product: %w", err)
	}

	for i := range p.Variants {
		v := &p.Variants[i]
		if v.ID == "" {
			v.ID = uuid.NewString()
		}
		v.ProductID = p.ID
		if v.Currency == "" {
			v.Currency = "NOK"
		}
		_, err = tx.Exec(
			`INSERT INTO pim_variants (id, product_id, sku, name, price_cents, currency, stock_qty)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			v.ID, v.ProductID, v.SKU, v.Name, v.PriceCents, v.Currency, v.StockQty,
		)
		if err != nil {
			return nil, fmt.Errorf("insert variant %q: %w", v.SKU, err)
		}
	}

	for _, c := range p.Categories {
		_, err = tx.Exec(
			`INSERT INTO pim_product_categories (product_id, category_id) VALUES (?, ?)`,
			p.ID, c.ID,
		)
		if err != nil {
			return nil, fmt.Errorf("link category %q: %w", c.Slug, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit product tx: %w", err)
	}
	return s.GetByID(p.ID)
}

func (s *ProductStore) GetByID(id string) (*model.Product, error) {
	row := s.db.QueryRow(`SELECT `+productCols+` FROM pim_products WHERE id = ?`, id)
	p, err := scanProduct(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return s.loadRelations(p)
}

func (s *ProductStore) GetBySKU(sku string) (*model.Product, error) {
	row := s.db.QueryRow(`SELECT `+productCols+` FROM pim_products WHERE sku = ?`, sku)
	p, err := scanProduct(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get product by sku: %w", err)
	}
	return s.loadRelations(p)
}

func (s *ProductStore) loadRelations(p *model.Product) (*model.Product, error) {
	variants, err := s.variantsFor(p.ID)
	if err != nil {
		return nil, err
	}
	p.Variants = variants

	rows, err := s.db.Query(
		`SELECT c.id, c.name, c.slug, c.parent_id, c.created_at
		 FROM pim_categories c
		 JOIN pim_product_categories pc ON pc.category_id = c.id
		 WHERE pc.product_id = ?
		 ORDER BY c.name ASC`,
		p.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("query product categories: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product category: %w", err)
		}
		p.Categories = append(p.Categories, *c)
	}
	return p, rows.Err()
}

func (s *ProductStore) variantsFor(productID string) ([]model.Variant, error) {
	rows, err := s.db.Query(
		`SELECT id, product_id, sku, name, price_cents, currency, stock_qty
		 FROM pim_variants WHERE product_id = ? ORDER BY sku ASC`,
		productID,
	)
	if err != nil {
		return nil, fmt.Errorf("query variants: %w", err)
	}
	defer rows.Close()

	var variants []model.Variant
	for rows.Next() {
		var v model.Variant
		if err := rows.Scan(&v.ID, &v.ProductID, &v.SKU, &v.Name, &v.PriceCents, &v.Currency, &v.StockQty); err != nil {
			return nil, fmt.Errorf("scan variant: %w", err)
		}
		variants = append(variants, v)
	}
	return variants, rows.Err()
}

func (s *ProductStore) List(limit, offset int) ([]model.Product, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT `+productCols+` FROM pim_products ORDER BY name ASC LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	return s.collectWithRelations(rows)
}

func (s *ProductStore) ListByCategorySlug(slug string) ([]model.Product, error) {
	rows, err := s.db.Query(
		`SELECT p.id, p.sku, p.name, p.description, p.brand, p.attributes, p.default_image_url, p.created_at, p.updated_at
		 FROM pim_products p
		 JOIN pim_product_categories pc ON pc.product_id = p.id
		 JOIN pim_categories c ON c.id = pc.category_id
		 WHERE c.slug = ?
		 ORDER BY p.name ASC`,
		slug,
	)
	if err != nil {
		return nil, fmt.Errorf("query products by category: %w", err)
	}
	return s.collectWithRelations(rows)
}

func (s *ProductStore) collectWithRelations(rows *sql.Rows) ([]model.Product, error) {
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	for i := range products {
		variants, err := s.variantsFor(products[i].ID)
		if err != nil {
			return nil, err
		}
		products[i].Variants = variants
	}
	return products, nil
}

func (s *ProductStore) GetVariant(id string) (*model.Variant, error) {
	var v model.Variant
	err := s.db.QueryRow(
		`SELECT id, product_id, sku, name, price_cents, currency, stock_qty FROM pim_variants WHERE id = ?`,
		id,
	).Scan(&v.ID, &v.ProductID, &v.SKU, &v.Name, &v.PriceCents, &v.Currency, &v.StockQty)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get variant: %w", err)
	}
	return &v, nil
}

// AdjustStock applies a delta to a variant's stock, refusing to go negative.
func (s *ProductStore) AdjustStock(variantID string, delta int64) error {
	result, err := s.db.Exec(
		`UPDATE pim_variants SET stock_qty = stock_qty + ? WHERE id = ? AND stock_qty + ? >= 0`,
		delta, variantID, delta,
	)
	if err != nil {
		return fmt.Errorf("adjust stock: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("adjust stock: insufficient stock for variant %s", variantID)
	}
	return nil
}

func (s *ProductStore) Update(p *model.Product) (*model.Product, error) {
	attributes := "{}"
	if p.Attributes != nil {
		data, err := json.Marshal(p.Attributes)
		if err != nil {
			return nil, fmt.Errorf("marshal product attributes: %w", err)
		}
		attributes = string(data)
	}

	_, err := s.db.Exec(
		`UPDATE pim_products
		 SET sku = ?, name = ?, description = ?, brand = ?, attributes = ?, default_image_url = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		p.SKU, p.Name, nullString(p.Description), nullString(p.Brand), attributes, nullString(p.DefaultImageURL), p.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	return s.GetByID(p.ID)
}

func (s *ProductStore) Delete(id string) error {
	_, err := s.db.Exec(`DELETE FROM pim_products WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return nil
}
