package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/bykirken/bykirken/internal/model"
)

type CategoryStore struct {
	db *sql.DB
}

func NewCategoryStore(db *sql.DB) *CategoryStore {
	return &CategoryStore{db: db}
}

const categoryCols = `id, name, slug, parent_id, created_at`

func scanCategory(scanner interface{ Scan(...any) error }) (*model.Category, error) {
	var c model.Category
	var parentID sql.NullString

	err := scanner.Scan(&c.ID, &c.Name, &c.Slug, &parentID, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	if parentID.Valid {
		c.ParentID = &parentID.String
	}
	return &c, nil
}

func (s *CategoryStore) Create(name, slug string, parentID *string) (*model.Category, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(
		`INSERT INTO pim_categories (id, name, slug, parent_id) VALUES (?, ?, ?, ?)`,
		id, name, slug, nullString(parentID),
	)
	if err != nil {
		return nil, fmt.Errorf("insert category: %w", err)
	}
	return s.GetByID(id)
}

func (s *CategoryStore) GetByID(id string) (*model.Category, error) {
	row := s.db.QueryRow(`SELECT `+categoryCols+` FROM pim_categories WHERE id = ?`, id)
	c, err := scanCategory(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

func (s *CategoryStore) GetBySlug(slug string) (*model.Category, error) {
	row := s.db.QueryRow(`SELECT `+categoryCols+` FROM pim_categories WHERE slug = ?`, slug)
	c, err := scanCategory(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get category by slug: %w", err)
	}
	return c, nil
}

func (s *CategoryStore) List() ([]model.Category, error) {
	rows, err := s.db.Query(`SELECT ` + categoryCols + ` FROM pim_categories ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var categories []model.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, *c)
	}
	return categories, rows.Err()
}

func (s *CategoryStore) Delete(id string) error {
	_, err := s.db.Exec(`DELETE FROM pim_categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}
