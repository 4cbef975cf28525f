package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/bykirken/bykirken/internal/model"
)

type PageStore struct {
	db *sql.DB
}

func NewPageStore(db *sql.DB) *PageStore {
	return &PageStore{db: db}
}

const pageCols = `id, slug, title, body_md, meta, status, published_at, created_at, updated_at`

func scanPage(scanner interface{ Scan(...any) error }) (*model.Page, error) {
	var p model.Page
	var meta string
	var publishedAt sql.NullTime

	err := scanner.Scan(&p.ID, &p.Slug, &p.Title, &p.BodyMD, &meta, &p.Status, &publishedAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if meta != "" {
		if err := json.Unmarshal([]byte(meta), &p.Meta); err != nil {
			return nil, fmt.Errorf("unmarshal page meta: %w", err)
		}
	}
	if publishedAt.Valid {
		p.PublishedAt = &publishedAt.Time
	}
	return &p, nil
}

func marshalMeta(meta map[string]any) (string, error) {
	if meta == nil {
		return "{}", nil
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("marshal page meta: %w", err)
	}
	return string(data), nil
}

func (s *PageStore) Create(p *model.Page) (*model.Page, error) {
	meta, err := marshalMeta(p.Meta)
	if err != nil {
		return nil, err
	}

	result, err := s.db.Exec(
		`INSERT INTO pages (slug, title, body_md, meta, status, published_at) VALUES (?, ?, ?, ?, ?, ?)`,
		p.Slug, p.Title, p.BodyMD, meta, p.Status, nullTime(p.PublishedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("insert page: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *PageStore) GetByID(id int64) (*model.Page, error) {
	row := s.db.QueryRow(`SELECT `+pageCols+` FROM pages WHERE id = ?`, id)
	p, err := scanPage(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get page: %w", err)
	}
	return p, nil
}

func (s *PageStore) GetBySlug(slug string) (*model.Page, error) {
	row := s.db.QueryRow(`SELECT `+pageCols+` FROM pages WHERE slug = ?`, slug)
	p, err := scanPage(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get page by slug: %w", err)
	}
	return p, nil
}

func (s *PageStore) GetPublishedBySlug(slug string) (*model.Page, error) {
	row := s.db.QueryRow(`SELECT `+pageCols+` FROM pages WHERE slug = ? AND status = 'published'`, slug)
	p, err := scanPage(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get published page: %w", err)
	}
	return p, nil
}

func (s *PageStore) List() ([]model.Page, error) {
	rows, err := s.db.Query(`SELECT ` + pageCols + ` FROM pages ORDER BY slug ASC`)
	if err != nil {
		return nil, fmt.Errorf("query pages: %w", err)
	}
	return collectPages(rows)
}

func (s *PageStore) ListPublished() ([]model.Page, error) {
	rows, err := s.db.Query(`SELECT ` + pageCols + ` FROM pages WHERE status = 'published' ORDER BY slug ASC`)
	if err != nil {
		return nil, fmt.Errorf("query published pages: %w", err)
	}
	return collectPages(rows)
}

func collectPages(rows *sql.Rows) ([]model.Page, error) {
	defer rows.Close()

	var pages []model.Page
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan page: %w", err)
		}
		pages = append(pages, *p)
	}
	return pages, rows.Err()
}

func (s *PageStore) Update(p *model.Page) (*model.Page, error) {
	meta, err := marshalMeta(p.Meta)
	if err != nil {
		return nil, err
	}

	_, err = s.db.Exec(
		`UPDATE pages
		 SET slug = ?, title = ?, body_md = ?, meta = ?, status = ?, published_at = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		p.Slug, p.Title, p.BodyMD, meta, p.Status, nullTime(p.PublishedAt), p.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update page: %w", err)
	}
	return s.GetByID(p.ID)
}

func (s *PageStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM pages WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete page: %w", err)
	}
	return nil
}
