package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/bykirken/bykirken/internal/model"
)

type PostStore struct {
	db *sql.DB
}

func NewPostStore(db *sql.DB) *PostStore {
	return &PostStore{db: db}
}

const postCols = `id, slug, title, excerpt, body_md, cover_image_path, status, published_at, created_at, updated_at`

func scanPost(scanner interface{ Scan(...any) error }) (*model.Post, error) {
	var p model.Post
	var cover sql.NullString
	var publishedAt sql.NullTime

	err := scanner.Scan(&p.ID, &p.Slug, &p.Title, &p.Excerpt, &p.BodyMD, &cover, &p.Status, &publishedAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if cover.Valid && cover.String != "" {
		p.CoverImagePath = &cover.String
	}
	if publishedAt.Valid {
		p.PublishedAt = &publishedAt.Time
	}
	return &p, nil
}

func (s *PostStore) Create(p *model.Post) (*model.Post, error) {
	result, err := s.db.Exec(
		`INSERT INTO posts (slug, title, excerpt, body_md, cover_image_path, status, published_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.Slug, p.Title, p.Excerpt, p.BodyMD, nullString(p.CoverImagePath), p.Status, nullTime(p.PublishedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("insert post: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *PostStore) GetByID(id int64) (*model.Post, error) {
	row := s.db.QueryRow(`SELECT `+postCols+` FROM posts WHERE id = ?`, id)
	p, err := scanPost(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	return p, nil
}

func (s *PostStore) GetBySlug(slug string) (*model.Post, error) {
	row := s.db.QueryRow(`SELECT `+postCols+` FROM posts WHERE slug = ?`, slug)
	p, err := scanPost(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get post by slug: %w", err)
	}
	return p, nil
}

func (s *PostStore) GetPublishedBySlug(slug string, now time.Time) (*model.Post, error) {
	row := s.db.QueryRow(
		`SELECT `+postCols+` FROM posts
		 WHERE slug = ? AND status = 'published' AND published_at <= ?`,
		slug, now.UTC(),
	)
	p, err := scanPost(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get published post: %w", err)
	}
	return p, nil
}

func (s *PostStore) ListPublished(now time.Time, limit, offset int) ([]model.Post, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT `+postCols+` FROM posts
		 WHERE status = 'published' AND published_at <= ?
		 ORDER BY published_at DESC LIMIT ? OFFSET ?`,
		now.UTC(), limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("query published posts: %w", err)
	}
	return collectPosts(rows)
}

func (s *PostStore) List(limit, offset int) ([]model.Post, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT `+postCols+` FROM posts ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	return collectPosts(rows)
}

func collectPosts(rows *sql.Rows) ([]model.Post, error) {
	defer rows.Close()

	var posts []model.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, *p)
	}
	return posts, rows.Err()
}

func (s *PostStore) Update(p *model.Post) (*model.Post, error) {
	_, err := s.db.Exec(
		`UPDATE posts
		 SET slug = ?, title = ?, excerpt = ?, body_md = ?, cover_image_path = ?, status = ?, published_at = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		p.Slug, p.Title, p.Excerpt, p.BodyMD, nullString(p.CoverImagePath), p.Status, nullTime(p.PublishedAt), p.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update post: %w", err)
	}
	return s.GetByID(p.ID)
}

func (s *PostStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	return nil
}
