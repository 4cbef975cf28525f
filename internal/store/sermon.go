package store

import (
	"database/sql"
	"fmt"

	"github.com/bykirken/bykirken/internal/model"
)

type SermonStore struct {
	db *sql.DB
}

func NewSermonStore(db *sql.DB) *SermonStore {
	return &SermonStore{db: db}
}

const sermonCols = `id, slug, title, description, speaker, filename, file_size, duration_seconds, published_at, created_at, updated_at`

func scanSermon(scanner interface{ Scan(...any) error }) (*model.Sermon, error) {
	var m model.Sermon
	var fileSize, duration sql.NullInt64
	var publishedAt sql.NullTime

	err := scanner.Scan(&m.ID, &m.Slug, &m.Title, &m.Description, &m.Speaker, &m.Filename,
		&fileSize, &duration, &publishedAt, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if fileSize.Valid {
		m.FileSize = &fileSize.Int64
	}
	if duration.Valid {
		m.DurationSeconds = &duration.Int64
	}
	if publishedAt.Valid {
		m.PublishedAt = &publishedAt.Time
	}
	return &m, nil
}

func (s *SermonStore) Create(m *model.Sermon) (*model.Sermon, error) {
	result, err := s.db.Exec(
		`INSERT INTO sermons (slug, title, description, speaker, filename, file_size, duration_seconds, published_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.Slug, m.Title, m.Description, m.Speaker, m.Filename,
		nullInt64(m.FileSize), nullInt64(m.DurationSeconds), nullTime(m.PublishedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("insert sermon: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *SermonStore) GetByID(id int64) (*model.Sermon, error) {
	row := s.db.QueryRow(`SELECT `+sermonCols+` FROM sermons WHERE id = ?`, id)
	m, err := scanSermon(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get sermon: %w", err)
	}
	return m, nil
}

func (s *SermonStore) GetBySlug(slug string) (*model.Sermon, error) {
	row := s.db.QueryRow(`SELECT `+sermonCols+` FROM sermons WHERE slug = ?`, slug)
	m, err := scanSermon(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get sermon by slug: %w", err)
	}
	return m, nil
}

// ListPublished returns published episodes newest first, for the archive
// page and the podcast feed.
func (s *SermonStore) ListPublished(limit, offset int) ([]model.Sermon, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT `+sermonCols+` FROM sermons WHERE published_at IS NOT NULL ORDER BY published_at DESC LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("query published sermons: %w", err)
	}
	return collectSermons(rows)
}

func (s *SermonStore) List(limit, offset int) ([]model.Sermon, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT `+sermonCols+` FROM sermons ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("query sermons: %w", err)
	}
	return collectSermons(rows)
}

func collectSermons(rows *sql.Rows) ([]model.Sermon, error) {
	defer rows.Close()

	var sermons []model.Sermon
	for rows.Next() {
		m, err := scanSermon(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sermon: %w", err)
		}
		sermons = append(sermons, *m)
	}
	return sermons, rows.Err()
}

func (s *SermonStore) Update(m *model.Sermon) (*model.Sermon, error) {
	_, err := s.db.Exec(
		`UPDATE sermons
		 SET slug = ?, title = ?, description = ?, speaker = ?, filename = ?, file_size = ?, duration_seconds = ?, published_at = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		m.Slug, m.Title, m.Description, m.Speaker, m.Filename,
		nullInt64(m.FileSize), nullInt64(m.DurationSeconds), nullTime(m.PublishedAt), m.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update sermon: %w", err)
	}
	return s.GetByID(m.ID)
}

func (s *SermonStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM sermons WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete sermon: %w", err)
	}
	return nil
}
