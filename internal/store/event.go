package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/bykirken/bykirken/internal/model"
)

type EventStore struct {
	db *sql.DB
}

func NewEventStore(db *sql.DB) *EventStore {
	return &EventStore{db: db}
}

const eventColumns = `id, slug, title, description_md, start_time, end_time, location, cover_image_path, status, published_at, created_at, updated_at`

func (s *EventStore) Create(e *model.Event) (*model.Event, error) {
	result, err := s.db.Exec(
		`INSERT INTO events (slug, title, description_md, start_time, end_time, location, cover_image_path, status, published_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Slug, e.Title, e.DescriptionMD, e.StartTime.UTC(), nullTime(e.EndTime), nullString(e.Location),
		nullString(e.CoverImagePath), e.Status, nullTime(e.PublishedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *EventStore) GetByID(id int64) (*model.Event, error) {
	row := s.db.QueryRow(`SELECT `+eventColumns+` FROM events WHERE id = ?`, id)
	return scanEvent(row)
}

func (s *EventStore) GetBySlug(slug string) (*model.Event, error) {
	row := s.db.QueryRow(`SELECT `+eventColumns+` FROM events WHERE slug = ?`, slug)
	return scanEvent(row)
}

// GetPublishedBySlug serves the public event page. Rows scheduled with a
// future published_at stay hidden until that time passes.
func (s *EventStore) GetPublishedBySlug(slug string, now time.Time) (*model.Event, error) {
	row := s.db.QueryRow(
		`SELECT `+eventColumns+` FROM events
		 WHERE slug = ? AND status = ? AND (published_at IS NULL OR published_at <= ?)`,
		slug, model.EventStatusPublished, now.UTC(),
	)
	return scanEvent(row)
}

// ListUpcoming returns published events that have not yet ended, soonest
// first. An event still in progress counts as upcoming.
func (s *EventStore) ListUpcoming(now time.Time, limit int) ([]model.Event, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT `+eventColumns+` FROM events
		 WHERE status = ? AND (published_at IS NULL OR published_at <= ?)
		   AND (start_time >= ? OR COALESCE(end_time, start_time) >= ?)
		 ORDER BY start_time ASC LIMIT ?`,
		model.EventStatusPublished, now.UTC(), now.UTC(), now.UTC(), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query upcoming events: %w", err)
	}
	return collectEvents(rows)
}

// ListBetween returns non-draft events overlapping the range, for calendar
// views.
func (s *EventStore) ListBetween(start, end time.Time) ([]model.Event, error) {
	rows, err := s.db.Query(
		`SELECT `+eventColumns+` FROM events
		 WHERE status != ? AND start_time < ? AND COALESCE(end_time, start_time) >= ?
		 ORDER BY start_time ASC`,
		model.EventStatusDraft, end.UTC(), start.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("query events in range: %w", err)
	}
	return collectEvents(rows)
}

// ListStartingBetween returns published events whose start time falls inside
// the range. Used by the reminder scheduler.
func (s *EventStore) ListStartingBetween(start, end time.Time) ([]model.Event, error) {
	rows, err := s.db.Query(
		`SELECT `+eventColumns+` FROM events
		 WHERE status = ? AND start_time >= ? AND start_time < ?
		 ORDER BY start_time ASC`,
		model.EventStatusPublished, start.UTC(), end.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("query events starting in range: %w", err)
	}
	return collectEvents(rows)
}

func (s *EventStore) List(limit, offset int) ([]model.Event, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT `+eventColumns+` FROM events ORDER BY start_time DESC LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	return collectEvents(rows)
}

func (s *EventStore) Update(e *model.Event) (*model.Event, error) {
	_, err := s.db.Exec(
		`UPDATE events
		 SET slug = ?, title = ?, description_md = ?, start_time = ?, end_time = ?, location = ?,
		     cover_image_path = ?, status = ?, published_at = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		e.Slug, e.Title, e.DescriptionMD, e.StartTime.UTC(), nullTime(e.EndTime), nullString(e.Location),
		nullString(e.CoverImagePath), e.Status, nullTime(e.PublishedAt), e.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}
	return s.GetByID(e.ID)
}

func (s *EventStore) Delete(id int64) error {
	if _, err := s.db.Exec(`DELETE FROM events WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

// UpsertCalendarRecords writes one reconciliation run in a single
// transaction, keyed on slug. Admin-owned fields (cover image) survive the
// upsert; feed-owned fields are overwritten.
func (s *EventStore) UpsertCalendarRecords(ctx context.Context, records []model.CalendarRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO events (slug, title, description_md, start_time, end_time, location, status, published_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(slug) DO UPDATE SET
		     title = excluded.title,
		     description_md = excluded.description_md,
		     start_time = excluded.start_time,
		     end_time = excluded.end_time,
		     location = excluded.location,
		     status = excluded.status,
		     published_at = excluded.published_at,
		     updated_at = CURRENT_TIMESTAMP`,
	)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		_, err := stmt.ExecContext(ctx,
			rec.Slug, rec.Title, rec.DescriptionMD, rec.StartTime.UTC(), nullTime(rec.EndTime),
			nullString(rec.Location), rec.Status, nullTime(rec.PublishedAt),
		)
		if err != nil {
			return fmt.Errorf("upsert event %q: %w", rec.Slug, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert tx: %w", err)
	}
	return nil
}

func scanEvent(row *sql.Row) (*model.Event, error) {
	var e model.Event
	var endTime, publishedAt sql.NullTime
	var location, coverImagePath sql.NullString

	err := row.Scan(&e.ID, &e.Slug, &e.Title, &e.DescriptionMD, &e.StartTime, &endTime,
		&location, &coverImagePath, &e.Status, &publishedAt, &e.CreatedAt, &e.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query event: %w", err)
	}

	applyEventNullables(&e, endTime, publishedAt, location, coverImagePath)
	return &e, nil
}

func collectEvents(rows *sql.Rows) ([]model.Event, error) {
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var e model.Event
		var endTime, publishedAt sql.NullTime
		var location, coverImagePath sql.NullString

		if err := rows.Scan(&e.ID, &e.Slug, &e.Title, &e.DescriptionMD, &e.StartTime, &endTime,
			&location, &coverImagePath, &e.Status, &publishedAt, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		applyEventNullables(&e, endTime, publishedAt, location, coverImagePath)
		events = append(events, e)
	}
	return events, rows.Err()
}

func applyEventNullables(e *model.Event, endTime, publishedAt sql.NullTime, location, coverImagePath sql.NullString) {
	if endTime.Valid {
		t := endTime.Time
		e.EndTime = &t
	}
	if publishedAt.Valid {
		t := publishedAt.Time
		e.PublishedAt = &t
	}
	if location.Valid && location.String != "" {
		v := location.String
		e.Location = &v
	}
	if coverImagePath.Valid && coverImagePath.String != "" {
		v := coverImagePath.String
		e.CoverImagePath = &v
	}
}
