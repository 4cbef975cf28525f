package store

import (
	"database/sql"
	"fmt"

	"github.com/bykirken/bykirken/internal/model"
)

type PushStore struct {
	db *sql.DB
}

func NewPushStore(db *sql.DB) *PushStore {
	return &PushStore{db: db}
}

// Subscribe upserts a browser subscription keyed on its endpoint URL.
func (s *PushStore) Subscribe(endpoint, p256dh, auth string) (*model.PushSubscription, error) {
	result, err := s.db.Exec(
		`INSERT INTO push_subscriptions (endpoint, p256dh_key, auth_key)
		 VALUES (?, ?, ?)
		 ON CONFLICT(endpoint) DO UPDATE SET p256dh_key = excluded.p256dh_key, auth_key = excluded.auth_key`,
		endpoint, p256dh, auth,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert push subscription: %w", err)
	}

	id, _ := result.LastInsertId()
	// LastInsertId may be 0 on conflict update; re-query by endpoint
	if id == 0 {
		return s.GetByEndpoint(endpoint)
	}
	return s.getByID(id)
}

func (s *PushStore) getByID(id int64) (*model.PushSubscription, error) {
	var sub model.PushSubscription
	err := s.db.QueryRow(
		`SELECT id, endpoint, p256dh_key, auth_key, created_at FROM push_subscriptions WHERE id = ?`, id,
	).Scan(&sub.ID, &sub.Endpoint, &sub.P256dhKey, &sub.AuthKey, &sub.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get push subscription: %w", err)
	}
	return &sub, nil
}

func (s *PushStore) GetByEndpoint(endpoint string) (*model.PushSubscription, error) {
	var sub model.PushSubscription
	err := s.db.QueryRow(
		`SELECT id, endpoint, p256dh_key, auth_key, created_at FROM push_subscriptions WHERE endpoint = ?`, endpoint,
	).Scan(&sub.ID, &sub.Endpoint, &sub.P256dhKey, &sub.AuthKey, &sub.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get push subscription by endpoint: %w", err)
	}
	return &sub, nil
}

func (s *PushStore) List() ([]model.PushSubscription, error) {
	rows, err := s.db.Query(`SELECT id, endpoint, p256dh_key, auth_key, created_at FROM push_subscriptions ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query push subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []model.PushSubscription
	for rows.Next() {
		var sub model.PushSubscription
		if err := rows.Scan(&sub.ID, &sub.Endpoint, &sub.P256dhKey, &sub.AuthKey, &sub.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan push subscription: %w", err)
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func (s *PushStore) Unsubscribe(endpoint string) error {
	_, err := s.db.Exec(`DELETE FROM push_subscriptions WHERE endpoint = ?`, endpoint)
	if err != nil {
		return fmt.Errorf("delete push subscription: %w", err)
	}
	return nil
}

// MarkSent records that a notification was dispatched for the given ref.
// Returns false when a previous run already sent it.
func (s *PushStore) MarkSent(notifType, refID string) (bool, error) {
	result, err := s.db.Exec(
		`INSERT OR IGNORE INTO push_sent (notif_type, ref_id) VALUES (?, ?)`,
		notifType, refID,
	)
	if err != nil {
		return false, fmt.Errorf("mark push sent: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}
