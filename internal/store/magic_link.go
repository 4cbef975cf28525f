package store

import (
	"crypto/rand"
	"database/sql"
	"fmt"
	"math/big"
	"time"

	"github.com/bykirken/bykirken/internal/model"
)

type MagicLinkStore struct {
	db *sql.DB
}

func NewMagicLinkStore(db *sql.DB) *MagicLinkStore {
	return &MagicLinkStore{db: db}
}

func scanMagicLink(scanner interface{ Scan(...any) error }) (*model.MagicLink, error) {
	var ml model.MagicLink
	var usedAt sql.NullTime

	err := scanner.Scan(&ml.ID, &ml.Token, &ml.Email, &ml.ExpiresAt, &usedAt, &ml.Attempts, &ml.CreatedAt)
	if err != nil {
		return nil, err
	}
	if usedAt.Valid {
		ml.UsedAt = &usedAt.Time
	}
	return &ml, nil
}

const magicLinkCols = `id, token, email, expires_at, used_at, attempts, created_at`

// generateCode returns a 6-digit numeric code (100000–999999).
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// Create generates a new login code with a 15-minute expiry. Any previous
// pending codes for the same email are invalidated first.
func (s *MagicLinkStore) Create(email string) (*model.MagicLink, error) {
	_, err := s.db.Exec(
		`UPDATE magic_links SET used_at = datetime('now') WHERE email = ? AND used_at IS NULL AND expires_at > datetime('now')`,
		email,
	)
	if err != nil {
		return nil, fmt.Errorf("invalidate previous codes: %w", err)
	}

	code, err := generateCode()
	if err != nil {
		return nil, err
	}
	expiresAt := time.Now().UTC().Add(15 * time.Minute)

	result, err := s.db.Exec(
		`INSERT INTO magic_links (token, email, expires_at) VALUES (?, ?, ?)`,
		code, email, expiresAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert magic link: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+magicLinkCols+` FROM magic_links WHERE id = ?`, id)
	return scanMagicLink(row)
}

// GetByEmailAndCode returns the matching pending code, or nil when not
// found, expired or already used.
func (s *MagicLinkStore) GetByEmailAndCode(email, code string) (*model.MagicLink, error) {
	row := s.db.QueryRow(
		`SELECT `+magicLinkCols+` FROM magic_links WHERE email = ? AND token = ? AND expires_at > datetime('now') AND used_at IS NULL`,
		email, code,
	)
	ml, err := scanMagicLink(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get magic link: %w", err)
	}
	return ml, nil
}

// GetPendingByEmail returns the email's current pending code, or nil when
// none exists.
func (s *MagicLinkStore) GetPendingByEmail(email string) (*model.MagicLink, error) {
	row := s.db.QueryRow(
		`SELECT `+magicLinkCols+` FROM magic_links WHERE email = ? AND expires_at > datetime('now') AND used_at IS NULL ORDER BY id DESC LIMIT 1`,
		email,
	)
	ml, err := scanMagicLink(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get pending magic link: %w", err)
	}
	return ml, nil
}

// IncrementAttempts increments the attempt count and returns the new value.
func (s *MagicLinkStore) IncrementAttempts(id int64) (int, error) {
	_, err := s.db.Exec(`UPDATE magic_links SET attempts = attempts + 1 WHERE id = ?`, id)
	if err != nil {
		return 0, fmt.Errorf("increment attempts: %w", err)
	}

	var attempts int
	err = s.db.QueryRow(`SELECT attempts FROM magic_links WHERE id = ?`, id).Scan(&attempts)
	if err != nil {
		return 0, fmt.Errorf("read attempts: %w", err)
	}
	return attempts, nil
}

func (s *MagicLinkStore) MarkUsed(id int64) error {
	_, err := s.db.Exec(`UPDATE magic_links SET used_at = datetime('now') WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark magic link used: %w", err)
	}
	return nil
}

func (s *MagicLinkStore) DeleteExpired() (int64, error) {
	result, err := s.db.Exec(`DELETE FROM magic_links WHERE expires_at <= datetime('now')`)
	if err != nil {
		return 0, fmt.Errorf("delete expired magic links: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return count, nil
}
