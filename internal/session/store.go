package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

// TokenMinLength - tokens shorter than this are rejected by the login
// handler; the store itself performs no validation.
const TokenMinLength = 10

const storageKey = "strava_access_token"

// ErrNoSession - no token is currently stored
var ErrNoSession = errors.New("no stored session")

const schema = `
CREATE TABLE IF NOT EXISTS session (
	key      TEXT PRIMARY KEY,
	token    TEXT NOT NULL,
	saved_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);`

// Store persists a single strava access token across restarts. One session
// at a time: saving a new token overwrites any prior one.
type Store struct {
	db *sql.DB
}

func NewStore(dbPath string) (*Store, error) {
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}

	// sqlite works best with a single writer
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping session db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init session db schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Restore returns the previously stored token, or ErrNoSession.
func (s *Store) Restore(ctx context.Context) (string, error) {
	var token string
	err := s.db.QueryRowContext(ctx,
		`SELECT token FROM session WHERE key = ?`, storageKey,
	).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNoSession
	}
	if err != nil {
		return "", fmt.Errorf("restore session: %w", err)
	}
	return token, nil
}

// Save persists the token, replacing any previously stored one.
func (s *Store) Save(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO session (key, token, saved_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET token = excluded.token, saved_at = excluded.saved_at`,
		storageKey, token,
	)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Clear removes any stored token. Clearing an empty store is not an error.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM session WHERE key = ?`, storageKey); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
