// Package db persists UI preferences to sqlite so they survive a
// restart. The identity is deliberately not persisted here, it only
// comes back via the identity service's own durable session.
package db

import (
	"context"
	"database/sql"

	"github.com/mocknhire/mocknhire/internal/errorz"
	"github.com/mocknhire/mocknhire/internal/session"
)

const schemaQuery = `CREATE TABLE IF NOT EXISTS preferences (
	id     INTEGER PRIMARY KEY CHECK (id = 1),
	theme  TEXT NOT NULL,
	accent TEXT NOT NULL
)`

// Store is responsible for interacting with the preferences database.
type Store struct {
	db *sql.DB
}

// New creates a new Store and ensures the schema exists.
func New(ctx context.Context, db *sql.DB) (*Store, error) {
	if _, err := db.ExecContext(ctx, schemaQuery); err != nil {
		return nil, errorz.MapDBErr(err)
	}

	return &Store{db: db}, nil
}

// Prefs returns the saved preferences. It returns errorz.ErrNotFound
// when no preferences were ever saved.
func (s *Store) Prefs(ctx context.Context) (session.Prefs, error) {
	var rawTheme, rawAccent string

	row := s.db.QueryRowContext(ctx, `SELECT theme, accent FROM preferences WHERE id = 1`)
	if err := row.Scan(&rawTheme, &rawAccent); err != nil {
		return session.Prefs{}, errorz.MapDBErr(err)
	}

	// Values written by older or newer versions of the app might not
	// parse, fall back to defaults rather than failing startup.
	prefs := session.DefaultPrefs()

	if theme, err := session.ParseTheme(rawTheme); err == nil {
		prefs.Theme = theme
	}
	if accent, err := session.ParseAccent(rawAccent); err == nil {
		prefs.Accent = accent
	}

	return prefs, nil
}

// SavePrefs upserts the single preferences row.
func (s *Store) SavePrefs(ctx context.Context, p session.Prefs) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO preferences (id, theme, accent)
		VALUES (1, ?, ?)
		ON CONFLICT (id) DO UPDATE SET theme = excluded.theme, accent = excluded.accent`,
		string(p.Theme), string(p.Accent),
	)

	return errorz.MapDBErr(err)
}
