package media

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/anatolykoptev/go_garbh/internal/engine"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "modernc.org/sqlite"
)

// historyLimit caps how many recent links per session feed the exclusion set.
const historyLimit = 200

// History remembers which links a session has already been shown.
type History interface {
	Seen(ctx context.Context, sessionID string) ([]string, error)
	Record(ctx context.Context, sessionID string, urls ...string) error
	Close() error
}

// Package-level singleton, set from main.go.
var history History

// SetHistory sets the package-level link history (nil disables it).
func SetHistory(h History) { history = h }

// GetHistory returns the package-level link history (may be nil).
func GetHistory() History { return history }

// NewSessionID issues an id for a client that has none yet.
func NewSessionID() string { return uuid.NewString() }

// ValidSessionID reports whether id looks like an issued session id.
func ValidSessionID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// OpenHistory connects to postgres when databaseURL is set, else opens the
// sqlite file at sqlitePath.
func OpenHistory(ctx context.Context, databaseURL, sqlitePath string) (History, error) {
	if databaseURL != "" {
		return ConnectPostgresHistory(ctx, databaseURL)
	}
	return OpenSQLiteHistory(sqlitePath)
}

// ExclusionsFor merges caller-supplied exclusions with the session's stored
// links. Store failures degrade to the caller's list.
func ExclusionsFor(ctx context.Context, h History, sessionID string, caller []string) []string {
	out := append([]string(nil), caller...)
	if h == nil || sessionID == "" {
		return out
	}
	seen, err := h.Seen(ctx, sessionID)
	if err != nil {
		slog.Warn("history: lookup failed", slog.String("session", sessionID), slog.Any("error", err))
		return out
	}
	have := make(map[string]bool, len(out))
	for _, u := range out {
		have[u] = true
	}
	for _, u := range seen {
		if !have[u] {
			have[u] = true
			out = append(out, u)
		}
	}
	return out
}

// RecordShown stores the specific links returned to a session. Search-page
// fallbacks are skipped; they are never excluded.
func RecordShown(ctx context.Context, h History, sessionID string, links ...engine.DiscoveredLink) {
	if h == nil || sessionID == "" {
		return
	}
	var urls []string
	for _, l := range links {
		if l.Found() && l.URL != "" {
			urls = append(urls, l.URL)
		}
	}
	if len(urls) == 0 {
		return
	}
	if err := h.Record(ctx, sessionID, urls...); err != nil {
		slog.Warn("history: record failed", slog.String("session", sessionID), slog.Any("error", err))
	}
}

// --- SQLite ---

// SQLiteHistory stores history in a local sqlite file.
type SQLiteHistory struct {
	db *sql.DB
}

// OpenSQLiteHistory opens (or creates) the sqlite history database.
func OpenSQLiteHistory(path string) (*SQLiteHistory, error) {
	if path == "" {
		return nil, errors.New("history: sqlite path is required")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
			return nil, fmt.Errorf("history: mkdir %s: %w", filepath.Dir(path), err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open db: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite: single writer
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS shown_links (
		session_id TEXT NOT NULL,
		url        TEXT NOT NULL,
		shown_at   INTEGER NOT NULL,
		PRIMARY KEY (session_id, url)
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: init schema: %w", err)
	}
	return &SQLiteHistory{db: db}, nil
}

// Seen returns the session's most recently shown links, newest first.
func (h *SQLiteHistory) Seen(ctx context.Context, sessionID string) ([]string, error) {
	rows, err := h.db.QueryContext(ctx,
		`SELECT url FROM shown_links WHERE session_id = ? ORDER BY shown_at DESC, rowid DESC LIMIT ?`,
		sessionID, historyLimit)
	if err != nil {
		return nil, fmt.Errorf("history: query: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("history: scan: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Record upserts urls for the session with the current time.
func (h *SQLiteHistory) Record(ctx context.Context, sessionID string, urls ...string) error {
	now := time.Now().UnixNano()
	for _, u := range urls {
		if _, err := h.db.ExecContext(ctx,
			`INSERT INTO shown_links (session_id, url, shown_at) VALUES (?, ?, ?)
			 ON CONFLICT (session_id, url) DO UPDATE SET shown_at = excluded.shown_at`,
			sessionID, u, now); err != nil {
			return fmt.Errorf("history: insert: %w", err)
		}
	}
	return nil
}

// Close closes the database.
func (h *SQLiteHistory) Close() error { return h.db.Close() }

// --- Postgres ---

// PostgresHistory stores history in postgres, shared across instances.
type PostgresHistory struct {
	pool *pgxpool.Pool
}

// ConnectPostgresHistory creates a pgx pool and ensures the table exists.
func ConnectPostgresHistory(ctx context.Context, databaseURL string) (*PostgresHistory, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse DATABASE_URL: %w", err)
	}
	config.MaxConns = 5
	config.MinConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS shown_links (
		session_id TEXT NOT NULL,
		url        TEXT NOT NULL,
		shown_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (session_id, url)
	)`); err != nil {
		pool.Close()
		return nil, fmt.Errorf("history: init schema: %w", err)
	}
	slog.Info("history postgres connected", slog.String("addr", config.ConnConfig.Host))
	return &PostgresHistory{pool: pool}, nil
}

// Seen returns the session's most recently shown links, newest first.
func (h *PostgresHistory) Seen(ctx context.Context, sessionID string) ([]string, error) {
	rows, err := h.pool.Query(ctx,
		`SELECT url FROM shown_links WHERE session_id = $1 ORDER BY shown_at DESC LIMIT $2`,
		sessionID, historyLimit)
	if err != nil {
		return nil, fmt.Errorf("history: query: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("history: scan: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Record upserts urls for the session.
func (h *PostgresHistory) Record(ctx context.Context, sessionID string, urls ...string) error {
	for _, u := range urls {
		if _, err := h.pool.Exec(ctx,
			`INSERT INTO shown_links (session_id, url) VALUES ($1, $2)
			 ON CONFLICT (session_id, url) DO UPDATE SET shown_at = now()`,
			sessionID, u); err != nil {
			return fmt.Errorf("history: insert: %w", err)
		}
	}
	return nil
}

// Close closes the pool.
func (h *PostgresHistory) Close() error {
	h.pool.Close()
	return nil
}
