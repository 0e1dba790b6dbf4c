// ABOUTME: SQLite-backed local history of natural-language queries
// ABOUTME: Keeps past questions and answers recallable offline, mirroring the backend's query records

package querylog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested query entry does not exist
var ErrNotFound = errors.New("query entry not found")

// Entry is one recorded natural-language query and its answer.
type Entry struct {
	ID            string
	Query         string
	Response      string
	ExecutionTime float64
	CreatedAt     time.Time
}

// Store persists query history in a local SQLite database.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates a query log store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func New(path string) (*Store, error) {
	logger := slog.Default().With("component", "querylog")

	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &Store{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Debug("query log initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *Store) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS queries (
			id TEXT PRIMARY KEY,
			query_text TEXT NOT NULL,
			response TEXT NOT NULL,
			execution_time REAL NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_queries_created_at
			ON queries(created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Save records a query and its answer. Implements the controller's
// QueryRecorder interface.
func (s *Store) Save(ctx context.Context, query, response string, executionTime float64) error {
	entry := &Entry{
		ID:            uuid.New().String(),
		Query:         query,
		Response:      response,
		ExecutionTime: executionTime,
		CreatedAt:     time.Now(),
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO queries (id, query_text, response, execution_time, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		entry.ID, entry.Query, entry.Response, entry.ExecutionTime, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("saving query: %w", err)
	}

	s.logger.Debug("query recorded", "id", entry.ID)
	return nil
}

// Recent returns the most recent entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]*Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, query_text, response, execution_time, created_at
		 FROM queries
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing queries: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Query, &e.Response, &e.ExecutionTime, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning query row: %w", err)
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// Get returns a single entry by id.
func (s *Store) Get(ctx context.Context, id string) (*Entry, error) {
	var e Entry
	err := s.db.QueryRowContext(ctx,
		`SELECT id, query_text, response, execution_time, created_at
		 FROM queries WHERE id = ?`,
		id,
	).Scan(&e.ID, &e.Query, &e.Response, &e.ExecutionTime, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting query: %w", err)
	}
	return &e, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
