package catalog

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/Aman-CERP/hitpager/internal/errors"
)

// maxIDsPerQuery keeps IN clauses under SQLite's bound parameter limit.
const maxIDsPerQuery = 500

// DefaultBusyTimeout is how long a connection waits on a locked database.
const DefaultBusyTimeout = 5 * time.Second

const schema = `
CREATE TABLE IF NOT EXISTS records (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT '',
	body       TEXT NOT NULL DEFAULT '',
	updated_at INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_records_status ON records(status);
`

// Store is a SQLite-backed record repository. It satisfies
// transform.Repository[Record].
type Store struct {
	mu     sync.RWMutex
	db     *sql.DB
	path   string
	closed bool
}

// Options configures a Store.
type Options struct {
	// BusyTimeout is the SQLite busy timeout. Zero means DefaultBusyTimeout.
	BusyTimeout time.Duration
}

// Open opens or creates the record database at path. An empty path opens
// an in-memory database.
func Open(path string, opts Options) (*Store, error) {
	busy := opts.BusyTimeout
	if busy <= 0 {
		busy = DefaultBusyTimeout
	}

	dsn := ":memory:"
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.New(errors.ErrCodeStoreOpen,
				fmt.Sprintf("failed to create directory %s", dir), err)
		}
		dsn = path
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.New(errors.ErrCodeStoreOpen, "failed to open database", err)
	}

	// Single connection: one writer, and :memory: databases are per-connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		fmt.Sprintf("PRAGMA busy_timeout = %d", busy.Milliseconds()),
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
	}
	if path != "" {
		pragmas = append([]string{"PRAGMA journal_mode = WAL"}, pragmas...)
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, errors.New(errors.ErrCodeStoreOpen, "failed to set pragma", err).
				WithDetail("pragma", pragma)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, errors.New(errors.ErrCodeStoreOpen, "failed to initialize schema", err)
	}

	return &Store{db: db, path: path}, nil
}

// Path returns the database path, empty for in-memory stores.
func (s *Store) Path() string {
	return s.path
}

// Upsert inserts or replaces records in one transaction.
func (s *Store) Upsert(ctx context.Context, records ...Record) error {
	if len(records) == 0 {
		return nil
	}
	for _, r := range records {
		if err := r.Validate(); err != nil {
			return errors.ValidationError(err.Error(), err)
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return errStoreClosed()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO records (id, title, status, body, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			status = excluded.status,
			body = excluded.body,
			updated_at = excluded.updated_at`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, r.ID, r.Title, r.Status, r.Body, unixNano(r.UpdatedAt)); err != nil {
			return fmt.Errorf("upsert record %s: %w", r.ID, err)
		}
	}

	return tx.Commit()
}

// Delete removes the records with the given IDs. Unknown IDs are ignored.
func (s *Store) Delete(ctx context.Context, ids ...string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return errStoreClosed()
	}

	for _, chunk := range chunks(ids, maxIDsPerQuery) {
		q := "DELETE FROM records WHERE id IN (" + placeholders(len(chunk)) + ")"
		if _, err := s.db.ExecContext(ctx, q, toArgs(chunk)...); err != nil {
			return fmt.Errorf("delete records: %w", err)
		}
	}
	return nil
}

// Get returns the record with the given ID and whether it exists.
func (s *Store) Get(ctx context.Context, id string) (Record, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return Record{}, false, errStoreClosed()
	}

	row := s.db.QueryRowContext(ctx,
		"SELECT id, title, status, body, updated_at FROM records WHERE id = ?", id)
	r, err := scanRecord(row)
	if stderrors.Is(err, sql.ErrNoRows) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("get record %s: %w", id, err)
	}
	return r, true, nil
}

// FindByIDs returns the records for ids keyed by ID. Missing IDs are absent
// from the map.
func (s *Store) FindByIDs(ctx context.Context, ids []string) (map[string]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, errStoreClosed()
	}

	out := make(map[string]Record, len(ids))
	for _, chunk := range chunks(ids, maxIDsPerQuery) {
		q := "SELECT id, title, status, body, updated_at FROM records WHERE id IN (" +
			placeholders(len(chunk)) + ")"
		rows, err := s.db.QueryContext(ctx, q, toArgs(chunk)...)
		if err != nil {
			return nil, fmt.Errorf("find records: %w", err)
		}
		for rows.Next() {
			r, err := scanRecord(rows)
			if err != nil {
				_ = rows.Close()
				return nil, fmt.Errorf("scan record: %w", err)
			}
			out[r.ID] = r
		}
		if err := rows.Close(); err != nil {
			return nil, err
		}
		if err := rows.Err(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, errStoreClosed()
	}

	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM records").Scan(&n); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

// Close closes the database. It is safe to call more than once.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (Record, error) {
	var r Record
	var updated int64
	if err := sc.Scan(&r.ID, &r.Title, &r.Status, &r.Body, &updated); err != nil {
		return Record{}, err
	}
	if updated != 0 {
		r.UpdatedAt = time.Unix(0, updated).UTC()
	}
	return r, nil
}

func unixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func errStoreClosed() error {
	return errors.New(errors.ErrCodeStoreOpen, "record store is closed", nil)
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func toArgs(ids []string) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

func chunks(ids []string, size int) [][]string {
	var out [][]string
	for len(ids) > size {
		out = append(out, ids[:size])
		ids = ids[size:]
	}
	if len(ids) > 0 {
		out = append(out, ids)
	}
	return out
}
