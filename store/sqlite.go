package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ZaguanLabs/lexicache"

	_ "modernc.org/sqlite"
)

// DefaultPath is the database file used when no path is configured.
const DefaultPath = "dictionary_cache.db"

const schema = `
CREATE TABLE IF NOT EXISTS history (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  source TEXT,
  target TEXT,
  from_lang TEXT,
  to_lang TEXT,
  example TEXT,
  created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_history_key ON history(source, from_lang, to_lang, id);
`

const selectColumns = `SELECT id, source, target, from_lang, to_lang, example, created_at FROM history`

// SQLiteStore is a Record Store backed by a SQLite file.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex // serializes writes
}

// OpenSQLite opens (creating if needed) the database at path and ensures the
// schema exists.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path == "" {
		path = DefaultPath
	}

	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, unavailable("open", fmt.Errorf("create db dir: %w", err))
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, unavailable("open", err)
	}
	db.SetMaxOpenConns(1)

	if err := applyPragmas(db); err != nil {
		_ = db.Close()
		return nil, unavailable("open", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.Init(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA busy_timeout = 30000;",
		"PRAGMA synchronous = NORMAL;",
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("apply pragma %q: %w", stmt, err)
		}
	}
	return nil
}

// Init creates the history table if it does not exist.
func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return unavailable("init", err)
	}
	return nil
}

// Insert appends a record and returns its id.
func (s *SQLiteStore) Insert(ctx context.Context, r Record) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		res sql.Result
		err error
	)
	if r.CreatedAt.IsZero() {
		res, err = s.db.ExecContext(ctx,
			`INSERT INTO history (source, target, from_lang, to_lang, example) VALUES (?, ?, ?, ?, ?)`,
			r.Source, r.Target, r.FromLang, r.ToLang, r.Example)
	} else {
		res, err = s.db.ExecContext(ctx,
			`INSERT INTO history (source, target, from_lang, to_lang, example, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
			r.Source, r.Target, r.FromLang, r.ToLang, r.Example, r.CreatedAt.UTC().Format(lexicache.TimestampLayout))
	}
	if err != nil {
		return 0, writeFailed("insert", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, writeFailed("insert", err)
	}
	return id, nil
}

// FindLatest returns the newest record for the key.
func (s *SQLiteStore) FindLatest(ctx context.Context, source, fromLang, toLang string) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		selectColumns+` WHERE source = ? AND from_lang = ? AND to_lang = ? ORDER BY id DESC LIMIT 1`,
		source, fromLang, toLang)

	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("find")
	}
	if err != nil {
		return nil, unavailable("find", err)
	}
	return r, nil
}

// ListAll returns every record ordered by id.
func (s *SQLiteStore) ListAll(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+` ORDER BY id ASC`)
	if err != nil {
		return nil, unavailable("list", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, unavailable("list", err)
		}
		records = append(records, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list", err)
	}
	return records, nil
}

// DeleteByIDs deletes each id inside a single transaction. A failing id does
// not stop the others.
func (s *SQLiteStore) DeleteByIDs(ctx context.Context, ids []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable("delete", err)
	}

	failed := make(map[int64]error)
	for _, id := range uniqueIDs(ids) {
		res, err := tx.ExecContext(ctx, `DELETE FROM history WHERE id = ?`, id)
		if err != nil {
			failed[id] = writeFailed("delete", err)
			continue
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			failed[id] = lexicache.ErrNotFound
		}
	}

	if err := tx.Commit(); err != nil {
		_ = tx.Rollback()
		return writeFailed("delete", err)
	}

	if len(failed) > 0 {
		return &lexicache.DeleteError{Failed: failed}
	}
	return nil
}

// DeleteAll removes every record. The AUTOINCREMENT sequence is kept, so ids
// are not reused.
func (s *SQLiteStore) DeleteAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM history`); err != nil {
		return writeFailed("clear", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var (
		r                                 Record
		source, target, from, to, example sql.NullString
		createdAt                         any
	)
	if err := row.Scan(&r.ID, &source, &target, &from, &to, &example, &createdAt); err != nil {
		return nil, err
	}

	r.Source = source.String
	r.Target = target.String
	r.FromLang = from.String
	r.ToLang = to.String
	r.Example = example.String
	r.CreatedAt = toTime(createdAt)

	return &r, nil
}

// toTime converts a created_at column value. The driver may hand back a
// time.Time or the raw text depending on how the row was written.
func toTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t.UTC()
	case string:
		if parsed, ok := parseTimestamp(t); ok {
			return parsed
		}
	case []byte:
		if parsed, ok := parseTimestamp(string(t)); ok {
			return parsed
		}
	}
	return time.Time{}
}
