package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS history (
	url TEXT PRIMARY KEY,
	file_path TEXT,
	title TEXT,
	created_at INTEGER
)`

// SQLite stores records in a single local database file.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	if path == "" {
		path = "history.db"
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	// One writer at a time; avoids SQLITE_BUSY between the job and readers.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create cache table: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Get(ctx context.Context, url string) (Record, bool, error) {
	var (
		rec     Record
		path    sql.NullString
		title   sql.NullString
		created sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT url, file_path, title, created_at FROM history WHERE url = ?`, url,
	).Scan(&rec.URL, &path, &title, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("failed to read cache record: %w", err)
	}
	rec.FilePath = path.String
	rec.Title = title.String
	rec.CreatedAt = time.UnixMilli(created.Int64)
	return rec, true, nil
}

func (s *SQLite) Save(ctx context.Context, url, path, title string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO history (url, file_path, title, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(url)
		DO UPDATE SET file_path = excluded.file_path, title = excluded.title, created_at = excluded.created_at`,
		url, path, title, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to save cache record: %w", err)
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
