package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS history (
	url TEXT PRIMARY KEY,
	file_path TEXT NOT NULL,
	title TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
)`

// Postgres stores records in a shared PostgreSQL database.
type Postgres struct {
	Pool *pgxpool.Pool
}

func OpenPostgres(ctx context.Context, connString string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create cache table: %w", err)
	}
	return &Postgres{Pool: pool}, nil
}

func (p *Postgres) Get(ctx context.Context, url string) (Record, bool, error) {
	var rec Record
	err := p.Pool.QueryRow(ctx,
		`SELECT url, file_path, title, created_at FROM history WHERE url = $1`, url,
	).Scan(&rec.URL, &rec.FilePath, &rec.Title, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("failed to read cache record: %w", err)
	}
	return rec, true, nil
}

func (p *Postgres) Save(ctx context.Context, url, path, title string) error {
	_, err := p.Pool.Exec(ctx, `
		INSERT INTO history (url, file_path, title, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (url)
		DO UPDATE SET file_path = EXCLUDED.file_path, title = EXCLUDED.title, created_at = EXCLUDED.created_at`,
		url, path, title, time.Now())
	if err != nil {
		return fmt.Errorf("failed to save cache record: %w", err)
	}
	return nil
}

func (p *Postgres) Close() error {
	p.Pool.Close()
	return nil
}
