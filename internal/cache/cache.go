// Package cache remembers which artifact each source URL produced so a
// repeated request can be answered without re-running the extraction.
package cache

import (
	"context"
	"fmt"
	"time"
)

// Record is one completed extraction.
type Record struct {
	URL       string
	FilePath  string
	Title     string
	CreatedAt time.Time
}

// Store is a URL keyed record store. Save replaces any previous record for
// the same URL. Records never expire; callers check the file still exists.
type Store interface {
	Get(ctx context.Context, url string) (Record, bool, error)
	Save(ctx context.Context, url, path, title string) error
	Close() error
}

// Driver names accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Open connects to the store selected by driver and creates the schema if
// it does not exist yet.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case DriverSQLite, "":
		return OpenSQLite(ctx, dsn)
	case DriverPostgres:
		return OpenPostgres(ctx, dsn)
	default:
		return nil, fmt.Errorf("unknown cache driver %q", driver)
	}
}
