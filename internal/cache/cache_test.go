package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseStore(t *testing.T, s Store) {
	ctx := context.Background()
	const url = "https://www.scribd.com/document/123/x"

	_, ok, err := s.Get(ctx, url)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Save(ctx, url, "/out/first.pdf", "First"))
	rec, ok, err := s.Get(ctx, url)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, url, rec.URL)
	assert.Equal(t, "/out/first.pdf", rec.FilePath)
	assert.Equal(t, "First", rec.Title)
	assert.False(t, rec.CreatedAt.IsZero())

	require.NoError(t, s.Save(ctx, url, "/out/second.pdf", "Second"))
	rec, ok, err = s.Get(ctx, url)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "/out/second.pdf", rec.FilePath)
	assert.Equal(t, "Second", rec.Title)

	_, ok, err = s.Get(ctx, "https://www.scribd.com/document/456/y")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteRoundTrip(t *testing.T) {
	s, err := Open(context.Background(), DriverSQLite, filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer s.Close()

	exerciseStore(t, s)
}

func TestSQLiteSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.db")

	s, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, "u", "/out/a.pdf", ""))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer s.Close()
	rec, ok, err := s.Get(ctx, "u")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "/out/a.pdf", rec.FilePath)
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "mongo", "")
	assert.Error(t, err)
}

func TestPostgresRoundTrip(t *testing.T) {
	dsn := os.Getenv("GRABDOC_TEST_POSTGRES")
	if dsn == "" {
		t.Skip("GRABDOC_TEST_POSTGRES not set")
	}
	ctx := context.Background()
	s, err := OpenPostgres(ctx, dsn)
	require.NoError(t, err)
	defer s.Close()
	_, err = s.Pool.Exec(ctx, `DELETE FROM history`)
	require.NoError(t, err)

	exerciseStore(t, s)
}
