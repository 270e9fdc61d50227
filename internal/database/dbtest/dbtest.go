// Package dbtest opens migrated SQLite stores for tests.
package dbtest

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"go.uber.org/zap/zaptest"

	"github.com/kimo123-321/autoglow-backend/internal/config"
	"github.com/kimo123-321/autoglow-backend/internal/database"
	"github.com/kimo123-321/autoglow-backend/internal/migration"
)

// Store is a migrated database plus the pool handed to components.
type Store struct {
	DB   *bun.DB
	Pool *database.Pool
}

// Config returns a sqlite database config backed by a file in t.TempDir().
// Transactions take the write lock up front so concurrent writers queue on
// busy_timeout instead of failing.
func Config(t testing.TB, poolSize int) config.Database {
	t.Helper()
	path := filepath.Join(t.TempDir(), "autoglow.db")
	return config.Database{
		Driver: "sqlite",
		DSN: fmt.Sprintf(
			"file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(10000)&_txlock=immediate",
			path,
		),
		PoolSize: poolSize,
	}
}

// New opens and migrates a fresh store with the given pool size.
func New(t testing.TB, poolSize int) *Store {
	t.Helper()

	cfg := Config(t, poolSize)
	db, err := database.Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	logger := zaptest.NewLogger(t)
	mig, err := migration.New(config.Config{Database: cfg}, db, logger)
	require.NoError(t, err)
	require.NoError(t, mig.Up(context.Background()))

	return &Store{DB: db, Pool: database.NewPool(db, cfg, logger)}
}

// Count returns the number of rows in table.
func (s *Store) Count(t testing.TB, table string) int {
	t.Helper()
	n, err := s.DB.NewSelect().Table(table).Count(context.Background())
	require.NoError(t, err)
	return n
}
