package database

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap/zaptest"

	"github.com/kimo123-321/autoglow-backend/internal/config"
)

func sqliteConfig(t *testing.T, poolSize int) config.Database {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pool.db")
	return config.Database{
		Driver:   "sqlite",
		DSN:      fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path),
		PoolSize: poolSize,
	}
}

func openTestPool(t *testing.T, cfg config.Database) *Pool {
	t.Helper()
	db, err := Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPool(db, cfg, zaptest.NewLogger(t))
}

func TestPoolAcquireRelease(t *testing.T) {
	pool := openTestPool(t, sqliteConfig(t, 2))
	ctx := context.Background()

	first, err := pool.Acquire(ctx)
	require.NoError(t, err)
	second, err := pool.Acquire(ctx)
	require.NoError(t, err)

	assert.Equal(t, PoolStats{Size: 2, InUse: 2}, pool.Stats())

	first.Release()
	first.Release()
	second.Release()

	assert.Equal(t, PoolStats{Size: 2}, pool.Stats())
}

func TestPoolAcquireWaitsForRelease(t *testing.T) {
	pool := openTestPool(t, sqliteConfig(t, 1))
	ctx := context.Background()

	held, err := pool.Acquire(ctx)
	require.NoError(t, err)

	acquired := make(chan *Lease, 1)
	go func() {
		lease, err := pool.Acquire(ctx)
		if err == nil {
			acquired <- lease
		}
		close(acquired)
	}()

	require.Eventually(t, func() bool { return pool.Stats().Waiting == 1 }, time.Second, 5*time.Millisecond)

	select {
	case <-acquired:
		t.Fatal("acquire returned while pool was full")
	case <-time.After(50 * time.Millisecond):
	}

	held.Release()

	select {
	case lease, ok := <-acquired:
		require.True(t, ok, "waiter failed to acquire")
		lease.Release()
	case <-time.After(2 * time.Second):
		t.Fatal("waiter never acquired a connection")
	}

	assert.Equal(t, PoolStats{Size: 1}, pool.Stats())
}

func TestPoolAcquireTimeout(t *testing.T) {
	cfg := sqliteConfig(t, 1)
	cfg.AcquireTimeout = 20 * time.Millisecond
	pool := openTestPool(t, cfg)

	held, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	defer held.Release()

	_, err = pool.Acquire(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPoolExhausted)
	assert.True(t, IsConnectivity(err))
	assert.Equal(t, 0, pool.Stats().Waiting)
}

func TestPoolQueueLimit(t *testing.T) {
	cfg := sqliteConfig(t, 1)
	cfg.QueueLimit = 1
	pool := openTestPool(t, cfg)

	held, err := pool.Acquire(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if lease, err := pool.Acquire(ctx); err == nil {
			lease.Release()
		}
	}()
	require.Eventually(t, func() bool { return pool.Stats().Waiting == 1 }, time.Second, 5*time.Millisecond)

	_, err = pool.Acquire(context.Background())
	assert.ErrorIs(t, err, ErrPoolExhausted)

	held.Release()
	wg.Wait()
	assert.Equal(t, PoolStats{Size: 1}, pool.Stats())
}

func TestPoolAcquireHonoursCallerCancel(t *testing.T) {
	pool := openTestPool(t, sqliteConfig(t, 1))

	held, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	defer held.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = pool.Acquire(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrPoolExhausted)
}

func TestPoolAcquireCancelledWithFreeSlot(t *testing.T) {
	pool := openTestPool(t, sqliteConfig(t, 1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := pool.Acquire(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, IsConnectivity(err))
	assert.Equal(t, PoolStats{Size: 1}, pool.Stats())
}

func TestPoolCheckDoesNotWait(t *testing.T) {
	pool := openTestPool(t, sqliteConfig(t, 1))
	ctx := context.Background()

	require.NoError(t, pool.Check(ctx))
	assert.Equal(t, 0, pool.Stats().InUse)

	held, err := pool.Acquire(ctx)
	require.NoError(t, err)
	defer held.Release()

	start := time.Now()
	assert.ErrorIs(t, pool.Check(ctx), ErrPoolBusy)
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, 1, pool.Stats().InUse)
}

func TestWithConnReleasesOnError(t *testing.T) {
	pool := openTestPool(t, sqliteConfig(t, 1))
	boom := errors.New("boom")

	err := pool.WithConn(context.Background(), func(ctx context.Context, conn bun.Conn) error {
		assert.Equal(t, 1, pool.Stats().InUse)
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, pool.Stats().InUse)

	assert.Panics(t, func() {
		_ = pool.WithConn(context.Background(), func(ctx context.Context, conn bun.Conn) error {
			panic("handler blew up")
		})
	})
	assert.Equal(t, 0, pool.Stats().InUse)
}

func TestProvidePoolStartsWhenStoreUnreachable(t *testing.T) {
	cfg := config.Config{Database: config.Database{
		Driver:   "sqlite",
		DSN:      "file:" + filepath.Join(t.TempDir(), "missing", "nested", "x.db") + "?mode=ro",
		PoolSize: 1,
	}}
	db, err := Open(cfg.Database)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	lc := fxtest.NewLifecycle(t)
	pool, err := ProvidePool(lc, db, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)

	lc.RequireStart()
	assert.Equal(t, 0, pool.Stats().InUse)
	err = pool.Verify(context.Background())
	assert.True(t, IsConnectivity(err), "got %v", err)
	lc.RequireStop()
}

func TestProvidePoolVerifiesOnStart(t *testing.T) {
	cfg := config.Config{Database: sqliteConfig(t, 2)}
	db, err := Open(cfg.Database)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	lc := fxtest.NewLifecycle(t)
	pool, err := ProvidePool(lc, db, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)

	lc.RequireStart()
	assert.NoError(t, pool.Verify(context.Background()))
	assert.Equal(t, PoolStats{Size: 2}, pool.Stats())
	lc.RequireStop()
}

func TestSelectDialect(t *testing.T) {
	for _, driver := range []string{"mysql", "postgres", "sqlite"} {
		_, err := selectDialect(driver)
		assert.NoError(t, err, driver)
	}
	_, err := selectDialect("oracle")
	assert.Error(t, err)
}

func TestMySQLConfigRequiresVerifiedTLS(t *testing.T) {
	mc := mysqlConfig(config.Database{
		Host: "gateway.example.com", Port: 4000, User: "u", Password: "p", Name: "shop", TLS: true,
	})
	assert.Equal(t, "gateway.example.com:4000", mc.Addr)
	require.NotNil(t, mc.TLS)
	assert.False(t, mc.TLS.InsecureSkipVerify)
	assert.Equal(t, "gateway.example.com", mc.TLS.ServerName)
	assert.True(t, mc.ParseTime)

	plain := mysqlConfig(config.Database{Host: "localhost", Port: 3306})
	assert.Nil(t, plain.TLS)
}
