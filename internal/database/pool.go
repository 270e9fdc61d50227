package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/kimo123-321/autoglow-backend/internal/config"
)

const verifyTimeout = 5 * time.Second

var poolMeter = otel.Meter("github.com/kimo123-321/autoglow-backend/database")

var (
	// ErrPoolExhausted is returned when no connection frees up within the
	// acquire timeout or the wait queue is full.
	ErrPoolExhausted = errors.New("connection pool exhausted")
	// ErrUnavailable wraps failures to open a connection to the data store.
	ErrUnavailable = errors.New("database unavailable")
	// ErrPoolBusy is returned by Check when every connection is leased.
	ErrPoolBusy = errors.New("connection pool busy")
)

// IsConnectivity reports whether err came from acquiring a connection rather
// than from a statement run on one.
func IsConnectivity(err error) bool {
	return errors.Is(err, ErrPoolExhausted) || errors.Is(err, ErrUnavailable)
}

// PoolStats is a point-in-time view of pool usage.
type PoolStats struct {
	Size    int `json:"size"`
	InUse   int `json:"in_use"`
	Waiting int `json:"waiting"`
}

// Pool leases at most Size connections at a time. Callers over the cap wait,
// optionally bounded by an acquire timeout and a queue limit.
type Pool struct {
	db             *bun.DB
	sem            *semaphore.Weighted
	size           int64
	queueLimit     int64
	acquireTimeout time.Duration
	inUse          atomic.Int64
	waiting        atomic.Int64
	logger         *zap.Logger
}

// NewPool wraps db with a lease cap taken from cfg.
func NewPool(db *bun.DB, cfg config.Database, logger *zap.Logger) *Pool {
	size := int64(cfg.PoolSize)
	if size <= 0 {
		size = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pool{
		db:             db,
		sem:            semaphore.NewWeighted(size),
		size:           size,
		queueLimit:     int64(cfg.QueueLimit),
		acquireTimeout: cfg.AcquireTimeout,
		logger:         logger,
	}
}

// ProvidePool builds the process-wide pool and test-acquires a connection on
// start. A failed check is logged; the process still starts.
func ProvidePool(lc fx.Lifecycle, db *bun.DB, cfg config.Config, logger *zap.Logger) (*Pool, error) {
	pool := NewPool(db, cfg.Database, logger)
	if err := pool.registerMetrics(); err != nil {
		return nil, fmt.Errorf("register pool metrics: %w", err)
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := pool.Verify(ctx); err != nil {
				logger.Error("database connectivity check failed; requests will fail until it recovers",
					zap.String("driver", cfg.Database.Driver),
					zap.Error(err),
				)
				return nil
			}
			logger.Info("database connected",
				zap.String("driver", cfg.Database.Driver),
				zap.Int("pool_size", cfg.Database.PoolSize),
			)
			return nil
		},
	})

	return pool, nil
}

// Verify acquires one connection, pings it and releases it.
func (p *Pool) Verify(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, verifyTimeout)
	defer cancel()

	return p.WithConn(ctx, func(ctx context.Context, conn bun.Conn) error {
		return conn.PingContext(ctx)
	})
}

// Check pings the store on a free connection without waiting for one. With
// every connection leased it returns ErrPoolBusy and the store is not checked.
func (p *Pool) Check(ctx context.Context) error {
	if !p.sem.TryAcquire(1) {
		return ErrPoolBusy
	}

	ctx, cancel := context.WithTimeout(ctx, verifyTimeout)
	defer cancel()

	lease, err := p.open(ctx)
	if err != nil {
		return err
	}
	defer lease.Release()

	return lease.conn.PingContext(ctx)
}

// Acquire leases a connection exclusively to the caller. The lease must be
// released exactly once; extra Release calls are ignored.
func (p *Pool) Acquire(ctx context.Context) (*Lease, error) {
	if !p.sem.TryAcquire(1) {
		if err := p.wait(ctx); err != nil {
			return nil, err
		}
	}
	return p.open(ctx)
}

// open takes a connection for a semaphore slot the caller already holds. The
// slot is given back on failure. A caller's own cancellation is returned as
// is, the same as when it happens while waiting for a slot.
func (p *Pool) open(ctx context.Context) (*Lease, error) {
	conn, err := p.db.Conn(ctx)
	if err != nil {
		p.sem.Release(1)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	p.inUse.Add(1)
	return &Lease{conn: conn, pool: p}, nil
}

func (p *Pool) wait(ctx context.Context) error {
	if n := p.waiting.Add(1); p.queueLimit > 0 && n > p.queueLimit {
		p.waiting.Add(-1)
		return fmt.Errorf("%w: %d callers already waiting", ErrPoolExhausted, p.queueLimit)
	}
	defer p.waiting.Add(-1)

	if p.acquireTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.acquireTimeout)
		defer cancel()
	}

	if err := p.sem.Acquire(ctx, 1); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %w", ErrPoolExhausted, err)
		}
		return err
	}
	return nil
}

// WithConn runs fn on a leased connection and always releases it, including
// when fn fails or panics.
func (p *Pool) WithConn(ctx context.Context, fn func(ctx context.Context, conn bun.Conn) error) error {
	lease, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	defer lease.Release()

	return fn(ctx, lease.Conn())
}

// Stats reports current usage.
func (p *Pool) Stats() PoolStats {
	return PoolStats{
		Size:    int(p.size),
		InUse:   int(p.inUse.Load()),
		Waiting: int(p.waiting.Load()),
	}
}

func (p *Pool) registerMetrics() error {
	inUse, err := poolMeter.Int64ObservableGauge("db.pool.connections.in_use",
		metric.WithDescription("Connections currently leased from the pool"))
	if err != nil {
		return err
	}
	waiting, err := poolMeter.Int64ObservableGauge("db.pool.connections.waiting",
		metric.WithDescription("Callers waiting for a pooled connection"))
	if err != nil {
		return err
	}
	_, err = poolMeter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := p.Stats()
		o.ObserveInt64(inUse, int64(stats.InUse))
		o.ObserveInt64(waiting, int64(stats.Waiting))
		return nil
	}, inUse, waiting)
	return err
}

// Lease is a connection borrowed from a Pool.
type Lease struct {
	conn bun.Conn
	pool *Pool
	once sync.Once
}

// Conn returns the leased connection.
func (l *Lease) Conn() bun.Conn {
	return l.conn
}

// Release hands the connection back to the pool.
func (l *Lease) Release() {
	l.once.Do(func() {
		if err := l.conn.Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
			l.pool.logger.Warn("close pooled connection", zap.Error(err))
		}
		l.pool.inUse.Add(-1)
		l.pool.sem.Release(1)
	})
}
