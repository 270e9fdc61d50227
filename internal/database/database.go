package database

import (
	"context"
	"crypto/tls"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/schema"
	"go.uber.org/fx"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/kimo123-321/autoglow-backend/internal/config"
)

// Module registers the bun handle and the connection pool with Fx.
var Module = fx.Provide(New, ProvidePool)

// New opens the configured data store. The handle is closed on Fx stop;
// connectivity is checked by the pool, not here.
func New(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (*bun.DB, error) {
	db, err := Open(cfg.Database)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			logger.Info("closing database")
			if err := db.Close(); err != nil {
				return fmt.Errorf("close database: %w", err)
			}
			return nil
		},
	})

	return db, nil
}

// Open builds a bun handle for the configured driver with pool limits applied.
func Open(cfg config.Database) (*bun.DB, error) {
	dial, err := selectDialect(cfg.Driver)
	if err != nil {
		return nil, err
	}

	sqlDB, err := openSQLDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}
	applyPoolSettings(sqlDB, cfg)

	return bun.NewDB(sqlDB, dial), nil
}

func selectDialect(driver string) (schema.Dialect, error) {
	switch driver {
	case "postgres":
		return pgdialect.New(), nil
	case "mysql":
		return mysqldialect.New(), nil
	case "sqlite":
		return sqlitedialect.New(), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
}

func openSQLDB(cfg config.Database) (*sql.DB, error) {
	switch cfg.Driver {
	case "postgres":
		if cfg.DSN == "" {
			return nil, errors.New("empty DSN")
		}
		connector := pgdriver.NewConnector(pgdriver.WithDSN(cfg.DSN))
		return sql.OpenDB(connector), nil
	case "mysql":
		if cfg.DSN != "" {
			return sql.Open("mysql", cfg.DSN)
		}
		connector, err := mysql.NewConnector(mysqlConfig(cfg))
		if err != nil {
			return nil, err
		}
		return sql.OpenDB(connector), nil
	case "sqlite":
		if cfg.DSN == "" {
			return nil, errors.New("empty DSN")
		}
		return sql.Open("sqlite", cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", cfg.Driver)
	}
}

// mysqlConfig builds the driver config from discrete settings. TLS always
// verifies the server certificate against the configured host.
func mysqlConfig(cfg config.Database) *mysql.Config {
	mc := mysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	mc.DBName = cfg.Name
	mc.ParseTime = true
	mc.Loc = time.UTC
	if cfg.TLS {
		mc.TLS = &tls.Config{
			ServerName: cfg.Host,
			MinVersion: tls.VersionTLS12,
		}
	}
	return mc
}

func applyPoolSettings(db *sql.DB, cfg config.Database) {
	if cfg.PoolSize > 0 {
		db.SetMaxOpenConns(cfg.PoolSize)
		db.SetMaxIdleConns(cfg.PoolSize)
	}
	if cfg.MaxConnLifetime > 0 {
		db.SetConnMaxLifetime(cfg.MaxConnLifetime)
	}
}
