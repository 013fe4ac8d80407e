// Package database opens the PostgreSQL pool behind the cart store and
// applies its schema migrations.
package database

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/config"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// PoolLimits bounds the connection pool.
type PoolLimits struct {
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// LimitsFrom converts the configured limits.
func LimitsFrom(cfg config.DatabaseConfig) PoolLimits {
	return PoolLimits{
		MaxConns:        int32(cfg.MaxConnections),
		MinConns:        int32(cfg.MinConnections),
		MaxConnLifetime: time.Duration(cfg.MaxConnLifetime) * time.Second,
		MaxConnIdleTime: 30 * time.Minute,
	}
}

// NewPool opens the pool described by cfg.
func NewPool(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (*pgxpool.Pool, error) {
	logger.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("database", cfg.Database).
		Int("max_connections", cfg.MaxConnections).
		Msg("opening cart store database")

	return Open(ctx, cfg.ConnectionString(), LimitsFrom(cfg), logger)
}

// Open creates a pool for connString and pings it.
func Open(ctx context.Context, connString string, limits PoolLimits, logger zerolog.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	if limits.MaxConns > 0 {
		poolConfig.MaxConns = limits.MaxConns
	}
	poolConfig.MinConns = limits.MinConns
	if limits.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = limits.MaxConnLifetime
	}
	if limits.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = limits.MaxConnIdleTime
	}
	poolConfig.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Debug().Int32("max_conns", poolConfig.MaxConns).Msg("database pool ready")
	return pool, nil
}
