package pg

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PoolOptions mirrors the DB_POOL_* env vars. Duration fields are duration
// strings so unset values fall through to pgxpool defaults.
type PoolOptions struct {
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   string
	MaxConnIdleTime   string
	HealthCheckPeriod string
}

func NewPool(ctx context.Context, dsn string, opts PoolOptions) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}

	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}
	if opts.MinConns >= 0 {
		cfg.MinConns = opts.MinConns
	}

	durs := []struct {
		raw  string
		name string
		dst  *time.Duration
	}{
		{opts.MaxConnLifetime, "DB_POOL_MAX_CONN_LIFETIME", &cfg.MaxConnLifetime},
		{opts.MaxConnIdleTime, "DB_POOL_MAX_CONN_IDLE_TIME", &cfg.MaxConnIdleTime},
		{opts.HealthCheckPeriod, "DB_POOL_HEALTH_CHECK_PERIOD", &cfg.HealthCheckPeriod},
	}
	for _, d := range durs {
		if d.raw == "" {
			continue
		}
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", d.name, err)
		}
		*d.dst = v
	}

	return pgxpool.NewWithConfig(ctx, cfg)
}
