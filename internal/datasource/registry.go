package datasource

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // registers the "postgres" database/sql driver

	"github.com/jnst/layered-crud-template/internal/config"
)

const primaryDriver = "pgx"

// ErrNotConfigured is returned when a logical database has no connection URL.
var ErrNotConfigured = errors.New("database URL is not configured")

// Registry owns the connection pools of every logical database.
type Registry struct {
	primary   *pgxpool.Pool
	analytics map[Name]*sqlx.DB
}

// NewRegistry wraps already opened pools.
func NewRegistry(primary *pgxpool.Pool, analytics map[Name]*sqlx.DB) *Registry {
	if analytics == nil {
		analytics = make(map[Name]*sqlx.DB)
	}

	return &Registry{primary: primary, analytics: analytics}
}

// Open connects every logical database described by cfg. Pools are sized
// independently; a failure closes whatever was already opened.
func Open(ctx context.Context, cfg *config.Config) (*Registry, error) {
	primary, err := openPrimary(ctx, cfg.Primary)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", Primary, err)
	}

	reg := NewRegistry(primary, nil)

	for name, dsCfg := range map[Name]config.DataSourceConfig{GPDB1: cfg.GPDB1, GPDB2: cfg.GPDB2} {
		db, err := openAnalytics(ctx, dsCfg)
		if err != nil {
			reg.Close()
			return nil, fmt.Errorf("%s: %w", name, err)
		}

		reg.analytics[name] = db
	}

	for _, name := range Names() {
		slog.Info("datasource ready", slog.String("database", name.String()))
	}

	return reg, nil
}

// Primary returns the pool of the default database.
func (r *Registry) Primary() *pgxpool.Pool {
	return r.primary
}

// Analytics returns the pool of a GPDB.
func (r *Registry) Analytics(name Name) (*sqlx.DB, error) {
	db, ok := r.analytics[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s has no analytics pool", ErrUnknownDatabase, name)
	}

	return db, nil
}

// Ping checks every configured database and returns the failures by name.
func (r *Registry) Ping(ctx context.Context) map[Name]error {
	failures := make(map[Name]error)

	if r.primary != nil {
		if err := r.primary.Ping(ctx); err != nil {
			failures[Primary] = err
		}
	}

	for name, db := range r.analytics {
		if err := db.PingContext(ctx); err != nil {
			failures[name] = err
		}
	}

	return failures
}

// Close releases every pool.
func (r *Registry) Close() {
	if r.primary != nil {
		r.primary.Close()
	}

	for name, db := range r.analytics {
		if err := db.Close(); err != nil {
			slog.Error("failed to close datasource",
				slog.String("database", name.String()),
				slog.String("error", err.Error()),
			)
		}
	}
}

func openPrimary(ctx context.Context, cfg config.DataSourceConfig) (*pgxpool.Pool, error) {
	if cfg.Driver != "" && cfg.Driver != primaryDriver {
		return nil, fmt.Errorf("unsupported driver %q for primary database", cfg.Driver)
	}

	dsn, err := connectionURL(cfg)
	if err != nil {
		return nil, err
	}

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection URL: %w", err)
	}

	poolCfg.MaxConns = int32(cfg.MaxConns)
	poolCfg.MinConns = int32(cfg.MinConns)
	poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping: %w", err)
	}

	return pool, nil
}

func openAnalytics(ctx context.Context, cfg config.DataSourceConfig) (*sqlx.DB, error) {
	dsn, err := connectionURL(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConns)
	db.SetMaxIdleConns(cfg.MinConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping: %w", err)
	}

	return db, nil
}

// connectionURL applies explicit credentials on top of the configured URL.
func connectionURL(cfg config.DataSourceConfig) (string, error) {
	if cfg.URL == "" {
		return "", ErrNotConfigured
	}

	if cfg.Username == "" {
		return cfg.URL, nil
	}

	u, err := url.Parse(cfg.URL)
	if err != nil {
		return "", fmt.Errorf("failed to parse connection URL: %w", err)
	}

	u.User = url.UserPassword(cfg.Username, cfg.Password)

	return u.String(), nil
}
