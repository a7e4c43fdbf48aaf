// Package postgres implements the persistence ports against PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	"github.com/moises-herrera/quick-reviewer-backend-sub000/internal/config"
)

// Store wraps a pgx pool and configuration. It implements every persistence
// port the usecases declare.
type Store struct {
	baseCtx context.Context
	log     *zap.SugaredLogger
	db      *pgxpool.Pool
	cfg     config.PostgresConfig
}

// New creates a Store instance. OnStart must run before any query method.
func New(ctx context.Context, log *zap.SugaredLogger, cfg config.PostgresConfig) *Store {
	return &Store{
		baseCtx: ctx,
		log:     log.Named("store.postgres"),
		cfg:     cfg,
	}
}

// OnStart establishes the connection pool and applies migrations.
func (s *Store) OnStart(_ context.Context) error {
	poolCfg, err := pgxpool.ParseConfig(s.cfg.DSN())
	if err != nil {
		return fmt.Errorf("parse pool config: %w", err)
	}
	poolCfg.MaxConns = s.cfg.MaxConns
	poolCfg.MinConns = s.cfg.MinConns

	connectCtx, cancelConnect := context.WithTimeout(s.baseCtx, s.cfg.QueryTimeout)
	defer cancelConnect()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolCfg)
	if err != nil {
		return fmt.Errorf("open pool: %w", err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		return fmt.Errorf("ping pool: %w", err)
	}

	sqlDB, err := sql.Open("postgres", s.cfg.DSN())
	if err != nil {
		return fmt.Errorf("open sql: %w", err)
	}
	defer func() { _ = sqlDB.Close() }()

	migrateCtx, cancelMigrate := context.WithTimeout(s.baseCtx, s.cfg.MigrateTimeout)
	defer cancelMigrate()

	if err := goose.UpContext(migrateCtx, sqlDB, s.cfg.MigrationsDir); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if _, err := goose.EnsureDBVersion(sqlDB); err != nil {
		return fmt.Errorf("migrate version: %w", err)
	}

	s.db = pool
	s.log.Infow("postgres ready", "host", s.cfg.Host, "port", s.cfg.Port)
	return nil
}

// OnStop closes pool connections.
func (s *Store) OnStop(_ context.Context) error {
	if s.db != nil {
		s.db.Close()
	}
	return nil
}
