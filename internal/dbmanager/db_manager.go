package dbmanager

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AnitBishwas/swiss-event-handler/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type DBManager struct {
	log         *slog.Logger
	Pool        *pgxpool.Pool
	dsn         string
	IsConnected bool
}

func New(dsn string, log *slog.Logger) *DBManager {
	return &DBManager{
		log:         log,
		Pool:        nil,
		IsConnected: false,
		dsn:         dsn,
	}
}

func (m *DBManager) Connect(ctx context.Context) *DBManager {
	cfg, err := pgxpool.ParseConfig(m.dsn)
	if err != nil {
		m.log.LogAttrs(ctx,
			slog.LevelError,
			"failed to parse DSN",
			slog.Any(model.KeyLoggerError, err),
		)

		return m
	}
	cfg.MinConns = 1
	cfg.MaxConns = 10
	cfg.ConnConfig.Tracer = &queryTracer{m.log}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		m.log.LogAttrs(ctx,
			slog.LevelError,
			"failed to init pgxpool",
			slog.Any(model.KeyLoggerError, err),
		)

		return m
	}
	if err = pool.Ping(ctx); err != nil {
		m.log.LogAttrs(ctx,
			slog.LevelError,
			"failed to ping the DB",
			slog.Any(model.KeyLoggerError, err),
		)

		m.Pool = pool
		return m
	}

	m.IsConnected = true
	m.Pool = pool
	return m
}

func (m *DBManager) ApplyMigrations() error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	mg, err := migrate.NewWithSourceInstance("iofs", source, m.dsn)
	if err != nil {
		return fmt.Errorf("failed to init migrations: %w", err)
	}
	defer func() {
		_, _ = mg.Close()
	}()

	if err := mg.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

func (m *DBManager) Ping(ctx context.Context) bool {
	if m.Pool == nil {
		return false
	}
	if err := m.Pool.Ping(ctx); err != nil {
		m.log.LogAttrs(ctx,
			slog.LevelError,
			"failed to ping the DB",
			slog.Any(model.KeyLoggerError, err),
		)
		m.IsConnected = false
		return false
	}

	m.IsConnected = true
	return true
}

func (m *DBManager) Close() {
	if m.Pool == nil {
		return
	}

	m.Pool.Close()
	m.log.LogAttrs(context.TODO(),
		slog.LevelInfo,
		"connection to DB closed",
	)
}
