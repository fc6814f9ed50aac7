// Package db provides database connectivity and migration functionality for the redditclone application.
// It handles establishing the PostgreSQL connection pool, exposing it through database/sql for the
// repositories, translating driver-level error codes, and running the embedded schema migrations.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	// The postgres database driver for golang-migrate. It speaks database/sql,
	// so migrations get their own *sql.DB opened through the pgx stdlib driver.
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/user/redditclone-go/apperror"
	"github.com/user/redditclone-go/config"
	"github.com/user/redditclone-go/logging"
)

// pgUniqueViolation is the PostgreSQL error code for unique constraint violations.
const pgUniqueViolation = "23505"

// DBTX is the subset of database/sql used by the repositories.
// Both *sql.DB and *sql.Tx satisfy this interface, and so does sqlmock in tests.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// NewDBPool establishes the PostgreSQL connection pool using the provided configuration.
// The pool is pinged before being returned so a misconfigured database fails fast at startup.
func NewDBPool(cfg *config.PoolConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(DSN(cfg))
	if err != nil {
		return nil, apperror.NewDatabaseError(fmt.Sprintf("error parsing DSN for database %s", cfg.DBName), err)
	}

	poolConfig.MaxConns = int32(cfg.MaxSize)
	poolConfig.MaxConnIdleTime = 10 * time.Minute
	poolConfig.MaxConnLifetime = 30 * time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, apperror.NewDatabaseError(fmt.Sprintf("error creating pgxpool for database %s", cfg.DBName), err)
	}

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer pingCancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, apperror.NewDatabaseError(fmt.Sprintf("error connecting to the database %s with pgxpool", cfg.DBName), err)
	}

	return pool, nil
}

// OpenSQL wraps the pool in a *sql.DB. Connections are still managed by pgxpool;
// the wrapper only lets repositories be written against database/sql.
func OpenSQL(pool *pgxpool.Pool) *sql.DB {
	return stdlib.OpenDBFromPool(pool)
}

// DSN constructs a connection string from PoolConfig.
func DSN(cfg *config.PoolConfig) string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DBName,
	)
}

// RunMigrations applies any pending migrations embedded in the binary.
// Migration files live in db/migrations and follow golang-migrate naming:
// {version}_{description}.up.sql / .down.sql.
func RunMigrations(ctx context.Context, cfg *config.PoolConfig, log logging.Logger) error {
	source, err := iofs.New(migrationsFS, migrationsDir)
	if err != nil {
		return apperror.NewMigrationError("failed to open embedded migrations", err)
	}

	// The migrate driver closes the *sql.DB it is given, so it gets a private one.
	sqlDB, err := sql.Open("pgx", DSN(cfg))
	if err != nil {
		return apperror.NewMigrationError("failed to open migration connection", err)
	}

	driver, err := postgres.WithInstance(sqlDB, &postgres.Config{})
	if err != nil {
		sqlDB.Close()
		return apperror.NewMigrationError("failed to create migration driver", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, cfg.DBName, driver)
	if err != nil {
		sqlDB.Close()
		return apperror.NewMigrationError("failed to create migrator", err)
	}
	defer closeMigrator(ctx, m, log)

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return apperror.NewMigrationError("failed to run migrations", err)
	}

	return nil
}

// migratorCloser is the part of *migrate.Migrate closeMigrator needs.
type migratorCloser interface {
	Close() (source error, database error)
}

// closeMigrator releases the migrator. Close failures do not fail the run;
// they are logged.
func closeMigrator(ctx context.Context, m migratorCloser, log logging.Logger) {
	if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
		log.Warn(ctx, "error closing migrator", "sourceError", srcErr, "databaseError", dbErr)
	}
}

// IsUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation and, if so, the name of the violated constraint.
func IsUniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return pgErr.ConstraintName, true
	}
	return "", false
}
