// Package migrations versions the Postgres schema with golang-migrate.
// SQLite deployments use GORM auto-migration instead.
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib" // "pgx" database/sql driver
	"go.uber.org/zap"
)

//go:embed sql/*.sql
var sqlFiles embed.FS

const versionTable = "schema_migrations"

// Migrator applies the embedded SQL files in order.
type Migrator struct {
	m   *migrate.Migrate
	log *zap.Logger
}

// Open dials dsn on a dedicated pgx handle. Close releases it.
func Open(dsn, databaseName string, logger *zap.Logger) (*Migrator, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open migration connection: %w", err)
	}

	mg, err := New(db, databaseName, logger)
	if err != nil {
		return nil, errors.Join(err, db.Close())
	}
	return mg, nil
}

// New builds a Migrator on db and takes ownership of it.
func New(db *sql.DB, databaseName string, logger *zap.Logger) (*Migrator, error) {
	src, err := iofs.New(sqlFiles, "sql")
	if err != nil {
		return nil, fmt.Errorf("load embedded migrations: %w", err)
	}

	target, err := postgres.WithInstance(db, &postgres.Config{
		MigrationsTable: versionTable,
		DatabaseName:    databaseName,
	})
	if err != nil {
		return nil, fmt.Errorf("prepare postgres migration target: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", target)
	if err != nil {
		return nil, fmt.Errorf("init migrate: %w", err)
	}
	return &Migrator{m: m, log: logger.Named("migrations")}, nil
}

// Up applies pending migrations. An up-to-date schema is not an error.
func (mg *Migrator) Up() error {
	before, _, err := mg.Version()
	if err != nil {
		return err
	}

	started := time.Now()
	switch err := mg.m.Up(); {
	case errors.Is(err, migrate.ErrNoChange):
		mg.log.Debug("Schema up to date", zap.Uint("version", before))
		return nil
	case err != nil:
		return fmt.Errorf("apply migrations: %w", err)
	}

	after, _, _ := mg.Version()
	mg.log.Info("Schema migrated",
		zap.Uint("from_version", before),
		zap.Uint("to_version", after),
		zap.Duration("took", time.Since(started)),
	)
	return nil
}

// Version reports the applied version and dirty flag. A fresh database is
// version 0.
func (mg *Migrator) Version() (uint, bool, error) {
	v, dirty, err := mg.m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		return 0, false, nil
	case err != nil:
		return 0, false, fmt.Errorf("read schema version: %w", err)
	}
	return v, dirty, nil
}

func (mg *Migrator) Close() error {
	srcErr, dbErr := mg.m.Close()
	return errors.Join(srcErr, dbErr)
}
