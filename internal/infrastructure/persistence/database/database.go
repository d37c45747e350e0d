// Package database opens the relational store backing favorites.
package database

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/dbresolver"

	"github.com/harvestchef/harvest/internal/infrastructure/config"
	gormModels "github.com/harvestchef/harvest/internal/infrastructure/persistence/gorm"
	"github.com/harvestchef/harvest/internal/infrastructure/persistence/migrations"
)

const slowQueryThreshold = 200 * time.Millisecond

// Open connects to the configured driver, applies pool settings and runs
// auto-migration when enabled.
func Open(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 newGORMLogger(log, cfg.Database.LogLevel),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := registerReplicas(db, cfg); err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if cfg.Database.Driver == "postgres" {
		sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)
	} else {
		// a single connection keeps an in-memory database alive and serializes writers
		sqlDB.SetMaxOpenConns(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if cfg.Database.AutoMigrate {
		if err := Migrate(db, cfg, log); err != nil {
			return nil, err
		}
	}

	log.Info("Database connected",
		zap.String("driver", cfg.Database.Driver),
		zap.Int("read_replicas", len(cfg.Database.ReadReplicas)),
		zap.Bool("auto_migrate", cfg.Database.AutoMigrate),
	)

	return db, nil
}

// Migrate creates or updates the schema. Postgres runs the versioned SQL
// migrations; SQLite is auto-migrated from the GORM models.
func Migrate(db *gorm.DB, cfg *config.Config, log *zap.Logger) error {
	if cfg.Database.Driver == "postgres" {
		m, err := migrations.Open(cfg.GetDSN(), cfg.Database.Database, log)
		if err != nil {
			return err
		}
		defer m.Close()
		return m.Up()
	}

	if err := db.AutoMigrate(&gormModels.FavoriteModel{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func dialectorFor(cfg *config.Config) (gorm.Dialector, error) {
	switch cfg.Database.Driver {
	case "postgres":
		return postgres.Open(cfg.GetDSN()), nil
	case "sqlite", "":
		path := cfg.Database.Path
		if path == "" {
			path = ":memory:"
		}
		return sqlite.Open(path), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
}

func registerReplicas(db *gorm.DB, cfg *config.Config) error {
	if cfg.Database.Driver != "postgres" || len(cfg.Database.ReadReplicas) == 0 {
		return nil
	}

	replicas := make([]gorm.Dialector, 0, len(cfg.Database.ReadReplicas))
	for _, host := range cfg.Database.ReadReplicas {
		replica := *cfg
		replica.Database.Host = host
		replicas = append(replicas, postgres.Open(replica.GetDSN()))
	}

	err := db.Use(dbresolver.Register(dbresolver.Config{
		Replicas: replicas,
		Policy:   dbresolver.RandomPolicy{},
	}))
	if err != nil {
		return fmt.Errorf("failed to register read replicas: %w", err)
	}
	return nil
}

// gormLogWriter forwards GORM's printf-style output to zap.
type gormLogWriter struct {
	logger *zap.Logger
}

func (w gormLogWriter) Printf(format string, args ...interface{}) {
	w.logger.Sugar().Infof(format, args...)
}

func newGORMLogger(log *zap.Logger, level string) logger.Interface {
	logLevel := logger.Silent
	switch level {
	case "debug", "info":
		logLevel = logger.Info
	case "warn":
		logLevel = logger.Warn
	case "error":
		logLevel = logger.Error
	}

	return logger.New(
		gormLogWriter{logger: log.Named("gorm")},
		logger.Config{
			SlowThreshold:             slowQueryThreshold,
			LogLevel:                  logLevel,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}
