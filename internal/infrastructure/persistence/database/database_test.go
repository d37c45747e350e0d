package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/harvestchef/harvest/internal/infrastructure/config"
	gormModels "github.com/harvestchef/harvest/internal/infrastructure/persistence/gorm"
)

func TestOpen_SQLiteInMemory(t *testing.T) {
	cfg := &config.Config{Database: config.DatabaseConfig{
		Driver:      "sqlite",
		Path:        ":memory:",
		LogLevel:    "silent",
		AutoMigrate: true,
	}}

	db, err := Open(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	assert.True(t, db.Migrator().HasTable(&gormModels.FavoriteModel{}))
}

func TestOpen_UnknownDriver(t *testing.T) {
	cfg := &config.Config{Database: config.DatabaseConfig{Driver: "oracle"}}

	_, err := Open(cfg, zaptest.NewLogger(t))
	assert.Error(t, err)
}
