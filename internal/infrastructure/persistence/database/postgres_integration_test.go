package database

import (
	"context"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap/zaptest"

	"github.com/harvestchef/harvest/internal/domain/recipe"
	"github.com/harvestchef/harvest/internal/infrastructure/config"
	gormRepo "github.com/harvestchef/harvest/internal/infrastructure/persistence/gorm"
	"github.com/harvestchef/harvest/internal/infrastructure/persistence/migrations"
)

const postgresPort nat.Port = "5432/tcp"

func setupPostgres(t *testing.T) *config.Config {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping Postgres integration test in short mode")
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:15-alpine",
			ExposedPorts: []string{string(postgresPort)},
			Env: map[string]string{
				"POSTGRES_DB":       "harvest_test",
				"POSTGRES_USER":     "test_user",
				"POSTGRES_PASSWORD": "test_password",
			},
			WaitingFor: wait.ForAll(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(60*time.Second),
				wait.ForSQL(postgresPort, "pgx", func(host string, port nat.Port) string {
					return fmt.Sprintf("postgres://test_user:test_password@%s:%s/harvest_test?sslmode=disable",
						host, port.Port())
				}),
			),
		},
		Started: true,
	})
	require.NoError(t, err, "Failed to start postgres container")
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, postgresPort)
	require.NoError(t, err)
	portNum, err := strconv.Atoi(port.Port())
	require.NoError(t, err)

	return &config.Config{Database: config.DatabaseConfig{
		Driver:          "postgres",
		Host:            host,
		Port:            portNum,
		Database:        "harvest_test",
		Username:        "test_user",
		Password:        "test_password",
		SSLMode:         "disable",
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Minute,
		LogLevel:        "warn",
		AutoMigrate:     true,
	}}
}

func TestPostgres_MigrationsAndFavorites(t *testing.T) {
	cfg := setupPostgres(t)
	// reads are routed through dbresolver to the same server
	cfg.Database.ReadReplicas = []string{cfg.Database.Host}
	logger := zaptest.NewLogger(t)

	db, err := Open(cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	m, err := migrations.Open(cfg.GetDSN(), cfg.Database.Database, logger)
	require.NoError(t, err)
	version, dirty, err := m.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)
	// running again is a no-op
	require.NoError(t, m.Up())
	require.NoError(t, m.Close())

	r, err := recipe.New(recipe.Draft{
		Name:                 "Harvest Stew",
		Ingredients:          []string{"2 carrots", "1 leek"},
		Instructions:         []string{"Chop.", "Simmer for 30 minutes."},
		EstimatedCookingTime: "40 minutes",
		DietaryCategory:      recipe.DietaryVegetarian,
		Difficulty:           recipe.DifficultyEasy,
	})
	require.NoError(t, err)

	repo := gormRepo.NewFavoriteRepository(db)
	ctx := context.Background()
	require.NoError(t, repo.Add(ctx, "visitor-1", r))
	require.NoError(t, repo.Add(ctx, "visitor-1", r))

	got, err := repo.List(ctx, "visitor-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, r.ID, got[0].ID)
	assert.Equal(t, r.Ingredients, got[0].Ingredients)

	require.NoError(t, repo.Remove(ctx, "visitor-1", r.ID))
	ok, err := repo.Exists(ctx, "visitor-1", r.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}
