package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap/zaptest"

	"github.com/harvestchef/harvest/internal/ports/outbound"
)

const redisPort nat.Port = "6379/tcp"

func setupRedis(t *testing.T) goredis.UniversalClient {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping Redis integration test in short mode")
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{string(redisPort)},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "Failed to start redis container")
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, redisPort)
	require.NoError(t, err)

	client := goredis.NewUniversalClient(&goredis.UniversalOptions{
		Addrs: []string{fmt.Sprintf("%s:%s", host, port.Port())},
	})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(ctx).Err())

	return client
}

func TestCacheRepository_Integration(t *testing.T) {
	client := setupRedis(t)
	repo := NewCacheRepository(client, "test:", zaptest.NewLogger(t), nil)
	ctx := context.Background()

	_, err := repo.Get(ctx, "workspace:nobody")
	assert.ErrorIs(t, err, outbound.ErrCacheMiss)

	require.NoError(t, repo.Set(ctx, "workspace:abc", []byte(`{"owner":"abc"}`), time.Minute))

	raw, err := client.Get(ctx, "test:workspace:abc").Result()
	require.NoError(t, err)
	assert.JSONEq(t, `{"owner":"abc"}`, raw)

	got, err := repo.Get(ctx, "workspace:abc")
	require.NoError(t, err)
	assert.JSONEq(t, `{"owner":"abc"}`, string(got))

	ok, err := repo.Exists(ctx, "workspace:abc")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, repo.Delete(ctx, "workspace:abc"))
	ok, err = repo.Exists(ctx, "workspace:abc")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Ping(ctx))
}

func TestCacheRepository_DefaultTTL(t *testing.T) {
	client := setupRedis(t)
	repo := NewCacheRepository(client, "", zaptest.NewLogger(t), nil)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "k", []byte("v"), 0))

	ttl, err := client.TTL(ctx, "k").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Hour)
	assert.LessOrEqual(t, ttl, defaultTTL)
}
