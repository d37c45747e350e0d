package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harvestchef/harvest/internal/ports/outbound"
)

func TestCacheRepository_SetGetDelete(t *testing.T) {
	repo := NewCacheRepository()
	t.Cleanup(func() { _ = repo.Close() })
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "workspace:abc", []byte(`{"owner":"abc"}`), time.Minute))

	got, err := repo.Get(ctx, "workspace:abc")
	require.NoError(t, err)
	assert.JSONEq(t, `{"owner":"abc"}`, string(got))

	ok, err := repo.Exists(ctx, "workspace:abc")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, repo.Delete(ctx, "workspace:abc"))
	_, err = repo.Get(ctx, "workspace:abc")
	assert.ErrorIs(t, err, outbound.ErrCacheMiss)
}

func TestCacheRepository_Expiry(t *testing.T) {
	repo := NewCacheRepository()
	t.Cleanup(func() { _ = repo.Close() })
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "short", []byte("v"), time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	_, err := repo.Get(ctx, "short")
	assert.ErrorIs(t, err, outbound.ErrCacheMiss)

	ok, err := repo.Exists(ctx, "short")
	require.NoError(t, err)
	assert.False(t, ok)

	repo.sweep(time.Now())
	repo.mu.RLock()
	assert.Empty(t, repo.entries)
	repo.mu.RUnlock()
}

func TestCacheRepository_ValuesAreCopied(t *testing.T) {
	repo := NewCacheRepository()
	t.Cleanup(func() { _ = repo.Close() })
	ctx := context.Background()

	value := []byte("abc")
	require.NoError(t, repo.Set(ctx, "k", value, 0))
	value[0] = 'z'

	got, err := repo.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))

	got[1] = 'z'
	again, _ := repo.Get(ctx, "k")
	assert.Equal(t, "abc", string(again))
}
