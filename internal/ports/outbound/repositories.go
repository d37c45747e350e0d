// Package outbound defines the interfaces for outbound ports (secondary/driven adapters)
// These are the interfaces that the application uses to interact with external systems
package outbound

import (
	"context"
	"errors"
	"time"

	"github.com/harvestchef/harvest/internal/domain/recipe"
)

// ErrCacheMiss is returned by CacheRepository.Get when a key is absent or expired.
var ErrCacheMiss = errors.New("cache: key not found")

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// FavoriteRepository persists the recipes a visitor has starred.
// Favorites are keyed by recipe ID, never by display name.
type FavoriteRepository interface {
	List(ctx context.Context, owner string) ([]recipe.Recipe, error)
	Add(ctx context.Context, owner string, r recipe.Recipe) error
	Remove(ctx context.Context, owner, recipeID string) error
	Exists(ctx context.Context, owner, recipeID string) (bool, error)
}

// ImageStore turns generated image bytes into a URL the UI can display.
type ImageStore interface {
	Store(ctx context.Context, key string, img Image) (string, error)
}
