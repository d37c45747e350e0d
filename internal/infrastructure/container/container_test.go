package container

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/harvestchef/harvest/internal/infrastructure/config"
	"github.com/harvestchef/harvest/internal/infrastructure/http/middleware"
)

func TestModule_GraphIsComplete(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	err = fx.ValidateApp(
		fx.NopLogger,
		fx.Supply(cfg, zap.NewNop()),
		Module,
	)
	require.NoError(t, err)
}

func TestNewRateLimiter(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	log := zap.NewNop()

	_, local := NewRateLimiter(nil, cfg, log).(*middleware.LocalLimiter)
	assert.True(t, local)

	cfg.Server.RateLimitRequests = 0
	assert.Nil(t, NewRateLimiter(nil, cfg, log))
}
