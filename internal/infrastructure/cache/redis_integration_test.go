//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"go.uber.org/zap/zaptest"

	"github.com/originwatch/originwatch/internal/infrastructure/config"
)

// TestRedisCache_RealContainer exercises the cache against a real Redis
// server instead of miniredis, catching wire-protocol issues miniredis
// doesn't reproduce. Requires a Docker daemon; run with -tags=integration.
func TestRedisCache_RealContainer(t *testing.T) {
	ctx := context.Background()

	container, err := tcredis.RunContainer(ctx,
		testcontainers.WithImage("redis:7-alpine"),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = container.Terminate(ctx)
	})

	connURL, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	cache, err := NewRedisCache(&config.RedisConfig{
		URL:          connURL,
		DB:           0,
		PoolSize:     5,
		MinIdleConns: 1,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })

	type payload struct {
		IP    string `json:"ip"`
		IsVPN bool   `json:"isVpn"`
	}

	require.NoError(t, cache.SetJSON(ctx, VPNResultPrefix+"203.0.113.5", payload{IP: "203.0.113.5", IsVPN: true}, time.Minute))

	var got payload
	require.NoError(t, cache.GetJSON(ctx, VPNResultPrefix+"203.0.113.5", &got))
	require.True(t, got.IsVPN)
}
