package redis_test

import (
	"context"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iptegra/nexus-api/internal/domain"
	"github.com/iptegra/nexus-api/internal/infrastructure/redis"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "nexus:perms:c1:BACKEND", redis.Key("c1", "BACKEND"))
}

func TestPermissionCache_ServidorCaidoEsTemporal(t *testing.T) {
	// puerto sin servidor: el cliente falla al conectar
	client := goredis.NewClient(&goredis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	cache := redis.NewPermissionCache(client, time.Minute)

	_, ok, err := cache.Get(context.Background(), "c1", "BACKEND")
	require.Error(t, err)
	assert.False(t, ok)
	assert.ErrorIs(t, err, domain.ErrTransientIO)

	err = cache.Invalidate(context.Background(), "c1", "BACKEND")
	assert.ErrorIs(t, err, domain.ErrTransientIO)
}
