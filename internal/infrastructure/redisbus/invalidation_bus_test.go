package redisbus

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/taller-stock/internal/infrastructure/querycache"
)

func getRedisClient(t *testing.T) *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	return client
}

func TestDecode_IgnoraMensajesPropios(t *testing.T) {
	bus := NewInvalidationBus(nil, "", "replica-a", nil)
	keys := []querycache.Key{querycache.NewKey("inventory"), querycache.NewKey("inventory", "x/1")}

	own, err := encode("replica-a", keys)
	require.NoError(t, err)
	_, ok := bus.decode(own)
	assert.False(t, ok)

	foreign, err := encode("replica-b", keys)
	require.NoError(t, err)
	got, ok := bus.decode(foreign)
	require.True(t, ok)
	assert.Equal(t, keys, got)

	_, ok = bus.decode("{no es json")
	assert.False(t, ok)
}

func TestInvalidationBus_EntreReplicas(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	channel := "taller-stock:test:" + time.Now().Format("150405.000000")
	storeA := querycache.New()
	storeB := querycache.New()
	busA := NewInvalidationBus(client, channel, "a", nil)
	busB := NewInvalidationBus(client, channel, "b", nil)
	busA.Attach(storeA)

	key := querycache.NewKey("inventory", "it-1")
	storeA.Set(key, 1)
	storeB.Set(key, 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = busB.Run(ctx, storeB) }()

	// Espera a que la suscripción de B esté activa.
	require.Eventually(t, func() bool {
		n, err := client.PubSubNumSub(ctx, channel).Result()
		return err == nil && n[channel] > 0
	}, 2*time.Second, 20*time.Millisecond)

	storeA.Invalidate(key)

	require.Eventually(t, func() bool {
		e, ok := storeB.Peek(key)
		return ok && e.Stale
	}, 2*time.Second, 20*time.Millisecond)
}
