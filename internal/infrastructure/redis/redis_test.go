package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/bodega-lotes/internal/application/inventory"
	"github.com/jhoicas/bodega-lotes/internal/domain"
	"github.com/jhoicas/bodega-lotes/pkg/config"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := NewClient(context.Background(), config.RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestNewClient_SinServidor(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	_, err := NewClient(context.Background(), config.RedisConfig{Addr: addr})
	assert.Error(t, err)
}

func TestItemLocker_Exclusion(t *testing.T) {
	mr, client := newTestClient(t)
	locker := NewItemLocker(client, LockerOptions{TTL: 5 * time.Second, RetryDelay: 10 * time.Millisecond, MaxWait: 60 * time.Millisecond})
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "X")
	require.NoError(t, err)
	assert.True(t, mr.Exists(lockKeyPrefix+"X"))

	_, err = locker.Lock(ctx, "X")
	assert.ErrorIs(t, err, domain.ErrLockNotAcquired)

	other, err := locker.Lock(ctx, "Y")
	require.NoError(t, err, "ítems distintos no se bloquean entre sí")
	require.NoError(t, other(ctx))

	require.NoError(t, unlock(ctx))
	assert.False(t, mr.Exists(lockKeyPrefix+"X"))

	again, err := locker.Lock(ctx, "X")
	require.NoError(t, err)
	require.NoError(t, again(ctx))
}

func TestItemLocker_UnlockVencidoNoBorraAjeno(t *testing.T) {
	mr, client := newTestClient(t)
	locker := NewItemLocker(client, LockerOptions{TTL: time.Second, RetryDelay: 10 * time.Millisecond, MaxWait: 50 * time.Millisecond})
	ctx := context.Background()

	stale, err := locker.Lock(ctx, "X")
	require.NoError(t, err)
	mr.FastForward(2 * time.Second)

	current, err := locker.Lock(ctx, "X")
	require.NoError(t, err)

	require.NoError(t, stale(ctx))
	assert.True(t, mr.Exists(lockKeyPrefix+"X"), "el token vencido no libera el bloqueo vigente")
	require.NoError(t, current(ctx))
	assert.False(t, mr.Exists(lockKeyPrefix+"X"))
}

func TestItemLocker_ContextoCancelado(t *testing.T) {
	_, client := newTestClient(t)
	locker := NewItemLocker(client, LockerOptions{RetryDelay: 20 * time.Millisecond, MaxWait: time.Minute})

	unlock, err := locker.Lock(context.Background(), "X")
	require.NoError(t, err)
	defer func() { _ = unlock(context.Background()) }()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(ctx, "X")
	assert.ErrorIs(t, err, domain.ErrLockNotAcquired)
}

func TestStockCache_GetSetEvict(t *testing.T) {
	mr, client := newTestClient(t)
	cache := NewStockCache(client, time.Minute)
	ctx := context.Background()

	_, ok, err := cache.Get(ctx, "X")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Set(ctx, "X", decimal.RequireFromString("12.5")))
	v, ok, err := cache.Get(ctx, "X")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, v.Equal(decimal.RequireFromString("12.5")))

	mr.FastForward(2 * time.Minute)
	_, ok, err = cache.Get(ctx, "X")
	require.NoError(t, err)
	assert.False(t, ok, "expira con el TTL")

	require.NoError(t, cache.Set(ctx, "X", decimal.NewFromInt(3)))
	require.NoError(t, cache.Evict(ctx, "X"))
	_, ok, err = cache.Get(ctx, "X")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, mr.Set(stockKeyPrefix+"Z", "no-es-numero"))
	_, ok, err = cache.Get(ctx, "Z")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, mr.Exists(stockKeyPrefix+"Z"))
}

func TestInvalidation_PublicaYEvictaItems(t *testing.T) {
	_, client := newTestClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cache := NewStockCache(client, 0)
	require.NoError(t, cache.Set(ctx, "X", decimal.NewFromInt(7)))

	sub, err := Subscribe(ctx, client, "", zerolog.Nop())
	require.NoError(t, err)

	var (
		mu   sync.Mutex
		seen []inventory.Invalidation
	)
	evict := EvictOnItem(cache.Evict, zerolog.Nop())
	done := make(chan error, 1)
	go func() {
		done <- sub.Run(ctx, func(ctx context.Context, inv inventory.Invalidation) {
			evict(ctx, inv)
			mu.Lock()
			seen = append(seen, inv)
			mu.Unlock()
		})
	}()

	require.NoError(t, client.Publish(ctx, InvalidationChannel, "basura").Err())
	pub := NewPublisher(client, "")
	require.NoError(t, pub.Publish(ctx,
		inventory.Invalidation{Entity: inventory.EntityLot, ID: "L1"},
		inventory.Invalidation{Entity: inventory.EntityItem, ID: "X"},
	))
	require.NoError(t, pub.Publish(ctx))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 2
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	assert.Equal(t, inventory.Invalidation{Entity: inventory.EntityLot, ID: "L1"}, seen[0])
	assert.Equal(t, inventory.Invalidation{Entity: inventory.EntityItem, ID: "X"}, seen[1])
	mu.Unlock()

	_, ok, err := cache.Get(context.Background(), "X")
	require.NoError(t, err)
	assert.False(t, ok)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
