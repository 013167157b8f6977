package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/jhoicas/bodega-lotes/internal/application/inventory"
	"github.com/jhoicas/bodega-lotes/internal/domain"
)

var _ inventory.ItemLocker = (*ItemLocker)(nil)

const lockKeyPrefix = "inventory:lock:item:"

// Solo borra la clave si el token sigue siendo el nuestro.
var unlockScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// ItemLocker bloqueo distribuido por ítem (SET NX PX con token).
type ItemLocker struct {
	client     goredis.UniversalClient
	ttl        time.Duration
	retryDelay time.Duration
	maxWait    time.Duration
}

// LockerOptions tiempos del bloqueo; ceros usan valores por defecto.
type LockerOptions struct {
	TTL        time.Duration // vida de la clave; cubre un retiro completo
	RetryDelay time.Duration
	MaxWait    time.Duration // espera máxima antes de ErrLockNotAcquired
}

// NewItemLocker construye el locker.
func NewItemLocker(client goredis.UniversalClient, opts LockerOptions) *ItemLocker {
	if opts.TTL <= 0 {
		opts.TTL = 10 * time.Second
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 50 * time.Millisecond
	}
	if opts.MaxWait <= 0 {
		opts.MaxWait = opts.TTL
	}
	return &ItemLocker{client: client, ttl: opts.TTL, retryDelay: opts.RetryDelay, maxWait: opts.MaxWait}
}

// Lock espera hasta obtener el bloqueo del ítem, hasta MaxWait o hasta que ctx termine.
func (l *ItemLocker) Lock(ctx context.Context, itemID string) (func(context.Context) error, error) {
	key := lockKeyPrefix + itemID
	token := uuid.New().String()
	deadline := time.Now().Add(l.maxWait)

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("redis: lock %s: %w", itemID, err)
		}
		if ok {
			return func(ctx context.Context) error {
				if err := unlockScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil && err != goredis.Nil {
					return fmt.Errorf("redis: unlock %s: %w", itemID, err)
				}
				return nil
			}, nil
		}
		if time.Now().After(deadline) {
			return nil, domain.ErrLockNotAcquired
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", domain.ErrLockNotAcquired, ctx.Err())
		case <-time.After(l.retryDelay):
		}
	}
}
