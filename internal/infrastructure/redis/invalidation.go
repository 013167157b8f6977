package redis

import (
	"context"
	"encoding/json"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/jhoicas/bodega-lotes/internal/application/inventory"
)

var _ inventory.Invalidator = (*Publisher)(nil)

// InvalidationChannel canal pub/sub de invalidaciones.
const InvalidationChannel = "inventory.invalidate"

// Publisher publica cada invalidación como JSON {"entity","id"}.
type Publisher struct {
	client  goredis.UniversalClient
	channel string
}

// NewPublisher construye el publicador; channel vacío usa InvalidationChannel.
func NewPublisher(client goredis.UniversalClient, channel string) *Publisher {
	if channel == "" {
		channel = InvalidationChannel
	}
	return &Publisher{client: client, channel: channel}
}

// Publish envía los mensajes en un solo pipeline.
func (p *Publisher) Publish(ctx context.Context, msgs ...inventory.Invalidation) error {
	if len(msgs) == 0 {
		return nil
	}
	pipe := p.client.Pipeline()
	for _, m := range msgs {
		body, err := json.Marshal(m)
		if err != nil {
			return err
		}
		pipe.Publish(ctx, p.channel, body)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: publish invalidation: %w", err)
	}
	return nil
}

// Subscription suscripción confirmada al canal de invalidaciones.
type Subscription struct {
	pubsub *goredis.PubSub
	log    zerolog.Logger
}

// Subscribe se suscribe y espera la confirmación del servidor antes de volver.
func Subscribe(ctx context.Context, client goredis.UniversalClient, channel string, log zerolog.Logger) (*Subscription, error) {
	if channel == "" {
		channel = InvalidationChannel
	}
	ps := client.Subscribe(ctx, channel)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("redis: subscribe %s: %w", channel, err)
	}
	return &Subscription{pubsub: ps, log: log}, nil
}

// Run entrega cada mensaje a fn hasta que ctx termine. Los mensajes mal formados se descartan.
func (s *Subscription) Run(ctx context.Context, fn func(context.Context, inventory.Invalidation)) error {
	defer s.pubsub.Close()
	ch := s.pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var inv inventory.Invalidation
			if err := json.Unmarshal([]byte(msg.Payload), &inv); err != nil || inv.Entity == "" {
				s.log.Warn().Str("payload", msg.Payload).Msg("invalidación mal formada")
				continue
			}
			fn(ctx, inv)
		}
	}
}

// EvictOnItem adapta un evictor de stock al callback de Run: solo actúa sobre mensajes de ítem.
func EvictOnItem(evict func(context.Context, string) error, log zerolog.Logger) func(context.Context, inventory.Invalidation) {
	return func(ctx context.Context, inv inventory.Invalidation) {
		if inv.Entity != inventory.EntityItem {
			return
		}
		if err := evict(ctx, inv.ID); err != nil {
			log.Warn().Err(err).Str("item_id", inv.ID).Msg("descartar stock en caché")
		}
	}
}
