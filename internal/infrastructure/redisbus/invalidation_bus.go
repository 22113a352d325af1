package redisbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/taller-stock/internal/infrastructure/querycache"
	"github.com/jhoicas/taller-stock/pkg/logger"
)

const (
	DefaultChannel = "taller-stock:invalidations"
	publishTimeout = 2 * time.Second
)

// message invalidación difundida entre réplicas del BFF.
type message struct {
	Origin string   `json:"origin"`
	Keys   []string `json:"keys"`
}

// InvalidationBus difunde por Redis Pub/Sub las claves que una réplica invalida, para que
// las demás marquen stale su propia caché de sesión.
type InvalidationBus struct {
	client  *redis.Client
	channel string
	origin  string
	log     *logger.Logger
}

// NewInvalidationBus construye el bus. origin identifica a esta réplica; sus propios
// mensajes se ignoran al recibirlos.
func NewInvalidationBus(client *redis.Client, channel, origin string, log *logger.Logger) *InvalidationBus {
	if channel == "" {
		channel = DefaultChannel
	}
	if log == nil {
		log = logger.Nop()
	}
	return &InvalidationBus{client: client, channel: channel, origin: origin, log: log}
}

// Publish difunde las claves invalidadas.
func (b *InvalidationBus) Publish(ctx context.Context, keys []querycache.Key) error {
	if len(keys) == 0 {
		return nil
	}
	payload, err := encode(b.origin, keys)
	if err != nil {
		return err
	}
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("redisbus: publicar invalidación: %w", err)
	}
	return nil
}

// Attach publica cada Invalidate local del store. Un fallo de Redis solo se registra:
// la caché local ya quedó invalidada.
func (b *InvalidationBus) Attach(store *querycache.Store) {
	store.OnInvalidate(func(keys []querycache.Key) {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := b.Publish(ctx, keys); err != nil {
			b.log.Warn().Err(err).Int("keys", len(keys)).Msg("no se pudo difundir la invalidación")
		}
	})
}

// Run se suscribe al canal y marca stale en store las claves invalidadas por otras réplicas.
// Bloquea hasta que ctx termine.
func (b *InvalidationBus) Run(ctx context.Context, store *querycache.Store) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("redisbus: suscribirse a %s: %w", b.channel, err)
	}
	b.log.Info().Str("channel", b.channel).Msg("escuchando invalidaciones de otras réplicas")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			keys, ok := b.decode(msg.Payload)
			if !ok {
				continue
			}
			store.MarkStale(keys...)
			b.log.Debug().Int("keys", len(keys)).Msg("invalidación remota aplicada")
		}
	}
}

func encode(origin string, keys []querycache.Key) (string, error) {
	m := message{Origin: origin, Keys: make([]string, len(keys))}
	for i, k := range keys {
		m.Keys[i] = k.String()
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("redisbus: serializar mensaje: %w", err)
	}
	return string(raw), nil
}

// decode devuelve las claves de un mensaje ajeno; ignora los propios y los malformados.
func (b *InvalidationBus) decode(payload string) ([]querycache.Key, bool) {
	var m message
	if err := json.Unmarshal([]byte(payload), &m); err != nil {
		b.log.Warn().Err(err).Msg("mensaje de invalidación malformado")
		return nil, false
	}
	if m.Origin == b.origin || len(m.Keys) == 0 {
		return nil, false
	}
	keys := make([]querycache.Key, len(m.Keys))
	for i, k := range m.Keys {
		keys[i] = querycache.Key(k)
	}
	return keys, true
}
