package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/Presupuestos-api/internal/application/ports"
	"github.com/jhoicas/Presupuestos-api/pkg/logger"
)

// NewRedisClient crea el cliente desde una URL redis://. Devuelve nil, nil si la URL está vacía
// (Redis no configurado: solo se usa el broker local).
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	if url == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

// RedisPublisher publica eventos como JSON en un canal pub/sub.
type RedisPublisher struct {
	client  *redis.Client
	channel string
	source  string
}

// NewRedisPublisher construye el publicador. source identifica a esta instancia para no
// re-procesar sus propios eventos al relayarlos.
func NewRedisPublisher(client *redis.Client, channel, source string) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel, source: source}
}

type envelope struct {
	Source string      `json:"source"`
	Event  ports.Event `json:"event"`
}

// Publish implementa ports.EventPublisher.
func (p *RedisPublisher) Publish(ctx context.Context, evt ports.Event) error {
	payload, err := json.Marshal(envelope{Source: p.source, Event: evt})
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, p.channel, payload).Err()
}

// Relay reenvía al broker local los eventos publicados por otras instancias hasta que ctx se cancele.
func (p *RedisPublisher) Relay(ctx context.Context, local *Broker, log *logger.Logger) error {
	sub := p.client.Subscribe(ctx, p.channel)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("redis subscribe: %w", err)
	}
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				log.Warn().Err(err).Msg("evento redis inválido")
				continue
			}
			if env.Source == p.source {
				continue
			}
			_ = local.Publish(ctx, env.Event)
		}
	}
}
