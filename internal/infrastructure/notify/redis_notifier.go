package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
)

var _ inventory.Notifier = (*RedisNotifier)(nil)

// RedisNotifier publica los eventos de ciclo como JSON en un canal Pub/Sub.
// Close cierra el cliente recibido.
type RedisNotifier struct {
	client  *redis.Client
	channel string
	log     zerolog.Logger
}

func NewRedisNotifier(client *redis.Client, channel string, log zerolog.Logger) *RedisNotifier {
	return &RedisNotifier{client: client, channel: channel, log: log}
}

// Notify publica el evento; el error se propaga para que el caso de uso lo registre.
func (n *RedisNotifier) Notify(ctx context.Context, e inventory.CycleEvent) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal cycle event: %w", err)
	}
	if err := n.client.Publish(ctx, n.channel, data).Err(); err != nil {
		return fmt.Errorf("publish %s to %s: %w", e.Type, n.channel, err)
	}
	n.log.Debug().Str("event", e.Type).Str("channel", n.channel).Msg("evento publicado")
	return nil
}

// Close libera las conexiones del cliente Redis.
func (n *RedisNotifier) Close() error { return n.client.Close() }
