package events

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// Broker is the cross-process leg of event fan-out. Implementations report
// failure through the returned error and must never panic into the caller;
// the bus treats any error as a degraded, local-only broadcast.
type Broker interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

type redisBroker struct {
	client *redis.Client
}

// NewRedisBroker adapts a go-redis client to the Broker contract.
func NewRedisBroker(client *redis.Client) Broker {
	return &redisBroker{client: client}
}

func (b *redisBroker) Publish(ctx context.Context, channel string, payload []byte) error {
	return b.client.Publish(ctx, channel, payload).Err()
}

// NopBroker discards all publishes. Used when no broker is configured.
type NopBroker struct{}

func (NopBroker) Publish(context.Context, string, []byte) error { return nil }
