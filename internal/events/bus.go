package events

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"
)

// Bus fans a published envelope out to the external broker channel and to
// every locally registered live subscriber. The bus owns no persisted state;
// a dropped subscriber loses only in-flight events.
type Bus struct {
	broker   Broker
	registry *SubscriberRegistry
	logger   *zap.Logger
}

// NewBus constructs the fan-out hub.
func NewBus(broker Broker, registry *SubscriberRegistry, logger *zap.Logger) *Bus {
	if broker == nil {
		broker = NopBroker{}
	}
	return &Bus{broker: broker, registry: registry, logger: logger}
}

// Registry exposes the subscriber registry for connection handlers.
func (b *Bus) Registry() *SubscriberRegistry {
	return b.registry
}

// Publish serializes the envelope once, forwards it to the broker channel
// and broadcasts the same bytes to local subscribers. The caller's mutation
// is already durable by the time Publish runs, so no failure here is ever
// returned: a broker outage degrades to local-only delivery and is logged.
func (b *Bus) Publish(ctx context.Context, channel string, envelope Envelope) {
	payload, err := json.Marshal(envelope)
	if err != nil {
		b.logger.Error("marshal envelope",
			zap.String("event", string(envelope.Event)),
			zap.String("ticket_id", envelope.TicketID),
			zap.Error(err))
		return
	}

	if err := b.broker.Publish(ctx, channel, payload); err != nil {
		b.logger.Warn("broker publish failed; local broadcast only",
			zap.String("channel", channel),
			zap.String("event", string(envelope.Event)),
			zap.Error(err))
	}

	b.registry.Broadcast(channel, payload)

	b.logger.Debug("event published",
		zap.String("channel", channel),
		zap.String("event", string(envelope.Event)),
		zap.String("ticket_id", envelope.TicketID))
}
