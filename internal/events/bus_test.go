package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-platform/internal/domain"
)

type captureBroker struct {
	mu       sync.Mutex
	channels []string
	payloads [][]byte
	err      error
}

func (b *captureBroker) Publish(_ context.Context, channel string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	b.channels = append(b.channels, channel)
	b.payloads = append(b.payloads, payload)
	return nil
}

func sampleTicket() *domain.Ticket {
	return &domain.Ticket{
		ID:            "ticket-1",
		Title:         "printer on fire",
		Description:   "lp0 reports smoke",
		Status:        domain.TicketStatusOpen,
		Priority:      domain.TicketPriorityMedium,
		Category:      domain.TicketCategoryGeneral,
		ReporterEmail: "reporter@example.com",
		ReporterName:  "Rey Porter",
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}
}

func TestPublishFansOutToBrokerAndSubscribers(t *testing.T) {
	broker := &captureBroker{}
	registry := NewSubscriberRegistry()
	first := &stubSubscriber{}
	second := &stubSubscriber{}
	registry.Add("ticket_events", first)
	registry.Add("ticket_events", second)

	bus := NewBus(broker, registry, zap.NewNop())
	bus.Publish(context.Background(), "ticket_events", NewTicketEnvelope(EventTicketCreated, sampleTicket()))

	require.Len(t, broker.payloads, 1)
	assert.Equal(t, []string{"ticket_events"}, broker.channels)
	require.Equal(t, 1, first.received())
	require.Equal(t, 1, second.received())

	// Every leg gets the same serialized bytes.
	assert.Equal(t, broker.payloads[0], first.payloads[0])
	assert.Equal(t, broker.payloads[0], second.payloads[0])
}

func TestPublishSurvivesBrokerFailure(t *testing.T) {
	broker := &captureBroker{err: errors.New("redis down")}
	registry := NewSubscriberRegistry()
	sub := &stubSubscriber{}
	registry.Add("ticket_events", sub)

	bus := NewBus(broker, registry, zap.NewNop())
	bus.Publish(context.Background(), "ticket_events", NewTicketEnvelope(EventTicketCreated, sampleTicket()))

	// Local delivery still happens.
	assert.Equal(t, 1, sub.received())
}

func TestNewBusDefaultsToNopBroker(t *testing.T) {
	registry := NewSubscriberRegistry()
	sub := &stubSubscriber{}
	registry.Add("ticket_events", sub)

	bus := NewBus(nil, registry, zap.NewNop())
	bus.Publish(context.Background(), "ticket_events", NewTicketEnvelope(EventTicketUpdated, sampleTicket()))

	assert.Equal(t, 1, sub.received())
}

func TestTicketEnvelopeWireShape(t *testing.T) {
	ticket := sampleTicket()
	ticket.CommentCount = 2

	payload, err := json.Marshal(NewTicketEnvelope(EventTicketAssigned, ticket))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(payload, &decoded))

	assert.NotEmpty(t, decoded["id"])
	assert.Equal(t, "assigned", decoded["event"])
	assert.Equal(t, "ticket-1", decoded["ticket_id"])
	assert.NotEmpty(t, decoded["timestamp"])
	assert.NotContains(t, decoded, "message")

	snapshot, ok := decoded["ticket"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "OPEN", snapshot["status"])
	assert.EqualValues(t, 2, snapshot["comments_count"])
	assert.NotContains(t, snapshot, "assignee_email")
}

func TestMessageEnvelopeWireShape(t *testing.T) {
	payload, err := json.Marshal(NewMessageEnvelope(&domain.Message{
		ID:          "message-1",
		TicketID:    "ticket-1",
		Content:     "restart the spooler",
		AuthorEmail: "agent@example.com",
		AuthorName:  "Agent One",
		IsSupport:   true,
		CreatedAt:   time.Now().UTC(),
	}))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(payload, &decoded))

	assert.Equal(t, "message_added", decoded["event"])
	assert.Equal(t, "ticket-1", decoded["ticket_id"])
	assert.NotContains(t, decoded, "ticket")

	snapshot, ok := decoded["message"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, snapshot["is_support"])
	assert.Equal(t, "agent@example.com", snapshot["author_email"])
}
