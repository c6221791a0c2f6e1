package events

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubSubscriber records delivered payloads and optionally fails every Send.
type stubSubscriber struct {
	mu       sync.Mutex
	payloads [][]byte
	fail     bool
}

func (s *stubSubscriber) Send(payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("send failed")
	}
	s.payloads = append(s.payloads, payload)
	return nil
}

func (s *stubSubscriber) received() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.payloads)
}

func TestBroadcastDeliversToAllSubscribers(t *testing.T) {
	registry := NewSubscriberRegistry()
	first := &stubSubscriber{}
	second := &stubSubscriber{}
	registry.Add("ticket_events", first)
	registry.Add("ticket_events", second)

	registry.Broadcast("ticket_events", []byte("payload"))

	assert.Equal(t, 1, first.received())
	assert.Equal(t, 1, second.received())
}

func TestBroadcastEmptyChannelIsNoOp(t *testing.T) {
	registry := NewSubscriberRegistry()
	registry.Broadcast("ticket_events", []byte("payload"))
	assert.Equal(t, 0, registry.Count("ticket_events"))
}

func TestBroadcastPrunesFailedSubscriber(t *testing.T) {
	registry := NewSubscriberRegistry()
	healthy := &stubSubscriber{}
	dead := &stubSubscriber{fail: true}
	registry.Add("ticket_events", healthy)
	registry.Add("ticket_events", dead)

	registry.Broadcast("ticket_events", []byte("payload"))

	// The failed handle is gone; the healthy one still got the event.
	assert.Equal(t, 1, registry.Count("ticket_events"))
	assert.Equal(t, 1, healthy.received())

	registry.Broadcast("ticket_events", []byte("payload"))
	assert.Equal(t, 2, healthy.received())
}

func TestRemoveUnknownSubscriberIsNoOp(t *testing.T) {
	registry := NewSubscriberRegistry()
	registry.Remove("ticket_events", &stubSubscriber{})
	assert.Equal(t, 0, registry.Count("ticket_events"))
}

func TestChannelsAreIsolated(t *testing.T) {
	registry := NewSubscriberRegistry()
	ticketSub := &stubSubscriber{}
	otherSub := &stubSubscriber{}
	registry.Add("ticket_events", ticketSub)
	registry.Add("other_events", otherSub)

	registry.Broadcast("ticket_events", []byte("payload"))

	assert.Equal(t, 1, ticketSub.received())
	assert.Equal(t, 0, otherSub.received())
}

func TestConcurrentAddRemoveDuringBroadcast(t *testing.T) {
	registry := NewSubscriberRegistry()
	stable := &stubSubscriber{}
	registry.Add("ticket_events", stable)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			sub := &stubSubscriber{}
			for j := 0; j < 100; j++ {
				registry.Add("ticket_events", sub)
				registry.Remove("ticket_events", sub)
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				registry.Broadcast("ticket_events", []byte("payload"))
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 1, registry.Count("ticket_events"))
	assert.Equal(t, 800, stable.received())
}
