package events

import "sync"

// Subscriber is a live connection handle. Send must not block indefinitely;
// returning an error marks the handle dead and the registry prunes it during
// the broadcast that observed the failure.
type Subscriber interface {
	Send(payload []byte) error
}

// SubscriberRegistry is a concurrency-safe set of live subscriber handles
// keyed by channel name. Add and Remove are safe to call while a Broadcast
// on the same channel is in flight: a broadcast iterates a snapshot taken at
// call time, so handles added mid-broadcast are not guaranteed that event
// and handles removed mid-broadcast may or may not receive it.
type SubscriberRegistry struct {
	mu       sync.RWMutex
	channels map[string]map[Subscriber]struct{}
}

// NewSubscriberRegistry builds an empty registry.
func NewSubscriberRegistry() *SubscriberRegistry {
	return &SubscriberRegistry{
		channels: make(map[string]map[Subscriber]struct{}),
	}
}

// Add registers a handle on a channel.
func (r *SubscriberRegistry) Add(channel string, sub Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.channels[channel]
	if !ok {
		set = make(map[Subscriber]struct{})
		r.channels[channel] = set
	}
	set[sub] = struct{}{}
}

// Remove deregisters a handle from a channel. Removing a handle that is not
// registered is a no-op.
func (r *SubscriberRegistry) Remove(channel string, sub Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.channels[channel]
	if !ok {
		return
	}
	delete(set, sub)
	if len(set) == 0 {
		delete(r.channels, channel)
	}
}

// Count returns the number of live handles on a channel.
func (r *SubscriberRegistry) Count(channel string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.channels[channel])
}

// Broadcast attempts delivery of payload to every handle registered on the
// channel at call time. Each delivery attempt is independent: a handle whose
// Send errors is removed from the live set and does not affect delivery to
// the others. Broadcasting to a channel with no subscribers is a no-op.
func (r *SubscriberRegistry) Broadcast(channel string, payload []byte) {
	r.mu.RLock()
	snapshot := make([]Subscriber, 0, len(r.channels[channel]))
	for sub := range r.channels[channel] {
		snapshot = append(snapshot, sub)
	}
	r.mu.RUnlock()

	var failed []Subscriber
	for _, sub := range snapshot {
		if err := sub.Send(payload); err != nil {
			failed = append(failed, sub)
		}
	}
	for _, sub := range failed {
		r.Remove(channel, sub)
	}
}
