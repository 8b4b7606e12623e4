package events

import (
	"encoding/json"
	"sync"

	"github.com/sirupsen/logrus"
)

// subscriberBuffer holds about two seconds of transitions at a 100ms sample rate.
const subscriberBuffer = 16

// EventHub broadcasts daemon events to every live SSE connection. Slow
// subscribers lose events rather than stall the sampling loop.
type EventHub struct {
	mu      sync.RWMutex
	subs    map[chan Event]struct{}
	dropped uint64
}

func NewEventHub() *EventHub {
	return &EventHub{subs: make(map[chan Event]struct{})}
}

// Subscribe registers a new listener. Call Unsubscribe when done.
func (h *EventHub) Subscribe() chan Event {
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.subs[ch] = struct{}{}
	return ch
}

// Unsubscribe removes and closes ch. Unknown channels are ignored.
func (h *EventHub) Unsubscribe(ch chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subs[ch]; !ok {
		return
	}
	delete(h.subs, ch)
	close(ch)
}

// Subscribers returns the number of live subscriptions.
func (h *EventHub) Subscribers() int {
	if h == nil {
		return 0
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Dropped returns how many deliveries were skipped because a subscriber was full.
func (h *EventHub) Dropped() uint64 {
	if h == nil {
		return 0
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.dropped
}

// Publish encodes payload once and offers it to every subscriber. It returns
// the number of subscribers that received it.
func (h *EventHub) Publish(name string, payload any) int {
	if h == nil {
		return 0
	}
	b, err := json.Marshal(payload)
	if err != nil {
		logrus.Errorf("failed to encode %s event: %v", name, err)
		return 0
	}
	ev := Event{Name: name, Data: b}

	// Full lock: dropped is written below.
	h.mu.Lock()
	defer h.mu.Unlock()

	delivered := 0
	for ch := range h.subs {
		select {
		case ch <- ev:
			delivered++
		default:
			h.dropped++
		}
	}
	return delivered
}
