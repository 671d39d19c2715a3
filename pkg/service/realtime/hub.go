package realtime

import (
	"encoding/json"
	"sync"

	"github.com/docket-labs/docket/pkg/domain/interfaces"
	"github.com/docket-labs/docket/pkg/domain/types"
	"github.com/docket-labs/docket/pkg/utils/logging"
)

// Hub is the in-process live transport: a channel registry mapping channel
// names to connected sessions. Delivery is best effort and at most once; a
// subscriber whose send queue is full loses the event rather than blocking
// the publisher.
type Hub struct {
	mu       sync.RWMutex
	channels map[types.Channel]map[*Conn]struct{}
}

var _ interfaces.Publisher = &Hub{}

func NewHub() *Hub {
	return &Hub{
		channels: map[types.Channel]map[*Conn]struct{}{},
	}
}

// envelope is the wire frame for every pushed event
type envelope struct {
	Event   string `json:"event"`
	Payload any    `json:"payload,omitempty"`
}

// Join subscribes the connection to the channel
func (h *Hub) Join(channel types.Channel, c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.channels[channel]
	if !ok {
		subs = map[*Conn]struct{}{}
		h.channels[channel] = subs
	}
	subs[c] = struct{}{}
}

// Leave unsubscribes the connection from the channel. Empty channels are
// removed from the registry so it does not grow with dead channel names.
func (h *Hub) Leave(channel types.Channel, c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.channels[channel]
	if !ok {
		return
	}
	delete(subs, c)
	if len(subs) == 0 {
		delete(h.channels, channel)
	}
}

// Detach removes the connection from every channel it joined. Called once
// when the connection closes.
func (h *Hub) Detach(c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for channel, subs := range h.channels {
		delete(subs, c)
		if len(subs) == 0 {
			delete(h.channels, channel)
		}
	}
}

// Publish serializes the event once and enqueues it to every current
// subscriber of the channel. No subscribers is a no-op.
func (h *Hub) Publish(channel types.Channel, event string, payload any) {
	data, err := json.Marshal(envelope{Event: event, Payload: payload})
	if err != nil {
		logging.Default().Error("failed to encode event",
			"channel", channel, "event", event, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.channels[channel] {
		c.enqueue(channel, event, data)
	}
}

// subscriberCount reports how many connections are on the channel, for tests
func (h *Hub) subscriberCount(channel types.Channel) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[channel])
}
