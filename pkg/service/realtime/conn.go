package realtime

import (
	"context"
	"time"

	"github.com/gorilla/websocket"

	"github.com/docket-labs/docket/pkg/domain/types"
	"github.com/docket-labs/docket/pkg/utils/logging"
	"github.com/docket-labs/docket/pkg/utils/safe"
)

const (
	// sendQueueSize bounds the per-connection outbound queue. A slow reader
	// drops events past this depth instead of stalling publishers.
	sendQueueSize = 64

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// maxFrameSize caps inbound frames; client events are small JSON
	maxFrameSize = 32 * 1024
)

// Conn wraps one websocket session. All writes to the socket go through the
// write pump; the hub and handlers only enqueue.
type Conn struct {
	ws     *websocket.Conn
	userID types.UserID
	send   chan []byte
	done   chan struct{}
}

func NewConn(ws *websocket.Conn, userID types.UserID) *Conn {
	return &Conn{
		ws:     ws,
		userID: userID,
		send:   make(chan []byte, sendQueueSize),
		done:   make(chan struct{}),
	}
}

// UserID returns the authenticated user behind the connection
func (c *Conn) UserID() types.UserID {
	return c.userID
}

// ArmKeepalive installs the read-side liveness checks: a frame size cap and
// a read deadline that each pong extends. WritePump's pings keep a healthy
// peer inside the deadline; a dead one times the read loop out so the
// session gets torn down and detached from the hub.
func (c *Conn) ArmKeepalive() {
	c.armKeepalive(pongWait)
}

func (c *Conn) armKeepalive(wait time.Duration) {
	c.ws.SetReadLimit(maxFrameSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(wait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(wait))
	})
}

// enqueue hands a pre-serialized frame to the write pump. Drop-on-full: the
// event is lost for this connection only, and durable state is unaffected.
func (c *Conn) enqueue(channel types.Channel, event string, data []byte) {
	select {
	case c.send <- data:
	case <-c.done:
	default:
		logging.Default().Warn("dropping event for slow subscriber",
			"channel", channel, "event", event, "user_id", c.userID)
	}
}

// Send serializes nothing; it enqueues an already-encoded frame. Used by the
// controller for direct replies such as connection acks.
func (c *Conn) Send(data []byte) {
	select {
	case c.send <- data:
	case <-c.done:
	default:
	}
}

// WritePump drains the send queue onto the socket and keeps the connection
// alive with pings. It returns when the queue is closed or a write fails.
// Must run in its own goroutine, one per connection.
func (c *Conn) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		safe.Close(context.Background(), c.ws)
	}()

	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				_ = c.ws.WriteControl(websocket.CloseMessage, []byte{}, time.Now().Add(writeWait))
				return
			}
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			return
		}
	}
}

// Close stops the write pump. Safe to call once.
func (c *Conn) Close() {
	close(c.done)
}
