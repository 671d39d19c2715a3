package realtime

import (
	"encoding/json"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/docket-labs/docket/pkg/domain/types"
)

func recvFrame(t *testing.T, c *Conn) map[string]any {
	t.Helper()
	select {
	case data := <-c.send:
		var frame map[string]any
		gt.NoError(t, json.Unmarshal(data, &frame)).Required()
		return frame
	default:
		t.Fatal("no frame queued")
		return nil
	}
}

func TestHubPublish(t *testing.T) {
	t.Run("delivers to every subscriber of the channel", func(t *testing.T) {
		hub := NewHub()
		c1 := NewConn(nil, "user-1")
		c2 := NewConn(nil, "user-2")
		c3 := NewConn(nil, "user-3")

		hub.Join(types.CaseChannel(1), c1)
		hub.Join(types.CaseChannel(1), c2)
		hub.Join(types.CaseChannel(2), c3)

		hub.Publish(types.CaseChannel(1), types.EventNewMessage, map[string]any{"body": "hi"})

		for _, c := range []*Conn{c1, c2} {
			frame := recvFrame(t, c)
			gt.Value(t, frame["event"]).Equal(types.EventNewMessage)
		}
		gt.Value(t, len(c3.send)).Equal(0)
	})

	t.Run("publishing to an empty channel is a no-op", func(t *testing.T) {
		hub := NewHub()
		hub.Publish(types.UserChannel("ghost"), types.EventNotification, nil)
	})

	t.Run("slow subscriber drops instead of blocking", func(t *testing.T) {
		hub := NewHub()
		c := NewConn(nil, "user-1")
		hub.Join(types.UserChannel("user-1"), c)

		for i := 0; i < sendQueueSize+10; i++ {
			hub.Publish(types.UserChannel("user-1"), types.EventNotification, i)
		}

		// The queue holds exactly its capacity; the overflow is gone
		gt.Value(t, len(c.send)).Equal(sendQueueSize)
	})
}

func TestHubMembership(t *testing.T) {
	t.Run("leave removes a single subscription", func(t *testing.T) {
		hub := NewHub()
		c := NewConn(nil, "user-1")

		hub.Join(types.CaseChannel(1), c)
		gt.Value(t, hub.subscriberCount(types.CaseChannel(1))).Equal(1)

		hub.Leave(types.CaseChannel(1), c)
		gt.Value(t, hub.subscriberCount(types.CaseChannel(1))).Equal(0)

		// Leaving twice is harmless
		hub.Leave(types.CaseChannel(1), c)
	})

	t.Run("detach removes the connection everywhere", func(t *testing.T) {
		hub := NewHub()
		c := NewConn(nil, "user-1")

		hub.Join(types.UserChannel("user-1"), c)
		hub.Join(types.CaseChannel(1), c)
		hub.Join(types.CaseChannel(2), c)

		hub.Detach(c)

		gt.Value(t, hub.subscriberCount(types.UserChannel("user-1"))).Equal(0)
		gt.Value(t, hub.subscriberCount(types.CaseChannel(1))).Equal(0)
		gt.Value(t, hub.subscriberCount(types.CaseChannel(2))).Equal(0)
	})
}
