package interfaces

import "github.com/docket-labs/docket/pkg/domain/types"

// Publisher is the narrow fanout surface injected into every component that
// pushes live events. It is always passed at construction, never reached
// through ambient state. Delivery is best effort and at most once: pushing
// to a channel with no subscribers is a no-op, and a failed push never
// surfaces to the caller of the triggering action.
type Publisher interface {
	Publish(channel types.Channel, event string, payload any)
}
