package config

// Policy carries the tunable business rules of the routing and fanout
// engine.
type Policy struct {
	// NotifyPeerAdmins controls whether an admin-caused status change also
	// notifies the other admins. The default keeps admins quiet about each
	// other's routine updates.
	NotifyPeerAdmins bool

	// DefaultPageSize is the message page size used when the caller does
	// not specify one.
	DefaultPageSize int
}

// DefaultPolicy returns the policy used when no configuration is supplied
func DefaultPolicy() Policy {
	return Policy{
		NotifyPeerAdmins: false,
		DefaultPageSize:  50,
	}
}
