// Package access decides who may act on a case and who the other side of a
// case conversation is. Both the message-send path and the conversation
// listing resolve through the same functions so the two can never disagree.
package access

import (
	"github.com/m-mizutani/goerr/v2"

	"github.com/docket-labs/docket/pkg/domain/model"
	"github.com/docket-labs/docket/pkg/domain/model/auth"
	"github.com/docket-labs/docket/pkg/domain/types"
)

// ErrDenied means the actor has no standing on the case at all. This is
// distinct from an empty counterpart, which means the actor has standing
// but there is no one to talk to yet.
var ErrDenied = goerr.New("no standing on this case")

// ResolveCounterpart returns the single identity the actor may address
// about the case. First match wins:
//
//   - the case owner talks to the first assigned staff member, or no one
//     when the case is unassigned (returned as an empty UserID, nil error)
//   - an assigned staff member talks to the owner
//   - an admin talks to the owner
//
// Any other actor is denied.
func ResolveCounterpart(c *model.Case, actor *auth.Identity) (types.UserID, error) {
	switch actor.Role {
	case types.RoleClient:
		if c.IsOwner(actor.UserID) {
			return c.PrimaryStaff(), nil
		}
		return "", goerr.Wrap(ErrDenied, "client does not own this case",
			goerr.V("case_id", c.ID), goerr.V("user_id", actor.UserID))

	case types.RoleStaff:
		if c.IsAssigned(actor.UserID) {
			return c.OwnerID, nil
		}
		return "", goerr.Wrap(ErrDenied, "staff is not assigned to this case",
			goerr.V("case_id", c.ID), goerr.V("user_id", actor.UserID))

	case types.RoleAdmin:
		return c.OwnerID, nil

	default:
		return "", goerr.Wrap(ErrDenied, "unknown role",
			goerr.V("case_id", c.ID), goerr.V("role", actor.Role))
	}
}

// CanView reports whether the actor has standing on the case. Used by the
// message history and status transition paths; intentionally the same rule
// set as ResolveCounterpart minus the counterpart itself.
func CanView(c *model.Case, actor *auth.Identity) bool {
	switch actor.Role {
	case types.RoleClient:
		return c.IsOwner(actor.UserID)
	case types.RoleStaff:
		return c.IsAssigned(actor.UserID)
	case types.RoleAdmin:
		return true
	default:
		return false
	}
}
