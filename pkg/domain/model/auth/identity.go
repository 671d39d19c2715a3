package auth

import (
	"context"

	"github.com/m-mizutani/goerr/v2"

	"github.com/docket-labs/docket/pkg/domain/types"
)

// Identity is the authenticated caller of a request. Token issuance and
// verification happen outside this system; by the time an Identity exists
// the session has already been validated.
type Identity struct {
	UserID types.UserID
	Role   types.Role
	Name   string
}

type ctxIdentityKey struct{}

// ErrNoIdentity is returned when a context carries no authenticated identity
var ErrNoIdentity = goerr.New("no identity in context")

// ContextWithIdentity returns a context carrying the identity
func ContextWithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, ctxIdentityKey{}, id)
}

// IdentityFromContext extracts the authenticated identity from the context
func IdentityFromContext(ctx context.Context) (*Identity, error) {
	id, ok := ctx.Value(ctxIdentityKey{}).(*Identity)
	if !ok || id == nil {
		return nil, ErrNoIdentity
	}
	return id, nil
}
