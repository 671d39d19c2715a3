package interfaces

import (
	"context"

	"github.com/docket-labs/docket/pkg/domain/model"
	"github.com/docket-labs/docket/pkg/domain/types"
)

// UserRepository defines the interface for the user directory
type UserRepository interface {
	// Put creates or replaces a directory entry
	Put(ctx context.Context, u *model.User) (*model.User, error)

	// Get retrieves a user by ID
	Get(ctx context.Context, id types.UserID) (*model.User, error)

	// List retrieves all users
	List(ctx context.Context) ([]*model.User, error)

	// ListByRole retrieves all users holding the given role
	ListByRole(ctx context.Context, role types.Role) ([]*model.User, error)
}
