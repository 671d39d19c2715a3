package interfaces

import (
	"context"

	"github.com/docket-labs/docket/pkg/domain/model"
	"github.com/docket-labs/docket/pkg/domain/types"
)

// CaseRepository defines the interface for Case data access
type CaseRepository interface {
	// Create creates a new case with auto-generated ID
	Create(ctx context.Context, c *model.Case) (*model.Case, error)

	// Get retrieves a case by ID
	Get(ctx context.Context, id int64) (*model.Case, error)

	// List retrieves all cases
	List(ctx context.Context) ([]*model.Case, error)

	// ListByOwner retrieves cases filed by the given user
	ListByOwner(ctx context.Context, ownerID types.UserID) ([]*model.Case, error)

	// ListByStaff retrieves cases where the given user appears in the
	// assigned staff set
	ListByStaff(ctx context.Context, staffID types.UserID) ([]*model.Case, error)

	// Update updates an existing case. OwnerID is immutable; implementations
	// keep the stored owner regardless of the value passed in.
	Update(ctx context.Context, c *model.Case) (*model.Case, error)

	// Touch refreshes the case's UpdatedAt to now, writing no other field.
	// Activity ordering follows message traffic through this method so a
	// concurrent status transition is never overwritten.
	Touch(ctx context.Context, id int64) error

	// UpdateStatus writes newStatus onto the case if and only if the stored
	// status still equals expected. A mismatch returns ErrStatusConflict and
	// leaves the case untouched. This is the per-case atomicity guarantee
	// for concurrent status transitions.
	UpdateStatus(ctx context.Context, id int64, expected, newStatus types.CaseStatus) (*model.Case, error)

	// Delete deletes a case by ID
	Delete(ctx context.Context, id int64) error
}
