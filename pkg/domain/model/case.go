package model

import (
	"time"

	"github.com/docket-labs/docket/pkg/domain/types"
)

// Case represents an application moving through the review pipeline
type Case struct {
	ID               int64
	Title            string
	Description      string
	OwnerID          types.UserID // immutable after creation
	AssignedStaffIDs []types.UserID
	Status           types.CaseStatus
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsOwner reports whether the given user filed this case
func (c *Case) IsOwner(id types.UserID) bool {
	return c.OwnerID == id
}

// IsAssigned reports whether the given user is in the assigned staff set
func (c *Case) IsAssigned(id types.UserID) bool {
	for _, staffID := range c.AssignedStaffIDs {
		if staffID == id {
			return true
		}
	}
	return false
}

// PrimaryStaff returns the first assigned staff member, or "" when the case
// has not been assigned yet.
func (c *Case) PrimaryStaff() types.UserID {
	if len(c.AssignedStaffIDs) == 0 {
		return ""
	}
	return c.AssignedStaffIDs[0]
}
