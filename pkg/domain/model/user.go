package model

import (
	"time"

	"github.com/docket-labs/docket/pkg/domain/types"
)

// User is a directory entry. Credential issuance lives outside this system;
// the directory only carries what routing and fanout need.
type User struct {
	ID        types.UserID
	Name      string
	Email     string
	Role      types.Role
	CreatedAt time.Time
	UpdatedAt time.Time
}
