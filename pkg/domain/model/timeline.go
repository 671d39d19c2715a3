package model

import (
	"time"

	"github.com/docket-labs/docket/pkg/domain/types"
)

// TimelineEntry is one record in a case's append-only status audit log.
// Entries are never mutated or deleted.
type TimelineEntry struct {
	ID        types.TimelineID
	CaseID    int64
	Status    types.CaseStatus
	Note      string
	ActorID   types.UserID
	Progress  int
	CreatedAt time.Time
}

// NewTimelineEntry builds an entry for a committed transition. Progress is
// derived from the status, never supplied by the caller.
func NewTimelineEntry(caseID int64, status types.CaseStatus, note string, actorID types.UserID) *TimelineEntry {
	return &TimelineEntry{
		CaseID:   caseID,
		Status:   status,
		Note:     note,
		ActorID:  actorID,
		Progress: status.Progress(),
	}
}
