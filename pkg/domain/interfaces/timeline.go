package interfaces

import (
	"context"

	"github.com/docket-labs/docket/pkg/domain/model"
)

// TimelineRepository defines the interface for the append-only status audit
// log. There is no update or delete: entries are immutable once written.
type TimelineRepository interface {
	// Append adds a new entry to a case's timeline
	Append(ctx context.Context, e *model.TimelineEntry) (*model.TimelineEntry, error)

	// ListByCase retrieves a case's timeline in ascending creation order
	ListByCase(ctx context.Context, caseID int64) ([]*model.TimelineEntry, error)
}
