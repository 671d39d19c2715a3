package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/docket-labs/docket/pkg/domain/interfaces"
	"github.com/docket-labs/docket/pkg/domain/model"
	"github.com/docket-labs/docket/pkg/domain/types"
)

type timelineRepository struct {
	mu      sync.RWMutex
	entries map[int64][]*model.TimelineEntry
	seq     int64
}

var _ interfaces.TimelineRepository = &timelineRepository{}

func newTimelineRepository() *timelineRepository {
	return &timelineRepository{
		entries: make(map[int64][]*model.TimelineEntry),
	}
}

func copyTimelineEntry(e *model.TimelineEntry) *model.TimelineEntry {
	copied := *e
	return &copied
}

func (r *timelineRepository) Append(ctx context.Context, e *model.TimelineEntry) (*model.TimelineEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	created := copyTimelineEntry(e)
	if created.ID == "" {
		created.ID = types.NewTimelineID()
	}
	// Commit order must survive identical wall-clock timestamps, so each
	// append gets a strictly later nanosecond offset within the lock.
	r.seq++
	created.CreatedAt = time.Now().UTC().Add(time.Duration(r.seq))

	r.entries[created.CaseID] = append(r.entries[created.CaseID], created)
	return copyTimelineEntry(created), nil
}

func (r *timelineRepository) ListByCase(ctx context.Context, caseID int64) ([]*model.TimelineEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := r.entries[caseID]
	result := make([]*model.TimelineEntry, 0, len(entries))
	for _, e := range entries {
		result = append(result, copyTimelineEntry(e))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})

	return result, nil
}
