package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/docket-labs/docket/pkg/domain/interfaces"
	"github.com/docket-labs/docket/pkg/domain/model"
	"github.com/docket-labs/docket/pkg/domain/types"
)

type caseRepository struct {
	mu     sync.RWMutex
	cases  map[int64]*model.Case
	nextID int64
}

var _ interfaces.CaseRepository = &caseRepository{}

func newCaseRepository() *caseRepository {
	return &caseRepository{
		cases:  make(map[int64]*model.Case),
		nextID: 1,
	}
}

// copyCase creates a deep copy of a case
func copyCase(c *model.Case) *model.Case {
	staffIDs := make([]types.UserID, len(c.AssignedStaffIDs))
	copy(staffIDs, c.AssignedStaffIDs)

	return &model.Case{
		ID:               c.ID,
		Title:            c.Title,
		Description:      c.Description,
		OwnerID:          c.OwnerID,
		AssignedStaffIDs: staffIDs,
		Status:           c.Status,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
}

func (r *caseRepository) Create(ctx context.Context, c *model.Case) (*model.Case, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	created := copyCase(c)
	created.ID = r.nextID
	created.Status = c.Status.Normalize()
	created.CreatedAt = now
	created.UpdatedAt = now
	r.nextID++

	r.cases[created.ID] = created
	return copyCase(created), nil
}

func (r *caseRepository) Get(ctx context.Context, id int64) (*model.Case, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, exists := r.cases[id]
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "case not found", goerr.V("id", id))
	}

	return copyCase(c), nil
}

func (r *caseRepository) List(ctx context.Context) ([]*model.Case, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cases := make([]*model.Case, 0, len(r.cases))
	for _, c := range r.cases {
		cases = append(cases, copyCase(c))
	}
	sortCasesByUpdatedAt(cases)

	return cases, nil
}

func (r *caseRepository) ListByOwner(ctx context.Context, ownerID types.UserID) ([]*model.Case, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cases := make([]*model.Case, 0)
	for _, c := range r.cases {
		if c.OwnerID == ownerID {
			cases = append(cases, copyCase(c))
		}
	}
	sortCasesByUpdatedAt(cases)

	return cases, nil
}

func (r *caseRepository) ListByStaff(ctx context.Context, staffID types.UserID) ([]*model.Case, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cases := make([]*model.Case, 0)
	for _, c := range r.cases {
		if c.IsAssigned(staffID) {
			cases = append(cases, copyCase(c))
		}
	}
	sortCasesByUpdatedAt(cases)

	return cases, nil
}

func (r *caseRepository) Update(ctx context.Context, c *model.Case) (*model.Case, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.cases[c.ID]
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "case not found", goerr.V("id", c.ID))
	}

	updated := copyCase(c)
	updated.OwnerID = existing.OwnerID
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now().UTC()

	r.cases[updated.ID] = updated
	return copyCase(updated), nil
}

func (r *caseRepository) Touch(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.cases[id]
	if !exists {
		return goerr.Wrap(interfaces.ErrNotFound, "case not found", goerr.V("id", id))
	}

	existing.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *caseRepository) UpdateStatus(ctx context.Context, id int64, expected, newStatus types.CaseStatus) (*model.Case, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.cases[id]
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "case not found", goerr.V("id", id))
	}

	if existing.Status.Normalize() != expected.Normalize() {
		return nil, goerr.Wrap(interfaces.ErrStatusConflict, "case status changed concurrently",
			goerr.V("id", id),
			goerr.V("expected", expected),
			goerr.V("actual", existing.Status))
	}

	existing.Status = newStatus
	existing.UpdatedAt = time.Now().UTC()

	return copyCase(existing), nil
}

func (r *caseRepository) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.cases[id]; !exists {
		return goerr.Wrap(interfaces.ErrNotFound, "case not found", goerr.V("id", id))
	}

	delete(r.cases, id)
	return nil
}

func sortCasesByUpdatedAt(cases []*model.Case) {
	sort.Slice(cases, func(i, j int) bool {
		return cases[i].UpdatedAt.After(cases[j].UpdatedAt)
	})
}
