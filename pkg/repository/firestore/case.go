package firestore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/docket-labs/docket/pkg/domain/interfaces"
	"github.com/docket-labs/docket/pkg/domain/model"
	"github.com/docket-labs/docket/pkg/domain/types"
)

type caseRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

var _ interfaces.CaseRepository = &caseRepository{}

func newCaseRepository(client *firestore.Client) *caseRepository {
	return &caseRepository{client: client}
}

func (r *caseRepository) casesCollection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_cases"
	}
	return "cases"
}

func (r *caseRepository) counterCollection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_counters"
	}
	return "counters"
}

type caseDoc struct {
	ID               int64     `firestore:"id"`
	Title            string    `firestore:"title"`
	Description      string    `firestore:"description"`
	OwnerID          string    `firestore:"owner_id"`
	AssignedStaffIDs []string  `firestore:"assigned_staff_ids"`
	Status           string    `firestore:"status"`
	CreatedAt        time.Time `firestore:"created_at"`
	UpdatedAt        time.Time `firestore:"updated_at"`
}

func caseToDoc(c *model.Case) *caseDoc {
	staffIDs := make([]string, len(c.AssignedStaffIDs))
	for i, id := range c.AssignedStaffIDs {
		staffIDs[i] = string(id)
	}
	return &caseDoc{
		ID:               c.ID,
		Title:            c.Title,
		Description:      c.Description,
		OwnerID:          string(c.OwnerID),
		AssignedStaffIDs: staffIDs,
		Status:           string(c.Status),
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
}

func (d *caseDoc) toModel() *model.Case {
	staffIDs := make([]types.UserID, len(d.AssignedStaffIDs))
	for i, id := range d.AssignedStaffIDs {
		staffIDs[i] = types.UserID(id)
	}
	return &model.Case{
		ID:               d.ID,
		Title:            d.Title,
		Description:      d.Description,
		OwnerID:          types.UserID(d.OwnerID),
		AssignedStaffIDs: staffIDs,
		Status:           types.CaseStatus(d.Status).Normalize(),
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
}

// getNextID allocates a case ID through a counter document transaction
func (r *caseRepository) getNextID(ctx context.Context) (int64, error) {
	counterRef := r.client.Collection(r.counterCollection()).Doc("case_counter")

	var nextID int64
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(counterRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				nextID = 1
				return tx.Set(counterRef, map[string]interface{}{
					"value": nextID,
				})
			}
			return goerr.Wrap(err, "failed to get counter")
		}

		currentValue, err := doc.DataAt("value")
		if err != nil {
			return goerr.Wrap(err, "failed to get counter value")
		}

		val, ok := currentValue.(int64)
		if !ok {
			return goerr.New("counter value is not of type int64", goerr.V("value", currentValue))
		}
		nextID = val + 1
		return tx.Update(counterRef, []firestore.Update{
			{Path: "value", Value: nextID},
		})
	})

	if err != nil {
		return 0, goerr.Wrap(err, "failed to get next ID")
	}

	return nextID, nil
}

func (r *caseRepository) Create(ctx context.Context, c *model.Case) (*model.Case, error) {
	nextID, err := r.getNextID(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get next ID")
	}

	now := time.Now().UTC()
	created := &model.Case{
		ID:               nextID,
		Title:            c.Title,
		Description:      c.Description,
		OwnerID:          c.OwnerID,
		AssignedStaffIDs: c.AssignedStaffIDs,
		Status:           c.Status.Normalize(),
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	docID := fmt.Sprintf("%d", created.ID)
	if _, err := r.client.Collection(r.casesCollection()).Doc(docID).Set(ctx, caseToDoc(created)); err != nil {
		return nil, goerr.Wrap(err, "failed to create case", goerr.V("id", created.ID))
	}

	return created, nil
}

func (r *caseRepository) Get(ctx context.Context, id int64) (*model.Case, error) {
	docID := fmt.Sprintf("%d", id)
	docSnap, err := r.client.Collection(r.casesCollection()).Doc(docID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "case not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get case", goerr.V("id", id))
	}

	var d caseDoc
	if err := docSnap.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to decode case", goerr.V("id", id))
	}

	return d.toModel(), nil
}

func (r *caseRepository) List(ctx context.Context) ([]*model.Case, error) {
	return r.listQuery(ctx, r.client.Collection(r.casesCollection()).Query)
}

func (r *caseRepository) ListByOwner(ctx context.Context, ownerID types.UserID) ([]*model.Case, error) {
	q := r.client.Collection(r.casesCollection()).Where("owner_id", "==", string(ownerID))
	return r.listQuery(ctx, q)
}

func (r *caseRepository) ListByStaff(ctx context.Context, staffID types.UserID) ([]*model.Case, error) {
	q := r.client.Collection(r.casesCollection()).Where("assigned_staff_ids", "array-contains", string(staffID))
	return r.listQuery(ctx, q)
}

func (r *caseRepository) listQuery(ctx context.Context, q firestore.Query) ([]*model.Case, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()

	var cases []*model.Case
	for {
		docSnap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate cases")
		}

		var d caseDoc
		if err := docSnap.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to decode case", goerr.V("doc_id", docSnap.Ref.ID))
		}

		cases = append(cases, d.toModel())
	}

	// Sorted here rather than by the query to avoid a composite index on
	// every filter combination.
	sort.Slice(cases, func(i, j int) bool {
		return cases[i].UpdatedAt.After(cases[j].UpdatedAt)
	})

	return cases, nil
}

func (r *caseRepository) Update(ctx context.Context, c *model.Case) (*model.Case, error) {
	docID := fmt.Sprintf("%d", c.ID)
	docRef := r.client.Collection(r.casesCollection()).Doc(docID)

	existing, err := r.Get(ctx, c.ID)
	if err != nil {
		return nil, err
	}

	updated := &model.Case{
		ID:               c.ID,
		Title:            c.Title,
		Description:      c.Description,
		OwnerID:          existing.OwnerID, // owner is immutable
		AssignedStaffIDs: c.AssignedStaffIDs,
		Status:           c.Status.Normalize(),
		CreatedAt:        existing.CreatedAt,
		UpdatedAt:        time.Now().UTC(),
	}

	if _, err := docRef.Set(ctx, caseToDoc(updated)); err != nil {
		return nil, goerr.Wrap(err, "failed to update case", goerr.V("id", c.ID))
	}

	return updated, nil
}

func (r *caseRepository) Touch(ctx context.Context, id int64) error {
	docID := fmt.Sprintf("%d", id)
	docRef := r.client.Collection(r.casesCollection()).Doc(docID)

	_, err := docRef.Update(ctx, []firestore.Update{
		{Path: "updated_at", Value: time.Now().UTC()},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(interfaces.ErrNotFound, "case not found", goerr.V("id", id))
		}
		return goerr.Wrap(err, "failed to touch case", goerr.V("id", id))
	}

	return nil
}

func (r *caseRepository) UpdateStatus(ctx context.Context, id int64, expected, newStatus types.CaseStatus) (*model.Case, error) {
	docID := fmt.Sprintf("%d", id)
	docRef := r.client.Collection(r.casesCollection()).Doc(docID)

	var updated *model.Case
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		docSnap, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return goerr.Wrap(interfaces.ErrNotFound, "case not found", goerr.V("id", id))
			}
			return goerr.Wrap(err, "failed to get case", goerr.V("id", id))
		}

		var d caseDoc
		if err := docSnap.DataTo(&d); err != nil {
			return goerr.Wrap(err, "failed to decode case", goerr.V("id", id))
		}

		current := types.CaseStatus(d.Status).Normalize()
		if current != expected.Normalize() {
			return goerr.Wrap(interfaces.ErrStatusConflict, "case status changed concurrently",
				goerr.V("id", id),
				goerr.V("expected", expected),
				goerr.V("actual", current))
		}

		now := time.Now().UTC()
		if err := tx.Update(docRef, []firestore.Update{
			{Path: "status", Value: string(newStatus)},
			{Path: "updated_at", Value: now},
		}); err != nil {
			return goerr.Wrap(err, "failed to update case status", goerr.V("id", id))
		}

		c := d.toModel()
		c.Status = newStatus
		c.UpdatedAt = now
		updated = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func (r *caseRepository) Delete(ctx context.Context, id int64) error {
	docID := fmt.Sprintf("%d", id)
	docRef := r.client.Collection(r.casesCollection()).Doc(docID)

	if _, err := docRef.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(interfaces.ErrNotFound, "case not found", goerr.V("id", id))
		}
		return goerr.Wrap(err, "failed to check case existence", goerr.V("id", id))
	}

	if _, err := docRef.Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete case", goerr.V("id", id))
	}

	return nil
}
