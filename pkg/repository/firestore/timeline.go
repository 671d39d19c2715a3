package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"

	"github.com/docket-labs/docket/pkg/domain/interfaces"
	"github.com/docket-labs/docket/pkg/domain/model"
	"github.com/docket-labs/docket/pkg/domain/types"
)

type timelineRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

var _ interfaces.TimelineRepository = &timelineRepository{}

func newTimelineRepository(client *firestore.Client) *timelineRepository {
	return &timelineRepository{client: client}
}

func (r *timelineRepository) collection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_timeline"
	}
	return "timeline"
}

type timelineDoc struct {
	ID        string    `firestore:"id"`
	CaseID    int64     `firestore:"case_id"`
	Status    string    `firestore:"status"`
	Note      string    `firestore:"note"`
	ActorID   string    `firestore:"actor_id"`
	Progress  int       `firestore:"progress"`
	CreatedAt time.Time `firestore:"created_at"`
}

func (d *timelineDoc) toModel() *model.TimelineEntry {
	return &model.TimelineEntry{
		ID:        types.TimelineID(d.ID),
		CaseID:    d.CaseID,
		Status:    types.CaseStatus(d.Status),
		Note:      d.Note,
		ActorID:   types.UserID(d.ActorID),
		Progress:  d.Progress,
		CreatedAt: d.CreatedAt,
	}
}

func (r *timelineRepository) Append(ctx context.Context, e *model.TimelineEntry) (*model.TimelineEntry, error) {
	created := *e
	if created.ID == "" {
		created.ID = types.NewTimelineID()
	}
	created.CreatedAt = time.Now().UTC()

	doc := &timelineDoc{
		ID:        string(created.ID),
		CaseID:    created.CaseID,
		Status:    string(created.Status),
		Note:      created.Note,
		ActorID:   string(created.ActorID),
		Progress:  created.Progress,
		CreatedAt: created.CreatedAt,
	}

	// Create, not Set: the timeline is append-only and an ID collision
	// must fail rather than overwrite history.
	docRef := r.client.Collection(r.collection()).Doc(string(created.ID))
	if _, err := docRef.Create(ctx, doc); err != nil {
		return nil, goerr.Wrap(err, "failed to append timeline entry",
			goerr.V("id", created.ID), goerr.V("case_id", created.CaseID))
	}

	return &created, nil
}

func (r *timelineRepository) ListByCase(ctx context.Context, caseID int64) ([]*model.TimelineEntry, error) {
	q := r.client.Collection(r.collection()).
		Where("case_id", "==", caseID).
		OrderBy("created_at", firestore.Asc)

	iter := q.Documents(ctx)
	defer iter.Stop()

	var entries []*model.TimelineEntry
	for {
		docSnap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate timeline", goerr.V("case_id", caseID))
		}

		var d timelineDoc
		if err := docSnap.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to decode timeline entry", goerr.V("doc_id", docSnap.Ref.ID))
		}

		entries = append(entries, d.toModel())
	}

	return entries, nil
}
