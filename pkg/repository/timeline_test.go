package repository_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/docket-labs/docket/pkg/domain/interfaces"
	"github.com/docket-labs/docket/pkg/domain/model"
	"github.com/docket-labs/docket/pkg/domain/types"
	"github.com/docket-labs/docket/pkg/repository/memory"
)

func runTimelineRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("Append stores entry with ID and timestamp", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		c, err := repo.Case().Create(ctx, &model.Case{Title: "Audited", OwnerID: "client-1"})
		gt.NoError(t, err).Required()

		entry, err := repo.Timeline().Append(ctx,
			model.NewTimelineEntry(c.ID, types.CaseStatusUnderReview, "picked up", "staff-1"))
		gt.NoError(t, err).Required()

		gt.Value(t, string(entry.ID)).NotEqual("")
		gt.Value(t, entry.Status).Equal(types.CaseStatusUnderReview)
		gt.Value(t, entry.Progress).Equal(25)
		gt.Bool(t, entry.CreatedAt.IsZero()).False()
	})

	t.Run("ListByCase returns entries in commit order", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		c, err := repo.Case().Create(ctx, &model.Case{Title: "History", OwnerID: "client-1"})
		gt.NoError(t, err).Required()

		statuses := []types.CaseStatus{
			types.CaseStatusSubmitted,
			types.CaseStatusUnderReview,
			types.CaseStatusApproved,
		}
		for _, s := range statuses {
			_, err := repo.Timeline().Append(ctx,
				model.NewTimelineEntry(c.ID, s, "", "staff-1"))
			gt.NoError(t, err).Required()
		}

		entries, err := repo.Timeline().ListByCase(ctx, c.ID)
		gt.NoError(t, err).Required()
		gt.Array(t, entries).Length(3)
		for i, s := range statuses {
			gt.Value(t, entries[i].Status).Equal(s)
		}
	})

	t.Run("ListByCase returns empty for case with no history", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		c, err := repo.Case().Create(ctx, &model.Case{Title: "Quiet", OwnerID: "client-1"})
		gt.NoError(t, err).Required()

		entries, err := repo.Timeline().ListByCase(ctx, c.ID)
		gt.NoError(t, err).Required()
		gt.Array(t, entries).Length(0)
	})
}

func TestTimelineRepository_Memory(t *testing.T) {
	runTimelineRepositoryTest(t, func(t *testing.T) interfaces.Repository {
		return memory.New()
	})
}

func TestTimelineRepository_Firestore(t *testing.T) {
	runTimelineRepositoryTest(t, newFirestoreRepo)
}
