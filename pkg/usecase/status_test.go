package usecase_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/docket-labs/docket/pkg/domain/interfaces"
	"github.com/docket-labs/docket/pkg/domain/model"
	"github.com/docket-labs/docket/pkg/domain/types"
	"github.com/docket-labs/docket/pkg/usecase"
)

func TestApplyTransition(t *testing.T) {
	t.Run("staff moves a case forward", func(t *testing.T) {
		repo := newMemoryRepo()
		pub := &recordPublisher{}
		uc := usecase.New(repo, usecase.WithPublisher(pub))
		ctx := context.Background()

		c := seedCase(t, repo, "staff-1")

		result, err := uc.Status.ApplyTransition(ctx, staffIdent("staff-1"), c.ID,
			types.CaseStatusApproved, "looks good")
		gt.NoError(t, err).Required()

		gt.Value(t, result.Case.Status).Equal(types.CaseStatusApproved)
		gt.Value(t, result.Previous).Equal(types.CaseStatusSubmitted)
		gt.Value(t, result.Timeline.Note).Equal("looks good")
		gt.Value(t, result.Timeline.Progress).Equal(50)
		gt.Value(t, result.Timeline.ActorID).Equal(types.UserID("staff-1"))

		// Fanout is asynchronous; the owner's durable notification lands
		// shortly after the transition returns
		waitFor(t, func() bool {
			ns, err := repo.Notification().ListByRecipient(ctx, "client-1")
			return err == nil && len(ns) == 1
		})

		ns, err := repo.Notification().ListByRecipient(ctx, "client-1")
		gt.NoError(t, err).Required()
		gt.Value(t, ns[0].Body).Equal("looks good")
		gt.Value(t, ns[0].Type).Equal(model.NotificationTypeStatus)
		gt.Value(t, ns[0].Data["status"]).Equal("approved")
		gt.Value(t, ns[0].Data["previous_status"]).Equal("submitted")

		// The actor never notifies themselves
		actorNs, err := repo.Notification().ListByRecipient(ctx, "staff-1")
		gt.NoError(t, err).Required()
		gt.Array(t, actorNs).Length(0)
	})

	t.Run("empty note gets a generated one", func(t *testing.T) {
		repo := newMemoryRepo()
		uc := usecase.New(repo)
		ctx := context.Background()

		c := seedCase(t, repo, "staff-1")

		result, err := uc.Status.ApplyTransition(ctx, staffIdent("staff-1"), c.ID,
			types.CaseStatusUnderReview, "")
		gt.NoError(t, err).Required()
		gt.Value(t, result.Timeline.Note).Equal("status updated from submitted to under_review")
	})

	t.Run("unknown status is rejected before any write", func(t *testing.T) {
		repo := newMemoryRepo()
		uc := usecase.New(repo)
		ctx := context.Background()

		c := seedCase(t, repo, "staff-1")

		_, err := uc.Status.ApplyTransition(ctx, staffIdent("staff-1"), c.ID,
			types.CaseStatus("reviewing"), "")
		gt.Error(t, err).Is(usecase.ErrInvalidInput)

		entries, err := repo.Timeline().ListByCase(ctx, c.ID)
		gt.NoError(t, err).Required()
		gt.Array(t, entries).Length(0)
	})

	t.Run("outsider cannot transition and leaves no trace", func(t *testing.T) {
		repo := newMemoryRepo()
		uc := usecase.New(repo)
		ctx := context.Background()

		c := seedCase(t, repo, "staff-1")

		_, err := uc.Status.ApplyTransition(ctx, staffIdent("staff-9"), c.ID,
			types.CaseStatusApproved, "")
		gt.Error(t, err).Is(usecase.ErrPermissionDenied)

		got, err := repo.Case().Get(ctx, c.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Status).Equal(types.CaseStatusSubmitted)

		entries, err := repo.Timeline().ListByCase(ctx, c.ID)
		gt.NoError(t, err).Required()
		gt.Array(t, entries).Length(0)
	})

	t.Run("unknown case", func(t *testing.T) {
		repo := newMemoryRepo()
		uc := usecase.New(repo)

		_, err := uc.Status.ApplyTransition(context.Background(), adminIdent("admin-1"), 404,
			types.CaseStatusApproved, "")
		gt.Error(t, err).Is(usecase.ErrCaseNotFound)
	})

	t.Run("losing a concurrent race surfaces a conflict", func(t *testing.T) {
		repo := newMemoryRepo()
		uc := usecase.New(repo)
		ctx := context.Background()

		c := seedCase(t, repo, "staff-1")

		// Another writer slips in between this actor's read and write
		stale := &staleReadRepo{Repository: repo, caseID: c.ID}
		staleUC := usecase.New(stale)

		_, err := uc.Status.ApplyTransition(ctx, staffIdent("staff-1"), c.ID,
			types.CaseStatusUnderReview, "")
		gt.NoError(t, err).Required()

		_, err = staleUC.Status.ApplyTransition(ctx, staffIdent("staff-1"), c.ID,
			types.CaseStatusApproved, "")
		gt.Error(t, err).Is(usecase.ErrStatusConflict)

		got, err := repo.Case().Get(ctx, c.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Status).Equal(types.CaseStatusUnderReview)
	})
}

func TestGetTimeline(t *testing.T) {
	t.Run("history in commit order with derived progress", func(t *testing.T) {
		repo := newMemoryRepo()
		uc := usecase.New(repo)
		ctx := context.Background()

		c := seedCase(t, repo, "staff-1")

		_, err := uc.Status.ApplyTransition(ctx, staffIdent("staff-1"), c.ID,
			types.CaseStatusUnderReview, "")
		gt.NoError(t, err).Required()
		_, err = uc.Status.ApplyTransition(ctx, staffIdent("staff-1"), c.ID,
			types.CaseStatusApproved, "")
		gt.NoError(t, err).Required()

		entries, err := uc.Status.GetTimeline(ctx, clientIdent("client-1"), c.ID)
		gt.NoError(t, err).Required()
		gt.Array(t, entries).Length(2)
		gt.Value(t, entries[0].Status).Equal(types.CaseStatusUnderReview)
		gt.Value(t, entries[0].Progress).Equal(25)
		gt.Value(t, entries[1].Status).Equal(types.CaseStatusApproved)
		gt.Value(t, entries[1].Progress).Equal(50)
	})

	t.Run("outsider cannot read the timeline", func(t *testing.T) {
		repo := newMemoryRepo()
		uc := usecase.New(repo)
		ctx := context.Background()

		c := seedCase(t, repo, "staff-1")

		_, err := uc.Status.GetTimeline(ctx, clientIdent("client-2"), c.ID)
		gt.Error(t, err).Is(usecase.ErrPermissionDenied)
	})
}

// staleReadRepo serves case reads with the status the case had at creation,
// simulating a writer that raced against another transition.
type staleReadRepo struct {
	interfaces.Repository
	caseID int64
}

func (r *staleReadRepo) Case() interfaces.CaseRepository {
	return &staleCaseRepo{CaseRepository: r.Repository.Case(), caseID: r.caseID}
}

type staleCaseRepo struct {
	interfaces.CaseRepository
	caseID int64
}

func (r *staleCaseRepo) Get(ctx context.Context, id int64) (*model.Case, error) {
	c, err := r.CaseRepository.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if id == r.caseID {
		c.Status = types.CaseStatusSubmitted
	}
	return c, nil
}
