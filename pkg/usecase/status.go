package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/m-mizutani/goerr/v2"

	"github.com/docket-labs/docket/pkg/domain/access"
	"github.com/docket-labs/docket/pkg/domain/interfaces"
	"github.com/docket-labs/docket/pkg/domain/model"
	"github.com/docket-labs/docket/pkg/domain/model/auth"
	"github.com/docket-labs/docket/pkg/domain/types"
	"github.com/docket-labs/docket/pkg/utils/async"
)

// StatusUseCase drives case status transitions: compare-and-set on the
// case record, an audit timeline entry, then notification fanout. The
// timeline append is the commit point for observers; fanout happens only
// after it succeeds.
type StatusUseCase struct {
	repo     interfaces.Repository
	notifier *NotificationUseCase
}

func NewStatusUseCase(repo interfaces.Repository, notifier *NotificationUseCase) *StatusUseCase {
	return &StatusUseCase{
		repo:     repo,
		notifier: notifier,
	}
}

// StatusTransition is the result of a committed transition
type StatusTransition struct {
	Case     *model.Case
	Previous types.CaseStatus
	Timeline *model.TimelineEntry
}

// ApplyTransition moves a case to newStatus on behalf of the actor. The
// write is conditional on the status observed here; losing a concurrent
// race returns ErrStatusConflict and changes nothing.
func (uc *StatusUseCase) ApplyTransition(ctx context.Context, actor *auth.Identity, caseID int64, newStatus types.CaseStatus, note string) (*StatusTransition, error) {
	if !newStatus.IsValid() {
		return nil, goerr.Wrap(ErrInvalidInput, "unknown status",
			goerr.V(CaseIDKey, caseID), goerr.V("status", newStatus))
	}

	c, err := uc.repo.Case().Get(ctx, caseID)
	if err != nil {
		return nil, goerr.Wrap(ErrCaseNotFound, "case not found", goerr.V(CaseIDKey, caseID))
	}

	if !access.CanView(c, actor) {
		return nil, goerr.Wrap(ErrPermissionDenied, "no standing on this case",
			goerr.V(CaseIDKey, caseID), goerr.V(UserIDKey, actor.UserID))
	}

	prev := c.Status.Normalize()

	updated, err := uc.repo.Case().UpdateStatus(ctx, caseID, prev, newStatus)
	if err != nil {
		if errors.Is(err, interfaces.ErrStatusConflict) {
			return nil, goerr.Wrap(ErrStatusConflict, "case status changed concurrently",
				goerr.V(CaseIDKey, caseID), goerr.V("expected", prev))
		}
		return nil, goerr.Wrap(err, "failed to update case status", goerr.V(CaseIDKey, caseID))
	}

	if note == "" {
		note = fmt.Sprintf("status updated from %s to %s", prev, newStatus)
	}

	entry, err := uc.repo.Timeline().Append(ctx, model.NewTimelineEntry(caseID, newStatus, note, actor.UserID))
	if err != nil {
		// The status write already landed, but without an audit record the
		// transition must not fan out.
		return nil, goerr.Wrap(err, "failed to append timeline entry", goerr.V(CaseIDKey, caseID))
	}

	async.Dispatch(ctx, func(ctx context.Context) error {
		return uc.notifier.DispatchStatusChange(ctx, updated, prev, newStatus, note, actor.UserID, actor.Role)
	})

	return &StatusTransition{
		Case:     updated,
		Previous: prev,
		Timeline: entry,
	}, nil
}

// GetTimeline returns a case's status history in commit order
func (uc *StatusUseCase) GetTimeline(ctx context.Context, actor *auth.Identity, caseID int64) ([]*model.TimelineEntry, error) {
	c, err := uc.repo.Case().Get(ctx, caseID)
	if err != nil {
		return nil, goerr.Wrap(ErrCaseNotFound, "case not found", goerr.V(CaseIDKey, caseID))
	}

	if !access.CanView(c, actor) {
		return nil, goerr.Wrap(ErrPermissionDenied, "no standing on this case",
			goerr.V(CaseIDKey, caseID), goerr.V(UserIDKey, actor.UserID))
	}

	entries, err := uc.repo.Timeline().ListByCase(ctx, caseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list timeline", goerr.V(CaseIDKey, caseID))
	}

	return entries, nil
}
