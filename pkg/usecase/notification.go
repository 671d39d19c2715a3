package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/sync/errgroup"

	"github.com/docket-labs/docket/pkg/domain/interfaces"
	"github.com/docket-labs/docket/pkg/domain/model"
	"github.com/docket-labs/docket/pkg/domain/model/auth"
	"github.com/docket-labs/docket/pkg/domain/model/config"
	"github.com/docket-labs/docket/pkg/domain/types"
	"github.com/docket-labs/docket/pkg/utils/errutil"
)

// maxFanoutWorkers bounds concurrent notification writes per dispatch
const maxFanoutWorkers = 8

// NotificationUseCase creates durable notifications, fans them out over the
// live transport and serves the per-user notification API.
type NotificationUseCase struct {
	repo   interfaces.Repository
	pub    interfaces.Publisher
	policy config.Policy
}

func NewNotificationUseCase(repo interfaces.Repository, pub interfaces.Publisher, policy config.Policy) *NotificationUseCase {
	return &NotificationUseCase{
		repo:   repo,
		pub:    pub,
		policy: policy,
	}
}

// DispatchStatusChange notifies everyone involved in a case about a
// committed status transition, except the actor who caused it. One durable
// record per recipient; a failed write for one recipient is logged and does
// not block the rest of the fanout.
func (uc *NotificationUseCase) DispatchStatusChange(ctx context.Context, c *model.Case, prev, next types.CaseStatus, note string, actorID types.UserID, actorRole types.Role) error {
	recipients := uc.statusChangeRecipients(ctx, c, actorID, actorRole)

	priority := model.NotificationPriorityNormal
	if next == types.CaseStatusRejected {
		priority = model.NotificationPriorityHigh
	}

	var g errgroup.Group
	g.SetLimit(maxFanoutWorkers)
	for _, recipientID := range recipients {
		g.Go(func() error {
			created, err := uc.repo.Notification().Create(ctx, &model.Notification{
				RecipientID: recipientID,
				Title:       fmt.Sprintf("%s: %s", c.Title, next),
				Body:        note,
				Type:        model.NotificationTypeStatus,
				Priority:    priority,
				Data: map[string]any{
					"case_id":         c.ID,
					"status":          string(next),
					"previous_status": string(prev),
					"actor_id":        string(actorID),
				},
			})
			if err != nil {
				// One failed recipient must not block the rest
				_ = errutil.Handle(ctx, err, "failed to create notification")
				return nil
			}

			payload := notificationPayload(created)
			uc.pub.Publish(types.UserChannel(recipientID), types.EventStatusNotification, payload)
			uc.pub.Publish(types.UserChannel(recipientID), types.EventNotification, payload)
			return nil
		})
	}

	return g.Wait()
}

// statusChangeRecipients resolves the fanout set: the case owner, every
// assigned staff member and all admins, minus the actor. Peer admins are
// skipped for admin-caused changes unless the policy says otherwise.
func (uc *NotificationUseCase) statusChangeRecipients(ctx context.Context, c *model.Case, actorID types.UserID, actorRole types.Role) []types.UserID {
	seen := map[types.UserID]struct{}{actorID: {}}
	var recipients []types.UserID

	add := func(id types.UserID) {
		if id == "" {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		recipients = append(recipients, id)
	}

	add(c.OwnerID)
	for _, staffID := range c.AssignedStaffIDs {
		add(staffID)
	}

	if actorRole != types.RoleAdmin || uc.policy.NotifyPeerAdmins {
		admins, err := uc.repo.User().ListByRole(ctx, types.RoleAdmin)
		if err != nil {
			_ = errutil.Handle(ctx, err, "failed to list admins for fanout")
		}
		for _, admin := range admins {
			add(admin.ID)
		}
	}

	return recipients
}

// ListForUser returns a user's notifications, newest first. Admins may read
// any user's feed; everyone else only their own.
func (uc *NotificationUseCase) ListForUser(ctx context.Context, actor *auth.Identity, userID types.UserID) ([]*model.Notification, error) {
	if userID != actor.UserID && actor.Role != types.RoleAdmin {
		return nil, goerr.Wrap(ErrPermissionDenied, "cannot read another user's notifications",
			goerr.V(UserIDKey, actor.UserID))
	}

	ns, err := uc.repo.Notification().ListByRecipient(ctx, userID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list notifications", goerr.V(UserIDKey, userID))
	}

	return ns, nil
}

// MarkRead flags one of the actor's notifications as read
func (uc *NotificationUseCase) MarkRead(ctx context.Context, actor *auth.Identity, id types.NotificationID) (*model.Notification, error) {
	n, err := uc.repo.Notification().MarkRead(ctx, id, actor.UserID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, goerr.Wrap(ErrNotificationNotFound, "notification not found",
				goerr.V("notification_id", id), goerr.V(UserIDKey, actor.UserID))
		}
		return nil, goerr.Wrap(err, "failed to mark notification read", goerr.V("notification_id", id))
	}

	return n, nil
}

// Delete removes one of the actor's notifications
func (uc *NotificationUseCase) Delete(ctx context.Context, actor *auth.Identity, id types.NotificationID) error {
	if err := uc.repo.Notification().Delete(ctx, id, actor.UserID); err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return goerr.Wrap(ErrNotificationNotFound, "notification not found",
				goerr.V("notification_id", id), goerr.V(UserIDKey, actor.UserID))
		}
		return goerr.Wrap(err, "failed to delete notification", goerr.V("notification_id", id))
	}

	return nil
}

// UnreadCount returns how many unread notifications the actor has
func (uc *NotificationUseCase) UnreadCount(ctx context.Context, actor *auth.Identity) (int, error) {
	count, err := uc.repo.Notification().UnreadCount(ctx, actor.UserID)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to count unread notifications", goerr.V(UserIDKey, actor.UserID))
	}

	return count, nil
}

func notificationPayload(n *model.Notification) map[string]any {
	return map[string]any{
		"id":          string(n.ID),
		"recipientId": string(n.RecipientID),
		"title":       n.Title,
		"body":        n.Body,
		"type":        n.Type,
		"priority":    n.Priority,
		"data":        n.Data,
		"isRead":      n.Read,
		"createdAt":   n.CreatedAt,
	}
}
