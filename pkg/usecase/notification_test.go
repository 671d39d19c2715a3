package usecase_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/docket-labs/docket/pkg/domain/interfaces"
	"github.com/docket-labs/docket/pkg/domain/model"
	"github.com/docket-labs/docket/pkg/domain/model/config"
	"github.com/docket-labs/docket/pkg/domain/types"
	"github.com/docket-labs/docket/pkg/usecase"
)

func seedAdmins(t *testing.T, repo interfaces.Repository, ids ...types.UserID) {
	t.Helper()
	for _, id := range ids {
		_, err := repo.User().Put(context.Background(), &model.User{
			ID: id, Name: string(id), Role: types.RoleAdmin,
		})
		gt.NoError(t, err).Required()
	}
}

func TestDispatchStatusChange(t *testing.T) {
	t.Run("notifies owner, staff and admins but never the actor", func(t *testing.T) {
		repo := newMemoryRepo()
		pub := &recordPublisher{}
		uc := usecase.New(repo, usecase.WithPublisher(pub))
		ctx := context.Background()

		seedAdmins(t, repo, "admin-1")
		c := seedCase(t, repo, "staff-1", "staff-2")

		err := uc.Notification.DispatchStatusChange(ctx, c,
			types.CaseStatusSubmitted, types.CaseStatusUnderReview,
			"picked up", "staff-1", types.RoleStaff)
		gt.NoError(t, err).Required()

		for _, recipient := range []types.UserID{"client-1", "staff-2", "admin-1"} {
			ns, err := repo.Notification().ListByRecipient(ctx, recipient)
			gt.NoError(t, err).Required()
			gt.Array(t, ns).Length(1)
			gt.Value(t, ns[0].Priority).Equal(model.NotificationPriorityNormal)

			// Each recipient gets both the status event and the generic
			// notification event on their personal channel
			gt.Array(t, pub.on(types.UserChannel(recipient), types.EventStatusNotification)).Length(1)
			gt.Array(t, pub.on(types.UserChannel(recipient), types.EventNotification)).Length(1)
		}

		actorNs, err := repo.Notification().ListByRecipient(ctx, "staff-1")
		gt.NoError(t, err).Required()
		gt.Array(t, actorNs).Length(0)
	})

	t.Run("admin actor does not ping peer admins by default", func(t *testing.T) {
		repo := newMemoryRepo()
		uc := usecase.New(repo)
		ctx := context.Background()

		seedAdmins(t, repo, "admin-1", "admin-2")
		c := seedCase(t, repo, "staff-1")

		err := uc.Notification.DispatchStatusChange(ctx, c,
			types.CaseStatusSubmitted, types.CaseStatusUnderReview,
			"", "admin-1", types.RoleAdmin)
		gt.NoError(t, err).Required()

		ns, err := repo.Notification().ListByRecipient(ctx, "admin-2")
		gt.NoError(t, err).Required()
		gt.Array(t, ns).Length(0)

		// Owner and staff are still notified
		ns, err = repo.Notification().ListByRecipient(ctx, "client-1")
		gt.NoError(t, err).Required()
		gt.Array(t, ns).Length(1)
	})

	t.Run("peer admin fanout can be enabled by policy", func(t *testing.T) {
		repo := newMemoryRepo()
		policy := config.DefaultPolicy()
		policy.NotifyPeerAdmins = true
		uc := usecase.New(repo, usecase.WithPolicy(policy))
		ctx := context.Background()

		seedAdmins(t, repo, "admin-1", "admin-2")
		c := seedCase(t, repo, "staff-1")

		err := uc.Notification.DispatchStatusChange(ctx, c,
			types.CaseStatusSubmitted, types.CaseStatusUnderReview,
			"", "admin-1", types.RoleAdmin)
		gt.NoError(t, err).Required()

		ns, err := repo.Notification().ListByRecipient(ctx, "admin-2")
		gt.NoError(t, err).Required()
		gt.Array(t, ns).Length(1)

		// The acting admin is still excluded
		ns, err = repo.Notification().ListByRecipient(ctx, "admin-1")
		gt.NoError(t, err).Required()
		gt.Array(t, ns).Length(0)
	})

	t.Run("rejection is high priority", func(t *testing.T) {
		repo := newMemoryRepo()
		uc := usecase.New(repo)
		ctx := context.Background()

		c := seedCase(t, repo, "staff-1")

		err := uc.Notification.DispatchStatusChange(ctx, c,
			types.CaseStatusUnderReview, types.CaseStatusRejected,
			"missing documents", "staff-1", types.RoleStaff)
		gt.NoError(t, err).Required()

		ns, err := repo.Notification().ListByRecipient(ctx, "client-1")
		gt.NoError(t, err).Required()
		gt.Array(t, ns).Length(1)
		gt.Value(t, ns[0].Priority).Equal(model.NotificationPriorityHigh)
	})

	t.Run("owner who is also assigned gets one notification", func(t *testing.T) {
		repo := newMemoryRepo()
		uc := usecase.New(repo)
		ctx := context.Background()

		c, err := repo.Case().Create(ctx, &model.Case{
			Title:            "Self-handled",
			OwnerID:          "hybrid-1",
			AssignedStaffIDs: []types.UserID{"hybrid-1", "staff-2"},
		})
		gt.NoError(t, err).Required()

		err = uc.Notification.DispatchStatusChange(ctx, c,
			types.CaseStatusSubmitted, types.CaseStatusUnderReview,
			"", "staff-2", types.RoleStaff)
		gt.NoError(t, err).Required()

		ns, err := repo.Notification().ListByRecipient(ctx, "hybrid-1")
		gt.NoError(t, err).Required()
		gt.Array(t, ns).Length(1)
	})
}

func TestNotificationAPI(t *testing.T) {
	t.Run("users read only their own feed", func(t *testing.T) {
		repo := newMemoryRepo()
		uc := usecase.New(repo)
		ctx := context.Background()

		_, err := repo.Notification().Create(ctx, &model.Notification{
			RecipientID: "staff-1", Title: "for staff-1",
		})
		gt.NoError(t, err).Required()

		_, err = uc.Notification.ListForUser(ctx, staffIdent("staff-2"), "staff-1")
		gt.Error(t, err).Is(usecase.ErrPermissionDenied)

		// Admins may inspect any feed
		ns, err := uc.Notification.ListForUser(ctx, adminIdent("admin-1"), "staff-1")
		gt.NoError(t, err).Required()
		gt.Array(t, ns).Length(1)
	})

	t.Run("mark read and delete are recipient-scoped", func(t *testing.T) {
		repo := newMemoryRepo()
		uc := usecase.New(repo)
		ctx := context.Background()

		n, err := repo.Notification().Create(ctx, &model.Notification{
			RecipientID: "staff-1", Title: "status changed",
		})
		gt.NoError(t, err).Required()

		_, err = uc.Notification.MarkRead(ctx, staffIdent("staff-2"), n.ID)
		gt.Error(t, err).Is(usecase.ErrNotificationNotFound)

		read, err := uc.Notification.MarkRead(ctx, staffIdent("staff-1"), n.ID)
		gt.NoError(t, err).Required()
		gt.Bool(t, read.Read).True()

		err = uc.Notification.Delete(ctx, staffIdent("staff-2"), n.ID)
		gt.Error(t, err).Is(usecase.ErrNotificationNotFound)
		gt.NoError(t, uc.Notification.Delete(ctx, staffIdent("staff-1"), n.ID))
	})

	t.Run("unread count follows read state", func(t *testing.T) {
		repo := newMemoryRepo()
		uc := usecase.New(repo)
		ctx := context.Background()

		n, err := repo.Notification().Create(ctx, &model.Notification{
			RecipientID: "staff-1", Title: "one",
		})
		gt.NoError(t, err).Required()
		_, err = repo.Notification().Create(ctx, &model.Notification{
			RecipientID: "staff-1", Title: "two",
		})
		gt.NoError(t, err).Required()

		count, err := uc.Notification.UnreadCount(ctx, staffIdent("staff-1"))
		gt.NoError(t, err).Required()
		gt.Value(t, count).Equal(2)

		_, err = uc.Notification.MarkRead(ctx, staffIdent("staff-1"), n.ID)
		gt.NoError(t, err).Required()

		count, err = uc.Notification.UnreadCount(ctx, staffIdent("staff-1"))
		gt.NoError(t, err).Required()
		gt.Value(t, count).Equal(1)
	})
}
