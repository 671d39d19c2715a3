package repository_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/m-mizutani/gt"

	"github.com/docket-labs/docket/pkg/domain/interfaces"
	"github.com/docket-labs/docket/pkg/domain/model"
	"github.com/docket-labs/docket/pkg/domain/types"
	"github.com/docket-labs/docket/pkg/repository/memory"
)

func runNotificationRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("Create stores notification unread", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		n, err := repo.Notification().Create(ctx, &model.Notification{
			RecipientID: "staff-1",
			Title:       "Visa application: under_review",
			Body:        "picked up for review",
			Type:        model.NotificationTypeStatus,
			Priority:    model.NotificationPriorityNormal,
			Data:        map[string]any{"case_id": int64(1)},
		})
		gt.NoError(t, err).Required()

		gt.Value(t, string(n.ID)).NotEqual("")
		gt.Bool(t, n.Read).False()
		gt.Bool(t, n.CreatedAt.IsZero()).False()
	})

	t.Run("ListByRecipient returns only the recipient's feed", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		recipient := types.UserID("user-" + uuid.NewString())
		other := types.UserID("user-" + uuid.NewString())

		for i := 0; i < 2; i++ {
			_, err := repo.Notification().Create(ctx, &model.Notification{
				RecipientID: recipient, Title: "mine",
			})
			gt.NoError(t, err).Required()
		}
		_, err := repo.Notification().Create(ctx, &model.Notification{
			RecipientID: other, Title: "theirs",
		})
		gt.NoError(t, err).Required()

		ns, err := repo.Notification().ListByRecipient(ctx, recipient)
		gt.NoError(t, err).Required()
		gt.Array(t, ns).Length(2)
		for _, n := range ns {
			gt.Value(t, n.RecipientID).Equal(recipient)
		}
	})

	t.Run("MarkRead is scoped to the recipient", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		n, err := repo.Notification().Create(ctx, &model.Notification{
			RecipientID: "staff-1", Title: "status changed",
		})
		gt.NoError(t, err).Required()

		// A different user cannot flip the flag, and cannot learn the
		// notification exists
		_, err = repo.Notification().MarkRead(ctx, n.ID, "staff-2")
		gt.Error(t, err).Is(interfaces.ErrNotFound)

		read, err := repo.Notification().MarkRead(ctx, n.ID, "staff-1")
		gt.NoError(t, err).Required()
		gt.Bool(t, read.Read).True()
	})

	t.Run("Delete is scoped to the recipient", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		n, err := repo.Notification().Create(ctx, &model.Notification{
			RecipientID: "staff-1", Title: "to be removed",
		})
		gt.NoError(t, err).Required()

		gt.Error(t, repo.Notification().Delete(ctx, n.ID, "staff-2")).Is(interfaces.ErrNotFound)
		gt.NoError(t, repo.Notification().Delete(ctx, n.ID, "staff-1"))

		_, err = repo.Notification().Get(ctx, n.ID)
		gt.Error(t, err).Is(interfaces.ErrNotFound)
	})

	t.Run("UnreadCount tracks read state", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		recipient := types.UserID("user-" + uuid.NewString())

		n1, err := repo.Notification().Create(ctx, &model.Notification{
			RecipientID: recipient, Title: "one",
		})
		gt.NoError(t, err).Required()
		_, err = repo.Notification().Create(ctx, &model.Notification{
			RecipientID: recipient, Title: "two",
		})
		gt.NoError(t, err).Required()

		count, err := repo.Notification().UnreadCount(ctx, recipient)
		gt.NoError(t, err).Required()
		gt.Value(t, count).Equal(2)

		_, err = repo.Notification().MarkRead(ctx, n1.ID, recipient)
		gt.NoError(t, err).Required()

		count, err = repo.Notification().UnreadCount(ctx, recipient)
		gt.NoError(t, err).Required()
		gt.Value(t, count).Equal(1)
	})
}

func TestNotificationRepository_Memory(t *testing.T) {
	runNotificationRepositoryTest(t, func(t *testing.T) interfaces.Repository {
		return memory.New()
	})
}

func TestNotificationRepository_Firestore(t *testing.T) {
	runNotificationRepositoryTest(t, newFirestoreRepo)
}
