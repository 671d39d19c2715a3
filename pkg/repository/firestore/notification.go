package firestore

import (
	"context"
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

type notificationRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

var _ interfaces.NotificationRepository = &notificationRepository{}

func newNotificationRepository(client *firestore.Client) *notificationRepository {
	return &notificationRepository{client: client}
}

func (r *notificationRepository) collection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_notifications"
	}
	return "notifications"
}

type notificationDoc struct {
	ID          string         `firestore:"id"`
	RecipientID string         `firestore:"recipient_id"`
	Title       string         `firestore:"title"`
	Body        string         `firestore:"body"`
	Type        string         `firestore:"type"`
	Priority    string         `firestore:"priority"`
	Data        map[string]any `firestore:"data"`
	Read        bool           `firestore:"read"`
	CreatedAt   time.Time      `firestore:"created_at"`
}

func (d *notificationDoc) toModel() *model.Notification {
	return &model.Notification{
		ID:          types.NotificationID(d.ID),
		RecipientID: types.UserID(d.RecipientID),
		Title:       d.Title,
		Body:        d.Body,
		Type:        d.Type,
		Priority:    d.Priority,
		Data:        d.Data,
		Read:        d.Read,
		CreatedAt:   d.CreatedAt,
	}
}

func (r *notificationRepository) Create(ctx context.Context, n *model.Notification) (*model.Notification, error) {
	created := *n
	if created.ID == "" {
		created.ID = types.NewNotificationID()
	}
	created.CreatedAt = time.Now().UTC()

	doc := &notificationDoc{
		ID:          string(created.ID),
		RecipientID: string(created.RecipientID),
		Title:       created.Title,
		Body:        created.Body,
		Type:        created.Type,
		Priority:    created.Priority,
		Data:        created.Data,
		Read:        created.Read,
		CreatedAt:   created.CreatedAt,
	}

	docRef := r.client.Collection(r.collection()).Doc(string(created.ID))
	if _, err := docRef.Set(ctx, doc); err != nil {
		return nil, goerr.Wrap(err, "failed to create notification", goerr.V("id", created.ID))
	}

	return &created, nil
}

func (r *notificationRepository) Get(ctx context.Context, id types.NotificationID) (*model.Notification, error) {
	docSnap, err := r.client.Collection(r.collection()).Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "notification not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get notification", goerr.V("id", id))
	}

	var d notificationDoc
	if err := docSnap.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to decode notification", goerr.V("id", id))
	}

	return d.toModel(), nil
}

func (r *notificationRepository) ListByRecipient(ctx context.Context, recipientID types.UserID) ([]*model.Notification, error) {
	q := r.client.Collection(r.collection()).
		Where("recipient_id", "==", string(recipientID)).
		OrderBy("created_at", firestore.Desc)

	iter := q.Documents(ctx)
	defer iter.Stop()

	var notifications []*model.Notification
	for {
		docSnap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate notifications", goerr.V("recipient_id", recipientID))
		}

		var d notificationDoc
		if err := docSnap.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to decode notification", goerr.V("doc_id", docSnap.Ref.ID))
		}

		notifications = append(notifications, d.toModel())
	}

	return notifications, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, id types.NotificationID, recipientID types.UserID) (*model.Notification, error) {
	n, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.RecipientID != recipientID {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "notification not found", goerr.V("id", id))
	}

	docRef := r.client.Collection(r.collection()).Doc(string(id))
	if _, err := docRef.Update(ctx, []firestore.Update{
		{Path: "read", Value: true},
	}); err != nil {
		return nil, goerr.Wrap(err, "failed to mark notification read", goerr.V("id", id))
	}

	n.Read = true
	return n, nil
}

func (r *notificationRepository) Delete(ctx context.Context, id types.NotificationID, recipientID types.UserID) error {
	n, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	if n.RecipientID != recipientID {
		return goerr.Wrap(interfaces.ErrNotFound, "notification not found", goerr.V("id", id))
	}

	if _, err := r.client.Collection(r.collection()).Doc(string(id)).Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete notification", goerr.V("id", id))
	}

	return nil
}

func (r *notificationRepository) UnreadCount(ctx context.Context, recipientID types.UserID) (int, error) {
	q := r.client.Collection(r.collection()).
		Where("recipient_id", "==", string(recipientID)).
		Where("read", "==", false)

	iter := q.Documents(ctx)
	defer iter.Stop()

	count := 0
	for {
		_, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return 0, goerr.Wrap(err, "failed to count unread notifications", goerr.V("recipient_id", recipientID))
		}
		count++
	}

	return count, nil
}
