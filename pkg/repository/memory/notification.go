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

type notificationRepository struct {
	mu            sync.RWMutex
	notifications map[types.NotificationID]*model.Notification
}

var _ interfaces.NotificationRepository = &notificationRepository{}

func newNotificationRepository() *notificationRepository {
	return &notificationRepository{
		notifications: make(map[types.NotificationID]*model.Notification),
	}
}

func copyNotification(n *model.Notification) *model.Notification {
	copied := *n
	if n.Data != nil {
		copied.Data = make(map[string]any, len(n.Data))
		for k, v := range n.Data {
			copied.Data[k] = v
		}
	}
	return &copied
}

func (r *notificationRepository) Create(ctx context.Context, n *model.Notification) (*model.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	created := copyNotification(n)
	if created.ID == "" {
		created.ID = types.NewNotificationID()
	}
	created.CreatedAt = time.Now().UTC()

	r.notifications[created.ID] = created
	return copyNotification(created), nil
}

func (r *notificationRepository) Get(ctx context.Context, id types.NotificationID) (*model.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n, exists := r.notifications[id]
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "notification not found", goerr.V("id", id))
	}

	return copyNotification(n), nil
}

func (r *notificationRepository) ListByRecipient(ctx context.Context, recipientID types.UserID) ([]*model.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*model.Notification, 0)
	for _, n := range r.notifications {
		if n.RecipientID == recipientID {
			result = append(result, copyNotification(n))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, id types.NotificationID, recipientID types.UserID) (*model.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, exists := r.notifications[id]
	if !exists || n.RecipientID != recipientID {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "notification not found", goerr.V("id", id))
	}

	n.Read = true
	return copyNotification(n), nil
}

func (r *notificationRepository) Delete(ctx context.Context, id types.NotificationID, recipientID types.UserID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, exists := r.notifications[id]
	if !exists || n.RecipientID != recipientID {
		return goerr.Wrap(interfaces.ErrNotFound, "notification not found", goerr.V("id", id))
	}

	delete(r.notifications, id)
	return nil
}

func (r *notificationRepository) UnreadCount(ctx context.Context, recipientID types.UserID) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, n := range r.notifications {
		if n.RecipientID == recipientID && !n.Read {
			count++
		}
	}

	return count, nil
}
