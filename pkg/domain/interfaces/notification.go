package interfaces

import (
	"context"

	"github.com/docket-labs/docket/pkg/domain/model"
	"github.com/docket-labs/docket/pkg/domain/types"
)

// NotificationRepository defines the interface for durable notifications
type NotificationRepository interface {
	// Create persists a new notification
	Create(ctx context.Context, n *model.Notification) (*model.Notification, error)

	// Get retrieves a notification by ID
	Get(ctx context.Context, id types.NotificationID) (*model.Notification, error)

	// ListByRecipient retrieves a user's notifications, newest first
	ListByRecipient(ctx context.Context, recipientID types.UserID) ([]*model.Notification, error)

	// MarkRead sets the read flag. recipientID must match the stored
	// recipient; a mismatch is reported as ErrNotFound so callers cannot
	// probe other users' notifications.
	MarkRead(ctx context.Context, id types.NotificationID, recipientID types.UserID) (*model.Notification, error)

	// Delete removes a notification, with the same recipient scoping as
	// MarkRead
	Delete(ctx context.Context, id types.NotificationID, recipientID types.UserID) error

	// UnreadCount counts the user's unread notifications
	UnreadCount(ctx context.Context, recipientID types.UserID) (int, error)
}
