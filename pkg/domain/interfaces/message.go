package interfaces

import (
	"context"

	"github.com/docket-labs/docket/pkg/domain/model"
	"github.com/docket-labs/docket/pkg/domain/types"
)

// MessageRepository defines the interface for the durable message log
type MessageRepository interface {
	// Create persists a new message
	Create(ctx context.Context, m *model.Message) (*model.Message, error)

	// Get retrieves a message by ID
	Get(ctx context.Context, id types.MessageID) (*model.Message, error)

	// ListByCase retrieves one page of a case's messages in descending
	// creation order (newest first). page starts at 1.
	ListByCase(ctx context.Context, caseID int64, page, pageSize int) ([]*model.Message, error)

	// MarkRead marks the given messages as read, but only those addressed
	// to readerID and not yet read. Returns the messages actually affected,
	// so the operation is idempotent: a second identical call affects none.
	MarkRead(ctx context.Context, readerID types.UserID, ids []types.MessageID) ([]*model.Message, error)

	// SoftDelete flags a message as deleted without removing the row
	SoftDelete(ctx context.Context, id types.MessageID, deletedBy types.UserID) (*model.Message, error)

	// UnreadCount counts visible unread messages addressed to the user
	// within the case
	UnreadCount(ctx context.Context, caseID int64, userID types.UserID) (int, error)

	// LatestVisible returns the newest non-deleted message of the case, or
	// nil when the case has no visible messages.
	LatestVisible(ctx context.Context, caseID int64) (*model.Message, error)
}
