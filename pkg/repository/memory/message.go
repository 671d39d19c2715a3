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

type messageRepository struct {
	mu       sync.RWMutex
	messages map[types.MessageID]*model.Message
}

var _ interfaces.MessageRepository = &messageRepository{}

func newMessageRepository() *messageRepository {
	return &messageRepository{
		messages: make(map[types.MessageID]*model.Message),
	}
}

func copyMessage(m *model.Message) *model.Message {
	copied := *m
	return &copied
}

func (r *messageRepository) Create(ctx context.Context, m *model.Message) (*model.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	created := copyMessage(m)
	if created.ID == "" {
		created.ID = types.NewMessageID()
	}
	created.Type = m.Type.Normalize()
	created.CreatedAt = time.Now().UTC()

	r.messages[created.ID] = created
	return copyMessage(created), nil
}

func (r *messageRepository) Get(ctx context.Context, id types.MessageID) (*model.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, exists := r.messages[id]
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "message not found", goerr.V("id", id))
	}

	return copyMessage(m), nil
}

func (r *messageRepository) ListByCase(ctx context.Context, caseID int64, page, pageSize int) ([]*model.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 50
	}

	var msgs []*model.Message
	for _, m := range r.messages {
		if m.CaseID == caseID {
			msgs = append(msgs, copyMessage(m))
		}
	}

	sort.Slice(msgs, func(i, j int) bool {
		return msgs[i].CreatedAt.After(msgs[j].CreatedAt)
	})

	start := (page - 1) * pageSize
	if start >= len(msgs) {
		return []*model.Message{}, nil
	}
	end := start + pageSize
	if end > len(msgs) {
		end = len(msgs)
	}

	return msgs[start:end], nil
}

func (r *messageRepository) MarkRead(ctx context.Context, readerID types.UserID, ids []types.MessageID) ([]*model.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	var affected []*model.Message
	for _, id := range ids {
		m, exists := r.messages[id]
		if !exists {
			continue
		}
		if m.RecipientID != readerID || m.Read || m.Deleted {
			continue
		}
		m.Read = true
		m.ReadAt = now
		affected = append(affected, copyMessage(m))
	}

	return affected, nil
}

func (r *messageRepository) SoftDelete(ctx context.Context, id types.MessageID, deletedBy types.UserID) (*model.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, exists := r.messages[id]
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "message not found", goerr.V("id", id))
	}

	m.Deleted = true
	m.DeletedBy = deletedBy
	m.DeletedAt = time.Now().UTC()

	return copyMessage(m), nil
}

func (r *messageRepository) UnreadCount(ctx context.Context, caseID int64, userID types.UserID) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, m := range r.messages {
		if m.CaseID == caseID && m.RecipientID == userID && !m.Read && !m.Deleted {
			count++
		}
	}

	return count, nil
}

func (r *messageRepository) LatestVisible(ctx context.Context, caseID int64) (*model.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var latest *model.Message
	for _, m := range r.messages {
		if m.CaseID != caseID || m.Deleted {
			continue
		}
		if latest == nil || m.CreatedAt.After(latest.CreatedAt) {
			latest = m
		}
	}

	if latest == nil {
		return nil, nil
	}
	return copyMessage(latest), nil
}
