package usecase

import (
	"context"
	"errors"

	"github.com/m-mizutani/goerr/v2"

	"github.com/docket-labs/docket/pkg/domain/access"
	"github.com/docket-labs/docket/pkg/domain/interfaces"
	"github.com/docket-labs/docket/pkg/domain/model"
	"github.com/docket-labs/docket/pkg/domain/model/auth"
	"github.com/docket-labs/docket/pkg/domain/model/config"
	"github.com/docket-labs/docket/pkg/domain/types"
	"github.com/docket-labs/docket/pkg/utils/errutil"
)

// ConversationUseCase routes case conversations: who sees which
// conversation, message history, sending and read/delete state.
type ConversationUseCase struct {
	repo   interfaces.Repository
	pub    interfaces.Publisher
	policy config.Policy
}

func NewConversationUseCase(repo interfaces.Repository, pub interfaces.Publisher, policy config.Policy) *ConversationUseCase {
	return &ConversationUseCase{
		repo:   repo,
		pub:    pub,
		policy: policy,
	}
}

// visibleCases enumerates the cases the actor may see, per role
func (uc *ConversationUseCase) visibleCases(ctx context.Context, actor *auth.Identity) ([]*model.Case, error) {
	switch actor.Role {
	case types.RoleClient:
		return uc.repo.Case().ListByOwner(ctx, actor.UserID)
	case types.RoleStaff:
		return uc.repo.Case().ListByStaff(ctx, actor.UserID)
	case types.RoleAdmin:
		return uc.repo.Case().List(ctx)
	default:
		return nil, goerr.Wrap(ErrPermissionDenied, "unknown role", goerr.V("role", actor.Role))
	}
}

// ListConversations returns the actor's conversation summaries, newest
// case activity first. Cases with no resolvable counterpart are dropped:
// there is no one to talk to yet.
func (uc *ConversationUseCase) ListConversations(ctx context.Context, actor *auth.Identity) ([]*model.Conversation, error) {
	cases, err := uc.visibleCases(ctx, actor)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list cases", goerr.V(UserIDKey, actor.UserID))
	}

	conversations := make([]*model.Conversation, 0, len(cases))
	for _, c := range cases {
		counterpart, err := access.ResolveCounterpart(c, actor)
		if err != nil {
			// The enumeration already scoped cases to the actor; a denial
			// here would mean the two rule sets disagree.
			return nil, goerr.Wrap(ErrPermissionDenied, "counterpart resolution denied",
				goerr.V(CaseIDKey, c.ID), goerr.V(UserIDKey, actor.UserID))
		}
		if counterpart == "" {
			continue
		}

		last, err := uc.repo.Message().LatestVisible(ctx, c.ID)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to get last message", goerr.V(CaseIDKey, c.ID))
		}
		unread, err := uc.repo.Message().UnreadCount(ctx, c.ID, actor.UserID)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to count unread messages", goerr.V(CaseIDKey, c.ID))
		}

		conversations = append(conversations, &model.Conversation{
			Case:           c,
			CounterpartID:  counterpart,
			LastMessage:    last,
			UnreadMessages: unread,
		})
	}

	return conversations, nil
}

// CanAccessCase checks whether the actor may view the case at all. Used by
// the live transport before letting a session join a case channel.
func (uc *ConversationUseCase) CanAccessCase(ctx context.Context, actor *auth.Identity, caseID int64) error {
	c, err := uc.repo.Case().Get(ctx, caseID)
	if err != nil {
		return goerr.Wrap(ErrCaseNotFound, "case not found", goerr.V(CaseIDKey, caseID))
	}
	if !access.CanView(c, actor) {
		return goerr.Wrap(ErrPermissionDenied, "no standing on this case",
			goerr.V(CaseIDKey, caseID), goerr.V(UserIDKey, actor.UserID))
	}
	return nil
}

// GetMessages returns one page of a case's history, newest first. Every
// returned message addressed to the actor and not yet read is marked read
// in one batch; this is the only place viewing changes read state.
func (uc *ConversationUseCase) GetMessages(ctx context.Context, actor *auth.Identity, caseID int64, page, pageSize int) ([]*model.Message, error) {
	c, err := uc.repo.Case().Get(ctx, caseID)
	if err != nil {
		return nil, goerr.Wrap(ErrCaseNotFound, "case not found", goerr.V(CaseIDKey, caseID))
	}

	if !access.CanView(c, actor) {
		return nil, goerr.Wrap(ErrPermissionDenied, "no standing on this case",
			goerr.V(CaseIDKey, caseID), goerr.V(UserIDKey, actor.UserID))
	}

	if pageSize <= 0 {
		pageSize = uc.policy.DefaultPageSize
	}

	msgs, err := uc.repo.Message().ListByCase(ctx, caseID, page, pageSize)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list messages", goerr.V(CaseIDKey, caseID))
	}

	var unreadIDs []types.MessageID
	for _, m := range msgs {
		if m.RecipientID == actor.UserID && !m.Read && !m.Deleted {
			unreadIDs = append(unreadIDs, m.ID)
		}
	}

	if len(unreadIDs) > 0 {
		affected, err := uc.repo.Message().MarkRead(ctx, actor.UserID, unreadIDs)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to mark messages read", goerr.V(CaseIDKey, caseID))
		}
		uc.notifyMessagesRead(actor, affected)

		read := make(map[types.MessageID]*model.Message, len(affected))
		for _, m := range affected {
			read[m.ID] = m
		}
		for i, m := range msgs {
			if r, ok := read[m.ID]; ok {
				msgs[i] = r
			}
		}
	}

	return msgs, nil
}

// SendMessage resolves the counterpart, persists the message and pushes it
// to the sender's and recipient's personal channels plus the case channel
// for any other live viewer.
func (uc *ConversationUseCase) SendMessage(ctx context.Context, actor *auth.Identity, caseID int64, body string, msgType types.MessageType, replyTo types.MessageID) (*model.Message, error) {
	if body == "" {
		return nil, goerr.Wrap(ErrInvalidInput, "message body is required", goerr.V(CaseIDKey, caseID))
	}
	msgType = msgType.Normalize()
	if !msgType.IsValid() {
		return nil, goerr.Wrap(ErrInvalidInput, "unknown message type", goerr.V("type", msgType))
	}

	c, err := uc.repo.Case().Get(ctx, caseID)
	if err != nil {
		return nil, goerr.Wrap(ErrCaseNotFound, "case not found", goerr.V(CaseIDKey, caseID))
	}

	recipient, err := access.ResolveCounterpart(c, actor)
	if err != nil {
		return nil, goerr.Wrap(ErrPermissionDenied, "no standing on this case",
			goerr.V(CaseIDKey, caseID), goerr.V(UserIDKey, actor.UserID))
	}
	if recipient == "" {
		return nil, goerr.Wrap(ErrNoRecipient, "case has no assigned staff yet", goerr.V(CaseIDKey, caseID))
	}

	created, err := uc.repo.Message().Create(ctx, &model.Message{
		CaseID:      caseID,
		SenderID:    actor.UserID,
		RecipientID: recipient,
		Body:        body,
		Type:        msgType,
		ReplyTo:     replyTo,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to persist message", goerr.V(CaseIDKey, caseID))
	}

	// Refresh the case's activity timestamp so conversation ordering
	// follows the latest message. Only UpdatedAt is written: the case
	// snapshot read above may already be stale, and a concurrent status
	// transition must survive. Failure here must not undo the send.
	if err := uc.repo.Case().Touch(ctx, caseID); err != nil {
		_ = errutil.Handle(ctx, err, "failed to touch case after message send")
	}

	payload := messagePayload(created)
	uc.pub.Publish(types.UserChannel(created.SenderID), types.EventNewMessage, payload)
	uc.pub.Publish(types.UserChannel(created.RecipientID), types.EventNewMessage, payload)
	uc.pub.Publish(types.CaseChannel(caseID), types.EventNewMessage, payload)

	return created, nil
}

// MarkMessagesRead batch-marks the given messages read for the actor and
// tells each original sender which of their messages were seen.
func (uc *ConversationUseCase) MarkMessagesRead(ctx context.Context, actor *auth.Identity, ids []types.MessageID) ([]*model.Message, error) {
	if len(ids) == 0 {
		return nil, goerr.Wrap(ErrInvalidInput, "message ids are required")
	}

	affected, err := uc.repo.Message().MarkRead(ctx, actor.UserID, ids)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to mark messages read", goerr.V(UserIDKey, actor.UserID))
	}

	uc.notifyMessagesRead(actor, affected)
	return affected, nil
}

// DeleteMessage soft-deletes a message. Only the sender may delete.
func (uc *ConversationUseCase) DeleteMessage(ctx context.Context, actor *auth.Identity, id types.MessageID) error {
	m, err := uc.repo.Message().Get(ctx, id)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return goerr.Wrap(ErrMessageNotFound, "message not found", goerr.V(MessageIDKey, id))
		}
		return goerr.Wrap(err, "failed to get message", goerr.V(MessageIDKey, id))
	}

	if m.SenderID != actor.UserID {
		return goerr.Wrap(ErrPermissionDenied, "only the sender may delete a message",
			goerr.V(MessageIDKey, id), goerr.V(UserIDKey, actor.UserID))
	}

	if _, err := uc.repo.Message().SoftDelete(ctx, id, actor.UserID); err != nil {
		return goerr.Wrap(err, "failed to delete message", goerr.V(MessageIDKey, id))
	}

	return nil
}

// notifyMessagesRead emits one messages_read event per original sender,
// carrying only that sender's message ids.
func (uc *ConversationUseCase) notifyMessagesRead(actor *auth.Identity, affected []*model.Message) {
	bySender := make(map[types.UserID][]string)
	byCase := make(map[types.UserID]int64)
	for _, m := range affected {
		bySender[m.SenderID] = append(bySender[m.SenderID], string(m.ID))
		byCase[m.SenderID] = m.CaseID
	}

	for senderID, msgIDs := range bySender {
		uc.pub.Publish(types.UserChannel(senderID), types.EventMessagesRead, map[string]any{
			"messageIds": msgIDs,
			"readerId":   string(actor.UserID),
			"caseId":     byCase[senderID],
		})
	}
}

// messagePayload is the wire shape of a message push, matching the stored
// field contract
func messagePayload(m *model.Message) map[string]any {
	return map[string]any{
		"id":          string(m.ID),
		"caseId":      m.CaseID,
		"senderId":    string(m.SenderID),
		"recipientId": string(m.RecipientID),
		"content":     m.Body,
		"type":        string(m.Type),
		"replyTo":     string(m.ReplyTo),
		"isRead":      m.Read,
		"createdAt":   m.CreatedAt,
	}
}
