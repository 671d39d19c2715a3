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

type messageRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

var _ interfaces.MessageRepository = &messageRepository{}

func newMessageRepository(client *firestore.Client) *messageRepository {
	return &messageRepository{client: client}
}

func (r *messageRepository) collection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_messages"
	}
	return "messages"
}

type messageDoc struct {
	ID          string    `firestore:"id"`
	CaseID      int64     `firestore:"case_id"`
	SenderID    string    `firestore:"sender_id"`
	RecipientID string    `firestore:"recipient_id"`
	Body        string    `firestore:"body"`
	Type        string    `firestore:"type"`
	ReplyTo     string    `firestore:"reply_to"`
	Read        bool      `firestore:"read"`
	ReadAt      time.Time `firestore:"read_at"`
	Deleted     bool      `firestore:"deleted"`
	DeletedBy   string    `firestore:"deleted_by"`
	DeletedAt   time.Time `firestore:"deleted_at"`
	CreatedAt   time.Time `firestore:"created_at"`
}

func messageToDoc(m *model.Message) *messageDoc {
	return &messageDoc{
		ID:          string(m.ID),
		CaseID:      m.CaseID,
		SenderID:    string(m.SenderID),
		RecipientID: string(m.RecipientID),
		Body:        m.Body,
		Type:        string(m.Type),
		ReplyTo:     string(m.ReplyTo),
		Read:        m.Read,
		ReadAt:      m.ReadAt,
		Deleted:     m.Deleted,
		DeletedBy:   string(m.DeletedBy),
		DeletedAt:   m.DeletedAt,
		CreatedAt:   m.CreatedAt,
	}
}

func (d *messageDoc) toModel() *model.Message {
	return &model.Message{
		ID:          types.MessageID(d.ID),
		CaseID:      d.CaseID,
		SenderID:    types.UserID(d.SenderID),
		RecipientID: types.UserID(d.RecipientID),
		Body:        d.Body,
		Type:        types.MessageType(d.Type).Normalize(),
		ReplyTo:     types.MessageID(d.ReplyTo),
		Read:        d.Read,
		ReadAt:      d.ReadAt,
		Deleted:     d.Deleted,
		DeletedBy:   types.UserID(d.DeletedBy),
		DeletedAt:   d.DeletedAt,
		CreatedAt:   d.CreatedAt,
	}
}

func (r *messageRepository) Create(ctx context.Context, m *model.Message) (*model.Message, error) {
	created := *m
	if created.ID == "" {
		created.ID = types.NewMessageID()
	}
	created.Type = m.Type.Normalize()
	created.CreatedAt = time.Now().UTC()

	docRef := r.client.Collection(r.collection()).Doc(string(created.ID))
	if _, err := docRef.Set(ctx, messageToDoc(&created)); err != nil {
		return nil, goerr.Wrap(err, "failed to create message", goerr.V("id", created.ID))
	}

	return &created, nil
}

func (r *messageRepository) Get(ctx context.Context, id types.MessageID) (*model.Message, error) {
	docSnap, err := r.client.Collection(r.collection()).Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "message not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get message", goerr.V("id", id))
	}

	var d messageDoc
	if err := docSnap.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to decode message", goerr.V("id", id))
	}

	return d.toModel(), nil
}

func (r *messageRepository) ListByCase(ctx context.Context, caseID int64, page, pageSize int) ([]*model.Message, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 50
	}

	q := r.client.Collection(r.collection()).
		Where("case_id", "==", caseID).
		OrderBy("created_at", firestore.Desc).
		Offset((page - 1) * pageSize).
		Limit(pageSize)

	iter := q.Documents(ctx)
	defer iter.Stop()

	msgs := make([]*model.Message, 0, pageSize)
	for {
		docSnap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate messages", goerr.V("case_id", caseID))
		}

		var d messageDoc
		if err := docSnap.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to decode message", goerr.V("doc_id", docSnap.Ref.ID))
		}

		msgs = append(msgs, d.toModel())
	}

	return msgs, nil
}

func (r *messageRepository) MarkRead(ctx context.Context, readerID types.UserID, ids []types.MessageID) ([]*model.Message, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var affected []*model.Message
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		affected = nil
		now := time.Now().UTC()

		// All reads must precede writes within the transaction
		var toUpdate []*messageDoc
		for _, id := range ids {
			docRef := r.client.Collection(r.collection()).Doc(string(id))
			docSnap, err := tx.Get(docRef)
			if err != nil {
				if status.Code(err) == codes.NotFound {
					continue
				}
				return goerr.Wrap(err, "failed to get message", goerr.V("id", id))
			}

			var d messageDoc
			if err := docSnap.DataTo(&d); err != nil {
				return goerr.Wrap(err, "failed to decode message", goerr.V("id", id))
			}
			if d.RecipientID != string(readerID) || d.Read || d.Deleted {
				continue
			}
			d.Read = true
			d.ReadAt = now
			toUpdate = append(toUpdate, &d)
		}

		for _, d := range toUpdate {
			docRef := r.client.Collection(r.collection()).Doc(d.ID)
			if err := tx.Update(docRef, []firestore.Update{
				{Path: "read", Value: true},
				{Path: "read_at", Value: d.ReadAt},
			}); err != nil {
				return goerr.Wrap(err, "failed to mark message read", goerr.V("id", d.ID))
			}
			affected = append(affected, d.toModel())
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return affected, nil
}

func (r *messageRepository) SoftDelete(ctx context.Context, id types.MessageID, deletedBy types.UserID) (*model.Message, error) {
	docRef := r.client.Collection(r.collection()).Doc(string(id))

	m, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if _, err := docRef.Update(ctx, []firestore.Update{
		{Path: "deleted", Value: true},
		{Path: "deleted_by", Value: string(deletedBy)},
		{Path: "deleted_at", Value: now},
	}); err != nil {
		return nil, goerr.Wrap(err, "failed to soft-delete message", goerr.V("id", id))
	}

	m.Deleted = true
	m.DeletedBy = deletedBy
	m.DeletedAt = now
	return m, nil
}

func (r *messageRepository) UnreadCount(ctx context.Context, caseID int64, userID types.UserID) (int, error) {
	q := r.client.Collection(r.collection()).
		Where("case_id", "==", caseID).
		Where("recipient_id", "==", string(userID)).
		Where("read", "==", false).
		Where("deleted", "==", false)

	iter := q.Documents(ctx)
	defer iter.Stop()

	count := 0
	for {
		_, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return 0, goerr.Wrap(err, "failed to count unread messages", goerr.V("case_id", caseID))
		}
		count++
	}

	return count, nil
}

func (r *messageRepository) LatestVisible(ctx context.Context, caseID int64) (*model.Message, error) {
	q := r.client.Collection(r.collection()).
		Where("case_id", "==", caseID).
		Where("deleted", "==", false).
		OrderBy("created_at", firestore.Desc).
		Limit(1)

	iter := q.Documents(ctx)
	defer iter.Stop()

	docSnap, err := iter.Next()
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get latest message", goerr.V("case_id", caseID))
	}

	var d messageDoc
	if err := docSnap.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to decode message", goerr.V("doc_id", docSnap.Ref.ID))
	}

	return d.toModel(), nil
}
