package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"

	"github.com/docket-labs/docket/pkg/domain/interfaces"
)

// Firestore is the document-store repository backend
type Firestore struct {
	client        *firestore.Client
	cases         *caseRepository
	messages      *messageRepository
	timeline      *timelineRepository
	notifications *notificationRepository
	users         *userRepository
}

var _ interfaces.Repository = &Firestore{}

type Option func(*Firestore)

// WithCollectionPrefix namespaces all collections, used to isolate test runs
func WithCollectionPrefix(prefix string) Option {
	return func(f *Firestore) {
		f.cases.collectionPrefix = prefix
		f.messages.collectionPrefix = prefix
		f.timeline.collectionPrefix = prefix
		f.notifications.collectionPrefix = prefix
		f.users.collectionPrefix = prefix
	}
}

func New(ctx context.Context, projectID, databaseID string, opts ...Option) (*Firestore, error) {
	var client *firestore.Client
	var err error
	if databaseID != "" {
		client, err = firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	} else {
		client, err = firestore.NewClient(ctx, projectID)
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("projectID", projectID), goerr.V("databaseID", databaseID))
	}

	f := &Firestore{
		client:        client,
		cases:         newCaseRepository(client),
		messages:      newMessageRepository(client),
		timeline:      newTimelineRepository(client),
		notifications: newNotificationRepository(client),
		users:         newUserRepository(client),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

func (f *Firestore) Case() interfaces.CaseRepository {
	return f.cases
}

func (f *Firestore) Message() interfaces.MessageRepository {
	return f.messages
}

func (f *Firestore) Timeline() interfaces.TimelineRepository {
	return f.timeline
}

func (f *Firestore) Notification() interfaces.NotificationRepository {
	return f.notifications
}

func (f *Firestore) User() interfaces.UserRepository {
	return f.users
}

func (f *Firestore) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}
