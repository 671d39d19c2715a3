package usecase

import (
	"github.com/docket-labs/docket/pkg/domain/interfaces"
	"github.com/docket-labs/docket/pkg/domain/model/config"
	"github.com/docket-labs/docket/pkg/domain/types"
)

type UseCases struct {
	repo   interfaces.Repository
	pub    interfaces.Publisher
	policy config.Policy

	Conversation *ConversationUseCase
	Status       *StatusUseCase
	Notification *NotificationUseCase
}

type Option func(*UseCases)

// WithPublisher injects the live-transport fanout surface. Components never
// reach for a global transport handle; this is the only way events leave
// the use case layer.
func WithPublisher(pub interfaces.Publisher) Option {
	return func(uc *UseCases) {
		uc.pub = pub
	}
}

// WithPolicy overrides the default business policy
func WithPolicy(p config.Policy) Option {
	return func(uc *UseCases) {
		uc.policy = p
	}
}

func New(repo interfaces.Repository, opts ...Option) *UseCases {
	uc := &UseCases{
		repo:   repo,
		pub:    noopPublisher{},
		policy: config.DefaultPolicy(),
	}

	for _, opt := range opts {
		opt(uc)
	}

	uc.Notification = NewNotificationUseCase(repo, uc.pub, uc.policy)
	uc.Conversation = NewConversationUseCase(repo, uc.pub, uc.policy)
	uc.Status = NewStatusUseCase(repo, uc.Notification)

	return uc
}

// noopPublisher drops every push. Used when no live transport is wired,
// e.g. in tests that only exercise durable state.
type noopPublisher struct{}

func (noopPublisher) Publish(types.Channel, string, any) {}
