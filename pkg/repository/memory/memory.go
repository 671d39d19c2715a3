package memory

import (
	"github.com/docket-labs/docket/pkg/domain/interfaces"
)

// Memory is the in-process repository backend used for development and
// tests
type Memory struct {
	cases         *caseRepository
	messages      *messageRepository
	timeline      *timelineRepository
	notifications *notificationRepository
	users         *userRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		cases:         newCaseRepository(),
		messages:      newMessageRepository(),
		timeline:      newTimelineRepository(),
		notifications: newNotificationRepository(),
		users:         newUserRepository(),
	}
}

func (m *Memory) Case() interfaces.CaseRepository {
	return m.cases
}

func (m *Memory) Message() interfaces.MessageRepository {
	return m.messages
}

func (m *Memory) Timeline() interfaces.TimelineRepository {
	return m.timeline
}

func (m *Memory) Notification() interfaces.NotificationRepository {
	return m.notifications
}

func (m *Memory) User() interfaces.UserRepository {
	return m.users
}

func (m *Memory) Close() error {
	return nil
}
