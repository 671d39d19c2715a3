package types

import "github.com/google/uuid"

// UserID identifies a user across cases, messages and notifications
type UserID string

// String returns the string representation of the user ID
func (id UserID) String() string {
	return string(id)
}

// MessageID identifies a message
type MessageID string

// NewMessageID generates a new random message ID
func NewMessageID() MessageID {
	return MessageID(uuid.NewString())
}

// String returns the string representation of the message ID
func (id MessageID) String() string {
	return string(id)
}

// NotificationID identifies a notification
type NotificationID string

// NewNotificationID generates a new random notification ID
func NewNotificationID() NotificationID {
	return NotificationID(uuid.NewString())
}

// String returns the string representation of the notification ID
func (id NotificationID) String() string {
	return string(id)
}

// TimelineID identifies a timeline entry
type TimelineID string

// NewTimelineID generates a new random timeline entry ID
func NewTimelineID() TimelineID {
	return TimelineID(uuid.NewString())
}

// String returns the string representation of the timeline entry ID
func (id TimelineID) String() string {
	return string(id)
}
