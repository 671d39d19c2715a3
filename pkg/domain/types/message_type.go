package types

import "fmt"

// MessageType distinguishes user-authored text from system-generated notices
type MessageType string

const (
	MessageTypeText   MessageType = "text"
	MessageTypeSystem MessageType = "system"
)

// IsValid checks if the message type is valid
func (t MessageType) IsValid() bool {
	switch t {
	case MessageTypeText, MessageTypeSystem:
		return true
	default:
		return false
	}
}

// Normalize returns the type, treating empty as MessageTypeText
func (t MessageType) Normalize() MessageType {
	if t == "" {
		return MessageTypeText
	}
	return t
}

// String returns the string representation of the message type
func (t MessageType) String() string {
	return string(t)
}

// ParseMessageType parses a string into a MessageType
func ParseMessageType(s string) (MessageType, error) {
	t := MessageType(s)
	if !t.IsValid() {
		return "", fmt.Errorf("invalid message type: %s", s)
	}
	return t, nil
}
