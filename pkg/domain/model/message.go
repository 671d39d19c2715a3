package model

import (
	"time"

	"github.com/docket-labs/docket/pkg/domain/types"
)

// Message is one entry in a case conversation. RecipientID is resolved once
// at send time and never recomputed, so history stays attributable even if
// the case's assignment changes later.
type Message struct {
	ID          types.MessageID
	CaseID      int64
	SenderID    types.UserID
	RecipientID types.UserID
	Body        string
	Type        types.MessageType
	ReplyTo     types.MessageID

	Read   bool
	ReadAt time.Time

	Deleted   bool
	DeletedBy types.UserID
	DeletedAt time.Time

	CreatedAt time.Time
}

// Visible reports whether the message should appear in conversation views
func (m *Message) Visible() bool {
	return !m.Deleted
}
