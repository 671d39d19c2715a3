package model

import "github.com/docket-labs/docket/pkg/domain/types"

// Conversation is the list-view summary of a case for one user: the case,
// the counterpart the user would be talking to, the most recent visible
// message and the user's unread count. Cases without a resolvable
// counterpart never produce a Conversation.
type Conversation struct {
	Case           *Case
	CounterpartID  types.UserID
	LastMessage    *Message
	UnreadMessages int
}
