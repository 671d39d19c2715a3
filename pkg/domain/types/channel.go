package types

import "fmt"

// Channel is a live-transport delivery destination. A personal channel
// reaches every connected session of one user; a case channel reaches
// everyone currently viewing one case.
type Channel string

// UserChannel returns the personal channel for a user
func UserChannel(id UserID) Channel {
	return Channel("user:" + string(id))
}

// CaseChannel returns the shared channel for a case
func CaseChannel(caseID int64) Channel {
	return Channel(fmt.Sprintf("case:%d", caseID))
}

// String returns the string representation of the channel
func (c Channel) String() string {
	return string(c)
}
