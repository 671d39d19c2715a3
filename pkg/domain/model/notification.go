package model

import (
	"time"

	"github.com/docket-labs/docket/pkg/domain/types"
)

// Notification priority tags
const (
	NotificationPriorityNormal = "normal"
	NotificationPriorityHigh   = "high"
)

// Notification type tags
const (
	NotificationTypeStatus = "status_update"
)

// Notification is the durable record of one event delivered to one
// recipient. Records are created once per (event, recipient) pair and never
// merged afterwards; only the read flag changes.
type Notification struct {
	ID          types.NotificationID
	RecipientID types.UserID
	Title       string
	Body        string
	Type        string
	Priority    string
	Data        map[string]any
	Read        bool
	CreatedAt   time.Time
}
