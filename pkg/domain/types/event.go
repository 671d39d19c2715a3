package types

// Live-transport event names. These are part of the client protocol and
// must stay stable.
const (
	EventNewMessage         = "new_message"
	EventMessagesRead       = "messages_read"
	EventNotification       = "notification"
	EventStatusNotification = "status_update_notification"
	EventTypingStart        = "typing_start"
	EventTypingStop         = "typing_stop"
)
