package interfaces

// Repository defines the interface for data persistence
type Repository interface {
	Case() CaseRepository
	Message() MessageRepository
	Timeline() TimelineRepository
	Notification() NotificationRepository
	User() UserRepository

	Close() error
}
