package usecase

import "errors"

// Sentinel errors for the use case layer. The HTTP controller maps these
// onto status codes; nothing below this layer knows about HTTP.
var (
	// Not found errors
	ErrCaseNotFound         = errors.New("case not found")
	ErrMessageNotFound      = errors.New("message not found")
	ErrNotificationNotFound = errors.New("notification not found")

	// ErrInvalidInput covers malformed or unknown input, such as an unknown
	// status value or an empty message body. Always caller-fixable.
	ErrInvalidInput = errors.New("invalid input")

	// ErrPermissionDenied means the actor has no standing on the case.
	// Surfaced generically; it never says which role would have sufficed.
	ErrPermissionDenied = errors.New("cannot act on this case")

	// ErrNoRecipient means access resolved but there is no counterpart to
	// address yet (unassigned case). Deliberately distinct from
	// ErrPermissionDenied so clients can say "not yet assigned" instead of
	// "forbidden".
	ErrNoRecipient = errors.New("no recipient for this case")

	// ErrStatusConflict means a concurrent status transition won the race
	ErrStatusConflict = errors.New("case status changed concurrently")
)

// Context keys for error values
const (
	CaseIDKey    = "case_id"
	MessageIDKey = "message_id"
	UserIDKey    = "user_id"
)
