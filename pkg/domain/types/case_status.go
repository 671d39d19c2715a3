package types

import "fmt"

// CaseStatus represents where a case sits in the review pipeline
type CaseStatus string

const (
	CaseStatusSubmitted   CaseStatus = "submitted"
	CaseStatusUnderReview CaseStatus = "under_review"
	CaseStatusApproved    CaseStatus = "approved"
	CaseStatusInProcess   CaseStatus = "in_process"
	CaseStatusCompleted   CaseStatus = "completed"
	CaseStatusRejected    CaseStatus = "rejected"
)

// AllCaseStatuses returns all valid case statuses
func AllCaseStatuses() []CaseStatus {
	return []CaseStatus{
		CaseStatusSubmitted,
		CaseStatusUnderReview,
		CaseStatusApproved,
		CaseStatusInProcess,
		CaseStatusCompleted,
		CaseStatusRejected,
	}
}

// IsValid checks if the case status is valid
func (s CaseStatus) IsValid() bool {
	switch s {
	case CaseStatusSubmitted,
		CaseStatusUnderReview,
		CaseStatusApproved,
		CaseStatusInProcess,
		CaseStatusCompleted,
		CaseStatusRejected:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition is defined from the
// status. The machine itself does not forbid leaving a terminal status;
// that policy belongs to the caller.
func (s CaseStatus) IsTerminal() bool {
	return s == CaseStatusCompleted || s == CaseStatusRejected
}

// Progress returns the fixed progress value (0-100) shown for the status.
func (s CaseStatus) Progress() int {
	switch s {
	case CaseStatusSubmitted:
		return 10
	case CaseStatusUnderReview:
		return 25
	case CaseStatusApproved:
		return 50
	case CaseStatusInProcess:
		return 75
	case CaseStatusCompleted:
		return 100
	case CaseStatusRejected:
		return 0
	default:
		return 0
	}
}

// Normalize returns the status, treating empty as CaseStatusSubmitted for
// cases written before the status field existed.
func (s CaseStatus) Normalize() CaseStatus {
	if s == "" {
		return CaseStatusSubmitted
	}
	return s
}

// String returns the string representation of the case status
func (s CaseStatus) String() string {
	return string(s)
}

// ParseCaseStatus parses a string into a CaseStatus
func ParseCaseStatus(s string) (CaseStatus, error) {
	status := CaseStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid case status: %s", s)
	}
	return status, nil
}
