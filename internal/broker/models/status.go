package models

import "strings"

// DeletionStatus is the lifecycle state of a DeletionRequest.
type DeletionStatus string

const (
	StatusPending    DeletionStatus = "pending"
	StatusSubmitted  DeletionStatus = "submitted"
	StatusInProgress DeletionStatus = "in_progress"
	StatusCompleted  DeletionStatus = "completed"
	StatusFailed     DeletionStatus = "failed"
	StatusRejected   DeletionStatus = "rejected"
	// StatusUnknown is assigned when a connector reports a status outside
	// the known set. It is not re-polled.
	StatusUnknown DeletionStatus = "unknown"
)

var statusAliases = map[string]DeletionStatus{
	"pending":     StatusPending,
	"submitted":   StatusSubmitted,
	"in_progress": StatusInProgress,
	"in-progress": StatusInProgress,
	"inprogress":  StatusInProgress,
	"processing":  StatusInProgress,
	"completed":   StatusCompleted,
	"complete":    StatusCompleted,
	"done":        StatusCompleted,
	"failed":      StatusFailed,
	"error":       StatusFailed,
	"rejected":    StatusRejected,
	"denied":      StatusRejected,
}

// ParseDeletionStatus normalizes a connector-supplied status string.
// Unrecognized values map to StatusUnknown.
func ParseDeletionStatus(raw string) DeletionStatus {
	key := strings.ToLower(strings.TrimSpace(raw))
	if s, ok := statusAliases[key]; ok {
		return s
	}
	return StatusUnknown
}

// IsValid reports whether s is one of the closed set of statuses.
func (s DeletionStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusSubmitted, StatusInProgress, StatusCompleted,
		StatusFailed, StatusRejected, StatusUnknown:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is expected.
func (s DeletionStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusRejected
}

// IsPollable reports whether the reconciler should re-check this status.
func (s DeletionStatus) IsPollable() bool {
	return s == StatusSubmitted || s == StatusInProgress
}

func (s DeletionStatus) String() string { return string(s) }
