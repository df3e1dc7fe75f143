package models

import (
	"strings"
	"time"
)

// StatusClass is the derived display classification of a free-text status
type StatusClass string

const (
	StatusClassDone       StatusClass = "done"
	StatusClassBlocked    StatusClass = "blocked"
	StatusClassOverdue    StatusClass = "overdue"
	StatusClassInProgress StatusClass = "in_progress"
	StatusClassPending    StatusClass = "pending"
)

// IsCompletedStatus reports whether a free-text status counts as done.
// The match is deliberately loose: contains "complet", or equals "done"
// or "approved", case-insensitive. A status like "Completed But Pending
// Review" counts as done; tightening this is a product decision.
func IsCompletedStatus(status string) bool {
	s := strings.ToLower(strings.TrimSpace(status))
	return strings.Contains(s, "complet") || s == "done" || s == "approved"
}

// IsBlockedStatus reports whether a free-text status counts as blocked
func IsBlockedStatus(status string) bool {
	return strings.ToLower(strings.TrimSpace(status)) == "blocked"
}

// IsOverdue reports whether a phase with the given due date and status
// should be flagged overdue. Completed phases are never overdue.
func IsOverdue(dueDate *time.Time, status string, now time.Time) bool {
	if dueDate == nil || IsCompletedStatus(status) {
		return false
	}
	return dueDate.Before(now)
}

// ClassifyStatus derives the display class for a phase
func ClassifyStatus(status string, dueDate *time.Time, now time.Time) StatusClass {
	switch {
	case IsCompletedStatus(status):
		return StatusClassDone
	case IsBlockedStatus(status):
		return StatusClassBlocked
	case IsOverdue(dueDate, status, now):
		return StatusClassOverdue
	case strings.Contains(strings.ToLower(status), "progress"):
		return StatusClassInProgress
	default:
		return StatusClassPending
	}
}
