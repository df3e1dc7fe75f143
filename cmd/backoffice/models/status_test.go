package models

import (
	"testing"
	"time"
)

func TestIsCompletedStatus(t *testing.T) {
	cases := []struct {
		status string
		want   bool
	}{
		{"Completed", true},
		{"completed", true},
		{"COMPLETE", true},
		{"Completed But Pending Review", true},
		{"done", true},
		{"Done", true},
		{"approved", true},
		{"  approved  ", true},
		{"Pending", false},
		{"In Progress", false},
		{"Blocked", false},
		{"done-ish", false},
		{"approval pending", false},
		{"", false},
	}

	for _, tc := range cases {
		if got := IsCompletedStatus(tc.status); got != tc.want {
			t.Errorf("IsCompletedStatus(%q) = %v, want %v", tc.status, got, tc.want)
		}
	}
}

func TestIsBlockedStatus(t *testing.T) {
	if !IsBlockedStatus("Blocked") || !IsBlockedStatus(" blocked ") {
		t.Error("expected blocked variants to match")
	}
	if IsBlockedStatus("Blocked by vendor") {
		t.Error("substring must not count as blocked")
	}
}

func TestIsOverdue(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)

	if !IsOverdue(&past, "Pending", now) {
		t.Error("past due date with open status should be overdue")
	}
	if IsOverdue(&past, "Completed", now) {
		t.Error("completed phases are never overdue")
	}
	if IsOverdue(&future, "Pending", now) {
		t.Error("future due date should not be overdue")
	}
	if IsOverdue(nil, "Pending", now) {
		t.Error("missing due date should not be overdue")
	}
}

func TestClassifyStatus(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)

	cases := []struct {
		status  string
		dueDate *time.Time
		want    StatusClass
	}{
		{"Completed", &past, StatusClassDone},
		{"Blocked", nil, StatusClassBlocked},
		{"Pending", &past, StatusClassOverdue},
		{"In Progress", nil, StatusClassInProgress},
		{"Pending", nil, StatusClassPending},
		{"whatever", nil, StatusClassPending},
	}

	for _, tc := range cases {
		if got := ClassifyStatus(tc.status, tc.dueDate, now); got != tc.want {
			t.Errorf("ClassifyStatus(%q) = %v, want %v", tc.status, got, tc.want)
		}
	}
}
