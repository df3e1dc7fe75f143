package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction is the kind of mutation an audit entry records
type AuditAction string

const (
	AuditInsert AuditAction = "insert"
	AuditUpdate AuditAction = "update"
	AuditDelete AuditAction = "delete"
)

// AuditLogEntry is an immutable before/after record of a single mutation.
// For insert, OldData is empty; for delete, NewData is empty. Snapshots
// are untyped key-value bags since they span heterogeneous tables.
// Maps to: audit_log table
type AuditLogEntry struct {
	ID         uuid.UUID      `db:"id" json:"id"`
	TableName  string         `db:"table_name" json:"table_name"`
	RecordID   string         `db:"record_id" json:"record_id"`
	Action     AuditAction    `db:"action" json:"action"`
	ActorID    *uuid.UUID     `db:"actor_id" json:"actor_id,omitempty"`
	ActorEmail *string        `db:"actor_email" json:"actor_email,omitempty"`
	OldData    map[string]any `db:"old_data" json:"old_data"`
	NewData    map[string]any `db:"new_data" json:"new_data"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
}

// AuditFilter narrows the audit list
type AuditFilter struct {
	From           *time.Time
	To             *time.Time
	Action         AuditAction
	TableName      string
	ActorID        *uuid.UUID
	RecordIDSubstr string
	Limit          int
	Offset         int
}

// FieldChangeKind classifies one field of an audit diff
type FieldChangeKind string

const (
	FieldChanged FieldChangeKind = "changed"
	FieldAdded   FieldChangeKind = "added"
	FieldRemoved FieldChangeKind = "removed"
)

// FieldChange is one field's old→new rendering for expanded display
type FieldChange struct {
	Field string          `json:"field"`
	Kind  FieldChangeKind `json:"kind"`
	Old   any             `json:"old,omitempty"`
	New   any             `json:"new,omitempty"`
}
