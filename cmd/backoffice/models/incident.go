package models

import (
	"time"

	"github.com/google/uuid"
)

// IncidentLog is an attached incident report for a single workflow phase.
// A loose bag of fields mutated over time; no state machine.
// Maps to: incident_log table
type IncidentLog struct {
	ID         uuid.UUID `db:"id" json:"id"`
	WorkflowID uuid.UUID `db:"workflow_id" json:"workflow_id"`

	WhoReported *uuid.UUID `db:"who_reported" json:"who_reported,omitempty"`
	// Set at creation, immutable thereafter
	EscalatedTo uuid.UUID `db:"escalated_to" json:"escalated_to"`

	Subcategory    string    `db:"subcategory" json:"subcategory"`
	Critical       bool      `db:"critical" json:"critical"`
	DateIdentified time.Time `db:"date_identified" json:"date_identified"`

	IncidentDescription        *string    `db:"incident_description" json:"incident_description,omitempty"`
	ImmediateResolutionAttempt *string    `db:"immediate_resolution_attempt" json:"immediate_resolution_attempt,omitempty"`
	ResolutionDate             *time.Time `db:"resolution_date" json:"resolution_date,omitempty"`
	FinalResolution            *string    `db:"final_resolution" json:"final_resolution,omitempty"`
	PreventativeActionTaken    *string    `db:"preventative_action_taken" json:"preventative_action_taken,omitempty"`
	FollowUpRequired           bool       `db:"follow_up_required" json:"follow_up_required"`
	FollowUpDate               *time.Time `db:"follow_up_date" json:"follow_up_date,omitempty"`
	FinalNotes                 *string    `db:"final_notes" json:"final_notes,omitempty"`
	Discussed                  bool       `db:"discussed" json:"discussed"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// CreateIncidentRequest is the minimal required field set for a new incident
type CreateIncidentRequest struct {
	Subcategory         string     `json:"subcategory" validate:"required"`
	Critical            bool       `json:"critical"`
	DateIdentified      *time.Time `json:"date_identified" validate:"required"`
	EscalatedTo         *uuid.UUID `json:"escalated_to" validate:"required"`
	IncidentDescription *string    `json:"incident_description,omitempty"`
	FollowUpRequired    bool       `json:"follow_up_required"`
	FollowUpDate        *time.Time `json:"follow_up_date,omitempty"`
}

// IncidentUpdate carries partial updates to resolution fields.
// EscalatedTo and WorkflowID are immutable after creation and therefore
// absent from this contract.
type IncidentUpdate struct {
	Subcategory                *string    `json:"subcategory,omitempty"`
	Critical                   *bool      `json:"critical,omitempty"`
	DateIdentified             *time.Time `json:"date_identified,omitempty"`
	IncidentDescription        *string    `json:"incident_description,omitempty"`
	ImmediateResolutionAttempt *string    `json:"immediate_resolution_attempt,omitempty"`
	ResolutionDate             *time.Time `json:"resolution_date,omitempty"`
	FinalResolution            *string    `json:"final_resolution,omitempty"`
	PreventativeActionTaken    *string    `json:"preventative_action_taken,omitempty"`
	FollowUpRequired           *bool      `json:"follow_up_required,omitempty"`
	FollowUpDate               *time.Time `json:"follow_up_date,omitempty"`
	FinalNotes                 *string    `json:"final_notes,omitempty"`
	Discussed                  *bool      `json:"discussed,omitempty"`
}
