package models

import (
	"time"

	"github.com/google/uuid"
)

// WorkflowType identifies which kind of parent record a phase belongs to
type WorkflowType string

const (
	WorkflowTypePFC             WorkflowType = "pfc"
	WorkflowTypeStateLicenses   WorkflowType = "state_licenses"
	WorkflowTypePrelivePipeline WorkflowType = "prelive_pipeline"
	WorkflowTypeVestaPrivileges WorkflowType = "provider_vesta_privileges"
)

// Valid reports whether the workflow type is one of the known values
func (t WorkflowType) Valid() bool {
	switch t {
	case WorkflowTypePFC, WorkflowTypeStateLicenses, WorkflowTypePrelivePipeline, WorkflowTypeVestaPrivileges:
		return true
	}
	return false
}

// WorkflowPhase is a single step within a larger credentialing process.
// Phases sharing (workflow_type, related_id) form one logical workflow;
// no workflow row is ever stored.
// Maps to: workflow_phase table
type WorkflowPhase struct {
	ID           uuid.UUID    `db:"id" json:"id"`
	WorkflowType WorkflowType `db:"workflow_type" json:"workflow_type"`
	RelatedID    uuid.UUID    `db:"related_id" json:"related_id"`
	PhaseName    string       `db:"phase_name" json:"phase_name"`

	// Free text by convention one of Pending/In Progress/Blocked/Completed.
	// Operators type whatever they like; classification is tolerant.
	Status string `db:"status" json:"status"`

	StartDate   *time.Time `db:"start_date" json:"start_date,omitempty"`
	DueDate     *time.Time `db:"due_date" json:"due_date,omitempty"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	Notes       *string    `db:"notes" json:"notes,omitempty"`

	AgentAssigned    *uuid.UUID  `db:"agent_assigned" json:"agent_assigned,omitempty"`
	SupportingAgents []uuid.UUID `db:"supporting_agents" json:"supporting_agents"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// HasSupportingAgent reports whether the agent is already recorded as a
// collaborator on this phase
func (p *WorkflowPhase) HasSupportingAgent(agentID uuid.UUID) bool {
	for _, id := range p.SupportingAgents {
		if id == agentID {
			return true
		}
	}
	return false
}

// PhaseRow is a phase enriched for list display: assignee name, incident
// count, and a context label naming the parent (provider/facility).
type PhaseRow struct {
	WorkflowPhase

	AssigneeName  *string `json:"assignee_name,omitempty"`
	IncidentCount int     `json:"incident_count"`
	ContextLabel  string  `json:"context_label"`
}

// PhaseUpdate carries a partial field update. Nil pointers leave the
// stored value untouched; ClearAssignee unsets agent_assigned explicitly
// since a nil AgentAssigned is indistinguishable from "no change".
type PhaseUpdate struct {
	PhaseName     *string    `json:"phase_name,omitempty"`
	Status        *string    `json:"status,omitempty"`
	StartDate     *time.Time `json:"start_date,omitempty"`
	DueDate       *time.Time `json:"due_date,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	Notes         *string    `json:"notes,omitempty"`
	AgentAssigned *uuid.UUID `json:"agent_assigned,omitempty"`
	ClearAssignee bool       `json:"clear_assignee,omitempty"`
}

// IsEmpty reports whether the update changes nothing. Empty updates are
// still applied and audited; the design does not elide no-ops.
func (u *PhaseUpdate) IsEmpty() bool {
	return u.PhaseName == nil && u.Status == nil && u.StartDate == nil &&
		u.DueDate == nil && u.CompletedAt == nil && u.Notes == nil &&
		u.AgentAssigned == nil && !u.ClearAssignee
}

// PhaseFilter narrows the phase list. AssignedToMe is resolved to the
// calling agent's id before the query runs; it never reaches the store.
type PhaseFilter struct {
	WorkflowType    WorkflowType
	Status          string
	AssignedToAgent *uuid.UUID
	AssignedToMe    bool
	HasIncidents    bool
	Search          string
	Limit           int
	Offset          int
}
