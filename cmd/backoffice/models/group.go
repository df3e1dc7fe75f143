package models

import (
	"time"

	"github.com/google/uuid"
)

// WorkflowGroup is the logical workflow formed by all phases sharing
// (workflow_type, related_id). Derived at read time, never persisted.
type WorkflowGroup struct {
	WorkflowType WorkflowType `json:"workflow_type"`
	RelatedID    uuid.UUID    `json:"related_id"`

	ContextLabel string `json:"context_label"`

	TotalCount     int `json:"total_count"`
	CompletedCount int `json:"completed_count"`
	IncidentCount  int `json:"incident_count"`

	HasOverdue bool `json:"has_overdue"`
	HasBlocked bool `json:"has_blocked"`

	// Zero when no member phase carries a timestamp; such groups sort last
	LatestUpdate time.Time `json:"latest_update"`

	Phases []*PhaseRow `json:"phases"`
}

// GroupKey identifies a workflow group
func (g *WorkflowGroup) GroupKey() string {
	return string(g.WorkflowType) + ":" + g.RelatedID.String()
}
