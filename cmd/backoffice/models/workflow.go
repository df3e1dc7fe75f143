package models

import (
	"time"

	"github.com/google/uuid"
)

// PhaseDefinition describes one phase to create when starting a workflow
type PhaseDefinition struct {
	PhaseName string     `json:"phase_name" validate:"required"`
	Status    string     `json:"status,omitempty"`
	StartDate *time.Time `json:"start_date,omitempty"`
	DueDate   *time.Time `json:"due_date,omitempty"`
	Notes     *string    `json:"notes,omitempty"`
}

// CreateWorkflowRequest starts a new workflow: it creates the parent
// credential link plus a batch of phases sharing its id as related_id.
type CreateWorkflowRequest struct {
	WorkflowType     WorkflowType      `json:"workflow_type" validate:"required"`
	ProviderID       uuid.UUID         `json:"provider_id" validate:"required"`
	FacilityID       uuid.UUID         `json:"facility_id" validate:"required"`
	RelationshipType *string           `json:"relationship_type,omitempty"`
	Phases           []PhaseDefinition `json:"phases" validate:"required,min=1,dive"`
}

// CreateWorkflowResponse returns the created parent link and phase rows
type CreateWorkflowResponse struct {
	Link   *CredentialLink  `json:"link"`
	Phases []*WorkflowPhase `json:"phases"`
}
