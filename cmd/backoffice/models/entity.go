package models

import (
	"time"

	"github.com/google/uuid"
)

// Provider is a healthcare provider tracked through credentialing.
// Maps to: provider table
type Provider struct {
	ID        uuid.UUID `db:"id" json:"id"`
	FirstName string    `db:"first_name" json:"first_name"`
	LastName  string    `db:"last_name" json:"last_name"`
	NPI       *string   `db:"npi" json:"npi,omitempty"`
	Specialty *string   `db:"specialty" json:"specialty,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// FullName returns "First Last" for display
func (p *Provider) FullName() string {
	return p.FirstName + " " + p.LastName
}

// Facility is a healthcare facility providers credential with.
// Maps to: facility table
type Facility struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	State     *string   `db:"state" json:"state,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// CredentialLink connects a provider to a facility (PFC). It is the most
// common workflow parent; its id becomes related_id on phases.
// Maps to: provider_facility_credential table
type CredentialLink struct {
	ID               uuid.UUID `db:"id" json:"id"`
	ProviderID       uuid.UUID `db:"provider_id" json:"provider_id"`
	FacilityID       uuid.UUID `db:"facility_id" json:"facility_id"`
	RelationshipType *string   `db:"relationship_type" json:"relationship_type,omitempty"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

// CreateProviderRequest is the payload for adding a provider
type CreateProviderRequest struct {
	FirstName string  `json:"first_name" validate:"required"`
	LastName  string  `json:"last_name" validate:"required"`
	NPI       *string `json:"npi,omitempty"`
	Specialty *string `json:"specialty,omitempty"`
}

// CreateFacilityRequest is the payload for adding a facility
type CreateFacilityRequest struct {
	Name  string  `json:"name" validate:"required"`
	State *string `json:"state,omitempty"`
}
