package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/vestacare/credops/cmd/backoffice/models"
	"github.com/vestacare/credops/common/apperr"
	"github.com/vestacare/credops/common/db"
)

const incidentColumns = `id, workflow_id, who_reported, escalated_to, subcategory,
	critical, date_identified, incident_description, immediate_resolution_attempt,
	resolution_date, final_resolution, preventative_action_taken,
	follow_up_required, follow_up_date, final_notes, discussed, created_at`

// IncidentRepository handles database operations for incident logs
type IncidentRepository struct {
	db *db.DB
}

// NewIncidentRepository creates a new incident repository
func NewIncidentRepository(database *db.DB) *IncidentRepository {
	return &IncidentRepository{db: database}
}

func scanIncident(row pgx.Row) (*models.IncidentLog, error) {
	inc := &models.IncidentLog{}
	err := row.Scan(
		&inc.ID,
		&inc.WorkflowID,
		&inc.WhoReported,
		&inc.EscalatedTo,
		&inc.Subcategory,
		&inc.Critical,
		&inc.DateIdentified,
		&inc.IncidentDescription,
		&inc.ImmediateResolutionAttempt,
		&inc.ResolutionDate,
		&inc.FinalResolution,
		&inc.PreventativeActionTaken,
		&inc.FollowUpRequired,
		&inc.FollowUpDate,
		&inc.FinalNotes,
		&inc.Discussed,
		&inc.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return inc, nil
}

// CreateTx inserts a new incident inside a transaction
func (r *IncidentRepository) CreateTx(ctx context.Context, q db.Querier, inc *models.IncidentLog) error {
	query := `
		INSERT INTO incident_log (id, workflow_id, who_reported, escalated_to, subcategory,
			critical, date_identified, incident_description, immediate_resolution_attempt,
			resolution_date, final_resolution, preventative_action_taken,
			follow_up_required, follow_up_date, final_notes, discussed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	_, err := q.Exec(ctx, query,
		inc.ID,
		inc.WorkflowID,
		inc.WhoReported,
		inc.EscalatedTo,
		inc.Subcategory,
		inc.Critical,
		inc.DateIdentified,
		inc.IncidentDescription,
		inc.ImmediateResolutionAttempt,
		inc.ResolutionDate,
		inc.FinalResolution,
		inc.PreventativeActionTaken,
		inc.FollowUpRequired,
		inc.FollowUpDate,
		inc.FinalNotes,
		inc.Discussed,
		inc.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create incident: %w", err)
	}

	return nil
}

// GetByID retrieves an incident by its ID
func (r *IncidentRepository) GetByID(ctx context.Context, q db.Querier, incidentID uuid.UUID) (*models.IncidentLog, error) {
	query := `SELECT ` + incidentColumns + ` FROM incident_log WHERE id = $1`

	inc, err := scanIncident(q.QueryRow(ctx, query, incidentID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFoundf("incident not found: %s", incidentID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get incident: %w", err)
	}

	return inc, nil
}

// ListByWorkflow retrieves all incidents attached to a phase, newest first
func (r *IncidentRepository) ListByWorkflow(ctx context.Context, workflowID uuid.UUID) ([]*models.IncidentLog, error) {
	query := `SELECT ` + incidentColumns + ` FROM incident_log WHERE workflow_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, workflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to list incidents: %w", err)
	}
	defer rows.Close()

	var incidents []*models.IncidentLog
	for rows.Next() {
		inc, err := scanIncident(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan incident: %w", err)
		}
		incidents = append(incidents, inc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating incidents: %w", err)
	}

	return incidents, nil
}

// UpdateTx writes the mutable incident fields back inside a transaction.
// workflow_id and escalated_to are immutable and never touched here.
func (r *IncidentRepository) UpdateTx(ctx context.Context, q db.Querier, inc *models.IncidentLog) error {
	query := `
		UPDATE incident_log
		SET subcategory = $2, critical = $3, date_identified = $4,
			incident_description = $5, immediate_resolution_attempt = $6,
			resolution_date = $7, final_resolution = $8,
			preventative_action_taken = $9, follow_up_required = $10,
			follow_up_date = $11, final_notes = $12, discussed = $13
		WHERE id = $1
	`

	tag, err := q.Exec(ctx, query,
		inc.ID,
		inc.Subcategory,
		inc.Critical,
		inc.DateIdentified,
		inc.IncidentDescription,
		inc.ImmediateResolutionAttempt,
		inc.ResolutionDate,
		inc.FinalResolution,
		inc.PreventativeActionTaken,
		inc.FollowUpRequired,
		inc.FollowUpDate,
		inc.FinalNotes,
		inc.Discussed,
	)

	if err != nil {
		return fmt.Errorf("failed to update incident: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFoundf("incident not found: %s", inc.ID)
	}

	return nil
}

// DeleteTx hard-deletes an incident inside a transaction
func (r *IncidentRepository) DeleteTx(ctx context.Context, q db.Querier, incidentID uuid.UUID) error {
	tag, err := q.Exec(ctx, `DELETE FROM incident_log WHERE id = $1`, incidentID)
	if err != nil {
		return fmt.Errorf("failed to delete incident: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFoundf("incident not found: %s", incidentID)
	}

	return nil
}
