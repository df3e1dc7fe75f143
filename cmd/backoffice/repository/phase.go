package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/vestacare/credops/cmd/backoffice/models"
	"github.com/vestacare/credops/common/apperr"
	"github.com/vestacare/credops/common/db"
)

// phaseColumns is the column list shared by phase queries
const phaseColumns = `id, workflow_type, related_id, phase_name, status,
	start_date, due_date, completed_at, notes,
	agent_assigned, supporting_agents, created_at, updated_at`

// contextLabelSQL derives a human label for the phase's parent record.
// Grouping never depends on it: a phase whose parent has been deleted
// still lists and groups, with an empty label.
const contextLabelSQL = `CASE wp.workflow_type
	WHEN 'pfc' THEN COALESCE((
		SELECT p.first_name || ' ' || p.last_name || ' @ ' || f.name
		FROM provider_facility_credential pfc
		JOIN provider p ON p.id = pfc.provider_id
		JOIN facility f ON f.id = pfc.facility_id
		WHERE pfc.id = wp.related_id), '')
	WHEN 'state_licenses' THEN COALESCE((
		SELECT p.first_name || ' ' || p.last_name || ' / ' || sl.state
		FROM state_license sl
		JOIN provider p ON p.id = sl.provider_id
		WHERE sl.id = wp.related_id), '')
	WHEN 'provider_vesta_privileges' THEN COALESCE((
		SELECT p.first_name || ' ' || p.last_name || ' / ' || vp.privilege_name
		FROM vesta_privilege vp
		JOIN provider p ON p.id = vp.provider_id
		WHERE vp.id = wp.related_id), '')
	ELSE ''
END`

// PhaseRepository handles database operations for workflow phases
type PhaseRepository struct {
	db *db.DB
}

// NewPhaseRepository creates a new phase repository
func NewPhaseRepository(database *db.DB) *PhaseRepository {
	return &PhaseRepository{db: database}
}

// CreateTx inserts a new phase inside a transaction
func (r *PhaseRepository) CreateTx(ctx context.Context, q db.Querier, phase *models.WorkflowPhase) error {
	query := `
		INSERT INTO workflow_phase (id, workflow_type, related_id, phase_name, status,
			start_date, due_date, completed_at, notes, agent_assigned, supporting_agents,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := q.Exec(ctx, query,
		phase.ID,
		phase.WorkflowType,
		phase.RelatedID,
		phase.PhaseName,
		phase.Status,
		phase.StartDate,
		phase.DueDate,
		phase.CompletedAt,
		phase.Notes,
		phase.AgentAssigned,
		phase.SupportingAgents,
		phase.CreatedAt,
		phase.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create phase: %w", err)
	}

	return nil
}

// GetByID retrieves a phase by its ID using the given querier, so it can
// run inside or outside a transaction
func (r *PhaseRepository) GetByID(ctx context.Context, q db.Querier, phaseID uuid.UUID) (*models.WorkflowPhase, error) {
	query := `SELECT ` + phaseColumns + ` FROM workflow_phase WHERE id = $1`

	phase := &models.WorkflowPhase{}
	err := q.QueryRow(ctx, query, phaseID).Scan(
		&phase.ID,
		&phase.WorkflowType,
		&phase.RelatedID,
		&phase.PhaseName,
		&phase.Status,
		&phase.StartDate,
		&phase.DueDate,
		&phase.CompletedAt,
		&phase.Notes,
		&phase.AgentAssigned,
		&phase.SupportingAgents,
		&phase.CreatedAt,
		&phase.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFoundf("phase not found: %s", phaseID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get phase: %w", err)
	}

	return phase, nil
}

// GetRowByID retrieves a single phase enriched with assignee name,
// incident count and context label
func (r *PhaseRepository) GetRowByID(ctx context.Context, phaseID uuid.UUID) (*models.PhaseRow, error) {
	query := `
		SELECT wp.id, wp.workflow_type, wp.related_id, wp.phase_name, wp.status,
			wp.start_date, wp.due_date, wp.completed_at, wp.notes,
			wp.agent_assigned, wp.supporting_agents, wp.created_at, wp.updated_at,
			CASE WHEN a.id IS NULL THEN NULL ELSE a.first_name || ' ' || a.last_name END,
			(SELECT COUNT(*) FROM incident_log il WHERE il.workflow_id = wp.id),
			` + contextLabelSQL + `
		FROM workflow_phase wp
		LEFT JOIN agent a ON a.id = wp.agent_assigned
		WHERE wp.id = $1
	`

	row := &models.PhaseRow{}
	err := r.db.QueryRow(ctx, query, phaseID).Scan(
		&row.ID,
		&row.WorkflowType,
		&row.RelatedID,
		&row.PhaseName,
		&row.Status,
		&row.StartDate,
		&row.DueDate,
		&row.CompletedAt,
		&row.Notes,
		&row.AgentAssigned,
		&row.SupportingAgents,
		&row.CreatedAt,
		&row.UpdatedAt,
		&row.AssigneeName,
		&row.IncidentCount,
		&row.ContextLabel,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFoundf("phase not found: %s", phaseID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get phase row: %w", err)
	}

	return row, nil
}

// List retrieves enriched phase rows matching the filter, newest update first
func (r *PhaseRepository) List(ctx context.Context, filter *models.PhaseFilter) ([]*models.PhaseRow, error) {
	var (
		conditions []string
		args       []any
	)

	addArg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.WorkflowType != "" {
		conditions = append(conditions, "wp.workflow_type = "+addArg(filter.WorkflowType))
	}
	if filter.Status != "" {
		conditions = append(conditions, "LOWER(wp.status) = LOWER("+addArg(filter.Status)+")")
	}
	if filter.AssignedToAgent != nil {
		conditions = append(conditions, "wp.agent_assigned = "+addArg(*filter.AssignedToAgent))
	}
	if filter.HasIncidents {
		conditions = append(conditions, "EXISTS (SELECT 1 FROM incident_log il WHERE il.workflow_id = wp.id)")
	}
	if filter.Search != "" {
		pattern := addArg("%" + filter.Search + "%")
		conditions = append(conditions, `(wp.phase_name ILIKE `+pattern+` OR EXISTS (
			SELECT 1 FROM provider_facility_credential pfc
			JOIN provider p ON p.id = pfc.provider_id
			JOIN facility f ON f.id = pfc.facility_id
			WHERE pfc.id = wp.related_id
			AND (p.first_name || ' ' || p.last_name ILIKE `+pattern+` OR f.name ILIKE `+pattern+`)))`)
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	query := fmt.Sprintf(`
		SELECT wp.id, wp.workflow_type, wp.related_id, wp.phase_name, wp.status,
			wp.start_date, wp.due_date, wp.completed_at, wp.notes,
			wp.agent_assigned, wp.supporting_agents, wp.created_at, wp.updated_at,
			CASE WHEN a.id IS NULL THEN NULL ELSE a.first_name || ' ' || a.last_name END,
			(SELECT COUNT(*) FROM incident_log il WHERE il.workflow_id = wp.id),
			%s
		FROM workflow_phase wp
		LEFT JOIN agent a ON a.id = wp.agent_assigned
		%s
		ORDER BY wp.updated_at DESC
		LIMIT %s OFFSET %s
	`, contextLabelSQL, where, addArg(limit), addArg(filter.Offset))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list phases: %w", err)
	}
	defer rows.Close()

	var result []*models.PhaseRow
	for rows.Next() {
		row := &models.PhaseRow{}
		err := rows.Scan(
			&row.ID,
			&row.WorkflowType,
			&row.RelatedID,
			&row.PhaseName,
			&row.Status,
			&row.StartDate,
			&row.DueDate,
			&row.CompletedAt,
			&row.Notes,
			&row.AgentAssigned,
			&row.SupportingAgents,
			&row.CreatedAt,
			&row.UpdatedAt,
			&row.AssigneeName,
			&row.IncidentCount,
			&row.ContextLabel,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan phase row: %w", err)
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating phase rows: %w", err)
	}

	return result, nil
}

// UpdateTx writes the full mutable row back inside a transaction
func (r *PhaseRepository) UpdateTx(ctx context.Context, q db.Querier, phase *models.WorkflowPhase) error {
	query := `
		UPDATE workflow_phase
		SET phase_name = $2, status = $3, start_date = $4, due_date = $5,
			completed_at = $6, notes = $7, agent_assigned = $8,
			supporting_agents = $9, updated_at = $10
		WHERE id = $1
	`

	tag, err := q.Exec(ctx, query,
		phase.ID,
		phase.PhaseName,
		phase.Status,
		phase.StartDate,
		phase.DueDate,
		phase.CompletedAt,
		phase.Notes,
		phase.AgentAssigned,
		phase.SupportingAgents,
		phase.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to update phase: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFoundf("phase not found: %s", phase.ID)
	}

	return nil
}

// SelfAssignTx atomically claims an unassigned phase for an agent.
// The claim is a single conditional UPDATE checked by affected-row count,
// never a read-then-write pair, so two concurrent callers cannot both win.
func (r *PhaseRepository) SelfAssignTx(ctx context.Context, q db.Querier, phaseID, agentID uuid.UUID, now time.Time) (bool, error) {
	query := `
		UPDATE workflow_phase
		SET agent_assigned = $2, updated_at = $3
		WHERE id = $1 AND agent_assigned IS NULL
	`

	tag, err := q.Exec(ctx, query, phaseID, agentID, now)
	if err != nil {
		return false, fmt.Errorf("failed to self-assign phase: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// DeleteTx hard-deletes a phase. Explicit administrative action only.
func (r *PhaseRepository) DeleteTx(ctx context.Context, q db.Querier, phaseID uuid.UUID) error {
	tag, err := q.Exec(ctx, `DELETE FROM workflow_phase WHERE id = $1`, phaseID)
	if err != nil {
		return fmt.Errorf("failed to delete phase: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFoundf("phase not found: %s", phaseID)
	}

	return nil
}
