package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/vestacare/credops/cmd/backoffice/models"
	"github.com/vestacare/credops/common/apperr"
	"github.com/vestacare/credops/common/db"
)

const agentColumns = `id, user_id, first_name, last_name, email, team, team_number, role, created_at`

// uniqueViolation is the Postgres error code for unique constraint violations
const uniqueViolation = "23505"

// AgentRepository handles database operations for agents
type AgentRepository struct {
	db *db.DB
}

// NewAgentRepository creates a new agent repository
func NewAgentRepository(database *db.DB) *AgentRepository {
	return &AgentRepository{db: database}
}

func scanAgent(row pgx.Row) (*models.Agent, error) {
	agent := &models.Agent{}
	err := row.Scan(
		&agent.ID,
		&agent.UserID,
		&agent.FirstName,
		&agent.LastName,
		&agent.Email,
		&agent.Team,
		&agent.TeamNumber,
		&agent.Role,
		&agent.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return agent, nil
}

// GetByUserID resolves an external identity-provider user id to an agent
func (r *AgentRepository) GetByUserID(ctx context.Context, userID string) (*models.Agent, error) {
	query := `SELECT ` + agentColumns + ` FROM agent WHERE user_id = $1`

	agent, err := scanAgent(r.db.QueryRow(ctx, query, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.Unauthorizedf("no agent record for user: %s", userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get agent by user id: %w", err)
	}

	return agent, nil
}

// GetByID retrieves an agent by its internal id
func (r *AgentRepository) GetByID(ctx context.Context, agentID uuid.UUID) (*models.Agent, error) {
	query := `SELECT ` + agentColumns + ` FROM agent WHERE id = $1`

	agent, err := scanAgent(r.db.QueryRow(ctx, query, agentID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFoundf("agent not found: %s", agentID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get agent: %w", err)
	}

	return agent, nil
}

// List retrieves all agents ordered by name
func (r *AgentRepository) List(ctx context.Context) ([]*models.Agent, error) {
	query := `SELECT ` + agentColumns + ` FROM agent ORDER BY last_name, first_name`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}
	defer rows.Close()

	var agents []*models.Agent
	for rows.Next() {
		agent, err := scanAgent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan agent: %w", err)
		}
		agents = append(agents, agent)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating agents: %w", err)
	}

	return agents, nil
}

// CreateTx inserts a new agent inside a transaction. A duplicate user_id
// is a Conflict: at most one agent may exist per external identity.
func (r *AgentRepository) CreateTx(ctx context.Context, q db.Querier, agent *models.Agent) error {
	query := `
		INSERT INTO agent (id, user_id, first_name, last_name, email, team, team_number, role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := q.Exec(ctx, query,
		agent.ID,
		agent.UserID,
		agent.FirstName,
		agent.LastName,
		agent.Email,
		agent.Team,
		agent.TeamNumber,
		agent.Role,
		agent.CreatedAt,
	)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return apperr.Conflictf("agent already exists for user: %s", agent.UserID)
	}
	if err != nil {
		return fmt.Errorf("failed to create agent: %w", err)
	}

	return nil
}

// UpdateRoleTx changes an agent's role inside a transaction
func (r *AgentRepository) UpdateRoleTx(ctx context.Context, q db.Querier, agentID uuid.UUID, role models.Role) error {
	tag, err := q.Exec(ctx, `UPDATE agent SET role = $2 WHERE id = $1`, agentID, role)
	if err != nil {
		return fmt.Errorf("failed to update agent role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFoundf("agent not found: %s", agentID)
	}

	return nil
}

// DeleteTx removes an agent inside a transaction
func (r *AgentRepository) DeleteTx(ctx context.Context, q db.Querier, agentID uuid.UUID) error {
	tag, err := q.Exec(ctx, `DELETE FROM agent WHERE id = $1`, agentID)
	if err != nil {
		return fmt.Errorf("failed to delete agent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFoundf("agent not found: %s", agentID)
	}

	return nil
}
