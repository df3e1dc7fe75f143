package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/vestacare/credops/cmd/backoffice/models"
	"github.com/vestacare/credops/common/apperr"
	"github.com/vestacare/credops/common/db"
	"github.com/vestacare/credops/common/logger"
)

// agentStore is the agent persistence surface the service needs
type agentStore interface {
	GetByID(ctx context.Context, agentID uuid.UUID) (*models.Agent, error)
	List(ctx context.Context) ([]*models.Agent, error)
	CreateTx(ctx context.Context, q db.Querier, agent *models.Agent) error
	UpdateRoleTx(ctx context.Context, q db.Querier, agentID uuid.UUID, role models.Role) error
	DeleteTx(ctx context.Context, q db.Querier, agentID uuid.UUID) error
}

// identityInvalidator drops cached agent lookups after mutations
type identityInvalidator interface {
	identityResolver
	Invalidate(ctx context.Context, userID string)
}

// AgentService manages the staff roster. Role changes and removals are
// superadmin-only and never apply to the caller's own record.
type AgentService struct {
	store    agentStore
	tx       txRunner
	audit    auditRecorder
	identity identityInvalidator
	validate *validator.Validate
	log      *logger.Logger
	now      func() time.Time
}

// NewAgentService creates a new agent service
func NewAgentService(store agentStore, tx txRunner, audit auditRecorder, identity identityInvalidator, log *logger.Logger) *AgentService {
	return &AgentService{
		store:    store,
		tx:       tx,
		audit:    audit,
		identity: identity,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      log,
		now:      time.Now,
	}
}

// Me resolves the calling agent from their external user id
func (s *AgentService) Me(ctx context.Context, userID string) (*models.Agent, error) {
	return s.identity.Resolve(ctx, userID)
}

// List retrieves the full roster
func (s *AgentService) List(ctx context.Context) ([]*models.Agent, error) {
	return s.store.List(ctx)
}

// Get retrieves an agent by internal id
func (s *AgentService) Get(ctx context.Context, agentID uuid.UUID) (*models.Agent, error) {
	return s.store.GetByID(ctx, agentID)
}

// Create registers a new agent. Admin and above; only a superadmin may
// grant a role higher than user.
func (s *AgentService) Create(ctx context.Context, req *models.CreateAgentRequest, userID string) (*models.Agent, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperr.Wrap(apperr.Validation, err, "invalid agent")
	}

	caller, err := s.identity.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !caller.Role.AtLeast(models.RoleAdmin) {
		return nil, apperr.Forbiddenf("creating agents requires the admin role")
	}

	role := req.Role
	if role == "" {
		role = models.RoleUser
	}
	if !role.Valid() {
		return nil, apperr.Validationf("unknown role: %s", role)
	}
	if role != models.RoleUser && !caller.Role.AtLeast(models.RoleSuperadmin) {
		return nil, apperr.Forbiddenf("granting the %s role requires the superadmin role", role)
	}

	agent := &models.Agent{
		ID:         uuid.New(),
		UserID:     req.UserID,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Email:      req.Email,
		Team:       req.Team,
		TeamNumber: req.TeamNumber,
		Role:       role,
		CreatedAt:  s.now(),
	}

	err = s.tx.WithTx(ctx, func(tx pgx.Tx) error {
		if err := s.store.CreateTx(ctx, tx, agent); err != nil {
			return err
		}
		return s.audit.Record(ctx, tx, "agent", agent.ID.String(), models.AuditInsert, caller, nil, agent)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("agent created", "agent_id", agent.ID, "role", agent.Role)

	return agent, nil
}

// UpdateRole changes an agent's role. Superadmin only; a superadmin
// cannot change their own role.
func (s *AgentService) UpdateRole(ctx context.Context, agentID uuid.UUID, role models.Role, userID string) (*models.Agent, error) {
	if !role.Valid() {
		return nil, apperr.Validationf("unknown role: %s", role)
	}

	caller, err := s.identity.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !caller.Role.AtLeast(models.RoleSuperadmin) {
		return nil, apperr.Forbiddenf("changing roles requires the superadmin role")
	}
	if caller.ID == agentID {
		return nil, apperr.Forbiddenf("agents cannot change their own role")
	}

	var updated *models.Agent

	err = s.tx.WithTx(ctx, func(tx pgx.Tx) error {
		before, err := s.store.GetByID(ctx, agentID)
		if err != nil {
			return err
		}

		if err := s.store.UpdateRoleTx(ctx, tx, agentID, role); err != nil {
			return err
		}

		after := *before
		after.Role = role
		updated = &after

		return s.audit.Record(ctx, tx, "agent", agentID.String(), models.AuditUpdate, caller, before, updated)
	})
	if err != nil {
		return nil, err
	}

	s.identity.Invalidate(ctx, updated.UserID)
	s.log.Info("agent role updated", "agent_id", agentID, "role", role)

	return updated, nil
}

// Delete removes an agent from the roster. Superadmin only; a superadmin
// cannot delete their own record.
func (s *AgentService) Delete(ctx context.Context, agentID uuid.UUID, userID string) error {
	caller, err := s.identity.Resolve(ctx, userID)
	if err != nil {
		return err
	}
	if !caller.Role.AtLeast(models.RoleSuperadmin) {
		return apperr.Forbiddenf("deleting agents requires the superadmin role")
	}
	if caller.ID == agentID {
		return apperr.Forbiddenf("agents cannot delete their own record")
	}

	var removed *models.Agent

	err = s.tx.WithTx(ctx, func(tx pgx.Tx) error {
		before, err := s.store.GetByID(ctx, agentID)
		if err != nil {
			return err
		}
		removed = before

		if err := s.store.DeleteTx(ctx, tx, agentID); err != nil {
			return err
		}

		return s.audit.Record(ctx, tx, "agent", agentID.String(), models.AuditDelete, caller, before, nil)
	})
	if err != nil {
		return err
	}

	s.identity.Invalidate(ctx, removed.UserID)
	s.log.Info("agent deleted", "agent_id", agentID)

	return nil
}
