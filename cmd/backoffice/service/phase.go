package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/vestacare/credops/cmd/backoffice/models"
	"github.com/vestacare/credops/common/apperr"
	"github.com/vestacare/credops/common/db"
	"github.com/vestacare/credops/common/logger"
)

// phaseStore is the phase persistence surface the service needs
type phaseStore interface {
	GetByID(ctx context.Context, q db.Querier, phaseID uuid.UUID) (*models.WorkflowPhase, error)
	GetRowByID(ctx context.Context, phaseID uuid.UUID) (*models.PhaseRow, error)
	List(ctx context.Context, filter *models.PhaseFilter) ([]*models.PhaseRow, error)
	UpdateTx(ctx context.Context, q db.Querier, phase *models.WorkflowPhase) error
	SelfAssignTx(ctx context.Context, q db.Querier, phaseID, agentID uuid.UUID, now time.Time) (bool, error)
	DeleteTx(ctx context.Context, q db.Querier, phaseID uuid.UUID) error
}

// txRunner runs a function inside one database transaction
type txRunner interface {
	WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

// auditRecorder appends an audit entry inside the caller's transaction
type auditRecorder interface {
	Record(ctx context.Context, q db.Querier, tableName, recordID string, action models.AuditAction, actor *models.Agent, oldData, newData any) error
}

// identityResolver maps external user ids to agents
type identityResolver interface {
	Resolve(ctx context.Context, userID string) (*models.Agent, error)
}

// assignmentNotifier publishes claim events after commit
type assignmentNotifier interface {
	PhaseAssigned(ctx context.Context, event *AssignmentEvent)
}

// PhaseService governs phase reads, partial updates, and the self-assign
// claim. Every mutation pairs with an audit snapshot in one transaction.
type PhaseService struct {
	store    phaseStore
	tx       txRunner
	audit    auditRecorder
	identity identityResolver
	notifier assignmentNotifier
	log      *logger.Logger
	now      func() time.Time
}

// NewPhaseService creates a new phase service
func NewPhaseService(store phaseStore, tx txRunner, audit auditRecorder, identity identityResolver, notifier assignmentNotifier, log *logger.Logger) *PhaseService {
	return &PhaseService{
		store:    store,
		tx:       tx,
		audit:    audit,
		identity: identity,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

// List retrieves enriched phase rows matching the filter. An
// assigned-to-me filter requires a resolvable caller; it is pinned to
// the caller's agent id here rather than trusting a client-sent id.
func (s *PhaseService) List(ctx context.Context, filter *models.PhaseFilter, userID string) ([]*models.PhaseRow, error) {
	if err := validatePhaseFilter(filter); err != nil {
		return nil, err
	}

	if filter.AssignedToMe {
		agent, err := s.identity.Resolve(ctx, userID)
		if err != nil {
			return nil, err
		}
		filter.AssignedToAgent = &agent.ID
	}

	return s.store.List(ctx, filter)
}

// ListGroups retrieves phases and aggregates them into workflow groups
func (s *PhaseService) ListGroups(ctx context.Context, filter *models.PhaseFilter, userID string) ([]*models.WorkflowGroup, error) {
	rows, err := s.List(ctx, filter, userID)
	if err != nil {
		return nil, err
	}

	return GroupPhases(rows, s.now()), nil
}

// Get retrieves a single enriched phase row
func (s *PhaseService) Get(ctx context.Context, phaseID uuid.UUID) (*models.PhaseRow, error) {
	return s.store.GetRowByID(ctx, phaseID)
}

// SelfAssign atomically claims an unassigned phase for the calling agent.
// The claim itself is a conditional update checked by affected-row count;
// when it loses, the caller gets Conflict, never a silent overwrite.
func (s *PhaseService) SelfAssign(ctx context.Context, phaseID uuid.UUID, userID string) (*models.WorkflowPhase, error) {
	agent, err := s.identity.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}

	var after *models.WorkflowPhase

	err = s.tx.WithTx(ctx, func(tx pgx.Tx) error {
		before, err := s.store.GetByID(ctx, tx, phaseID)
		if err != nil {
			return err
		}

		claimed, err := s.store.SelfAssignTx(ctx, tx, phaseID, agent.ID, s.now())
		if err != nil {
			return err
		}
		if !claimed {
			return apperr.Conflictf("phase is already assigned to someone")
		}

		after, err = s.store.GetByID(ctx, tx, phaseID)
		if err != nil {
			return err
		}

		return s.audit.Record(ctx, tx, "workflow_phase", phaseID.String(), models.AuditUpdate, agent, before, after)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("phase claimed",
		"phase_id", phaseID,
		"agent_id", agent.ID,
	)

	s.notifier.PhaseAssigned(ctx, &AssignmentEvent{
		PhaseID:    after.ID,
		AgentID:    agent.ID,
		AgentName:  agent.FullName(),
		PhaseName:  after.PhaseName,
		AssignedAt: after.UpdatedAt,
	})

	return after, nil
}

// Update applies a partial field update. An agent who touches a phase
// they are not assigned to is appended to supporting_agents, computed
// against the post-update assignee. The audit snapshot is written even
// when the net diff is empty.
func (s *PhaseService) Update(ctx context.Context, phaseID uuid.UUID, update *models.PhaseUpdate, userID string) (*models.WorkflowPhase, error) {
	if userID == "" {
		return nil, apperr.Unauthorizedf("missing user identity")
	}

	// An authenticated caller without an agent record may still edit;
	// only the collaborator bookkeeping and audit attribution need one.
	agent, err := s.identity.Resolve(ctx, userID)
	if err != nil && !apperr.IsKind(err, apperr.Unauthorized) {
		return nil, err
	}

	var updated *models.WorkflowPhase

	err = s.tx.WithTx(ctx, func(tx pgx.Tx) error {
		before, err := s.store.GetByID(ctx, tx, phaseID)
		if err != nil {
			return err
		}

		updated = applyPhaseUpdate(before, update)
		if err := validatePhaseDates(updated); err != nil {
			return err
		}

		recordCollaborator(updated, agent)
		updated.UpdatedAt = s.now()

		if err := s.store.UpdateTx(ctx, tx, updated); err != nil {
			return err
		}

		return s.audit.Record(ctx, tx, "workflow_phase", phaseID.String(), models.AuditUpdate, agent, before, updated)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("phase updated", "phase_id", phaseID)

	return updated, nil
}

// Delete hard-deletes a phase. Explicit administrative action only.
func (s *PhaseService) Delete(ctx context.Context, phaseID uuid.UUID, userID string) error {
	agent, err := s.identity.Resolve(ctx, userID)
	if err != nil {
		return err
	}
	if !agent.Role.AtLeast(models.RoleAdmin) {
		return apperr.Forbiddenf("deleting phases requires the admin role")
	}

	err = s.tx.WithTx(ctx, func(tx pgx.Tx) error {
		before, err := s.store.GetByID(ctx, tx, phaseID)
		if err != nil {
			return err
		}

		if err := s.store.DeleteTx(ctx, tx, phaseID); err != nil {
			return err
		}

		return s.audit.Record(ctx, tx, "workflow_phase", phaseID.String(), models.AuditDelete, agent, before, nil)
	})
	if err != nil {
		return err
	}

	s.log.Info("phase deleted", "phase_id", phaseID, "agent_id", agent.ID)

	return nil
}

// applyPhaseUpdate merges a partial update onto a copy of the stored
// phase. The input phase is left untouched for the audit "before" side.
func applyPhaseUpdate(phase *models.WorkflowPhase, update *models.PhaseUpdate) *models.WorkflowPhase {
	merged := *phase
	merged.SupportingAgents = append([]uuid.UUID(nil), phase.SupportingAgents...)

	if update.PhaseName != nil {
		merged.PhaseName = *update.PhaseName
	}
	if update.Status != nil {
		merged.Status = *update.Status
	}
	if update.StartDate != nil {
		merged.StartDate = update.StartDate
	}
	if update.DueDate != nil {
		merged.DueDate = update.DueDate
	}
	if update.CompletedAt != nil {
		merged.CompletedAt = update.CompletedAt
	}
	if update.Notes != nil {
		merged.Notes = update.Notes
	}
	if update.ClearAssignee {
		merged.AgentAssigned = nil
	} else if update.AgentAssigned != nil {
		merged.AgentAssigned = update.AgentAssigned
	}

	return &merged
}

// recordCollaborator appends the actor to supporting_agents when they
// are not the (post-update) assignee and not already recorded
func recordCollaborator(phase *models.WorkflowPhase, actor *models.Agent) {
	if actor == nil {
		return
	}
	if phase.AgentAssigned != nil && *phase.AgentAssigned == actor.ID {
		return
	}
	if phase.HasSupportingAgent(actor.ID) {
		return
	}
	phase.SupportingAgents = append(phase.SupportingAgents, actor.ID)
}

// validatePhaseDates enforces the boundary invariants on merged values:
// due date and completion date never precede the start date
func validatePhaseDates(phase *models.WorkflowPhase) error {
	if phase.StartDate == nil {
		return nil
	}
	if phase.DueDate != nil && phase.DueDate.Before(*phase.StartDate) {
		return apperr.Validationf("due date must not precede start date")
	}
	if phase.CompletedAt != nil && phase.CompletedAt.Before(*phase.StartDate) {
		return apperr.Validationf("completion date must not precede start date")
	}
	return nil
}

// validatePhaseFilter rejects malformed filters instead of degrading to
// an empty result
func validatePhaseFilter(filter *models.PhaseFilter) error {
	if filter.WorkflowType != "" && !filter.WorkflowType.Valid() {
		return apperr.Validationf("unknown workflow type: %s", filter.WorkflowType)
	}
	if filter.Limit < 0 || filter.Offset < 0 {
		return apperr.Validationf("limit and offset must not be negative")
	}
	if filter.AssignedToMe && filter.AssignedToAgent != nil {
		return apperr.Validationf("assigned_to and assigned_to_me are mutually exclusive")
	}
	return nil
}
