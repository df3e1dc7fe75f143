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

// incidentStore is the incident persistence surface the service needs
type incidentStore interface {
	CreateTx(ctx context.Context, q db.Querier, inc *models.IncidentLog) error
	GetByID(ctx context.Context, q db.Querier, incidentID uuid.UUID) (*models.IncidentLog, error)
	ListByWorkflow(ctx context.Context, workflowID uuid.UUID) ([]*models.IncidentLog, error)
	UpdateTx(ctx context.Context, q db.Querier, inc *models.IncidentLog) error
	DeleteTx(ctx context.Context, q db.Querier, incidentID uuid.UUID) error
}

// phaseReader checks that a parent phase exists before attaching incidents
type phaseReader interface {
	GetByID(ctx context.Context, q db.Querier, phaseID uuid.UUID) (*models.WorkflowPhase, error)
}

// IncidentService manages the incident sub-log attached to workflow
// phases. Creation runs the escalation rules; escalated_to and the
// parent phase are frozen after creation.
type IncidentService struct {
	store      incidentStore
	phases     phaseReader
	tx         txRunner
	audit      auditRecorder
	identity   identityResolver
	escalation *EscalationEngine
	validate   *validator.Validate
	log        *logger.Logger
	now        func() time.Time
}

// NewIncidentService creates a new incident service
func NewIncidentService(store incidentStore, phases phaseReader, tx txRunner, audit auditRecorder, identity identityResolver, escalation *EscalationEngine, log *logger.Logger) *IncidentService {
	return &IncidentService{
		store:      store,
		phases:     phases,
		tx:         tx,
		audit:      audit,
		identity:   identity,
		escalation: escalation,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		log:        log,
		now:        time.Now,
	}
}

// Create attaches a new incident to a phase. The reporter is recorded
// from the resolved caller when one exists.
func (s *IncidentService) Create(ctx context.Context, workflowID uuid.UUID, req *models.CreateIncidentRequest, userID string) (*models.IncidentLog, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperr.Wrap(apperr.Validation, err, "invalid incident")
	}

	agent, err := s.identity.Resolve(ctx, userID)
	if err != nil && !apperr.IsKind(err, apperr.Unauthorized) {
		return nil, err
	}

	inc := &models.IncidentLog{
		ID:                  uuid.New(),
		WorkflowID:          workflowID,
		EscalatedTo:         *req.EscalatedTo,
		Subcategory:         req.Subcategory,
		Critical:            req.Critical,
		DateIdentified:      *req.DateIdentified,
		IncidentDescription: req.IncidentDescription,
		FollowUpRequired:    req.FollowUpRequired,
		FollowUpDate:        req.FollowUpDate,
		CreatedAt:           s.now(),
	}
	if agent != nil {
		reporterID := agent.ID
		inc.WhoReported = &reporterID
	}

	if s.escalation != nil {
		if matched := s.escalation.Evaluate(req); len(matched) > 0 {
			inc.Critical = true
			s.log.Info("incident escalated to critical",
				"incident_id", inc.ID,
				"rules", matched,
			)
		}
	}

	err = s.tx.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := s.phases.GetByID(ctx, tx, workflowID); err != nil {
			return err
		}

		if err := s.store.CreateTx(ctx, tx, inc); err != nil {
			return err
		}

		return s.audit.Record(ctx, tx, "incident_log", inc.ID.String(), models.AuditInsert, agent, nil, inc)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("incident created", "incident_id", inc.ID, "workflow_id", workflowID)

	return inc, nil
}

// List retrieves all incidents attached to a phase, newest first
func (s *IncidentService) List(ctx context.Context, workflowID uuid.UUID) ([]*models.IncidentLog, error) {
	return s.store.ListByWorkflow(ctx, workflowID)
}

// Update applies a partial update to an incident's mutable fields
func (s *IncidentService) Update(ctx context.Context, incidentID uuid.UUID, update *models.IncidentUpdate, userID string) (*models.IncidentLog, error) {
	if userID == "" {
		return nil, apperr.Unauthorizedf("missing user identity")
	}

	agent, err := s.identity.Resolve(ctx, userID)
	if err != nil && !apperr.IsKind(err, apperr.Unauthorized) {
		return nil, err
	}

	var updated *models.IncidentLog

	err = s.tx.WithTx(ctx, func(tx pgx.Tx) error {
		before, err := s.store.GetByID(ctx, tx, incidentID)
		if err != nil {
			return err
		}

		updated = applyIncidentUpdate(before, update)

		if err := s.store.UpdateTx(ctx, tx, updated); err != nil {
			return err
		}

		return s.audit.Record(ctx, tx, "incident_log", incidentID.String(), models.AuditUpdate, agent, before, updated)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("incident updated", "incident_id", incidentID)

	return updated, nil
}

// Delete hard-deletes an incident, keeping the final snapshot in the audit log
func (s *IncidentService) Delete(ctx context.Context, incidentID uuid.UUID, userID string) error {
	agent, err := s.identity.Resolve(ctx, userID)
	if err != nil {
		return err
	}
	if !agent.Role.AtLeast(models.RoleAdmin) {
		return apperr.Forbiddenf("deleting incidents requires the admin role")
	}

	err = s.tx.WithTx(ctx, func(tx pgx.Tx) error {
		before, err := s.store.GetByID(ctx, tx, incidentID)
		if err != nil {
			return err
		}

		if err := s.store.DeleteTx(ctx, tx, incidentID); err != nil {
			return err
		}

		return s.audit.Record(ctx, tx, "incident_log", incidentID.String(), models.AuditDelete, agent, before, nil)
	})
	if err != nil {
		return err
	}

	s.log.Info("incident deleted", "incident_id", incidentID, "agent_id", agent.ID)

	return nil
}

// applyIncidentUpdate merges a partial update onto a copy of the stored
// incident. workflow_id, escalated_to, and who_reported stay untouched.
func applyIncidentUpdate(inc *models.IncidentLog, update *models.IncidentUpdate) *models.IncidentLog {
	merged := *inc

	if update.Subcategory != nil {
		merged.Subcategory = *update.Subcategory
	}
	if update.Critical != nil {
		merged.Critical = *update.Critical
	}
	if update.DateIdentified != nil {
		merged.DateIdentified = *update.DateIdentified
	}
	if update.IncidentDescription != nil {
		merged.IncidentDescription = update.IncidentDescription
	}
	if update.ImmediateResolutionAttempt != nil {
		merged.ImmediateResolutionAttempt = update.ImmediateResolutionAttempt
	}
	if update.ResolutionDate != nil {
		merged.ResolutionDate = update.ResolutionDate
	}
	if update.FinalResolution != nil {
		merged.FinalResolution = update.FinalResolution
	}
	if update.PreventativeActionTaken != nil {
		merged.PreventativeActionTaken = update.PreventativeActionTaken
	}
	if update.FollowUpRequired != nil {
		merged.FollowUpRequired = *update.FollowUpRequired
	}
	if update.FollowUpDate != nil {
		merged.FollowUpDate = update.FollowUpDate
	}
	if update.FinalNotes != nil {
		merged.FinalNotes = update.FinalNotes
	}
	if update.Discussed != nil {
		merged.Discussed = *update.Discussed
	}

	return &merged
}
