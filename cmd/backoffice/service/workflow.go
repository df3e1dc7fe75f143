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

// entityStore is the parent-entity persistence surface the service needs
type entityStore interface {
	CreateProviderTx(ctx context.Context, q db.Querier, p *models.Provider) error
	GetProvider(ctx context.Context, providerID uuid.UUID) (*models.Provider, error)
	ListProviders(ctx context.Context) ([]*models.Provider, error)
	CreateFacilityTx(ctx context.Context, q db.Querier, f *models.Facility) error
	GetFacility(ctx context.Context, facilityID uuid.UUID) (*models.Facility, error)
	ListFacilities(ctx context.Context) ([]*models.Facility, error)
	CreateLinkTx(ctx context.Context, q db.Querier, link *models.CredentialLink) error
	GetLink(ctx context.Context, linkID uuid.UUID) (*models.CredentialLink, error)
}

// phaseCreator inserts phases inside the workflow transaction
type phaseCreator interface {
	CreateTx(ctx context.Context, q db.Querier, phase *models.WorkflowPhase) error
}

// WorkflowService starts credentialing workflows and manages the parent
// entities (providers, facilities) that anchor them. Starting a workflow
// creates the credential link and its whole phase batch in one
// transaction: either the full workflow exists or none of it does.
type WorkflowService struct {
	entities entityStore
	phases   phaseCreator
	tx       txRunner
	audit    auditRecorder
	identity identityResolver
	validate *validator.Validate
	log      *logger.Logger
	now      func() time.Time
}

// NewWorkflowService creates a new workflow service
func NewWorkflowService(entities entityStore, phases phaseCreator, tx txRunner, audit auditRecorder, identity identityResolver, log *logger.Logger) *WorkflowService {
	return &WorkflowService{
		entities: entities,
		phases:   phases,
		tx:       tx,
		audit:    audit,
		identity: identity,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      log,
		now:      time.Now,
	}
}

// Create starts a new workflow: the credential link plus all requested
// phases sharing its id as related_id. A duplicate provider-facility
// pair aborts the whole batch with Conflict.
func (s *WorkflowService) Create(ctx context.Context, req *models.CreateWorkflowRequest, userID string) (*models.CreateWorkflowResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperr.Wrap(apperr.Validation, err, "invalid workflow request")
	}
	if !req.WorkflowType.Valid() {
		return nil, apperr.Validationf("unknown workflow type: %s", req.WorkflowType)
	}

	agent, err := s.identity.Resolve(ctx, userID)
	if err != nil && !apperr.IsKind(err, apperr.Unauthorized) {
		return nil, err
	}

	now := s.now()
	link := &models.CredentialLink{
		ID:               uuid.New(),
		ProviderID:       req.ProviderID,
		FacilityID:       req.FacilityID,
		RelationshipType: req.RelationshipType,
		CreatedAt:        now,
	}

	phases := make([]*models.WorkflowPhase, 0, len(req.Phases))
	for _, def := range req.Phases {
		status := def.Status
		if status == "" {
			status = "Pending"
		}
		phases = append(phases, &models.WorkflowPhase{
			ID:               uuid.New(),
			WorkflowType:     req.WorkflowType,
			RelatedID:        link.ID,
			PhaseName:        def.PhaseName,
			Status:           status,
			StartDate:        def.StartDate,
			DueDate:          def.DueDate,
			Notes:            def.Notes,
			SupportingAgents: []uuid.UUID{},
			CreatedAt:        now,
			UpdatedAt:        now,
		})
	}

	for _, phase := range phases {
		if err := validatePhaseDates(phase); err != nil {
			return nil, err
		}
	}

	err = s.tx.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := s.entities.GetProvider(ctx, req.ProviderID); err != nil {
			return err
		}
		if _, err := s.entities.GetFacility(ctx, req.FacilityID); err != nil {
			return err
		}

		if err := s.entities.CreateLinkTx(ctx, tx, link); err != nil {
			return err
		}
		if err := s.audit.Record(ctx, tx, "provider_facility_credential", link.ID.String(), models.AuditInsert, agent, nil, link); err != nil {
			return err
		}

		for _, phase := range phases {
			if err := s.phases.CreateTx(ctx, tx, phase); err != nil {
				return err
			}
			if err := s.audit.Record(ctx, tx, "workflow_phase", phase.ID.String(), models.AuditInsert, agent, nil, phase); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("workflow created",
		"link_id", link.ID,
		"workflow_type", req.WorkflowType,
		"phase_count", len(phases),
	)

	return &models.CreateWorkflowResponse{Link: link, Phases: phases}, nil
}

// CreateProvider registers a new provider
func (s *WorkflowService) CreateProvider(ctx context.Context, req *models.CreateProviderRequest, userID string) (*models.Provider, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperr.Wrap(apperr.Validation, err, "invalid provider")
	}

	agent, err := s.identity.Resolve(ctx, userID)
	if err != nil && !apperr.IsKind(err, apperr.Unauthorized) {
		return nil, err
	}

	now := s.now()
	p := &models.Provider{
		ID:        uuid.New(),
		FirstName: req.FirstName,
		LastName:  req.LastName,
		NPI:       req.NPI,
		Specialty: req.Specialty,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.tx.WithTx(ctx, func(tx pgx.Tx) error {
		if err := s.entities.CreateProviderTx(ctx, tx, p); err != nil {
			return err
		}
		return s.audit.Record(ctx, tx, "provider", p.ID.String(), models.AuditInsert, agent, nil, p)
	})
	if err != nil {
		return nil, err
	}

	return p, nil
}

// CreateFacility registers a new facility
func (s *WorkflowService) CreateFacility(ctx context.Context, req *models.CreateFacilityRequest, userID string) (*models.Facility, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperr.Wrap(apperr.Validation, err, "invalid facility")
	}

	agent, err := s.identity.Resolve(ctx, userID)
	if err != nil && !apperr.IsKind(err, apperr.Unauthorized) {
		return nil, err
	}

	now := s.now()
	f := &models.Facility{
		ID:        uuid.New(),
		Name:      req.Name,
		State:     req.State,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.tx.WithTx(ctx, func(tx pgx.Tx) error {
		if err := s.entities.CreateFacilityTx(ctx, tx, f); err != nil {
			return err
		}
		return s.audit.Record(ctx, tx, "facility", f.ID.String(), models.AuditInsert, agent, nil, f)
	})
	if err != nil {
		return nil, err
	}

	return f, nil
}

// ListProviders retrieves all providers
func (s *WorkflowService) ListProviders(ctx context.Context) ([]*models.Provider, error) {
	return s.entities.ListProviders(ctx)
}

// ListFacilities retrieves all facilities
func (s *WorkflowService) ListFacilities(ctx context.Context) ([]*models.Facility, error) {
	return s.entities.ListFacilities(ctx)
}

// GetLink retrieves a credential link by id
func (s *WorkflowService) GetLink(ctx context.Context, linkID uuid.UUID) (*models.CredentialLink, error) {
	return s.entities.GetLink(ctx, linkID)
}
