package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vestacare/credops/cmd/backoffice/models"
	"github.com/vestacare/credops/common/apperr"
	"github.com/vestacare/credops/common/config"
	"github.com/vestacare/credops/common/db"
	"github.com/vestacare/credops/common/logger"
)

type fakeIncidentStore struct {
	incidents map[uuid.UUID]*models.IncidentLog
}

func newFakeIncidentStore(incidents ...*models.IncidentLog) *fakeIncidentStore {
	s := &fakeIncidentStore{incidents: make(map[uuid.UUID]*models.IncidentLog)}
	for _, inc := range incidents {
		s.incidents[inc.ID] = inc
	}
	return s
}

func (s *fakeIncidentStore) CreateTx(ctx context.Context, q db.Querier, inc *models.IncidentLog) error {
	copied := *inc
	s.incidents[inc.ID] = &copied
	return nil
}

func (s *fakeIncidentStore) GetByID(ctx context.Context, q db.Querier, incidentID uuid.UUID) (*models.IncidentLog, error) {
	inc, ok := s.incidents[incidentID]
	if !ok {
		return nil, apperr.NotFoundf("incident not found: %s", incidentID)
	}
	copied := *inc
	return &copied, nil
}

func (s *fakeIncidentStore) ListByWorkflow(ctx context.Context, workflowID uuid.UUID) ([]*models.IncidentLog, error) {
	var result []*models.IncidentLog
	for _, inc := range s.incidents {
		if inc.WorkflowID == workflowID {
			result = append(result, inc)
		}
	}
	return result, nil
}

func (s *fakeIncidentStore) UpdateTx(ctx context.Context, q db.Querier, inc *models.IncidentLog) error {
	stored, ok := s.incidents[inc.ID]
	if !ok {
		return apperr.NotFoundf("incident not found: %s", inc.ID)
	}
	// Immutable columns stay as stored, like the real UPDATE statement
	copied := *inc
	copied.WorkflowID = stored.WorkflowID
	copied.EscalatedTo = stored.EscalatedTo
	copied.WhoReported = stored.WhoReported
	s.incidents[inc.ID] = &copied
	return nil
}

func (s *fakeIncidentStore) DeleteTx(ctx context.Context, q db.Querier, incidentID uuid.UUID) error {
	if _, ok := s.incidents[incidentID]; !ok {
		return apperr.NotFoundf("incident not found: %s", incidentID)
	}
	delete(s.incidents, incidentID)
	return nil
}

func newTestIncidentService(t *testing.T, phases *fakePhaseStore, store *fakeIncidentStore, audit *fakeAuditRecorder, identity *fakeIdentity, rules []config.EscalationRule) *IncidentService {
	t.Helper()
	log := logger.New("error", "text")
	engine, err := NewEscalationEngine(rules, log)
	require.NoError(t, err)
	return NewIncidentService(store, phases, &fakeTxRunner{}, audit, identity, engine, log)
}

func TestCreateIncidentAttachesToPhase(t *testing.T) {
	agent := testAgent(models.RoleUser)
	phase := testPhase()
	store := newFakeIncidentStore()
	audit := &fakeAuditRecorder{}
	svc := newTestIncidentService(t, newFakePhaseStore(phase), store, audit,
		&fakeIdentity{agents: map[string]*models.Agent{agent.UserID: agent}}, nil)

	inc, err := svc.Create(context.Background(), phase.ID, testIncidentRequest("Missing Document", false), agent.UserID)
	require.NoError(t, err)
	assert.Equal(t, phase.ID, inc.WorkflowID)
	require.NotNil(t, inc.WhoReported)
	assert.Equal(t, agent.ID, *inc.WhoReported)
	assert.False(t, inc.Critical)

	require.Len(t, audit.entries, 1)
	assert.Equal(t, "incident_log", audit.entries[0].table)
	assert.Equal(t, models.AuditInsert, audit.entries[0].action)
	assert.Empty(t, audit.entries[0].oldData)
}

func TestCreateIncidentMissingPhaseIsNotFound(t *testing.T) {
	agent := testAgent(models.RoleUser)
	svc := newTestIncidentService(t, newFakePhaseStore(), newFakeIncidentStore(), &fakeAuditRecorder{},
		&fakeIdentity{agents: map[string]*models.Agent{agent.UserID: agent}}, nil)

	_, err := svc.Create(context.Background(), uuid.New(), testIncidentRequest("Missing Document", false), agent.UserID)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.NotFound))
}

func TestCreateIncidentValidatesRequiredFields(t *testing.T) {
	agent := testAgent(models.RoleUser)
	phase := testPhase()
	svc := newTestIncidentService(t, newFakePhaseStore(phase), newFakeIncidentStore(), &fakeAuditRecorder{},
		&fakeIdentity{agents: map[string]*models.Agent{agent.UserID: agent}}, nil)

	req := testIncidentRequest("Missing Document", false)
	req.Subcategory = ""
	_, err := svc.Create(context.Background(), phase.ID, req, agent.UserID)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.Validation))

	req = testIncidentRequest("Missing Document", false)
	req.EscalatedTo = nil
	_, err = svc.Create(context.Background(), phase.ID, req, agent.UserID)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.Validation))

	req = testIncidentRequest("Missing Document", false)
	req.DateIdentified = nil
	_, err = svc.Create(context.Background(), phase.ID, req, agent.UserID)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.Validation))
}

func TestCreateIncidentEscalationForcesCritical(t *testing.T) {
	agent := testAgent(models.RoleUser)
	phase := testPhase()
	svc := newTestIncidentService(t, newFakePhaseStore(phase), newFakeIncidentStore(), &fakeAuditRecorder{},
		&fakeIdentity{agents: map[string]*models.Agent{agent.UserID: agent}},
		[]config.EscalationRule{{Name: "expired", Expr: `subcategory == "Expired Credential"`}})

	inc, err := svc.Create(context.Background(), phase.ID, testIncidentRequest("Expired Credential", false), agent.UserID)
	require.NoError(t, err)
	assert.True(t, inc.Critical)
}

func TestUpdateIncidentPreservesImmutableFields(t *testing.T) {
	agent := testAgent(models.RoleUser)
	escalatedTo := uuid.New()
	workflowID := uuid.New()
	inc := &models.IncidentLog{
		ID:             uuid.New(),
		WorkflowID:     workflowID,
		EscalatedTo:    escalatedTo,
		Subcategory:    "Missing Document",
		DateIdentified: time.Now(),
		CreatedAt:      time.Now(),
	}

	store := newFakeIncidentStore(inc)
	audit := &fakeAuditRecorder{}
	svc := newTestIncidentService(t, newFakePhaseStore(), store, audit,
		&fakeIdentity{agents: map[string]*models.Agent{agent.UserID: agent}}, nil)

	resolution := "re-requested document from provider"
	resolved := time.Now()
	updated, err := svc.Update(context.Background(), inc.ID, &models.IncidentUpdate{
		FinalResolution: &resolution,
		ResolutionDate:  &resolved,
	}, agent.UserID)
	require.NoError(t, err)

	assert.Equal(t, escalatedTo, updated.EscalatedTo)
	assert.Equal(t, workflowID, updated.WorkflowID)
	require.NotNil(t, updated.FinalResolution)
	assert.Equal(t, resolution, *updated.FinalResolution)

	require.Len(t, audit.entries, 1)
	assert.Equal(t, models.AuditUpdate, audit.entries[0].action)
}

func TestDeleteIncidentRequiresAdminAndAuditsSnapshot(t *testing.T) {
	user := testAgent(models.RoleUser)
	admin := testAgent(models.RoleAdmin)
	inc := &models.IncidentLog{
		ID:          uuid.New(),
		WorkflowID:  uuid.New(),
		EscalatedTo: uuid.New(),
		Subcategory: "Missing Document",
		CreatedAt:   time.Now(),
	}

	store := newFakeIncidentStore(inc)
	audit := &fakeAuditRecorder{}
	svc := newTestIncidentService(t, newFakePhaseStore(), store, audit,
		&fakeIdentity{agents: map[string]*models.Agent{user.UserID: user, admin.UserID: admin}}, nil)

	err := svc.Delete(context.Background(), inc.ID, user.UserID)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.Forbidden))

	err = svc.Delete(context.Background(), inc.ID, admin.UserID)
	require.NoError(t, err)

	require.Len(t, audit.entries, 1)
	assert.Equal(t, models.AuditDelete, audit.entries[0].action)
	assert.Equal(t, "Missing Document", audit.entries[0].oldData["subcategory"])
	assert.Empty(t, audit.entries[0].newData)
}
