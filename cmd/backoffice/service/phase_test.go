package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vestacare/credops/cmd/backoffice/models"
	"github.com/vestacare/credops/common/apperr"
	"github.com/vestacare/credops/common/db"
	"github.com/vestacare/credops/common/logger"
)

type fakeTxRunner struct{}

func (f *fakeTxRunner) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return fn(nil)
}

type fakePhaseStore struct {
	phases map[uuid.UUID]*models.WorkflowPhase
}

func newFakePhaseStore(phases ...*models.WorkflowPhase) *fakePhaseStore {
	s := &fakePhaseStore{phases: make(map[uuid.UUID]*models.WorkflowPhase)}
	for _, p := range phases {
		s.phases[p.ID] = p
	}
	return s
}

func (s *fakePhaseStore) GetByID(ctx context.Context, q db.Querier, phaseID uuid.UUID) (*models.WorkflowPhase, error) {
	p, ok := s.phases[phaseID]
	if !ok {
		return nil, apperr.NotFoundf("phase not found: %s", phaseID)
	}
	copied := *p
	copied.SupportingAgents = append([]uuid.UUID(nil), p.SupportingAgents...)
	return &copied, nil
}

func (s *fakePhaseStore) GetRowByID(ctx context.Context, phaseID uuid.UUID) (*models.PhaseRow, error) {
	p, err := s.GetByID(ctx, nil, phaseID)
	if err != nil {
		return nil, err
	}
	return &models.PhaseRow{WorkflowPhase: *p}, nil
}

func (s *fakePhaseStore) List(ctx context.Context, filter *models.PhaseFilter) ([]*models.PhaseRow, error) {
	var rows []*models.PhaseRow
	for _, p := range s.phases {
		if filter.AssignedToAgent != nil &&
			(p.AgentAssigned == nil || *p.AgentAssigned != *filter.AssignedToAgent) {
			continue
		}
		rows = append(rows, &models.PhaseRow{WorkflowPhase: *p})
	}
	return rows, nil
}

func (s *fakePhaseStore) UpdateTx(ctx context.Context, q db.Querier, phase *models.WorkflowPhase) error {
	if _, ok := s.phases[phase.ID]; !ok {
		return apperr.NotFoundf("phase not found: %s", phase.ID)
	}
	copied := *phase
	s.phases[phase.ID] = &copied
	return nil
}

// SelfAssignTx mirrors the conditional update: rows are only affected
// when the phase exists and is unassigned.
func (s *fakePhaseStore) SelfAssignTx(ctx context.Context, q db.Querier, phaseID, agentID uuid.UUID, now time.Time) (bool, error) {
	p, ok := s.phases[phaseID]
	if !ok || p.AgentAssigned != nil {
		return false, nil
	}
	p.AgentAssigned = &agentID
	p.UpdatedAt = now
	return true, nil
}

func (s *fakePhaseStore) DeleteTx(ctx context.Context, q db.Querier, phaseID uuid.UUID) error {
	if _, ok := s.phases[phaseID]; !ok {
		return apperr.NotFoundf("phase not found: %s", phaseID)
	}
	delete(s.phases, phaseID)
	return nil
}

type recordedAudit struct {
	table    string
	recordID string
	action   models.AuditAction
	actor    *models.Agent
	oldData  map[string]any
	newData  map[string]any
}

type fakeAuditRecorder struct {
	entries []recordedAudit
}

func (f *fakeAuditRecorder) Record(ctx context.Context, q db.Querier, tableName, recordID string, action models.AuditAction, actor *models.Agent, oldData, newData any) error {
	f.entries = append(f.entries, recordedAudit{
		table:    tableName,
		recordID: recordID,
		action:   action,
		actor:    actor,
		oldData:  Snapshot(oldData),
		newData:  Snapshot(newData),
	})
	return nil
}

type fakeIdentity struct {
	agents map[string]*models.Agent
}

func (f *fakeIdentity) Resolve(ctx context.Context, userID string) (*models.Agent, error) {
	if userID == "" {
		return nil, apperr.Unauthorizedf("missing user identity")
	}
	agent, ok := f.agents[userID]
	if !ok {
		return nil, apperr.Unauthorizedf("no agent record for user: %s", userID)
	}
	return agent, nil
}

func (f *fakeIdentity) Invalidate(ctx context.Context, userID string) {}

type fakeNotifier struct {
	events []*AssignmentEvent
}

func (f *fakeNotifier) PhaseAssigned(ctx context.Context, event *AssignmentEvent) {
	f.events = append(f.events, event)
}

func testAgent(role models.Role) *models.Agent {
	return &models.Agent{
		ID:        uuid.New(),
		UserID:    "auth0|" + uuid.NewString(),
		FirstName: "Dana",
		LastName:  "Reyes",
		Email:     "dana@vestacare.test",
		Role:      role,
	}
}

func testPhase() *models.WorkflowPhase {
	return &models.WorkflowPhase{
		ID:               uuid.New(),
		WorkflowType:     models.WorkflowTypePFC,
		RelatedID:        uuid.New(),
		PhaseName:        "Primary Source Verification",
		Status:           "Pending",
		SupportingAgents: []uuid.UUID{},
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}
}

func newTestPhaseService(store *fakePhaseStore, audit *fakeAuditRecorder, identity *fakeIdentity, notifier *fakeNotifier) *PhaseService {
	return NewPhaseService(store, &fakeTxRunner{}, audit, identity, notifier, logger.New("error", "text"))
}

func TestSelfAssignClaimsUnassignedPhase(t *testing.T) {
	agent := testAgent(models.RoleUser)
	phase := testPhase()
	store := newFakePhaseStore(phase)
	audit := &fakeAuditRecorder{}
	notifier := &fakeNotifier{}
	svc := newTestPhaseService(store, audit, &fakeIdentity{agents: map[string]*models.Agent{agent.UserID: agent}}, notifier)

	claimed, err := svc.SelfAssign(context.Background(), phase.ID, agent.UserID)
	require.NoError(t, err)
	require.NotNil(t, claimed.AgentAssigned)
	assert.Equal(t, agent.ID, *claimed.AgentAssigned)

	// One audit entry with both snapshots
	require.Len(t, audit.entries, 1)
	assert.Equal(t, "workflow_phase", audit.entries[0].table)
	assert.Equal(t, models.AuditUpdate, audit.entries[0].action)
	assert.Nil(t, audit.entries[0].oldData["agent_assigned"])
	assert.Equal(t, agent.ID.String(), audit.entries[0].newData["agent_assigned"])

	// Claim event published
	require.Len(t, notifier.events, 1)
	assert.Equal(t, phase.ID, notifier.events[0].PhaseID)
	assert.Equal(t, "Dana Reyes", notifier.events[0].AgentName)
}

func TestSelfAssignAlreadyAssignedIsConflict(t *testing.T) {
	holder := uuid.New()
	agent := testAgent(models.RoleUser)
	phase := testPhase()
	phase.AgentAssigned = &holder

	store := newFakePhaseStore(phase)
	audit := &fakeAuditRecorder{}
	notifier := &fakeNotifier{}
	svc := newTestPhaseService(store, audit, &fakeIdentity{agents: map[string]*models.Agent{agent.UserID: agent}}, notifier)

	_, err := svc.SelfAssign(context.Background(), phase.ID, agent.UserID)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.Conflict))

	// The losing claim leaves no audit entry and no event
	assert.Empty(t, audit.entries)
	assert.Empty(t, notifier.events)
	assert.Equal(t, holder, *store.phases[phase.ID].AgentAssigned)
}

func TestSelfAssignMissingPhaseIsNotFound(t *testing.T) {
	agent := testAgent(models.RoleUser)
	svc := newTestPhaseService(newFakePhaseStore(), &fakeAuditRecorder{}, &fakeIdentity{agents: map[string]*models.Agent{agent.UserID: agent}}, &fakeNotifier{})

	_, err := svc.SelfAssign(context.Background(), uuid.New(), agent.UserID)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.NotFound))
}

func TestSelfAssignUnknownUserIsUnauthorized(t *testing.T) {
	phase := testPhase()
	svc := newTestPhaseService(newFakePhaseStore(phase), &fakeAuditRecorder{}, &fakeIdentity{agents: map[string]*models.Agent{}}, &fakeNotifier{})

	_, err := svc.SelfAssign(context.Background(), phase.ID, "auth0|nobody")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.Unauthorized))
}

func TestUpdateAppendsSupportingAgentWhenNotAssignee(t *testing.T) {
	assignee := uuid.New()
	agent := testAgent(models.RoleUser)
	phase := testPhase()
	phase.AgentAssigned = &assignee

	store := newFakePhaseStore(phase)
	audit := &fakeAuditRecorder{}
	svc := newTestPhaseService(store, audit, &fakeIdentity{agents: map[string]*models.Agent{agent.UserID: agent}}, &fakeNotifier{})

	notes := "verified NPI"
	updated, err := svc.Update(context.Background(), phase.ID, &models.PhaseUpdate{Notes: &notes}, agent.UserID)
	require.NoError(t, err)

	require.Len(t, updated.SupportingAgents, 1)
	assert.Equal(t, agent.ID, updated.SupportingAgents[0])

	// Repeating the edit must not duplicate the entry
	updated, err = svc.Update(context.Background(), phase.ID, &models.PhaseUpdate{Notes: &notes}, agent.UserID)
	require.NoError(t, err)
	assert.Len(t, updated.SupportingAgents, 1)
}

func TestUpdateAssigneeIsNotSupportingAgent(t *testing.T) {
	agent := testAgent(models.RoleUser)
	phase := testPhase()
	phase.AgentAssigned = &agent.ID

	store := newFakePhaseStore(phase)
	svc := newTestPhaseService(store, &fakeAuditRecorder{}, &fakeIdentity{agents: map[string]*models.Agent{agent.UserID: agent}}, &fakeNotifier{})

	status := "In Progress"
	updated, err := svc.Update(context.Background(), phase.ID, &models.PhaseUpdate{Status: &status}, agent.UserID)
	require.NoError(t, err)
	assert.Empty(t, updated.SupportingAgents)
}

func TestUpdateChecksAgainstPostUpdateAssignee(t *testing.T) {
	agent := testAgent(models.RoleUser)
	phase := testPhase()

	store := newFakePhaseStore(phase)
	svc := newTestPhaseService(store, &fakeAuditRecorder{}, &fakeIdentity{agents: map[string]*models.Agent{agent.UserID: agent}}, &fakeNotifier{})

	// The actor assigns the phase to themselves in the same update:
	// against the new assignee value they are not a collaborator.
	updated, err := svc.Update(context.Background(), phase.ID, &models.PhaseUpdate{AgentAssigned: &agent.ID}, agent.UserID)
	require.NoError(t, err)
	assert.Empty(t, updated.SupportingAgents)

	// Now they hand it off; from then on their edits make them a collaborator
	other := uuid.New()
	updated, err = svc.Update(context.Background(), phase.ID, &models.PhaseUpdate{AgentAssigned: &other}, agent.UserID)
	require.NoError(t, err)
	require.Len(t, updated.SupportingAgents, 1)
	assert.Equal(t, agent.ID, updated.SupportingAgents[0])
}

func TestUpdateRejectsDueDateBeforeStartDate(t *testing.T) {
	agent := testAgent(models.RoleUser)
	phase := testPhase()
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	phase.StartDate = &start

	store := newFakePhaseStore(phase)
	svc := newTestPhaseService(store, &fakeAuditRecorder{}, &fakeIdentity{agents: map[string]*models.Agent{agent.UserID: agent}}, &fakeNotifier{})

	early := start.Add(-24 * time.Hour)
	_, err := svc.Update(context.Background(), phase.ID, &models.PhaseUpdate{DueDate: &early}, agent.UserID)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.Validation))

	_, err = svc.Update(context.Background(), phase.ID, &models.PhaseUpdate{CompletedAt: &early}, agent.UserID)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.Validation))
}

func TestUpdateEmptyUpdateStillAudited(t *testing.T) {
	agent := testAgent(models.RoleUser)
	phase := testPhase()
	phase.AgentAssigned = &agent.ID

	audit := &fakeAuditRecorder{}
	svc := newTestPhaseService(newFakePhaseStore(phase), audit, &fakeIdentity{agents: map[string]*models.Agent{agent.UserID: agent}}, &fakeNotifier{})

	_, err := svc.Update(context.Background(), phase.ID, &models.PhaseUpdate{}, agent.UserID)
	require.NoError(t, err)
	require.Len(t, audit.entries, 1)
}

func TestUpdateClearAssignee(t *testing.T) {
	agent := testAgent(models.RoleUser)
	phase := testPhase()
	phase.AgentAssigned = &agent.ID

	store := newFakePhaseStore(phase)
	svc := newTestPhaseService(store, &fakeAuditRecorder{}, &fakeIdentity{agents: map[string]*models.Agent{agent.UserID: agent}}, &fakeNotifier{})

	updated, err := svc.Update(context.Background(), phase.ID, &models.PhaseUpdate{ClearAssignee: true}, agent.UserID)
	require.NoError(t, err)
	assert.Nil(t, updated.AgentAssigned)
	// Unassigning makes the actor a collaborator of the now-unowned phase
	require.Len(t, updated.SupportingAgents, 1)
}

func TestUpdateWithoutUserIDIsUnauthorized(t *testing.T) {
	phase := testPhase()
	svc := newTestPhaseService(newFakePhaseStore(phase), &fakeAuditRecorder{}, &fakeIdentity{agents: map[string]*models.Agent{}}, &fakeNotifier{})

	_, err := svc.Update(context.Background(), phase.ID, &models.PhaseUpdate{}, "")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.Unauthorized))
}

func TestUpdateUnknownAgentStillApplies(t *testing.T) {
	phase := testPhase()
	audit := &fakeAuditRecorder{}
	store := newFakePhaseStore(phase)
	svc := newTestPhaseService(store, audit, &fakeIdentity{agents: map[string]*models.Agent{}}, &fakeNotifier{})

	status := "In Progress"
	updated, err := svc.Update(context.Background(), phase.ID, &models.PhaseUpdate{Status: &status}, "auth0|no-agent-record")
	require.NoError(t, err)
	assert.Equal(t, "In Progress", updated.Status)
	assert.Empty(t, updated.SupportingAgents)

	require.Len(t, audit.entries, 1)
	assert.Nil(t, audit.entries[0].actor)
}

func TestDeletePhaseRequiresAdmin(t *testing.T) {
	user := testAgent(models.RoleUser)
	admin := testAgent(models.RoleAdmin)
	phase := testPhase()

	store := newFakePhaseStore(phase)
	audit := &fakeAuditRecorder{}
	svc := newTestPhaseService(store, audit, &fakeIdentity{agents: map[string]*models.Agent{
		user.UserID:  user,
		admin.UserID: admin,
	}}, &fakeNotifier{})

	err := svc.Delete(context.Background(), phase.ID, user.UserID)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.Forbidden))

	err = svc.Delete(context.Background(), phase.ID, admin.UserID)
	require.NoError(t, err)
	require.Len(t, audit.entries, 1)
	assert.Equal(t, models.AuditDelete, audit.entries[0].action)
	assert.Empty(t, audit.entries[0].newData)
}

func TestListRejectsMalformedFilter(t *testing.T) {
	svc := newTestPhaseService(newFakePhaseStore(), &fakeAuditRecorder{}, &fakeIdentity{}, &fakeNotifier{})

	_, err := svc.List(context.Background(), &models.PhaseFilter{WorkflowType: "bogus"}, "")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.Validation))

	_, err = svc.List(context.Background(), &models.PhaseFilter{Limit: -1}, "")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.Validation))

	agentID := uuid.New()
	_, err = svc.List(context.Background(), &models.PhaseFilter{
		AssignedToMe:    true,
		AssignedToAgent: &agentID,
	}, "")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.Validation))
}

func TestListAssignedToMeFiltersToCaller(t *testing.T) {
	agent := testAgent(models.RoleUser)
	mine := testPhase()
	mine.AgentAssigned = &agent.ID
	other := testPhase()
	store := newFakePhaseStore(mine, other)
	svc := newTestPhaseService(store, &fakeAuditRecorder{}, &fakeIdentity{agents: map[string]*models.Agent{agent.UserID: agent}}, &fakeNotifier{})

	rows, err := svc.List(context.Background(), &models.PhaseFilter{AssignedToMe: true}, agent.UserID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, mine.ID, rows[0].ID)

	// Without the flag both phases come back
	rows, err = svc.List(context.Background(), &models.PhaseFilter{}, agent.UserID)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestListAssignedToMeRequiresAgentRecord(t *testing.T) {
	svc := newTestPhaseService(newFakePhaseStore(testPhase()), &fakeAuditRecorder{}, &fakeIdentity{}, &fakeNotifier{})

	_, err := svc.List(context.Background(), &models.PhaseFilter{AssignedToMe: true}, "auth0|nobody")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.Unauthorized))

	_, err = svc.List(context.Background(), &models.PhaseFilter{AssignedToMe: true}, "")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.Unauthorized))
}
