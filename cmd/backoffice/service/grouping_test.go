package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vestacare/credops/cmd/backoffice/models"
)

func phaseRow(workflowType models.WorkflowType, relatedID uuid.UUID, status string, updatedAt time.Time) *models.PhaseRow {
	return &models.PhaseRow{
		WorkflowPhase: models.WorkflowPhase{
			ID:           uuid.New(),
			WorkflowType: workflowType,
			RelatedID:    relatedID,
			PhaseName:    "Primary Source Verification",
			Status:       status,
			UpdatedAt:    updatedAt,
		},
	}
}

func TestGroupPhasesPartitionsByTypeAndRelatedID(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	linkA := uuid.New()
	linkB := uuid.New()

	phases := []*models.PhaseRow{
		phaseRow(models.WorkflowTypePFC, linkA, "Pending", now),
		phaseRow(models.WorkflowTypePFC, linkB, "Pending", now),
		phaseRow(models.WorkflowTypePFC, linkA, "Completed", now),
		// Same related id, different type: a distinct group
		phaseRow(models.WorkflowTypeStateLicenses, linkA, "Pending", now),
	}

	groups := GroupPhases(phases, now)
	require.Len(t, groups, 3)

	byKey := make(map[string]*models.WorkflowGroup)
	for _, g := range groups {
		byKey[g.GroupKey()] = g
	}

	pfcA := byKey["pfc:"+linkA.String()]
	require.NotNil(t, pfcA)
	assert.Equal(t, 2, pfcA.TotalCount)
	assert.Equal(t, 1, pfcA.CompletedCount)
	assert.Len(t, pfcA.Phases, 2)

	licA := byKey["state_licenses:"+linkA.String()]
	require.NotNil(t, licA)
	assert.Equal(t, 1, licA.TotalCount)
}

func TestGroupPhasesFlagsAndCounts(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	linkID := uuid.New()
	past := now.Add(-48 * time.Hour)

	overdue := phaseRow(models.WorkflowTypePFC, linkID, "In Progress", now)
	overdue.DueDate = &past
	overdue.IncidentCount = 2

	blocked := phaseRow(models.WorkflowTypePFC, linkID, "Blocked", now)
	blocked.IncidentCount = 1

	// Overdue date but completed status: not overdue
	doneLate := phaseRow(models.WorkflowTypePFC, linkID, "Completed But Pending Review", now)
	doneLate.DueDate = &past

	groups := GroupPhases([]*models.PhaseRow{overdue, blocked, doneLate}, now)
	require.Len(t, groups, 1)

	g := groups[0]
	assert.Equal(t, 3, g.TotalCount)
	assert.Equal(t, 1, g.CompletedCount)
	assert.Equal(t, 3, g.IncidentCount)
	assert.True(t, g.HasOverdue)
	assert.True(t, g.HasBlocked)
}

func TestGroupPhasesOrderedByLatestUpdate(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	stale := uuid.New()
	fresh := uuid.New()
	untimestamped := uuid.New()

	phases := []*models.PhaseRow{
		phaseRow(models.WorkflowTypePFC, stale, "Pending", now.Add(-72*time.Hour)),
		phaseRow(models.WorkflowTypePFC, untimestamped, "Pending", time.Time{}),
		phaseRow(models.WorkflowTypePFC, fresh, "Pending", now),
		// An old phase in the fresh group must not drag it down
		phaseRow(models.WorkflowTypePFC, fresh, "Pending", now.Add(-100*time.Hour)),
	}

	groups := GroupPhases(phases, now)
	require.Len(t, groups, 3)

	assert.Equal(t, fresh, groups[0].RelatedID)
	assert.Equal(t, stale, groups[1].RelatedID)
	assert.Equal(t, untimestamped, groups[2].RelatedID)
	assert.Equal(t, now, groups[0].LatestUpdate)
}

func TestGroupPhasesContextLabelFromFirstLabeledPhase(t *testing.T) {
	now := time.Now()
	linkID := uuid.New()

	unlabeled := phaseRow(models.WorkflowTypePFC, linkID, "Pending", now)
	labeled := phaseRow(models.WorkflowTypePFC, linkID, "Pending", now)
	labeled.ContextLabel = "Dana Reyes @ St. Mary Hospital"

	groups := GroupPhases([]*models.PhaseRow{unlabeled, labeled}, now)
	require.Len(t, groups, 1)
	assert.Equal(t, "Dana Reyes @ St. Mary Hospital", groups[0].ContextLabel)
}

func TestGroupPhasesEmptyInput(t *testing.T) {
	groups := GroupPhases(nil, time.Now())
	assert.Empty(t, groups)
}
