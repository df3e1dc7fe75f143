package service

import (
	"sort"
	"time"

	"github.com/vestacare/credops/cmd/backoffice/models"
)

// GroupPhases aggregates flat phase rows into logical workflow groups
// keyed by (workflow_type, related_id). Pure function: no side effects,
// no store access. Grouping depends only on the two key fields, so a
// phase whose parent record has been deleted still groups correctly.
//
// Output ordering is a recency signal: latest update first, groups with
// no timestamped phase last. Ties break arbitrarily.
func GroupPhases(phases []*models.PhaseRow, now time.Time) []*models.WorkflowGroup {
	groups := make(map[string]*models.WorkflowGroup)
	var order []string

	for _, phase := range phases {
		key := string(phase.WorkflowType) + ":" + phase.RelatedID.String()

		group, exists := groups[key]
		if !exists {
			group = &models.WorkflowGroup{
				WorkflowType: phase.WorkflowType,
				RelatedID:    phase.RelatedID,
				ContextLabel: phase.ContextLabel,
			}
			groups[key] = group
			order = append(order, key)
		}

		group.TotalCount++
		group.IncidentCount += phase.IncidentCount

		if models.IsCompletedStatus(phase.Status) {
			group.CompletedCount++
		}
		if models.IsBlockedStatus(phase.Status) {
			group.HasBlocked = true
		}
		if models.IsOverdue(phase.DueDate, phase.Status, now) {
			group.HasOverdue = true
		}
		if phase.UpdatedAt.After(group.LatestUpdate) {
			group.LatestUpdate = phase.UpdatedAt
		}
		if group.ContextLabel == "" && phase.ContextLabel != "" {
			group.ContextLabel = phase.ContextLabel
		}

		group.Phases = append(group.Phases, phase)
	}

	result := make([]*models.WorkflowGroup, 0, len(order))
	for _, key := range order {
		result = append(result, groups[key])
	}

	// Zero LatestUpdate is the minimum time, so descending order puts
	// untimestamped groups last without a special case.
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].LatestUpdate.After(result[j].LatestUpdate)
	})

	return result
}
