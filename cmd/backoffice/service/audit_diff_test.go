package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vestacare/credops/cmd/backoffice/models"
)

func TestComputeChangedFieldsOrdering(t *testing.T) {
	oldData := map[string]any{
		"status":  "Pending",
		"notes":   "call back",
		"removed": "gone",
		"stable":  "same",
	}
	newData := map[string]any{
		"status": "In Progress",
		"notes":  "called",
		"stable": "same",
		"added":  "new",
	}

	fields := ComputeChangedFields(oldData, newData)

	// Changed first (sorted), then added, then removed
	assert.Equal(t, []string{"notes", "status", "added", "removed"}, fields)
}

func TestComputeChangedFieldsIdenticalSnapshots(t *testing.T) {
	data := map[string]any{"status": "Pending", "count": 3}

	assert.Empty(t, ComputeChangedFields(data, data))
}

func TestComputeChangedFieldsInsertAndDelete(t *testing.T) {
	snapshot := map[string]any{"b": 1, "a": 2}

	// Insert: everything added, sorted
	assert.Equal(t, []string{"a", "b"}, ComputeChangedFields(map[string]any{}, snapshot))
	// Delete: everything removed, sorted
	assert.Equal(t, []string{"a", "b"}, ComputeChangedFields(snapshot, map[string]any{}))
}

func TestComputeChangedFieldsToleratesMixedNumericTypes(t *testing.T) {
	// jsonb snapshots decode numbers as float64; values written from Go
	// structs may be int. Equal values must not show as changed.
	oldData := map[string]any{"team_number": float64(4)}
	newData := map[string]any{"team_number": 4}

	assert.Empty(t, ComputeChangedFields(oldData, newData))
}

func TestFieldDiffs(t *testing.T) {
	oldData := map[string]any{
		"status": "Pending",
		"notes":  "n1",
	}
	newData := map[string]any{
		"status":   "Completed",
		"assignee": "a1",
	}

	changes := FieldDiffs(oldData, newData)
	require.Len(t, changes, 3)

	assert.Equal(t, models.FieldChange{Field: "status", Kind: models.FieldChanged, Old: "Pending", New: "Completed"}, changes[0])
	assert.Equal(t, models.FieldChange{Field: "assignee", Kind: models.FieldAdded, New: "a1"}, changes[1])
	assert.Equal(t, models.FieldChange{Field: "notes", Kind: models.FieldRemoved, Old: "n1"}, changes[2])
}

func TestFieldDiffsNestedValues(t *testing.T) {
	oldData := map[string]any{"meta": map[string]any{"a": 1}}
	newData := map[string]any{"meta": map[string]any{"a": 2}}

	changes := FieldDiffs(oldData, newData)
	require.Len(t, changes, 1)
	assert.Equal(t, models.FieldChanged, changes[0].Kind)
	assert.Equal(t, "meta", changes[0].Field)
}

func TestSnapshotRoundTrip(t *testing.T) {
	assert.Empty(t, Snapshot(nil))

	m := Snapshot(struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}{Name: "x", Count: 2})

	assert.Equal(t, "x", m["name"])
	assert.Equal(t, float64(2), m["count"])
}
