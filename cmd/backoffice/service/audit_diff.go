package service

import (
	"encoding/json"
	"sort"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/vestacare/credops/cmd/backoffice/models"
)

// ComputeChangedFields returns the field names that differ between two
// audit snapshots, for compact display: changed fields first, then
// added, then removed. Buckets use sorted key order rather than the
// order fields were first seen; snapshots are Go maps, which carry no
// stable field order to preserve. Pure.
func ComputeChangedFields(oldData, newData map[string]any) []string {
	var changed, added, removed []string

	for _, key := range sortedKeys(oldData) {
		newVal, inNew := newData[key]
		if !inNew {
			removed = append(removed, key)
			continue
		}
		if !jsonEqual(oldData[key], newVal) {
			changed = append(changed, key)
		}
	}

	for _, key := range sortedKeys(newData) {
		if _, inOld := oldData[key]; !inOld {
			added = append(added, key)
		}
	}

	result := make([]string, 0, len(changed)+len(added)+len(removed))
	result = append(result, changed...)
	result = append(result, added...)
	result = append(result, removed...)
	return result
}

// FieldDiffs renders the full per-field old/new view for expanded display
func FieldDiffs(oldData, newData map[string]any) []models.FieldChange {
	var changed, added, removed []models.FieldChange

	for _, key := range sortedKeys(oldData) {
		newVal, inNew := newData[key]
		if !inNew {
			removed = append(removed, models.FieldChange{
				Field: key,
				Kind:  models.FieldRemoved,
				Old:   oldData[key],
			})
			continue
		}
		if !jsonEqual(oldData[key], newVal) {
			changed = append(changed, models.FieldChange{
				Field: key,
				Kind:  models.FieldChanged,
				Old:   oldData[key],
				New:   newVal,
			})
		}
	}

	for _, key := range sortedKeys(newData) {
		if _, inOld := oldData[key]; !inOld {
			added = append(added, models.FieldChange{
				Field: key,
				Kind:  models.FieldAdded,
				New:   newData[key],
			})
		}
	}

	result := make([]models.FieldChange, 0, len(changed)+len(added)+len(removed))
	result = append(result, changed...)
	result = append(result, added...)
	result = append(result, removed...)
	return result
}

// jsonEqual compares two snapshot values by their JSON serialization,
// which tolerates the mixed concrete types that come back from jsonb.
func jsonEqual(a, b any) bool {
	aBytes, errA := json.Marshal(a)
	bBytes, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return jsonpatch.Equal(aBytes, bBytes)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
