package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vestacare/credops/common/apperr"
)

func listContext(t *testing.T, query string) echo.Context {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/phases"+query, nil)
	return echo.New().NewContext(req, httptest.NewRecorder())
}

func TestParsePhaseFilterAssignedToMe(t *testing.T) {
	filter, err := parsePhaseFilter(listContext(t, "?assigned_to_me=true"))
	require.NoError(t, err)
	assert.True(t, filter.AssignedToMe)

	filter, err = parsePhaseFilter(listContext(t, ""))
	require.NoError(t, err)
	assert.False(t, filter.AssignedToMe)

	_, err = parsePhaseFilter(listContext(t, "?assigned_to_me=yep"))
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.Validation))
}

func TestParsePhaseFilterAssignedTo(t *testing.T) {
	agentID := uuid.New()
	filter, err := parsePhaseFilter(listContext(t, "?assigned_to="+agentID.String()))
	require.NoError(t, err)
	require.NotNil(t, filter.AssignedToAgent)
	assert.Equal(t, agentID, *filter.AssignedToAgent)

	_, err = parsePhaseFilter(listContext(t, "?assigned_to=not-a-uuid"))
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.Validation))
}

func TestParsePhaseFilterRejectsMalformedValues(t *testing.T) {
	_, err := parsePhaseFilter(listContext(t, "?has_incidents=maybe"))
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.Validation))

	_, err = parsePhaseFilter(listContext(t, "?limit=ten"))
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.Validation))
}
