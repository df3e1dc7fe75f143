package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vestacare/credops/cmd/backoffice/models"
	"github.com/vestacare/credops/common/config"
	"github.com/vestacare/credops/common/logger"
)

func testIncidentRequest(subcategory string, critical bool) *models.CreateIncidentRequest {
	now := time.Now()
	escalatedTo := uuid.New()
	return &models.CreateIncidentRequest{
		Subcategory:    subcategory,
		Critical:       critical,
		DateIdentified: &now,
		EscalatedTo:    &escalatedTo,
	}
}

func TestEscalationEngineMatchesRules(t *testing.T) {
	engine, err := NewEscalationEngine([]config.EscalationRule{
		{Name: "expired-credential", Expr: `subcategory == "Expired Credential"`},
		{Name: "needs-followup", Expr: `followUpRequired && !critical`},
	}, logger.New("error", "text"))
	require.NoError(t, err)

	matched := engine.Evaluate(testIncidentRequest("Expired Credential", false))
	assert.Equal(t, []string{"expired-credential"}, matched)

	req := testIncidentRequest("Missing Document", false)
	req.FollowUpRequired = true
	assert.Equal(t, []string{"needs-followup"}, engine.Evaluate(req))

	assert.Empty(t, engine.Evaluate(testIncidentRequest("Missing Document", false)))
}

func TestEscalationEngineDescriptionVariable(t *testing.T) {
	engine, err := NewEscalationEngine([]config.EscalationRule{
		{Name: "fraud", Expr: `description.contains("fraud")`},
	}, logger.New("error", "text"))
	require.NoError(t, err)

	req := testIncidentRequest("Other", false)
	desc := "possible fraud indicators in application"
	req.IncidentDescription = &desc
	assert.Equal(t, []string{"fraud"}, engine.Evaluate(req))

	// Nil description evaluates as empty string, not an error
	assert.Empty(t, engine.Evaluate(testIncidentRequest("Other", false)))
}

func TestEscalationEngineRejectsBrokenRules(t *testing.T) {
	log := logger.New("error", "text")

	_, err := NewEscalationEngine([]config.EscalationRule{
		{Name: "bad-syntax", Expr: `subcategory ==`},
	}, log)
	require.Error(t, err)

	_, err = NewEscalationEngine([]config.EscalationRule{
		{Name: "not-bool", Expr: `subcategory`},
	}, log)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must evaluate to bool")
}

func TestEscalationEngineNoRules(t *testing.T) {
	engine, err := NewEscalationEngine(nil, logger.New("error", "text"))
	require.NoError(t, err)
	assert.Empty(t, engine.Evaluate(testIncidentRequest("Other", true)))
}
