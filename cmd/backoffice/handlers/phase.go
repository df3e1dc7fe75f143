package handlers

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/vestacare/credops/cmd/backoffice/middleware"
	"github.com/vestacare/credops/cmd/backoffice/models"
	"github.com/vestacare/credops/cmd/backoffice/service"
	"github.com/vestacare/credops/common/apperr"
)

// PhaseHandler handles workflow phase requests
type PhaseHandler struct {
	phases *service.PhaseService
}

// NewPhaseHandler creates a new phase handler
func NewPhaseHandler(phases *service.PhaseService) *PhaseHandler {
	return &PhaseHandler{phases: phases}
}

// ListPhases lists phases with optional filters
// GET /api/v1/phases?workflow_type=pfc&status=pending&has_incidents=true&search=smith
func (h *PhaseHandler) ListPhases(c echo.Context) error {
	filter, err := parsePhaseFilter(c)
	if err != nil {
		return err
	}

	rows, err := h.phases.List(c.Request().Context(), filter, middleware.GetUserID(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"phases": rows,
		"count":  len(rows),
	})
}

// ListGroups lists phases aggregated into workflow groups
// GET /api/v1/workflow-groups?workflow_type=pfc
func (h *PhaseHandler) ListGroups(c echo.Context) error {
	filter, err := parsePhaseFilter(c)
	if err != nil {
		return err
	}

	groups, err := h.phases.ListGroups(c.Request().Context(), filter, middleware.GetUserID(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"groups": groups,
		"count":  len(groups),
	})
}

// GetPhase retrieves a single phase with display enrichment
// GET /api/v1/phases/:id
func (h *PhaseHandler) GetPhase(c echo.Context) error {
	phaseID, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	row, err := h.phases.Get(c.Request().Context(), phaseID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, row)
}

// UpdatePhase applies a partial update to a phase
// PATCH /api/v1/phases/:id
func (h *PhaseHandler) UpdatePhase(c echo.Context) error {
	phaseID, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	update := &models.PhaseUpdate{}
	if err := c.Bind(update); err != nil {
		return apperr.Validationf("invalid request body: %v", err)
	}

	phase, err := h.phases.Update(c.Request().Context(), phaseID, update, middleware.GetUserID(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, phase)
}

// SelfAssign claims an unassigned phase for the calling agent
// POST /api/v1/phases/:id/assign
func (h *PhaseHandler) SelfAssign(c echo.Context) error {
	phaseID, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	phase, err := h.phases.SelfAssign(c.Request().Context(), phaseID, middleware.GetUserID(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, phase)
}

// DeletePhase hard-deletes a phase
// DELETE /api/v1/phases/:id
func (h *PhaseHandler) DeletePhase(c echo.Context) error {
	phaseID, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.phases.Delete(c.Request().Context(), phaseID, middleware.GetUserID(c)); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

// parsePhaseFilter builds a PhaseFilter from query parameters. Malformed
// values are rejected, not silently ignored.
func parsePhaseFilter(c echo.Context) (*models.PhaseFilter, error) {
	filter := &models.PhaseFilter{
		WorkflowType: models.WorkflowType(c.QueryParam("workflow_type")),
		Status:       c.QueryParam("status"),
		Search:       c.QueryParam("search"),
	}

	if raw := c.QueryParam("assigned_to"); raw != "" {
		agentID, err := uuid.Parse(raw)
		if err != nil {
			return nil, apperr.Validationf("invalid assigned_to: %s", raw)
		}
		filter.AssignedToAgent = &agentID
	}

	if raw := c.QueryParam("assigned_to_me"); raw != "" {
		assignedToMe, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, apperr.Validationf("invalid assigned_to_me: %s", raw)
		}
		filter.AssignedToMe = assignedToMe
	}

	if raw := c.QueryParam("has_incidents"); raw != "" {
		hasIncidents, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, apperr.Validationf("invalid has_incidents: %s", raw)
		}
		filter.HasIncidents = hasIncidents
	}

	var err error
	if filter.Limit, err = parseIntParam(c, "limit"); err != nil {
		return nil, err
	}
	if filter.Offset, err = parseIntParam(c, "offset"); err != nil {
		return nil, err
	}

	return filter, nil
}

func parseIntParam(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.Validationf("invalid %s: %s", name, raw)
	}
	return v, nil
}

func parseUUIDParam(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apperr.Validationf("invalid %s: %s", name, c.Param(name))
	}
	return id, nil
}
