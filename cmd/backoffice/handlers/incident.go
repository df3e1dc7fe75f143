package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/vestacare/credops/cmd/backoffice/middleware"
	"github.com/vestacare/credops/cmd/backoffice/models"
	"github.com/vestacare/credops/cmd/backoffice/service"
	"github.com/vestacare/credops/common/apperr"
)

// IncidentHandler handles incident sub-log requests
type IncidentHandler struct {
	incidents *service.IncidentService
}

// NewIncidentHandler creates a new incident handler
func NewIncidentHandler(incidents *service.IncidentService) *IncidentHandler {
	return &IncidentHandler{incidents: incidents}
}

// CreateIncident attaches a new incident to a phase
// POST /api/v1/phases/:id/incidents
func (h *IncidentHandler) CreateIncident(c echo.Context) error {
	phaseID, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	req := &models.CreateIncidentRequest{}
	if err := c.Bind(req); err != nil {
		return apperr.Validationf("invalid request body: %v", err)
	}

	inc, err := h.incidents.Create(c.Request().Context(), phaseID, req, middleware.GetUserID(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, inc)
}

// ListIncidents lists incidents attached to a phase, newest first
// GET /api/v1/phases/:id/incidents
func (h *IncidentHandler) ListIncidents(c echo.Context) error {
	phaseID, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	incidents, err := h.incidents.List(c.Request().Context(), phaseID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"incidents": incidents,
		"count":     len(incidents),
	})
}

// UpdateIncident applies a partial update to an incident
// PATCH /api/v1/incidents/:id
func (h *IncidentHandler) UpdateIncident(c echo.Context) error {
	incidentID, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	update := &models.IncidentUpdate{}
	if err := c.Bind(update); err != nil {
		return apperr.Validationf("invalid request body: %v", err)
	}

	inc, err := h.incidents.Update(c.Request().Context(), incidentID, update, middleware.GetUserID(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, inc)
}

// DeleteIncident hard-deletes an incident
// DELETE /api/v1/incidents/:id
func (h *IncidentHandler) DeleteIncident(c echo.Context) error {
	incidentID, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.incidents.Delete(c.Request().Context(), incidentID, middleware.GetUserID(c)); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}
