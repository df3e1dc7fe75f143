package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/vestacare/credops/cmd/backoffice/middleware"
	"github.com/vestacare/credops/cmd/backoffice/models"
	"github.com/vestacare/credops/cmd/backoffice/service"
	"github.com/vestacare/credops/common/apperr"
)

// WorkflowHandler handles workflow creation and parent entity requests
type WorkflowHandler struct {
	workflows *service.WorkflowService
}

// NewWorkflowHandler creates a new workflow handler
func NewWorkflowHandler(workflows *service.WorkflowService) *WorkflowHandler {
	return &WorkflowHandler{workflows: workflows}
}

// CreateWorkflow starts a new workflow (credential link + phase batch)
// POST /api/v1/workflows
func (h *WorkflowHandler) CreateWorkflow(c echo.Context) error {
	req := &models.CreateWorkflowRequest{}
	if err := c.Bind(req); err != nil {
		return apperr.Validationf("invalid request body: %v", err)
	}

	resp, err := h.workflows.Create(c.Request().Context(), req, middleware.GetUserID(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, resp)
}

// GetLink retrieves a credential link
// GET /api/v1/credential-links/:id
func (h *WorkflowHandler) GetLink(c echo.Context) error {
	linkID, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	link, err := h.workflows.GetLink(c.Request().Context(), linkID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, link)
}

// CreateProvider registers a new provider
// POST /api/v1/providers
func (h *WorkflowHandler) CreateProvider(c echo.Context) error {
	req := &models.CreateProviderRequest{}
	if err := c.Bind(req); err != nil {
		return apperr.Validationf("invalid request body: %v", err)
	}

	p, err := h.workflows.CreateProvider(c.Request().Context(), req, middleware.GetUserID(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, p)
}

// ListProviders lists all providers
// GET /api/v1/providers
func (h *WorkflowHandler) ListProviders(c echo.Context) error {
	providers, err := h.workflows.ListProviders(c.Request().Context())
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"providers": providers,
		"count":     len(providers),
	})
}

// CreateFacility registers a new facility
// POST /api/v1/facilities
func (h *WorkflowHandler) CreateFacility(c echo.Context) error {
	req := &models.CreateFacilityRequest{}
	if err := c.Bind(req); err != nil {
		return apperr.Validationf("invalid request body: %v", err)
	}

	f, err := h.workflows.CreateFacility(c.Request().Context(), req, middleware.GetUserID(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, f)
}

// ListFacilities lists all facilities
// GET /api/v1/facilities
func (h *WorkflowHandler) ListFacilities(c echo.Context) error {
	facilities, err := h.workflows.ListFacilities(c.Request().Context())
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"facilities": facilities,
		"count":      len(facilities),
	})
}
