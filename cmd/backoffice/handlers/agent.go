package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/vestacare/credops/cmd/backoffice/middleware"
	"github.com/vestacare/credops/cmd/backoffice/models"
	"github.com/vestacare/credops/cmd/backoffice/service"
	"github.com/vestacare/credops/common/apperr"
)

// AgentHandler handles staff roster requests
type AgentHandler struct {
	agents *service.AgentService
}

// NewAgentHandler creates a new agent handler
func NewAgentHandler(agents *service.AgentService) *AgentHandler {
	return &AgentHandler{agents: agents}
}

// Me resolves the calling agent from the X-User-ID header
// GET /api/v1/agents/me
func (h *AgentHandler) Me(c echo.Context) error {
	agent, err := h.agents.Me(c.Request().Context(), middleware.GetUserID(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, agent)
}

// ListAgents lists the full roster
// GET /api/v1/agents
func (h *AgentHandler) ListAgents(c echo.Context) error {
	agents, err := h.agents.List(c.Request().Context())
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"agents": agents,
		"count":  len(agents),
	})
}

// GetAgent retrieves an agent by internal id
// GET /api/v1/agents/:id
func (h *AgentHandler) GetAgent(c echo.Context) error {
	agentID, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	agent, err := h.agents.Get(c.Request().Context(), agentID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, agent)
}

// CreateAgent registers a new agent
// POST /api/v1/agents
func (h *AgentHandler) CreateAgent(c echo.Context) error {
	req := &models.CreateAgentRequest{}
	if err := c.Bind(req); err != nil {
		return apperr.Validationf("invalid request body: %v", err)
	}

	agent, err := h.agents.Create(c.Request().Context(), req, middleware.GetUserID(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, agent)
}

// UpdateAgentRole changes an agent's role
// PATCH /api/v1/agents/:id/role
func (h *AgentHandler) UpdateAgentRole(c echo.Context) error {
	agentID, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	req := &models.UpdateAgentRoleRequest{}
	if err := c.Bind(req); err != nil {
		return apperr.Validationf("invalid request body: %v", err)
	}

	agent, err := h.agents.UpdateRole(c.Request().Context(), agentID, req.Role, middleware.GetUserID(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, agent)
}

// DeleteAgent removes an agent from the roster
// DELETE /api/v1/agents/:id
func (h *AgentHandler) DeleteAgent(c echo.Context) error {
	agentID, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.agents.Delete(c.Request().Context(), agentID, middleware.GetUserID(c)); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}
