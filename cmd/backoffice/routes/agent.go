package routes

import (
	"github.com/labstack/echo/v4"
	"github.com/vestacare/credops/cmd/backoffice/container"
	"github.com/vestacare/credops/cmd/backoffice/handlers"
)

// RegisterAgentRoutes registers staff roster routes
func RegisterAgentRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewAgentHandler(c.AgentService)

	agents := e.Group("/api/v1/agents")
	{
		agents.GET("/me", h.Me)
		agents.GET("", h.ListAgents)
		agents.GET("/:id", h.GetAgent)
		agents.POST("", h.CreateAgent, c.MutationMiddleware()...)
		agents.PATCH("/:id/role", h.UpdateAgentRole, c.MutationMiddleware()...)
		agents.DELETE("/:id", h.DeleteAgent, c.MutationMiddleware()...)
	}
}
