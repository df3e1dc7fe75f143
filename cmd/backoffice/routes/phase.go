package routes

import (
	"github.com/labstack/echo/v4"
	"github.com/vestacare/credops/cmd/backoffice/container"
	"github.com/vestacare/credops/cmd/backoffice/handlers"
)

// RegisterPhaseRoutes registers phase tracking routes
func RegisterPhaseRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewPhaseHandler(c.PhaseService)

	phases := e.Group("/api/v1/phases")
	{
		phases.GET("", h.ListPhases)                                         // GET /api/v1/phases
		phases.GET("/:id", h.GetPhase)                                       // GET /api/v1/phases/:id
		phases.PATCH("/:id", h.UpdatePhase, c.MutationMiddleware()...)       // PATCH /api/v1/phases/:id
		phases.POST("/:id/assign", h.SelfAssign, c.MutationMiddleware()...)  // POST /api/v1/phases/:id/assign
		phases.DELETE("/:id", h.DeletePhase, c.MutationMiddleware()...)      // DELETE /api/v1/phases/:id
	}

	// Derived view: phases aggregated into workflow groups
	e.GET("/api/v1/workflow-groups", h.ListGroups)
}
