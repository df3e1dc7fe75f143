package routes

import (
	"github.com/labstack/echo/v4"
	"github.com/vestacare/credops/cmd/backoffice/container"
	"github.com/vestacare/credops/cmd/backoffice/handlers"
)

// RegisterIncidentRoutes registers incident sub-log routes
func RegisterIncidentRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewIncidentHandler(c.IncidentService)

	e.GET("/api/v1/phases/:id/incidents", h.ListIncidents)
	e.POST("/api/v1/phases/:id/incidents", h.CreateIncident, c.MutationMiddleware()...)

	incidents := e.Group("/api/v1/incidents")
	{
		incidents.PATCH("/:id", h.UpdateIncident, c.MutationMiddleware()...)
		incidents.DELETE("/:id", h.DeleteIncident, c.MutationMiddleware()...)
	}
}
