package routes

import (
	"github.com/labstack/echo/v4"
	"github.com/vestacare/credops/cmd/backoffice/container"
	"github.com/vestacare/credops/cmd/backoffice/handlers"
)

// RegisterWorkflowRoutes registers workflow creation and parent entity routes
func RegisterWorkflowRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewWorkflowHandler(c.WorkflowService)

	e.POST("/api/v1/workflows", h.CreateWorkflow, c.MutationMiddleware()...)
	e.GET("/api/v1/credential-links/:id", h.GetLink)

	providers := e.Group("/api/v1/providers")
	{
		providers.GET("", h.ListProviders)
		providers.POST("", h.CreateProvider, c.MutationMiddleware()...)
	}

	facilities := e.Group("/api/v1/facilities")
	{
		facilities.GET("", h.ListFacilities)
		facilities.POST("", h.CreateFacility, c.MutationMiddleware()...)
	}
}
