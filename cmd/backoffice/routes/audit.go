package routes

import (
	"github.com/labstack/echo/v4"
	"github.com/vestacare/credops/cmd/backoffice/container"
	"github.com/vestacare/credops/cmd/backoffice/handlers"
)

// RegisterAuditRoutes registers the compliance read path
func RegisterAuditRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewAuditHandler(c.AuditService)

	audit := e.Group("/api/v1/audit")
	{
		audit.GET("", h.ListAudit)             // GET /api/v1/audit
		audit.GET("/:id/diff", h.GetAuditDiff) // GET /api/v1/audit/:id/diff
	}
}
