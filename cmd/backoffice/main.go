package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/vestacare/credops/cmd/backoffice/container"
	"github.com/vestacare/credops/cmd/backoffice/handlers"
	"github.com/vestacare/credops/cmd/backoffice/middleware"
	"github.com/vestacare/credops/cmd/backoffice/routes"
	"github.com/vestacare/credops/common/bootstrap"
	"github.com/vestacare/credops/common/server"
)

func main() {
	ctx := context.Background()

	// Bootstrap common components (config, logger, DB, cache, telemetry)
	components, err := bootstrap.Setup(ctx, "backoffice")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap backoffice: %v\n", err)
		os.Exit(1)
	}
	defer components.Shutdown(ctx)

	// Initialize service container (singleton pattern - all services created once)
	serviceContainer, err := container.NewContainer(components)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize service container: %v\n", err)
		os.Exit(1)
	}
	defer serviceContainer.Close()

	e := setupEcho(components, serviceContainer)

	// Start with graceful shutdown
	srv := server.New("backoffice", components.Config.Service.Port, e, components.Logger)
	if err := srv.Start(); err != nil {
		components.Logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// setupEcho initializes the Echo server: middleware, health check, routes
func setupEcho(components *bootstrap.Components, serviceContainer *container.Container) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = handlers.ErrorHandler(components.Logger)

	e.Use(echomw.Recover())
	e.Use(echomw.CORS())
	e.Use(echomw.RequestID())
	e.Use(middleware.ExtractUserID())

	e.GET("/health", func(c echo.Context) error {
		if err := components.Health(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{
				"status": "unhealthy",
				"error":  err.Error(),
			})
		}
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "backoffice",
		})
	})

	registerRoutes(e, serviceContainer)

	return e
}

// registerRoutes registers all application routes using the service container
func registerRoutes(e *echo.Echo, serviceContainer *container.Container) {
	routes.RegisterPhaseRoutes(e, serviceContainer)
	routes.RegisterWorkflowRoutes(e, serviceContainer)
	routes.RegisterIncidentRoutes(e, serviceContainer)
	routes.RegisterAuditRoutes(e, serviceContainer)
	routes.RegisterAgentRoutes(e, serviceContainer)
}
