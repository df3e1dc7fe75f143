package container

import (
	"fmt"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/vestacare/credops/cmd/backoffice/repository"
	"github.com/vestacare/credops/cmd/backoffice/service"
	"github.com/vestacare/credops/common/bootstrap"
	"github.com/vestacare/credops/common/cache"
	commonmw "github.com/vestacare/credops/common/middleware"
	"github.com/vestacare/credops/common/ratelimit"
	rediscommon "github.com/vestacare/credops/common/redis"
)

// Container holds all initialized services and repositories (singleton pattern)
type Container struct {
	// Components
	Components *bootstrap.Components
	Redis      *rediscommon.Client

	// Repositories
	PhaseRepo    *repository.PhaseRepository
	IncidentRepo *repository.IncidentRepository
	AuditRepo    *repository.AuditRepository
	AgentRepo    *repository.AgentRepository
	EntityRepo   *repository.EntityRepository

	// Services
	AuditService    *service.AuditService
	IdentityService *service.IdentityService
	PhaseService    *service.PhaseService
	WorkflowService *service.WorkflowService
	IncidentService *service.IncidentService
	AgentService    *service.AgentService

	rateLimiter *ratelimit.RateLimiter
}

// NewContainer initializes all services and repositories once
func NewContainer(components *bootstrap.Components) (*Container, error) {
	cfg := components.Config
	log := components.Logger

	// Redis backs the identity cache, assignment pub/sub, and the rate
	// limiter. Connection failures surface on first use, not here.
	redisRaw := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	redisClient := rediscommon.NewClient(redisRaw, log)

	// Initialize repositories
	phaseRepo := repository.NewPhaseRepository(components.DB)
	incidentRepo := repository.NewIncidentRepository(components.DB)
	auditRepo := repository.NewAuditRepository(components.DB)
	agentRepo := repository.NewAgentRepository(components.DB)
	entityRepo := repository.NewEntityRepository(components.DB)

	// Identity cache: redis backend shares lookups across replicas,
	// otherwise fall back to whatever bootstrap provided (memory or nil)
	identityCache := components.Cache
	if cfg.Cache.Enabled && cfg.Cache.Backend == "redis" {
		identityCache = cache.NewRedisCache(redisClient, "credops:")
	}

	escalation, err := service.NewEscalationEngine(cfg.Incidents.EscalationRules, log)
	if err != nil {
		return nil, fmt.Errorf("failed to build escalation engine: %w", err)
	}

	// Initialize services (bottom-up: dependencies first)
	auditService := service.NewAuditService(auditRepo, log)
	identityService := service.NewIdentityService(agentRepo, identityCache, cfg.Cache.DefaultTTL, log)
	notifier := service.NewNotifier(redisClient, log)

	phaseService := service.NewPhaseService(
		phaseRepo,
		components.DB,
		auditService,
		identityService,
		notifier,
		log,
	)
	workflowService := service.NewWorkflowService(
		entityRepo,
		phaseRepo,
		components.DB,
		auditService,
		identityService,
		log,
	)
	incidentService := service.NewIncidentService(
		incidentRepo,
		phaseRepo,
		components.DB,
		auditService,
		identityService,
		escalation,
		log,
	)
	agentService := service.NewAgentService(
		agentRepo,
		components.DB,
		auditService,
		identityService,
		log,
	)

	c := &Container{
		Components:      components,
		Redis:           redisClient,
		PhaseRepo:       phaseRepo,
		IncidentRepo:    incidentRepo,
		AuditRepo:       auditRepo,
		AgentRepo:       agentRepo,
		EntityRepo:      entityRepo,
		AuditService:    auditService,
		IdentityService: identityService,
		PhaseService:    phaseService,
		WorkflowService: workflowService,
		IncidentService: incidentService,
		AgentService:    agentService,
	}

	if cfg.RateLimit.Enabled {
		c.rateLimiter = ratelimit.NewRateLimiter(redisRaw, log)
	}

	return c, nil
}

// MutationMiddleware returns the middleware applied to every mutating
// route. Empty when rate limiting is disabled.
func (c *Container) MutationMiddleware() []echo.MiddlewareFunc {
	if c.rateLimiter == nil {
		return nil
	}

	cfg := c.Components.Config.RateLimit
	return []echo.MiddlewareFunc{
		commonmw.AgentRateLimitMiddleware(c.rateLimiter, cfg.PerAgent, cfg.WindowSec),
	}
}

// Close releases container-owned resources
func (c *Container) Close() error {
	return c.Redis.Close()
}
