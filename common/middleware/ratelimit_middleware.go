package middleware

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/moogar0880/problems"
	"github.com/vestacare/credops/common/ratelimit"
)

// AgentRateLimitMiddleware checks per-agent mutation rate limits.
// Requires the user id to be set in context by the identity middleware;
// anonymous requests pass through and are rejected later by the
// Unauthorized check in the service layer.
func AgentRateLimitMiddleware(rateLimiter *ratelimit.RateLimiter, limit int64, windowSec int) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, ok := c.Get("user_id").(string)
			if !ok || userID == "" {
				return next(c)
			}

			result, err := rateLimiter.CheckAgentLimit(c.Request().Context(), userID, limit, windowSec)
			if err != nil {
				// Fail open for availability
				return next(c)
			}

			if !result.Allowed {
				problem := problems.NewDetailedProblem(http.StatusTooManyRequests,
					"Too many mutation requests. Please retry later.")
				c.Response().Header().Set("Retry-After",
					strconv.FormatInt(result.RetryAfterSeconds, 10))
				return c.JSON(http.StatusTooManyRequests, problem)
			}

			return next(c)
		}
	}
}
