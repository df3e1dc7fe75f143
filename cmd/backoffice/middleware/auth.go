package middleware

import (
	"github.com/labstack/echo/v4"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// UserIDKey is the context key for the external identity-provider user id
	UserIDKey ContextKey = "user_id"
)

// ExtractUserID extracts the X-User-ID header and stores it in the
// request context. The value is the external auth id, not an agent id;
// services resolve it to an agent record where one is required.
//
// An absent header is allowed here. Read endpoints work anonymously;
// the services reject mutations that need an identity.
func ExtractUserID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID := c.Request().Header.Get("X-User-ID")
			if userID != "" {
				c.Set(string(UserIDKey), userID)
			}

			return next(c)
		}
	}
}

// GetUserID retrieves the external user id from the request context.
// Returns empty string if not set.
func GetUserID(c echo.Context) string {
	userID := c.Get(string(UserIDKey))
	if userID == nil {
		return ""
	}
	return userID.(string)
}
