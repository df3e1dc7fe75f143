package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/moogar0880/problems"
	"github.com/vestacare/credops/common/apperr"
	"github.com/vestacare/credops/common/logger"
)

// kindStatus maps error kinds to HTTP statuses. Validation maps to 422:
// the request parsed but its content violates a rule.
func kindStatus(kind apperr.Kind) (int, string) {
	switch kind {
	case apperr.NotFound:
		return http.StatusNotFound, "not_found"
	case apperr.Conflict:
		return http.StatusConflict, "conflict"
	case apperr.Unauthorized:
		return http.StatusUnauthorized, "unauthorized"
	case apperr.Forbidden:
		return http.StatusForbidden, "forbidden"
	case apperr.Validation:
		return http.StatusUnprocessableEntity, "validation_error"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// ErrorHandler renders every error as an RFC 7807 problem document.
// Internal errors are logged with their cause and returned opaque.
func ErrorHandler(log *logger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		problemType := "internal_error"
		detail := "internal server error"

		var appErr *apperr.Error
		var echoErr *echo.HTTPError

		switch {
		case errors.As(err, &appErr):
			status, problemType = kindStatus(appErr.Kind)
			if status != http.StatusInternalServerError {
				detail = appErr.Msg
			}
		case errors.As(err, &echoErr):
			status = echoErr.Code
			problemType = http.StatusText(status)
			if msg, ok := echoErr.Message.(string); ok {
				detail = msg
			}
		}

		if status >= http.StatusInternalServerError {
			log.ErrorContext(c.Request().Context(), "request failed",
				"method", c.Request().Method,
				"path", c.Path(),
				"error", err,
			)
		}

		problem := problems.NewStatusProblem(status).
			WithInstance(c.Request().URL.Path).
			WithType(problemType).
			WithDetail(detail)

		c.Response().Header().Set(echo.HeaderContentType, problems.ProblemMediaType)
		if writeErr := c.JSON(status, problem); writeErr != nil {
			log.Error("failed to write problem response", "error", writeErr)
		}
	}
}
