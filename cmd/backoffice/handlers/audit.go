package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/vestacare/credops/cmd/backoffice/models"
	"github.com/vestacare/credops/cmd/backoffice/service"
	"github.com/vestacare/credops/common/apperr"
)

// AuditHandler serves the compliance read path
type AuditHandler struct {
	audit *service.AuditService
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(audit *service.AuditService) *AuditHandler {
	return &AuditHandler{audit: audit}
}

// auditEntryView is an audit entry plus its compact change summary
type auditEntryView struct {
	*models.AuditLogEntry

	ChangedFields []string `json:"changed_fields"`
}

// ListAudit lists audit entries with optional filters. Each entry
// carries a compact changed-field summary for list display.
// GET /api/v1/audit?table=workflow_phase&action=update&from=2026-01-01T00:00:00Z
func (h *AuditHandler) ListAudit(c echo.Context) error {
	filter, err := parseAuditFilter(c)
	if err != nil {
		return err
	}

	entries, err := h.audit.List(c.Request().Context(), filter)
	if err != nil {
		return err
	}

	views := make([]*auditEntryView, 0, len(entries))
	for _, entry := range entries {
		views = append(views, &auditEntryView{
			AuditLogEntry: entry,
			ChangedFields: service.ComputeChangedFields(entry.OldData, entry.NewData),
		})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"entries": views,
		"count":   len(views),
	})
}

// GetAuditDiff retrieves one entry with its expanded per-field diff
// GET /api/v1/audit/:id/diff
func (h *AuditHandler) GetAuditDiff(c echo.Context) error {
	entryID, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	entry, changes, err := h.audit.Diff(c.Request().Context(), entryID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"entry":   entry,
		"changes": changes,
	})
}

func parseAuditFilter(c echo.Context) (*models.AuditFilter, error) {
	filter := &models.AuditFilter{
		Action:         models.AuditAction(c.QueryParam("action")),
		TableName:      c.QueryParam("table"),
		RecordIDSubstr: c.QueryParam("record_id"),
	}

	switch filter.Action {
	case "", models.AuditInsert, models.AuditUpdate, models.AuditDelete:
	default:
		return nil, apperr.Validationf("invalid action: %s", filter.Action)
	}

	if raw := c.QueryParam("actor_id"); raw != "" {
		actorID, err := uuid.Parse(raw)
		if err != nil {
			return nil, apperr.Validationf("invalid actor_id: %s", raw)
		}
		filter.ActorID = &actorID
	}

	var err error
	if filter.From, err = parseTimeParam(c, "from"); err != nil {
		return nil, err
	}
	if filter.To, err = parseTimeParam(c, "to"); err != nil {
		return nil, err
	}
	if filter.Limit, err = parseIntParam(c, "limit"); err != nil {
		return nil, err
	}
	if filter.Offset, err = parseIntParam(c, "offset"); err != nil {
		return nil, err
	}

	return filter, nil
}

func parseTimeParam(c echo.Context, name string) (*time.Time, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}

	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, apperr.Validationf("invalid %s, expected RFC 3339: %s", name, raw)
	}
	return &t, nil
}
