package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vestacare/credops/cmd/backoffice/models"
	"github.com/vestacare/credops/common/db"
	"github.com/vestacare/credops/common/logger"
)

// auditStore is the audit persistence surface the service needs
type auditStore interface {
	InsertTx(ctx context.Context, q db.Querier, entry *models.AuditLogEntry) error
	GetByID(ctx context.Context, entryID uuid.UUID) (*models.AuditLogEntry, error)
	List(ctx context.Context, filter *models.AuditFilter) ([]*models.AuditLogEntry, error)
}

// AuditService records before/after snapshots for every mutation and
// serves the compliance read path. Writes are must-succeed: a failed
// audit insert fails the surrounding transaction.
type AuditService struct {
	repo auditStore
	log  *logger.Logger
}

// NewAuditService creates a new audit service
func NewAuditService(repo auditStore, log *logger.Logger) *AuditService {
	return &AuditService{
		repo: repo,
		log:  log,
	}
}

// Record appends an audit entry inside the caller's transaction.
// oldData/newData may be nil (insert has no old, delete has no new).
func (s *AuditService) Record(ctx context.Context, q db.Querier, tableName, recordID string, action models.AuditAction, actor *models.Agent, oldData, newData any) error {
	entry := &models.AuditLogEntry{
		ID:        uuid.New(),
		TableName: tableName,
		RecordID:  recordID,
		Action:    action,
		OldData:   Snapshot(oldData),
		NewData:   Snapshot(newData),
		CreatedAt: time.Now(),
	}

	if actor != nil {
		actorID := actor.ID
		email := actor.Email
		entry.ActorID = &actorID
		entry.ActorEmail = &email
	}

	if err := s.repo.InsertTx(ctx, q, entry); err != nil {
		return fmt.Errorf("audit write failed: %w", err)
	}

	return nil
}

// List retrieves audit entries matching the filter
func (s *AuditService) List(ctx context.Context, filter *models.AuditFilter) ([]*models.AuditLogEntry, error) {
	entries, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}

	return entries, nil
}

// Diff retrieves one entry together with its expanded per-field changes
func (s *AuditService) Diff(ctx context.Context, entryID uuid.UUID) (*models.AuditLogEntry, []models.FieldChange, error) {
	entry, err := s.repo.GetByID(ctx, entryID)
	if err != nil {
		return nil, nil, err
	}

	return entry, FieldDiffs(entry.OldData, entry.NewData), nil
}

// Snapshot converts a typed record into the untyped key-value bag the
// audit log stores. Snapshots span heterogeneous tables, so they stay
// generic maps rather than per-table schemas.
func Snapshot(v any) map[string]any {
	if v == nil {
		return map[string]any{}
	}

	data, err := json.Marshal(v)
	if err != nil {
		return map[string]any{}
	}

	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return map[string]any{}
	}

	return m
}
