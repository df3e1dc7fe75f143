package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/vestacare/credops/cmd/backoffice/models"
	"github.com/vestacare/credops/common/apperr"
	"github.com/vestacare/credops/common/db"
)

// AuditRepository handles database operations for the audit log.
// Append and read only: nothing here updates or deletes entries.
type AuditRepository struct {
	db *db.DB
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(database *db.DB) *AuditRepository {
	return &AuditRepository{db: database}
}

// InsertTx appends an audit entry inside the mutation's transaction, so
// a failed audit write rolls the mutation back with it.
func (r *AuditRepository) InsertTx(ctx context.Context, q db.Querier, entry *models.AuditLogEntry) error {
	query := `
		INSERT INTO audit_log (id, table_name, record_id, action, actor_id, actor_email,
			old_data, new_data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := q.Exec(ctx, query,
		entry.ID,
		entry.TableName,
		entry.RecordID,
		entry.Action,
		entry.ActorID,
		entry.ActorEmail,
		entry.OldData,
		entry.NewData,
		entry.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to write audit entry: %w", err)
	}

	return nil
}

// GetByID retrieves a single audit entry
func (r *AuditRepository) GetByID(ctx context.Context, entryID uuid.UUID) (*models.AuditLogEntry, error) {
	query := `
		SELECT id, table_name, record_id, action, actor_id, actor_email,
			old_data, new_data, created_at
		FROM audit_log
		WHERE id = $1
	`

	entry := &models.AuditLogEntry{}
	err := r.db.QueryRow(ctx, query, entryID).Scan(
		&entry.ID,
		&entry.TableName,
		&entry.RecordID,
		&entry.Action,
		&entry.ActorID,
		&entry.ActorEmail,
		&entry.OldData,
		&entry.NewData,
		&entry.CreatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFoundf("audit entry not found: %s", entryID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get audit entry: %w", err)
	}

	return entry, nil
}

// List retrieves audit entries matching the filter, newest first
func (r *AuditRepository) List(ctx context.Context, filter *models.AuditFilter) ([]*models.AuditLogEntry, error) {
	var (
		conditions []string
		args       []any
	)

	addArg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.From != nil {
		conditions = append(conditions, "created_at >= "+addArg(*filter.From))
	}
	if filter.To != nil {
		conditions = append(conditions, "created_at <= "+addArg(*filter.To))
	}
	if filter.Action != "" {
		conditions = append(conditions, "action = "+addArg(filter.Action))
	}
	if filter.TableName != "" {
		conditions = append(conditions, "table_name = "+addArg(filter.TableName))
	}
	if filter.ActorID != nil {
		conditions = append(conditions, "actor_id = "+addArg(*filter.ActorID))
	}
	if filter.RecordIDSubstr != "" {
		conditions = append(conditions, "record_id ILIKE "+addArg("%"+filter.RecordIDSubstr+"%"))
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	query := fmt.Sprintf(`
		SELECT id, table_name, record_id, action, actor_id, actor_email,
			old_data, new_data, created_at
		FROM audit_log
		%s
		ORDER BY created_at DESC
		LIMIT %s OFFSET %s
	`, where, addArg(limit), addArg(filter.Offset))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.AuditLogEntry
	for rows.Next() {
		entry := &models.AuditLogEntry{}
		err := rows.Scan(
			&entry.ID,
			&entry.TableName,
			&entry.RecordID,
			&entry.Action,
			&entry.ActorID,
			&entry.ActorEmail,
			&entry.OldData,
			&entry.NewData,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit entries: %w", err)
	}

	return entries, nil
}
