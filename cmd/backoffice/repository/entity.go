package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/vestacare/credops/cmd/backoffice/models"
	"github.com/vestacare/credops/common/apperr"
	"github.com/vestacare/credops/common/db"
)

// EntityRepository handles database operations for providers, facilities
// and provider-facility credential links
type EntityRepository struct {
	db *db.DB
}

// NewEntityRepository creates a new entity repository
func NewEntityRepository(database *db.DB) *EntityRepository {
	return &EntityRepository{db: database}
}

// CreateProviderTx inserts a new provider inside a transaction
func (r *EntityRepository) CreateProviderTx(ctx context.Context, q db.Querier, p *models.Provider) error {
	query := `
		INSERT INTO provider (id, first_name, last_name, npi, specialty, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := q.Exec(ctx, query, p.ID, p.FirstName, p.LastName, p.NPI, p.Specialty, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create provider: %w", err)
	}

	return nil
}

// GetProvider retrieves a provider by id
func (r *EntityRepository) GetProvider(ctx context.Context, providerID uuid.UUID) (*models.Provider, error) {
	query := `SELECT id, first_name, last_name, npi, specialty, created_at, updated_at FROM provider WHERE id = $1`

	p := &models.Provider{}
	err := r.db.QueryRow(ctx, query, providerID).Scan(
		&p.ID, &p.FirstName, &p.LastName, &p.NPI, &p.Specialty, &p.CreatedAt, &p.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFoundf("provider not found: %s", providerID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get provider: %w", err)
	}

	return p, nil
}

// ListProviders retrieves all providers ordered by name
func (r *EntityRepository) ListProviders(ctx context.Context) ([]*models.Provider, error) {
	query := `SELECT id, first_name, last_name, npi, specialty, created_at, updated_at FROM provider ORDER BY last_name, first_name`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list providers: %w", err)
	}
	defer rows.Close()

	var providers []*models.Provider
	for rows.Next() {
		p := &models.Provider{}
		if err := rows.Scan(&p.ID, &p.FirstName, &p.LastName, &p.NPI, &p.Specialty, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan provider: %w", err)
		}
		providers = append(providers, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating providers: %w", err)
	}

	return providers, nil
}

// CreateFacilityTx inserts a new facility inside a transaction
func (r *EntityRepository) CreateFacilityTx(ctx context.Context, q db.Querier, f *models.Facility) error {
	query := `
		INSERT INTO facility (id, name, state, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := q.Exec(ctx, query, f.ID, f.Name, f.State, f.CreatedAt, f.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create facility: %w", err)
	}

	return nil
}

// GetFacility retrieves a facility by id
func (r *EntityRepository) GetFacility(ctx context.Context, facilityID uuid.UUID) (*models.Facility, error) {
	query := `SELECT id, name, state, created_at, updated_at FROM facility WHERE id = $1`

	f := &models.Facility{}
	err := r.db.QueryRow(ctx, query, facilityID).Scan(&f.ID, &f.Name, &f.State, &f.CreatedAt, &f.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFoundf("facility not found: %s", facilityID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get facility: %w", err)
	}

	return f, nil
}

// ListFacilities retrieves all facilities ordered by name
func (r *EntityRepository) ListFacilities(ctx context.Context) ([]*models.Facility, error) {
	query := `SELECT id, name, state, created_at, updated_at FROM facility ORDER BY name`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list facilities: %w", err)
	}
	defer rows.Close()

	var facilities []*models.Facility
	for rows.Next() {
		f := &models.Facility{}
		if err := rows.Scan(&f.ID, &f.Name, &f.State, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan facility: %w", err)
		}
		facilities = append(facilities, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating facilities: %w", err)
	}

	return facilities, nil
}

// CreateLinkTx inserts a provider-facility credential link inside a
// transaction. A duplicate (provider, facility) pair is a Conflict.
func (r *EntityRepository) CreateLinkTx(ctx context.Context, q db.Querier, link *models.CredentialLink) error {
	query := `
		INSERT INTO provider_facility_credential (id, provider_id, facility_id, relationship_type, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := q.Exec(ctx, query, link.ID, link.ProviderID, link.FacilityID, link.RelationshipType, link.CreatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return apperr.Conflictf("credential link already exists for provider %s and facility %s",
			link.ProviderID, link.FacilityID)
	}
	if err != nil {
		return fmt.Errorf("failed to create credential link: %w", err)
	}

	return nil
}

// GetLink retrieves a credential link by id
func (r *EntityRepository) GetLink(ctx context.Context, linkID uuid.UUID) (*models.CredentialLink, error) {
	query := `SELECT id, provider_id, facility_id, relationship_type, created_at FROM provider_facility_credential WHERE id = $1`

	link := &models.CredentialLink{}
	err := r.db.QueryRow(ctx, query, linkID).Scan(
		&link.ID, &link.ProviderID, &link.FacilityID, &link.RelationshipType, &link.CreatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFoundf("credential link not found: %s", linkID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get credential link: %w", err)
	}

	return link, nil
}
