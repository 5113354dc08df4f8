package entity

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/sorrel/pkg/database"
	"github.com/Ramsey-B/sorrel/pkg/models"
	"github.com/Ramsey-B/sorrel/pkg/tracing"
)

const entityColumns = "id, family, official_name, english_name, short_code, normalized_name, normalized_english_name, compact_name, confirmed, created_at, updated_at, deleted_at"

// Repository handles canonical entity persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new entity repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new canonical entity. The insert is guarded so the
// normalized name cannot collide with another live entity in the family.
func (r *Repository) Create(ctx context.Context, entity *models.CanonicalEntity) error {
	ctx, span := tracing.StartSpan(ctx, "entity.Repository.Create")
	defer span.End()

	if entity.ID == "" {
		entity.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	entity.CreatedAt = now
	entity.UpdatedAt = now

	query := `
		INSERT INTO canonical_entities (` + entityColumns + `)
		SELECT $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NULL
		WHERE NOT EXISTS (
			SELECT 1 FROM canonical_entities
			WHERE family = $2 AND normalized_name = $6 AND deleted_at IS NULL
		)
	`

	result, err := r.db.ExecContext(ctx, query,
		entity.ID, entity.Family, entity.OfficialName, entity.EnglishName, entity.ShortCode,
		entity.NormalizedName, entity.NormalizedEnglishName, entity.CompactName, entity.Confirmed,
		entity.CreatedAt, entity.UpdatedAt)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"entity_id": entity.ID}).Error("Failed to create entity")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to create entity")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return httperror.NewHTTPError(http.StatusConflict, fmt.Sprintf("normalized name %q is already taken in family %s", entity.NormalizedName, entity.Family))
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"entity_id": entity.ID, "family": entity.Family}).Info("Created entity")
	return nil
}

// Get retrieves a live entity by ID
func (r *Repository) Get(ctx context.Context, id string) (*models.CanonicalEntity, error) {
	ctx, span := tracing.StartSpan(ctx, "entity.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(entityColumns)
	sb.From("canonical_entities")
	sb.Where(
		sb.Equal("id", id),
		sb.IsNull("deleted_at"),
	)

	query, args := sb.Build()
	var entity models.CanonicalEntity
	if err := r.db.GetContext(ctx, &entity, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("entity %s not found", id))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get entity")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get entity")
	}

	return &entity, nil
}

// ListByFamily retrieves every live entity in a family
func (r *Repository) ListByFamily(ctx context.Context, family models.Family) ([]models.CanonicalEntity, error) {
	ctx, span := tracing.StartSpan(ctx, "entity.Repository.ListByFamily")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(entityColumns)
	sb.From("canonical_entities")
	sb.Where(
		sb.Equal("family", family),
		sb.IsNull("deleted_at"),
	)
	sb.OrderBy("official_name")

	query, args := sb.Build()
	var entities []models.CanonicalEntity
	if err := r.db.SelectContext(ctx, &entities, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list entities")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list entities")
	}

	return entities, nil
}

// FindByNormalizedName finds the live entity owning a normalized name,
// checking the official and English forms. Returns nil when unowned.
func (r *Repository) FindByNormalizedName(ctx context.Context, family models.Family, normalizedName string) (*models.CanonicalEntity, error) {
	ctx, span := tracing.StartSpan(ctx, "entity.Repository.FindByNormalizedName")
	defer span.End()

	query := `
		SELECT ` + entityColumns + `
		FROM canonical_entities
		WHERE family = $1
		AND (normalized_name = $2 OR normalized_english_name = $2)
		AND deleted_at IS NULL
		LIMIT 1
	`

	var entity models.CanonicalEntity
	if err := r.db.GetContext(ctx, &entity, query, family, normalizedName); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to find entity by normalized name")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to find entity")
	}

	return &entity, nil
}

// Confirm marks an auto-created entity as human-confirmed
func (r *Repository) Confirm(ctx context.Context, id string) error {
	ctx, span := tracing.StartSpan(ctx, "entity.Repository.Confirm")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("canonical_entities")
	sb.Set(
		sb.Assign("confirmed", true),
		sb.Assign("updated_at", time.Now().UTC()),
	)
	sb.Where(
		sb.Equal("id", id),
		sb.IsNull("deleted_at"),
	)

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to confirm entity")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to confirm entity")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("entity %s not found", id))
	}

	return nil
}
