package alias

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

const aliasColumns = "id, family, entity_id, name, normalized_name, provenance, usage_count, last_used_at, created_at, updated_at"

// Repository handles alternative name persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new alias repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a curated alias. The insert refuses any normalized form
// owned by a different entity's canonical name.
func (r *Repository) Create(ctx context.Context, a *models.AlternativeName) error {
	ctx, span := tracing.StartSpan(ctx, "alias.Repository.Create")
	defer span.End()

	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.Provenance == "" {
		a.Provenance = models.AliasProvenanceCurated
	}
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now

	return r.insert(ctx, a, false)
}

// UpsertLearned creates a learned alias or bumps the usage of an existing
// one in a single atomic statement. The collision guard and the upsert
// travel together so concurrent reviewers cannot race past either.
func (r *Repository) UpsertLearned(ctx context.Context, family models.Family, entityID, rawName, normalizedName string) error {
	ctx, span := tracing.StartSpan(ctx, "alias.Repository.UpsertLearned")
	defer span.End()

	a := &models.AlternativeName{
		ID:             uuid.New().String(),
		Family:         family,
		EntityID:       entityID,
		Name:           rawName,
		NormalizedName: normalizedName,
		Provenance:     models.AliasProvenanceLearned,
		UsageCount:     1,
	}
	now := time.Now().UTC()
	a.LastUsedAt = &now
	a.CreatedAt = now
	a.UpdatedAt = now

	return r.insert(ctx, a, true)
}

func (r *Repository) insert(ctx context.Context, a *models.AlternativeName, upsert bool) error {
	query := `
		INSERT INTO alternative_names (` + aliasColumns + `)
		SELECT $1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		WHERE NOT EXISTS (
			SELECT 1 FROM canonical_entities
			WHERE family = $2
			AND (normalized_name = $5 OR normalized_english_name = $5)
			AND id <> $3
			AND deleted_at IS NULL
		)
	`
	if upsert {
		query += `
		ON CONFLICT (family, entity_id, normalized_name) DO UPDATE SET
			usage_count = alternative_names.usage_count + 1,
			last_used_at = EXCLUDED.last_used_at,
			updated_at = EXCLUDED.updated_at
		`
	}

	result, err := r.db.ExecContext(ctx, query,
		a.ID, a.Family, a.EntityID, a.Name, a.NormalizedName, a.Provenance,
		a.UsageCount, a.LastUsedAt, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"entity_id": a.EntityID}).Error("Failed to write alias")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to write alias")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return httperror.NewHTTPError(http.StatusConflict, fmt.Sprintf("alias %q collides with another entity's canonical name", a.NormalizedName))
	}

	return nil
}

// DecrementUsage lowers an alias's usage count, flooring at zero
func (r *Repository) DecrementUsage(ctx context.Context, family models.Family, entityID, normalizedName string) error {
	ctx, span := tracing.StartSpan(ctx, "alias.Repository.DecrementUsage")
	defer span.End()

	query := `
		UPDATE alternative_names
		SET usage_count = GREATEST(usage_count - 1, 0), updated_at = $1
		WHERE family = $2 AND entity_id = $3 AND normalized_name = $4
	`

	if _, err := r.db.ExecContext(ctx, query, time.Now().UTC(), family, entityID, normalizedName); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to decrement alias usage")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to decrement alias usage")
	}

	return nil
}

// ListByFamily retrieves every alias in a family
func (r *Repository) ListByFamily(ctx context.Context, family models.Family) ([]models.AlternativeName, error) {
	ctx, span := tracing.StartSpan(ctx, "alias.Repository.ListByFamily")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(aliasColumns)
	sb.From("alternative_names")
	sb.Where(sb.Equal("family", family))
	sb.OrderBy("normalized_name")

	query, args := sb.Build()
	var aliases []models.AlternativeName
	if err := r.db.SelectContext(ctx, &aliases, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list aliases")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list aliases")
	}

	return aliases, nil
}

// Delete removes an alias by ID
func (r *Repository) Delete(ctx context.Context, id string) error {
	ctx, span := tracing.StartSpan(ctx, "alias.Repository.Delete")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewDeleteBuilder()
	sb.DeleteFrom("alternative_names")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to delete alias")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete alias")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("alias %s not found", id))
	}

	return nil
}
