package override

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

const overrideColumns = "id, family, raw_name, normalized_name, entity_id, created_by, created_at"

// Repository handles name override persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new override repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Upsert creates or repoints an override. One normalized input maps to at
// most one entity per family; a later override replaces the earlier one.
func (r *Repository) Upsert(ctx context.Context, o *models.NameOverride) error {
	ctx, span := tracing.StartSpan(ctx, "override.Repository.Upsert")
	defer span.End()

	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	o.CreatedAt = time.Now().UTC()

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("name_overrides")
	sb.Cols("id", "family", "raw_name", "normalized_name", "entity_id", "created_by", "created_at")
	sb.Values(o.ID, o.Family, o.RawName, o.NormalizedName, o.EntityID, o.CreatedBy, o.CreatedAt)

	query, args := sb.Build()
	query += " ON CONFLICT (family, normalized_name) DO UPDATE SET entity_id = EXCLUDED.entity_id, raw_name = EXCLUDED.raw_name, created_by = EXCLUDED.created_by, created_at = EXCLUDED.created_at"

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"entity_id": o.EntityID}).Error("Failed to upsert override")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to upsert override")
	}

	return nil
}

// ListByFamily retrieves every override in a family
func (r *Repository) ListByFamily(ctx context.Context, family models.Family) ([]models.NameOverride, error) {
	ctx, span := tracing.StartSpan(ctx, "override.Repository.ListByFamily")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(overrideColumns)
	sb.From("name_overrides")
	sb.Where(sb.Equal("family", family))
	sb.OrderBy("normalized_name")

	query, args := sb.Build()
	var overrides []models.NameOverride
	if err := r.db.SelectContext(ctx, &overrides, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list overrides")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list overrides")
	}

	return overrides, nil
}

// Delete removes an override by ID
func (r *Repository) Delete(ctx context.Context, id string) error {
	ctx, span := tracing.StartSpan(ctx, "override.Repository.Delete")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewDeleteBuilder()
	sb.DeleteFrom("name_overrides")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to delete override")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete override")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("override %s not found", id))
	}

	return nil
}
