package blocklist

import (
	"context"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/sorrel/pkg/database"
	"github.com/Ramsey-B/sorrel/pkg/models"
	"github.com/Ramsey-B/sorrel/pkg/tracing"
)

// Repository handles blocked association persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new blocklist repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// BlockedEntityIDs returns the set of entity ids blocked for a normalized
// input
func (r *Repository) BlockedEntityIDs(ctx context.Context, family models.Family, normalizedInput string) (map[string]struct{}, error) {
	ctx, span := tracing.StartSpan(ctx, "blocklist.Repository.BlockedEntityIDs")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("entity_id")
	sb.From("blocked_associations")
	sb.Where(
		sb.Equal("family", family),
		sb.Equal("normalized_input", normalizedInput),
	)

	query, args := sb.Build()
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to load blocked associations")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to load blocked associations")
	}

	blocked := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		blocked[id] = struct{}{}
	}
	return blocked, nil
}

// Increment records one more rejection of an (input, entity) pair in a
// single atomic statement
func (r *Repository) Increment(ctx context.Context, family models.Family, normalizedInput, entityID string) error {
	ctx, span := tracing.StartSpan(ctx, "blocklist.Repository.Increment")
	defer span.End()

	now := time.Now().UTC()
	query := `
		INSERT INTO blocked_associations (family, normalized_input, entity_id, block_count, created_at, updated_at)
		VALUES ($1, $2, $3, 1, $4, $4)
		ON CONFLICT (family, normalized_input, entity_id) DO UPDATE SET
			block_count = blocked_associations.block_count + 1,
			updated_at = EXCLUDED.updated_at
	`

	if _, err := r.db.ExecContext(ctx, query, family, normalizedInput, entityID, now); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"entity_id": entityID}).Error("Failed to increment block count")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to increment block count")
	}

	return nil
}

// ListByInput retrieves the block rows for a normalized input
func (r *Repository) ListByInput(ctx context.Context, family models.Family, normalizedInput string) ([]models.BlockedAssociation, error) {
	ctx, span := tracing.StartSpan(ctx, "blocklist.Repository.ListByInput")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("family", "normalized_input", "entity_id", "block_count", "created_at", "updated_at")
	sb.From("blocked_associations")
	sb.Where(
		sb.Equal("family", family),
		sb.Equal("normalized_input", normalizedInput),
	)
	sb.OrderBy("block_count DESC")

	query, args := sb.Build()
	var blocks []models.BlockedAssociation
	if err := r.db.SelectContext(ctx, &blocks, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list blocked associations")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list blocked associations")
	}

	return blocks, nil
}
