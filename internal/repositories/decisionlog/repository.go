package decisionlog

import (
	"context"
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

const decisionColumns = "id, family, entity_id, raw_name, normalized_name, source, actor, created_at"

// Repository handles the append-only decision log
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new decision log repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Append writes one decision row
func (r *Repository) Append(ctx context.Context, entry models.DecisionEntry) error {
	ctx, span := tracing.StartSpan(ctx, "decisionlog.Repository.Append")
	defer span.End()

	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("decision_log")
	sb.Cols("id", "family", "entity_id", "raw_name", "normalized_name", "source", "actor", "created_at")
	sb.Values(entry.ID, entry.Family, entry.EntityID, entry.RawName, entry.NormalizedName, entry.Source, entry.Actor, entry.CreatedAt)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"entity_id": entry.EntityID}).Error("Failed to append decision")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to append decision")
	}

	return nil
}

// CountSince counts decisions in a family logged after the given instant.
// Drives the rolling learning throttle.
func (r *Repository) CountSince(ctx context.Context, family models.Family, since time.Time) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "decisionlog.Repository.CountSince")
	defer span.End()

	query := `SELECT COUNT(*) FROM decision_log WHERE family = $1 AND created_at > $2`

	var count int
	if err := r.db.GetContext(ctx, &count, query, family, since); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count decisions")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count decisions")
	}

	return count, nil
}

// ListRecent retrieves the newest decisions in a family
func (r *Repository) ListRecent(ctx context.Context, family models.Family, limit int) ([]models.DecisionEntry, error) {
	ctx, span := tracing.StartSpan(ctx, "decisionlog.Repository.ListRecent")
	defer span.End()

	if limit < 1 || limit > 500 {
		limit = 100
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(decisionColumns)
	sb.From("decision_log")
	sb.Where(sb.Equal("family", family))
	sb.OrderBy("created_at DESC")
	sb.Limit(limit)

	query, args := sb.Build()
	var entries []models.DecisionEntry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list decisions")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list decisions")
	}

	return entries, nil
}
