package importrecord

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

const recordColumns = "id, batch_id, supplier_name_raw, bank_name_raw, supplier_id, bank_id, status, decided_by, created_at, updated_at"

// Repository handles import record persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new import record repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// CreateBatch ingests raw records under one batch id
func (r *Repository) CreateBatch(ctx context.Context, records []*models.ImportRecord) error {
	ctx, span := tracing.StartSpan(ctx, "importrecord.Repository.CreateBatch")
	defer span.End()

	if len(records) == 0 {
		return nil
	}

	now := time.Now().UTC()
	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("import_records")
	sb.Cols("id", "batch_id", "supplier_name_raw", "bank_name_raw", "supplier_id", "bank_id", "status", "decided_by", "created_at", "updated_at")

	for _, rec := range records {
		if rec.ID == "" {
			rec.ID = uuid.New().String()
		}
		if rec.Status == "" {
			rec.Status = models.ImportRecordStatusPending
		}
		rec.CreatedAt = now
		rec.UpdatedAt = now
		sb.Values(rec.ID, rec.BatchID, rec.SupplierNameRaw, rec.BankNameRaw, rec.SupplierID, rec.BankID, rec.Status, rec.DecidedBy, rec.CreatedAt, rec.UpdatedAt)
	}

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to create import records")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to create import records")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"count": len(records)}).Debug("Created import records")
	return nil
}

// ListPending retrieves the undecided records of a batch
func (r *Repository) ListPending(ctx context.Context, batchID string) ([]models.ImportRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "importrecord.Repository.ListPending")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(recordColumns)
	sb.From("import_records")
	sb.Where(
		sb.Equal("batch_id", batchID),
		sb.Equal("status", models.ImportRecordStatusPending),
	)
	sb.OrderBy("created_at")

	query, args := sb.Build()
	var records []models.ImportRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list pending import records")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list pending import records")
	}

	return records, nil
}

// Update writes a record's resolution outcome
func (r *Repository) Update(ctx context.Context, record models.ImportRecord) error {
	ctx, span := tracing.StartSpan(ctx, "importrecord.Repository.Update")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("import_records")
	sb.Set(
		sb.Assign("supplier_id", record.SupplierID),
		sb.Assign("bank_id", record.BankID),
		sb.Assign("status", record.Status),
		sb.Assign("decided_by", record.DecidedBy),
		sb.Assign("updated_at", time.Now().UTC()),
	)
	sb.Where(sb.Equal("id", record.ID))

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"record_id": record.ID}).Error("Failed to update import record")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update import record")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("import record %s not found", record.ID))
	}

	return nil
}
