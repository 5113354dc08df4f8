// Package resolution hosts the batch auto-resolution orchestrator and the
// inbound service facade over the matching and learning components.
package resolution

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/Ramsey-B/sorrel/pkg/matching"
	"github.com/Ramsey-B/sorrel/pkg/metrics"
	"github.com/Ramsey-B/sorrel/pkg/models"
	"github.com/Ramsey-B/sorrel/pkg/normalizers"
	"github.com/Ramsey-B/sorrel/pkg/settings"
	"github.com/Ramsey-B/sorrel/pkg/tracing"
)

const autoResolverActor = "auto-resolver"

// ImportRecordStore reads and advances the records a batch run decides.
type ImportRecordStore interface {
	ListPending(ctx context.Context, batchID string) ([]models.ImportRecord, error)
	Update(ctx context.Context, record models.ImportRecord) error
}

// EntityWriter creates registry entities. Create must enforce the same
// normalized-name collision check the alias path does.
type EntityWriter interface {
	Create(ctx context.Context, entity *models.CanonicalEntity) error
}

// AuditEmitter is the one-way sink for change events.
type AuditEmitter interface {
	Record(ctx context.Context, entityID, change, actor, reason string) error
}

// Orchestrator drives undecided import records through both family
// matchers and the conflict detector, committing a decision only when
// both fields are confident and unambiguous.
type Orchestrator struct {
	logger   ectologger.Logger
	settings *settings.Store
	catalog  matching.CatalogStore
	fast     *matching.FastMatcher
	gen      *matching.Generator
	detector *matching.Detector
	records  ImportRecordStore
	entities EntityWriter
	audit    AuditEmitter
}

// NewOrchestrator wires an orchestrator.
func NewOrchestrator(
	logger ectologger.Logger,
	store *settings.Store,
	catalog matching.CatalogStore,
	fast *matching.FastMatcher,
	gen *matching.Generator,
	detector *matching.Detector,
	records ImportRecordStore,
	entities EntityWriter,
	audit AuditEmitter,
) *Orchestrator {
	return &Orchestrator{
		logger:   logger,
		settings: store,
		catalog:  catalog,
		fast:     fast,
		gen:      gen,
		detector: detector,
		records:  records,
		entities: entities,
		audit:    audit,
	}
}

// RunResult summarizes one batch pass.
type RunResult struct {
	BatchID     string `json:"batch_id"`
	Processed   int    `json:"processed"`
	Decided     int    `json:"decided"`
	NeedsReview int    `json:"needs_review"`
	Created     int    `json:"created"`
	Failed      int    `json:"failed"`
}

// Run processes every pending record in the batch. Both family catalogs
// load once up front and stay read-only for the whole pass. A failing
// record is logged and skipped rather than aborting the batch.
func (o *Orchestrator) Run(ctx context.Context, batchID string) (*RunResult, error) {
	ctx, span := tracing.StartSpan(ctx, "resolution.Orchestrator.Run")
	defer span.End()

	log := o.logger.WithContext(ctx).WithFields(map[string]any{"batch_id": batchID})
	start := time.Now()

	suppliers, err := matching.LoadSnapshot(ctx, o.catalog, models.FamilySupplier)
	if err != nil {
		metrics.RecordBatchRun("error", time.Since(start).Seconds())
		return nil, err
	}
	banks, err := matching.LoadSnapshot(ctx, o.catalog, models.FamilyBank)
	if err != nil {
		metrics.RecordBatchRun("error", time.Since(start).Seconds())
		return nil, err
	}
	records, err := o.records.ListPending(ctx, batchID)
	if err != nil {
		metrics.RecordBatchRun("error", time.Since(start).Seconds())
		return nil, err
	}

	result := &RunResult{BatchID: batchID}
	for i := range records {
		record := records[i]
		result.Processed++

		outcome, err := o.resolveRecord(ctx, suppliers, banks, &record)
		if err != nil {
			result.Failed++
			metrics.RecordRecordOutcome("failed")
			log.WithError(err).WithFields(map[string]any{"record_id": record.ID}).Error("Failed to resolve record")
			continue
		}

		if err := o.records.Update(ctx, record); err != nil {
			result.Failed++
			metrics.RecordRecordOutcome("failed")
			log.WithError(err).WithFields(map[string]any{"record_id": record.ID}).Error("Failed to update record")
			continue
		}
		switch record.Status {
		case models.ImportRecordStatusDecided:
			result.Decided++
		case models.ImportRecordStatusNeedsReview:
			result.NeedsReview++
		}
		metrics.RecordRecordOutcome(record.Status)
		if outcome.created {
			result.Created++
		}
	}

	log.WithFields(map[string]any{
		"processed":    result.Processed,
		"decided":      result.Decided,
		"needs_review": result.NeedsReview,
		"created":      result.Created,
		"failed":       result.Failed,
	}).Info("Completed auto-resolution run")
	metrics.RecordBatchRun("success", time.Since(start).Seconds())

	return result, nil
}

type recordOutcome struct {
	created bool
}

// resolveRecord mutates the record in place: ids and status. A decision
// commits only when the supplier clears the auto threshold, the bank
// resolved deterministically, neither field is ambiguous, and neither
// winning suggestion originates solely from learned state.
func (o *Orchestrator) resolveRecord(ctx context.Context, suppliers, banks *matching.Snapshot, record *models.ImportRecord) (recordOutcome, error) {
	cfg := o.settings.Current()
	var outcome recordOutcome

	supplierMatch, err := o.fast.Match(ctx, suppliers, record.SupplierNameRaw)
	if err != nil {
		return outcome, err
	}
	supplierList, err := o.gen.Generate(ctx, suppliers, record.SupplierNameRaw)
	if err != nil {
		return outcome, err
	}
	bankMatch, err := o.fast.Match(ctx, banks, record.BankNameRaw)
	if err != nil {
		return outcome, err
	}
	bankList, err := o.gen.Generate(ctx, banks, record.BankNameRaw)
	if err != nil {
		return outcome, err
	}

	ambiguous := o.detector.IsAmbiguous(supplierList.Candidates) || o.detector.IsAmbiguous(bankList.Candidates)
	bankDecided := bankMatch != nil && deterministic(bankMatch) && !bankMatch.Source.IsLearned()
	supplierDecided := supplierMatch != nil && supplierMatch.Score >= cfg.AutoThreshold && !supplierMatch.Source.IsLearned()

	if supplierDecided && bankDecided && !ambiguous {
		record.SupplierID = &supplierMatch.EntityID
		record.BankID = &bankMatch.EntityID
		o.commit(ctx, record, supplierMatch, bankMatch)
		return outcome, nil
	}

	// Supplier auto-creation: the narrowest possible gap. The bank must
	// have resolved deterministically and the supplier side must have
	// produced nothing at all, not merely nothing confident.
	if cfg.AutoCreateSuppliers && bankDecided && !ambiguous &&
		supplierMatch == nil && len(supplierList.Candidates) == 0 && supplierList.NormalizedInput != "" {
		created, err := o.createSupplier(ctx, suppliers, record.SupplierNameRaw, supplierList.NormalizedInput)
		if err != nil {
			return outcome, err
		}
		if created != nil {
			record.SupplierID = &created.ID
			record.BankID = &bankMatch.EntityID
			o.commit(ctx, record, nil, bankMatch)
			o.emit(ctx, created.ID, "Auto-created supplier \""+created.OfficialName+"\"", "bank resolved deterministically with no supplier candidates")
			outcome.created = true
			return outcome, nil
		}
	}

	record.Status = models.ImportRecordStatusNeedsReview
	return outcome, nil
}

// deterministic reports whether a fast match came from an exact-shaped
// strategy rather than similarity.
func deterministic(m *models.Match) bool {
	switch m.MatchType {
	case models.MatchTypeExact, models.MatchTypeOverride, models.MatchTypeAlias, models.MatchTypeShortCode:
		return true
	default:
		return false
	}
}

func (o *Orchestrator) commit(ctx context.Context, record *models.ImportRecord, supplierMatch, bankMatch *models.Match) {
	record.Status = models.ImportRecordStatusDecided
	actor := autoResolverActor
	record.DecidedBy = &actor
	if supplierMatch != nil {
		o.emit(ctx, supplierMatch.EntityID, "Auto-matched supplier for \""+record.SupplierNameRaw+"\"", string(supplierMatch.MatchType))
	}
	if bankMatch != nil {
		o.emit(ctx, bankMatch.EntityID, "Auto-matched bank for \""+record.BankNameRaw+"\"", string(bankMatch.MatchType))
	}
}

// emit sends an audit event. The sink is one-way; a failed emit is
// logged, never fatal.
func (o *Orchestrator) emit(ctx context.Context, entityID, change, reason string) {
	if err := o.audit.Record(ctx, entityID, change, autoResolverActor, reason); err != nil {
		o.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"entity_id": entityID}).Error("Failed to emit audit event")
	}
}

// createSupplier inserts a confirmed=false supplier for an unmatched
// name, subject to the same collision rule aliases obey. Returns nil
// without error when the normalized name is already taken.
func (o *Orchestrator) createSupplier(ctx context.Context, snap *matching.Snapshot, rawName, normalized string) (*models.CanonicalEntity, error) {
	if snap.EntityByNormalizedName(normalized) != nil {
		return nil, nil
	}
	now := time.Now().UTC()
	entity := models.CanonicalEntity{
		ID:             uuid.NewString(),
		Family:         models.FamilySupplier,
		OfficialName:   rawName,
		NormalizedName: normalized,
		CompactName:    normalizers.CompactKey(rawName),
		Confirmed:      false,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := o.entities.Create(ctx, &entity); err != nil {
		return nil, err
	}
	return &entity, nil
}
