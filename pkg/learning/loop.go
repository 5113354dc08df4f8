// Package learning turns confirmed reviewer decisions into aliases and
// cached suggestions, guarded against runaway or circular self-training.
package learning

import (
	"context"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/Ramsey-B/sorrel/pkg/models"
	"github.com/Ramsey-B/sorrel/pkg/normalizers"
	"github.com/Ramsey-B/sorrel/pkg/tracing"
)

// Rolling throttle on learning writes. Decisions past the ceiling are
// still logged but produce no alias or cache mutation.
const (
	throttleWindow  = 30 * time.Minute
	throttleCeiling = 20
)

// AliasStore is the mutation surface the loop needs on alternative names.
// UpsertLearned must be a single atomic statement that inserts a learned
// alias or increments the usage of an existing one, and must reject any
// alias whose normalized form collides with another entity's canonical
// name. DecrementUsage floors at zero.
type AliasStore interface {
	UpsertLearned(ctx context.Context, family models.Family, entityID, rawName, normalizedName string) error
	DecrementUsage(ctx context.Context, family models.Family, entityID, normalizedName string) error
}

// DecisionStore appends to and counts the decision log.
type DecisionStore interface {
	Append(ctx context.Context, entry models.DecisionEntry) error
	CountSince(ctx context.Context, family models.Family, since time.Time) (int, error)
}

// EntityLookup resolves a normalized name to its canonical owner, if any.
type EntityLookup interface {
	FindByNormalizedName(ctx context.Context, family models.Family, normalizedName string) (*models.CanonicalEntity, error)
}

// SuggestionCache mirrors the matching-side cache with signed deltas.
type SuggestionCache interface {
	Upsert(ctx context.Context, family models.Family, normalizedInput, entityID, name string, delta float64) (float64, error)
}

// BlockStore records explicit rejections.
type BlockStore interface {
	Increment(ctx context.Context, family models.Family, normalizedInput, entityID string) error
}

// Loop applies confirmed and rejected decisions to the learned state.
// Read failures propagate; learning-write failures are logged and
// swallowed so a flaky store never blocks a reviewer's confirmation.
type Loop struct {
	logger    ectologger.Logger
	aliases   AliasStore
	decisions DecisionStore
	entities  EntityLookup
	cache     SuggestionCache
	blocks    BlockStore
}

// NewLoop creates a learning loop.
func NewLoop(logger ectologger.Logger, aliases AliasStore, decisions DecisionStore, entities EntityLookup, cache SuggestionCache, blocks BlockStore) *Loop {
	return &Loop{
		logger:    logger,
		aliases:   aliases,
		decisions: decisions,
		entities:  entities,
		cache:     cache,
		blocks:    blocks,
	}
}

// RecordDecision logs a confirmed (input -> entity) decision and, when the
// guards allow, learns from it. Three ordered gates protect the registry:
//
//  1. Throttle: past the rolling ceiling the decision is logged but not
//     learned, bounding the damage rate of a compromised or confused actor.
//  2. Anti-circularity: confirmations of already-learned suggestions never
//     feed back into learning, so the loop cannot amplify itself.
//  3. Anti-poisoning: an input that is another entity's canonical name is
//     never learned as an alias, so entities cannot steal names.
func (l *Loop) RecordDecision(ctx context.Context, family models.Family, rawName, entityID string, source models.CandidateSource, actor string) error {
	ctx, span := tracing.StartSpan(ctx, "learning.Loop.RecordDecision")
	defer span.End()

	normalized := normalizers.OrgName(rawName)
	if normalized == "" {
		return nil
	}
	log := l.logger.WithContext(ctx).WithFields(map[string]any{
		"family":    family,
		"entity_id": entityID,
	})

	recent, err := l.decisions.CountSince(ctx, family, time.Now().UTC().Add(-throttleWindow))
	if err != nil {
		return err
	}
	if recent >= throttleCeiling {
		log.Info("Learning throttled; decision skipped")
		return nil
	}
	if source.IsLearned() {
		log.Debug("Skipped learning from learned suggestion")
		return nil
	}

	owner, err := l.entities.FindByNormalizedName(ctx, family, normalized)
	if err != nil {
		return err
	}
	if owner != nil && owner.ID != entityID {
		log.WithFields(map[string]any{"owner_id": owner.ID}).Warn("Refused to learn alias shadowing another entity's canonical name")
		return nil
	}

	if err := l.aliases.UpsertLearned(ctx, family, entityID, rawName, normalized); err != nil {
		// A conflict means the store's collision guard caught a canonical
		// name racing past the read check above. Nothing learned, nothing
		// logged, nothing cached for the poisoned association.
		if httperror.IsHTTPError(err) && httperror.GetStatusCode(err) == http.StatusConflict {
			log.WithError(err).Warn("Refused to learn alias colliding with a canonical name")
			return nil
		}
		log.WithError(err).Error("Failed to upsert learned alias")
	}
	entry := models.DecisionEntry{
		ID:             uuid.NewString(),
		Family:         family,
		EntityID:       entityID,
		RawName:        rawName,
		NormalizedName: normalized,
		Source:         string(source),
		Actor:          actor,
		CreatedAt:      time.Now().UTC(),
	}
	if err := l.decisions.Append(ctx, entry); err != nil {
		log.WithError(err).Error("Failed to append decision log entry")
	}
	if _, err := l.cache.Upsert(ctx, family, normalized, entityID, rawName, 1); err != nil {
		log.WithError(err).Error("Failed to update suggestion cache")
	}

	return nil
}

// PenalizeIgnoredSuggestion weakens a suggestion the reviewer saw and
// chose past. It is not gated: demotion cannot poison anything.
func (l *Loop) PenalizeIgnoredSuggestion(ctx context.Context, family models.Family, rawName, entityID string) {
	ctx, span := tracing.StartSpan(ctx, "learning.Loop.PenalizeIgnoredSuggestion")
	defer span.End()

	normalized := normalizers.OrgName(rawName)
	if normalized == "" {
		return
	}
	log := l.logger.WithContext(ctx).WithFields(map[string]any{
		"family":    family,
		"entity_id": entityID,
	})

	if err := l.aliases.DecrementUsage(ctx, family, entityID, normalized); err != nil {
		log.WithError(err).Error("Failed to decrement alias usage")
	}
	if _, err := l.cache.Upsert(ctx, family, normalized, entityID, "", -1); err != nil {
		log.WithError(err).Error("Failed to decay cached suggestion")
	}
}

// RecordRejection permanently blocks an (input, entity) association and
// decays whatever learned state suggested it.
func (l *Loop) RecordRejection(ctx context.Context, family models.Family, rawName, entityID string) error {
	ctx, span := tracing.StartSpan(ctx, "learning.Loop.RecordRejection")
	defer span.End()

	normalized := normalizers.OrgName(rawName)
	if normalized == "" {
		return nil
	}

	if err := l.blocks.Increment(ctx, family, normalized, entityID); err != nil {
		return err
	}
	l.PenalizeIgnoredSuggestion(ctx, family, rawName, entityID)
	return nil
}
