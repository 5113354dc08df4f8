package matching

import (
	"context"

	"github.com/Ramsey-B/sorrel/pkg/models"
)

// SuggestionCache memoizes learned (input -> entity) associations. The
// Score on a cached suggestion is its confirmation count; confidence and
// stars are derived from it on read. Upserts must be atomic increments at
// the store, never read-modify-write.
type SuggestionCache interface {
	Get(ctx context.Context, family models.Family, normalizedInput string) ([]models.CachedSuggestion, error)
	Upsert(ctx context.Context, family models.Family, normalizedInput, entityID, name string, delta float64) (float64, error)
}

// BlockStore is the permanent negative memory. A blocked entity id never
// appears in any result for that input, at any score.
type BlockStore interface {
	BlockedEntityIDs(ctx context.Context, family models.Family, normalizedInput string) (map[string]struct{}, error)
	Increment(ctx context.Context, family models.Family, normalizedInput, entityID string) error
}

// Learned-suggestion confidence: grows with confirmations but is capped
// strictly below a genuine exact match so learning never outranks ground
// truth. The fast-path cutoff is intentionally a constant rather than a
// setting; see the fast matcher.
const (
	learnedConfidenceFloor   = 0.80
	learnedConfidencePerUse  = 0.05
	learnedConfidenceCeiling = 0.95
)

// learnedConfidence maps a cached suggestion's confirmation count onto a
// raw score in [learnedConfidenceFloor, learnedConfidenceCeiling].
func learnedConfidence(confirmations float64) float64 {
	conf := learnedConfidenceFloor + learnedConfidencePerUse*confirmations
	if conf > learnedConfidenceCeiling {
		return learnedConfidenceCeiling
	}
	return conf
}
