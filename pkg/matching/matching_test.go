package matching

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/sorrel/pkg/models"
	"github.com/Ramsey-B/sorrel/pkg/normalizers"
	"github.com/Ramsey-B/sorrel/pkg/settings"
)

// Shared test fixtures for the matching package.

func noopLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func testSettings() settings.Match {
	return settings.Match{
		AutoThreshold:      0.90,
		ReviewThreshold:    0.70,
		WeakThreshold:      0.80,
		WeightOfficial:     1.0,
		WeightAltConfirmed: 0.95,
		WeightAltLearning:  0.75,
		WeightFuzzy:        0.80,
		ConflictDelta:      0.10,
		CandidatesLimit:    20,
		BankFuzzyThreshold: 0.95,
	}
}

func testStore() *settings.Store {
	return settings.NewStore(testSettings())
}

func nowMinusDays(days int) time.Time {
	return time.Now().UTC().Add(-time.Duration(days) * 24 * time.Hour)
}

func testEntity(id string, family models.Family, name string) models.CanonicalEntity {
	return models.CanonicalEntity{
		ID:             id,
		Family:         family,
		OfficialName:   name,
		NormalizedName: normalizers.OrgName(name),
		CompactName:    normalizers.CompactKey(name),
		Confirmed:      true,
	}
}

type fakeSuggestionCache struct {
	suggestions []models.CachedSuggestion
	getCalls    int
}

func (f *fakeSuggestionCache) Get(_ context.Context, _ models.Family, _ string) ([]models.CachedSuggestion, error) {
	f.getCalls++
	return f.suggestions, nil
}

func (f *fakeSuggestionCache) Upsert(_ context.Context, _ models.Family, _, _, _ string, delta float64) (float64, error) {
	return delta, nil
}

type fakeBlockStore struct {
	blocked map[string]struct{}
}

func (f *fakeBlockStore) BlockedEntityIDs(_ context.Context, _ models.Family, _ string) (map[string]struct{}, error) {
	return f.blocked, nil
}

func (f *fakeBlockStore) Increment(_ context.Context, _ models.Family, _, _ string) error {
	return nil
}
