package learning

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/sorrel/pkg/models"
)

func noopLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

type fakeAliasStore struct {
	upserts    int
	decrements int
	upsertErr  error
}

func (f *fakeAliasStore) UpsertLearned(_ context.Context, _ models.Family, _, _, _ string) error {
	f.upserts++
	return f.upsertErr
}

func (f *fakeAliasStore) DecrementUsage(_ context.Context, _ models.Family, _, _ string) error {
	f.decrements++
	return nil
}

type fakeDecisionStore struct {
	entries  []models.DecisionEntry
	countErr error
}

func (f *fakeDecisionStore) Append(_ context.Context, entry models.DecisionEntry) error {
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeDecisionStore) CountSince(_ context.Context, _ models.Family, _ time.Time) (int, error) {
	return len(f.entries), f.countErr
}

type fakeEntityLookup struct {
	owner *models.CanonicalEntity
	err   error
}

func (f *fakeEntityLookup) FindByNormalizedName(_ context.Context, _ models.Family, _ string) (*models.CanonicalEntity, error) {
	return f.owner, f.err
}

type fakeCache struct {
	deltas []float64
}

func (f *fakeCache) Upsert(_ context.Context, _ models.Family, _, _, _ string, delta float64) (float64, error) {
	f.deltas = append(f.deltas, delta)
	return delta, nil
}

type fakeBlocks struct {
	increments int
	err        error
}

func (f *fakeBlocks) Increment(_ context.Context, _ models.Family, _, _ string) error {
	f.increments++
	return f.err
}

type loopFixture struct {
	loop      *Loop
	aliases   *fakeAliasStore
	decisions *fakeDecisionStore
	entities  *fakeEntityLookup
	cache     *fakeCache
	blocks    *fakeBlocks
}

func newLoopFixture() *loopFixture {
	f := &loopFixture{
		aliases:   &fakeAliasStore{},
		decisions: &fakeDecisionStore{},
		entities:  &fakeEntityLookup{},
		cache:     &fakeCache{},
		blocks:    &fakeBlocks{},
	}
	f.loop = NewLoop(noopLogger(), f.aliases, f.decisions, f.entities, f.cache, f.blocks)
	return f
}

func TestLoop_RecordDecision(t *testing.T) {
	ctx := context.Background()

	t.Run("learns from a confirmed decision", func(t *testing.T) {
		f := newLoopFixture()

		err := f.loop.RecordDecision(ctx, models.FamilySupplier, "Acme Int", "e1", models.SourceFuzzy, "reviewer-1")
		require.NoError(t, err)

		assert.Equal(t, 1, f.aliases.upserts)
		require.Len(t, f.decisions.entries, 1)
		entry := f.decisions.entries[0]
		assert.Equal(t, "Acme Int", entry.RawName)
		assert.Equal(t, "acme int", entry.NormalizedName)
		assert.Equal(t, "e1", entry.EntityID)
		assert.Equal(t, "reviewer-1", entry.Actor)
		assert.NotEmpty(t, entry.ID)
		assert.Equal(t, []float64{1}, f.cache.deltas)
	})

	t.Run("empty input is a no-op", func(t *testing.T) {
		f := newLoopFixture()

		err := f.loop.RecordDecision(ctx, models.FamilySupplier, "  !! ", "e1", models.SourceFuzzy, "reviewer-1")
		require.NoError(t, err)
		assert.Zero(t, f.aliases.upserts)
		assert.Empty(t, f.decisions.entries)
	})

	t.Run("learned sources never feed back", func(t *testing.T) {
		for _, source := range []models.CandidateSource{models.SourceCache, models.SourceAliasLearned} {
			f := newLoopFixture()

			err := f.loop.RecordDecision(ctx, models.FamilySupplier, "Acme Int", "e1", source, "reviewer-1")
			require.NoError(t, err)
			assert.Zero(t, f.aliases.upserts, "source %s", source)
			assert.Empty(t, f.decisions.entries, "source %s", source)
			assert.Empty(t, f.cache.deltas, "source %s", source)
		}
	})

	t.Run("refuses to learn another entity's canonical name", func(t *testing.T) {
		f := newLoopFixture()
		f.entities.owner = &models.CanonicalEntity{ID: "e2", NormalizedName: "acme int"}

		err := f.loop.RecordDecision(ctx, models.FamilySupplier, "Acme Int", "e1", models.SourceFuzzy, "reviewer-1")
		require.NoError(t, err)
		assert.Zero(t, f.aliases.upserts)
		assert.Empty(t, f.decisions.entries)
		assert.Empty(t, f.cache.deltas)
	})

	t.Run("owning entity may learn its own name", func(t *testing.T) {
		f := newLoopFixture()
		f.entities.owner = &models.CanonicalEntity{ID: "e1", NormalizedName: "acme int"}

		err := f.loop.RecordDecision(ctx, models.FamilySupplier, "Acme Int", "e1", models.SourceFuzzy, "reviewer-1")
		require.NoError(t, err)
		assert.Equal(t, 1, f.aliases.upserts)
	})

	t.Run("throttle stops learning past the ceiling", func(t *testing.T) {
		f := newLoopFixture()

		for i := 0; i < throttleCeiling; i++ {
			require.NoError(t, f.loop.RecordDecision(ctx, models.FamilySupplier, "Acme Int", "e1", models.SourceFuzzy, "reviewer-1"))
		}
		assert.Equal(t, throttleCeiling, f.aliases.upserts)
		assert.Len(t, f.decisions.entries, throttleCeiling)

		// one past the ceiling: no mutation of any kind, still no error
		require.NoError(t, f.loop.RecordDecision(ctx, models.FamilySupplier, "Acme Int", "e1", models.SourceFuzzy, "reviewer-1"))
		assert.Equal(t, throttleCeiling, f.aliases.upserts)
		assert.Len(t, f.decisions.entries, throttleCeiling)
		assert.Len(t, f.cache.deltas, throttleCeiling)
	})

	t.Run("count failure propagates", func(t *testing.T) {
		f := newLoopFixture()
		f.decisions.countErr = errors.New("db down")

		err := f.loop.RecordDecision(ctx, models.FamilySupplier, "Acme Int", "e1", models.SourceFuzzy, "reviewer-1")
		assert.Error(t, err)
		assert.Zero(t, f.aliases.upserts)
	})

	t.Run("lookup failure propagates", func(t *testing.T) {
		f := newLoopFixture()
		f.entities.err = errors.New("db down")

		err := f.loop.RecordDecision(ctx, models.FamilySupplier, "Acme Int", "e1", models.SourceFuzzy, "reviewer-1")
		assert.Error(t, err)
		assert.Zero(t, f.aliases.upserts)
	})

	t.Run("alias write failure is swallowed", func(t *testing.T) {
		f := newLoopFixture()
		f.aliases.upsertErr = errors.New("constraint violation")

		err := f.loop.RecordDecision(ctx, models.FamilySupplier, "Acme Int", "e1", models.SourceFuzzy, "reviewer-1")
		require.NoError(t, err)
		assert.Len(t, f.decisions.entries, 1)
		assert.Equal(t, []float64{1}, f.cache.deltas)
	})

	t.Run("alias collision leaves no trace", func(t *testing.T) {
		// the store's atomic guard rejected the alias: a canonical name
		// created after the read check above. The association must not
		// reach the decision log or the suggestion cache
		f := newLoopFixture()
		f.aliases.upsertErr = httperror.NewHTTPError(http.StatusConflict, `alias "acme int" collides with another entity's canonical name`)

		err := f.loop.RecordDecision(ctx, models.FamilySupplier, "Acme Int", "e1", models.SourceFuzzy, "reviewer-1")
		require.NoError(t, err)
		assert.Equal(t, 1, f.aliases.upserts)
		assert.Empty(t, f.decisions.entries)
		assert.Empty(t, f.cache.deltas)
	})
}

func TestLoop_PenalizeIgnoredSuggestion(t *testing.T) {
	ctx := context.Background()
	f := newLoopFixture()

	f.loop.PenalizeIgnoredSuggestion(ctx, models.FamilySupplier, "Acme Int", "e1")

	assert.Equal(t, 1, f.aliases.decrements)
	assert.Equal(t, []float64{-1}, f.cache.deltas)
	assert.Zero(t, f.blocks.increments)
}

func TestLoop_RecordRejection(t *testing.T) {
	ctx := context.Background()

	t.Run("blocks and decays", func(t *testing.T) {
		f := newLoopFixture()

		err := f.loop.RecordRejection(ctx, models.FamilySupplier, "Acme Int", "e1")
		require.NoError(t, err)
		assert.Equal(t, 1, f.blocks.increments)
		assert.Equal(t, 1, f.aliases.decrements)
		assert.Equal(t, []float64{-1}, f.cache.deltas)
	})

	t.Run("block failure propagates and skips the decay", func(t *testing.T) {
		f := newLoopFixture()
		f.blocks.err = errors.New("db down")

		err := f.loop.RecordRejection(ctx, models.FamilySupplier, "Acme Int", "e1")
		assert.Error(t, err)
		assert.Zero(t, f.aliases.decrements)
	})

	t.Run("empty input is a no-op", func(t *testing.T) {
		f := newLoopFixture()

		err := f.loop.RecordRejection(ctx, models.FamilySupplier, "   ", "e1")
		require.NoError(t, err)
		assert.Zero(t, f.blocks.increments)
	})
}
