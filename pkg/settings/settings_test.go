package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validMatch() Match {
	return Match{
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

func TestMatch_Validate(t *testing.T) {
	t.Run("valid settings pass", func(t *testing.T) {
		m := validMatch()
		assert.NoError(t, m.Validate())
	})

	t.Run("auto threshold below review threshold fails", func(t *testing.T) {
		m := validMatch()
		m.AutoThreshold = 0.60
		assert.Error(t, m.Validate())
	})

	t.Run("thresholds must be in range", func(t *testing.T) {
		m := validMatch()
		m.AutoThreshold = 1.5
		assert.Error(t, m.Validate())

		m = validMatch()
		m.ReviewThreshold = 0
		assert.Error(t, m.Validate())
	})

	t.Run("weights must be positive", func(t *testing.T) {
		m := validMatch()
		m.WeightFuzzy = 0
		assert.Error(t, m.Validate())
	})

	t.Run("candidates limit must be positive", func(t *testing.T) {
		m := validMatch()
		m.CandidatesLimit = 0
		assert.Error(t, m.Validate())
	})
}

func TestStore_Apply(t *testing.T) {
	store := NewStore(validMatch())

	t.Run("valid settings swap in", func(t *testing.T) {
		next := validMatch()
		next.AutoThreshold = 0.95
		require.NoError(t, store.Apply(next))
		assert.InDelta(t, 0.95, store.Current().AutoThreshold, 1e-9)
	})

	t.Run("invalid settings leave the active ones untouched", func(t *testing.T) {
		before := store.Current()
		bad := validMatch()
		bad.AutoThreshold = 0.10 // below the review threshold
		require.Error(t, store.Apply(bad))
		assert.Equal(t, before, store.Current())
	})
}

func TestStore_Reload_ReadsEnv(t *testing.T) {
	store := NewStore(validMatch())

	t.Setenv("MATCH_AUTO_THRESHOLD", "0.93")

	next, err := store.Reload()
	require.NoError(t, err)
	assert.InDelta(t, 0.93, next.AutoThreshold, 1e-9)
	assert.InDelta(t, 0.93, store.Current().AutoThreshold, 1e-9)
}

func TestStore_Reload_InvalidEnvKeepsActive(t *testing.T) {
	store := NewStore(validMatch())
	before := store.Current()

	t.Setenv("MATCH_AUTO_THRESHOLD", "0.10") // below the review threshold

	_, err := store.Reload()
	require.Error(t, err)
	assert.Equal(t, before, store.Current())
}
