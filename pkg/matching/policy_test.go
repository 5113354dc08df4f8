package matching

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Ramsey-B/sorrel/pkg/models"
)

func TestPolicy_BaseScore(t *testing.T) {
	p := NewPolicy()

	tests := []struct {
		name      string
		matchType models.MatchType
		rawScore  float64
		expected  int
	}{
		{"exact", models.MatchTypeExact, 1.0, basePointsExact},
		{"override", models.MatchTypeOverride, 1.0, basePointsExact},
		{"strong fuzzy", models.MatchTypeFuzzy, 0.92, basePointsStrong},
		{"good fuzzy", models.MatchTypeFuzzy, 0.84, basePointsGood},
		{"weak fuzzy", models.MatchTypeFuzzy, 0.75, basePointsWeak},
		{"containment", models.MatchTypeContainment, 0.75, basePointsWeak},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, p.BaseScore(tt.matchType, tt.rawScore))
		})
	}
}

func TestPolicy_UsageBonus(t *testing.T) {
	p := NewPolicy()
	now := time.Now().UTC()

	t.Run("zero usage earns nothing", func(t *testing.T) {
		assert.Equal(t, 0, p.UsageBonus(0, nil, now))
	})

	t.Run("recent use adds the recency bonus", func(t *testing.T) {
		recent := now.Add(-10 * 24 * time.Hour)
		stale := now.Add(-45 * 24 * time.Hour)
		assert.Equal(t, p.UsageBonus(3, &stale, now)+recencyBonus, p.UsageBonus(3, &recent, now))
	})

	t.Run("bonus caps out", func(t *testing.T) {
		assert.Equal(t, usageBonusBase+usageBonusCeiling, p.UsageBonus(100, nil, now))
	})

	t.Run("monotonic in usage count", func(t *testing.T) {
		prev := 0
		for usage := 0; usage <= 12; usage++ {
			bonus := p.UsageBonus(usage, nil, now)
			assert.GreaterOrEqual(t, bonus, prev, "usage %d", usage)
			prev = bonus
		}
	})
}

func TestPolicy_Score(t *testing.T) {
	p := NewPolicy()
	now := time.Now().UTC()

	// exact match, five confirmations, used within the recency window:
	// 100 base + 50 + 4*25 usage + 25 recency = 275, three stars
	lastUsed := now.Add(-10 * 24 * time.Hour)
	total, stars := p.Score(models.MatchTypeExact, 1.0, 5, &lastUsed, now)
	assert.Equal(t, 275, total)
	assert.Equal(t, 3, stars)
}

func TestPolicy_StarRating(t *testing.T) {
	p := NewPolicy()

	assert.Equal(t, 3, p.StarRating(threeStarFloor))
	assert.Equal(t, 2, p.StarRating(threeStarFloor-1))
	assert.Equal(t, 2, p.StarRating(twoStarFloor))
	assert.Equal(t, 1, p.StarRating(twoStarFloor-1))
}

func TestPolicy_SourceWeight(t *testing.T) {
	p := NewPolicy()
	cfg := testSettings()

	assert.Equal(t, cfg.WeightOfficial, p.SourceWeight(models.SourceOfficial, cfg))
	assert.Equal(t, cfg.WeightAltConfirmed, p.SourceWeight(models.SourceAliasCurated, cfg))
	assert.Equal(t, cfg.WeightAltLearning, p.SourceWeight(models.SourceAliasLearned, cfg))
	assert.Equal(t, cfg.WeightAltLearning, p.SourceWeight(models.SourceCache, cfg))
	assert.Equal(t, cfg.WeightFuzzy, p.SourceWeight(models.SourceFuzzy, cfg))
}

func TestPolicy_StatusFor(t *testing.T) {
	p := NewPolicy()
	cfg := testSettings()

	assert.Equal(t, models.StatusReady, p.StatusFor(0.95, cfg))
	assert.Equal(t, models.StatusReady, p.StatusFor(cfg.AutoThreshold, cfg))
	assert.Equal(t, models.StatusNeedsReview, p.StatusFor(0.80, cfg))
	assert.Equal(t, models.StatusNeedsReview, p.StatusFor(cfg.ReviewThreshold, cfg))
	assert.Equal(t, models.StatusNoMatch, p.StatusFor(0.50, cfg))
}
