package matching

import (
	"time"

	"github.com/Ramsey-B/sorrel/pkg/models"
	"github.com/Ramsey-B/sorrel/pkg/settings"
)

// Point-score constants for the review UI's star rating.
const (
	basePointsExact  = 100
	basePointsStrong = 80 // raw score >= 0.90
	basePointsGood   = 60 // raw score >= 0.80
	basePointsWeak   = 40

	usageBonusBase    = 50
	usageBonusPerUse  = 25
	usageBonusCeiling = 150
	recencyBonus      = 25
	recencyWindow     = 30 * 24 * time.Hour

	threeStarFloor = 200
	twoStarFloor   = 120
)

// Policy converts match evidence into point scores and star ratings, and
// maps candidate sources onto trust weights. All functions are pure.
type Policy struct{}

// NewPolicy creates a new Policy.
func NewPolicy() *Policy {
	return &Policy{}
}

// BaseScore maps a match type and raw similarity onto base points.
func (p *Policy) BaseScore(matchType models.MatchType, rawScore float64) int {
	if matchType == models.MatchTypeExact || matchType == models.MatchTypeOverride {
		return basePointsExact
	}
	switch {
	case rawScore >= 0.90:
		return basePointsStrong
	case rawScore >= 0.80:
		return basePointsGood
	default:
		return basePointsWeak
	}
}

// UsageBonus rewards aliases that reviewers keep confirming. Zero usage
// earns nothing; each additional confirmation adds points up to a
// ceiling, and recent use adds a flat recency bonus.
func (p *Policy) UsageBonus(usageCount int, lastUsedAt *time.Time, now time.Time) int {
	if usageCount <= 0 {
		return 0
	}
	bonus := usageBonusBase + min((usageCount-1)*usageBonusPerUse, usageBonusCeiling)
	if lastUsedAt != nil && now.Sub(*lastUsedAt) <= recencyWindow {
		bonus += recencyBonus
	}
	return bonus
}

// StarRating buckets a total point score into 1-3 stars.
func (p *Policy) StarRating(total int) int {
	switch {
	case total >= threeStarFloor:
		return 3
	case total >= twoStarFloor:
		return 2
	default:
		return 1
	}
}

// Score combines base points and usage bonus into the star rating shown
// to reviewers.
func (p *Policy) Score(matchType models.MatchType, rawScore float64, usageCount int, lastUsedAt *time.Time, now time.Time) (total int, stars int) {
	total = p.BaseScore(matchType, rawScore) + p.UsageBonus(usageCount, lastUsedAt, now)
	return total, p.StarRating(total)
}

// SourceWeight returns the trust weight for a candidate source under the
// active settings.
func (p *Policy) SourceWeight(source models.CandidateSource, cfg settings.Match) float64 {
	switch source {
	case models.SourceOfficial:
		return cfg.WeightOfficial
	case models.SourceAliasCurated:
		return cfg.WeightAltConfirmed
	case models.SourceAliasLearned, models.SourceCache:
		return cfg.WeightAltLearning
	default:
		return cfg.WeightFuzzy
	}
}

// StatusFor maps a raw score onto the field status under the active
// thresholds.
func (p *Policy) StatusFor(rawScore float64, cfg settings.Match) models.ResolveStatus {
	switch {
	case rawScore >= cfg.AutoThreshold:
		return models.StatusReady
	case rawScore >= cfg.ReviewThreshold:
		return models.StatusNeedsReview
	default:
		return models.StatusNoMatch
	}
}
