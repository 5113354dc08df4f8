package matching

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/sorrel/pkg/models"
	"github.com/Ramsey-B/sorrel/pkg/normalizers"
	"github.com/Ramsey-B/sorrel/pkg/settings"
	"github.com/Ramsey-B/sorrel/pkg/tracing"
)

// fastPathCutoff is the confidence a cached suggestion needs to decide a
// record without touching the catalog. Fixed on purpose: the interactive
// thresholds are tunable, the batch short-circuit is not.
const fastPathCutoff = 0.95

// FastMatcher answers "is there one obvious winner?" for the batch path.
// It runs an ordered list of strategies and stops at the first hit; it
// never ranks, so a miss here says nothing about what Generate would find.
type FastMatcher struct {
	logger   ectologger.Logger
	settings *settings.Store
	scorer   *Scorer
	policy   *Policy
	cache    SuggestionCache
	blocks   BlockStore
}

// NewFastMatcher creates a fast matcher.
func NewFastMatcher(logger ectologger.Logger, store *settings.Store, cache SuggestionCache, blocks BlockStore) *FastMatcher {
	return &FastMatcher{
		logger:   logger,
		settings: store,
		scorer:   NewScorer(),
		policy:   NewPolicy(),
		cache:    cache,
		blocks:   blocks,
	}
}

// Match resolves one raw name against the snapshot, returning nil when no
// strategy produced a sufficiently confident single hit.
func (f *FastMatcher) Match(ctx context.Context, snap *Snapshot, rawName string) (*models.Match, error) {
	ctx, span := tracing.StartSpan(ctx, "matching.FastMatcher.Match")
	defer span.End()

	cfg := f.settings.Current()
	normalized := normalizers.OrgName(rawName)
	if normalized == "" {
		return nil, nil
	}

	blocked, err := f.blocks.BlockedEntityIDs(ctx, snap.Family, normalized)
	if err != nil {
		return nil, err
	}

	// 1. Cached learned suggestion at or above the fast-path cutoff.
	cached, err := f.cache.Get(ctx, snap.Family, normalized)
	if err != nil {
		return nil, err
	}
	for _, sug := range cached {
		if _, isBlocked := blocked[sug.EntityID]; isBlocked {
			continue
		}
		conf := learnedConfidence(sug.Score)
		if conf < fastPathCutoff {
			continue
		}
		return f.match(sug.EntityID, sug.Name, models.SourceCache, models.MatchTypeLearned, conf, cfg), nil
	}

	// 2. Administrator override, exact on the normalized input.
	if o := snap.OverrideFor(normalized); o != nil {
		if _, isBlocked := blocked[o.EntityID]; !isBlocked {
			if entity := snap.EntityByID(o.EntityID); entity != nil {
				return f.match(entity.ID, entity.OfficialName, models.SourceOfficial, models.MatchTypeOverride, scoreExact, cfg), nil
			}
		}
	}

	// 3. Canonical names: compact key first (space-insensitive), then the
	// normalized form, then a bank short code.
	if e := snap.EntityByCompactKey(normalizers.CompactKey(rawName)); e != nil {
		if _, isBlocked := blocked[e.ID]; !isBlocked {
			return f.match(e.ID, e.OfficialName, models.SourceOfficial, models.MatchTypeExact, scoreExact, cfg), nil
		}
	}
	if e := snap.EntityByNormalizedName(normalized); e != nil {
		if _, isBlocked := blocked[e.ID]; !isBlocked {
			return f.match(e.ID, e.OfficialName, models.SourceOfficial, models.MatchTypeExact, scoreExact, cfg), nil
		}
	}
	if snap.Family == models.FamilyBank {
		if code := normalizers.ShortCode(rawName); len(code) >= 2 {
			if e := snap.EntityByShortCode(code); e != nil {
				if _, isBlocked := blocked[e.ID]; !isBlocked {
					return f.match(e.ID, e.OfficialName, models.SourceOfficial, models.MatchTypeShortCode, scoreExact, cfg), nil
				}
			}
		}
	}

	// 4. Alias exact hit.
	for _, a := range snap.AliasesByNormalizedName(normalized) {
		if _, isBlocked := blocked[a.EntityID]; isBlocked {
			continue
		}
		entity := snap.EntityByID(a.EntityID)
		if entity == nil {
			continue
		}
		source := models.SourceAliasCurated
		if a.Provenance == models.AliasProvenanceLearned {
			source = models.SourceAliasLearned
		}
		return f.match(entity.ID, entity.OfficialName, source, models.MatchTypeAlias, scoreExact, cfg), nil
	}

	// 5. Bounded fuzzy sweep over canonical names. Banks demand the
	// stricter bank threshold; anything below the auto threshold is a
	// review case, not a fast match.
	threshold := cfg.AutoThreshold
	if snap.Family == models.FamilyBank && cfg.BankFuzzyThreshold > threshold {
		threshold = cfg.BankFuzzyThreshold
	}

	var best *models.CanonicalEntity
	bestScore := 0.0
	for i := range snap.Entities {
		e := &snap.Entities[i]
		if _, isBlocked := blocked[e.ID]; isBlocked {
			continue
		}
		score := f.scorer.BoundedSimilarity(normalized, e.NormalizedName)
		if e.NormalizedEnglishName != nil {
			if s := f.scorer.BoundedSimilarity(normalized, *e.NormalizedEnglishName); s > score {
				score = s
			}
		}
		if score > bestScore {
			best, bestScore = e, score
		}
	}
	if best != nil && bestScore >= threshold {
		return f.match(best.ID, best.OfficialName, models.SourceFuzzy, models.MatchTypeFuzzy, bestScore, cfg), nil
	}

	f.logger.WithContext(ctx).WithFields(map[string]any{
		"family": snap.Family,
	}).Debug("No fast match")

	return nil, nil
}

func (f *FastMatcher) match(entityID, name string, source models.CandidateSource, matchType models.MatchType, score float64, cfg settings.Match) *models.Match {
	return &models.Match{
		EntityID:  entityID,
		Name:      name,
		Source:    source,
		MatchType: matchType,
		Score:     score,
		Status:    f.policy.StatusFor(score, cfg),
	}
}
