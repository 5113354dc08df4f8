package matching

import (
	"context"
	"sort"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/sorrel/pkg/models"
	"github.com/Ramsey-B/sorrel/pkg/normalizers"
	"github.com/Ramsey-B/sorrel/pkg/settings"
	"github.com/Ramsey-B/sorrel/pkg/tracing"
)

// Generator produces the ranked, deduplicated, capped candidate list for
// the interactive review path. One instance serves one entity family.
type Generator struct {
	logger   ectologger.Logger
	settings *settings.Store
	scorer   *Scorer
	policy   *Policy
	cache    SuggestionCache
	blocks   BlockStore
}

// NewGenerator creates a candidate generator.
func NewGenerator(logger ectologger.Logger, store *settings.Store, cache SuggestionCache, blocks BlockStore) *Generator {
	return &Generator{
		logger:   logger,
		settings: store,
		scorer:   NewScorer(),
		policy:   NewPolicy(),
		cache:    cache,
		blocks:   blocks,
	}
}

// Generate resolves one raw name against the snapshot. An empty or
// unnormalizable input yields an empty list, not an error.
func (g *Generator) Generate(ctx context.Context, snap *Snapshot, rawName string) (*models.CandidateList, error) {
	ctx, span := tracing.StartSpan(ctx, "matching.Generator.Generate")
	defer span.End()

	cfg := g.settings.Current()
	normalized := normalizers.OrgName(rawName)

	result := &models.CandidateList{
		Family:          snap.Family,
		RawInput:        rawName,
		NormalizedInput: normalized,
		Status:          models.StatusNoMatch,
		Candidates:      []models.Candidate{},
	}
	if normalized == "" {
		return result, nil
	}

	blocked, err := g.blocks.BlockedEntityIDs(ctx, snap.Family, normalized)
	if err != nil {
		return nil, err
	}

	acc := newAccumulator(cfg, blocked)
	now := time.Now().UTC()

	// 1. Cached learned suggestions, capped below a genuine exact match.
	cached, err := g.cache.Get(ctx, snap.Family, normalized)
	if err != nil {
		return nil, err
	}
	for _, sug := range cached {
		raw := learnedConfidence(sug.Score)
		acc.add(models.Candidate{
			EntityID:      sug.EntityID,
			Name:          sug.Name,
			Source:        models.SourceCache,
			MatchType:     models.MatchTypeLearned,
			RawScore:      raw,
			WeightedScore: raw * g.policy.SourceWeight(models.SourceCache, cfg),
			Stars:         g.policy.StarRating(g.policy.BaseScore(models.MatchTypeLearned, raw) + g.policy.UsageBonus(int(sug.Score), nil, now)),
		})
	}

	// 2. Administrator overrides.
	for i := range snap.Overrides {
		o := &snap.Overrides[i]
		entity := snap.EntityByID(o.EntityID)
		if entity == nil {
			continue
		}
		if o.NormalizedName == normalized {
			acc.add(g.officialCandidate(entity, models.MatchTypeOverride, scoreExact, cfg))
			continue
		}
		if raw := g.scorer.NameScore(normalized, o.NormalizedName); raw > 0 {
			acc.add(g.scoredCandidate(entity, normalized, o.NormalizedName, raw, cfg))
		}
	}

	// 3. Canonical names, official and English, via the multi-component
	// similarity.
	for i := range snap.Entities {
		e := &snap.Entities[i]
		bestRaw := g.scorer.NameScore(normalized, e.NormalizedName)
		bestName := e.NormalizedName
		if e.NormalizedEnglishName != nil {
			if raw := g.scorer.NameScore(normalized, *e.NormalizedEnglishName); raw > bestRaw {
				bestRaw, bestName = raw, *e.NormalizedEnglishName
			}
		}
		if bestRaw <= 0 {
			continue
		}
		acc.add(g.scoredCandidate(e, normalized, bestName, bestRaw, cfg))
	}

	// 4 & 5. Aliases: exact at full confidence, otherwise fuzzy.
	for i := range snap.Aliases {
		a := &snap.Aliases[i]
		entity := snap.EntityByID(a.EntityID)
		if entity == nil {
			continue
		}
		if a.NormalizedName == normalized {
			source := models.SourceAliasCurated
			if a.Provenance == models.AliasProvenanceLearned {
				source = models.SourceAliasLearned
			}
			_, stars := g.policy.Score(models.MatchTypeAlias, scoreExact, a.UsageCount, a.LastUsedAt, now)
			acc.add(models.Candidate{
				EntityID:         entity.ID,
				Name:             entity.OfficialName,
				Source:           source,
				MatchType:        models.MatchTypeAlias,
				RawScore:         scoreExact,
				WeightedScore:    scoreExact * g.policy.SourceWeight(source, cfg),
				MatchedAliasText: a.Name,
				Stars:            stars,
			})
			continue
		}
		if raw := g.scorer.NameScore(normalized, a.NormalizedName); raw > 0 {
			acc.add(models.Candidate{
				EntityID:         entity.ID,
				Name:             entity.OfficialName,
				Source:           models.SourceFuzzy,
				MatchType:        models.MatchTypeAliasFuzzy,
				RawScore:         raw,
				WeightedScore:    raw * g.policy.SourceWeight(models.SourceFuzzy, cfg),
				MatchedAliasText: a.Name,
			})
		}
	}

	// Banks: the short-code path is a higher-precision alternative to
	// name similarity.
	if snap.Family == models.FamilyBank {
		g.addShortCodeCandidates(acc, snap, rawName, cfg)
	}

	result.Candidates = acc.ranked(cfg.CandidatesLimit)
	if len(result.Candidates) > 0 {
		result.Status = g.policy.StatusFor(result.Candidates[0].RawScore, cfg)
	}

	g.logger.WithContext(ctx).WithFields(map[string]any{
		"family":          snap.Family,
		"candidate_count": len(result.Candidates),
		"status":          result.Status,
	}).Debug("Generated candidates")

	return result, nil
}

// officialCandidate builds an exact-confidence candidate from the
// canonical registry.
func (g *Generator) officialCandidate(e *models.CanonicalEntity, matchType models.MatchType, raw float64, cfg settings.Match) models.Candidate {
	return models.Candidate{
		EntityID:      e.ID,
		Name:          e.OfficialName,
		Source:        models.SourceOfficial,
		MatchType:     matchType,
		RawScore:      raw,
		WeightedScore: raw * g.policy.SourceWeight(models.SourceOfficial, cfg),
		Stars:         g.policy.StarRating(g.policy.BaseScore(matchType, raw)),
	}
}

// scoredCandidate classifies a multi-component score into exact,
// containment or fuzzy and weights it accordingly.
func (g *Generator) scoredCandidate(e *models.CanonicalEntity, input, name string, raw float64, cfg settings.Match) models.Candidate {
	matchType := models.MatchTypeFuzzy
	source := models.SourceFuzzy
	switch {
	case input == name:
		matchType = models.MatchTypeExact
		source = models.SourceOfficial
	case g.scorer.Containment(input, name) == raw:
		matchType = models.MatchTypeContainment
		source = models.SourceOfficial
	}
	return models.Candidate{
		EntityID:      e.ID,
		Name:          e.OfficialName,
		Source:        source,
		MatchType:     matchType,
		RawScore:      raw,
		WeightedScore: raw * g.policy.SourceWeight(source, cfg),
		Stars:         g.policy.StarRating(g.policy.BaseScore(matchType, raw)),
	}
}

// addShortCodeCandidates matches the input's derived short code against
// bank short codes, exactly and then fuzzily above the bank threshold.
func (g *Generator) addShortCodeCandidates(acc *accumulator, snap *Snapshot, rawName string, cfg settings.Match) {
	code := normalizers.ShortCode(rawName)
	if len(code) < 2 {
		return
	}

	for i := range snap.Entities {
		e := &snap.Entities[i]
		if e.ShortCode == nil || *e.ShortCode == "" {
			continue
		}
		raw := 0.0
		if *e.ShortCode == code {
			raw = scoreExact
		} else if sim := g.scorer.Similarity(code, *e.ShortCode); sim >= cfg.BankFuzzyThreshold {
			raw = sim
		}
		if raw == 0 {
			continue
		}
		acc.add(models.Candidate{
			EntityID:      e.ID,
			Name:          e.OfficialName,
			Source:        models.SourceOfficial,
			MatchType:     models.MatchTypeShortCode,
			RawScore:      raw,
			WeightedScore: raw * g.policy.SourceWeight(models.SourceOfficial, cfg),
			Stars:         g.policy.StarRating(g.policy.BaseScore(models.MatchTypeShortCode, raw)),
		})
	}
}

// accumulator deduplicates candidates to the best score per entity while
// enforcing the blocklist and the per-type score floors.
type accumulator struct {
	cfg     settings.Match
	blocked map[string]struct{}
	best    map[string]models.Candidate
}

func newAccumulator(cfg settings.Match, blocked map[string]struct{}) *accumulator {
	return &accumulator{
		cfg:     cfg,
		blocked: blocked,
		best:    make(map[string]models.Candidate),
	}
}

func (a *accumulator) add(c models.Candidate) {
	if _, isBlocked := a.blocked[c.EntityID]; isBlocked {
		return
	}
	// Similarity-only evidence must clear the weak threshold; structural
	// signals (exact, containment, alias, override, short code) only the
	// review threshold.
	floor := a.cfg.ReviewThreshold
	if c.MatchType == models.MatchTypeFuzzy || c.MatchType == models.MatchTypeAliasFuzzy {
		floor = a.cfg.WeakThreshold
	}
	if c.RawScore < floor {
		return
	}
	existing, ok := a.best[c.EntityID]
	if !ok || c.WeightedScore > existing.WeightedScore ||
		(c.WeightedScore == existing.WeightedScore && c.RawScore > existing.RawScore) {
		a.best[c.EntityID] = c
	}
}

// ranked returns the deduplicated candidates sorted by weighted score
// descending, truncated to the limit.
func (a *accumulator) ranked(limit int) []models.Candidate {
	out := make([]models.Candidate, 0, len(a.best))
	for _, c := range a.best {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].WeightedScore != out[j].WeightedScore {
			return out[i].WeightedScore > out[j].WeightedScore
		}
		if out[i].RawScore != out[j].RawScore {
			return out[i].RawScore > out[j].RawScore
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
