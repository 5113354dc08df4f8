package models

// MatchType describes which signal produced a candidate.
type MatchType string

const (
	MatchTypeExact       MatchType = "exact"       // normalized names identical
	MatchTypeOverride    MatchType = "override"    // administrator-forced mapping
	MatchTypeContainment MatchType = "containment" // prefix or substring of the other name
	MatchTypeFuzzy       MatchType = "fuzzy"       // edit-distance / token-set similarity
	MatchTypeAlias       MatchType = "alias"       // exact hit on an alternative name
	MatchTypeAliasFuzzy  MatchType = "alias_fuzzy" // fuzzy hit on an alternative name
	MatchTypeShortCode   MatchType = "short_code"  // bank short-code match
	MatchTypeLearned     MatchType = "learned"     // cached learned suggestion
)

// CandidateSource is the trust category a candidate's score is weighted by.
type CandidateSource string

const (
	SourceOfficial     CandidateSource = "official"      // canonical name or override
	SourceAliasCurated CandidateSource = "alias_curated" // administrator-curated alias
	SourceAliasLearned CandidateSource = "alias_learned" // alias created by the learning loop
	SourceFuzzy        CandidateSource = "fuzzy"         // similarity-only evidence
	SourceCache        CandidateSource = "cache"         // memoized learned suggestion
)

// IsLearned reports whether the candidate's sole origin is the learning
// loop. Learned-only suggestions never authorize automation.
func (s CandidateSource) IsLearned() bool {
	return s == SourceAliasLearned || s == SourceCache
}

// Candidate is a transient scored mapping from a raw input to a canonical
// entity. RawScore is unweighted confidence in [0,1]; WeightedScore is
// RawScore multiplied by the source category's trust weight.
type Candidate struct {
	EntityID         string          `json:"entity_id"`
	Name             string          `json:"name"`
	Source           CandidateSource `json:"source"`
	MatchType        MatchType       `json:"match_type"`
	RawScore         float64         `json:"raw_score"`
	WeightedScore    float64         `json:"weighted_score"`
	MatchedAliasText string          `json:"matched_alias_text,omitempty"`
	Stars            int             `json:"stars,omitempty"`
}

// ResolveStatus summarizes how confident the engine is about a field.
type ResolveStatus string

const (
	StatusReady       ResolveStatus = "ready"        // confident enough to apply automatically
	StatusNeedsReview ResolveStatus = "needs_review" // a human must confirm
	StatusNoMatch     ResolveStatus = "no_match"
)

// CandidateList is the interactive resolution result for one raw name.
type CandidateList struct {
	Family          Family        `json:"family"`
	RawInput        string        `json:"raw_input"`
	NormalizedInput string        `json:"normalized_input"`
	Status          ResolveStatus `json:"status"`
	Candidates      []Candidate   `json:"candidates"`
}

// Match is the batch-path outcome: at most one entity per raw name.
type Match struct {
	EntityID  string          `json:"entity_id"`
	Name      string          `json:"name"`
	Source    CandidateSource `json:"source"`
	MatchType MatchType       `json:"match_type"`
	Score     float64         `json:"score"`
	Status    ResolveStatus   `json:"status"`
}

// CachedSuggestion is a memoized candidate for a normalized input. It is
// bounded-staleness advisory data, never authoritative.
type CachedSuggestion struct {
	EntityID string  `json:"entity_id"`
	Name     string  `json:"name"`
	Score    float64 `json:"score"` // cumulative confirmation score
	Stars    int     `json:"stars"` // derived from the scoring policy on read
}
