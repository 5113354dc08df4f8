package matching

import (
	"github.com/Ramsey-B/sorrel/pkg/models"
	"github.com/Ramsey-B/sorrel/pkg/settings"
)

// Detector flags ambiguity between top candidates. Auto-application is
// refused whenever two distinct entities score too close to call.
type Detector struct {
	settings *settings.Store
}

// NewDetector creates a conflict detector.
func NewDetector(store *settings.Store) *Detector {
	return &Detector{settings: store}
}

// IsAmbiguous reports whether the ranked candidate list's top two entries
// sit within the conflict delta of each other on weighted score. Lists
// with fewer than two candidates are never ambiguous. The check is
// symmetric in the top two: order does not change the verdict.
func (d *Detector) IsAmbiguous(candidates []models.Candidate) bool {
	if len(candidates) < 2 {
		return false
	}
	cfg := d.settings.Current()
	gap := candidates[0].WeightedScore - candidates[1].WeightedScore
	if gap < 0 {
		gap = -gap
	}
	return gap < cfg.ConflictDelta
}
