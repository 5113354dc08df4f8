// Package settings holds the runtime matching configuration: thresholds,
// trust weights and limits. Settings load once per process and can be
// hot-reloaded; a reload that fails validation is rejected and the
// previous settings stay active.
package settings

import (
	"fmt"
	"sync/atomic"

	"github.com/Gobusters/ectoenv"
	"github.com/go-playground/validator/v10"
)

// Match is the validated set of knobs the matching pipeline reads.
type Match struct {
	// AutoThreshold is the raw-score floor for committing a decision
	// without human confirmation. Must be >= ReviewThreshold.
	AutoThreshold   float64 `env:"MATCH_AUTO_THRESHOLD" env-default:"0.90" validate:"gt=0,lte=1"`
	ReviewThreshold float64 `env:"MATCH_REVIEW_THRESHOLD" env-default:"0.70" validate:"gt=0,lte=1"`
	// WeakThreshold filters similarity-only candidates out of interactive
	// results; structural signals (exact, containment, alias) are not
	// subject to it.
	WeakThreshold float64 `env:"MATCH_WEAK_THRESHOLD" env-default:"0.80" validate:"gt=0,lte=1"`

	WeightOfficial     float64 `env:"WEIGHT_OFFICIAL" env-default:"1.0" validate:"gt=0"`
	WeightAltConfirmed float64 `env:"WEIGHT_ALT_CONFIRMED" env-default:"0.95" validate:"gt=0"`
	WeightAltLearning  float64 `env:"WEIGHT_ALT_LEARNING" env-default:"0.75" validate:"gt=0"`
	WeightFuzzy        float64 `env:"WEIGHT_FUZZY" env-default:"0.80" validate:"gt=0"`

	ConflictDelta      float64 `env:"CONFLICT_DELTA" env-default:"0.10" validate:"gt=0,lte=1"`
	CandidatesLimit    int     `env:"CANDIDATES_LIMIT" env-default:"20" validate:"gt=0"`
	BankFuzzyThreshold float64 `env:"BANK_FUZZY_THRESHOLD" env-default:"0.95" validate:"gt=0,lte=1"`

	// AutoCreateSuppliers lets the batch orchestrator create a supplier
	// for an unmatched name when the record's bank resolved
	// deterministically and no supplier candidate exists at all.
	AutoCreateSuppliers bool `env:"MATCH_AUTO_CREATE_SUPPLIERS" env-default:"false"`
}

// Validate applies the struct tags plus the cross-field invariant.
func (m *Match) Validate() error {
	if err := validator.New().Struct(m); err != nil {
		return err
	}
	if m.AutoThreshold < m.ReviewThreshold {
		return fmt.Errorf("MATCH_AUTO_THRESHOLD (%.2f) must be >= MATCH_REVIEW_THRESHOLD (%.2f)", m.AutoThreshold, m.ReviewThreshold)
	}
	return nil
}

// Store is the process-wide holder of the active Match settings. Reads
// are lock-free; Reload swaps the pointer atomically so in-flight
// requests keep the settings they started with.
type Store struct {
	current atomic.Pointer[Match]
}

// NewStore creates a store seeded with the given settings. The settings
// must already be validated.
func NewStore(m Match) *Store {
	s := &Store{}
	s.current.Store(&m)
	return s
}

// Load reads settings from the environment, validates them and returns a
// seeded store.
func Load() (*Store, error) {
	m, err := readEnv()
	if err != nil {
		return nil, err
	}
	return NewStore(*m), nil
}

// Current returns the active settings snapshot.
func (s *Store) Current() Match {
	return *s.current.Load()
}

// Reload re-reads the environment and swaps the active settings in. An
// invalid environment leaves the active settings untouched.
func (s *Store) Reload() (Match, error) {
	m, err := readEnv()
	if err != nil {
		return s.Current(), err
	}
	s.current.Store(m)
	return *m, nil
}

// Apply validates and installs explicit settings (used by tests and the
// settings endpoint).
func (s *Store) Apply(m Match) error {
	if err := m.Validate(); err != nil {
		return err
	}
	s.current.Store(&m)
	return nil
}

func readEnv() (*Match, error) {
	var m Match
	if err := ectoenv.BindEnv(&m); err != nil {
		return nil, fmt.Errorf("failed to read match settings from environment: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}
