package resolution

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/sorrel/pkg/learning"
	"github.com/Ramsey-B/sorrel/pkg/matching"
	"github.com/Ramsey-B/sorrel/pkg/models"
	"github.com/Ramsey-B/sorrel/pkg/tracing"
)

// Service is the inbound surface: interactive resolution, fast matching
// and decision recording. Each interactive call loads a fresh catalog
// snapshot so repeat calls against an unchanged catalog are identical.
type Service struct {
	logger  ectologger.Logger
	catalog matching.CatalogStore
	gen     *matching.Generator
	fast    *matching.FastMatcher
	loop    *learning.Loop
}

// NewService wires the facade.
func NewService(logger ectologger.Logger, catalog matching.CatalogStore, gen *matching.Generator, fast *matching.FastMatcher, loop *learning.Loop) *Service {
	return &Service{
		logger:  logger,
		catalog: catalog,
		gen:     gen,
		fast:    fast,
		loop:    loop,
	}
}

// Resolve produces the ranked candidate list for one raw name.
func (s *Service) Resolve(ctx context.Context, family models.Family, rawName string) (*models.CandidateList, error) {
	ctx, span := tracing.StartSpan(ctx, "resolution.Service.Resolve")
	defer span.End()

	if !family.IsValid() {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, "unknown family: "+string(family))
	}
	snap, err := matching.LoadSnapshot(ctx, s.catalog, family)
	if err != nil {
		return nil, err
	}
	return s.gen.Generate(ctx, snap, rawName)
}

// MatchFast returns the single obvious winner for a raw name, or nil.
func (s *Service) MatchFast(ctx context.Context, family models.Family, rawName string) (*models.Match, error) {
	ctx, span := tracing.StartSpan(ctx, "resolution.Service.MatchFast")
	defer span.End()

	if !family.IsValid() {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, "unknown family: "+string(family))
	}
	snap, err := matching.LoadSnapshot(ctx, s.catalog, family)
	if err != nil {
		return nil, err
	}
	return s.fast.Match(ctx, snap, rawName)
}

// RecordDecision feeds a reviewer's confirmed choice into the learning
// loop.
func (s *Service) RecordDecision(ctx context.Context, family models.Family, rawName, entityID string, source models.CandidateSource, actor string) error {
	ctx, span := tracing.StartSpan(ctx, "resolution.Service.RecordDecision")
	defer span.End()

	if !family.IsValid() {
		return httperror.NewHTTPError(http.StatusBadRequest, "unknown family: "+string(family))
	}
	if entityID == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "entity id is required")
	}
	return s.loop.RecordDecision(ctx, family, rawName, entityID, source, actor)
}

// RecordRejection permanently blocks an (input, entity) association.
func (s *Service) RecordRejection(ctx context.Context, family models.Family, rawName, entityID string) error {
	ctx, span := tracing.StartSpan(ctx, "resolution.Service.RecordRejection")
	defer span.End()

	if !family.IsValid() {
		return httperror.NewHTTPError(http.StatusBadRequest, "unknown family: "+string(family))
	}
	if entityID == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "entity id is required")
	}
	return s.loop.RecordRejection(ctx, family, rawName, entityID)
}

// PenalizeIgnoredSuggestion decays a suggestion the reviewer passed over.
func (s *Service) PenalizeIgnoredSuggestion(ctx context.Context, family models.Family, rawName, entityID string) {
	s.loop.PenalizeIgnoredSuggestion(ctx, family, rawName, entityID)
}
