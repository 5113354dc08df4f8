// Package catalog composes the entity, alias and override repositories
// into the read surface the matchers load their snapshots from.
package catalog

import (
	"context"

	"github.com/Ramsey-B/sorrel/internal/repositories/alias"
	"github.com/Ramsey-B/sorrel/internal/repositories/entity"
	"github.com/Ramsey-B/sorrel/internal/repositories/override"
	"github.com/Ramsey-B/sorrel/pkg/models"
)

// Store fans the snapshot loader's reads out to the three repositories.
type Store struct {
	entities  *entity.Repository
	aliases   *alias.Repository
	overrides *override.Repository
}

// NewStore creates a catalog store.
func NewStore(entities *entity.Repository, aliases *alias.Repository, overrides *override.Repository) *Store {
	return &Store{
		entities:  entities,
		aliases:   aliases,
		overrides: overrides,
	}
}

func (s *Store) ListEntities(ctx context.Context, family models.Family) ([]models.CanonicalEntity, error) {
	return s.entities.ListByFamily(ctx, family)
}

func (s *Store) ListAliases(ctx context.Context, family models.Family) ([]models.AlternativeName, error) {
	return s.aliases.ListByFamily(ctx, family)
}

func (s *Store) ListOverrides(ctx context.Context, family models.Family) ([]models.NameOverride, error) {
	return s.overrides.ListByFamily(ctx, family)
}
