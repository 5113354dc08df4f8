package matching

import (
	"context"

	"github.com/Ramsey-B/sorrel/pkg/models"
	"github.com/Ramsey-B/sorrel/pkg/tracing"
)

// CatalogStore is the slice of the registry the snapshot loader reads.
// Implemented by the entity/alias/override repositories.
type CatalogStore interface {
	ListEntities(ctx context.Context, family models.Family) ([]models.CanonicalEntity, error)
	ListAliases(ctx context.Context, family models.Family) ([]models.AlternativeName, error)
	ListOverrides(ctx context.Context, family models.Family) ([]models.NameOverride, error)
}

// Snapshot is one family's catalog held in memory for the duration of a
// request or batch run. It is read-only after Load; concurrent readers
// share it freely.
type Snapshot struct {
	Family    models.Family
	Entities  []models.CanonicalEntity
	Aliases   []models.AlternativeName
	Overrides []models.NameOverride

	entityByID    map[string]*models.CanonicalEntity
	entityByNorm  map[string]*models.CanonicalEntity
	entityByKey   map[string]*models.CanonicalEntity // compact, space-insensitive
	entityByCode  map[string]*models.CanonicalEntity // banks: short code
	aliasByNorm   map[string][]*models.AlternativeName
	overrideByKey map[string]*models.NameOverride
}

// LoadSnapshot pulls one family's entities, aliases and overrides and
// builds the lookup indexes. Batch runs call this once and reuse the
// snapshot for every record.
func LoadSnapshot(ctx context.Context, store CatalogStore, family models.Family) (*Snapshot, error) {
	ctx, span := tracing.StartSpan(ctx, "matching.LoadSnapshot")
	defer span.End()

	entities, err := store.ListEntities(ctx, family)
	if err != nil {
		return nil, err
	}
	aliases, err := store.ListAliases(ctx, family)
	if err != nil {
		return nil, err
	}
	overrides, err := store.ListOverrides(ctx, family)
	if err != nil {
		return nil, err
	}

	return NewSnapshot(family, entities, aliases, overrides), nil
}

// NewSnapshot indexes already-loaded catalog rows. Tests build snapshots
// directly through this.
func NewSnapshot(family models.Family, entities []models.CanonicalEntity, aliases []models.AlternativeName, overrides []models.NameOverride) *Snapshot {
	s := &Snapshot{
		Family:        family,
		Entities:      entities,
		Aliases:       aliases,
		Overrides:     overrides,
		entityByID:    make(map[string]*models.CanonicalEntity, len(entities)),
		entityByNorm:  make(map[string]*models.CanonicalEntity, len(entities)),
		entityByKey:   make(map[string]*models.CanonicalEntity, len(entities)),
		entityByCode:  make(map[string]*models.CanonicalEntity),
		aliasByNorm:   make(map[string][]*models.AlternativeName, len(aliases)),
		overrideByKey: make(map[string]*models.NameOverride, len(overrides)),
	}

	for i := range entities {
		e := &entities[i]
		s.entityByID[e.ID] = e
		if e.NormalizedName != "" {
			s.entityByNorm[e.NormalizedName] = e
		}
		if e.NormalizedEnglishName != nil && *e.NormalizedEnglishName != "" {
			// English forms share the exact-name index; first writer wins
			if _, taken := s.entityByNorm[*e.NormalizedEnglishName]; !taken {
				s.entityByNorm[*e.NormalizedEnglishName] = e
			}
		}
		if e.CompactName != "" {
			s.entityByKey[e.CompactName] = e
		}
		if e.ShortCode != nil && *e.ShortCode != "" {
			s.entityByCode[*e.ShortCode] = e
		}
	}

	for i := range aliases {
		a := &aliases[i]
		s.aliasByNorm[a.NormalizedName] = append(s.aliasByNorm[a.NormalizedName], a)
	}

	for i := range overrides {
		o := &overrides[i]
		s.overrideByKey[o.NormalizedName] = o
	}

	return s
}

// EntityByID looks an entity up by id.
func (s *Snapshot) EntityByID(id string) *models.CanonicalEntity {
	return s.entityByID[id]
}

// EntityByNormalizedName matches the standard normalized key, covering
// both the official and English names.
func (s *Snapshot) EntityByNormalizedName(norm string) *models.CanonicalEntity {
	return s.entityByNorm[norm]
}

// EntityByCompactKey matches the space-insensitive key.
func (s *Snapshot) EntityByCompactKey(key string) *models.CanonicalEntity {
	return s.entityByKey[key]
}

// EntityByShortCode matches a bank short code exactly.
func (s *Snapshot) EntityByShortCode(code string) *models.CanonicalEntity {
	return s.entityByCode[code]
}

// AliasesByNormalizedName returns every alias whose normalized form
// equals the input.
func (s *Snapshot) AliasesByNormalizedName(norm string) []*models.AlternativeName {
	return s.aliasByNorm[norm]
}

// OverrideFor returns the administrator override for a normalized input,
// if any.
func (s *Snapshot) OverrideFor(norm string) *models.NameOverride {
	return s.overrideByKey[norm]
}
