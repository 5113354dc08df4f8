package models

import "time"

// AliasProvenance records how an alternative name entered the registry.
type AliasProvenance string

const (
	AliasProvenanceCurated AliasProvenance = "curated" // created by an administrator
	AliasProvenanceLearned AliasProvenance = "learned" // created by the learning loop
)

// AlternativeName is a known-equivalent raw spelling of a canonical
// entity's name. Invariant: an alias's normalized form must never collide
// with another entity's canonical normalized name; the repository rejects
// such writes so aliases cannot steal names between entities.
type AlternativeName struct {
	ID             string          `json:"id" db:"id"`
	Family         Family          `json:"family" db:"family"`
	EntityID       string          `json:"entity_id" db:"entity_id"`
	Name           string          `json:"name" db:"name"`
	NormalizedName string          `json:"normalized_name" db:"normalized_name"`
	Provenance     AliasProvenance `json:"provenance" db:"provenance"`
	UsageCount     int             `json:"usage_count" db:"usage_count"`
	LastUsedAt     *time.Time      `json:"last_used_at,omitempty" db:"last_used_at"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
}

// NameOverride is an administrator-forced exact mapping from a raw name
// to an entity. On an exact normalized match it takes precedence over all
// scoring.
type NameOverride struct {
	ID             string    `json:"id" db:"id"`
	Family         Family    `json:"family" db:"family"`
	RawName        string    `json:"raw_name" db:"raw_name"`
	NormalizedName string    `json:"normalized_name" db:"normalized_name"`
	EntityID       string    `json:"entity_id" db:"entity_id"`
	CreatedBy      *string   `json:"created_by,omitempty" db:"created_by"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// BlockedAssociation is permanent negative memory: once an input/entity
// pair is blocked, that entity is excluded from every result for that
// input regardless of score. Rows are created only by explicit rejection,
// never by automated gates.
type BlockedAssociation struct {
	Family          Family    `json:"family" db:"family"`
	NormalizedInput string    `json:"normalized_input" db:"normalized_input"`
	EntityID        string    `json:"entity_id" db:"entity_id"`
	BlockCount      int       `json:"block_count" db:"block_count"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}
