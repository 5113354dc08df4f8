package models

import "time"

// Family identifies which canonical registry a name resolves against.
type Family string

const (
	FamilySupplier Family = "supplier"
	FamilyBank     Family = "bank"
)

// IsValid reports whether the family is one of the known registries.
func (f Family) IsValid() bool {
	return f == FamilySupplier || f == FamilyBank
}

// CanonicalEntity is the authoritative supplier or bank record that raw
// strings resolve to. Rows are never deleted by this service; they are
// created (rarely, by auto-resolution) or updated.
type CanonicalEntity struct {
	ID                    string     `json:"id" db:"id"`
	Family                Family     `json:"family" db:"family"`
	OfficialName          string     `json:"official_name" db:"official_name"`
	EnglishName           *string    `json:"english_name,omitempty" db:"english_name"`
	ShortCode             *string    `json:"short_code,omitempty" db:"short_code"` // banks only
	NormalizedName        string     `json:"normalized_name" db:"normalized_name"`
	NormalizedEnglishName *string    `json:"normalized_english_name,omitempty" db:"normalized_english_name"`
	CompactName           string     `json:"compact_name" db:"compact_name"` // normalized, whitespace removed
	Confirmed             bool       `json:"confirmed" db:"confirmed"`
	CreatedAt             time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt             *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}
