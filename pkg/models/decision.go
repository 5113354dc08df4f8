package models

import "time"

// DecisionEntry is one append-only row of the confirmed-decision log. The
// log is both an audit trail for learning writes and the counter behind
// the rolling learning throttle.
type DecisionEntry struct {
	ID             string    `json:"id" db:"id"`
	Family         Family    `json:"family" db:"family"`
	EntityID       string    `json:"entity_id" db:"entity_id"`
	RawName        string    `json:"raw_name" db:"raw_name"`
	NormalizedName string    `json:"normalized_name" db:"normalized_name"`
	Source         string    `json:"source" db:"source"`
	Actor          string    `json:"actor" db:"actor"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// ImportRecordStatus tracks an ingested record through auto-resolution.
const (
	ImportRecordStatusPending     = "pending"
	ImportRecordStatusDecided     = "decided"
	ImportRecordStatusNeedsReview = "needs_review"
)

// ImportRecord is one row ingested from a spreadsheet or paste that
// carries a raw supplier name and a raw issuing-bank name to resolve.
type ImportRecord struct {
	ID              string    `json:"id" db:"id"`
	BatchID         string    `json:"batch_id" db:"batch_id"`
	SupplierNameRaw string    `json:"supplier_name_raw" db:"supplier_name_raw"`
	BankNameRaw     string    `json:"bank_name_raw" db:"bank_name_raw"`
	SupplierID      *string   `json:"supplier_id,omitempty" db:"supplier_id"`
	BankID          *string   `json:"bank_id,omitempty" db:"bank_id"`
	Status          string    `json:"status" db:"status"`
	DecidedBy       *string   `json:"decided_by,omitempty" db:"decided_by"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}
