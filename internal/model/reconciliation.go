package model

import "time"

// Status is the reconciliation lifecycle state. Completed and failed are
// terminal; the engine never transitions out of them.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether no further engine-driven transition occurs.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Reconciliation is the persisted entity driving one run. It is created in
// pending with two stored feed files attached and mutated only by the
// pipeline. ProcessedAt is set exactly once, on entering a terminal state.
type Reconciliation struct {
	ID                 uint       `gorm:"primary_key" json:"id"`
	Reference          string     `gorm:"size:32;unique_index" json:"reference"`
	Status             Status     `gorm:"size:16;not null" json:"status"`
	BankFileKey        string     `gorm:"size:255" json:"-"`
	ProcessorFileKey   string     `gorm:"size:255" json:"-"`
	MatchedCount       int        `json:"matched_count"`
	BankOnlyCount      int        `json:"bank_only_count"`
	ProcessorOnlyCount int        `json:"processor_only_count"`
	DiscrepancyCount   int        `json:"discrepancy_count"`
	Report             string     `gorm:"type:text" json:"report,omitempty"`
	ErrorMessage       string     `json:"error_message,omitempty"`
	ProcessedAt        *time.Time `json:"processed_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// TableName fixes the table name for the entity store.
func (Reconciliation) TableName() string { return "reconciliations" }

// FilesAttached reports whether both raw feed files are present.
func (r *Reconciliation) FilesAttached() bool {
	return r.BankFileKey != "" && r.ProcessorFileKey != ""
}
