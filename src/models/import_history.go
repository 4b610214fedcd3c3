package models

import "time"

const (
	ImportStatusCompleted = "completed"
	ImportStatusFailed    = "failed"
)

// ImportHistory records one attempt to import a ledger file.
type ImportHistory struct {
	ID                string          `json:"id"`
	AccountID         int64           `json:"account_id"`
	Filename          string          `json:"filename"`
	FileSize          int64           `json:"file_size"`
	Format            BrokerageFormat `json:"format"`
	RecordsProcessed  int             `json:"records_processed"`
	RecordsImported   int             `json:"records_imported"`
	RecordsUpdated    int             `json:"records_updated"`
	RecordsDuplicates int             `json:"records_duplicates"`
	RecordsSkipped    int             `json:"records_skipped"`
	RecordsErrors     int             `json:"records_errors"`
	Status            string          `json:"status"`
	ErrorMessage      string          `json:"error_message,omitempty"`
	StartedAt         time.Time       `json:"started_at"`
	CompletedAt       time.Time       `json:"completed_at"`
}
