package receipt

import (
	"time"

	"github.com/zombor/receipt-scan/internal/scanning"
)

// Status is the processing state of a file entry
type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

// ErrorMessage is the only failure description shown for an entry.
// The cause is logged.
const ErrorMessage = "Could not parse"

// FileEntry is one submitted file and the outcome of scanning it.
// Data is set only when completed, Error only when failed.
type FileEntry struct {
	ID          string                `json:"id"`
	Filename    string                `json:"filename"`
	ContentType string                `json:"contentType"`
	Size        int                   `json:"size"`
	Status      Status                `json:"status"`
	Data        *scanning.ReceiptData `json:"data,omitempty"`
	Error       string                `json:"error,omitempty"`
	SubmittedAt time.Time             `json:"submittedAt"`
	SettledAt   *time.Time            `json:"settledAt,omitempty"`

	file scanning.File
}

func (e FileEntry) complete(data *scanning.ReceiptData, at time.Time) FileEntry {
	e.Status = StatusCompleted
	e.Data = data
	e.Error = ""
	e.SettledAt = &at
	return e
}

func (e FileEntry) fail(at time.Time) FileEntry {
	e.Status = StatusError
	e.Data = nil
	e.Error = ErrorMessage
	e.SettledAt = &at
	return e
}
