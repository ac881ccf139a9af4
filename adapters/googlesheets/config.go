package googlesheets

import (
	"time"

	gridcore "github.com/ideamans/go-gridcore"
)

// Config represents configuration specific to the Google Sheets adapter
type Config struct {
	SpreadsheetID string
	SheetName     string
}

// DefaultTransferConfig returns the recommended transfer configuration
// for Google Sheets, spaced for API quota limits.
func DefaultTransferConfig() *gridcore.Config {
	return &gridcore.Config{
		MaxRetries:    3,
		RetryInterval: 20 * time.Second,
	}
}
