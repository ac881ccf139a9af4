package excel

import (
	"time"

	gridcore "github.com/ideamans/go-gridcore"
)

// Config holds configuration for Excel adapter
type Config struct {
	FilePath  string // Path to the Excel file
	SheetName string // Name of the sheet to use
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.FilePath == "" {
		return ErrMissingFilePath
	}
	if c.SheetName == "" {
		return ErrMissingSheetName
	}
	return nil
}

// DefaultTransferConfig returns the recommended transfer configuration
// for local Excel files.
func DefaultTransferConfig() *gridcore.Config {
	return &gridcore.Config{
		MaxRetries:    3,
		RetryInterval: 5 * time.Second,
	}
}
