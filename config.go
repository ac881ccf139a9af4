package gridcore

import (
	"log/slog"
	"time"
)

// Config controls adapter transfers (LoadFromAdapter / SaveToAdapter).
type Config struct {
	MaxRetries    int           // Maximum number of retries for adapter calls (default: 3)
	RetryInterval time.Duration // Base interval, doubled per retry attempt (default: 1s)
	Logger        *slog.Logger  // Optional structured logger; nil disables logging
}

// DefaultConfig returns the recommended transfer configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxRetries:    3,
		RetryInterval: 1 * time.Second,
	}
}

// PerformanceConfig carries host-side throttling and virtualization flags.
// The engine stores it verbatim and never enforces it; rendering layers
// read it back through Table.Performance.
type PerformanceConfig struct {
	ThrottleUpdates         bool
	UpdateInterval          time.Duration
	VirtualizationThreshold int
}
