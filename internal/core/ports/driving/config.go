package driving

import "github.com/custodia-labs/sercha-adaptor/internal/core/domain"

// ConfigService reads and updates the adaptor configuration.
type ConfigService interface {
	// FeedConfig returns the current configuration with defaults applied.
	FeedConfig() domain.FeedConfig

	// Get returns the raw value stored under key.
	Get(key string) (string, bool)

	// Set stores value under key.
	// Returns an error and keeps the old value if the result is invalid.
	Set(key, value string) error

	// Validate checks the current configuration.
	Validate() error
}
