package driven

// ConfigStore provides access to adaptor configuration.
// Implementations handle persistence (e.g., TOML files) and type conversion.
// Keys use dot notation ("feed.maxUrls").
type ConfigStore interface {
	// Get retrieves a configuration value by key.
	// Returns the value and a boolean indicating if the key exists.
	Get(key string) (any, bool)

	// GetString retrieves a string configuration value.
	// Returns empty string if key doesn't exist.
	GetString(key string) string

	// GetInt retrieves an integer configuration value.
	// Numeric strings are converted. Returns 0 if the key doesn't exist
	// or cannot be read as an integer.
	GetInt(key string) int

	// GetBool retrieves a boolean configuration value.
	// "true"/"false" strings are converted. Returns false if the key
	// doesn't exist or cannot be read as a boolean.
	GetBool(key string) bool

	// GetFloat retrieves a floating point configuration value.
	// Returns 0 if the key doesn't exist or isn't numeric.
	GetFloat(key string) float64

	// Set stores a configuration value.
	// The value is persisted immediately.
	Set(key string, value any) error

	// Delete removes a configuration value.
	// The change is persisted immediately.
	Delete(key string) error

	// Save persists the current configuration to storage.
	Save() error

	// Load reads configuration from storage.
	Load() error

	// Path returns the configuration file path.
	Path() string
}
