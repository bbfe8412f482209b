package services

import (
	"fmt"
	"strconv"
	"time"

	"github.com/custodia-labs/sercha-adaptor/internal/core/domain"
	"github.com/custodia-labs/sercha-adaptor/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-adaptor/internal/core/ports/driving"
)

// Ensure ConfigService implements the interfaces.
var (
	_ driving.ConfigService     = (*ConfigService)(nil)
	_ driven.FeedConfigProvider = (*ConfigService)(nil)
)

// ConfigService reads and updates the adaptor configuration.
// FeedConfig re-reads the store on every call, so a changed file takes
// effect at the next push.
type ConfigService struct {
	configStore driven.ConfigStore
}

// NewConfigService creates a config service backed by store.
func NewConfigService(store driven.ConfigStore) *ConfigService {
	return &ConfigService{configStore: store}
}

// LoadFeedConfig maps the store's keys onto a FeedConfig.
// Unset keys take their defaults.
func LoadFeedConfig(store driven.ConfigStore) domain.FeedConfig {
	return NewConfigService(store).FeedConfig()
}

// FeedConfig implements driven.FeedConfigProvider.
func (s *ConfigService) FeedConfig() domain.FeedConfig {
	d := domain.DefaultFeedConfig()

	return domain.FeedConfig{
		MaxURLs:               s.getInt(domain.KeyFeedMaxURLs, d.MaxURLs),
		Name:                  s.getString(domain.KeyFeedName, d.Name),
		MarkAllDocsAsPublic:   s.getBool(domain.KeyMarkAllDocsAsPublic, d.MarkAllDocsAsPublic),
		UseCompression:        s.getBool(domain.KeyFeedUseCompression, d.UseCompression),
		ArchiveDir:            s.getString(domain.KeyFeedArchiveDir, d.ArchiveDir),
		FullListingInterval:   s.getDuration(domain.KeyFullListingInterval, d.FullListingInterval),
		IncrementalPollPeriod: s.getSeconds(domain.KeyIncrementalPollPeriodSecs, d.IncrementalPollPeriod),
		PushDocIDsOnStartup:   s.getBool(domain.KeyPushDocIDsOnStartup, d.PushDocIDsOnStartup),
		RootPath:              s.getString(domain.KeyRootPath, d.RootPath),
		GSAHostname:           s.getString(domain.KeyGSAHostname, d.GSAHostname),
		GSAPort:               s.getInt(domain.KeyGSAPort, d.GSAPort),
		GSAMaxSendsPerSecond:  s.getFloat(domain.KeyGSAMaxSendsPerSecond, d.GSAMaxSendsPerSecond),
		GSATimeout:            s.getSeconds(domain.KeyGSATimeoutSecs, d.GSATimeout),
		ServerHostname:        s.getString(domain.KeyServerHostname, d.ServerHostname),
		ServerPort:            s.getInt(domain.KeyServerPort, d.ServerPort),
		DocIDPath:             s.getString(domain.KeyServerDocIDPath, d.DocIDPath),
	}
}

// Validate checks the current configuration.
func (s *ConfigService) Validate() error {
	return s.FeedConfig().Validate()
}

// Get returns the raw value stored under key.
func (s *ConfigService) Get(key string) (string, bool) {
	val, ok := s.configStore.Get(key)
	if !ok {
		return "", false
	}
	return fmt.Sprint(val), true
}

// Set stores value under key. Numeric and boolean strings are stored as
// native TOML values. The resulting configuration must stay valid.
func (s *ConfigService) Set(key, value string) error {
	parsed := parseValue(value)

	prev, existed := s.configStore.Get(key)
	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}

	if err := s.Validate(); err != nil {
		// Put the previous value back.
		if existed {
			_ = s.configStore.Set(key, prev)
		} else {
			_ = s.configStore.Delete(key)
		}
		return err
	}
	return nil
}

func parseValue(value string) any {
	if i, err := strconv.ParseInt(value, 10, 64); err == nil {
		return i
	}
	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}
	return value
}

// Helper methods for reading config with defaults.

func (s *ConfigService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *ConfigService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *ConfigService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *ConfigService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

// getSeconds reads an integer number of seconds.
func (s *ConfigService) getSeconds(key string, defaultVal time.Duration) time.Duration {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return time.Duration(s.configStore.GetInt(key)) * time.Second
}

// getDuration reads a Go duration string ("24h") or an integer number of seconds.
func (s *ConfigService) getDuration(key string, defaultVal time.Duration) time.Duration {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	if str := s.configStore.GetString(key); str != "" {
		if d, err := time.ParseDuration(str); err == nil {
			return d
		}
	}
	return time.Duration(s.configStore.GetInt(key)) * time.Second
}
