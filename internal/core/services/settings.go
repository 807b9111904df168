package services

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/core/ports/driven"
	"github.com/custodia-labs/folio/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
const (
	keyAccordionThreshold = "pipeline.accordion_threshold"
	keyProximityGap       = "layout.proximity_gap"
	keyAlpha              = "learning.alpha"
	keyFlagFloor          = "learning.flag_floor"
	keyFlagMinUsage       = "learning.flag_min_usage"
	keyPromotionThreshold = "learning.promotion_threshold"
	keyStorageBackend     = "storage.backend"
	keyDataDir            = "storage.data_dir"
	keyPostgresDSN        = "storage.postgres_dsn"
	keyFlushPerSecond     = "storage.flush_per_second"
	keyRetryBudget        = "storage.retry_budget"
)

type keyKind int

const (
	kindInt keyKind = iota
	kindFloat
	kindString
)

// settingKeys lists every supported key with its value kind.
var settingKeys = map[string]keyKind{
	keyAccordionThreshold: kindInt,
	keyProximityGap:       kindFloat,
	keyAlpha:              kindFloat,
	keyFlagFloor:          kindFloat,
	keyFlagMinUsage:       kindInt,
	keyPromotionThreshold: kindInt,
	keyStorageBackend:     kindString,
	keyDataDir:            kindString,
	keyPostgresDSN:        kindString,
	keyFlushPerSecond:     kindFloat,
	keyRetryBudget:        kindInt,
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Pipeline: domain.PipelineSettings{
			AccordionThreshold: s.getInt(keyAccordionThreshold, defaults.Pipeline.AccordionThreshold),
			ProximityGap:       s.getFloat(keyProximityGap, defaults.Pipeline.ProximityGap),
		},
		Learning: domain.LearningSettings{
			Alpha:              s.getFloat(keyAlpha, defaults.Learning.Alpha),
			FlagFloor:          s.getFloat(keyFlagFloor, defaults.Learning.FlagFloor),
			FlagMinUsage:       s.getInt(keyFlagMinUsage, defaults.Learning.FlagMinUsage),
			PromotionThreshold: s.getInt(keyPromotionThreshold, defaults.Learning.PromotionThreshold),
		},
		Storage: domain.StorageSettings{
			Backend:        s.getBackend(defaults.Storage.Backend),
			DataDir:        s.configStore.GetString(keyDataDir), // Empty means the default data dir
			PostgresDSN:    s.configStore.GetString(keyPostgresDSN),
			FlushPerSecond: s.getFloat(keyFlushPerSecond, defaults.Storage.FlushPerSecond),
			RetryBudget:    s.getInt(keyRetryBudget, defaults.Storage.RetryBudget),
		},
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyAccordionThreshold, settings.Pipeline.AccordionThreshold},
		{keyProximityGap, settings.Pipeline.ProximityGap},
		{keyAlpha, settings.Learning.Alpha},
		{keyFlagFloor, settings.Learning.FlagFloor},
		{keyFlagMinUsage, settings.Learning.FlagMinUsage},
		{keyPromotionThreshold, settings.Learning.PromotionThreshold},
		{keyStorageBackend, settings.Storage.Backend.String()},
		{keyDataDir, settings.Storage.DataDir},
		{keyFlushPerSecond, settings.Storage.FlushPerSecond},
		{keyRetryBudget, settings.Storage.RetryBudget},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	// The DSN may carry credentials; only write it when set.
	if settings.Storage.PostgresDSN != "" {
		if err := s.configStore.Set(keyPostgresDSN, settings.Storage.PostgresDSN); err != nil {
			return fmt.Errorf("save %s: %w", keyPostgresDSN, err)
		}
	}

	return nil
}

// Set parses and stores a single key. Nothing is stored when the
// resulting settings would not validate.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := settingKeys[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	var parsed any
	switch kind {
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: %s must be an integer", domain.ErrInvalidInput, key)
		}
		parsed = n
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%w: %s must be a number", domain.ErrInvalidInput, key)
		}
		parsed = f
	default:
		if key == keyStorageBackend && !domain.StorageBackend(value).IsValid() {
			return fmt.Errorf("%w: invalid storage backend: %s", domain.ErrInvalidInput, value)
		}
		parsed = value
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}
	applySetting(settings, key, parsed)
	if err := validateSettings(settings); err != nil {
		return err
	}

	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// applySetting writes a parsed value into the matching settings field.
func applySetting(settings *domain.AppSettings, key string, v any) {
	switch key {
	case keyAccordionThreshold:
		settings.Pipeline.AccordionThreshold = v.(int)
	case keyProximityGap:
		settings.Pipeline.ProximityGap = v.(float64)
	case keyAlpha:
		settings.Learning.Alpha = v.(float64)
	case keyFlagFloor:
		settings.Learning.FlagFloor = v.(float64)
	case keyFlagMinUsage:
		settings.Learning.FlagMinUsage = v.(int)
	case keyPromotionThreshold:
		settings.Learning.PromotionThreshold = v.(int)
	case keyStorageBackend:
		settings.Storage.Backend = domain.StorageBackend(v.(string))
	case keyDataDir:
		settings.Storage.DataDir = v.(string)
	case keyPostgresDSN:
		settings.Storage.PostgresDSN = v.(string)
	case keyFlushPerSecond:
		settings.Storage.FlushPerSecond = v.(float64)
	case keyRetryBudget:
		settings.Storage.RetryBudget = v.(int)
	}
}

// Keys returns the supported config keys in sorted order.
func (s *SettingsService) Keys() []string {
	keys := make([]string, 0, len(settingKeys))
	for k := range settingKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Validate checks the current settings are usable.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return validateSettings(settings)
}

func validateSettings(settings *domain.AppSettings) error {
	if settings.Pipeline.AccordionThreshold < 1 {
		return fmt.Errorf("%w: accordion threshold must be positive", domain.ErrInvalidInput)
	}
	if settings.Pipeline.ProximityGap < 0 {
		return fmt.Errorf("%w: proximity gap must not be negative", domain.ErrInvalidInput)
	}
	if err := settings.Learning.Validate(); err != nil {
		return err
	}
	if settings.Storage.FlushPerSecond <= 0 {
		return fmt.Errorf("%w: flush rate must be positive", domain.ErrInvalidInput)
	}
	if settings.Storage.RetryBudget < 1 {
		return fmt.Errorf("%w: retry budget must be positive", domain.ErrInvalidInput)
	}
	if settings.Storage.Backend == domain.StoragePostgres && settings.Storage.PostgresDSN == "" {
		return fmt.Errorf("%w: storage backend postgres requires %s", domain.ErrInvalidInput, keyPostgresDSN)
	}
	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getBackend(defaultVal domain.StorageBackend) domain.StorageBackend {
	val := s.configStore.GetString(keyStorageBackend)
	if val == "" {
		return defaultVal
	}
	backend := domain.StorageBackend(val)
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}
