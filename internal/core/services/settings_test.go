package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/folio/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/folio/internal/core/domain"
)

func TestNewSettingsService(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store)

	require.NotNil(t, service)
}

func TestSettingsService_Get_ReturnsDefaults(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store)

	settings, err := service.Get()

	require.NoError(t, err)
	require.NotNil(t, settings)
	assert.Equal(t, domain.DefaultAppSettings(), *settings)
}

func TestSettingsService_Get_ReturnsStoredValues(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("learning.alpha", 0.5)
	_ = store.Set("pipeline.accordion_threshold", 8)
	_ = store.Set("layout.proximity_gap", 12) // ints widen to floats
	_ = store.Set("storage.backend", "memory")

	service := NewSettingsService(store)

	settings, err := service.Get()

	require.NoError(t, err)
	assert.InDelta(t, 0.5, settings.Learning.Alpha, 1e-9)
	assert.Equal(t, 8, settings.Pipeline.AccordionThreshold)
	assert.InDelta(t, 12.0, settings.Pipeline.ProximityGap, 1e-9)
	assert.Equal(t, domain.StorageMemory, settings.Storage.Backend)
}

func TestSettingsService_Get_InvalidBackendReturnsDefault(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("storage.backend", "mongodb")

	service := NewSettingsService(store)

	settings, err := service.Get()

	require.NoError(t, err)
	assert.Equal(t, domain.StorageSQLite, settings.Storage.Backend)
}

func TestSettingsService_Save(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store)

	settings := domain.DefaultAppSettings()
	settings.Learning.FlagFloor = 0.25
	settings.Storage.Backend = domain.StorageMemory

	require.NoError(t, service.Save(&settings))

	assert.InDelta(t, 0.25, store.GetFloat("learning.flag_floor"), 1e-9)
	assert.Equal(t, "memory", store.GetString("storage.backend"))
	_, hasDSN := store.Get("storage.postgres_dsn")
	assert.False(t, hasDSN)

	got, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, settings, *got)
}

func TestSettingsService_Set(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr bool
		check   func(t *testing.T, s *domain.AppSettings)
	}{
		{
			name: "int key", key: "learning.promotion_threshold", value: "4",
			check: func(t *testing.T, s *domain.AppSettings) { assert.Equal(t, 4, s.Learning.PromotionThreshold) },
		},
		{
			name: "float key", key: "learning.alpha", value: "0.35",
			check: func(t *testing.T, s *domain.AppSettings) { assert.InDelta(t, 0.35, s.Learning.Alpha, 1e-9) },
		},
		{
			name: "string key", key: "storage.backend", value: "memory",
			check: func(t *testing.T, s *domain.AppSettings) { assert.Equal(t, domain.StorageMemory, s.Storage.Backend) },
		},
		{name: "unknown key", key: "search.mode", value: "hybrid", wantErr: true},
		{name: "not an integer", key: "learning.flag_min_usage", value: "many", wantErr: true},
		{name: "not a number", key: "learning.alpha", value: "high", wantErr: true},
		{name: "alpha out of range", key: "learning.alpha", value: "1.5", wantErr: true},
		{name: "unknown backend", key: "storage.backend", value: "mongodb", wantErr: true},
		{name: "postgres without dsn", key: "storage.backend", value: "postgres", wantErr: true},
		{name: "zero retry budget", key: "storage.retry_budget", value: "0", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.NewConfigStore()
			service := NewSettingsService(store)

			err := service.Set(tt.key, tt.value)

			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, domain.ErrInvalidInput)
				_, stored := store.Get(tt.key)
				assert.False(t, stored, "rejected value must not be stored")
				return
			}
			require.NoError(t, err)
			settings, err := service.Get()
			require.NoError(t, err)
			tt.check(t, settings)
		})
	}
}

func TestSettingsService_Set_PostgresAfterDSN(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store)

	require.NoError(t, service.Set("storage.postgres_dsn", "postgres://folio@localhost/folio"))
	require.NoError(t, service.Set("storage.backend", "postgres"))

	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.StoragePostgres, settings.Storage.Backend)
}

func TestSettingsService_Keys(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore())

	keys := service.Keys()

	assert.Len(t, keys, len(settingKeys))
	assert.IsNonDecreasing(t, keys)
	assert.Contains(t, keys, "learning.alpha")
	assert.Contains(t, keys, "storage.backend")
}

func TestSettingsService_Validate(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store)
	require.NoError(t, service.Validate())

	_ = store.Set("learning.flag_floor", 2.0)
	assert.ErrorIs(t, service.Validate(), domain.ErrInvalidInput)
}

func TestSettingsService_GetDefaults(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore())

	assert.Equal(t, domain.DefaultAppSettings(), service.GetDefaults())
}
