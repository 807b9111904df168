package domain

import "fmt"

// StorageBackend selects where learned state is persisted.
type StorageBackend string

// Available storage backends.
const (
	// StorageMemory keeps state for the lifetime of the process only.
	StorageMemory StorageBackend = "memory"

	// StorageSQLite persists to a local database file.
	StorageSQLite StorageBackend = "sqlite"

	// StoragePostgres persists to a shared PostgreSQL database.
	StoragePostgres StorageBackend = "postgres"
)

// IsValid returns true if the backend is recognised.
func (b StorageBackend) IsValid() bool {
	switch b {
	case StorageMemory, StorageSQLite, StoragePostgres:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (b StorageBackend) String() string {
	return string(b)
}

// PipelineSettings tunes extraction and layout.
type PipelineSettings struct {
	// AccordionThreshold is the entity row count above which a schedule
	// section becomes an accordion instead of a table section.
	AccordionThreshold int

	// ProximityGap is the vertical gap, in points, that splits a group.
	ProximityGap float64
}

// LearningSettings tunes the pattern learning store.
type LearningSettings struct {
	// Alpha is the EMA smoothing factor.
	Alpha float64

	// FlagFloor is the success rate below which a pattern is flagged.
	FlagFloor float64

	// FlagMinUsage is the usage count required before flagging.
	FlagMinUsage int

	// PromotionThreshold is how many identical hallucination texts
	// promote the text to the blocklist.
	PromotionThreshold int
}

// Validate checks the learning parameters are in range.
func (l LearningSettings) Validate() error {
	if l.Alpha <= 0 || l.Alpha > 1 {
		return fmt.Errorf("%w: alpha %.3f outside (0, 1]", ErrInvalidInput, l.Alpha)
	}
	if l.FlagFloor < 0 || l.FlagFloor > 1 {
		return fmt.Errorf("%w: flag floor %.3f outside [0, 1]", ErrInvalidInput, l.FlagFloor)
	}
	if l.FlagMinUsage < 1 {
		return fmt.Errorf("%w: flag min usage must be positive", ErrInvalidInput)
	}
	if l.PromotionThreshold < 1 {
		return fmt.Errorf("%w: promotion threshold must be positive", ErrInvalidInput)
	}
	return nil
}

// StorageSettings selects and locates persisted state.
type StorageSettings struct {
	Backend StorageBackend

	// DataDir holds the sqlite database. Empty means ~/.folio/data.
	DataDir string

	// PostgresDSN is used by the postgres backend.
	PostgresDSN string

	// FlushPerSecond paces background pattern writes.
	FlushPerSecond float64

	// RetryBudget is how many times a pattern write is attempted.
	RetryBudget int
}

// AppSettings aggregates all application settings.
type AppSettings struct {
	Pipeline PipelineSettings
	Learning LearningSettings
	Storage  StorageSettings
}

// DefaultAppSettings returns sensible defaults.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Pipeline: PipelineSettings{
			AccordionThreshold: 5,
			ProximityGap:       30,
		},
		Learning: DefaultLearningSettings(),
		Storage: StorageSettings{
			Backend:        StorageSQLite,
			FlushPerSecond: 20,
			RetryBudget:    3,
		},
	}
}

// DefaultLearningSettings returns the default learning parameters.
func DefaultLearningSettings() LearningSettings {
	return LearningSettings{
		Alpha:              0.2,
		FlagFloor:          0.4,
		FlagMinUsage:       5,
		PromotionThreshold: 3,
	}
}
