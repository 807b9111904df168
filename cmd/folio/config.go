package main

import (
	"github.com/custodia-labs/folio/internal/adapters/driven/config/file"
	"github.com/custodia-labs/folio/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/folio/internal/core/ports/driven"
	"github.com/custodia-labs/folio/internal/logger"
)

// openConfig loads the config file from dir (empty means ~/.folio).
// When the file cannot be created or parsed the run continues on
// defaults held in memory, and settings changes last only for that run.
func openConfig(dir string) driven.ConfigStore {
	store, err := file.NewConfigStore(dir)
	if err != nil {
		logger.Warn("config unavailable, using defaults: %v", err)
		return memory.NewConfigStore()
	}
	return store
}
