package main

import (
	"context"

	"github.com/custodia-labs/folio/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/folio/internal/adapters/driven/storage/postgres"
	"github.com/custodia-labs/folio/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/core/ports/driven"
	"github.com/custodia-labs/folio/internal/logger"
)

// durableStore is implemented by the sqlite and postgres stores.
type durableStore interface {
	PatternPersister() driven.PatternPersister
	IssueLog() driven.IssueLog
	Blocklist() driven.Blocklist
	Close() error
}

// storage bundles the driven adapters the services share.
type storage struct {
	patterns  *memory.PatternStore
	blocklist driven.Blocklist
	issues    driven.IssueLog
	durable   durableStore
}

// openStorage opens the configured backend. When the backend cannot be
// opened it warns and falls back to memory so that settings can still
// be changed.
func openStorage(ctx context.Context, settings *domain.AppSettings) *storage {
	durable, err := openDurable(ctx, settings.Storage)
	if err != nil {
		logger.Warn("storage %s unavailable, using memory: %v", settings.Storage.Backend, err)
		durable = nil
	}
	if durable == nil {
		return memoryStorage(settings)
	}
	return attachDurable(ctx, settings, durable)
}

func memoryStorage(settings *domain.AppSettings) *storage {
	return &storage{
		patterns:  memory.NewPatternStore(settings.Learning),
		blocklist: memory.NewBlocklist(domain.DefaultBlocklist()...),
		issues:    memory.NewIssueLog(),
	}
}

// attachDurable restores learned patterns from durable and wires its
// ports. If the patterns cannot be loaded the backend is closed and the
// run uses memory: an empty arena would mint new IDs for signatures the
// backend already holds.
func attachDurable(ctx context.Context, settings *domain.AppSettings, durable durableStore) *storage {
	patterns := memory.NewPatternStore(settings.Learning,
		memory.WithPersister(durable.PatternPersister(), settings.Storage.FlushPerSecond, settings.Storage.RetryBudget))
	n, err := patterns.Load(ctx)
	if err != nil {
		logger.Warn("storage %s: %v, using memory", settings.Storage.Backend, err)
		if cerr := patterns.Close(); cerr != nil {
			logger.Debug("closing pattern store: %v", cerr)
		}
		if cerr := durable.Close(); cerr != nil {
			logger.Debug("closing storage: %v", cerr)
		}
		return memoryStorage(settings)
	}
	logger.Debug("storage: %s, %d patterns loaded", settings.Storage.Backend, n)

	return &storage{
		patterns:  patterns,
		blocklist: durable.Blocklist(),
		issues:    durable.IssueLog(),
		durable:   durable,
	}
}

func openDurable(ctx context.Context, cfg domain.StorageSettings) (durableStore, error) {
	switch cfg.Backend {
	case domain.StorageSQLite:
		return sqlite.NewStore(cfg.DataDir)
	case domain.StoragePostgres:
		return postgres.NewStore(ctx, cfg.PostgresDSN)
	default:
		return nil, nil
	}
}

// close flushes pending pattern writes before the backend closes.
func (s *storage) close() {
	if err := s.patterns.Close(); err != nil {
		logger.Warn("flushing patterns: %v", err)
	}
	if s.durable != nil {
		if err := s.durable.Close(); err != nil {
			logger.Warn("closing storage: %v", err)
		}
	}
}
