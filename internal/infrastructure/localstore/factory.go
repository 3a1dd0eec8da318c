package localstore

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/erp/quotedesk/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Open opens the store selected by cfg.Driver
func Open(cfg config.StoreConfig, logLevel string, zl *zap.Logger) (Store, error) {
	switch cfg.Driver {
	case "memory":
		zl.Warn("Using in-memory local store; fallback orders and the stored token are lost on exit")
		return NewMemoryStore(), nil
	case "badger":
		if err := os.MkdirAll(cfg.Path, 0o700); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
		return OpenBadger(cfg.Path, zl)
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o700); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
		return OpenSQLite(cfg.Path, zl, logLevel)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
