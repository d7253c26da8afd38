package factory

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mikey/awb-scanner/internal/adapters/cache"
	"github.com/mikey/awb-scanner/internal/config"
	"github.com/mikey/awb-scanner/internal/core"
	"go.uber.org/zap"
)

// CacheFactory creates cache stores based on configuration
type CacheFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewCacheFactory creates a new cache factory
func NewCacheFactory(cfg *config.Config, logger *zap.Logger) *CacheFactory {
	return &CacheFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateCacheStore creates a cache store based on the configuration
func (f *CacheFactory) CreateCacheStore() (core.CacheStore, error) {
	cacheCfg := f.cfg.GetCache()

	switch cacheCfg.Type {
	case "file":
		retention, err := f.cfg.GetDuration("cache.retention")
		if err != nil {
			return nil, fmt.Errorf("invalid cache retention: %w", err)
		}
		return cache.NewFileStore(
			cacheCfg.Path,
			cacheCfg.MaxSizeMB,
			cacheCfg.CleanupThreshold,
			retention,
			f.logger,
		)
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(cacheCfg.SQLitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
		return cache.NewSQLiteStore(cacheCfg.SQLitePath, f.logger)
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cacheCfg.Type)
	}
}

// GetMaxMessages returns the configured corpus cap
func (f *CacheFactory) GetMaxMessages() int {
	return f.cfg.GetCache().MaxMessages
}
