package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/awb-scanner/internal/config"
	"github.com/mikey/awb-scanner/internal/core"
	"github.com/mikey/awb-scanner/internal/detector"
	"github.com/mikey/awb-scanner/internal/factory"
	"github.com/mikey/awb-scanner/internal/logging"
	"github.com/mikey/awb-scanner/internal/patterns"
	"github.com/mikey/awb-scanner/internal/scan"
	"github.com/mikey/awb-scanner/internal/utils"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewTextProcessorFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewAnalyzerFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewCacheFactory); err != nil {
		return nil, err
	}

	// Register text processor
	if err := container.Provide(func(f *factory.TextProcessorFactory) *utils.TextProcessor {
		return f.CreateTextProcessor()
	}); err != nil {
		return nil, err
	}

	// Register pattern registry
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) *patterns.Registry {
		return patterns.Load(cfg.GetPatterns().Path, logger)
	}); err != nil {
		return nil, err
	}

	// Register detector components
	if err := container.Provide(detector.NewScorer); err != nil {
		return nil, err
	}
	if err := container.Provide(detector.NewResolver); err != nil {
		return nil, err
	}
	if err := container.Provide(detector.NewExtractor); err != nil {
		return nil, err
	}
	if err := container.Provide(func(e *detector.Extractor) core.ReferenceFinder {
		return e
	}); err != nil {
		return nil, err
	}

	// Register remote analyzer (may be nil when disabled)
	if err := container.Provide(func(f *factory.AnalyzerFactory) (core.TextAnalyzer, error) {
		return f.CreateAnalyzer()
	}); err != nil {
		return nil, err
	}

	// Register cache store
	if err := container.Provide(func(f *factory.CacheFactory) (core.CacheStore, error) {
		return f.CreateCacheStore()
	}); err != nil {
		return nil, err
	}

	// Register scan service
	if err := container.Provide(core.NewScanService); err != nil {
		return nil, err
	}

	// Register orchestrator
	if err := container.Provide(func(service *core.ScanService, cfg *config.Config, logger *zap.Logger) *scan.Orchestrator {
		return scan.NewOrchestrator(service, cfg.GetScan().Workers, logger)
	}); err != nil {
		return nil, err
	}

	return container, nil
}
