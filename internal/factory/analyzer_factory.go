package factory

import (
	"fmt"

	"github.com/mikey/awb-scanner/internal/adapters/bedrock"
	"github.com/mikey/awb-scanner/internal/adapters/gemini"
	"github.com/mikey/awb-scanner/internal/adapters/grok"
	"github.com/mikey/awb-scanner/internal/config"
	"github.com/mikey/awb-scanner/internal/core"
	"github.com/mikey/awb-scanner/internal/utils"
	"go.uber.org/zap"
)

// AnalyzerFactory creates remote text analyzers
type AnalyzerFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewAnalyzerFactory creates a new analyzer factory
func NewAnalyzerFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *AnalyzerFactory {
	return &AnalyzerFactory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateAnalyzer creates the configured remote analyzer. An empty or
// "none" provider returns nil: the remote stage is disabled and the scan
// pipeline runs pattern-only.
func (f *AnalyzerFactory) CreateAnalyzer() (core.TextAnalyzer, error) {
	analyzerCfg := f.cfg.GetAnalyzer()

	switch analyzerCfg.Provider {
	case "", "none":
		f.logger.Info("Remote analyzer disabled")
		return nil, nil
	case "grok":
		factory := grok.NewFactory(f.cfg, f.logger, f.textProcessor)
		return factory.CreateAnalyzer()
	case "bedrock":
		factory := bedrock.NewFactory(f.cfg, f.logger, f.textProcessor)
		return factory.CreateAnalyzer()
	case "gemini":
		factory := gemini.NewFactory(f.cfg, f.logger, f.textProcessor)
		return factory.CreateAnalyzer()
	default:
		return nil, fmt.Errorf("unsupported analyzer provider: %s", analyzerCfg.Provider)
	}
}
