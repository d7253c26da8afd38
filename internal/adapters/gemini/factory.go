package gemini

import (
	"github.com/mikey/awb-scanner/internal/config"
	"github.com/mikey/awb-scanner/internal/core"
	"github.com/mikey/awb-scanner/internal/utils"
	"go.uber.org/zap"
)

// Factory creates Gemini analyzers
type Factory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewFactory creates a new Gemini factory
func NewFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *Factory {
	return &Factory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateAnalyzer creates a new Gemini analyzer
func (f *Factory) CreateAnalyzer() (core.TextAnalyzer, error) {
	geminiCfg := f.cfg.GetGemini()

	return NewGeminiAnalyzer(
		geminiCfg.APIKey,
		geminiCfg.ModelName,
		geminiCfg.MaxTokens,
		geminiCfg.Temperature,
		geminiCfg.TopP,
		geminiCfg.MaxBodySize,
		f.logger,
		f.textProcessor,
	)
}
