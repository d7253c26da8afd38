package grok

import (
	"github.com/mikey/awb-scanner/internal/config"
	"github.com/mikey/awb-scanner/internal/core"
	"github.com/mikey/awb-scanner/internal/utils"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Factory creates Grok analyzers
type Factory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewFactory creates a new Grok factory
func NewFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *Factory {
	return &Factory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateAnalyzer creates a new Grok analyzer
func (f *Factory) CreateAnalyzer() (core.TextAnalyzer, error) {
	grokCfg := f.cfg.GetGrok()

	clientCfg := openai.DefaultConfig(grokCfg.APIKey)
	clientCfg.BaseURL = grokCfg.BaseURL
	client := openai.NewClientWithConfig(clientCfg)

	return NewGrokAnalyzer(
		client,
		grokCfg.ModelName,
		grokCfg.MaxTokens,
		grokCfg.Temperature,
		grokCfg.MaxBodySize,
		f.logger,
		f.textProcessor,
	), nil
}
