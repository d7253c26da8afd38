package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mikey/awb-scanner/internal/config"
	"github.com/mikey/awb-scanner/internal/core"
	"github.com/mikey/awb-scanner/internal/detector"
	"github.com/mikey/awb-scanner/internal/factory"
	"github.com/mikey/awb-scanner/internal/logging"
	"github.com/mikey/awb-scanner/internal/patterns"
	"go.uber.org/zap"
)

var (
	// Detection flags
	patternsPath = flag.String("patterns", "./configs/awb_patterns.json", "Path to the carrier pattern definitions")
	subject      = flag.String("subject", "", "Message subject to scan alongside the body")

	// Analyzer flags
	provider      = flag.String("provider", "", "Remote analyzer provider (grok, bedrock, gemini; empty disables)")
	grokAPIKey    = flag.String("grok-api-key", "", "API key for the x.ai Grok API")
	grokBaseURL   = flag.String("grok-base-url", "https://api.x.ai/v1", "Base URL for the x.ai Grok API")
	grokModel     = flag.String("grok-model", "grok-2-latest", "Grok model name")
	bedrockRegion = flag.String("bedrock-region", "us-east-1", "AWS region for Bedrock")
	bedrockModel  = flag.String("bedrock-model", "anthropic.claude-v2", "Bedrock model ID")
	geminiAPIKey  = flag.String("gemini-api-key", "", "API key for Google Gemini")
	geminiModel   = flag.String("gemini-model", "gemini-pro", "Gemini model name")

	// Input flags
	inputFile = flag.String("file", "", "Input text file (use stdin if not specified)")
	verbose   = flag.Bool("verbose", false, "Enable verbose logging")
	jsonLog   = flag.Bool("json-log", false, "Output logs in JSON format")
)

func main() {
	flag.Parse()

	// Initialize logger
	logger, err := logging.InitConsoleLogger(*verbose, *jsonLog)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg := createConfigFromFlags()

	// Read message text from file or stdin
	var reader io.Reader
	if *inputFile != "" {
		file, err := os.Open(*inputFile)
		if err != nil {
			logger.Fatal("Failed to open input file", zap.Error(err), zap.String("file", *inputFile))
		}
		defer file.Close()
		reader = file
		logger.Info("Reading message from file", zap.String("file", *inputFile))
	} else {
		reader = os.Stdin
		logger.Info("Reading message from stdin")
	}

	bodyBytes, err := io.ReadAll(reader)
	if err != nil {
		logger.Fatal("Failed to read message body", zap.Error(err))
	}

	// Assemble the detection pipeline
	registry := patterns.Load(*patternsPath, logger)
	processor := factory.NewTextProcessorFactory(logger).CreateTextProcessor()
	extractor := detector.NewExtractor(
		registry,
		processor,
		detector.NewScorer(logger),
		detector.NewResolver(logger),
		logger,
	)

	analyzer, err := factory.NewAnalyzerFactory(cfg, logger, processor).CreateAnalyzer()
	if err != nil {
		logger.Fatal("Failed to create remote analyzer", zap.Error(err))
	}

	service := core.NewScanService(extractor, analyzer, logger)

	msg := &core.Message{
		Date:    time.Now(),
		Subject: *subject,
		Body:    string(bodyBytes),
	}

	fmt.Printf("\n=== Detection ===\n")
	fmt.Printf("Patterns: %s (%d rules)\n", *patternsPath, registry.Len())
	fmt.Printf("Remote analyzer: %s\n", providerLabel(*provider))

	startTime := time.Now()
	matches := service.ScanMessage(context.Background(), msg)
	duration := time.Since(startTime)

	fmt.Printf("\n=== Results ===\n")
	if len(matches) == 0 {
		fmt.Println("No reference codes found")
	}
	for _, m := range matches {
		fmt.Printf("%-14s carrier=%-8s confidence=%.2f location=%s line=%d\n",
			m.Code, m.Carrier, m.Confidence, m.Location, m.Context.LineNumber)
	}
	fmt.Printf("\nProcessing time: %v\n", duration)

	// Close any resources that need closing
	if closer, ok := analyzer.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close analyzer", zap.Error(err))
		}
	}
}

func providerLabel(provider string) string {
	if provider == "" {
		return "disabled"
	}
	return provider
}

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags() *config.Config {
	v := config.NewEmptyViper()

	v.Set("patterns.path", *patternsPath)
	v.Set("analyzer.provider", *provider)

	switch *provider {
	case "grok":
		v.Set("grok.api_key", *grokAPIKey)
		v.Set("grok.base_url", *grokBaseURL)
		v.Set("grok.model_name", *grokModel)
	case "bedrock":
		v.Set("bedrock.region", *bedrockRegion)
		v.Set("bedrock.model_id", *bedrockModel)
	case "gemini":
		v.Set("gemini.api_key", *geminiAPIKey)
		v.Set("gemini.model_name", *geminiModel)
	}

	return config.NewFromViper(v)
}
