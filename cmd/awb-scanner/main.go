package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mikey/awb-scanner/internal/config"
	"github.com/mikey/awb-scanner/internal/core"
	"github.com/mikey/awb-scanner/internal/di"
	"github.com/mikey/awb-scanner/internal/scan"
	"go.uber.org/zap"
)

func main() {
	// Build the dependency injection container
	container, err := di.BuildContainer()
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main application function that gets all dependencies injected
func run(
	logger *zap.Logger,
	cfg *config.Config,
	store core.CacheStore,
	analyzer core.TextAnalyzer,
	orchestrator *scan.Orchestrator,
) error {
	defer logger.Sync()
	defer orchestrator.Stop()

	// Cancel in-flight message scans on SIGINT/SIGTERM; running batches
	// drain instead of being killed mid-write.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("Shutting down...")
		cancel()
	}()

	record := store.Load(ctx)
	logger.Info("Loaded message corpus",
		zap.Int("messages", len(record.Messages)),
		zap.Timep("last_refresh", record.LastRefresh))

	matches := orchestrator.Scan(ctx, record.Messages, cfg.GetScan().BatchSize, func(percent int) {
		logger.Info("Scan progress", zap.Int("percent", percent))
	})

	logger.Info("Scan finished", zap.Int("matches", len(matches)))

	output, err := json.MarshalIndent(matches, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}
	fmt.Println(string(output))

	// Close any resources that need closing
	if closer, ok := analyzer.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close analyzer", zap.Error(err))
		}
	}
	if stopper, ok := store.(interface{ Stop() }); ok {
		stopper.Stop()
	}

	return nil
}
