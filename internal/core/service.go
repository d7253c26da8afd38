package core

import (
	"context"

	"go.uber.org/zap"
)

// ScanService runs the two-stage detection pipeline for a single message:
// the local pattern stage, then the optional remote analysis stage.
type ScanService struct {
	finder   ReferenceFinder
	analyzer TextAnalyzer
	logger   *zap.Logger
}

// NewScanService creates a new scan service. The analyzer may be nil, in
// which case the remote stage is skipped entirely.
func NewScanService(finder ReferenceFinder, analyzer TextAnalyzer, logger *zap.Logger) *ScanService {
	return &ScanService{
		finder:   finder,
		analyzer: analyzer,
		logger:   logger,
	}
}

// ScanMessage detects shipment references in one message. The remote
// analyzer is consulted only when the pattern stage comes back empty, and
// its failure degrades to the (empty) local result.
func (s *ScanService) ScanMessage(ctx context.Context, msg *Message) []ReferenceMatch {
	matches := s.finder.FindAll(ctx, msg)
	if len(matches) > 0 || s.analyzer == nil {
		return matches
	}

	result, err := s.analyzer.AnalyzeMessage(ctx, msg)
	if err != nil {
		s.logger.Warn("Remote analysis failed",
			zap.String("subject", msg.Subject),
			zap.Error(err))
		return matches
	}

	for _, code := range result.Codes {
		matches = append(matches, ReferenceMatch{
			Code:       code,
			Carrier:    UnknownCarrier,
			Confidence: result.Confidence,
			MatchText:  code,
			Location:   LocationAnalysis,
		})
	}

	if len(matches) > 0 {
		s.logger.Debug("Remote analyzer proposed candidates",
			zap.Int("count", len(matches)),
			zap.Float64("confidence", result.Confidence))
	}

	return Dedupe(matches)
}
