package core

import (
	"context"
)

// ReferenceFinder defines the interface for the local pattern-based
// reference detector.
type ReferenceFinder interface {
	// FindAll detects every shipment reference in a message, deduplicated
	// per message and sorted by descending confidence
	FindAll(ctx context.Context, msg *Message) []ReferenceMatch
}

// TextAnalyzer defines the interface for the optional remote analysis
// fallback, consulted only when the pattern stage finds nothing.
type TextAnalyzer interface {
	// AnalyzeMessage asks the remote service for candidate reference codes
	AnalyzeMessage(ctx context.Context, msg *Message) (*AnalysisResult, error)
}

// CacheStore defines the interface for persisting the scanned corpus
type CacheStore interface {
	// Load returns the persisted corpus. It never fails: any read or parse
	// problem yields an empty record.
	Load(ctx context.Context) *CacheRecord

	// Save persists the corpus, truncated to maxMessages, replacing the
	// previous contents atomically
	Save(ctx context.Context, record *CacheRecord, maxMessages int) error
}
