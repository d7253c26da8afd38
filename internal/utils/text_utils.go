package utils

import (
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"
)

var (
	markupRe = regexp.MustCompile(`<[^>]+>`)
	// horizontal whitespace only: line breaks separate the lines the
	// extractor scans, so they must survive normalization
	spaceRunRe  = regexp.MustCompile(`[^\S\n]+`)
	dashFoldRep = strings.NewReplacer("–", "-", "—", "-")
)

const memoLimit = 1000

// TextProcessor normalizes message text before scanning and prepares
// bodies for the remote analyzer.
type TextProcessor struct {
	logger *zap.Logger

	mu   sync.Mutex
	memo map[string]string
}

// NewTextProcessor creates a new TextProcessor
func NewTextProcessor(logger *zap.Logger) *TextProcessor {
	return &TextProcessor{
		logger: logger,
		memo:   make(map[string]string),
	}
}

// Normalize strips markup tags, folds dash variants to a plain hyphen,
// collapses runs of spaces and tabs, and trims the result. Results are
// memoized by exact input since mail bodies are rescanned often.
func (tp *TextProcessor) Normalize(text string) string {
	if text == "" {
		return ""
	}

	tp.mu.Lock()
	cached, ok := tp.memo[text]
	tp.mu.Unlock()
	if ok {
		return cached
	}

	cleaned := norm.NFKC.String(text)
	cleaned = markupRe.ReplaceAllString(cleaned, " ")
	cleaned = dashFoldRep.Replace(cleaned)
	cleaned = spaceRunRe.ReplaceAllString(cleaned, " ")
	cleaned = strings.TrimSpace(cleaned)

	tp.mu.Lock()
	if len(tp.memo) >= memoLimit {
		// cheap reset beats tracking recency for a scan-local memo
		tp.memo = make(map[string]string)
	}
	tp.memo[text] = cleaned
	tp.mu.Unlock()

	return cleaned
}

// TruncateText safely truncates text to the specified maximum size and
// ensures the result is valid UTF-8
func (tp *TextProcessor) TruncateText(text string, maxSize int) string {
	if maxSize <= 0 || len(text) <= maxSize {
		return text
	}

	truncated := text[:maxSize]
	for !utf8.ValidString(truncated) && len(truncated) > 0 {
		truncated = truncated[:len(truncated)-1]
	}

	tp.logger.Debug("Text truncated",
		zap.Int("original_size", len(text)),
		zap.Int("truncated_size", len(truncated)),
		zap.Int("max_size", maxSize))

	return truncated + "\n[... Content truncated due to size limits ...]"
}

// SanitizeUTF8 ensures the string contains only valid UTF-8 characters
func (tp *TextProcessor) SanitizeUTF8(text string) string {
	if utf8.ValidString(text) {
		return text
	}

	result := make([]rune, 0, len(text))
	for i, r := range text {
		if r == utf8.RuneError {
			_, size := utf8.DecodeRuneInString(text[i:])
			if size == 1 {
				continue
			}
		}
		result = append(result, r)
	}

	return string(result)
}

// ProcessText truncates and sanitizes text in one operation
func (tp *TextProcessor) ProcessText(text string, maxSize int) string {
	return tp.SanitizeUTF8(tp.TruncateText(text, maxSize))
}
