package core

import (
	"sort"
	"time"
)

// Location identifies which part of a message a reference was found in.
type Location string

const (
	// LocationSubject marks matches found in the message subject line
	LocationSubject Location = "subject"
	// LocationBody marks matches found in the message body
	LocationBody Location = "body"
	// LocationAnalysis marks candidates produced by the remote text analyzer
	LocationAnalysis Location = "AI Analysis"
)

// UnknownCarrier tags matches whose carrier could not be determined locally,
// such as candidates returned by the remote analyzer.
const UnknownCarrier = "UNKNOWN"

// Message represents one mail message pulled from the corpus
type Message struct {
	Date           time.Time
	Subject        string
	Body           string
	Sender         string
	To             []string
	HasAttachments bool
}

// MatchContext is the text window surrounding a detected reference
type MatchContext struct {
	Before     string
	Current    string
	After      string
	LineNumber int
	Position   int
}

// RawMatch is a transient pattern hit produced by the extractor before
// scoring and fuzzy resolution.
type RawMatch struct {
	Text       string
	Code       string
	Carrier    string
	LineNumber int
	Offset     int
	LineText   string
	Location   Location
	Context    MatchContext
}

// ReferenceMatch is a validated, scored shipment reference
type ReferenceMatch struct {
	Code       string       `json:"awb"`
	Carrier    string       `json:"carrier"`
	Confidence float64      `json:"confidence"`
	MatchText  string       `json:"match_text"`
	Context    MatchContext `json:"-"`
	Location   Location     `json:"location"`
}

// CacheRecord is the in-memory form of the persisted message corpus
type CacheRecord struct {
	Messages    []Message
	LastRefresh *time.Time
}

// AnalysisResult represents candidate references returned by a remote
// text analyzer.
type AnalysisResult struct {
	Codes      []string
	Confidence float64
	Context    string
}

// Dedupe keeps the first occurrence of each distinct normalized code and
// drops the rest. Input order decides which occurrence survives.
func Dedupe(matches []ReferenceMatch) []ReferenceMatch {
	seen := make(map[string]struct{}, len(matches))
	unique := make([]ReferenceMatch, 0, len(matches))

	for _, m := range matches {
		if _, ok := seen[m.Code]; ok {
			continue
		}
		seen[m.Code] = struct{}{}
		unique = append(unique, m)
	}

	return unique
}

// SortByConfidence orders matches by descending confidence in place. The
// sort is stable so equal-confidence matches keep their detection order.
func SortByConfidence(matches []ReferenceMatch) {
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Confidence > matches[j].Confidence
	})
}
