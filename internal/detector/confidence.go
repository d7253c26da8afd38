package detector

import (
	"regexp"

	"go.uber.org/zap"
)

const (
	baseScore = 1.0
	// floor of the documented score range; a score below it is clamped
	minScore = 0.6
	maxScore = 1.0
)

// contextIndicator is one shipping-related signal in the line containing a
// match. Each one raises confidence at most once per scored match.
type contextIndicator struct {
	re    *regexp.Regexp
	bonus float64
}

var contextIndicators = []contextIndicator{
	{regexp.MustCompile(`(?i)awb`), 0.3},
	{regexp.MustCompile(`(?i)tracking`), 0.2},
	{regexp.MustCompile(`(?i)shipment`), 0.2},
	{regexp.MustCompile(`(?i)waybill`), 0.2},
	{regexp.MustCompile(`(?i)air cargo`), 0.2},
}

// canonicalFormRe matches the canonical PPP-NNNNNNNN air waybill form
var canonicalFormRe = regexp.MustCompile(`^\d{3}-\d{8}$`)

// Scorer derives an acceptance confidence for a match from the text around
// it and the regularity of its format.
type Scorer struct {
	logger *zap.Logger
}

// NewScorer creates a new confidence scorer
func NewScorer(logger *zap.Logger) *Scorer {
	return &Scorer{logger: logger}
}

// Score rates one matched text against its containing line. The result is
// always within [0.6, 1.0].
func (s *Scorer) Score(matchText, line string) float64 {
	score := baseScore

	for _, indicator := range contextIndicators {
		if indicator.re.MatchString(line) {
			score += indicator.bonus
		}
	}

	if canonicalFormRe.MatchString(matchText) {
		score += 0.3
	}

	if score > maxScore {
		score = maxScore
	}
	if score < minScore {
		score = minScore
	}
	return score
}
