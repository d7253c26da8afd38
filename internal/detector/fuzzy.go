package detector

import (
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"go.uber.org/zap"
)

// Resolver reconciles a normalized code against the surface forms observed
// in the text using edit-distance similarity.
type Resolver struct {
	logger *zap.Logger
}

// NewResolver creates a new fuzzy resolver
func NewResolver(logger *zap.Logger) *Resolver {
	return &Resolver{logger: logger}
}

// BestMatch returns the candidate most similar to the code, provided its
// ratio beats the running best and clears the threshold. When no candidate
// qualifies it returns an empty match and ratio 0.
func (r *Resolver) BestMatch(code string, candidates []string, threshold float64) (string, float64) {
	var (
		best      string
		bestRatio float64
	)

	for _, candidate := range candidates {
		ratio := Similarity(code, candidate)
		if ratio > bestRatio && ratio >= threshold {
			bestRatio = ratio
			best = candidate
		}
	}

	if best == "" {
		return "", 0
	}
	return best, bestRatio
}

// Similarity is a normalized Levenshtein ratio in [0, 1]: identical strings
// score 1, entirely different strings score 0.
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}

	longest := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > longest {
		longest = n
	}
	if longest == 0 {
		return 0
	}

	distance := levenshtein.ComputeDistance(a, b)
	return 1 - float64(distance)/float64(longest)
}
