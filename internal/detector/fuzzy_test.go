package detector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestSimilarityIdenticalStrings(t *testing.T) {
	assert.InDelta(t, 1.0, Similarity("235-12345678", "235-12345678"), 1e-9)
}

func TestSimilaritySingleEdit(t *testing.T) {
	// one substitution over 12 runes
	got := Similarity("235-12345678", "235 12345678")

	assert.InDelta(t, 1.0-1.0/12.0, got, 1e-9)
}

func TestSimilarityDisjointStrings(t *testing.T) {
	assert.InDelta(t, 0.0, Similarity("abc", "xyz"), 1e-9)
}

func TestSimilarityEmptyStrings(t *testing.T) {
	assert.InDelta(t, 1.0, Similarity("", ""), 1e-9)
	assert.InDelta(t, 0.0, Similarity("235", ""), 1e-9)
}

func TestBestMatchPicksClosestCandidate(t *testing.T) {
	r := NewResolver(zap.NewNop())

	best, ratio := r.BestMatch("235-12345678",
		[]string{"999-00000000", "235 12345678", "235-12345678"}, 0.7)

	assert.Equal(t, "235-12345678", best)
	assert.InDelta(t, 1.0, ratio, 1e-9)
}

func TestBestMatchBelowThreshold(t *testing.T) {
	r := NewResolver(zap.NewNop())

	best, ratio := r.BestMatch("235-12345678", []string{"999-00000000"}, 0.9)

	assert.Equal(t, "", best)
	assert.Zero(t, ratio)
}

func TestBestMatchNoCandidates(t *testing.T) {
	r := NewResolver(zap.NewNop())

	best, ratio := r.BestMatch("235-12345678", nil, 0.7)

	assert.Equal(t, "", best)
	assert.Zero(t, ratio)
}
