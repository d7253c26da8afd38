package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestNormalizeStripsMarkup(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	out := tp.Normalize("<p>AWB <b>235-12345678</b></p>")

	assert.Equal(t, "AWB 235-12345678", out)
}

func TestNormalizeFoldsDashVariants(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	out := tp.Normalize("235–12345678 and 020—11112222")

	assert.Equal(t, "235-12345678 and 020-11112222", out)
}

func TestNormalizeCollapsesSpacesButKeepsLines(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	out := tp.Normalize("first   line\t here\nsecond  line")

	assert.Equal(t, "first line here\nsecond line", out)
}

func TestNormalizeEmptyInput(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	assert.Equal(t, "", tp.Normalize(""))
}

func TestNormalizeIsMemoized(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	first := tp.Normalize("  AWB   235-12345678  ")
	second := tp.Normalize("  AWB   235-12345678  ")

	assert.Equal(t, first, second)
	assert.Equal(t, "AWB 235-12345678", second)
}

func TestTruncateTextKeepsValidUTF8(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	text := strings.Repeat("ü", 100)
	out := tp.TruncateText(text, 101)

	assert.True(t, len(out) < len(text)+60)
	assert.Contains(t, out, "Content truncated")
	// the cut must not split the two-byte rune
	assert.True(t, strings.HasPrefix(out, "ü"))
}

func TestTruncateTextNoLimit(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	assert.Equal(t, "short", tp.TruncateText("short", 0))
	assert.Equal(t, "short", tp.TruncateText("short", 100))
}
