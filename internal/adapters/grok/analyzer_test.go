package grok

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAnalysisPlainJSON(t *testing.T) {
	parsed, err := parseAnalysis(`{"awb_numbers": ["235-12345678"], "confidence": 0.9, "context": "your shipment"}`)

	require.NoError(t, err)
	assert.Equal(t, []string{"235-12345678"}, parsed.AWBNumbers)
	assert.InDelta(t, 0.9, parsed.Confidence, 1e-9)
	assert.Equal(t, "your shipment", parsed.Context)
}

func TestParseAnalysisWithSurroundingProse(t *testing.T) {
	text := "Here is the extraction result:\n```json\n" +
		`{"awb_numbers": ["772238490728"], "confidence": 0.75, "context": "tracking"}` +
		"\n```\nLet me know if you need more."

	parsed, err := parseAnalysis(text)

	require.NoError(t, err)
	assert.Equal(t, []string{"772238490728"}, parsed.AWBNumbers)
	assert.InDelta(t, 0.75, parsed.Confidence, 1e-9)
}

func TestParseAnalysisNoJSON(t *testing.T) {
	_, err := parseAnalysis("I could not find any shipment references.")

	assert.Error(t, err)
}

func TestParseAnalysisMalformedJSON(t *testing.T) {
	_, err := parseAnalysis(`{"awb_numbers": [unquoted]}`)

	assert.Error(t, err)
}

func TestParseAnalysisEmptyCodeList(t *testing.T) {
	parsed, err := parseAnalysis(`{"awb_numbers": [], "confidence": 0.0, "context": ""}`)

	require.NoError(t, err)
	assert.Empty(t, parsed.AWBNumbers)
}
