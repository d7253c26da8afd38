package patterns

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writePatternFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "awb_patterns.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadMissingFile(t *testing.T) {
	r := Load(filepath.Join(t.TempDir(), "nope.json"), zap.NewNop())

	require.NotNil(t, r)
	assert.Zero(t, r.Len())
	assert.Empty(t, r.Carriers())
}

func TestLoadMalformedFile(t *testing.T) {
	path := writePatternFile(t, `{"patterns": not json`)

	r := Load(path, zap.NewNop())

	require.NotNil(t, r)
	assert.Zero(t, r.Len())
}

func TestLoadCompilesEnabledRulesOnly(t *testing.T) {
	path := writePatternFile(t, `{
		"patterns": {
			"THY": {"prefix": ["235"], "length": 11, "min_confidence": 0.7, "enabled": true, "patterns": ["\\b235[-\\s]?\\d{8}\\b"]},
			"CUSTOM": {"prefix": ["REF"], "length": 9, "min_confidence": 0.9, "enabled": false, "patterns": ["\\bREF\\d{6}\\b"]}
		}
	}`)

	r := Load(path, zap.NewNop())

	assert.Equal(t, 2, r.Len())
	assert.Equal(t, []string{"THY"}, r.Carriers())
	assert.Len(t, r.CompiledPatterns("THY"), 1)
	assert.Empty(t, r.CompiledPatterns("CUSTOM"))
}

func TestLoadPatternsAreCaseInsensitive(t *testing.T) {
	path := writePatternFile(t, `{
		"patterns": {
			"DHL": {"prefix": "", "length": 10, "min_confidence": 0.7, "enabled": true, "patterns": ["dhl\\s*(\\d{10})"]}
		}
	}`)

	r := Load(path, zap.NewNop())

	res := r.CompiledPatterns("DHL")
	require.Len(t, res, 1)
	assert.True(t, res[0].MatchString("DHL 1234567890"))
	assert.True(t, res[0].MatchString("dhl 1234567890"))
}

func TestLoadSkipsInvalidPattern(t *testing.T) {
	path := writePatternFile(t, `{
		"patterns": {
			"THY": {"prefix": ["235"], "length": 11, "min_confidence": 0.7, "enabled": true, "patterns": ["([unclosed", "\\b235\\d{8}\\b"]}
		}
	}`)

	r := Load(path, zap.NewNop())

	assert.Len(t, r.CompiledPatterns("THY"), 1)
}

func TestLoadSkipsRuleWithInvalidLength(t *testing.T) {
	path := writePatternFile(t, `{
		"patterns": {
			"BAD": {"prefix": "", "length": 0, "min_confidence": 0.7, "enabled": true, "patterns": ["\\d+"]}
		}
	}`)

	r := Load(path, zap.NewNop())

	assert.Zero(t, r.Len())
}

func TestPrefixAcceptsStringAndListForms(t *testing.T) {
	path := writePatternFile(t, `{
		"patterns": {
			"ONE": {"prefix": "020", "length": 11, "min_confidence": 0.7, "enabled": true, "patterns": ["\\d{11}"]},
			"MANY": {"prefix": ["235", "176"], "length": 11, "min_confidence": 0.7, "enabled": true, "patterns": ["\\d{11}"]},
			"NONE": {"prefix": "", "length": 10, "min_confidence": 0.7, "enabled": true, "patterns": ["\\d{10}"]}
		}
	}`)

	r := Load(path, zap.NewNop())

	one, ok := r.Rule("ONE")
	require.True(t, ok)
	assert.Equal(t, Prefixes{"020"}, one.Prefix)

	many, ok := r.Rule("MANY")
	require.True(t, ok)
	assert.Equal(t, Prefixes{"235", "176"}, many.Prefix)

	none, ok := r.Rule("NONE")
	require.True(t, ok)
	assert.Empty(t, none.Prefix)
}

func TestMinConfidenceDefaultsWhenOmitted(t *testing.T) {
	path := writePatternFile(t, `{
		"patterns": {
			"THY": {"prefix": ["235"], "length": 11, "enabled": true, "patterns": ["\\d{11}"]}
		}
	}`)

	r := Load(path, zap.NewNop())

	rule, ok := r.Rule("THY")
	require.True(t, ok)
	assert.InDelta(t, 0.7, rule.MinConfidence, 1e-9)
}

func TestCarriersAreSorted(t *testing.T) {
	path := writePatternFile(t, `{
		"patterns": {
			"ZZ": {"prefix": "", "length": 11, "min_confidence": 0.7, "enabled": true, "patterns": ["\\d{11}"]},
			"AA": {"prefix": "", "length": 11, "min_confidence": 0.7, "enabled": true, "patterns": ["\\d{11}"]}
		}
	}`)

	r := Load(path, zap.NewNop())

	assert.Equal(t, []string{"AA", "ZZ"}, r.Carriers())
}
