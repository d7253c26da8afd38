package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := NewFromViper(NewEmptyViper())

	scan := cfg.GetScan()
	assert.Equal(t, 10, scan.BatchSize)
	assert.Equal(t, 4, scan.Workers)

	cache := cfg.GetCache()
	assert.Equal(t, "file", cache.Type)
	assert.Equal(t, 1000, cache.MaxMessages)
	assert.Equal(t, 100, cache.MaxSizeMB)
	assert.InDelta(t, 0.9, cache.CleanupThreshold, 1e-9)
	assert.Equal(t, "168h", cache.Retention)

	assert.Equal(t, "", cfg.GetAnalyzer().Provider)

	grok := cfg.GetGrok()
	assert.Equal(t, "https://api.x.ai/v1", grok.BaseURL)
	assert.Equal(t, "grok-2-latest", grok.ModelName)
}

func TestOverridesTakePrecedence(t *testing.T) {
	v := NewEmptyViper()
	v.Set("scan.workers", 8)
	v.Set("cache.type", "sqlite")
	cfg := NewFromViper(v)

	assert.Equal(t, 8, cfg.GetScan().Workers)
	assert.Equal(t, "sqlite", cfg.GetCache().Type)
}

func TestGetDurationParsesRetention(t *testing.T) {
	cfg := NewFromViper(NewEmptyViper())

	d, err := cfg.GetDuration("cache.retention")

	require.NoError(t, err)
	assert.Equal(t, 168*time.Hour, d)
}

func TestGetDurationRejectsGarbage(t *testing.T) {
	v := NewEmptyViper()
	v.Set("cache.retention", "soon")
	cfg := NewFromViper(v)

	_, err := cfg.GetDuration("cache.retention")

	assert.Error(t, err)
}
