package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "DATA_PATH", "DATABASE_URL", "LOG_JSON", "LOG_DEBUG", "MATCH_DEFAULT_LIMIT", "MATCH_MAX_LIMIT"} {
		t.Setenv(k, "")
	}

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8000", c.Port)
	assert.Equal(t, "skillmatch.db", c.DataPath)
	assert.Equal(t, 20, c.DefaultLimit)
	assert.Equal(t, 100, c.MaxLimit)
	assert.False(t, c.LogJSON)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_JSON", "true")
	t.Setenv("MATCH_DEFAULT_LIMIT", "50")
	t.Setenv("MATCH_MAX_LIMIT", "30")

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", c.Port)
	assert.True(t, c.LogJSON)
	assert.Equal(t, 30, c.MaxLimit)
	assert.Equal(t, 30, c.DefaultLimit)
}

func TestLoad_InvalidValuesKeepDefaults(t *testing.T) {
	t.Setenv("MATCH_DEFAULT_LIMIT", "lots")
	t.Setenv("MATCH_MAX_LIMIT", "")
	t.Setenv("LOG_DEBUG", "maybe")

	c, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MATCH_DEFAULT_LIMIT")
	assert.Contains(t, err.Error(), "LOG_DEBUG")
	assert.Equal(t, 20, c.DefaultLimit)
	assert.False(t, c.LogDebug)
}
