package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8111", cfg.Port)
	assert.Equal(t, "gemini-2.0-flash", cfg.GeminiModel)
	assert.Equal(t, int32(4096), cfg.MaxOutputTokens)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("USE_MEMORY_STORE", "true")
	t.Setenv("GEMINI_TEMPERATURE", "0.3")

	cfg := Load()
	assert.Equal(t, "9000", cfg.Port)
	assert.True(t, cfg.UseMemoryStore)
	assert.InDelta(t, 0.3, cfg.Temperature, 0.0001)
}

func TestValidate(t *testing.T) {
	cfg := &Config{UseMemoryStore: true}
	require.NoError(t, cfg.Validate())

	cfg = &Config{}
	assert.Error(t, cfg.Validate())

	cfg = &Config{GoogleCloudProject: "proj"}
	assert.Error(t, cfg.Validate())

	cfg = &Config{GoogleCloudProject: "proj", UploadsBucket: "uploads"}
	require.NoError(t, cfg.Validate())
}
