package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, 8090, config.Server.Port)
	assert.Equal(t, 10, config.Retrieval.MaxDocuments)
	assert.Equal(t, 0.40, config.Retrieval.MinSimilarity)
	assert.Equal(t, 20, config.Rerank.TopK)
	assert.Equal(t, 0.30, config.Rerank.MinSimilarity)
	assert.Equal(t, 10, config.WebSearch.MaxResults)
	assert.Equal(t, 1990*time.Millisecond, config.WebSearch.FetchTimeout)
	assert.Equal(t, 200, config.WebSearch.MinLength)
	assert.Equal(t, 10, config.History.MaxTurns)
}

func TestLoadConfigFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "respondeo.toml")
	content := `
[server]
port = 9999

[retrieval]
max_documents = 4
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9999, config.Server.Port)
	assert.Equal(t, 4, config.Retrieval.MaxDocuments)
	// untouched sections keep their defaults
	assert.Equal(t, 20, config.Rerank.TopK)
}

func TestLoadConfigLaterFileWins(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.toml")
	second := filepath.Join(dir, "second.toml")
	require.NoError(t, os.WriteFile(first, []byte("[server]\nport = 1000\n"), 0o644))
	require.NoError(t, os.WriteFile(second, []byte("[server]\nport = 2000\n"), 0o644))

	config, err := LoadConfig(first, second)
	require.NoError(t, err)
	assert.Equal(t, 2000, config.Server.Port)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "env-key")

	config, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "env-key", config.Gemini.APIKey)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("[logging]\nlevel = \"loud\"\n"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}
