package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "demo", cfg.APIKey)
	assert.Equal(t, "https://eodhd.com/api", cfg.APIBase)
	assert.Equal(t, "wss://ws.eodhistoricaldata.com/ws", cfg.WSBase)
	assert.Equal(t, 8000, cfg.HTTPPort)
	assert.Equal(t, "/v2/mcp", cfg.ResourcePath)
	assert.Equal(t, time.Hour, cfg.AccessTokenTTL)
	assert.Equal(t, 10*time.Minute, cfg.AuthCodeTTL)
	assert.Equal(t, "full-access", cfg.DefaultScope)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("EODHD_API_KEY", "real-key")
	t.Setenv("HTTP_PORT", "9001")
	t.Setenv("JWT_SECRET", "sekrit")
	t.Setenv("ACCESS_TOKEN_EXPIRES", "120")
	t.Setenv("MCP_SERVER_URL", "https://mcp.example.com")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "real-key", cfg.APIKey)
	assert.Equal(t, 9001, cfg.HTTPPort)
	assert.Equal(t, "sekrit", cfg.JWTSecret)
	assert.Equal(t, 2*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, "https://mcp.example.com", cfg.ServerURL)
}

func TestInvalidPortIgnored(t *testing.T) {
	t.Setenv("HTTP_PORT", "not-a-port")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8000, cfg.HTTPPort)
}

func TestEnvFileLoaded(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("EODHD_API_KEY=from-file\nDEFAULT_SCOPE=read:eod\n"), 0600))

	cfg, err := Load(envFile)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.APIKey)
	assert.Equal(t, "read:eod", cfg.DefaultScope)
}

func TestInvalidResourcePathRejected(t *testing.T) {
	t.Setenv("MCP_OAUTH_RESOURCE_PATH", "no-leading-slash")

	_, err := Load("")
	assert.Error(t, err)
}

func TestMissingEnvFileErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	assert.Error(t, err)
}
