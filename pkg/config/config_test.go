package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTP.Address)
	assert.Equal(t, 20*time.Second, cfg.Engine.NodeTimeout)
	assert.Equal(t, "any", cfg.Engine.SuccessPolicy)
	assert.Equal(t, "session_token", cfg.Session.CookieName)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 10, cfg.Database.MaxConns)
}

func TestLoad_FileAndEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "automation.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http:
  address: ":9090"
engine:
  node_timeout: 5s
  success_policy: all
mail:
  from: file@example.com
log:
  format: json
`), 0o600))

	t.Setenv("MAIL_FROM", "env@example.com")
	t.Setenv("NODE_TIMEOUT", "750ms")
	t.Setenv("DATABASE_URL", "postgres://localhost/automation")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.HTTP.Address)
	assert.Equal(t, "all", cfg.Engine.SuccessPolicy)
	assert.Equal(t, 750*time.Millisecond, cfg.Engine.NodeTimeout)
	assert.Equal(t, "env@example.com", cfg.Mail.From)
	assert.Equal(t, "postgres://localhost/automation", cfg.Database.URL)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.HTTP.AllowedOrigins)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))

	assert.Error(t, err)
}

func TestLoad_InvalidPolicy(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SUCCESS_POLICY", "most")

	_, err := Load("")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "success_policy")
}

func TestValidate(t *testing.T) {
	cfg := Config{Engine: EngineConfig{NodeTimeout: -time.Second}, Log: LogConfig{Format: "xml"}}

	err := cfg.Validate()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "node_timeout")
	assert.Contains(t, err.Error(), "log.format")
}
