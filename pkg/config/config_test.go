package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"GROQ_API_KEY", "OPENAI_API_KEY", "GOOGLE_API_KEY", "TELEGRAM_TOKEN", "DISCORD_TOKEN"} {
		t.Setenv(k, "")
	}
	// keep a stray .env in the package dir from leaking in
	wd, _ := os.Getwd()
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { os.Chdir(wd) })
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Workflow.MaxIterations)
	assert.Equal(t, 5, cfg.Workflow.MaxTasks)
	assert.Equal(t, 3, cfg.Workflow.PlanAttempts)
	assert.Equal(t, time.Second, cfg.Workflow.Delay())
	assert.Equal(t, "mock", cfg.Tools.Mode)

	name, _ := cfg.GetDefaultProvider()
	assert.Empty(t, name)
}

func TestLoad_JSON(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"providers": {"openai": {"api_key": "k", "model": "gpt-4o-mini", "enabled": true}},
		"gateways": {"telegram": {"token": "t", "enabled": true}},
		"workflow": {"max_tasks": 7, "retry_delay": "250ms"},
		"tools": {"mode": "live", "denied_tools": ["browser"]}
	}`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	name, p := cfg.GetDefaultProvider()
	assert.Equal(t, "openai", name)
	assert.Equal(t, "k", p.APIKey)
	assert.Equal(t, 7, cfg.Workflow.MaxTasks)
	assert.Equal(t, 10, cfg.Workflow.MaxIterations)
	assert.Equal(t, 250*time.Millisecond, cfg.Workflow.Delay())
	assert.Equal(t, "live", cfg.Tools.Mode)
	assert.Equal(t, []string{"browser"}, cfg.Tools.DeniedTools)

	tg, ok := cfg.GetGatewayConfig("telegram")
	assert.True(t, ok)
	assert.Equal(t, "t", tg.Token)
	_, ok = cfg.GetGatewayConfig("discord")
	assert.False(t, ok)
}

func TestLoad_YAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
app:
  name: planner-bot
memory:
  path: /tmp/bot.db
workflow:
  max_iterations: 4
gateways:
  http:
    addr: ":9090"
    enabled: true
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "planner-bot", cfg.App.Name)
	assert.Equal(t, "/tmp/bot.db", cfg.Memory.Path)
	assert.Equal(t, 4, cfg.Workflow.MaxIterations)
	h, ok := cfg.GetGatewayConfig("http")
	require.True(t, ok)
	assert.Equal(t, ":9090", h.Addr)
}

func TestLoad_BadFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_EnvEnablesGroq(t *testing.T) {
	clearEnv(t)
	t.Setenv("GROQ_API_KEY", "gsk_test")
	t.Setenv("TELEGRAM_TOKEN", "123:abc")

	cfg, err := Load("")
	require.NoError(t, err)

	name, p := cfg.GetDefaultProvider()
	assert.Equal(t, "groq", name)
	assert.Equal(t, "gsk_test", p.APIKey)
	assert.Equal(t, "llama3-8b-8192", p.Model)
	assert.Equal(t, "https://api.groq.com/openai/v1", p.BaseURL)

	_, ok := cfg.GetGatewayConfig("telegram")
	assert.True(t, ok)
}

func TestGetDefaultProvider_IsDeterministic(t *testing.T) {
	cfg := Default()
	cfg.Providers = map[string]ProviderConfig{
		"zeta":  {Enabled: true},
		"alpha": {Enabled: true},
		"beta":  {Enabled: false},
	}
	for i := 0; i < 5; i++ {
		name, _ := cfg.GetDefaultProvider()
		assert.Equal(t, "alpha", name)
	}
}
