package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App       AppConfig                 `json:"app" yaml:"app"`
	Gateways  map[string]GatewayConfig  `json:"gateways" yaml:"gateways"`
	Providers map[string]ProviderConfig `json:"providers" yaml:"providers"`
	Memory    MemoryConfig              `json:"memory" yaml:"memory"`
	Workflow  WorkflowConfig            `json:"workflow" yaml:"workflow"`
	Tools     ToolsConfig               `json:"tools" yaml:"tools"`
	Logging   LoggingConfig             `json:"logging" yaml:"logging"`
}

type AppConfig struct {
	Name       string `json:"name" yaml:"name"`
	PromptsDir string `json:"prompts_dir" yaml:"prompts_dir"`
}

type GatewayConfig struct {
	Token   string `json:"token" yaml:"token"`
	Addr    string `json:"addr,omitempty" yaml:"addr,omitempty"`
	Enabled bool   `json:"enabled" yaml:"enabled"`
}

type ProviderConfig struct {
	APIKey  string `json:"api_key" yaml:"api_key"`
	Model   string `json:"model" yaml:"model"`
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Enabled bool   `json:"enabled" yaml:"enabled"`
}

type MemoryConfig struct {
	Type string `json:"type" yaml:"type"`
	Path string `json:"path" yaml:"path"`
}

// WorkflowConfig bounds a single run.
type WorkflowConfig struct {
	MaxIterations int    `json:"max_iterations" yaml:"max_iterations"`
	MaxTasks      int    `json:"max_tasks" yaml:"max_tasks"`
	PlanAttempts  int    `json:"plan_attempts" yaml:"plan_attempts"`
	RetryDelay    string `json:"retry_delay" yaml:"retry_delay"`
}

// Delay parses RetryDelay, falling back to one second.
func (w WorkflowConfig) Delay() time.Duration {
	d, err := time.ParseDuration(w.RetryDelay)
	if err != nil || d < 0 {
		return time.Second
	}
	return d
}

type ToolsConfig struct {
	// Mode is "mock" (every task gets the mock tool) or "live".
	Mode           string   `json:"mode" yaml:"mode"`
	RenderJS       bool     `json:"render_js" yaml:"render_js"`
	DeniedTools    []string `json:"denied_tools" yaml:"denied_tools"`
	DeniedPatterns []string `json:"denied_patterns" yaml:"denied_patterns"`
}

type LoggingConfig struct {
	LLMLogPath string `json:"llm_log_path" yaml:"llm_log_path"`
}

const (
	groqBaseURL  = "https://api.groq.com/openai/v1"
	defaultModel = "llama3-8b-8192"
)

func Default() *Config {
	return &Config{
		App: AppConfig{
			Name:       "taskflow",
			PromptsDir: "./prompts",
		},
		Gateways:  map[string]GatewayConfig{},
		Providers: map[string]ProviderConfig{},
		Memory: MemoryConfig{
			Type: "sqlite",
			Path: "taskflow.db",
		},
		Workflow: WorkflowConfig{
			MaxIterations: 10,
			MaxTasks:      5,
			PlanAttempts:  3,
			RetryDelay:    "1s",
		},
		Tools: ToolsConfig{
			Mode:           "mock",
			DeniedPatterns: []string{`rm\s+-rf`, `mkfs`, `shutdown`, `reboot`},
		},
		Logging: LoggingConfig{
			LLMLogPath: filepath.Join("logs", "llm.jsonl"),
		},
	}
}

// Load reads a JSON or YAML config file on top of Default. A missing file is
// not an error. Variables from .env and the environment are applied last.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to open config file: %w", err)
		default:
			if err := decode(path, data, cfg); err != nil {
				return nil, fmt.Errorf("failed to decode config file: %w", err)
			}
		}
	}

	// .env is optional
	_ = godotenv.Load()
	cfg.applyEnv()
	cfg.fillDefaults()
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, cfg)
	default:
		return json.Unmarshal(data, cfg)
	}
}

func (c *Config) applyEnv() {
	if c.Providers == nil {
		c.Providers = map[string]ProviderConfig{}
	}
	if c.Gateways == nil {
		c.Gateways = map[string]GatewayConfig{}
	}

	envProvider := func(name, key, model, baseURL string) {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			return
		}
		p := c.Providers[name]
		p.APIKey = v
		p.Enabled = true
		if p.Model == "" {
			p.Model = model
		}
		if p.BaseURL == "" {
			p.BaseURL = baseURL
		}
		c.Providers[name] = p
	}
	envProvider("groq", "GROQ_API_KEY", defaultModel, groqBaseURL)
	envProvider("openai", "OPENAI_API_KEY", "gpt-4o-mini", "")
	envProvider("gemini", "GOOGLE_API_KEY", "gemini-1.5-flash", "")

	envGateway := func(name, key string) {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			return
		}
		g := c.Gateways[name]
		g.Token = v
		g.Enabled = true
		c.Gateways[name] = g
	}
	envGateway("telegram", "TELEGRAM_TOKEN")
	envGateway("discord", "DISCORD_TOKEN")
}

func (c *Config) fillDefaults() {
	def := Default()
	if c.Workflow.MaxIterations <= 0 {
		c.Workflow.MaxIterations = def.Workflow.MaxIterations
	}
	if c.Workflow.MaxTasks <= 0 {
		c.Workflow.MaxTasks = def.Workflow.MaxTasks
	}
	if c.Workflow.PlanAttempts <= 0 {
		c.Workflow.PlanAttempts = def.Workflow.PlanAttempts
	}
	if c.Tools.Mode == "" {
		c.Tools.Mode = def.Tools.Mode
	}
	if c.Memory.Path == "" {
		c.Memory.Path = def.Memory.Path
	}
}

// GetDefaultProvider returns the first enabled provider in name order.
func (c *Config) GetDefaultProvider() (string, ProviderConfig) {
	names := make([]string, 0, len(c.Providers))
	for name := range c.Providers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if p := c.Providers[name]; p.Enabled {
			return name, p
		}
	}
	return "", ProviderConfig{}
}

// GetGatewayConfig returns a gateway config if it is enabled.
func (c *Config) GetGatewayConfig(name string) (GatewayConfig, bool) {
	g, ok := c.Gateways[name]
	if ok && g.Enabled {
		return g, true
	}
	return GatewayConfig{}, false
}
