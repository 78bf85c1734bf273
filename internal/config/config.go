// Package config loads deskctl settings. Sources are layered: built-in
// defaults, then a YAML file, then a .env file, then the environment.
// Command-line flags are applied on top by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mj1618/deskctl/internal/detect"
	"github.com/mj1618/deskctl/internal/model"
	"github.com/mj1618/deskctl/internal/reasoning"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// MCP transports.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Formats accepted for command output.
var Formats = []string{"text", "yaml", "json"}

// Config holds every setting.
type Config struct {
	Format    string          `yaml:"format"`
	Backend   string          `yaml:"backend"`
	Fixture   string          `yaml:"fixture"`
	LogLevel  string          `yaml:"log_level"`
	Detect    detect.Config   `yaml:"detect"`
	Roles     []string        `yaml:"roles"`
	Reasoning ReasoningConfig `yaml:"reasoning"`
	Daemon    DaemonConfig    `yaml:"daemon"`
	MCP       MCPConfig       `yaml:"mcp"`
}

// ReasoningConfig configures the language model client.
type ReasoningConfig struct {
	APIKey      string        `yaml:"api_key"`
	BaseURL     string        `yaml:"base_url"`
	TextModel   string        `yaml:"text_model"`
	VisionModel string        `yaml:"vision_model"`
	MaxTokens   int           `yaml:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout"`
}

// DaemonConfig configures session daemons and the client side.
type DaemonConfig struct {
	RequestTimeout   time.Duration `yaml:"request_timeout"`
	ReadyTimeout     time.Duration `yaml:"ready_timeout"`
	TransientRetries int           `yaml:"transient_retries"`
	RetryBackoff     time.Duration `yaml:"retry_backoff"`
	Settle           time.Duration `yaml:"settle"`
	// RuntimeDir holds discovery records and daemon logs.
	RuntimeDir    string `yaml:"runtime_dir"`
	ScreenshotDir string `yaml:"screenshot_dir"`
}

// MCPConfig configures the MCP front-end.
type MCPConfig struct {
	Transport string `yaml:"transport"`
	Addr      string `yaml:"addr"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Format:   "text",
		Backend:  "native",
		LogLevel: "warn",
		Detect:   detect.DefaultConfig(),
		Reasoning: ReasoningConfig{
			TextModel:   reasoning.DefaultTextModel,
			VisionModel: reasoning.DefaultVisionModel,
			MaxTokens:   reasoning.DefaultMaxTokens,
			Timeout:     reasoning.DefaultTimeout,
		},
		Daemon: DaemonConfig{
			RequestTimeout:   30 * time.Second,
			ReadyTimeout:     10 * time.Second,
			TransientRetries: 0,
			RetryBackoff:     250 * time.Millisecond,
			Settle:           300 * time.Millisecond,
		},
		MCP: MCPConfig{
			Transport: TransportStdio,
			Addr:      "127.0.0.1:8765",
		},
	}
}

// DefaultPath is the config file used when none is given.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "deskctl", "config.yaml")
}

// Load builds a Config from defaults, the YAML file at path, a .env file in
// the working directory and the environment. An empty path means
// DefaultPath, which may be absent; an explicit path must exist.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if path != "" {
		if err := cfg.mergeFile(path, explicit); err != nil {
			return cfg, err
		}
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logrus.WithError(err).Warn("ignoring unreadable .env file")
	}
	if err := cfg.ApplyEnv(); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) mergeFile(path string, required bool) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) && !required {
		return nil
	}
	if err != nil {
		return model.NewError(model.KindConfiguration, "config", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return model.NewError(model.KindConfiguration, "config", fmt.Errorf("%s: %w", path, err))
	}
	return nil
}

// ApplyEnv overrides settings from DESKCTL_* and ANTHROPIC_* variables.
func (c *Config) ApplyEnv() error {
	c.Format = getEnv("DESKCTL_FORMAT", c.Format)
	c.Backend = getEnv("DESKCTL_BACKEND", c.Backend)
	c.Fixture = getEnv("DESKCTL_FIXTURE", c.Fixture)
	c.LogLevel = getEnv("DESKCTL_LOG_LEVEL", c.LogLevel)
	c.Detect.Structural = getEnvAsBool("DESKCTL_STRUCTURAL", c.Detect.Structural)
	c.Detect.Visual = getEnvAsBool("DESKCTL_VISUAL", c.Detect.Visual)
	if roles := os.Getenv("DESKCTL_ROLES"); roles != "" {
		c.Roles = splitList(roles)
	}

	c.Reasoning.APIKey = getEnv("ANTHROPIC_API_KEY", c.Reasoning.APIKey)
	c.Reasoning.BaseURL = getEnv("ANTHROPIC_BASE_URL", c.Reasoning.BaseURL)
	c.Reasoning.TextModel = getEnv("DESKCTL_TEXT_MODEL", c.Reasoning.TextModel)
	c.Reasoning.VisionModel = getEnv("DESKCTL_VISION_MODEL", c.Reasoning.VisionModel)
	c.Daemon.RuntimeDir = getEnv("DESKCTL_RUNTIME_DIR", c.Daemon.RuntimeDir)
	c.Daemon.ScreenshotDir = getEnv("DESKCTL_SCREENSHOT_DIR", c.Daemon.ScreenshotDir)
	c.MCP.Transport = getEnv("DESKCTL_MCP_TRANSPORT", c.MCP.Transport)
	c.MCP.Addr = getEnv("DESKCTL_MCP_ADDR", c.MCP.Addr)

	var err error
	if c.Detect.Threshold, err = getEnvAsFloat("DESKCTL_IOU_THRESHOLD", c.Detect.Threshold); err != nil {
		return err
	}
	if c.Detect.MinConfidence, err = getEnvAsFloat("DESKCTL_MIN_CONFIDENCE", c.Detect.MinConfidence); err != nil {
		return err
	}
	if c.Detect.MaxElements, err = getEnvAsInt("DESKCTL_MAX_ELEMENTS", c.Detect.MaxElements); err != nil {
		return err
	}
	if c.Reasoning.MaxTokens, err = getEnvAsInt("DESKCTL_MAX_TOKENS", c.Reasoning.MaxTokens); err != nil {
		return err
	}
	if c.Reasoning.Timeout, err = getEnvAsDuration("DESKCTL_REASONING_TIMEOUT", c.Reasoning.Timeout); err != nil {
		return err
	}
	if c.Daemon.RequestTimeout, err = getEnvAsDuration("DESKCTL_REQUEST_TIMEOUT", c.Daemon.RequestTimeout); err != nil {
		return err
	}
	if c.Daemon.ReadyTimeout, err = getEnvAsDuration("DESKCTL_READY_TIMEOUT", c.Daemon.ReadyTimeout); err != nil {
		return err
	}
	if c.Daemon.TransientRetries, err = getEnvAsInt("DESKCTL_TRANSIENT_RETRIES", c.Daemon.TransientRetries); err != nil {
		return err
	}
	if c.Daemon.RetryBackoff, err = getEnvAsDuration("DESKCTL_RETRY_BACKOFF", c.Daemon.RetryBackoff); err != nil {
		return err
	}
	if c.Daemon.Settle, err = getEnvAsDuration("DESKCTL_SETTLE", c.Daemon.Settle); err != nil {
		return err
	}
	return nil
}

// Validate rejects unusable settings with a configuration error.
func (c Config) Validate() error {
	if !contains(Formats, c.Format) {
		return model.Errorf(model.KindConfiguration, "config", "invalid format %q (expected %s)", c.Format, strings.Join(Formats, ", "))
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return model.NewError(model.KindConfiguration, "config", err)
	}
	if err := c.Detect.Validate(); err != nil {
		return err
	}
	if c.Reasoning.MaxTokens <= 0 {
		return model.Errorf(model.KindConfiguration, "config", "max tokens must be positive, got %d", c.Reasoning.MaxTokens)
	}
	if c.Daemon.RequestTimeout <= 0 || c.Daemon.ReadyTimeout <= 0 {
		return model.Errorf(model.KindConfiguration, "config", "daemon timeouts must be positive")
	}
	if c.Daemon.TransientRetries < 0 {
		return model.Errorf(model.KindConfiguration, "config", "transient retries must not be negative, got %d", c.Daemon.TransientRetries)
	}
	if c.Daemon.Settle < 0 || c.Daemon.RetryBackoff < 0 {
		return model.Errorf(model.KindConfiguration, "config", "settle and retry backoff must not be negative")
	}
	if c.MCP.Transport != TransportStdio && c.MCP.Transport != TransportHTTP {
		return model.Errorf(model.KindConfiguration, "config", "invalid MCP transport %q (must be %q or %q)", c.MCP.Transport, TransportStdio, TransportHTTP)
	}
	return nil
}

// ReasoningFor returns the client settings for the text or vision model.
func (c Config) ReasoningFor(vision bool) reasoning.Config {
	m := c.Reasoning.TextModel
	if vision {
		m = c.Reasoning.VisionModel
	}
	return reasoning.Config{
		APIKey:    c.Reasoning.APIKey,
		BaseURL:   c.Reasoning.BaseURL,
		Model:     m,
		MaxTokens: int64(c.Reasoning.MaxTokens),
		Timeout:   c.Reasoning.Timeout,
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

func getEnvAsInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, model.Errorf(model.KindConfiguration, "config", "invalid value for %s: %q (expected integer)", key, value)
	}
	return n, nil
}

func getEnvAsFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, model.Errorf(model.KindConfiguration, "config", "invalid value for %s: %q (expected number)", key, value)
	}
	return f, nil
}

func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, model.Errorf(model.KindConfiguration, "config", "invalid value for %s: %q (expected duration, e.g., '30s', '5m')", key, value)
	}
	return d, nil
}
