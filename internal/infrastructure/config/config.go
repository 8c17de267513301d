package config

import (
	"fmt"
	"time"

	"github.com/kballard/go-shellquote"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all service configuration.
type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	Sandbox   SandboxConfig
	Capture   CaptureConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"3002"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// StoreConfig locates the files the node persists.
type StoreConfig struct {
	ConfigPath string `envconfig:"CONFIG_PATH" default:"config.json"`
	LedgerPath string `envconfig:"LEDGER_PATH" default:"sessions.txt"`
}

// SandboxConfig describes the containers handed out to callers.
type SandboxConfig struct {
	Runtime      string   `envconfig:"SANDBOX_RUNTIME" default:"docker"`
	Image        string   `envconfig:"SANDBOX_IMAGE" default:"hydrenix/tmate-sandbox:latest"`
	NamePrefix   string   `envconfig:"SANDBOX_NAME_PREFIX" default:"hydrenix-"`
	Privileged   bool     `envconfig:"SANDBOX_PRIVILEGED" default:"true"`
	Capabilities []string `envconfig:"SANDBOX_CAPABILITIES" default:"SYS_ADMIN,NET_ADMIN"`
	// AgentCommand is a shell-quoted command line, e.g. "tmate -F -n 'my node'".
	AgentCommand string   `envconfig:"SANDBOX_AGENT_COMMAND" default:"tmate -F"`
	Owner        string   `envconfig:"SANDBOX_OWNER" default:"hydrenix"`
}

// CaptureConfig tunes connection-string extraction and rollback.
type CaptureConfig struct {
	ConnectMarker   string        `envconfig:"CAPTURE_CONNECT_MARKER" default:"ssh "`
	ReadOnlyMarker  string        `envconfig:"CAPTURE_READONLY_MARKER" default:"ro-"`
	MaxAttempts     int           `envconfig:"CAPTURE_MAX_ATTEMPTS" default:"30"`
	Interval        time.Duration `envconfig:"CAPTURE_INTERVAL" default:"1s"`
	TeardownTimeout time.Duration `envconfig:"TEARDOWN_TIMEOUT" default:"30s"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"10"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"20"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Validate rejects settings the node cannot run with.
func (c *Config) Validate() error {
	if c.Capture.MaxAttempts <= 0 {
		return fmt.Errorf("CAPTURE_MAX_ATTEMPTS must be positive, got %d", c.Capture.MaxAttempts)
	}
	if c.Capture.Interval <= 0 {
		return fmt.Errorf("CAPTURE_INTERVAL must be positive, got %s", c.Capture.Interval)
	}
	if c.Capture.ConnectMarker == "" {
		return fmt.Errorf("CAPTURE_CONNECT_MARKER must not be empty")
	}
	if _, err := c.Sandbox.AgentArgs(); err != nil {
		return err
	}
	return nil
}

// AgentArgs splits AgentCommand into argv using shell quoting rules.
func (s SandboxConfig) AgentArgs() ([]string, error) {
	args, err := shellquote.Split(s.AgentCommand)
	if err != nil {
		return nil, fmt.Errorf("SANDBOX_AGENT_COMMAND: %w", err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("SANDBOX_AGENT_COMMAND must not be empty")
	}
	return args, nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "3002",
			Host: "0.0.0.0",
		},
		Store: StoreConfig{
			ConfigPath: "config.json",
			LedgerPath: "sessions.txt",
		},
		Sandbox: SandboxConfig{
			Runtime:      "docker",
			Image:        "hydrenix/tmate-sandbox:latest",
			NamePrefix:   "hydrenix-",
			Privileged:   true,
			Capabilities: []string{"SYS_ADMIN", "NET_ADMIN"},
			AgentCommand: "tmate -F",
			Owner:        "hydrenix",
		},
		Capture: CaptureConfig{
			ConnectMarker:   "ssh ",
			ReadOnlyMarker:  "ro-",
			MaxAttempts:     30,
			Interval:        time.Second,
			TeardownTimeout: 30 * time.Second,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 10,
			Burst:             20,
			Enabled:           true,
		},
	}
}
