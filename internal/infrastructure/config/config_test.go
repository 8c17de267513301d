package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "3002", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)

	assert.Equal(t, "config.json", cfg.Store.ConfigPath)
	assert.Equal(t, "sessions.txt", cfg.Store.LedgerPath)

	assert.Equal(t, "docker", cfg.Sandbox.Runtime)
	assert.True(t, cfg.Sandbox.Privileged)
	assert.Equal(t, "tmate -F", cfg.Sandbox.AgentCommand)

	assert.Equal(t, "ssh ", cfg.Capture.ConnectMarker)
	assert.Equal(t, "ro-", cfg.Capture.ReadOnlyMarker)
	assert.Equal(t, 30, cfg.Capture.MaxAttempts)
	assert.Equal(t, time.Second, cfg.Capture.Interval)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.RateLimit.Enabled)

	require.NoError(t, cfg.Validate())
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	envVars := map[string]string{
		"PORT":                    "9000",
		"HOST":                    "127.0.0.1",
		"CONFIG_PATH":             "/etc/hydrenix/config.json",
		"LEDGER_PATH":             "/var/lib/hydrenix/sessions.txt",
		"SANDBOX_IMAGE":           "ubuntu-tmate:22.04",
		"SANDBOX_PRIVILEGED":      "false",
		"SANDBOX_CAPABILITIES":    "SYS_PTRACE",
		"SANDBOX_AGENT_COMMAND":   "tmate -F -n 'edge node'",
		"CAPTURE_MAX_ATTEMPTS":    "5",
		"CAPTURE_INTERVAL":        "250ms",
		"CAPTURE_READONLY_MARKER": "read only",
		"LOG_LEVEL":               "debug",
		"LOG_DEV":                 "true",
		"RATE_LIMIT_ENABLED":      "false",
	}
	for key, value := range envVars {
		t.Setenv(key, value)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, "/etc/hydrenix/config.json", cfg.Store.ConfigPath)
	assert.Equal(t, "/var/lib/hydrenix/sessions.txt", cfg.Store.LedgerPath)
	assert.Equal(t, "ubuntu-tmate:22.04", cfg.Sandbox.Image)
	assert.False(t, cfg.Sandbox.Privileged)
	assert.Equal(t, []string{"SYS_PTRACE"}, cfg.Sandbox.Capabilities)
	args, err := cfg.Sandbox.AgentArgs()
	require.NoError(t, err)
	assert.Equal(t, []string{"tmate", "-F", "-n", "edge node"}, args)
	assert.Equal(t, 5, cfg.Capture.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.Capture.Interval)
	assert.Equal(t, "read only", cfg.Capture.ReadOnlyMarker)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)
	assert.False(t, cfg.RateLimit.Enabled)
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"zero attempts", "CAPTURE_MAX_ATTEMPTS", "0"},
		{"negative interval", "CAPTURE_INTERVAL", "-1s"},
		{"malformed attempts", "CAPTURE_MAX_ATTEMPTS", "many"},
		{"unterminated agent quote", "SANDBOX_AGENT_COMMAND", "tmate -n 'oops"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)

			cfg := LoadOrDefault()
			assert.Equal(t, Default(), cfg)
		})
	}
}

func TestAgentArgsRejectsBlank(t *testing.T) {
	_, err := SandboxConfig{AgentCommand: "   "}.AgentArgs()
	assert.Error(t, err)
}
