package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "taskman.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
interval: 5s
grace_period: 1s
ps_path: /bin/ps
log_level: debug
log_format: json
concurrency: 8
`)

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.Interval)
	assert.Equal(t, time.Second, cfg.GracePeriod)
	assert.Equal(t, "/bin/ps", cfg.PSPath)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 8, cfg.Concurrency)
	assert.Equal(t, Default().MetricsAddr, cfg.MetricsAddr)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	assert.Error(t, err)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "interval: 5s\nlog_level: warn\n")
	t.Setenv("TASKMAN_INTERVAL", "7s")
	t.Setenv("TASKMAN_GRACE_PERIOD", "2s")

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 7*time.Second, cfg.Interval)
	assert.Equal(t, 2*time.Second, cfg.GracePeriod)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoadFlagsOverrideEverything(t *testing.T) {
	path := writeConfig(t, "interval: 5s\nconcurrency: 2\n")
	t.Setenv("TASKMAN_INTERVAL", "7s")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Duration("interval", time.Second, "")
	flags.Int("concurrency", 1, "")
	flags.String("unrelated", "", "")
	require.NoError(t, flags.Parse([]string{"--interval=9s"}))

	cfg, err := Load(path, flags)
	require.NoError(t, err)
	assert.Equal(t, 9*time.Second, cfg.Interval)
	// Unset flag does not shadow the file value.
	assert.Equal(t, 2, cfg.Concurrency)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"zero interval", func(c *Config) { c.Interval = 0 }, "interval must be positive"},
		{"negative grace", func(c *Config) { c.GracePeriod = -time.Millisecond }, "grace_period must be positive"},
		{"zero grace", func(c *Config) { c.GracePeriod = 0 }, "grace_period must be positive"},
		{"huge grace", func(c *Config) { c.GracePeriod = time.Minute }, "must be below"},
		{"empty ps path", func(c *Config) { c.PSPath = " " }, "ps_path"},
		{"zero concurrency", func(c *Config) { c.Concurrency = 0 }, "concurrency"},
		{"bad level", func(c *Config) { c.LogLevel = "verbose" }, "log_level"},
		{"bad format", func(c *Config) { c.LogFormat = "xml" }, "log_format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateReportsAllProblems(t *testing.T) {
	cfg := Default()
	cfg.Interval = 0
	cfg.LogFormat = "xml"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "interval")
	assert.Contains(t, err.Error(), "log_format")
}
