package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Interval    time.Duration `mapstructure:"interval"`
	GracePeriod time.Duration `mapstructure:"grace_period"`
	PSPath      string        `mapstructure:"ps_path"`
	LogLevel    string        `mapstructure:"log_level"`
	LogFormat   string        `mapstructure:"log_format"`
	LogFile     string        `mapstructure:"log_file"`
	MetricsAddr string        `mapstructure:"metrics_addr"`
	Concurrency int           `mapstructure:"concurrency"`
}

func Default() *Config {
	return &Config{
		Interval:    3 * time.Second,
		GracePeriod: 300 * time.Millisecond,
		PSPath:      "ps",
		LogLevel:    "info",
		LogFormat:   "console",
		MetricsAddr: "127.0.0.1:9273",
		Concurrency: 4,
	}
}

// flagKeys maps command-line flag names to config keys. Flags that are not
// defined on the command being run are skipped.
var flagKeys = map[string]string{
	"interval":    "interval",
	"grace":       "grace_period",
	"ps-path":     "ps_path",
	"log-level":   "log_level",
	"log-format":  "log_format",
	"log-file":    "log_file",
	"addr":        "metrics_addr",
	"concurrency": "concurrency",
}

// Load resolves the configuration from defaults, the config file, TASKMAN_*
// environment variables and flags, in increasing order of precedence. An
// explicit cfgFile must exist; the default locations are optional.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	def := Default()
	v.SetDefault("interval", def.Interval)
	v.SetDefault("grace_period", def.GracePeriod)
	v.SetDefault("ps_path", def.PSPath)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("log_format", def.LogFormat)
	v.SetDefault("log_file", def.LogFile)
	v.SetDefault("metrics_addr", def.MetricsAddr)
	v.SetDefault("concurrency", def.Concurrency)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("taskman")
		v.SetConfigType("yaml")
		if dir := configDir(); dir != "" {
			v.AddConfigPath(dir)
		}
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("TASKMAN")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, err
				}
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func configDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "taskman")
}
