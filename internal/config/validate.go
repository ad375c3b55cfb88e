package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// maxGracePeriod keeps a mistyped grace period from stalling a kill for minutes.
const maxGracePeriod = 10 * time.Second

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validLogFormats = map[string]bool{
	"console": true,
	"json":    true,
}

// Validate returns every problem found in the config joined into one error.
func (c *Config) Validate() error {
	var errs []error

	if c.Interval <= 0 {
		errs = append(errs, fmt.Errorf("interval must be positive, got %s", c.Interval))
	}
	if c.GracePeriod <= 0 {
		errs = append(errs, fmt.Errorf("grace_period must be positive, got %s", c.GracePeriod))
	} else if c.GracePeriod >= maxGracePeriod {
		errs = append(errs, fmt.Errorf("grace_period %s must be below %s", c.GracePeriod, maxGracePeriod))
	}
	if strings.TrimSpace(c.PSPath) == "" {
		errs = append(errs, errors.New("ps_path must not be empty"))
	}
	if c.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Errorf("unknown log_level %q", c.LogLevel))
	}
	if !validLogFormats[strings.ToLower(c.LogFormat)] {
		errs = append(errs, fmt.Errorf("unknown log_format %q", c.LogFormat))
	}

	return errors.Join(errs...)
}
