package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// FromEnv overlays SCRU64_* environment variables onto cfg. Every malformed
// value is reported in the returned error; valid ones are applied regardless.
func FromEnv(cfg *Config) error {
	return FromLookup(cfg, os.Getenv)
}

// FromLookup is FromEnv with an injectable lookup function
func FromLookup(cfg *Config, getenv func(string) string) error {
	var errs []error
	invalid := func(key, v string, err error) {
		errs = append(errs, fmt.Errorf("%s=%q: %w", key, v, err))
	}

	duration := func(key string, dst *time.Duration) {
		if v := getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				invalid(key, v, err)
				return
			}
			*dst = d
		}
	}
	integer := func(key string, dst *int) {
		if v := getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				invalid(key, v, err)
				return
			}
			*dst = n
		}
	}
	boolean := func(key string, dst *bool) {
		if v := getenv(key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				invalid(key, v, err)
				return
			}
			*dst = b
		}
	}

	duration("SCRU64_MAX_FUTURE_SKEW", &cfg.MaxFutureSkew)
	duration("SCRU64_MAX_PAST_SKEW", &cfg.MaxPastSkew)
	duration("SCRU64_STATS_INTERVAL", &cfg.StatsInterval)
	integer("SCRU64_VIOLATION_RETENTION_LIMIT", &cfg.ViolationRetentionLimit)
	integer("SCRU64_CLOCK_SAMPLE_EVERY", &cfg.ClockSampleEvery)
	integer("SCRU64_MAX_LINE_LEN", &cfg.MaxLineLen)
	boolean("SCRU64_HALT_ON_VIOLATION", &cfg.HaltOnViolation)
	boolean("SCRU64_FAIL_ON_EMPTY", &cfg.FailOnEmpty)

	if v := getenv("SCRU64_HALT_ON"); v != "" {
		cfg.HaltOn = nil
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				cfg.HaltOn = append(cfg.HaltOn, p)
			}
		}
	}
	if v := getenv("SCRU64_VIOLATION_THRESHOLD"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			invalid("SCRU64_VIOLATION_THRESHOLD", v, err)
		} else {
			cfg.ViolationThreshold = n
		}
	}
	if v := getenv("SCRU64_METRICS_ADDR"); v != "" {
		cfg.MetricsAddr = v
	}
	if v := getenv("SCRU64_LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := getenv("SCRU64_LOG_FORMAT"); v != "" {
		cfg.LogFormat = strings.ToLower(v)
	}

	if len(errs) > 0 {
		return fmt.Errorf("environment: %w", errors.Join(errs...))
	}
	return nil
}
