// Package config loads checker settings from defaults, an optional YAML
// file and SCRU64_* environment variables, in that order of precedence
// (command line flags are applied last by the caller).
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/Lzww0608/scru64/conformance"
)

// Config is the top-level configuration
type Config struct {
	MaxFutureSkew time.Duration `yaml:"max_future_skew" validate:"gte=0"`
	MaxPastSkew   time.Duration `yaml:"max_past_skew" validate:"gte=0"`

	HaltOnViolation bool     `yaml:"halt_on_violation"`
	HaltOn          []string `yaml:"halt_on" validate:"dive,violation_kind"`

	ViolationRetentionLimit int    `yaml:"violation_retention_limit" validate:"gte=0"`
	ViolationThreshold      uint64 `yaml:"violation_threshold"`
	FailOnEmpty             bool   `yaml:"fail_on_empty"`

	CommentPrefix    string        `yaml:"comment_prefix"`
	ClockSampleEvery int           `yaml:"clock_sample_every" validate:"gte=1"`
	MaxLineLen       int           `yaml:"max_line_len" validate:"gte=12"`
	StatsInterval    time.Duration `yaml:"stats_interval" validate:"gte=0"`

	CounterReset CounterReset `yaml:"counter_reset"`

	MetricsAddr string `yaml:"metrics_addr" validate:"omitempty,hostname_port"`
	LogLevel    string `yaml:"log_level" validate:"oneof=debug info warn error"`
	LogFormat   string `yaml:"log_format" validate:"oneof=auto text json"`
}

// CounterReset configures the optional counter range check on timestamp
// advance. Bits of zero disables it.
type CounterReset struct {
	Bits       uint8  `yaml:"bits" validate:"lte=24"`
	MaxInitial uint32 `yaml:"max_initial"`
}

// Default returns built-in defaults
func Default() Config {
	return Config{
		MaxFutureSkew:           conformance.DefaultMaxFutureSkew,
		MaxPastSkew:             conformance.DefaultMaxPastSkew,
		ViolationRetentionLimit: conformance.DefaultRetentionLimit,
		CommentPrefix:           "#",
		ClockSampleEvery:        1,
		MaxLineLen:              conformance.DefaultMaxLineLen,
		StatsInterval:           10 * time.Second,
		LogLevel:                "info",
		LogFormat:               "auto",
	}
}

// Load reads a YAML file over the defaults. If path is empty, returns defaults.
// Unknown keys are rejected so that typos do not silently fall back to defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg, err := Parse(b)
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults
func Parse(b []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, err
	}
	return cfg, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("violation_kind", func(fl validator.FieldLevel) bool {
		_, err := conformance.ParseKind(fl.Field().String())
		return err == nil
	})
	return v
}

// Validate checks field constraints
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// HaltSet resolves HaltOnViolation and HaltOn into a kind set
func (c Config) HaltSet() (conformance.KindSet, error) {
	if c.HaltOnViolation {
		return conformance.AllKinds, nil
	}
	var set conformance.KindSet
	for _, name := range c.HaltOn {
		k, err := conformance.ParseKind(name)
		if err != nil {
			return 0, err
		}
		set = set.With(k)
	}
	return set, nil
}

// PipelineOptions translates the configuration for conformance.NewPipeline.
// The caller fills in run-specific fields such as Clock, Logger and OnStats.
func (c Config) PipelineOptions() (conformance.Options, error) {
	halt, err := c.HaltSet()
	if err != nil {
		return conformance.Options{}, err
	}
	retention := c.ViolationRetentionLimit
	if retention == 0 {
		retention = -1 // conformance treats zero as "use default"
	}
	return conformance.Options{
		Freshness: &conformance.FreshnessChecker{
			MaxFutureSkew: c.MaxFutureSkew,
			MaxPastSkew:   c.MaxPastSkew,
		},
		Reset: conformance.ResetPolicy{
			CounterBits: c.CounterReset.Bits,
			MaxInitial:  c.CounterReset.MaxInitial,
		},
		RetentionLimit:   retention,
		HaltOn:           halt,
		CommentPrefix:    c.CommentPrefix,
		ClockSampleEvery: c.ClockSampleEvery,
		MaxLineLen:       c.MaxLineLen,
		StatsInterval:    c.StatsInterval,
	}, nil
}
