package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/Lzww0608/scru64/internal/config"
	"github.com/Lzww0608/scru64/report"
)

// exitError carries a specific exit code out of cobra
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

type flushWriter interface {
	io.Writer
	Flush() error
}

// execute runs the command line and returns the process exit code
func execute(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	out, ok := stdout.(flushWriter)
	if !ok {
		out = bufio.NewWriter(stdout)
	}
	defer out.Flush()

	code := report.ExitOK
	cmd := newRootCommand(stdin, out, stderr, &code)
	cmd.SetArgs(args)
	cmd.SetOut(out)
	cmd.SetErr(stderr)

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		var ee *exitError
		if errors.As(err, &ee) {
			return ee.code
		}
		return report.ExitUsage
	}
	return code
}

func newRootCommand(stdin io.Reader, stdout flushWriter, stderr io.Writer, code *int) *cobra.Command {
	var configPath, inputPath string

	cmd := &cobra.Command{
		Use:   "scru64-test",
		Short: "Check a stream of SCRU64 identifiers for conformance",
		Long: `Reads SCRU64 identifiers, one per line, and verifies that the stream is
strictly increasing, that node_ctr advances within a timestamp tick and that
every embedded timestamp is close to the local clock.

Usage: any-command-that-prints-identifiers-infinitely | scru64-test`,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			cfg, err := config.Load(configPath)
			if err != nil {
				return &exitError{report.ExitUsage, err}
			}
			if err := config.FromEnv(&cfg); err != nil {
				return &exitError{report.ExitUsage, err}
			}
			if err := applyFlags(cmd, &cfg); err != nil {
				return &exitError{report.ExitUsage, err}
			}
			if err := cfg.Validate(); err != nil {
				return &exitError{report.ExitUsage, err}
			}

			c, err := run(cmd.Context(), cfg, runIO{
				inputPath: inputPath,
				stdin:     stdin,
				stdout:    stdout,
				stderr:    stderr,
			})
			*code = c
			return err
		},
	}

	f := cmd.Flags()
	f.StringVarP(&configPath, "config", "c", "", "YAML configuration file")
	f.StringVarP(&inputPath, "input", "i", "", "read identifiers from `file` instead of standard input")

	def := config.Default()
	f.Duration("max-future-skew", def.MaxFutureSkew, "how far ahead of the local clock a timestamp may be")
	f.Duration("max-past-skew", def.MaxPastSkew, "how far behind the local clock a timestamp may be")
	f.Bool("halt-on-violation", def.HaltOnViolation, "stop at the first violation of any kind")
	f.StringSlice("halt-on", nil, "stop at the first violation of these `kinds`")
	f.Int("retention", def.ViolationRetentionLimit, "violation records kept at each end of the run")
	f.Uint64("threshold", def.ViolationThreshold, "violations tolerated before exiting with failure")
	f.Bool("fail-on-empty", def.FailOnEmpty, "fail when no identifier could be decoded")
	f.String("comment-prefix", def.CommentPrefix, "skip lines starting with this prefix (empty disables)")
	f.Int("clock-sample-every", def.ClockSampleEvery, "share one wall-clock sample between N lines")
	f.Int("max-line-len", def.MaxLineLen, "longest line buffered before it is reported as malformed")
	f.Duration("stats-interval", def.StatsInterval, "print statistics this often (0 disables)")
	f.Uint8("counter-reset-bits", def.CounterReset.Bits, "low node_ctr bits holding the counter (0 disables the reset check)")
	f.Uint32("counter-reset-max", def.CounterReset.MaxInitial, "largest counter allowed right after a timestamp advance")
	f.String("metrics-addr", def.MetricsAddr, "serve Prometheus metrics on this `address`")
	f.String("log-level", def.LogLevel, "debug, info, warn or error")
	f.String("log-format", def.LogFormat, "auto, text or json")

	return cmd
}

// applyFlags copies explicitly set flags over cfg
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	f := cmd.Flags()
	var err error
	set := func(name string, apply func()) {
		if err == nil && f.Changed(name) {
			apply()
		}
	}
	dur := func(name string, dst *time.Duration) {
		set(name, func() { *dst, err = f.GetDuration(name) })
	}

	dur("max-future-skew", &cfg.MaxFutureSkew)
	dur("max-past-skew", &cfg.MaxPastSkew)
	dur("stats-interval", &cfg.StatsInterval)
	set("halt-on-violation", func() { cfg.HaltOnViolation, err = f.GetBool("halt-on-violation") })
	set("halt-on", func() { cfg.HaltOn, err = f.GetStringSlice("halt-on") })
	set("retention", func() { cfg.ViolationRetentionLimit, err = f.GetInt("retention") })
	set("threshold", func() { cfg.ViolationThreshold, err = f.GetUint64("threshold") })
	set("fail-on-empty", func() { cfg.FailOnEmpty, err = f.GetBool("fail-on-empty") })
	set("comment-prefix", func() { cfg.CommentPrefix, err = f.GetString("comment-prefix") })
	set("clock-sample-every", func() { cfg.ClockSampleEvery, err = f.GetInt("clock-sample-every") })
	set("max-line-len", func() { cfg.MaxLineLen, err = f.GetInt("max-line-len") })
	set("counter-reset-bits", func() { cfg.CounterReset.Bits, err = f.GetUint8("counter-reset-bits") })
	set("counter-reset-max", func() { cfg.CounterReset.MaxInitial, err = f.GetUint32("counter-reset-max") })
	set("metrics-addr", func() { cfg.MetricsAddr, err = f.GetString("metrics-addr") })
	set("log-level", func() { cfg.LogLevel, err = f.GetString("log-level") })
	set("log-format", func() { cfg.LogFormat, err = f.GetString("log-format") })

	return err
}
