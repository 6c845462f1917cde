package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/xid"
	"golang.org/x/sync/errgroup"

	"github.com/Lzww0608/scru64/conformance"
	"github.com/Lzww0608/scru64/internal/config"
	"github.com/Lzww0608/scru64/internal/logging"
	"github.com/Lzww0608/scru64/internal/metrics"
	"github.com/Lzww0608/scru64/report"
)

type runIO struct {
	inputPath string
	stdin     io.Reader
	stdout    flushWriter
	stderr    io.Writer
}

// run checks one input stream with a validated configuration and returns the
// exit code. A non-nil error is only returned for failures that prevented the
// check from running.
func run(ctx context.Context, cfg config.Config, rio runIO) (int, error) {
	logger, err := logging.New(rio.stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return report.ExitUsage, &exitError{report.ExitUsage, err}
	}
	runID := xid.New().String()
	logger = logger.With(slog.String("run_id", runID))

	input, source, err := openInput(rio)
	if err != nil {
		return report.ExitFatal, &exitError{report.ExitFatal, err}
	}
	defer input.Close()

	opts, err := cfg.PipelineOptions()
	if err != nil {
		return report.ExitUsage, &exitError{report.ExitUsage, err}
	}
	renderOpts := report.Options{
		MaxFutureSkew: cfg.MaxFutureSkew,
		MaxPastSkew:   cfg.MaxPastSkew,
		Threshold:     cfg.ViolationThreshold,
	}
	opts.RunID = runID
	opts.Logger = logger
	opts.OnStats = func(snap conformance.Snapshot) {
		if err := report.Render(rio.stdout, snap, renderOpts); err != nil {
			logger.Warn("failed to write statistics", slog.Any("error", err))
			return
		}
		_ = rio.stdout.Flush()
	}

	streamer := report.NewStreamer(rio.stderr)
	observers := []conformance.Observer{streamer}
	var m *metrics.Metrics
	if cfg.MetricsAddr != "" {
		m = metrics.New()
		observers = append(observers, m)
	}
	pipeline := conformance.NewPipeline(opts, observers...)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.StatsInterval > 0 {
		logger.Info(fmt.Sprintf("Reading IDs from %s and will show stats every %s. Press Ctrl-C to quit.",
			source, cfg.StatsInterval))
	} else {
		logger.Info(fmt.Sprintf("Reading IDs from %s. Press Ctrl-C to quit.", source))
	}

	g, gctx := errgroup.WithContext(ctx)
	serveCtx, stopServe := context.WithCancel(gctx)
	defer stopServe()

	var (
		snap   conformance.Snapshot
		runErr error
	)
	g.Go(func() error {
		defer stopServe()
		snap, runErr = pipeline.Run(gctx, input)
		return nil
	})
	if m != nil {
		g.Go(func() error {
			if err := m.Serve(serveCtx, cfg.MetricsAddr, logger); err != nil {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
	}
	serveErr := g.Wait()
	// a second signal terminates immediately
	stop()

	renderOpts.Records = true
	if err := report.Render(rio.stdout, snap, renderOpts); err != nil {
		logger.Error("failed to write summary", slog.Any("error", err))
	}
	if err := streamer.Err(); err != nil {
		logger.Error("failed to write violations", slog.Any("error", err))
	}

	code := report.Verdict(snap, runErr, cfg.ViolationThreshold, cfg.FailOnEmpty)
	logOutcome(logger, snap, runErr, cfg)
	if serveErr != nil {
		logger.Error("aborted", slog.Any("error", serveErr))
		code = report.ExitFatal
	}
	return code, nil
}

func openInput(rio runIO) (io.ReadCloser, string, error) {
	if rio.inputPath == "" || rio.inputPath == "-" {
		return io.NopCloser(rio.stdin), "STDIN", nil
	}
	f, err := os.Open(rio.inputPath)
	if err != nil {
		return nil, "", err
	}
	return f, rio.inputPath, nil
}

func logOutcome(logger *slog.Logger, snap conformance.Snapshot, runErr error, cfg config.Config) {
	attrs := []any{
		slog.Uint64("processed", snap.Processed),
		slog.Uint64("violations", snap.Violations),
		slog.Duration("elapsed", snap.TakenAt.Sub(snap.StartedAt).Round(time.Millisecond)),
	}

	var (
		halt    *conformance.HaltError
		readErr *conformance.ReadError
	)
	switch {
	case errors.As(runErr, &halt):
		logger.Warn("stopped at first violation", append(attrs, slog.String("kind", halt.Violation.Kind.String()))...)
	case errors.As(runErr, &readErr):
		logger.Error("failed to read input", append(attrs, slog.Any("error", readErr.Err))...)
	case errors.Is(runErr, context.Canceled):
		logger.Info("interrupted", attrs...)
	case runErr != nil:
		logger.Error("run failed", append(attrs, slog.Any("error", runErr))...)
	case cfg.FailOnEmpty && snap.Decoded == 0:
		logger.Error("no valid ID processed", attrs...)
	case snap.Failed(cfg.ViolationThreshold):
		logger.Warn("violation threshold exceeded",
			append(attrs, slog.Uint64("threshold", cfg.ViolationThreshold))...)
	default:
		logger.Info("finished", attrs...)
	}
}
