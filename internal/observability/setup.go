package observability

import (
	"context"
	"errors"
	"fmt"

	"github.com/riskibarqy/bilardeando/internal/config"
	"github.com/riskibarqy/bilardeando/internal/platform/logging"
)

// Options selects the optional parts of the stack. Logging is always set up.
type Options struct {
	Tracing   bool
	Profiling bool
	Pprof     bool
}

// Stack owns the process-wide logger and telemetry exporters.
type Stack struct {
	Logger *logging.Logger

	stops []stopStep
}

type stopStep struct {
	name string
	fn   func(context.Context) error
}

// Setup installs the default logger and starts the selected exporters. On
// error everything already started is stopped again.
func Setup(cfg config.Config, opts Options) (*Stack, error) {
	logger, flushLogs, err := InitBetterStackLogger(cfg, logging.NewJSON(cfg.LogLevel))
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	logging.SetDefault(logger)

	s := &Stack{Logger: logger}
	s.push("logs", func(ctx context.Context) error {
		if err := flushLogs(ctx); err != nil {
			return err
		}
		if err := logger.Sync(); err != nil && !isIgnorableLoggerSyncError(err) {
			return err
		}
		return nil
	})

	fail := func(step string, err error) (*Stack, error) {
		_ = s.Shutdown(context.Background())
		return nil, fmt.Errorf("init %s: %w", step, err)
	}

	if opts.Tracing {
		shutdown, err := InitUptrace(cfg, logger)
		if err != nil {
			return fail("uptrace", err)
		}
		s.push("uptrace", shutdown)
	}
	if opts.Profiling {
		stop, err := InitPyroscope(cfg, logger)
		if err != nil {
			return fail("pyroscope", err)
		}
		s.push("pyroscope", func(context.Context) error { return stop() })
	}
	if opts.Pprof {
		stop, err := StartPprofServer(cfg, logger)
		if err != nil {
			return fail("pprof", err)
		}
		s.push("pprof", stop)
	}

	return s, nil
}

func (s *Stack) push(name string, fn func(context.Context) error) {
	s.stops = append(s.stops, stopStep{name: name, fn: fn})
}

// Shutdown stops exporters in reverse start order. Logs are flushed last.
func (s *Stack) Shutdown(ctx context.Context) error {
	var errs []error
	for i := len(s.stops) - 1; i >= 0; i-- {
		step := s.stops[i]
		if err := step.fn(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stop %s: %w", step.name, err))
		}
	}
	s.stops = nil
	return errors.Join(errs...)
}
