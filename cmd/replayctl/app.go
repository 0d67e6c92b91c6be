package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/polisai/polis-replay/pkg/config"
	"github.com/polisai/polis-replay/pkg/logging"
	"github.com/polisai/polis-replay/pkg/replay"
	"github.com/polisai/polis-replay/pkg/replay/logsdk"
	"github.com/polisai/polis-replay/pkg/replay/otelsdk"
	"github.com/polisai/polis-replay/pkg/telemetry"
)

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	logLevel   string
	pretty     bool
	sdk        string
}

// app is the wiring behind a single command invocation.
type app struct {
	cfg     *config.Config
	loader  *config.Loader
	logger  *slog.Logger
	metrics *replay.Metrics
	facade  *replay.Facade
	closers []func(context.Context) error
}

// newApp loads configuration, builds the SDK adapter, and initializes the facade.
func newApp(ctx context.Context, cmd *cobra.Command, opts *globalOptions) (*app, error) {
	bootstrap := logging.NewLogger(logging.Config{Level: opts.logLevel, Pretty: opts.pretty, Output: cmd.ErrOrStderr()})

	loader, err := config.NewLoader(opts.configPath, bootstrap)
	if err != nil {
		return nil, err
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}

	// CLI flags override config file values
	if cmd.Flags().Changed("log-level") || cfg.Logging.Level == "" {
		cfg.Logging.Level = opts.logLevel
	}
	if cmd.Flags().Changed("pretty") {
		cfg.Logging.Pretty = opts.pretty
	}
	if opts.sdk != "" {
		cfg.Replay.SDK = opts.sdk
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	logger := logging.NewLogger(logging.Config{
		Level:  cfg.Logging.Level,
		Pretty: cfg.Logging.Pretty,
		Output: cmd.ErrOrStderr(),
	})
	slog.SetDefault(logger)

	a := &app{
		cfg:     cfg,
		loader:  loader,
		logger:  logger,
		metrics: replay.NewMetrics(),
	}

	sdk, err := a.buildSDK(ctx)
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}

	a.facade = replay.New(sdk, replay.Options{
		AppID:       cfg.Replay.AppID,
		InitOptions: cfg.InitOptions(),
		Logger:      logger,
		Metrics:     a.metrics,
	})
	a.facade.Initialize(ctx)

	return a, nil
}

func (a *app) buildSDK(ctx context.Context) (replay.SDK, error) {
	switch a.cfg.Replay.SDK {
	case config.SDKLog:
		return logsdk.New(a.logger), nil
	case config.SDKOTel, "":
		telemetryCfg := telemetry.Config{
			ServiceName:    a.cfg.Telemetry.ServiceName,
			ServiceVersion: a.cfg.Replay.Release,
			Endpoint:       a.cfg.Telemetry.OTLPEndpoint,
			Environment:    a.cfg.Telemetry.Environment,
			Insecure:       a.cfg.Telemetry.Insecure,
			Headers:        a.cfg.Telemetry.Headers,
		}
		shutdownMeter, err := telemetry.SetupMeterProvider(ctx, telemetryCfg, a.metrics.Registry())
		if err != nil {
			return nil, fmt.Errorf("setup metrics: %w", err)
		}
		a.closers = append(a.closers, shutdownMeter)

		shutdown, err := telemetry.SetupProvider(ctx, telemetryCfg)
		if err != nil {
			return nil, fmt.Errorf("setup telemetry: %w", err)
		}

		sdk := otelsdk.New(
			otelsdk.WithLogger(a.logger),
			otelsdk.WithRedaction(telemetry.MaskKeys(a.cfg.Telemetry.RedactUserFields...)),
		)
		// The session span must end before the provider flushes.
		a.closers = append(a.closers,
			shutdown,
			func(context.Context) error { sdk.Close(); return nil },
		)
		return sdk, nil
	default:
		return nil, fmt.Errorf("unknown replay sdk %q", a.cfg.Replay.SDK)
	}
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	if err := a.loader.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// withApp runs fn with a fully wired app and closes it afterwards.
func withApp(cmd *cobra.Command, opts *globalOptions, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := newApp(ctx, cmd, opts)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(context.WithoutCancel(ctx)); err != nil {
			a.logger.Error("Shutdown error", "error", err)
		}
	}()

	return fn(ctx, a)
}
