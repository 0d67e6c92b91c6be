package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/polisai/polis-replay/pkg/config"
	"github.com/polisai/polis-replay/pkg/replay"
)

func newRunCmd(opts *globalOptions) *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Track state transitions read from stdin and serve facade metrics",
		Long: `Reads one state name per line from stdin and records each as a transition.

Prometheus metrics are served on /metrics and facade state on /healthz. The
configuration file is watched; a changed app id is reported but only takes
effect after a restart. The command exits when stdin closes or on SIGINT/SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			cmd.SetContext(ctx)

			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				if cmd.Flags().Changed("metrics-addr") {
					a.cfg.Metrics.Address = metricsAddr
				}
				return runService(ctx, cmd, a)
			})
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Address for /metrics and /healthz (overrides config; empty disables)")
	return cmd
}

func runService(ctx context.Context, cmd *cobra.Command, a *app) error {
	logger := a.logger

	if a.loader.Path() != "" {
		if err := a.loader.Watch(func(previous, next *config.Config) {
			if previous == nil || previous.Replay.AppID == next.Replay.AppID {
				return
			}
			logger.Warn("Replay app id changed in configuration, restart to apply",
				"current", previous.Replay.AppID,
				"configured", next.Replay.AppID,
			)
		}); err != nil {
			logger.Warn("Config watch disabled", "error", err)
		}
	}

	var server *http.Server
	if a.cfg.Metrics.Address != "" {
		listener, err := net.Listen("tcp", a.cfg.Metrics.Address)
		if err != nil {
			return err
		}
		server = &http.Server{
			Handler:           newServiceHandler(a.facade, a.metrics),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Metrics server error", "error", err)
			}
		}()
		logger.Info("Serving replay metrics", "addr", listener.Addr().String())
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(cmd.InOrStdin())
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			logger.Error("Reading states failed", "error", err)
		}
	}()

	logger.Info("Tracking state transitions from stdin", "initialized", a.facade.IsInitialized())

loop:
	for {
		select {
		case <-ctx.Done():
			logger.Info("Received shutdown signal")
			break loop
		case line, ok := <-lines:
			if !ok {
				break loop
			}
			if state := strings.TrimSpace(line); state != "" {
				a.facade.TrackStateTransition(ctx, state)
			}
		}
	}

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Error during shutdown", "error", err)
		}
	}

	logger.Info("Replay service stopped")
	return nil
}

// newServiceHandler serves Prometheus metrics and a health document.
func newServiceHandler(facade *replay.Facade, metrics *replay.Metrics) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":      "ok",
			"initialized": facade.IsInitialized(),
		})
	})
	return otelhttp.NewHandler(mux, "replayctl")
}
