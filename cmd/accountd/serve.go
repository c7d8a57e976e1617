// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/accountd/internal/auth"
	"github.com/holomush/accountd/internal/config"
	"github.com/holomush/accountd/internal/httpapi"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the account API server",
		Long: `Run the account JSON API together with the metrics and health
server. Sessions are revocable on logout when a Redis URL is configured.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			return runServeWithDeps(cmd.Context(), cfg, cmd, nil)
		},
	}
}

// runServeWithDeps runs the API server until ctx is cancelled, a shutdown
// signal arrives or a server fails.
func runServeWithDeps(ctx context.Context, cfg *config.Config, cmd *cobra.Command, deps *ServeDeps) error {
	if ctx == nil {
		ctx = context.Background()
	}
	deps = deps.withDefaults()

	if err := cfg.ValidateServe(); err != nil {
		return err
	}
	logger, err := setupLogging(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	db, err := deps.DatabaseConnector(ctx, cfg)
	if err != nil {
		return oops.Code("SERVE_FAILED").With("operation", "connect database").Wrap(err)
	}
	defer db.Close()
	logger.Info("database connected")

	var revocations RevocationList
	if cfg.Redis.URL != "" {
		revocations, err = deps.RevocationConnector(ctx, cfg)
		if err != nil {
			return oops.Code("SERVE_FAILED").With("operation", "connect redis").Wrap(err)
		}
		defer func() {
			if closeErr := revocations.Close(); closeErr != nil {
				logger.Warn("error closing revocation list", "error", closeErr)
			}
		}()
		logger.Info("session revocation enabled")
	}

	ready := func() bool {
		if !db.Ready() {
			return false
		}
		return revocations == nil || revocations.Ready()
	}

	var engineOpts []auth.EngineOption
	handlerOpts := []httpapi.Option{httpapi.WithLogger(logger)}
	if revocations != nil {
		engineOpts = append(engineOpts, auth.WithRevoker(revocations))
	}

	var obsServer ObservabilityServer
	if cfg.Metrics.Addr != "" {
		obsServer = deps.ObservabilityServerFactory(cfg.Metrics.Addr, ready)
		obsErrChan, startErr := obsServer.Start()
		if startErr != nil {
			return oops.Code("SERVE_FAILED").With("operation", "start metrics server").Wrap(startErr)
		}
		go monitorServerErrors(ctx, cancel, obsErrChan, "metrics")
		logger.Info("metrics server started", "addr", obsServer.Addr())

		if metrics := obsServer.Metrics(); metrics != nil {
			engineOpts = append(engineOpts, auth.WithMetrics(metrics))
			handlerOpts = append(handlerOpts, httpapi.WithRequestRecorder(metrics))
		}
	}

	engine, err := newEngine(cfg, db.AccountStore(), []byte(cfg.Session.Secret), logger, engineOpts...)
	if err != nil {
		stopServers(cfg, logger, nil, obsServer)
		return err
	}

	apiServer := deps.APIServerFactory(cfg.HTTP.Addr, httpapi.NewHandler(engine, handlerOpts...))
	apiErrChan, err := apiServer.Start()
	if err != nil {
		stopServers(cfg, logger, nil, obsServer)
		return oops.Code("SERVE_FAILED").With("operation", "start api server").Wrap(err)
	}
	go monitorServerErrors(ctx, cancel, apiErrChan, "api")

	cmd.Println("accountd started")
	logger.Info("accountd ready",
		"addr", apiServer.Addr(),
		"revocable_sessions", engine.Revocable(),
	)

	<-ctx.Done()
	logger.Info("shutting down...")
	stopServers(cfg, logger, apiServer, obsServer)
	logger.Info("shutdown complete")
	return nil
}

// stopServers stops the API server first so in-flight requests drain while
// health probes still answer.
func stopServers(cfg *config.Config, logger *slog.Logger, api APIServer, obs ObservabilityServer) {
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()

	if api != nil {
		if err := api.Stop(shutdownCtx); err != nil {
			logger.Warn("error stopping api server", "error", err)
		}
	}
	if obs != nil {
		if err := obs.Stop(shutdownCtx); err != nil {
			logger.Warn("error stopping metrics server", "error", err)
		}
	}
}

// monitorServerErrors cancels ctx when a server reports an error. It exits
// when an error is received, the channel is closed or ctx is cancelled.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			slog.Error("server error, triggering shutdown",
				"server", serverName,
				"error", err,
			)
			cancel()
		}
	case <-ctx.Done():
	}
}
