// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keycroft Contributors

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/keycroft/keycroft/internal/auth"
	authpg "github.com/keycroft/keycroft/internal/auth/postgres"
	"github.com/keycroft/keycroft/internal/config"
	"github.com/keycroft/keycroft/internal/httpapi"
	"github.com/keycroft/keycroft/internal/logging"
	"github.com/keycroft/keycroft/internal/observability"
	"github.com/keycroft/keycroft/internal/store"
	"github.com/keycroft/keycroft/internal/xdg"
	"github.com/keycroft/keycroft/pkg/errutil"
)

const shutdownTimeout = 10 * time.Second

// resolveConfigFile returns the --config value, or the XDG config file if
// one exists there. An empty result means defaults plus flags only.
func resolveConfigFile() string {
	if configFile != "" {
		return configFile
	}
	if path := xdg.DefaultConfigFile(); fileExists(path) {
		return path
	}
	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// newServeCmd creates the serve subcommand with all flags configured.
func newServeCmd() *cobra.Command {
	var autoMigrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the authentication API server",
		Long: `Start the HTTP API server, connect to PostgreSQL, and serve
registration, login, and password change requests.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(resolveConfigFile(), cmd.Flags())
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg, autoMigrate)
		},
	}

	cmd.Flags().AddFlagSet(config.Flags())
	cmd.Flags().BoolVar(&autoMigrate, "auto-migrate", true, "run pending migrations on startup")

	return cmd
}

// runServe wires the service together and blocks until shutdown.
func runServe(ctx context.Context, cfg *config.Config, autoMigrate bool) error {
	logging.SetDefault("keycroft", version, cfg.Log.Format)
	logger := slog.Default()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := store.Connect(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	if autoMigrate {
		if err := runAutoMigrate(cfg.Database.URL, logger); err != nil {
			return err
		}
	}

	hasher := auth.NewBoundedHasher(auth.NewArgon2idHasher(), int64(cfg.Hash.Concurrency))
	issuer, err := auth.NewJWTIssuer([]byte(cfg.JWT.Secret))
	if err != nil {
		return err
	}

	svc, err := auth.NewServiceWithLogger(authpg.NewUserRepository(pool), hasher, issuer, logger)
	if err != nil {
		return err
	}

	var ready atomic.Bool
	obsServer := observability.NewServer(cfg.Metrics.Addr, ready.Load)
	obsErrCh, err := obsServer.Start()
	if err != nil {
		return err
	}

	handler, err := httpapi.NewHandler(svc, logger, obsServer.Metrics())
	if err != nil {
		return err
	}

	apiServer := httpapi.NewServer(cfg.Server.Addr(), handler, logger)
	apiErrCh, err := apiServer.Start()
	if err != nil {
		stopServers(nil, obsServer, logger)
		return err
	}
	ready.Store(true)

	logger.Info("keycroft is serving",
		"api_addr", apiServer.Addr(),
		"metrics_addr", obsServer.Addr(),
	)

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-apiErrCh:
		if err != nil {
			stopServers(nil, obsServer, logger)
			return oops.Code("SERVE_FAILED").Wrap(err)
		}
	case err := <-obsErrCh:
		if err != nil {
			stopServers(apiServer, nil, logger)
			return oops.Code("SERVE_FAILED").Wrap(err)
		}
	}

	ready.Store(false)
	stopServers(apiServer, obsServer, logger)
	return nil
}

// runAutoMigrate applies pending migrations before serving.
func runAutoMigrate(databaseURL string, logger *slog.Logger) error {
	migrator, err := store.NewMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := migrator.Close(); closeErr != nil {
			logger.Warn("error closing migrator", "error", closeErr)
		}
	}()

	if err := migrator.Up(); err != nil {
		return err
	}
	logger.Info("migrations up to date")
	return nil
}

// stopServers shuts down whichever servers are non-nil, bounded by the
// shutdown timeout. Errors are logged, not returned; shutdown proceeds.
func stopServers(api *httpapi.Server, obs *observability.Server, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if api != nil {
		if err := api.Stop(ctx); err != nil {
			errutil.LogError(logger, "error stopping api server", err)
		}
	}
	if obs != nil {
		if err := obs.Stop(ctx); err != nil {
			errutil.LogError(logger, "error stopping observability server", err)
		}
	}
}
