// Package main runs the bolt-gateway: a stateless HTTP front that
// translates JSON-over-HTTP query traffic into Cypher over Bolt against
// a Neo4j deployment.
//
// Configuration is read from environment variables with the BOLTGW
// prefix (e.g. BOLTGW_DRIVER_URI, BOLTGW_DRIVER_PASSWORD) and optionally
// from a YAML or JSON file named with -config.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/StricklySoft/bolt-gateway/pkg/auth"
	"github.com/StricklySoft/bolt-gateway/pkg/bolt"
	"github.com/StricklySoft/bolt-gateway/pkg/capabilities"
	"github.com/StricklySoft/bolt-gateway/pkg/config"
	"github.com/StricklySoft/bolt-gateway/pkg/executor"
	"github.com/StricklySoft/bolt-gateway/pkg/query"
	"github.com/StricklySoft/bolt-gateway/pkg/router"
	"github.com/StricklySoft/bolt-gateway/pkg/server"
)

// shutdownTimeout bounds how long in-flight requests may take to finish
// after a termination signal.
const shutdownTimeout = 15 * time.Second

func main() {
	configFile := flag.String("config", "", "path to a YAML or JSON configuration file")
	flag.Parse()

	cfg := config.MustLoad[config.Config](
		config.New().WithEnvPrefix("BOLTGW").WithFile(*configFile),
	)

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("gateway failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	driver, err := neo4j.NewDriverWithContext(cfg.URI,
		neo4j.BasicAuth(cfg.Username, cfg.Password.Value(), ""))
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := driver.Close(closeCtx); err != nil {
			logger.Warn("failed to close driver", "error", err)
		}
	}()

	if cfg.VerifyConnectivity {
		if err := driver.VerifyConnectivity(ctx); err != nil {
			return err
		}
		logger.InfoContext(ctx, "database connectivity verified", "uri", cfg.URI)
	}

	sessions := bolt.NewDriverSessions(driver)
	probe := capabilities.NewProbe(sessions, capabilities.Options{
		RoutingScheme: cfg.RoutingScheme(),
		ForceSSR:      cfg.ProfileSSR,
		DefaultSSR:    cfg.DefaultToSSR,
	}, logger)
	sessionRouter := router.NewRouter(sessions, probe, cfg.FetchSize)
	evaluator := query.NewEvaluator(probe, sessionRouter, logger)
	exec := executor.New(evaluator, sessionRouter, logger)

	authn, err := auth.NewAuthenticator(sessions, cfg.Username, cfg.Password.Value(), logger)
	if err != nil {
		return err
	}

	gateway := server.New(exec, authn, logger)
	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           gateway.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.InfoContext(ctx, "gateway listening",
			"addr", cfg.ListenAddr,
			"uri", cfg.URI,
		)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

func logLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
