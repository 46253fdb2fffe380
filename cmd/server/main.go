package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/kudzimusar/stolen-app-lovable-sub001/internal/config"
	"github.com/kudzimusar/stolen-app-lovable-sub001/internal/graph"
	"github.com/kudzimusar/stolen-app-lovable-sub001/internal/logging"
	"github.com/kudzimusar/stolen-app-lovable-sub001/internal/market"
	"github.com/kudzimusar/stolen-app-lovable-sub001/internal/repository"
	"github.com/kudzimusar/stolen-app-lovable-sub001/internal/server"
	"github.com/kudzimusar/stolen-app-lovable-sub001/internal/service"
)

// graphDialer opens the registry connection.
type graphDialer func(ctx context.Context, cfg config.Config) (graph.Client, error)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging)
	ctx = logging.ContextWithLogger(ctx, logger)

	handler, closeGraph, err := buildHandler(ctx, cfg, logger, buildGraphClient)
	if err != nil {
		logger.Error().Err(err).Msg("failed to start")
		os.Exit(1)
	}
	defer closeGraph()

	srv := server.New(logger, cfg.HTTP, handler)
	run(srv, logger, cfg)
}

// buildHandler wires the registry, market feed and engine behind the router.
// On error nothing is left open; on success the returned func closes the graph
// client.
func buildHandler(ctx context.Context, cfg config.Config, logger zerolog.Logger, dial graphDialer) (http.Handler, func(), error) {
	provider, err := market.NewFromConfig(cfg.Market, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("create market provider: %w", err)
	}

	graphClient, err := dial(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("create graph client: %w", err)
	}
	closeGraph := func() {
		if err := graphClient.Close(context.Background()); err != nil {
			logger.Warn().Err(err).Msg("closing graph client failed")
		}
	}

	transferService := service.NewTransferService(repository.New(graphClient), provider, cfg.Engine.Workers)
	router := server.NewRouter(server.RouterDependencies{
		Logger:         logger,
		Health:         server.GraphHealthService{Client: graphClient, Logger: logger},
		API:            server.NewAPIHandlers(transferService),
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		RateLimit:      cfg.HTTP.RateLimit,
		RateWindow:     cfg.HTTP.RateWindow,
		MetricsEnabled: cfg.HTTP.MetricsEnabled,
	})
	return router, closeGraph, nil
}

func run(srv *server.Server, logger zerolog.Logger, cfg config.Config) {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("received shutdown signal")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("server stopped unexpectedly")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func buildGraphClient(ctx context.Context, cfg config.Config) (graph.Client, error) {
	if cfg.Graph.URI == "" {
		return nil, graph.ErrMissingURI
	}
	client, err := graph.NewNeo4jClient(ctx, graph.OptionsFromConfig(cfg.Graph))
	if err != nil {
		return nil, err
	}
	logging.Ctx(ctx).Info().Str("uri", cfg.Graph.URI).Str("database", cfg.Graph.Database).Msg("connected to graph")
	return client, nil
}
