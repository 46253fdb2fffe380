package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kudzimusar/stolen-app-lovable-sub001/internal/config"
	"github.com/kudzimusar/stolen-app-lovable-sub001/internal/generator"
	"github.com/kudzimusar/stolen-app-lovable-sub001/internal/graph"
	"github.com/kudzimusar/stolen-app-lovable-sub001/internal/logging"
	"github.com/kudzimusar/stolen-app-lovable-sub001/internal/repository"
	"github.com/kudzimusar/stolen-app-lovable-sub001/internal/service"
)

func main() {
	var (
		datasetPath = flag.String("dataset", "data/users.json", "Path to a dataset file (.json, .yaml or .yml)")
		workers     = flag.Int("workers", 0, "Number of concurrent workers for ingestion (defaults to engine.ingest_workers)")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging).With().Str("component", "ingest").Logger()
	if *workers <= 0 {
		*workers = cfg.Engine.IngestWorkers
	}

	dataset, err := generator.ReadDataset(*datasetPath)
	if err != nil {
		logger.Error().Err(err).Str("path", *datasetPath).Msg("failed to load dataset")
		os.Exit(1)
	}
	if len(dataset.Users) == 0 {
		logger.Error().Str("path", *datasetPath).Msg("dataset contains no users")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	ctx = logging.ContextWithLogger(ctx, logger)

	graphClient, err := buildGraphClient(ctx, cfg)
	if err != nil {
		logger.Error().Err(err).Msg("failed to create graph client")
		os.Exit(1)
	}
	defer func() {
		if err := graphClient.Close(context.Background()); err != nil {
			logger.Warn().Err(err).Msg("closing graph client failed")
		}
	}()

	ingestor := service.NewBulkIngestor(repository.New(graphClient), *workers)

	start := time.Now()
	logger.Info().Int("count", len(dataset.Users)).Int("workers", *workers).Msg("ingesting users")
	if err := ingestor.IngestUsers(ctx, dataset.Users); err != nil {
		var taskErr *service.TaskError
		if errors.As(err, &taskErr) {
			logger.Error().Int("failed", len(taskErr.Errors)).Int("total", len(dataset.Users)).Msg("user ingestion finished with failures")
		} else {
			logger.Error().Err(err).Msg("user ingestion failed")
		}
		os.Exit(1)
	}

	logger.Info().Dur("duration", time.Since(start)).Int("users", len(dataset.Users)).Msg("ingestion complete")
}

func buildGraphClient(ctx context.Context, cfg config.Config) (graph.Client, error) {
	if cfg.Graph.URI == "" {
		return nil, fmt.Errorf("GRAPH_URI is required for ingestion")
	}
	client, err := graph.NewNeo4jClient(ctx, graph.OptionsFromConfig(cfg.Graph))
	if err != nil {
		return nil, err
	}
	if err := client.VerifyConnectivity(ctx); err != nil {
		_ = client.Close(ctx)
		return nil, err
	}
	logging.Ctx(ctx).Info().Str("uri", cfg.Graph.URI).Str("database", cfg.Graph.Database).Msg("connected to graph")
	return client, nil
}
