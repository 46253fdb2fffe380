package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/goccy/go-json"

	"github.com/kudzimusar/stolen-app-lovable-sub001/internal/config"
	"github.com/kudzimusar/stolen-app-lovable-sub001/internal/generator"
	"github.com/kudzimusar/stolen-app-lovable-sub001/internal/logging"
	"github.com/kudzimusar/stolen-app-lovable-sub001/internal/market"
	"github.com/kudzimusar/stolen-app-lovable-sub001/internal/repository"
	"github.com/kudzimusar/stolen-app-lovable-sub001/internal/service"
)

func main() {
	var (
		datasetPath = flag.String("dataset", "data/users.json", "Path to a dataset file (.json, .yaml or .yml)")
		userID      = flag.String("user", "", "Only report on this user id")
		workers     = flag.Int("workers", 0, "Concurrent device evaluations per user (defaults to engine.workers)")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Logging).With().Str("component", "suggest").Logger()
	if *workers <= 0 {
		*workers = cfg.Engine.Workers
	}

	dataset, err := generator.ReadDataset(*datasetPath)
	if err != nil {
		logger.Error().Err(err).Str("path", *datasetPath).Msg("failed to load dataset")
		os.Exit(1)
	}

	provider, err := market.NewFromConfig(cfg.Market, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to create market provider")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	ctx = logging.ContextWithLogger(ctx, logger)

	store := repository.NewDatasetStore(dataset.Users)
	svc := service.NewTransferService(store, provider, *workers)

	ids := store.UserIDs()
	if *userID != "" {
		ids = []string{*userID}
	}

	reports := make([]service.UserReport, 0, len(ids))
	for _, id := range ids {
		report, err := svc.Report(ctx, id)
		if err != nil {
			logger.Error().Err(err).Str("user_id", id).Msg("report failed")
			os.Exit(1)
		}
		reports = append(reports, report)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(reports); err != nil {
		logger.Error().Err(err).Msg("failed to write reports")
		os.Exit(1)
	}
}
