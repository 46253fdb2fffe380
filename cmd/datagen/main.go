package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/kudzimusar/stolen-app-lovable-sub001/internal/generator"
)

func main() {
	cfg := generator.DefaultConfig()
	var (
		users         = flag.Int("users", cfg.NumUsers, "number of users to generate")
		maxDevices    = flag.Int("max-devices", cfg.MaxDevicesPerUser, "maximum devices per user")
		maxAge        = flag.Int("max-age-years", cfg.MaxDeviceAgeYears, "oldest device purchase, in years")
		donation      = flag.Float64("donation-chance", cfg.DonationChance, "probability of each additional donation")
		listing       = flag.Float64("listing-chance", cfg.ListingChance, "probability of each additional marketplace listing")
		environmental = flag.Float64("environmental-chance", cfg.EnvironmentalChance, "probability a user is environmentally conscious")
		budget        = flag.Float64("budget-chance", cfg.BudgetChance, "probability a user is budget conscious")
		seed          = flag.Int64("seed", cfg.Seed, "random seed for deterministic generation")
		output        = flag.String("output", "data/users.json", "dataset file to write (.json, .yaml or .yml)")
		format        = flag.String("format", "", "encoding when writing to stdout: json or yaml")
		writeStdout   = flag.Bool("stdout", false, "write the dataset to stdout instead of a file")
	)
	flag.Parse()

	genCfg := generator.Config{
		NumUsers:            *users,
		MaxDevicesPerUser:   *maxDevices,
		MaxDeviceAgeYears:   *maxAge,
		DonationChance:      clampProbability(*donation),
		ListingChance:       clampProbability(*listing),
		EnvironmentalChance: clampProbability(*environmental),
		BudgetChance:        clampProbability(*budget),
		Seed:                *seed,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	dataset, err := generator.New(genCfg).Generate(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "generation failed: %v\n", err)
		os.Exit(1)
	}

	if *writeStdout {
		f := generator.FormatJSON
		if *format == string(generator.FormatYAML) {
			f = generator.FormatYAML
		}
		if err := generator.EncodeDataset(os.Stdout, dataset, f); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write dataset to stdout: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := generator.WriteDataset(dataset, *output); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write dataset: %v\n", err)
		os.Exit(1)
	}

	devices := 0
	for _, u := range dataset.Users {
		devices += len(u.Devices)
	}
	fmt.Fprintf(os.Stdout, "Generated %d users with %d devices into %s\n", len(dataset.Users), devices, *output)
}

func clampProbability(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}
