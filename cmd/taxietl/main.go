package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"taxietl/internal/config"
	"taxietl/internal/metrics"
	"taxietl/internal/metrics/datadog"
	"taxietl/internal/metrics/prompush"

	// register all backends with the storage factory.
	// config selects which one to use but the binary carries support for all of them.
	_ "taxietl/internal/storage/all"
)

// main is the entry point for the taxi ETL binary. It loads the run
// configuration, optionally initializes a metrics backend, and executes the
// staged pipeline.
func main() {
	validateOnly := flag.Bool("validate", false, "lint the configuration and exit")
	verbose := flag.Bool("v", false, "enable verbose logs")

	// Load defines the remaining flags on flag.CommandLine and parses
	// os.Args, which also parses -validate and -v above.
	cfg := config.Load()

	issues := config.Validate(cfg)
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		log.Printf("configuration is invalid")
		os.Exit(1)
	}
	if *validateOnly {
		log.Printf("configuration is valid")
		os.Exit(0)
	}

	initMetrics(cfg, *verbose)

	ctx := context.Background()
	start := time.Now()

	runErr := run(ctx, cfg)

	// Flush before deciding the exit code so a failed run still reports its
	// stage outcomes.
	if err := metrics.Flush(); err != nil {
		log.Printf("metrics: flush error: %v", err)
	}

	if runErr != nil {
		log.Fatalf("%v", runErr)
	}

	log.Printf("completed in %s", time.Since(start).Truncate(time.Millisecond))
}

// initMetrics installs the configured metrics backend. Config validation has
// already rejected unknown backend names; a backend that fails to initialize
// degrades to the nop default rather than blocking the load.
func initMetrics(cfg *config.Config, verbose bool) {
	switch cfg.MetricsBackend {
	case "prometheus":
		b, err := prompush.NewBackend(cfg.Job, cfg.PushgatewayURL)
		if err != nil {
			log.Printf("metrics: failed to init prom push backend: %v; using nop", err)
			return
		}
		log.Printf("metrics: backend=prometheus url=%s job=%s", cfg.PushgatewayURL, cfg.Job)
		metrics.SetBackend(b)

	case "datadog":
		b, err := datadog.NewBackend(datadog.Config{
			Addr:       cfg.DogstatsdAddr,
			Namespace:  "taxietl.",
			GlobalTags: []string{"service:" + cfg.Job},
		})
		if err != nil {
			log.Printf("metrics: failed to init datadog backend: %v; using nop", err)
			return
		}
		log.Printf("metrics: backend=datadog addr=%s", cfg.DogstatsdAddr)
		metrics.SetBackend(b)

	default:
		// "" or "none": the nop backend stays installed.
		if verbose {
			log.Printf("metrics: disabled (backend=%q)", cfg.MetricsBackend)
		}
	}
}
