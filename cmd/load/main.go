// Command load reads the Airbnb dataset files and loads them into Postgres:
// listings, then reviews, then calendar. Configuration comes from the
// environment (optionally a .env file); flags override individual settings.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rpasquini/airbnb/internal/config"
	"github.com/rpasquini/airbnb/internal/metrics"
	"github.com/rpasquini/airbnb/internal/metrics/prompush"
	"github.com/rpasquini/airbnb/internal/pipeline"
	"github.com/rpasquini/airbnb/internal/schema"
	"github.com/rpasquini/airbnb/internal/storage/postgres"
)

func main() {
	os.Exit(run())
}

// run holds the real main so deferred cleanup (metrics flush, pool close)
// still happens before the process exits non-zero.
func run() int {
	var (
		envFile        string
		dataDir        string
		batchSize      int
		metricsBackend string
		pushGatewayURL string
		validate       bool
	)

	flag.StringVar(&envFile, "env", ".env", "env file to load before reading the environment")
	flag.StringVar(&dataDir, "data-dir", "", "directory holding the dataset files (overrides DATA_DIR)")
	flag.IntVar(&batchSize, "batch-size", 0, "rows per commit for every dataset (overrides BATCH_SIZE; 0 = per-dataset default)")
	flag.StringVar(&metricsBackend, "metrics-backend", "", "metrics backend: none or prompush (overrides METRICS_BACKEND)")
	flag.StringVar(&pushGatewayURL, "pushgateway-url", "", "Pushgateway base URL (overrides PUSHGATEWAY_URL)")
	flag.BoolVar(&validate, "validate", false, "validate the configuration and exit")
	verbose := flag.Bool("v", false, "enable verbose logs")

	flag.Parse()

	cfg, err := config.Load(envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 1
	}

	// Flags win over environment.
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if batchSize != 0 {
		cfg.BatchSize = batchSize
	}
	if metricsBackend != "" {
		cfg.MetricsBackend = metricsBackend
	}
	if pushGatewayURL != "" {
		cfg.PushgatewayURL = pushGatewayURL
	}

	issues := config.Validate(cfg)
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		log.Printf("configuration is invalid")
		return 1
	}
	if validate {
		log.Printf("configuration is valid")
		return 0
	}

	switch cfg.MetricsBackend {
	case "prompush":
		b, err := prompush.NewBackend(cfg.Job, cfg.PushgatewayURL)
		if err != nil {
			log.Printf("metrics: failed to init prom push backend: %v; using nop", err)
			break
		}
		log.Printf("metrics: backend=prompush url=%s job=%s", cfg.PushgatewayURL, cfg.Job)
		metrics.SetBackend(b)
		defer func() {
			if err := metrics.Flush(); err != nil {
				log.Printf("metrics: flush error: %v", err)
			}
		}()

	case "", "none":
		if *verbose {
			log.Printf("metrics: disabled")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *verbose {
		log.Printf("load: data_dir=%s db=%s@%s:%d/%s batch_size=%d",
			cfg.DataDir, cfg.DBUser, cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.BatchSize)
	}

	repo, err := postgres.NewRepository(ctx, cfg.DSN())
	if err != nil {
		log.Printf("connect: %v", err)
		return 1
	}
	defer repo.Close()

	runner := pipeline.NewRunner(repo, cfg.Job)
	if cfg.BatchSize > 0 {
		runner.SetBatchSize(cfg.BatchSize)
	}

	start := time.Now()
	res, err := runner.Run(ctx, schema.All(cfg.DataDir))
	if err != nil {
		log.Printf("load failed: %v", err)
		for _, s := range res.Stages {
			log.Printf("stage=%s written=%d checkpoint_chunk=%d", s.Name, s.Written, s.Checkpoint.Chunk)
		}
		return 1
	}

	log.Printf("load completed: rows=%d elapsed=%s",
		res.TotalWritten(), time.Since(start).Truncate(time.Millisecond))
	return 0
}
