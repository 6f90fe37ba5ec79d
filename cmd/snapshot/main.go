// Package main provides a one-shot ingestion run:
// fetch the top-N listing, reconcile the catalog, write today's snapshots,
// print the run summary, and exit. Suitable for cron.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"tokenpulse/internal/ingestion"
	"tokenpulse/internal/marketdata"
	"tokenpulse/internal/marketdata/stub"
	"tokenpulse/internal/storage"
	chstore "tokenpulse/internal/storage/clickhouse"
	"tokenpulse/internal/storage/memory"
	"tokenpulse/internal/storage/migrations"
	pgstore "tokenpulse/internal/storage/postgres"
)

func main() {
	// Load .env file if exists
	_ = godotenv.Load()

	// Parse flags (env vars as defaults)
	apiKey := flag.String("api-key", os.Getenv("CMC_API_KEY"), "CoinMarketCap API key")
	baseURL := flag.String("base-url", os.Getenv("CMC_BASE_URL"), "Provider API base URL (default: production endpoint)")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string (optional, enables snapshot archive)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")
	useStub := flag.Bool("use-stub", false, "Use a deterministic stub listing source instead of the provider API")
	timeout := flag.Duration("timeout", 10*time.Minute, "Maximum run duration")
	asJSON := flag.Bool("json", false, "Print the run summary as JSON")

	flag.Parse()

	logger := log.New(os.Stdout, "[snapshot] ", log.LstdFlags)

	if *apiKey == "" && !*useStub {
		logger.Fatal("--api-key is required (use --use-stub for a generated listing)")
	}
	if !*useMemory && *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required (use --use-memory for in-memory storage)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, cancelling run...", sig)
		cancel()
	}()

	var tokenStore storage.TokenStore
	var snapshotStore storage.SnapshotStore
	var settingStore storage.SettingStore
	var archive storage.SnapshotArchive

	if *useMemory {
		tokenStore = memory.NewTokenStore()
		snapshotStore = memory.NewSnapshotStore()
		settingStore = memory.NewSettingStore()
		archive = memory.NewSnapshotArchive()
	} else {
		pool, err := pgstore.NewPool(ctx, *postgresDSN)
		if err != nil {
			logger.Fatalf("Failed to connect to postgres: %v", err)
		}
		defer pool.Close()

		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			logger.Fatalf("Failed to run postgres migrations: %v", err)
		}

		tokenStore = pgstore.NewTokenStore(pool)
		snapshotStore = pgstore.NewSnapshotStore(pool)
		settingStore = pgstore.NewSettingStore(pool)

		if *clickhouseDSN != "" {
			chConn, err := migrations.RunClickhouseMigrations(ctx, *clickhouseDSN)
			if err != nil {
				logger.Fatalf("Failed to connect to clickhouse: %v", err)
			}
			defer chConn.Close()
			archive = chstore.NewSnapshotArchive(chConn)
		}
	}

	var source ingestion.ListingSource
	if *useStub {
		source = stub.New()
	} else {
		var opts []marketdata.ClientOption
		if *baseURL != "" {
			opts = append(opts, marketdata.WithBaseURL(*baseURL))
		}
		source = marketdata.NewClient(*apiKey, opts...)
	}

	runner := ingestion.NewRunner(ingestion.RunnerOptions{
		Source:        source,
		TokenStore:    tokenStore,
		SnapshotStore: snapshotStore,
		SettingStore:  settingStore,
		Archive:       archive,
		Logger:        logger,
	})

	result, err := runner.Run(ctx)
	if err != nil {
		logger.Fatalf("Run failed: %v", err)
	}

	if *asJSON {
		json.NewEncoder(os.Stdout).Encode(result)
	} else {
		fmt.Printf("Run summary:\n")
		fmt.Printf("  Processed: %d\n", result.Processed)
		fmt.Printf("  Created:   %d\n", result.Created)
		fmt.Printf("  Skipped:   %d\n", result.Skipped)
		fmt.Printf("  Errors:    %d\n", result.Errors)
		fmt.Printf("  Duration:  %dms\n", result.DurationMs)
	}

	if result.Errors > 0 {
		os.Exit(1)
	}
}
