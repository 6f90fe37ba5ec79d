// Package main provides the long-running snapshot service:
// - Ingestion (scheduled): one daily top-N fetch, catalog reconcile, snapshots
// - HTTP: health, Prometheus metrics, status, manual run trigger
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"tokenpulse/internal/ingestion"
	"tokenpulse/internal/marketdata"
	"tokenpulse/internal/marketdata/stub"
	"tokenpulse/internal/observability"
	"tokenpulse/internal/storage"
	chstore "tokenpulse/internal/storage/clickhouse"
	"tokenpulse/internal/storage/memory"
	"tokenpulse/internal/storage/migrations"
	pgstore "tokenpulse/internal/storage/postgres"
)

// Server holds all components of the snapshot service.
type Server struct {
	// Configuration
	runInterval time.Duration

	// Components
	runner *ingestion.Runner
	logger *log.Logger

	// State
	mu         sync.Mutex
	started    time.Time
	lastRun    time.Time
	lastResult *ingestion.Result
	running    bool
	runs       int
}

// allStores holds all storage implementations.
type allStores struct {
	tokenStore    storage.TokenStore
	snapshotStore storage.SnapshotStore
	settingStore  storage.SettingStore
	archive       storage.SnapshotArchive
}

func main() {
	// Load .env file if exists
	_ = godotenv.Load()

	// Parse flags (env vars as defaults)
	apiKey := flag.String("api-key", os.Getenv("CMC_API_KEY"), "CoinMarketCap API key")
	baseURL := flag.String("base-url", os.Getenv("CMC_BASE_URL"), "Provider API base URL (default: production endpoint)")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string (optional, enables snapshot archive)")
	runInterval := flag.Duration("run-interval", 24*time.Hour, "Ingestion run interval")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")
	useStub := flag.Bool("use-stub", false, "Use a deterministic stub listing source instead of the provider API")
	httpAddr := flag.String("http-addr", ":9090", "HTTP address for health/metrics/status")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	// Validate required flags
	if *apiKey == "" && !*useStub {
		logger.Fatal("--api-key is required (use --use-stub for a generated listing)")
	}
	if !*useMemory && *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required (use --use-memory for in-memory storage)")
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())

	// Create stores
	stores, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory, logger)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	// Create listing source
	source := createSource(*apiKey, *baseURL, *useStub)

	// Create runner
	runner := ingestion.NewRunner(ingestion.RunnerOptions{
		Source:        source,
		TokenStore:    stores.tokenStore,
		SnapshotStore: stores.snapshotStore,
		SettingStore:  stores.settingStore,
		Archive:       stores.archive,
		Logger:        log.New(os.Stdout, "[ingestion] ", log.LstdFlags|log.Lshortfile),
	})

	server := &Server{
		runInterval: *runInterval,
		runner:      runner,
		logger:      logger,
		started:     time.Now(),
	}

	// Channel to signal completion
	done := make(chan error, 1)

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		// Wait for second signal for immediate shutdown
		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
			// Normal shutdown completed
		}
	}()

	// Start HTTP server
	go server.startHTTPServer(*httpAddr)

	// Run the scheduler
	err = server.Run(ctx)
	done <- err
	cancel()

	if err != nil && err != context.Canceled {
		logger.Fatalf("Server error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// createStores creates all required stores, applying migrations for the
// database-backed ones. The ClickHouse archive is optional: without a DSN the
// service runs Postgres-only.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool, logger *log.Logger) (*allStores, func(), error) {
	if useMemory {
		stores := &allStores{
			tokenStore:    memory.NewTokenStore(),
			snapshotStore: memory.NewSnapshotStore(),
			settingStore:  memory.NewSettingStore(),
			archive:       memory.NewSnapshotArchive(),
		}
		return stores, func() {}, nil
	}

	// PostgreSQL
	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("run postgres migrations: %w", err)
	}

	stores := &allStores{
		tokenStore:    pgstore.NewTokenStore(pool),
		snapshotStore: pgstore.NewSnapshotStore(pool),
		settingStore:  pgstore.NewSettingStore(pool),
	}

	cleanup := func() { pool.Close() }

	// ClickHouse (optional)
	if clickhouseDSN != "" {
		chConn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
		if err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
		}
		stores.archive = chstore.NewSnapshotArchive(chConn)
		cleanup = func() {
			chConn.Close()
			pool.Close()
		}
	} else {
		logger.Println("No ClickHouse DSN set, snapshot archive disabled")
	}

	return stores, cleanup, nil
}

// createSource creates the listing source.
func createSource(apiKey, baseURL string, useStub bool) ingestion.ListingSource {
	if useStub {
		return stub.New()
	}

	var opts []marketdata.ClientOption
	if baseURL != "" {
		opts = append(opts, marketdata.WithBaseURL(baseURL))
	}
	return marketdata.NewClient(apiKey, opts...)
}

// Run executes ingestion immediately and then on every tick until the
// context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Printf("Starting ingestion scheduler (interval: %v)...", s.runInterval)

	s.runOnce(ctx)

	ticker := time.NewTicker(s.runInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

// runOnce executes a single ingestion run, skipping if one is in flight.
func (s *Server) runOnce(ctx context.Context) (*ingestion.Result, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.logger.Println("Ingestion already running, skipping...")
		return nil, errRunInFlight
	}
	s.running = true
	s.mu.Unlock()

	start := time.Now()
	result, err := s.runner.Run(ctx)

	s.mu.Lock()
	s.running = false
	s.lastRun = time.Now()
	s.runs++
	if result != nil {
		s.lastResult = result
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Printf("Ingestion error: %v", err)
		observability.RecordIngestionRun("error", time.Since(start).Seconds())
		return nil, err
	}

	observability.RecordIngestionRun("success", time.Since(start).Seconds())
	observability.RecordRunCounts(result.Processed, result.Created, result.Skipped, result.Errors)
	return result, nil
}

var errRunInFlight = errors.New("ingestion already running")

// startHTTPServer starts the HTTP server for health/metrics/status/admin.
func (s *Server) startHTTPServer(addr string) {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Prometheus metrics
	mux.Handle("/metrics", observability.Handler())

	// Status endpoint
	mux.HandleFunc("/status", s.handleStatus)

	// Manual run trigger
	mux.HandleFunc("/admin/run", s.handleAdminRun)

	s.logger.Printf("Starting HTTP server on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
		s.logger.Printf("HTTP server error: %v", err)
	}
}

// StatusResponse is the JSON response for /status endpoint.
type StatusResponse struct {
	Status     string            `json:"status"`
	Uptime     string            `json:"uptime"`
	Runs       int               `json:"runs"`
	Running    bool              `json:"running"`
	LastRun    time.Time         `json:"last_run,omitempty"`
	LastResult *ingestion.Result `json:"last_result,omitempty"`
}

// handleStatus returns server status as JSON.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	resp := StatusResponse{
		Status:     "running",
		Uptime:     time.Since(s.started).String(),
		Runs:       s.runs,
		Running:    s.running,
		LastRun:    s.lastRun,
		LastResult: s.lastResult,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// handleAdminRun triggers an out-of-schedule ingestion run and waits for it.
func (s *Server) handleAdminRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	result, err := s.runOnce(r.Context())
	if err != nil {
		if errors.Is(err, errRunInFlight) {
			http.Error(w, "ingestion already running", http.StatusConflict)
			return
		}
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}
