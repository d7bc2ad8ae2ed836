package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/XavierBriggs/Augur/adapters/feed"
	"github.com/XavierBriggs/Augur/adapters/tabular"
	"github.com/XavierBriggs/Augur/internal/board"
	"github.com/XavierBriggs/Augur/internal/config"
	"github.com/XavierBriggs/Augur/internal/delta"
	"github.com/XavierBriggs/Augur/internal/handlers"
	"github.com/XavierBriggs/Augur/internal/insights"
	"github.com/XavierBriggs/Augur/internal/logging"
	"github.com/XavierBriggs/Augur/internal/missreport"
	"github.com/XavierBriggs/Augur/internal/processor"
	"github.com/XavierBriggs/Augur/internal/registry"
	"github.com/XavierBriggs/Augur/internal/scheduler"
	"github.com/XavierBriggs/Augur/internal/teams"
	"github.com/XavierBriggs/Augur/internal/writer"
	"github.com/XavierBriggs/Augur/sports"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load configuration from environment
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("✗ failed to load config: %v\n", err)
		os.Exit(1)
	}

	logFormat := cfg.LogFormat
	if logFormat == "" && cfg.IsProduction() {
		logFormat = "json"
	}
	log := logging.InitLogger(cfg.LogLevel, logFormat)

	// Load reference tables
	tables, err := loadTables(cfg.TablesDir)
	if err != nil {
		fmt.Printf("✗ failed to load reference tables: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✓ Loaded reference tables for %d sport(s)\n", len(tables.Sports()))

	// Initialize Postgres connection
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		fmt.Printf("✗ failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	// Test DB connection
	if err := db.PingContext(ctx); err != nil {
		fmt.Printf("✗ failed to ping database: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("✓ Connected to Postgres")

	// Initialize Redis connection
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		fmt.Printf("✗ invalid REDIS_URL: %v\n", err)
		os.Exit(1)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	// Test Redis connection
	if err := redisClient.Ping(ctx).Err(); err != nil {
		fmt.Printf("✗ failed to connect to Redis: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("✓ Connected to Redis")

	// Initialize sport registry and register every sport module
	sportRegistry := registry.NewSportRegistry()
	for _, m := range sports.AllModules() {
		if err := sportRegistry.Register(m); err != nil {
			fmt.Printf("✗ failed to register %s module: %v\n", m.GetSportCode(), err)
			os.Exit(1)
		}
	}

	fmt.Printf("✓ Registered %d sport(s)\n", sportRegistry.Count())

	// Pipeline
	ledger := teams.NewMissLedger()
	proc, err := processor.Assemble(processor.Options{
		Tables:        tables,
		Registry:      sportRegistry,
		Ledger:        ledger,
		Grace:         cfg.GraceBuffer,
		Logger:        log,
		SuggestMisses: cfg.SuggestMisses,
	})
	if err != nil {
		fmt.Printf("✗ failed to assemble pipeline: %v\n", err)
		os.Exit(1)
	}

	feedClient := feed.NewClient(feed.Config{
		URL:      cfg.FeedURL,
		APIKey:   cfg.FeedAPIKey,
		Timeout:  cfg.FeedTimeout,
		Attempts: cfg.FeedRetries,
	}, logging.Component(log, "feed"))

	fmt.Printf("✓ Initialized %s feed adapter\n", cfg.FeedFormat)

	deltaEngine := delta.NewEngine(redisClient, cfg.LineCacheTTL)
	boards := board.NewStore(redisClient, cfg.BoardCacheTTL)

	sched := scheduler.NewScheduler(scheduler.Config{
		Schedule:           cfg.RefreshSchedule,
		MissReportInterval: cfg.MissReportInterval,
		Tabular:            cfg.FeedFormat == config.FormatTabular,
	}, scheduler.Deps{
		Feed:      feedClient,
		Adapter:   tabular.NewAdapter(logging.Component(log, "tabular")),
		Processor: proc,
		Delta:     deltaEngine,
		Writer:    writer.NewWriter(db, redisClient, logging.Component(log, "writer")),
		Boards:    boards,
		Misses:    missreport.NewReporter(db, ledger, logging.Component(log, "missreport")),
	}, logging.Component(log, "scheduler"))

	// Start scheduler
	if err := sched.Start(ctx); err != nil {
		fmt.Printf("✗ failed to start scheduler: %v\n", err)
		os.Exit(1)
	}

	insightClient := insights.NewClient(insights.Config{
		URL:     cfg.InsightsURL,
		APIKey:  cfg.AIGatewayKey,
		Timeout: cfg.InsightsTimeout,
	}, logging.Component(log, "insights"))

	if insightClient.IsEnabled() {
		fmt.Println("✓ AI gateway configured")
	} else {
		fmt.Println("  AI gateway not configured, insights use fallback text")
	}

	handler := handlers.NewHandler(handlers.Deps{
		Boards:      boards,
		Refresher:   sched,
		Movements:   deltaEngine,
		Insights:    insightClient,
		Ledger:      ledger,
		Matcher:     teams.NewFuzzyMatcher(tables),
		AdminSecret: cfg.AdminSecret,
	}, logging.Component(log, "api"))

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handlers.NewRouter(handler, cfg.CorsOrigins),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Printf("✗ HTTP server error: %v\n", err)
			os.Exit(1)
		}
	}()

	fmt.Println("✓ Augur started - refreshing board")
	fmt.Printf("  Schedule: %s\n", cfg.RefreshSchedule)
	fmt.Printf("  Grace buffer: %v\n", cfg.GraceBuffer)
	fmt.Printf("  Board cache TTL: %v\n", cfg.BoardCacheTTL)
	fmt.Printf("  Listening on :%s\n", cfg.Port)
	fmt.Println()

	// Show registered sports
	for _, sport := range sportRegistry.GetAll() {
		kickoff, network := sport.GetDefaultSlot()
		fmt.Printf("  [%s] aliases=%v default=%s %s\n", sport.GetDisplayName(), sport.GetAliases(), kickoff, network)
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	fmt.Println("\n✓ Shutting down gracefully...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		fmt.Printf("✗ HTTP shutdown error: %v\n", err)
	}

	cancel()
	sched.Stop()

	select {
	case <-shutdownCtx.Done():
		fmt.Println("✗ Shutdown timeout exceeded")
		os.Exit(1)
	default:
		fmt.Println("✓ Augur stopped")
	}
}

// loadTables reads reference tables from dir, or the embedded set when dir is empty
func loadTables(dir string) (*sports.Tables, error) {
	if dir == "" {
		return sports.DefaultTables()
	}
	return sports.LoadTablesDir(dir)
}
