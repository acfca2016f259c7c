package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"

	"fipe-market-price/internal/analyzer"
	"fipe-market-price/internal/database"
	"fipe-market-price/internal/fipe"
	"fipe-market-price/internal/repository"
	"fipe-market-price/internal/scraper"
)

func main() {
	_ = godotenv.Load()

	var (
		// Database flags
		dbHost     = flag.String("db-host", getEnv("DB_HOST", "localhost"), "Database host")
		dbPort     = flag.Int("db-port", getEnvInt("DB_PORT", 5432), "Database port")
		dbName     = flag.String("db-name", getEnv("DB_NAME", "fipe_market"), "Database name")
		dbUser     = flag.String("db-user", getEnv("DB_USER", "fipe"), "Database user")
		dbPassword = flag.String("db-password", getEnv("DB_PASSWORD", ""), "Database password")
		dbSSLMode  = flag.String("db-sslmode", getEnv("DB_SSLMODE", "disable"), "Database SSL mode")

		// FIPE API flags
		fipeBaseURL   = flag.String("fipe-url", getEnv("FIPE_BASE_URL", "https://veiculos.fipe.org.br/api/veiculos"), "FIPE API base URL")
		fipeRateLimit = flag.Float64("fipe-rate", getEnvFloat("FIPE_RATE_LIMIT", 0.5), "FIPE requests per second")

		// Batch flags
		workers         = flag.Int("workers", 5, "Number of concurrent workers")
		batchSize       = flag.Int("batch-size", 200, "Listings fetched per database page")
		checkpointEvery = flag.Int("checkpoint-every", 100, "Save checkpoint every N listings")
		checkpointFile  = flag.String("checkpoint-file", "pricing_checkpoint.json", "Checkpoint file path")
		resumeOffset    = flag.Int("resume-offset", -1, "Resume from specific offset (-1 uses checkpoint)")
		dryRun          = flag.Bool("dry-run", false, "Dry run mode (don't call the FIPE API or write prices)")
		retype          = flag.Bool("retype", false, "Only reclassify vehicle types, skip pricing")
		monitorPort     = flag.Int("monitor-port", 9090, "HTTP monitoring server port")
		noMonitor       = flag.Bool("no-monitor", false, "Disable HTTP monitoring")
		logLevel        = flag.String("log-level", getEnv("LOG_LEVEL", "info"), "Log level (debug, info, warn, error)")
	)

	flag.Parse()

	if *dbPassword == "" {
		fmt.Fprintln(os.Stderr, "Error: database password is required (use -db-password or DB_PASSWORD env)")
		os.Exit(1)
	}

	logger := setupLogger(*logLevel)

	mode := scraper.ModePrice
	if *retype {
		mode = scraper.ModeRetype
	}

	logger.Info("starting FIPE pricing batch",
		"db_host", *dbHost,
		"db_name", *dbName,
		"mode", mode,
		"workers", *workers,
		"fipe_rate", *fipeRateLimit,
		"dry_run", *dryRun,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("received signal, shutting down gracefully", "signal", sig)
		cancel()
	}()

	dbConfig := database.ConnectionConfig{
		Host:     *dbHost,
		Port:     *dbPort,
		Database: *dbName,
		User:     *dbUser,
		Password: *dbPassword,
		SSLMode:  *dbSSLMode,
		MaxConns: 25,
		MinConns: 5,
	}

	dbPool, err := database.Connect(ctx, dbConfig)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	logger.Info("connected to database")

	if err := database.RunMigrations(ctx, dbPool); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	logger.Info("database migrations completed")

	veiculoRepo := repository.NewVeiculoRepo(dbPool)
	falhaRepo := repository.NewScrapeFailureRepo(dbPool)

	a := analyzer.New(analyzer.DefaultTables())
	fipeClient := fipe.NewClientWithBaseURL(*fipeBaseURL, *fipeRateLimit)
	defer fipeClient.Close()
	resolver := fipe.NewResolver(fipeClient, a, logger)

	batchConfig := scraper.Config{
		Mode:             mode,
		Workers:          *workers,
		BatchSize:        *batchSize,
		CheckpointEvery:  *checkpointEvery,
		CheckpointFile:   *checkpointFile,
		ResumeOffset:     *resumeOffset,
		DryRun:           *dryRun,
		HTTPMonitorPort:  *monitorPort,
		EnableMonitoring: !*noMonitor,
	}

	batchService := scraper.NewService(batchConfig, veiculoRepo, resolver, a, logger)
	batchService.SetFailureRepo(falhaRepo)

	if err := batchService.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info("batch cancelled")
			os.Exit(0)
		}
		logger.Error("batch failed", "error", err)
		os.Exit(1)
	}

	logger.Info("batch completed successfully")
}

// setupLogger creates a structured logger with the specified level
func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}
