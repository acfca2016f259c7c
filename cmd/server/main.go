package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"fipe-market-price/internal/analyzer"
	"fipe-market-price/internal/config"
	"fipe-market-price/internal/database"
	"fipe-market-price/internal/fipe"
	"fipe-market-price/internal/handler"
	"fipe-market-price/internal/service"
)

func main() {
	// Logger estruturado
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	slog.Info("iniciando fipe-market-price")

	// Carregar config
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Conectar banco
	slog.Info("conectando ao banco de dados", "host", cfg.Database.Host, "database", cfg.Database.Name)
	db, err := database.Connect(ctx, database.ConnectionConfig{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		Database: cfg.Database.Name,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		SSLMode:  cfg.Database.SSLMode,
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	})
	if err != nil {
		slog.Error("falha ao conectar banco", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("conexao com banco estabelecida")

	if err := database.RunMigrations(ctx, db); err != nil {
		slog.Error("falha ao executar migrations", "error", err)
		os.Exit(1)
	}

	// Analise e resolucao de precos
	a := analyzer.New(analyzer.DefaultTables())
	fipeClient := fipe.NewClientWithBaseURL(cfg.Fipe.BaseURL, cfg.Fipe.RateLimit)
	defer fipeClient.Close()
	resolver := fipe.NewResolver(fipeClient, a, logger)

	analysisSvc := service.NewAnalysisService(a, resolver, logger)

	// Handlers
	healthHandler := handler.NewHealthHandler(db)
	analyzeHandler := handler.NewAnalyzeHandler(analysisSvc)

	// Router
	r := chi.NewRouter()

	// Middlewares
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	// CORS middleware
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	})

	// Routes
	r.Get("/health", healthHandler.Check)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/analyze", analyzeHandler.Analyze)
		r.Post("/price", analyzeHandler.Price)
	})

	// Server
	srv := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		slog.Info("servidor iniciado", "port", cfg.APIPort)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("erro no servidor", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("encerrando servidor...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("erro ao encerrar servidor", "error", err)
	}

	slog.Info("servidor encerrado")
}
