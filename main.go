package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"

	database "github.com/voyago/tripweaver/app/db"
	appLogger "github.com/voyago/tripweaver/app/logger"
	"github.com/voyago/tripweaver/app/observability/metrics"
	"github.com/voyago/tripweaver/app/tracer"
	"github.com/voyago/tripweaver/config"
	generativeAI "github.com/voyago/tripweaver/internal/api/generative_ai"
	"github.com/voyago/tripweaver/internal/api/knowledge"
	"github.com/voyago/tripweaver/internal/api/livecache"
	"github.com/voyago/tripweaver/internal/api/livedata"
	"github.com/voyago/tripweaver/internal/api/planner"
	api "github.com/voyago/tripweaver/internal/router"
)

func main() {
	// Use standard log until slog is configured, in case godotenv fails
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found or error loading:", err)
	}

	cfg, err := config.InitConfig()
	if err != nil {
		log.Fatalf("FATAL: Error initializing config: %v", err)
	}

	logger := setupLogger(cfg.Mode)
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// --- Observability ---
	tracer.InitTracingAndMetrics(cfg.Handlers.Prometheus.Port)
	metrics.InitAppMetrics()

	// --- Database ---
	dbConfig, err := database.NewDatabaseConfig(&cfg, logger)
	if err != nil {
		logger.Error("Failed to generate database config", slog.Any("error", err))
		os.Exit(1)
	}

	if err = database.RunMigrations(dbConfig.ConnectionURL, logger); err != nil {
		logger.Error("Failed to run database migrations", slog.Any("error", err))
		os.Exit(1)
	}

	pool, err := database.Init(dbConfig.ConnectionURL, logger)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	if !database.WaitForDB(ctx, pool, logger) {
		logger.Error("Database not ready after waiting, exiting.")
		os.Exit(1)
	}

	// --- Gemini clients ---
	aiClient, err := generativeAI.NewAIClient(ctx, cfg.Gemini.Model)
	if err != nil {
		logger.Error("Failed to initialize generative AI client", slog.Any("error", err))
		os.Exit(1)
	}
	embedder, err := generativeAI.NewEmbeddingService(ctx, cfg.Gemini.EmbeddingModel, logger)
	if err != nil {
		logger.Error("Failed to initialize embedding service", slog.Any("error", err))
		os.Exit(1)
	}

	// --- Dependency injection ---
	knowledgeRepo := knowledge.NewPostgresRepository(pool, logger)
	knowledgeService := knowledge.NewServiceImpl(knowledgeRepo, embedder, logger)

	cacheRepo := livecache.NewPostgresRepository(pool, cfg.Cache.FlightsTTL, cfg.Cache.EventsTTL, logger)
	cacheHandler := livecache.NewHandler(cacheRepo, logger)

	weatherClient := livedata.NewWeatherClient(
		cfg.LiveData.GeocodeURL, cfg.LiveData.ForecastURL,
		cfg.LiveData.GeocodeTimeout, cfg.LiveData.ForecastTimeout, logger)
	poiClient := livedata.NewPOIClient(cfg.LiveData.OverpassURL, cfg.LiveData.OverpassTimeout, logger)
	flightsClient := livedata.NewFlightsClient(cfg.LiveData.FlightsURL, cfg.LiveData.FlightsTimeout, logger)
	eventsClient := livedata.NewEventsClient(cfg.LiveData.FixturesURL, cfg.LiveData.FixturesTimeout, logger)
	liveDataService := livedata.NewServiceImpl(weatherClient, poiClient, flightsClient, eventsClient, cacheRepo, logger)

	plannerService := planner.NewServiceImpl(
		knowledgeService, liveDataService, aiClient,
		cfg.Retriever.TopK, cfg.Retriever.ScoreThreshold, logger)
	plannerHandler := planner.NewHandler(plannerService, logger)

	// --- Router ---
	mainRouter := api.SetupRouter(&api.Config{
		PlannerHandler: plannerHandler,
		CacheHandler:   cacheHandler,
	})

	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(appLogger.StructuredLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.StripSlashes)
	router.Use(middleware.Timeout(60 * time.Second))
	router.Use(middleware.Compress(5, "application/json"))
	router.Mount("/", mainRouter)

	// --- HTTP server ---
	serverAddress := fmt.Sprintf(":%s", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         serverAddress,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	go func() {
		logger.Info("Starting HTTP server", slog.String("address", serverAddress))
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server ListenAndServe error", slog.Any("error", err))
			cancel()
		}
	}()

	<-ctx.Done()

	logger.Info("Shutdown signal received, starting graceful shutdown...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server graceful shutdown failed", slog.Any("error", err))
	} else {
		logger.Info("HTTP server gracefully stopped")
	}

	logger.Info("Application shut down complete.")
}

func setupLogger(mode string) *slog.Logger {
	if mode == "development" {
		return slog.New(tint.NewHandler(os.Stdout, &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: time.Kitchen,
			AddSource:  true,
		}))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}
