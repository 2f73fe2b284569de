package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/cjenolov/route-service/config"
	"github.com/cjenolov/route-service/internal/database"
	"github.com/cjenolov/route-service/internal/handlers"
	"github.com/cjenolov/route-service/internal/middleware"
	"github.com/cjenolov/route-service/internal/provider"
	"github.com/cjenolov/route-service/internal/routing"
	"github.com/cjenolov/route-service/internal/telemetry"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := initLogger(cfg.Logging)

	logger.Info().Msg("Starting route service")

	ctx := context.Background()

	cleanup := telemetry.MustInit(ctx, telemetry.Config{
		Enabled:     cfg.Telemetry.Enabled,
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
		ServiceName: cfg.Telemetry.ServiceName,
	})
	defer cleanup(ctx)

	dbURL := config.GetDatabaseURL()
	if dbURL == "" {
		logger.Fatal().Msg("DATABASE_URL not set")
	}

	if err := database.Connect(
		ctx,
		dbURL,
		cfg.Database.MaxConnections,
		cfg.Database.MinConnections,
		cfg.Database.MaxConnLifetime,
		cfg.Database.MaxConnIdleTime,
	); err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer database.Close()

	logger.Info().Msg("Database connected")

	service := buildService(cfg)
	handlers.InitService(service)

	if cfg.Logging.Level == "info" || cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	setupMiddleware(router, logger)

	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	internal := router.Group("/internal")
	internal.Use(middleware.InternalAuthMiddleware(apiKey(cfg)))
	internal.Use(middleware.ServiceRateLimitMiddleware(
		float64(cfg.RateLimit.RequestsPerSecond), cfg.RateLimit.Burst))
	{
		internal.GET("/health", handlers.HealthCheck)

		route := internal.Group("/route")
		{
			route.POST("/optimize", handlers.OptimizeRoute)
			route.POST("/comparison", handlers.CompareStores)
		}
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info().Str("addr", addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited")
}

// buildService wires the routing service from configuration.
func buildService(cfg *config.Config) *routing.Service {
	optCfg := routing.DefaultConfig()
	optCfg.SearchRadiusKm = cfg.Optimizer.SearchRadiusKm
	optCfg.MaxCandidateStores = cfg.Optimizer.MaxCandidateStores
	optCfg.MaxItems = cfg.Optimizer.MaxItems
	optCfg.HouseBrandBonus = cfg.Optimizer.HouseBrandBonus
	optCfg.MaxStops = cfg.Optimizer.MaxStops
	optCfg.MaxExtraDistanceKm = cfg.Optimizer.MaxExtraDistanceKm
	optCfg.MinMultiSavings = cfg.Optimizer.MinMultiSavings
	optCfg.MinMultiSavingsPct = cfg.Optimizer.MinMultiSavingsPct
	optCfg.CacheTTL = cfg.Optimizer.CacheTTL
	optCfg.FetchConcurrency = cfg.Optimizer.FetchConcurrency

	var planner routing.RoutePlanner = provider.StraightLinePlanner{}
	if cfg.Routing.OSRMURL != "" {
		planner = provider.NewOSRMPlanner(
			cfg.Routing.OSRMURL,
			cfg.Routing.RequestsPerSecond,
			cfg.Routing.MaxRetries,
		)
	}

	dataProvider := provider.NewPostgresProvider(database.Pool())
	return routing.NewService(dataProvider, planner, routing.DefaultChainRegistry(), optCfg)
}

func apiKey(cfg *config.Config) string {
	if cfg.Server.APIKey != "" {
		return cfg.Server.APIKey
	}
	return os.Getenv("INTERNAL_API_KEY")
}

func initLogger(cfg config.LoggingConfig) *zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var output io.Writer
	if cfg.Format == "json" {
		output = os.Stdout
	} else {
		output = zerolog.ConsoleWriter{Out: os.Stdout, NoColor: cfg.NoColor}
	}

	logger := zerolog.New(output).Level(level).With().Timestamp().Str("service", "route-service").Logger()
	return &logger
}

func setupMiddleware(router *gin.Engine, logger *zerolog.Logger) {
	router.Use(middleware.RequestIDMiddleware())
	router.Use(func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		end := time.Now()
		latency := end.Sub(start)

		logger.Info().
			Str("request_id", middleware.RequestID(c)).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("query", query).
			Int("status", c.Writer.Status()).
			Dur("latency", latency).
			Str("ip", c.ClientIP()).
			Msg("HTTP request")
	})
}
