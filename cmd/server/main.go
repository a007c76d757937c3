package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"ridepool/internal/app"
	"ridepool/internal/auth"
	"ridepool/internal/config"
	"ridepool/internal/handler"
	internalRedis "ridepool/internal/redis"
	"ridepool/internal/repository/postgres"
	"ridepool/internal/service"
)

const serviceName = "ridepool-admin"

func main() {
	// Load configuration.
	cfg := config.Load()
	app.InitLogger(serviceName, cfg.Log)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	var err error
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			log.Warn().Err(err).Msg("failed to initialize New Relic")
		} else {
			log.Info().Str("app", cfg.NewRelic.AppName).Msg("New Relic enabled")
		}
	}

	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()
	log.Info().Str("host", cfg.Database.Host).Str("db", cfg.Database.DBName).Msg("connected to PostgreSQL")

	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Str("addr", cfg.Redis.Addr).Msg("connected to Redis")

	server := wireServer(db, redisClient, nrApp, cfg)

	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	if nrApp != nil {
		nrApp.Shutdown(5 * time.Second)
	}

	log.Info().Msg("server exited")
}

// wireServer wires all dependencies and returns the HTTP server.
func wireServer(db *sql.DB, redisClient *redis.Client, nrApp *newrelic.Application, cfg *config.Config) *http.Server {
	// Redis stores.
	statsCache := internalRedis.NewStatsCache(redisClient, cfg.Cache.StatsTTL)
	revocations := internalRedis.NewRevocationStore(redisClient)
	responses := internalRedis.NewResponseStore(redisClient, cfg.Cache.IdempotencyTTL)

	// Repositories.
	userRepo := postgres.NewUserRepository(db)
	rideRepo := postgres.NewRideRepository(db)
	ratingRepo := postgres.NewRatingRepository(db)
	messageRepo := postgres.NewMessageRepository(db)
	auditRepo := postgres.NewAuditRepository(db)
	txManager := postgres.NewTxManager(db)

	// Auth.
	tokens := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	hasher := auth.NewBcryptHasher(cfg.Auth.BcryptCost)
	gate := auth.NewGate(userRepo)

	// Services.
	moderationService := service.NewModerationService(txManager, statsCache)
	roleService := service.NewRoleService(txManager)
	statsService := service.NewStatsService(userRepo, rideRepo, ratingRepo, statsCache)
	dashboardService := service.NewDashboardService(userRepo, rideRepo, ratingRepo, messageRepo, auditRepo)
	accountService := service.NewAccountService(userRepo, hasher, tokens, revocations, cfg.Auth.AllowAdminSignup)

	// Handlers.
	adminHandler := handler.NewAdminHandler(moderationService, roleService, statsService, dashboardService)
	accountHandler := handler.NewAccountHandler(accountService, statsService)

	router := app.NewRouter(app.RouterDeps{
		AdminHandler:   adminHandler,
		AccountHandler: accountHandler,
		Tokens:         tokens,
		Gate:           gate,
		Revocations:    revocations,
		Responses:      responses,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		NewRelicApp:    nrApp,
	})

	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}
