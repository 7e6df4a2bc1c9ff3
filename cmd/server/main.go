package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"auth-api-template/internal/auth/service"
	"auth-api-template/internal/config"
	"auth-api-template/internal/db"
	dbmigrate "auth-api-template/internal/db/migrate"
	healthhandler "auth-api-template/internal/health/handler"
	"auth-api-template/internal/logger"
	"auth-api-template/internal/security"
	"auth-api-template/internal/server"
	"auth-api-template/internal/telemetry/otel"
	"auth-api-template/internal/tokenstore"
	"auth-api-template/internal/user/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New(slog.LevelInfo).Fatal("config", "error", err.Error())
	}

	level := slog.LevelInfo
	if cfg.Env == "development" {
		level = slog.LevelDebug
	}
	log := logger.New(level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	providers, err := otel.NewProviders(ctx, cfg.OTLPEndpoint, "auth-api", false)
	if err != nil {
		log.Fatal("telemetry", "error", err.Error())
	}
	providers.SetGlobal()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			log.Warn("telemetry shutdown", "error", err.Error())
		}
	}()

	if err := dbmigrate.Run(cfg.DatabaseURL, "up"); err != nil {
		log.Fatal("migrate", "error", err.Error())
	}

	pool, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("postgres", "error", err.Error())
	}
	defer pool.Close()

	store, redisClient := newTokenStore(ctx, cfg, log)
	defer func() { _ = store.Dispose() }()

	users := repository.NewPostgresRepository(pool)
	hasher := security.NewHasher(cfg.BcryptCost)
	tokens := security.NewTokenProvider([]byte(cfg.JWTSecret), cfg.JWTIssuer, cfg.JWTAudience,
		cfg.AccessTTL(), cfg.RefreshTTL())
	authSvc := service.NewAuthService(users, hasher, tokens, store, log)

	checks := map[string]healthhandler.Check{
		"postgres": pool.Ping,
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}

	router := server.New(server.Deps{
		Auth:         authSvc,
		HealthChecks: checks,
		Log:          log,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("http server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("serve", "error", err.Error())
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", "error", err.Error())
	}
	log.Info("stopped")
}

// newTokenStore connects to Redis when configured, falling back to the
// process-local store otherwise. The fallback loses revocations on restart and
// must not be used with more than one instance.
func newTokenStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (tokenstore.Store, *redis.Client) {
	if cfg.RedisAddr != "" {
		client, err := tokenstore.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err == nil {
			log.Info("token store: redis", "addr", cfg.RedisAddr)
			return tokenstore.NewRedisStore(client), client
		}
		log.Warn("redis unavailable, using in-memory token store", "error", err.Error())
	} else {
		log.Warn("REDIS_ADDR not set, using in-memory token store")
	}
	return tokenstore.NewMemoryStore(0), nil
}
