package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"notifeed/internal/auth"
	"notifeed/internal/cache"
	"notifeed/internal/db"
	"notifeed/internal/maintenance"
	"notifeed/internal/notification"
	"notifeed/internal/observability"
)

const defaultAvatarURL = "https://static.notifeed.dev/avatars/default.png"

type Options struct {
	LoadDotEnv    bool
	RunMigrations bool
}

type Runtime struct {
	Handler http.Handler
	Logger  *observability.Logger
	Close   func() error
}

// Build wires the whole service from the environment and returns the root
// HTTP handler. It is shared by the regular server entry and the serverless
// one.
func Build(options Options) (*Runtime, error) {
	if options.LoadDotEnv {
		_ = godotenv.Load()
	}

	logger := observability.NewLogger()

	databaseURL, err := mustEnv("DATABASE_URL")
	if err != nil {
		return nil, err
	}
	jwtSecret, err := mustEnv("JWT_SECRET")
	if err != nil {
		return nil, err
	}
	redisAddr, err := mustEnv("REDIS_ADDR")
	if err != nil {
		return nil, err
	}

	if err := observability.InitSentry(os.Getenv("SENTRY_DSN"), envOrDefault("APP_ENV", "development")); err != nil {
		logger.Error("init_sentry_failed", map[string]any{"error": err.Error()})
	}

	database, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	database.SetMaxOpenConns(envIntOrDefault("DB_MAX_OPEN_CONNS", 10))
	database.SetMaxIdleConns(envIntOrDefault("DB_MAX_IDLE_CONNS", 5))
	database.SetConnMaxLifetime(envMinutesOrDefault("DB_CONN_MAX_LIFETIME_MINUTES", 30))
	database.SetConnMaxIdleTime(envMinutesOrDefault("DB_CONN_MAX_IDLE_TIME_MINUTES", 10))

	if err := database.Ping(); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if options.RunMigrations {
		if err := db.RunMigrations(context.Background(), database); err != nil {
			_ = database.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	redisCache := cache.NewRedis(cache.RedisConfig{
		Addr:     redisAddr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       envIntOrDefault("REDIS_DB", 0),
	})
	if err := redisCache.Ping(context.Background()); err != nil {
		_ = database.Close()
		_ = redisCache.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	userRepo := auth.NewRepository(database, envOrDefault("DEFAULT_AVATAR_URL", defaultAvatarURL))
	whitelist := auth.NewWhitelist(redisCache)
	codec := auth.NewCodec(jwtSecret)
	authService := auth.NewService(userRepo, whitelist, codec)
	authService.WithTokenTTL(
		envMinutesOrDefault("ACCESS_TOKEN_TTL_MINUTES", 24*60),
		envHoursOrDefault("REFRESH_TOKEN_TTL_HOURS", 7*24),
	)
	authHandler := auth.NewHandler(authService)

	notificationRepo := notification.NewRepository(database)
	notificationHandler := notification.NewHandler(notificationRepo)

	revokeHandler := maintenance.NewRevokeHandler(authService, logger, os.Getenv("ADMIN_SECRET"))

	limiter := auth.NewRateLimiter(
		envIntOrDefault("LOGIN_RATE_LIMIT_MAX", 10),
		envSecondsOrDefault("LOGIN_RATE_LIMIT_WINDOW_SECONDS", 60),
	)

	mux := http.NewServeMux()
	mux.Handle("POST /auth/register", limiter.Middleware(http.HandlerFunc(authHandler.Register)))
	mux.Handle("POST /auth/login", limiter.Middleware(http.HandlerFunc(authHandler.Login)))
	mux.HandleFunc("POST /auth/refresh", authHandler.Refresh)
	mux.Handle("POST /notifications", auth.RequireUser(authService, http.HandlerFunc(notificationHandler.Create)))
	mux.Handle("GET /notifications", auth.RequireUser(authService, http.HandlerFunc(notificationHandler.List)))
	mux.Handle("DELETE /notifications", auth.RequireUser(authService, http.HandlerFunc(notificationHandler.Delete)))
	mux.HandleFunc("POST /internal/sessions/revoke", revokeHandler.Handle)
	mux.HandleFunc("GET /health", healthHandler(database, redisCache, logger))

	handler := observability.RecoverMiddleware(logger, observability.RequestLoggingMiddleware(logger, mux))

	return &Runtime{
		Handler: handler,
		Logger:  logger,
		Close: func() error {
			observability.FlushSentry()
			_ = redisCache.Close()
			return database.Close()
		},
	}, nil
}

// healthHandler probes both stores. Either one failing degrades the whole
// service to 503, but the body still says which one is down.
func healthHandler(database *sql.DB, redisCache *cache.Redis, logger *observability.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		databaseStatus := "ok"
		if err := database.PingContext(ctx); err != nil {
			databaseStatus = "fail"
			logger.Warn("health_database_failed", map[string]any{"error": err.Error()})
		}

		redisStatus := "ok"
		if err := redisCache.Ping(ctx); err != nil {
			redisStatus = "fail"
			logger.Warn("health_redis_failed", map[string]any{"error": err.Error()})
		}

		status := http.StatusOK
		if databaseStatus == "fail" || redisStatus == "fail" {
			status = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"database": databaseStatus,
			"redis":    redisStatus,
		})
	}
}

func mustEnv(name string) (string, error) {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return "", fmt.Errorf("missing required env: %s", name)
	}
	return value, nil
}

func envOrDefault(name, fallback string) string {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	return value
}

func envIntOrDefault(name string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 0 {
		return fallback
	}
	return parsed
}

func envMinutesOrDefault(name string, fallback int) time.Duration {
	return time.Duration(envIntOrDefault(name, fallback)) * time.Minute
}

func envHoursOrDefault(name string, fallback int) time.Duration {
	return time.Duration(envIntOrDefault(name, fallback)) * time.Hour
}

func envSecondsOrDefault(name string, fallback int) time.Duration {
	return time.Duration(envIntOrDefault(name, fallback)) * time.Second
}

func EnvBoolOrDefault(name string, fallback bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if value == "" {
		return fallback
	}

	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
