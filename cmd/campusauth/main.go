package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	adapthttp "campusauth/internal/adapter/http"
	"campusauth/internal/adapter/postgres"
	redisadapter "campusauth/internal/adapter/redis"
	"campusauth/internal/app"
	"campusauth/internal/domain"
	"campusauth/internal/notify"

	"github.com/joho/godotenv"
)

func main() {
	// Optional .env overlay for local development; real deployments set the
	// environment directly.
	_ = godotenv.Load()

	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	addr := env("ADDR", ":8080")
	webDir := env("WEB_DIR", "web")

	connStr := os.Getenv("DATABASE_URL")
	if connStr == "" {
		log.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	db, err := postgres.Open(connStr)
	if err != nil {
		log.Error("db open failed", "err", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	var sessionRepo domain.SessionRepository = postgres.NewSessionRepo(db)
	if env("SESSION_BACKEND", "postgres") == "redis" {
		client, err := redisadapter.Open(context.Background(), env("REDIS_ADDR", "localhost:6379"))
		if err != nil {
			log.Error("redis open failed", "err", err)
			os.Exit(1)
		}
		defer func() { _ = client.Close() }()
		sessionRepo = redisadapter.NewSessionRepo(client)
	}

	// Sweep sessions that expired while the service was down.
	sweepCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := sessionRepo.DeleteExpired(sweepCtx); err != nil {
		log.Warn("expired session sweep failed", "err", err)
	}
	cancel()

	passwords := app.NewPasswordGateway(env("BREACH_ENDPOINT", app.DefaultBreachEndpoint), nil)
	notifier := notify.NewLogNotifier(log)

	authSvc := app.NewAuthService(
		db,
		sessionRepo,
		postgres.NewEmailVerificationRepo(db),
		postgres.NewPasswordResetRepo(db),
		passwords,
		notifier,
		app.DefaultAuthConfig(),
		log,
	)

	cfg := adapthttp.DefaultConfig(webDir)
	cfg.SecureCookies = env("ENV", "production") == "production"
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = strings.Split(origins, ",")
	}

	h := adapthttp.New(authSvc, cfg, log).Handler()
	log.Info("listening", "addr", addr)
	if err := http.ListenAndServe(addr, h); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server exited", "err", err)
		os.Exit(1)
	}
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
