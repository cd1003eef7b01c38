package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"

	"github.com/stackit/backend/internal/config"
	"github.com/stackit/backend/internal/handlers"
	"github.com/stackit/backend/internal/logging"
	"github.com/stackit/backend/internal/realtime"
	"github.com/stackit/backend/internal/services"
	"github.com/stackit/backend/internal/storage"
)

const (
	shutdownTimeout = 15 * time.Second

	mailBreakerFailures = 5
	mailBreakerOpenFor  = 30 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logging.Logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func openStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	if cfg.MongoURI != "" {
		logging.Logger.Info("using MongoDB store", "db", cfg.MongoDB)
		return storage.NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDB)
	}
	logging.Logger.Info("MONGO_URI not set, using in-memory store", "data_dir", cfg.DataDir)
	return storage.NewPersistentMemoryStore(cfg.DataDir)
}

func run(ctx context.Context, cfg *config.Config) error {
	clock := clockwork.NewRealClock()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			logging.Logger.Warn("store close failed", "error", err)
		}
	}()

	hub := realtime.NewHub(clock, cfg.AllowedOrigins)

	// Without Redis the hub delivers directly; with it every instance
	// publishes to Redis and relays user_* messages into its own hub.
	var notifier services.Notifier = hub
	if cfg.RedisURL != "" {
		rdb, err := realtime.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer rdb.Close()
		notifier = realtime.NewRedisNotifier(rdb)
		go runRelay(ctx, rdb, hub)
	}

	var mailer services.Mailer
	if cfg.MailEnabled() {
		mailer = services.NewBreakerMailer(
			services.NewSendGridMailer(cfg.SendGridAPIKey, cfg.NotifyFromEmail),
			mailBreakerFailures, mailBreakerOpenFor,
		)
	}
	var captcha services.CaptchaVerifier
	if cfg.RecaptchaSecret != "" {
		captcha = services.NewRecaptchaVerifier(cfg.RecaptchaSecret)
	}

	reputation := services.NewReputationService(store, clock)
	notifications := services.NewNotificationService(store, notifier, mailer, clock).WithBaseURL(cfg.FrontendURL)
	users := services.NewUserService(store, captcha, clock)

	router := handlers.NewRouter(handlers.RouterConfig{
		JWTSecret:      cfg.JWTSecret,
		AllowedOrigins: cfg.AllowedOrigins,
		RequestTimeout: cfg.RequestTimeout,
	}, handlers.Services{
		Questions:     services.NewQuestionService(store, clock),
		Answers:       services.NewAnswerService(store, reputation, notifications, clock),
		Voting:        services.NewVotingService(store, reputation, clock),
		Users:         users,
		Tags:          services.NewTagService(store, clock),
		Notifications: notifications,
		Admin:         services.NewAdminService(store, clock),
	}, hub)

	srv := &http.Server{
		Addr:              cfg.ServerAddress,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Logger.Info("StackIt API server starting", "addr", cfg.ServerAddress)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logging.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	// Hijacked websocket connections are not tracked by Shutdown.
	hub.Close()
	return srv.Shutdown(shutdownCtx)
}

func runRelay(ctx context.Context, rdb *redis.Client, hub *realtime.Hub) {
	relay := realtime.NewRelay(rdb, hub)
	for {
		err := relay.Run(ctx, nil)
		if ctx.Err() != nil {
			return
		}
		logging.Logger.Warn("redis relay stopped, restarting", "error", err)
		select {
		case <-ctx.Done():
			return
		case <-time.After(2 * time.Second):
		}
	}
}
