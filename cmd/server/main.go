package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bitovskii/meetup-app-sub000/config"
	"github.com/bitovskii/meetup-app-sub000/internal/health"
	"github.com/bitovskii/meetup-app-sub000/internal/infrastructure/memory"
	"github.com/bitovskii/meetup-app-sub000/internal/infrastructure/postgres"
	ctxlog "github.com/bitovskii/meetup-app-sub000/internal/log"
	"github.com/bitovskii/meetup-app-sub000/internal/metrics"
	"github.com/bitovskii/meetup-app-sub000/internal/repository"
	"github.com/bitovskii/meetup-app-sub000/internal/sweeper"
	"github.com/bitovskii/meetup-app-sub000/internal/telegram"
	httptransport "github.com/bitovskii/meetup-app-sub000/internal/transport/http"
	"github.com/bitovskii/meetup-app-sub000/internal/transport/http/handler"
	"github.com/bitovskii/meetup-app-sub000/internal/usecase"
	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := newLogger(cfg.Env, cfg.SlogLevel())

	if cfg.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	var (
		tokenRepo   repository.TokenRepository
		sessionRepo repository.SessionRepository
		pinger      health.Pinger
	)
	if cfg.DatabaseURL != "" {
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			stop()
			log.Fatalf("db: %v", err)
		}
		defer pool.Close()
		tokenRepo = postgres.NewTokenRepository(pool)
		sessionRepo = postgres.NewSessionRepository(pool)
		pinger = pool
	} else {
		logger.Warn("no DATABASE_URL, using in-memory stores (single process only)")
		tokenRepo = memory.NewTokenRepository()
		sessionRepo = memory.NewSessionRepository()
	}

	notifier := newNotifier(cfg, logger)

	sessionUsecase := usecase.NewSessionUsecase(sessionRepo, []byte(cfg.JWTSecret), cfg.SessionTTL)
	tokenUsecase := usecase.NewTokenUsecase(tokenRepo, sessionUsecase, cfg.BotName, cfg.TokenTTL)
	webhookUsecase := usecase.NewWebhookUsecase(tokenUsecase, notifier, logger, cfg.ConfirmPrompt)

	tokenHandler := handler.NewTokenHandler(tokenUsecase, logger)
	webhookHandler := handler.NewWebhookHandler(webhookUsecase, logger)
	sessionHandler := handler.NewSessionHandler(sessionUsecase, logger)

	metrics.Register()
	checker := health.NewChecker(pinger, logger, prometheus.DefaultRegisterer)

	sw := sweeper.New(tokenRepo, sessionRepo, logger, cfg.SweepInterval, cfg.TokenRetention)
	go sw.Start(ctx)

	srv := http.Server{
		Addr:    ":" + cfg.Port,
		Handler: httptransport.NewRouter(logger, tokenHandler, webhookHandler, sessionHandler, []byte(cfg.JWTSecret)),
	}

	metricsSrv := metrics.NewServer(":"+cfg.MetricsPort, checker)

	go func() {
		logger.Info("server started", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	go func() {
		logger.Info("metrics server started", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	<-ctx.Done()
	stop()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}
}

func newNotifier(cfg *config.Config, logger *slog.Logger) telegram.Notifier {
	if cfg.BotToken == "" {
		return telegram.NewLogNotifier(logger)
	}
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		log.Fatalf("telegram bot: %v", err)
	}
	logger.Info("telegram bot authorized", "bot", bot.Self.UserName)
	return telegram.NewBotNotifier(bot)
}

func newLogger(env string, level slog.Level) *slog.Logger {
	var inner slog.Handler
	if env == "local" {
		inner = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	} else {
		inner = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}
	return slog.New(ctxlog.NewContextHandler(inner))
}
