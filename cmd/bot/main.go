// Command bot runs the Telegram side of the login flow over long polling
// instead of a webhook. Useful in development, where Telegram cannot reach
// a local webhook URL. It must share the Postgres store with the API
// server — two processes with separate in-memory stores would never see
// each other's tokens — so DATABASE_URL is mandatory here.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bitovskii/meetup-app-sub000/config"
	"github.com/bitovskii/meetup-app-sub000/internal/infrastructure/postgres"
	ctxlog "github.com/bitovskii/meetup-app-sub000/internal/log"
	"github.com/bitovskii/meetup-app-sub000/internal/metrics"
	"github.com/bitovskii/meetup-app-sub000/internal/telegram"
	"github.com/bitovskii/meetup-app-sub000/internal/usecase"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/lmittmann/tint"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("bot runner needs DATABASE_URL: it shares the token store with the API server")
	}
	if cfg.BotToken == "" {
		log.Fatal("bot runner needs TELEGRAM_BOT_TOKEN")
	}

	logger := newLogger(cfg.Env, cfg.SlogLevel())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		log.Fatalf("telegram bot: %v", err)
	}
	logger.Info("telegram bot authorized", "bot", bot.Self.UserName)

	metrics.Register()

	tokenRepo := postgres.NewTokenRepository(pool)
	sessionRepo := postgres.NewSessionRepository(pool)
	sessionUsecase := usecase.NewSessionUsecase(sessionRepo, []byte(cfg.JWTSecret), cfg.SessionTTL)
	tokenUsecase := usecase.NewTokenUsecase(tokenRepo, sessionUsecase, cfg.BotName, cfg.TokenTTL)
	webhookUsecase := usecase.NewWebhookUsecase(tokenUsecase, telegram.NewBotNotifier(bot), logger, cfg.ConfirmPrompt)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := bot.GetUpdatesChan(u)

	logger.Info("long polling started")
	for {
		select {
		case <-ctx.Done():
			bot.StopReceivingUpdates()
			logger.Info("bot shut down")
			return
		case update := <-updates:
			webhookUsecase.HandleUpdate(ctx, update)
		}
	}
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
