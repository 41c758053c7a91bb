package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/bitovskii/meetup-app-sub000/internal/domain"
	"github.com/bitovskii/meetup-app-sub000/internal/metrics"
	"github.com/bitovskii/meetup-app-sub000/internal/telegram"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// tokenResolver is the subset of TokenUsecase the webhook flow needs.
type tokenResolver interface {
	ResolveAuthorize(ctx context.Context, arg string, user domain.TelegramUser) error
	ResolveCancel(ctx context.Context, arg string) error
}

// WebhookUsecase turns inbound Telegram updates into token resolutions.
// Every path swallows expected failures: whatever happens here, the caller
// acknowledges the update to Telegram, otherwise the provider redelivers
// the same update indefinitely.
type WebhookUsecase struct {
	tokens        tokenResolver
	notifier      telegram.Notifier
	logger        *slog.Logger
	confirmPrompt bool
}

func NewWebhookUsecase(tokens tokenResolver, notifier telegram.Notifier, logger *slog.Logger, confirmPrompt bool) *WebhookUsecase {
	return &WebhookUsecase{
		tokens:        tokens,
		notifier:      notifier,
		logger:        logger.With("component", "webhook_usecase"),
		confirmPrompt: confirmPrompt,
	}
}

// HandleUpdate processes one update to completion. It never returns an
// error; failures are logged and answered conversationally.
func (u *WebhookUsecase) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	ev := telegram.ClassifyUpdate(update)
	metrics.WebhookUpdatesTotal.WithLabelValues(string(ev.Kind)).Inc()

	switch ev.Kind {
	case telegram.EventStartLink:
		u.handleStartLink(ctx, ev)
	case telegram.EventAuthorize:
		u.handleAuthorize(ctx, ev)
	case telegram.EventCancel:
		u.handleCancel(ctx, ev)
	case telegram.EventCommand:
		u.handleCommand(ctx, ev)
	case telegram.EventUnrelated:
		// Acknowledged as a no-op.
	}
}

// handleStartLink handles /start <payload> from a deep link. In confirm
// mode the user gets an Authorize / Cancel prompt; otherwise following the
// link is itself the authorization.
func (u *WebhookUsecase) handleStartLink(ctx context.Context, ev telegram.Event) {
	if u.confirmPrompt {
		if err := u.notifier.SendAuthPrompt(ctx, ev.ChatID, ev.Arg); err != nil {
			u.logger.Error("send auth prompt", "error", err)
		}
		return
	}

	if ev.From == nil {
		return
	}
	err := u.tokens.ResolveAuthorize(ctx, ev.Arg, *ev.From)
	u.reply(ctx, ev.ChatID, outcomeText(err, telegram.MsgAuthorized))
	u.logResolve(ctx, "start link resolve", err)
}

func (u *WebhookUsecase) handleAuthorize(ctx context.Context, ev telegram.Event) {
	if ev.From == nil {
		return
	}
	err := u.tokens.ResolveAuthorize(ctx, ev.Arg, *ev.From)

	// The callback ack only stops the button spinner; it must not gate
	// the resolution outcome, so it runs detached.
	u.ackCallback(ctx, ev.CallbackID)

	u.reply(ctx, ev.ChatID, outcomeText(err, telegram.MsgAuthorized))
	u.logResolve(ctx, "authorize resolve", err)
}

func (u *WebhookUsecase) handleCancel(ctx context.Context, ev telegram.Event) {
	err := u.tokens.ResolveCancel(ctx, ev.Arg)

	u.ackCallback(ctx, ev.CallbackID)

	u.reply(ctx, ev.ChatID, outcomeText(err, telegram.MsgCancelled))
	u.logResolve(ctx, "cancel resolve", err)
}

func (u *WebhookUsecase) handleCommand(ctx context.Context, ev telegram.Event) {
	text := telegram.MsgUnknown
	if ev.Command == "start" {
		text = telegram.MsgWelcome
	}
	u.reply(ctx, ev.ChatID, text)
}

func (u *WebhookUsecase) ackCallback(ctx context.Context, callbackID string) {
	if callbackID == "" {
		return
	}
	go func() {
		ackCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := u.notifier.AnswerCallback(ackCtx, callbackID, ""); err != nil {
			u.logger.Warn("answer callback", "error", err)
		}
	}()
}

func (u *WebhookUsecase) reply(ctx context.Context, chatID int64, text string) {
	if chatID == 0 || text == "" {
		return
	}
	if err := u.notifier.SendMessage(ctx, chatID, text); err != nil {
		u.logger.Warn("send reply", "error", err)
	}
}

func (u *WebhookUsecase) logResolve(ctx context.Context, op string, err error) {
	switch {
	case err == nil:
	case BenignResolveIssue(err):
		metrics.ResolveRejectionsTotal.WithLabelValues(rejectionReason(err)).Inc()
		u.logger.InfoContext(ctx, op+" rejected", "reason", err)
	default:
		// Store outage. Still acknowledged upstream; redelivery would
		// only hammer the same store.
		u.logger.ErrorContext(ctx, op, "error", err)
	}
}

// outcomeText picks the conversational reply for a resolution result.
func outcomeText(err error, onSuccess string) string {
	if err == nil {
		return onSuccess
	}
	if BenignResolveIssue(err) {
		return telegram.MsgLinkStale
	}
	return "Something went wrong on our side. Please try again in a moment."
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrTokenNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrTokenExpired):
		return "expired"
	case errors.Is(err, domain.ErrAlreadyResolved):
		return "already_resolved"
	case errors.Is(err, domain.ErrMalformedToken):
		return "malformed"
	default:
		return "other"
	}
}
