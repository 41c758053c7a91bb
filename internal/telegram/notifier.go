package telegram

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Notifier is the outbound side of the bot conversation. All calls are
// conversational niceties: their failure never changes a token's fate.
type Notifier interface {
	// AnswerCallback acknowledges an inline-button tap so the client
	// stops showing a loading state.
	AnswerCallback(ctx context.Context, callbackID, text string) error

	// SendMessage sends a plain text message to a chat.
	SendMessage(ctx context.Context, chatID int64, text string) error

	// SendAuthPrompt sends the Authorize / Cancel confirmation keyboard
	// for the deep-link argument arg.
	SendAuthPrompt(ctx context.Context, chatID int64, arg string) error
}

// BotNotifier talks to the real Telegram Bot API.
type BotNotifier struct {
	bot *tgbotapi.BotAPI
}

func NewBotNotifier(bot *tgbotapi.BotAPI) *BotNotifier {
	return &BotNotifier{bot: bot}
}

func (n *BotNotifier) AnswerCallback(_ context.Context, callbackID, text string) error {
	if _, err := n.bot.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		return fmt.Errorf("answer callback: %w", err)
	}
	return nil
}

func (n *BotNotifier) SendMessage(_ context.Context, chatID int64, text string) error {
	if _, err := n.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

func (n *BotNotifier) SendAuthPrompt(_ context.Context, chatID int64, arg string) error {
	msg := tgbotapi.NewMessage(chatID, authPromptText)
	msg.ReplyMarkup = AuthPromptKeyboard(arg)
	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("send auth prompt: %w", err)
	}
	return nil
}

// LogNotifier logs outbound messages instead of sending them — used in
// ENV=local when no bot token is configured.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With("component", "telegram")}
}

func (n *LogNotifier) AnswerCallback(_ context.Context, callbackID, text string) error {
	n.logger.Info("answer callback (local dev)", "callback_id", callbackID, "text", text)
	return nil
}

func (n *LogNotifier) SendMessage(_ context.Context, chatID int64, text string) error {
	n.logger.Info("send message (local dev)", "chat_id", chatID, "text", text)
	return nil
}

func (n *LogNotifier) SendAuthPrompt(_ context.Context, chatID int64, arg string) error {
	n.logger.Info("send auth prompt (local dev)", "chat_id", chatID, "arg", arg)
	return nil
}
