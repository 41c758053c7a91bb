package telegram

import (
	"strings"

	"github.com/bitovskii/meetup-app-sub000/internal/domain"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// EventKind classifies an inbound Telegram update. Classification is done
// once, by explicit discriminant checks, so the handlers never poke at
// optional fields that may be absent.
type EventKind string

const (
	// EventStartLink is /start carrying a deep-link payload.
	EventStartLink EventKind = "start_link"
	// EventAuthorize is a tap on the Authorize inline button.
	EventAuthorize EventKind = "authorize"
	// EventCancel is a tap on the Cancel inline button.
	EventCancel EventKind = "cancel"
	// EventCommand is any other bot command, /start without payload included.
	EventCommand EventKind = "command"
	// EventUnrelated is everything else: plain text, edits, joins.
	EventUnrelated EventKind = "unrelated"
)

const (
	authorizeCallbackPrefix = "auth:"
	cancelCallbackPrefix    = "cancel:"
)

// Event is the parsed form of one update.
type Event struct {
	Kind EventKind

	// Arg is the encoded token argument for start_link, authorize and
	// cancel events.
	Arg string

	// Command is set for EventCommand.
	Command string

	// From is the sender identity, when the update carries one.
	From *domain.TelegramUser

	// ChatID is where conversational replies go. Zero when unknown.
	ChatID int64

	// CallbackID must be acknowledged for authorize/cancel events so the
	// button stops spinning.
	CallbackID string
}

// ClassifyUpdate turns a raw update into an Event.
func ClassifyUpdate(update tgbotapi.Update) Event {
	if cb := update.CallbackQuery; cb != nil {
		ev := Event{Kind: EventUnrelated, CallbackID: cb.ID, From: userFrom(cb.From)}
		if cb.Message != nil && cb.Message.Chat != nil {
			ev.ChatID = cb.Message.Chat.ID
		}
		switch {
		case strings.HasPrefix(cb.Data, authorizeCallbackPrefix):
			ev.Kind = EventAuthorize
			ev.Arg = strings.TrimPrefix(cb.Data, authorizeCallbackPrefix)
		case strings.HasPrefix(cb.Data, cancelCallbackPrefix):
			ev.Kind = EventCancel
			ev.Arg = strings.TrimPrefix(cb.Data, cancelCallbackPrefix)
		}
		return ev
	}

	if msg := update.Message; msg != nil {
		ev := Event{Kind: EventUnrelated, From: userFrom(msg.From)}
		if msg.Chat != nil {
			ev.ChatID = msg.Chat.ID
		}
		if !msg.IsCommand() {
			return ev
		}
		ev.Command = msg.Command()
		if ev.Command == "start" {
			if arg := strings.TrimSpace(msg.CommandArguments()); arg != "" {
				ev.Kind = EventStartLink
				ev.Arg = arg
				return ev
			}
		}
		ev.Kind = EventCommand
		return ev
	}

	return Event{Kind: EventUnrelated}
}

func userFrom(u *tgbotapi.User) *domain.TelegramUser {
	if u == nil {
		return nil
	}
	return &domain.TelegramUser{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Username:  u.UserName,
	}
}
