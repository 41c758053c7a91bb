package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Conversational texts, kept in one place next to the keyboard they
// accompany.
const (
	authPromptText = "Sign in to Meetup? Tap Authorize to finish logging in, or Cancel if this wasn't you."

	MsgAuthorized = "You're signed in! You can return to the app now."
	MsgCancelled  = "Login cancelled. Nothing was shared."
	MsgLinkStale  = "This login link has expired or was already used. Please request a new one from the app."
	MsgWelcome    = "Hi! Open the Meetup app and choose \"Log in with Telegram\" to get a login link."
	MsgUnknown    = "I only handle login links. Open the Meetup app to sign in."
)

// AuthPromptKeyboard builds the two-button confirmation keyboard. The token
// argument rides along in the callback data, so the tap alone identifies
// which login attempt is being confirmed.
func AuthPromptKeyboard(arg string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Authorize", authorizeCallbackPrefix+arg),
			tgbotapi.NewInlineKeyboardButtonData("❌ Cancel", cancelCallbackPrefix+arg),
		),
	)
}
