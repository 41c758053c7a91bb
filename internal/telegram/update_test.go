package telegram

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func commandUpdate(text string) tgbotapi.Update {
	var entities []tgbotapi.MessageEntity
	if text != "" && text[0] == '/' {
		length := len(text)
		for i, r := range text {
			if r == ' ' {
				length = i
				break
			}
		}
		entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: length}}
	}
	return tgbotapi.Update{
		Message: &tgbotapi.Message{
			Text:     text,
			Entities: entities,
			From:     &tgbotapi.User{ID: 7, FirstName: "Ada", UserName: "ada"},
			Chat:     &tgbotapi.Chat{ID: 100},
		},
	}
}

func callbackUpdate(data string) tgbotapi.Update {
	return tgbotapi.Update{
		CallbackQuery: &tgbotapi.CallbackQuery{
			ID:   "cb-1",
			Data: data,
			From: &tgbotapi.User{ID: 7, FirstName: "Ada"},
			Message: &tgbotapi.Message{
				Chat: &tgbotapi.Chat{ID: 100},
			},
		},
	}
}

func TestClassifyUpdate(t *testing.T) {
	tests := []struct {
		name     string
		update   tgbotapi.Update
		wantKind EventKind
		wantArg  string
		wantCmd  string
	}{
		{
			name:     "start with payload",
			update:   commandUpdate("/start AbCdEf0123456789AbCdEf"),
			wantKind: EventStartLink,
			wantArg:  "AbCdEf0123456789AbCdEf",
		},
		{
			name:     "bare start",
			update:   commandUpdate("/start"),
			wantKind: EventCommand,
			wantCmd:  "start",
		},
		{
			name:     "start with blank payload",
			update:   commandUpdate("/start   "),
			wantKind: EventCommand,
			wantCmd:  "start",
		},
		{
			name:     "other command",
			update:   commandUpdate("/help"),
			wantKind: EventCommand,
			wantCmd:  "help",
		},
		{
			name:     "plain text",
			update:   commandUpdate("hello there"),
			wantKind: EventUnrelated,
		},
		{
			name:     "authorize callback",
			update:   callbackUpdate("auth:AbCdEf0123456789AbCdEf"),
			wantKind: EventAuthorize,
			wantArg:  "AbCdEf0123456789AbCdEf",
		},
		{
			name:     "cancel callback",
			update:   callbackUpdate("cancel:AbCdEf0123456789AbCdEf"),
			wantKind: EventCancel,
			wantArg:  "AbCdEf0123456789AbCdEf",
		},
		{
			name:     "foreign callback",
			update:   callbackUpdate("poll:42"),
			wantKind: EventUnrelated,
		},
		{
			name:     "empty update",
			update:   tgbotapi.Update{},
			wantKind: EventUnrelated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := ClassifyUpdate(tt.update)
			if ev.Kind != tt.wantKind {
				t.Fatalf("kind = %s, want %s", ev.Kind, tt.wantKind)
			}
			if ev.Arg != tt.wantArg {
				t.Errorf("arg = %q, want %q", ev.Arg, tt.wantArg)
			}
			if ev.Command != tt.wantCmd {
				t.Errorf("command = %q, want %q", ev.Command, tt.wantCmd)
			}
		})
	}
}

func TestClassifyUpdate_CarriesSenderAndChat(t *testing.T) {
	ev := ClassifyUpdate(callbackUpdate("auth:abc"))
	if ev.CallbackID != "cb-1" {
		t.Errorf("callback id = %q, want cb-1", ev.CallbackID)
	}
	if ev.ChatID != 100 {
		t.Errorf("chat id = %d, want 100", ev.ChatID)
	}
	if ev.From == nil || ev.From.ID != 7 {
		t.Errorf("from = %+v, want user 7", ev.From)
	}
	if ev.From.FirstName != "Ada" {
		t.Errorf("first name = %q, want Ada", ev.From.FirstName)
	}
}
