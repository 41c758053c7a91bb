package domain

import (
	"errors"
	"time"
)

var ErrSessionNotFound = errors.New("session not found")

// Session is the application login record materialized from a resolved
// token. One active session per Telegram identity; re-authentication
// replaces the identity snapshot instead of adding a row.
type Session struct {
	ID             string
	TelegramUserID int64
	FirstName      string
	LastName       string
	Username       string
	PhotoURL       string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	ExpiresAt      time.Time
}

func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
