package domain

import (
	"errors"
	"time"
)

var (
	ErrTokenNotFound   = errors.New("token not found")
	ErrTokenExpired    = errors.New("token expired")
	ErrAlreadyResolved = errors.New("token already resolved")
	ErrDuplicateToken  = errors.New("token already exists")
	ErrMalformedToken  = errors.New("malformed token")
)

type TokenStatus string

const (
	TokenPending   TokenStatus = "pending"
	TokenSuccess   TokenStatus = "success"
	TokenCancelled TokenStatus = "cancelled"
	TokenFailed    TokenStatus = "failed"
	TokenExpired   TokenStatus = "expired"
)

// Terminal reports whether a status can never change again.
func (s TokenStatus) Terminal() bool {
	return s != TokenPending
}

// TelegramUser is the external identity attached to a token on success.
type TelegramUser struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
	Username  string `json:"username,omitempty"`
	PhotoURL  string `json:"photo_url,omitempty"`
}

// DisplayName joins the name parts the way Telegram shows them.
func (u TelegramUser) DisplayName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// AuthToken is one login attempt. It is created pending and moves at most
// once to a terminal status; User is set iff the status is success.
type AuthToken struct {
	Token          string
	Status         TokenStatus
	User           *TelegramUser
	TelegramUserID *int64
	CreatedAt      time.Time
	ExpiresAt      time.Time
	ResolvedAt     *time.Time
}

// Expired reports whether the deadline has passed at the given instant.
func (t *AuthToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
