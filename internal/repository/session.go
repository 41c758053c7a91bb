package repository

import (
	"context"

	"github.com/bitovskii/meetup-app-sub000/internal/domain"
)

type SessionRepository interface {
	// Upsert creates or replaces the session for sess.TelegramUserID.
	// Keyed by the Telegram identity, so re-authentication updates the
	// existing row instead of accumulating duplicates.
	Upsert(ctx context.Context, sess *domain.Session) (*domain.Session, error)

	// FindByID returns a session by its opaque id.
	// domain.ErrSessionNotFound if absent or past its expiry.
	FindByID(ctx context.Context, id string) (*domain.Session, error)

	// DeleteExpired removes sessions past their expiry. Returns the
	// number deleted.
	DeleteExpired(ctx context.Context) (int, error)
}
