package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/bitovskii/meetup-app-sub000/internal/domain"
	"github.com/bitovskii/meetup-app-sub000/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const defaultSessionTTL = 7 * 24 * time.Hour

type SessionUsecase struct {
	sessions   repository.SessionRepository
	jwtKey     []byte
	sessionTTL time.Duration
}

func NewSessionUsecase(sessions repository.SessionRepository, jwtKey []byte, sessionTTL time.Duration) *SessionUsecase {
	if sessionTTL <= 0 {
		sessionTTL = defaultSessionTTL
	}
	return &SessionUsecase{
		sessions:   sessions,
		jwtKey:     jwtKey,
		sessionTTL: sessionTTL,
	}
}

// Materialize converts a confirmed Telegram identity into the application
// session and returns it with a signed JWT. One session per identity: the
// upsert replaces any previous login for the same Telegram user.
func (u *SessionUsecase) Materialize(ctx context.Context, user domain.TelegramUser) (*domain.Session, string, error) {
	sess, err := u.sessions.Upsert(ctx, &domain.Session{
		ID:             uuid.NewString(),
		TelegramUserID: user.ID,
		FirstName:      user.FirstName,
		LastName:       user.LastName,
		Username:       user.Username,
		PhotoURL:       user.PhotoURL,
		ExpiresAt:      time.Now().Add(u.sessionTTL),
	})
	if err != nil {
		return nil, "", fmt.Errorf("upsert session: %w", err)
	}

	claims := jwt.MapClaims{
		"sub":  sess.ID,
		"tid":  sess.TelegramUserID,
		"name": user.DisplayName(),
		"iat":  time.Now().Unix(),
		"exp":  sess.ExpiresAt.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(u.jwtKey)
	if err != nil {
		return nil, "", fmt.Errorf("sign session jwt: %w", err)
	}
	return sess, signed, nil
}

// GetByID loads an unexpired session by its id.
func (u *SessionUsecase) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	sess, err := u.sessions.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return sess, nil
}
