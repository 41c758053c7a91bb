package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/bitovskii/meetup-app-sub000/internal/domain"
	"github.com/gin-gonic/gin"
)

type sessionUsecaser interface {
	GetByID(ctx context.Context, id string) (*domain.Session, error)
}

type SessionHandler struct {
	sessions sessionUsecaser
	logger   *slog.Logger
}

func NewSessionHandler(sessions sessionUsecaser, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		logger:   logger.With("component", "session_handler"),
	}
}

type meResponse struct {
	ID             string    `json:"id"`
	TelegramUserID int64     `json:"telegram_user_id"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name,omitempty"`
	Username       string    `json:"username,omitempty"`
	PhotoURL       string    `json:"photo_url,omitempty"`
	ExpiresAt      time.Time `json:"expires_at"`
}

// GET /auth/me
// Runs behind the session middleware; returns the identity snapshot for
// the session named in the bearer token.
func (h *SessionHandler) Me(c *gin.Context) {
	sessionID := c.GetString("sessionID")

	sess, err := h.sessions.GetByID(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": errUnauthorized})
			return
		}
		h.logger.ErrorContext(c.Request.Context(), "load session", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	c.JSON(http.StatusOK, meResponse{
		ID:             sess.ID,
		TelegramUserID: sess.TelegramUserID,
		FirstName:      sess.FirstName,
		LastName:       sess.LastName,
		Username:       sess.Username,
		PhotoURL:       sess.PhotoURL,
		ExpiresAt:      sess.ExpiresAt,
	})
}
