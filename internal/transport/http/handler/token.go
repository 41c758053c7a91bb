package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/bitovskii/meetup-app-sub000/internal/domain"
	"github.com/bitovskii/meetup-app-sub000/internal/usecase"
	"github.com/gin-gonic/gin"
)

// tokenUsecaser is the subset of TokenUsecase the handler needs.
// Defined here (point of use) so tests can inject a fake.
type tokenUsecaser interface {
	Issue(ctx context.Context) (*usecase.IssueResult, error)
	Status(ctx context.Context, token string) (*usecase.StatusResult, error)
	Cancel(ctx context.Context, token string) error
}

type TokenHandler struct {
	tokens tokenUsecaser
	logger *slog.Logger
}

func NewTokenHandler(tokens tokenUsecaser, logger *slog.Logger) *TokenHandler {
	return &TokenHandler{
		tokens: tokens,
		logger: logger.With("component", "token_handler"),
	}
}

type issueResponse struct {
	Token     string    `json:"token"`
	DeepLink  string    `json:"deep_link"`
	ExpiresAt time.Time `json:"expires_at"`
}

// POST /auth/token
// Mints a login token and the deep link the browser should open.
func (h *TokenHandler) Issue(c *gin.Context) {
	res, err := h.tokens.Issue(c.Request.Context())
	if err != nil {
		h.logger.ErrorContext(c.Request.Context(), "issue token", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	c.JSON(http.StatusCreated, issueResponse{
		Token:     res.Token,
		DeepLink:  res.DeepLink,
		ExpiresAt: res.ExpiresAt,
	})
}

type statusResponse struct {
	Status       domain.TokenStatus   `json:"status"`
	User         *domain.TelegramUser `json:"user,omitempty"`
	SessionToken string               `json:"session_token,omitempty"`
}

// GET /auth/token?token=<token>
// The poller's read-only status endpoint. 400 on malformed input before
// any store access, 404 on an unknown token.
func (h *TokenHandler) Status(c *gin.Context) {
	token := c.Query("token")

	res, err := h.tokens.Status(c.Request.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrMalformedToken):
			c.JSON(http.StatusBadRequest, gin.H{"error": errMalformedToken})
		case errors.Is(err, domain.ErrTokenNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": errTokenNotFound})
		default:
			h.logger.ErrorContext(c.Request.Context(), "token status", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		}
		return
	}

	c.JSON(http.StatusOK, statusResponse{
		Status:       res.Status,
		User:         res.User,
		SessionToken: res.SessionToken,
	})
}

// DELETE /auth/token?token=<token>
// Best-effort cancel from a poller that is giving up. Losing the race to
// a concurrent resolution is expected, so those outcomes are 204 too.
func (h *TokenHandler) Cancel(c *gin.Context) {
	token := c.Query("token")

	err := h.tokens.Cancel(c.Request.Context(), token)
	switch {
	case err == nil, usecase.BenignResolveIssue(err):
		c.Status(http.StatusNoContent)
	default:
		h.logger.ErrorContext(c.Request.Context(), "cancel token", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
	}
}
