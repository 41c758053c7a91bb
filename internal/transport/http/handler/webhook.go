package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type updateHandler interface {
	HandleUpdate(ctx context.Context, update tgbotapi.Update)
}

type WebhookHandler struct {
	updates updateHandler
	logger  *slog.Logger
}

func NewWebhookHandler(updates updateHandler, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		updates: updates,
		logger:  logger.With("component", "webhook_handler"),
	}
}

// POST /auth/webhook
// Receives Telegram updates. Always answers 200 {"ok":true} — anything
// else makes Telegram redeliver the update in a retry loop. Even a body
// that fails to parse is acknowledged and dropped.
func (h *WebhookHandler) Receive(c *gin.Context) {
	var update tgbotapi.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		h.logger.WarnContext(c.Request.Context(), "unparseable webhook body", "error", err)
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}

	h.updates.HandleUpdate(c.Request.Context(), update)

	c.JSON(http.StatusOK, gin.H{"ok": true})
}
