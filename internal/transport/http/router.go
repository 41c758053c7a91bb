package httptransport

import (
	"log/slog"

	"github.com/bitovskii/meetup-app-sub000/internal/transport/http/handler"
	"github.com/bitovskii/meetup-app-sub000/internal/transport/http/middleware"
	"github.com/gin-gonic/gin"

	sloggin "github.com/samber/slog-gin"
)

func NewRouter(
	logger *slog.Logger,
	tokenHandler *handler.TokenHandler,
	webhookHandler *handler.WebhookHandler,
	sessionHandler *handler.SessionHandler,
	jwtKey []byte,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Security())
	r.Use(sloggin.New(logger))
	r.Use(middleware.Metrics())

	auth := r.Group("/auth")
	auth.POST("/token", tokenHandler.Issue)
	auth.GET("/token", tokenHandler.Status)
	auth.DELETE("/token", tokenHandler.Cancel)
	auth.POST("/webhook", webhookHandler.Receive)

	auth.GET("/me", middleware.Session(jwtKey), sessionHandler.Me)

	return r
}
