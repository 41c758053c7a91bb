package handler_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/bitovskii/meetup-app-sub000/internal/transport/http/handler"
	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type fakeUpdateHandler struct {
	mu      sync.Mutex
	updates []tgbotapi.Update
}

func (f *fakeUpdateHandler) HandleUpdate(_ context.Context, update tgbotapi.Update) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, update)
}

func newWebhookEngine(uh *fakeUpdateHandler) *gin.Engine {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	h := handler.NewWebhookHandler(uh, logger)

	r := gin.New()
	r.POST("/auth/webhook", h.Receive)
	return r
}

func postWebhook(t *testing.T, r *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestWebhook_DispatchesParsedUpdate(t *testing.T) {
	uh := &fakeUpdateHandler{}
	w := postWebhook(t, newWebhookEngine(uh), `{
		"update_id": 1,
		"callback_query": {
			"id": "cb-1",
			"from": {"id": 42, "first_name": "Ann"},
			"data": "auth:ASNFZ4mrze8BI0VniavN7w"
		}
	}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"ok":true`) {
		t.Errorf("body = %s, want ok:true", w.Body.String())
	}
	if len(uh.updates) != 1 {
		t.Fatalf("dispatched %d updates, want 1", len(uh.updates))
	}
	cb := uh.updates[0].CallbackQuery
	if cb == nil || cb.Data != "auth:ASNFZ4mrze8BI0VniavN7w" {
		t.Errorf("callback query not carried through: %+v", cb)
	}
}

func TestWebhook_GarbageBody_Still200(t *testing.T) {
	uh := &fakeUpdateHandler{}
	w := postWebhook(t, newWebhookEngine(uh), `{not json`)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 (Telegram must never see an error)", w.Code)
	}
	if len(uh.updates) != 0 {
		t.Errorf("garbage body reached the update handler")
	}
}

func TestWebhook_UnrelatedUpdate_Still200(t *testing.T) {
	uh := &fakeUpdateHandler{}
	w := postWebhook(t, newWebhookEngine(uh), `{"update_id": 2}`)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if len(uh.updates) != 1 {
		t.Errorf("empty update should still be dispatched (classified as unrelated)")
	}
}
