package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/bitovskii/meetup-app-sub000/internal/domain"
	"github.com/bitovskii/meetup-app-sub000/internal/transport/http/handler"
	"github.com/bitovskii/meetup-app-sub000/internal/usecase"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeTokenUsecase implements the unexported tokenUsecaser interface via
// method matching.
type fakeTokenUsecase struct {
	issue  func(ctx context.Context) (*usecase.IssueResult, error)
	status func(ctx context.Context, token string) (*usecase.StatusResult, error)
	cancel func(ctx context.Context, token string) error
}

func (f *fakeTokenUsecase) Issue(ctx context.Context) (*usecase.IssueResult, error) {
	return f.issue(ctx)
}

func (f *fakeTokenUsecase) Status(ctx context.Context, token string) (*usecase.StatusResult, error) {
	return f.status(ctx, token)
}

func (f *fakeTokenUsecase) Cancel(ctx context.Context, token string) error {
	return f.cancel(ctx, token)
}

func newTokenEngine(uc *fakeTokenUsecase) *gin.Engine {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	h := handler.NewTokenHandler(uc, logger)

	r := gin.New()
	r.POST("/auth/token", h.Issue)
	r.GET("/auth/token", h.Status)
	r.DELETE("/auth/token", h.Cancel)
	return r
}

// ---- Issue ----

func TestIssue_Returns201WithLink(t *testing.T) {
	expiresAt := time.Now().Add(5 * time.Minute).UTC()
	uc := &fakeTokenUsecase{
		issue: func(_ context.Context) (*usecase.IssueResult, error) {
			return &usecase.IssueResult{
				Token:     "0123456789abcdef0123456789abcdef",
				DeepLink:  "https://t.me/MeetupLoginBot?start=ASNFZ4mrze8BI0VniavN7w",
				ExpiresAt: expiresAt,
			}, nil
		},
	}
	w := httptest.NewRecorder()
	newTokenEngine(uc).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/auth/token", nil))

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", w.Code)
	}

	var body struct {
		Token     string    `json:"token"`
		DeepLink  string    `json:"deep_link"`
		ExpiresAt time.Time `json:"expires_at"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Token != "0123456789abcdef0123456789abcdef" {
		t.Errorf("token = %q", body.Token)
	}
	if body.DeepLink == "" {
		t.Error("deep_link missing")
	}
	if !body.ExpiresAt.Equal(expiresAt) {
		t.Errorf("expires_at = %v, want %v", body.ExpiresAt, expiresAt)
	}
}

func TestIssue_StoreFailure_Returns500(t *testing.T) {
	uc := &fakeTokenUsecase{
		issue: func(_ context.Context) (*usecase.IssueResult, error) {
			return nil, errors.New("db down")
		},
	}
	w := httptest.NewRecorder()
	newTokenEngine(uc).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/auth/token", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

// ---- Status ----

func TestStatus_MalformedToken_Returns400(t *testing.T) {
	uc := &fakeTokenUsecase{
		status: func(_ context.Context, _ string) (*usecase.StatusResult, error) {
			return nil, domain.ErrMalformedToken
		},
	}
	w := httptest.NewRecorder()
	newTokenEngine(uc).ServeHTTP(w,
		httptest.NewRequest(http.MethodGet, "/auth/token?token=not-hex%21", nil))

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestStatus_UnknownToken_Returns404(t *testing.T) {
	uc := &fakeTokenUsecase{
		status: func(_ context.Context, _ string) (*usecase.StatusResult, error) {
			return nil, domain.ErrTokenNotFound
		},
	}
	w := httptest.NewRecorder()
	newTokenEngine(uc).ServeHTTP(w,
		httptest.NewRequest(http.MethodGet, "/auth/token?token=ffffffffffffffffffffffffffffffff", nil))

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestStatus_Success_IncludesUserAndSessionToken(t *testing.T) {
	uc := &fakeTokenUsecase{
		status: func(_ context.Context, _ string) (*usecase.StatusResult, error) {
			return &usecase.StatusResult{
				Status:       domain.TokenSuccess,
				User:         &domain.TelegramUser{ID: 42, FirstName: "Ann"},
				SessionToken: "signed.jwt",
			}, nil
		},
	}
	w := httptest.NewRecorder()
	newTokenEngine(uc).ServeHTTP(w,
		httptest.NewRequest(http.MethodGet, "/auth/token?token=0123456789abcdef0123456789abcdef", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var body struct {
		Status       string               `json:"status"`
		User         *domain.TelegramUser `json:"user"`
		SessionToken string               `json:"session_token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Status != "success" {
		t.Errorf("status = %q", body.Status)
	}
	if body.User == nil || body.User.ID != 42 {
		t.Errorf("user = %+v, want id 42", body.User)
	}
	if body.SessionToken != "signed.jwt" {
		t.Errorf("session_token = %q", body.SessionToken)
	}
}

func TestStatus_Pending_OmitsUser(t *testing.T) {
	uc := &fakeTokenUsecase{
		status: func(_ context.Context, _ string) (*usecase.StatusResult, error) {
			return &usecase.StatusResult{Status: domain.TokenPending}, nil
		},
	}
	w := httptest.NewRecorder()
	newTokenEngine(uc).ServeHTTP(w,
		httptest.NewRequest(http.MethodGet, "/auth/token?token=0123456789abcdef0123456789abcdef", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if _, present := body["user"]; present {
		t.Error("user present on pending status")
	}
	if _, present := body["session_token"]; present {
		t.Error("session_token present on pending status")
	}
}

// ---- Cancel ----

func TestCancel_Returns204(t *testing.T) {
	uc := &fakeTokenUsecase{
		cancel: func(_ context.Context, _ string) error { return nil },
	}
	w := httptest.NewRecorder()
	newTokenEngine(uc).ServeHTTP(w,
		httptest.NewRequest(http.MethodDelete, "/auth/token?token=0123456789abcdef0123456789abcdef", nil))

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", w.Code)
	}
}

func TestCancel_LostRace_Still204(t *testing.T) {
	uc := &fakeTokenUsecase{
		cancel: func(_ context.Context, _ string) error { return domain.ErrAlreadyResolved },
	}
	w := httptest.NewRecorder()
	newTokenEngine(uc).ServeHTTP(w,
		httptest.NewRequest(http.MethodDelete, "/auth/token?token=0123456789abcdef0123456789abcdef", nil))

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204 (cancel races are benign)", w.Code)
	}
}

func TestCancel_StoreFailure_Returns500(t *testing.T) {
	uc := &fakeTokenUsecase{
		cancel: func(_ context.Context, _ string) error { return errors.New("db down") },
	}
	w := httptest.NewRecorder()
	newTokenEngine(uc).ServeHTTP(w,
		httptest.NewRequest(http.MethodDelete, "/auth/token?token=0123456789abcdef0123456789abcdef", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}
