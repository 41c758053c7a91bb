package usecase

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/bitovskii/meetup-app-sub000/internal/domain"
	"github.com/bitovskii/meetup-app-sub000/internal/linkcode"
	"github.com/bitovskii/meetup-app-sub000/internal/metrics"
	"github.com/bitovskii/meetup-app-sub000/internal/repository"
)

const (
	defaultTokenTTL = 5 * time.Minute

	// Random collisions on 16 bytes are not a practical concern, but the
	// store reports duplicates, so retry a couple of times anyway.
	maxIssueAttempts = 3
)

// sessionMaterializer is the subset of SessionUsecase the token flow needs.
// Defined here (point of use) so tests can inject a fake.
type sessionMaterializer interface {
	Materialize(ctx context.Context, user domain.TelegramUser) (*domain.Session, string, error)
}

type TokenUsecase struct {
	tokens   repository.TokenRepository
	sessions sessionMaterializer
	tokenTTL time.Duration
	botName  string
}

func NewTokenUsecase(tokens repository.TokenRepository, sessions sessionMaterializer, botName string, tokenTTL time.Duration) *TokenUsecase {
	if tokenTTL <= 0 {
		tokenTTL = defaultTokenTTL
	}
	return &TokenUsecase{
		tokens:   tokens,
		sessions: sessions,
		tokenTTL: tokenTTL,
		botName:  botName,
	}
}

type IssueResult struct {
	Token     string
	DeepLink  string
	ExpiresAt time.Time
}

// Issue mints a fresh pending token and the deep link that carries it.
func (u *TokenUsecase) Issue(ctx context.Context) (*IssueResult, error) {
	var lastErr error
	for attempt := 0; attempt < maxIssueAttempts; attempt++ {
		raw := make([]byte, linkcode.TokenLength/2)
		if _, err := io.ReadFull(rand.Reader, raw); err != nil {
			return nil, fmt.Errorf("generate token: %w", err)
		}
		token := hex.EncodeToString(raw)

		expiresAt := time.Now().Add(u.tokenTTL)
		err := u.tokens.Create(ctx, token, expiresAt)
		if err == nil {
			metrics.TokensIssuedTotal.Inc()
			return &IssueResult{
				Token:     token,
				DeepLink:  "https://t.me/" + u.botName + "?start=" + linkcode.Encode(token),
				ExpiresAt: expiresAt,
			}, nil
		}
		if !errors.Is(err, domain.ErrDuplicateToken) {
			return nil, fmt.Errorf("store token: %w", err)
		}
		lastErr = err
	}
	return nil, fmt.Errorf("issue token: %w", lastErr)
}

type StatusResult struct {
	Status domain.TokenStatus
	User   *domain.TelegramUser

	// SessionToken is set once Status is success: the signed session
	// artifact the browser keeps after the handshake completes.
	SessionToken string
}

// Status reports the current state of a token. On success it also
// materializes the application session; the upsert underneath is keyed by
// the Telegram identity, so repeated reads of the same success are
// side-effect free beyond refreshing the snapshot.
func (u *TokenUsecase) Status(ctx context.Context, token string) (*StatusResult, error) {
	if err := linkcode.Validate(token); err != nil {
		return nil, err
	}

	t, err := u.tokens.Get(ctx, token)
	if err != nil {
		return nil, err
	}

	res := &StatusResult{Status: t.Status, User: t.User}
	if t.Status == domain.TokenSuccess && t.User != nil {
		_, signed, err := u.sessions.Materialize(ctx, *t.User)
		if err != nil {
			return nil, fmt.Errorf("materialize session: %w", err)
		}
		res.SessionToken = signed
	}
	return res, nil
}

// Cancel marks a token cancelled on behalf of the browser that issued it.
// Used when the user gives up or navigates away; losing the race to a
// concurrent resolution is fine.
func (u *TokenUsecase) Cancel(ctx context.Context, token string) error {
	if err := linkcode.Validate(token); err != nil {
		return err
	}
	err := u.tokens.Resolve(ctx, token, domain.TokenCancelled, nil)
	if err == nil {
		metrics.TokensResolvedTotal.WithLabelValues("cancelled").Inc()
	}
	return err
}

// ResolveAuthorize completes the handshake for the deep-link argument arg
// with the confirming user's identity.
func (u *TokenUsecase) ResolveAuthorize(ctx context.Context, arg string, user domain.TelegramUser) error {
	token, err := linkcode.Decode(arg)
	if err != nil {
		return err
	}
	if err := u.tokens.Resolve(ctx, token, domain.TokenSuccess, &user); err != nil {
		return err
	}
	metrics.TokensResolvedTotal.WithLabelValues("success").Inc()
	return nil
}

// ResolveCancel marks the token behind arg cancelled.
func (u *TokenUsecase) ResolveCancel(ctx context.Context, arg string) error {
	token, err := linkcode.Decode(arg)
	if err != nil {
		return err
	}
	if err := u.tokens.Resolve(ctx, token, domain.TokenCancelled, nil); err != nil {
		return err
	}
	metrics.TokensResolvedTotal.WithLabelValues("cancelled").Inc()
	return nil
}

// BenignResolveIssue reports whether err is one of the expected, recoverable
// resolution failures: a link that is stale, unknown, or already used.
func BenignResolveIssue(err error) bool {
	return errors.Is(err, domain.ErrTokenNotFound) ||
		errors.Is(err, domain.ErrTokenExpired) ||
		errors.Is(err, domain.ErrAlreadyResolved) ||
		errors.Is(err, domain.ErrMalformedToken)
}
