// Package memory holds mutex-guarded, single-process implementations of the
// repositories, used when no DATABASE_URL is configured. They carry the same
// guarded-transition semantics as the Postgres implementations so local runs
// and tests exercise the real state machine.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/bitovskii/meetup-app-sub000/internal/domain"
)

type TokenRepository struct {
	mu     sync.Mutex
	tokens map[string]*domain.AuthToken
	now    func() time.Time
}

func NewTokenRepository() *TokenRepository {
	return &TokenRepository{
		tokens: make(map[string]*domain.AuthToken),
		now:    time.Now,
	}
}

// SetClock replaces the time source. Test hook.
func (r *TokenRepository) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

func (r *TokenRepository) Create(_ context.Context, token string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tokens[token]; exists {
		return domain.ErrDuplicateToken
	}
	r.tokens[token] = &domain.AuthToken{
		Token:     token,
		Status:    domain.TokenPending,
		CreatedAt: r.now(),
		ExpiresAt: expiresAt,
	}
	return nil
}

func (r *TokenRepository) Get(_ context.Context, token string) (*domain.AuthToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tokens[token]
	if !ok {
		return nil, domain.ErrTokenNotFound
	}
	r.expireLocked(t)

	cp := *t
	return &cp, nil
}

func (r *TokenRepository) Resolve(_ context.Context, token string, outcome domain.TokenStatus, user *domain.TelegramUser) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tokens[token]
	if !ok {
		return domain.ErrTokenNotFound
	}
	r.expireLocked(t)

	switch t.Status {
	case domain.TokenPending:
	case domain.TokenExpired:
		return domain.ErrTokenExpired
	default:
		return domain.ErrAlreadyResolved
	}

	now := r.now()
	t.Status = outcome
	t.ResolvedAt = &now
	if user != nil {
		u := *user
		t.User = &u
		t.TelegramUserID = &u.ID
	}
	return nil
}

func (r *TokenRepository) Remove(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tokens, token)
	return nil
}

func (r *TokenRepository) ExpirePending(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, t := range r.tokens {
		if t.Status == domain.TokenPending && t.Expired(r.now()) {
			t.Status = domain.TokenExpired
			n++
		}
	}
	return n, nil
}

func (r *TokenRepository) SweepExpired(_ context.Context, maxAge time.Duration) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-maxAge)
	n := 0
	for token, t := range r.tokens {
		if t.CreatedAt.Before(cutoff) {
			delete(r.tokens, token)
			n++
		}
	}
	return n, nil
}

// expireLocked applies the lazy pending -> expired overlay. Caller holds mu.
func (r *TokenRepository) expireLocked(t *domain.AuthToken) {
	if t.Status == domain.TokenPending && t.Expired(r.now()) {
		t.Status = domain.TokenExpired
	}
}
