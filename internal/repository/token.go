package repository

import (
	"context"
	"time"

	"github.com/bitovskii/meetup-app-sub000/internal/domain"
)

// TokenRepository is the single source of truth for login tokens.
// Implementations must make Resolve a guarded compare-and-swap: the
// transition out of pending happens at most once, enforced at the storage
// layer, never as a read-then-write in application code.
type TokenRepository interface {
	// Create inserts a fresh pending token. domain.ErrDuplicateToken on
	// a token string that already exists.
	Create(ctx context.Context, token string, expiresAt time.Time) error

	// Get returns the current record. A pending record past its deadline
	// is reported (and persisted) as expired, so once any reader has seen
	// expiry, every later reader sees it too.
	Get(ctx context.Context, token string) (*domain.AuthToken, error)

	// Resolve atomically moves a pending, unexpired token to outcome.
	// user must be non-nil iff outcome is TokenSuccess. Failures:
	// ErrTokenNotFound, ErrAlreadyResolved, ErrTokenExpired.
	Resolve(ctx context.Context, token string, outcome domain.TokenStatus, user *domain.TelegramUser) error

	// Remove deletes a single record.
	Remove(ctx context.Context, token string) error

	// ExpirePending flips every pending record whose deadline has passed
	// to expired. Returns the number of records flipped.
	ExpirePending(ctx context.Context) (int, error)

	// SweepExpired deletes records created more than maxAge ago,
	// regardless of status. Returns the number deleted.
	SweepExpired(ctx context.Context, maxAge time.Duration) (int, error)
}
