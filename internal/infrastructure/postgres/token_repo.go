package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bitovskii/meetup-app-sub000/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TokenRepository struct {
	pool *pgxpool.Pool
}

func NewTokenRepository(pool *pgxpool.Pool) *TokenRepository {
	return &TokenRepository{pool: pool}
}

func (r *TokenRepository) Create(ctx context.Context, token string, expiresAt time.Time) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO auth_tokens (token, status, expires_at) VALUES ($1, 'pending', $2)`,
		token, expiresAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrDuplicateToken
		}
		return fmt.Errorf("insert token: %w", err)
	}
	return nil
}

func (r *TokenRepository) Get(ctx context.Context, token string) (*domain.AuthToken, error) {
	// lapsed is computed against the database clock so every reader and
	// the Resolve guard agree on the same notion of "past the deadline".
	query := `
		SELECT token, status, user_data, telegram_user_id,
		       created_at, expires_at, resolved_at,
		       now() > expires_at AS lapsed
		FROM auth_tokens
		WHERE token = $1`

	var t domain.AuthToken
	var lapsed bool
	err := r.pool.QueryRow(ctx, query, token).Scan(
		&t.Token, &t.Status, &t.User, &t.TelegramUserID,
		&t.CreatedAt, &t.ExpiresAt, &t.ResolvedAt, &lapsed,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTokenNotFound
		}
		return nil, fmt.Errorf("get token: %w", err)
	}

	if t.Status == domain.TokenPending && lapsed {
		// Persist the lazy transition. The guard keeps this idempotent
		// and makes sure a concurrent Resolve winner is never overwritten.
		_, err := r.pool.Exec(ctx,
			`UPDATE auth_tokens SET status = 'expired' WHERE token = $1 AND status = 'pending'`,
			token,
		)
		if err != nil {
			return nil, fmt.Errorf("expire token: %w", err)
		}
		t.Status = domain.TokenExpired
	}

	return &t, nil
}

func (r *TokenRepository) Resolve(ctx context.Context, token string, outcome domain.TokenStatus, user *domain.TelegramUser) error {
	var tgID *int64
	if user != nil {
		tgID = &user.ID
	}

	// The whole correctness of the login flow sits in this guard: only a
	// still-pending, still-unexpired row can leave pending, and at most
	// one caller ever sees RowsAffected == 1.
	tag, err := r.pool.Exec(ctx, `
		UPDATE auth_tokens
		SET    status           = $2,
		       user_data        = $3,
		       telegram_user_id = $4,
		       resolved_at      = now()
		WHERE  token      = $1
		  AND  status     = 'pending'
		  AND  expires_at > now()`,
		token, outcome, user, tgID,
	)
	if err != nil {
		return fmt.Errorf("resolve token: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	return r.classifyLostResolve(ctx, token)
}

// classifyLostResolve explains a Resolve whose guarded update matched
// nothing: the row is missing, already terminal, or past its deadline.
func (r *TokenRepository) classifyLostResolve(ctx context.Context, token string) error {
	var status domain.TokenStatus
	var lapsed bool
	err := r.pool.QueryRow(ctx,
		`SELECT status, now() > expires_at FROM auth_tokens WHERE token = $1`,
		token,
	).Scan(&status, &lapsed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrTokenNotFound
		}
		return fmt.Errorf("classify resolve: %w", err)
	}

	if status == domain.TokenPending && lapsed {
		_, err := r.pool.Exec(ctx,
			`UPDATE auth_tokens SET status = 'expired' WHERE token = $1 AND status = 'pending'`,
			token,
		)
		if err != nil {
			return fmt.Errorf("expire token: %w", err)
		}
		return domain.ErrTokenExpired
	}
	if status == domain.TokenExpired {
		return domain.ErrTokenExpired
	}
	return domain.ErrAlreadyResolved
}

func (r *TokenRepository) Remove(ctx context.Context, token string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM auth_tokens WHERE token = $1`, token)
	if err != nil {
		return fmt.Errorf("remove token: %w", err)
	}
	return nil
}

func (r *TokenRepository) ExpirePending(ctx context.Context) (int, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE auth_tokens SET status = 'expired' WHERE status = 'pending' AND expires_at < now()`,
	)
	if err != nil {
		return 0, fmt.Errorf("expire pending: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *TokenRepository) SweepExpired(ctx context.Context, maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge)
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM auth_tokens WHERE created_at < $1`, cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("sweep tokens: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
