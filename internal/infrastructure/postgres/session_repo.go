package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/bitovskii/meetup-app-sub000/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SessionRepository struct {
	pool *pgxpool.Pool
}

func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

func (r *SessionRepository) Upsert(ctx context.Context, sess *domain.Session) (*domain.Session, error) {
	// Keyed by the Telegram identity: logging in again refreshes the
	// snapshot and the expiry but keeps a single row per user. The id of
	// an existing row is preserved so previously minted session tokens
	// stay valid until their own expiry.
	query := `
		INSERT INTO sessions (id, telegram_user_id, first_name, last_name, username, photo_url, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (telegram_user_id) DO UPDATE
		SET first_name = EXCLUDED.first_name,
		    last_name  = EXCLUDED.last_name,
		    username   = EXCLUDED.username,
		    photo_url  = EXCLUDED.photo_url,
		    expires_at = EXCLUDED.expires_at,
		    updated_at = now()
		RETURNING id, telegram_user_id, first_name, last_name, username, photo_url,
		          created_at, updated_at, expires_at`

	row := r.pool.QueryRow(ctx, query,
		sess.ID, sess.TelegramUserID,
		sess.FirstName, sess.LastName, sess.Username, sess.PhotoURL,
		sess.ExpiresAt,
	)
	return scanSession(row)
}

func (r *SessionRepository) FindByID(ctx context.Context, id string) (*domain.Session, error) {
	query := `
		SELECT id, telegram_user_id, first_name, last_name, username, photo_url,
		       created_at, updated_at, expires_at
		FROM sessions
		WHERE id = $1 AND expires_at > now()`

	return scanSession(r.pool.QueryRow(ctx, query, id))
}

func (r *SessionRepository) DeleteExpired(ctx context.Context) (int, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at < now()`)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func scanSession(row pgx.Row) (*domain.Session, error) {
	var s domain.Session
	err := row.Scan(
		&s.ID, &s.TelegramUserID, &s.FirstName, &s.LastName, &s.Username, &s.PhotoURL,
		&s.CreatedAt, &s.UpdatedAt, &s.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}
	return &s, nil
}
