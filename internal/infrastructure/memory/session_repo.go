package memory

import (
	"context"
	"sync"
	"time"

	"github.com/bitovskii/meetup-app-sub000/internal/domain"
)

type SessionRepository struct {
	mu         sync.Mutex
	byTelegram map[int64]*domain.Session
	now        func() time.Time
}

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{
		byTelegram: make(map[int64]*domain.Session),
		now:        time.Now,
	}
}

func (r *SessionRepository) Upsert(_ context.Context, sess *domain.Session) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	existing, ok := r.byTelegram[sess.TelegramUserID]
	if !ok {
		cp := *sess
		cp.CreatedAt = now
		cp.UpdatedAt = now
		r.byTelegram[sess.TelegramUserID] = &cp
		out := cp
		return &out, nil
	}

	// Same identity: keep the original id and creation time, refresh
	// the snapshot and the expiry.
	existing.FirstName = sess.FirstName
	existing.LastName = sess.LastName
	existing.Username = sess.Username
	existing.PhotoURL = sess.PhotoURL
	existing.ExpiresAt = sess.ExpiresAt
	existing.UpdatedAt = now

	cp := *existing
	return &cp, nil
}

func (r *SessionRepository) FindByID(_ context.Context, id string) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range r.byTelegram {
		if s.ID == id && !s.Expired(r.now()) {
			cp := *s
			return &cp, nil
		}
	}
	return nil, domain.ErrSessionNotFound
}

func (r *SessionRepository) DeleteExpired(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for tgID, s := range r.byTelegram {
		if s.Expired(r.now()) {
			delete(r.byTelegram, tgID)
			n++
		}
	}
	return n, nil
}
