// Package sweeper bounds storage growth: it pushes lazy pending->expired
// transitions through on a timer and garbage-collects old token and session
// records. Correctness never depends on it — expiry is enforced by the
// store's read overlay and resolve guard — it only keeps the tables small.
package sweeper

import (
	"context"
	"log/slog"
	"time"

	"github.com/bitovskii/meetup-app-sub000/internal/metrics"
	"github.com/bitovskii/meetup-app-sub000/internal/repository"
)

type Sweeper struct {
	tokens    repository.TokenRepository
	sessions  repository.SessionRepository
	logger    *slog.Logger
	interval  time.Duration
	retention time.Duration
}

func New(tokens repository.TokenRepository, sessions repository.SessionRepository, logger *slog.Logger, interval, retention time.Duration) *Sweeper {
	return &Sweeper{
		tokens:    tokens,
		sessions:  sessions,
		logger:    logger.With("component", "sweeper"),
		interval:  interval,
		retention: retention,
	}
}

func (s *Sweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("sweeper started", "interval", s.interval, "retention", s.retention)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sweeper shut down")
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs one cycle. Exported so tests and one-shot maintenance can
// invoke it directly.
func (s *Sweeper) Sweep(ctx context.Context) {
	start := time.Now()
	defer func() {
		metrics.SweepCycleDuration.Observe(time.Since(start).Seconds())
	}()

	expired, err := s.tokens.ExpirePending(ctx)
	if err != nil {
		s.logger.Error("expire pending tokens", "error", err)
	} else if expired > 0 {
		metrics.SweepExpiredTotal.WithLabelValues("expired").Add(float64(expired))
		s.logger.Info("expired pending tokens", "count", expired)
	}

	deleted, err := s.tokens.SweepExpired(ctx, s.retention)
	if err != nil {
		s.logger.Error("sweep old tokens", "error", err)
	} else if deleted > 0 {
		metrics.SweepExpiredTotal.WithLabelValues("deleted").Add(float64(deleted))
		s.logger.Info("deleted old tokens", "count", deleted)
	}

	sessions, err := s.sessions.DeleteExpired(ctx)
	if err != nil {
		s.logger.Error("delete expired sessions", "error", err)
	} else if sessions > 0 {
		metrics.SweepExpiredTotal.WithLabelValues("sessions").Add(float64(sessions))
		s.logger.Info("deleted expired sessions", "count", sessions)
	}
}
