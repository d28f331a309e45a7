package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/akinalp/pricelist/repository"
)

// SessionSweeper, süresi dolmuş oturumları periyodik olarak sessions.json'dan siler.
//
// ValidateToken süresi dolan oturumu zaten karşılaştığında siler; sweeper
// hiç geri dönmeyen kullanıcıların oturumlarının birikmesini engeller.
type SessionSweeper struct {
	sessionRepo repository.SessionRepository
	interval    time.Duration
	now         func() time.Time
	log         *zap.Logger
}

// NewSessionSweeper, constructor.
func NewSessionSweeper(sessionRepo repository.SessionRepository, interval time.Duration, logger *zap.Logger) *SessionSweeper {
	return &SessionSweeper{
		sessionRepo: sessionRepo,
		interval:    interval,
		now:         func() time.Time { return time.Now().UTC() },
		log:         logger.Named("session-sweeper"),
	}
}

// Run, ctx iptal edilene kadar çalışır. İlk temizlik hemen yapılır.
func (s *SessionSweeper) Run(ctx context.Context) error {
	s.log.Info("starting", zap.Duration("interval", s.interval))
	s.Sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Sweep(ctx)
		case <-ctx.Done():
			s.log.Info("stopped")
			return nil
		}
	}
}

// Sweep, tek bir temizlik turu. Hatalar loglanır, döngü durmaz.
func (s *SessionSweeper) Sweep(ctx context.Context) int {
	n, err := s.sessionRepo.DeleteExpired(ctx, s.now())
	if err != nil {
		if ctx.Err() == nil {
			s.log.Warn("failed to delete expired sessions", zap.Error(err))
		}
		return 0
	}
	if n > 0 {
		s.log.Info("expired sessions removed", zap.Int("count", n))
	}
	return n
}
