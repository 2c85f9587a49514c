// Package scheduler периодически снимает истёкшие коды сброса пароля.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/farm-backend/internal/lib/sl"
)

// ResetCodeRepository хранилище, умеющее очищать просроченные коды.
type ResetCodeRepository interface {
	ClearExpiredResetCodes(ctx context.Context, now time.Time) (int64, error)
}

// Sweeper очищает коды сброса, срок которых истёк.
type Sweeper struct {
	repo     ResetCodeRepository
	interval time.Duration
	now      func() time.Time
	log      *slog.Logger
}

// NewSweeper создает новый экземпляр Sweeper.
func NewSweeper(repo ResetCodeRepository, interval time.Duration, log *slog.Logger) *Sweeper {
	return &Sweeper{
		repo:     repo,
		interval: interval,
		now:      time.Now,
		log:      log,
	}
}

// Run выполняет очистку сразу и затем по тикеру до отмены ctx.
// При неположительном интервале выполняется только первый проход.
func (s *Sweeper) Run(ctx context.Context) {
	s.Sweep(ctx)
	if s.interval <= 0 {
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep выполняет один проход очистки и возвращает число снятых кодов.
func (s *Sweeper) Sweep(ctx context.Context) int64 {
	n, err := s.repo.ClearExpiredResetCodes(ctx, s.now().UTC())
	if err != nil {
		s.log.Error("failed to clear expired reset codes", sl.Err(err))
		return 0
	}
	if n > 0 {
		s.log.Info("expired reset codes cleared", slog.Int64("count", n))
	}
	return n
}
