package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// QuoteExpirySweeper periodically expires pending quotes that outlived their TTL.
// AcceptQuote enforces expiry on its own; the sweeper only keeps listings honest.
type QuoteExpirySweeper struct {
	quotes   IQuoteUseCase
	interval time.Duration
	logger   *zap.Logger
}

func NewQuoteExpirySweeper(quotes IQuoteUseCase, interval time.Duration, logger *zap.Logger) *QuoteExpirySweeper {
	return &QuoteExpirySweeper{quotes: quotes, interval: interval, logger: logger}
}

// Run blocks until ctx is cancelled.
func (s *QuoteExpirySweeper) Run(ctx context.Context) {
	if s.interval <= 0 {
		return
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("[quote][sweeper] started", zap.Duration("interval", s.interval))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("[quote][sweeper] stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *QuoteExpirySweeper) sweep(ctx context.Context) {
	n, err := s.quotes.ExpireStaleQuotes(ctx)
	if err != nil {
		s.logger.Error("[quote][sweeper] sweep failed", zap.Int("expired", n), zap.Error(err))
		return
	}
	if n > 0 {
		s.logger.Info("[quote][sweeper] sweep done", zap.Int("expired", n))
	}
}
