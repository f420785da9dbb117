package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/shandysiswandi/otpsvc/internal/pkg/goerror"
)

// SweepExpired moves time-based tokens whose expiry has passed into the
// expired state and returns how many rows moved. Transient storage failures
// are retried with a capped fibonacci backoff; the sweep is idempotent so a
// retry never double-counts a row.
func (s *Usecase) SweepExpired(ctx context.Context) (int64, error) {
	ctx, span := s.startSpan(ctx, "SweepExpired")
	defer span.End()

	backoff := retry.WithMaxRetries(3, retry.WithCappedDuration(5*time.Second, retry.NewFibonacci(500*time.Millisecond)))

	var swept int64
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		n, err := s.repoDB.ExpireTokens(ctx, s.clock.Now())
		if err != nil {
			return retry.RetryableError(err)
		}
		swept = n
		return nil
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to sweep expired tokens", "error", err)
		return 0, goerror.NewServer(err)
	}

	if swept > 0 {
		slog.InfoContext(ctx, "expired tokens swept", "count", swept, "total", s.sweptTotal.Add(swept))
	}
	return swept, nil
}
