// Package sweep removes client-storage values whose session can no longer
// be alive.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Purger deletes stored values not written since cutoff.
type Purger interface {
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Sweeper periodically purges values older than the session max age.
// Browsers that never sign out leave their namespace behind; this is what
// eventually clears it.
type Sweeper struct {
	store    Purger
	maxAge   time.Duration
	interval time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

// New creates a Sweeper. If interval is <= 0, it defaults to one hour.
func New(store Purger, maxAge, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Sweeper{
		store:    store,
		maxAge:   maxAge,
		interval: interval,
		now:      time.Now,
		logger:   slog.Default(),
	}
}

// Run sweeps once immediately and then every interval until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		if _, err := s.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Warn("sweep failed", "error", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(s.interval):
		}
	}
}

// RunOnce purges values last written before now minus the max age and
// returns how many were removed.
func (s *Sweeper) RunOnce(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.maxAge)
	n, err := s.store.PurgeBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purging before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	if n > 0 {
		s.logger.Info("purged stale session values", "count", n, "cutoff", cutoff.Format(time.RFC3339))
	}
	return n, nil
}
