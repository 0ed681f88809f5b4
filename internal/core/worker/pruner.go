package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/vietddude/retrypolicy/internal/infra/storage"
)

// Pruner deletes journaled failures based on a retention period.
type Pruner struct {
	retention time.Duration
	journal   storage.FailedOperationRepository
	now       func() time.Time
	log       *slog.Logger
}

// NewPruner creates a new Pruner worker. A non-positive retention disables it.
func NewPruner(retention time.Duration, journal storage.FailedOperationRepository) *Pruner {
	return &Pruner{
		retention: retention,
		journal:   journal,
		now:       time.Now,
		log:       slog.Default().With("component", "pruner"),
	}
}

// Interval is how often Start prunes: a tenth of the retention period,
// bounded to [1m, 1h].
func (p *Pruner) Interval() time.Duration {
	interval := min(p.retention/10, 1*time.Hour)
	return max(interval, 1*time.Minute)
}

// Start runs the pruner loop until ctx is cancelled.
func (p *Pruner) Start(ctx context.Context) {
	if p.retention <= 0 {
		return
	}

	ticker := time.NewTicker(p.Interval())
	defer ticker.Stop()

	p.Prune(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Prune(ctx)
		}
	}
}

// Prune removes every failure older than the retention period once.
func (p *Pruner) Prune(ctx context.Context) int {
	threshold := p.now().Add(-p.retention)

	n, err := p.journal.DeleteOlderThan(ctx, threshold)
	if err != nil {
		p.log.Error("Failed to prune journal", "error", err)
		return 0
	}
	if n > 0 {
		p.log.Info("Pruned failed operations", "count", n, "before", threshold.Format(time.RFC3339))
	}
	return n
}
