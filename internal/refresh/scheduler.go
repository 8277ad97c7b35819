// Package refresh implements the background bulk-refresh scheduler
// described in SPEC_FULL.md §4.10: a long-lived goroutine ticking on a
// configurable interval, owning its own ticker and exposing an abort
// handle, grounded on original_source's background/bulk_refresh.rs.
package refresh

import (
	"context"
	"time"

	"github.com/go-logr/logr"

	"github.com/tetrabit/cardcache/internal/bulkload"
	"github.com/tetrabit/cardcache/internal/logging"
)

// Loader is the subset of bulkload.Loader the scheduler depends on.
type Loader interface {
	ShouldLoad(ctx context.Context) (bool, error)
	CheckUpstreamUpdated(ctx context.Context) (bool, error)
	Load(ctx context.Context) (*bulkload.Result, error)
}

// Scheduler ticks every interval, deciding whether to trigger a bulk load.
type Scheduler struct {
	loader   Loader
	interval time.Duration
	log      logr.Logger
}

// New builds a Scheduler against loader, ticking every interval.
func New(loader Loader, interval time.Duration, log logr.Logger) *Scheduler {
	return &Scheduler{loader: loader, interval: interval, log: log.WithValues(logging.FieldComponent, "refresh")}
}

// Start spawns the scheduler's goroutine and returns a stop handle. When
// enabled is false, Start returns a no-op stop handle and spawns nothing
// (SPEC_FULL.md §4.10), matching the teacher's idiom of every long-lived
// task constructor returning a func() stop handle regardless of whether it
// actually started anything.
func Start(ctx context.Context, loader Loader, interval time.Duration, enabled bool, log logr.Logger) context.CancelFunc {
	if !enabled {
		return func() {}
	}
	s := New(loader, interval, log)
	runCtx, cancel := context.WithCancel(ctx)
	go s.run(runCtx)
	return cancel
}

// run ticks every s.interval, skipping the first tick (SPEC_FULL.md §4.10),
// until ctx is cancelled.
func (s *Scheduler) run(ctx context.Context) {
	if s.interval <= 0 {
		s.interval = 720 * time.Hour
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick runs one scheduler decision cycle.
func (s *Scheduler) tick(ctx context.Context) {
	updated, err := s.loader.CheckUpstreamUpdated(ctx)
	if err != nil {
		s.log.Info("upstream update check failed, falling back to staleness check", logging.FieldCause, err.Error())
		should, shouldErr := s.loader.ShouldLoad(ctx)
		if shouldErr != nil {
			s.log.Info("staleness fallback check failed", logging.FieldCause, shouldErr.Error())
			return
		}
		if should {
			s.runLoad(ctx)
		}
		return
	}

	if updated {
		s.runLoad(ctx)
	}
}

func (s *Scheduler) runLoad(ctx context.Context) {
	if _, err := s.loader.Load(ctx); err != nil {
		s.log.Info("scheduled bulk load failed", logging.FieldCause, err.Error())
		return
	}
	s.log.Info("scheduled bulk load completed")
}
