// Package scheduler runs cache housekeeping in the background while the
// reader is open.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

const pruneTimeout = time.Minute

// Pruner drops cached headline pages older than the given age.
type Pruner interface {
	Prune(ctx context.Context, olderThan time.Duration) (int64, error)
}

type Scheduler struct {
	ctx       context.Context
	cron      *cron.Cron
	pruner    Pruner
	retention time.Duration
	log       *slog.Logger
}

func New(ctx context.Context, pruner Pruner, retention time.Duration, log *slog.Logger) *Scheduler {
	return &Scheduler{
		ctx:       ctx,
		cron:      cron.New(),
		pruner:    pruner,
		retention: retention,
		log:       log,
	}
}

// Start registers the prune job on spec (standard cron or "@every 1h") and
// starts the cron loop. An empty spec disables housekeeping.
func (s *Scheduler) Start(spec string) error {
	if spec == "" {
		return nil
	}
	if _, err := s.cron.AddFunc(spec, s.prune); err != nil {
		return fmt.Errorf("scheduling prune %q: %w", spec, err)
	}
	s.cron.Start()
	s.log.InfoContext(s.ctx, "Scheduled cache pruning", "spec", spec, "retention", s.retention)
	return nil
}

// Stop halts the loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) prune() {
	ctx, cancel := context.WithTimeout(s.ctx, pruneTimeout)
	defer cancel()

	n, err := s.pruner.Prune(ctx, s.retention)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to prune cache", "error", err)
		return
	}
	if n > 0 {
		s.log.InfoContext(ctx, "Pruned cached headlines", "deleted", n)
	}
}
