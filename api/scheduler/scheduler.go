package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// jobTimeout bounds a single run of the merge job
const jobTimeout = 2 * time.Minute

// DuplicateMerger folds notification records that share an aggregation key
type DuplicateMerger interface {
	MergeDuplicates(ctx context.Context) (int, error)
}

// Scheduler runs periodic background jobs
type Scheduler struct {
	cron     *cron.Cron
	merger   DuplicateMerger
	schedule string
}

// NewScheduler creates a scheduler that merges duplicate notifications on the
// given cron schedule
func NewScheduler(merger DuplicateMerger, schedule string) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(time.UTC)),
		merger:   merger,
		schedule: schedule,
	}
}

// Start registers the jobs and starts the cron loop
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.mergeDuplicates); err != nil {
		return fmt.Errorf("failed to register notification merge job %q: %w", s.schedule, err)
	}
	s.cron.Start()
	zap.S().Infow("scheduler started", "notificationDedupSchedule", s.schedule)
	return nil
}

// Stop gracefully stops the scheduler, waiting for a running job
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("scheduler stopped")
}

func (s *Scheduler) mergeDuplicates() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	start := time.Now()
	merged, err := s.merger.MergeDuplicates(ctx)
	if err != nil {
		zap.S().Errorw("notification merge job failed", "error", err)
		return
	}
	if merged > 0 {
		zap.S().Infow("merged duplicate notifications",
			"merged", merged,
			"duration", time.Since(start))
	}
}
