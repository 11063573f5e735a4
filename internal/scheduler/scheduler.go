package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/weiawesome/yaycha/pkg/log"
)

const DefaultPurgeSchedule = "@daily"

// Purger deletes read notifications past their retention.
type Purger interface {
	PurgeRead(ctx context.Context) (int64, error)
}

// Scheduler runs periodic maintenance jobs on a cron schedule.
type Scheduler struct {
	cron   *cron.Cron
	purger Purger
	ctx    context.Context
}

// New schedules the notification purge. schedule accepts standard five-field
// cron expressions and descriptors such as "@hourly" or "@every 6h".
func New(ctx context.Context, purger Purger, schedule string) (*Scheduler, error) {
	if schedule == "" {
		schedule = DefaultPurgeSchedule
	}

	s := &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(cron.DefaultLogger),
			cron.SkipIfStillRunning(cron.DefaultLogger),
		)),
		purger: purger,
		ctx:    ctx,
	}
	if _, err := s.cron.AddFunc(schedule, s.PurgeNotifications); err != nil {
		return nil, fmt.Errorf("invalid purge schedule %q: %w", schedule, err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	l := log.Ctx(s.ctx)
	l.Info().Int("jobs", len(s.cron.Entries())).Msg("scheduler started")
}

// Stop stops scheduling and returns a context that is done once running
// jobs have finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// PurgeNotifications runs one purge.
func (s *Scheduler) PurgeNotifications() {
	l := log.Ctx(s.ctx)

	n, err := s.purger.PurgeRead(s.ctx)
	if err != nil {
		l.Error().Err(err).Msg("failed to purge read notifications")
		return
	}
	l.Info().Int64("deleted", n).Msg("purged read notifications")
}
