package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/parlayiq/picks-engine/internal/agent"
)

// Scheduler re-runs the picks pipelines on a cron schedule until stopped.
type Scheduler struct {
	runner     *agent.Runner
	cron       *cron.Cron
	logger     *logrus.Logger
	propsCount int
	teamsCount int
}

func New(runner *agent.Runner, logger *logrus.Logger, propsCount, teamsCount int) *Scheduler {
	return &Scheduler{
		runner:     runner,
		cron:       cron.New(),
		logger:     logger,
		propsCount: propsCount,
		teamsCount: teamsCount,
	}
}

// Start registers the schedule and begins running. The first run happens
// at the first cron tick, not immediately.
func (s *Scheduler) Start(ctx context.Context, schedule string) error {
	_, err := s.cron.AddFunc(schedule, func() {
		day := time.Now()
		s.logger.WithField("date", day.Format("2006-01-02")).Info("Scheduled picks run starting")

		props, teams, propsErr, teamsErr := s.runner.RunBoth(ctx, day, s.propsCount, s.teamsCount, false)
		if propsErr != nil {
			s.logger.WithError(propsErr).Error("Scheduled props run failed")
		} else {
			s.logger.WithField("stored", props.Stored).Info("Scheduled props run done")
		}
		if teamsErr != nil {
			s.logger.WithError(teamsErr).Error("Scheduled teams run failed")
		} else {
			s.logger.WithField("stored", teams.Stored).Info("Scheduled teams run done")
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.WithField("schedule", schedule).Info("Scheduler started")
	return nil
}

// Stop halts the schedule and waits for an in-flight run to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Scheduler stopped")
}
