package services

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
)

var cleanupInterval = 24 * time.Hour

// StartCleanupScheduler purges notifications older than retention once a day.
// The caller owns the returned scheduler and shuts it down on exit.
func (s *NotificationService) StartCleanupScheduler(retention time.Duration) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = sched.NewJob(
		gocron.DurationJob(cleanupInterval),
		gocron.NewTask(func() {
			s.purgeExpired(retention)
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, err
	}

	sched.Start()
	s.log.WithField("retention", retention.String()).Info("[SCHEDULER] notification cleanup scheduled")
	return sched, nil
}

func (s *NotificationService) purgeExpired(retention time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	removed, err := s.DeleteOlderThan(ctx, time.Now().Add(-retention))
	if err != nil {
		s.log.WithError(err).Error("[SCHEDULER] notification cleanup failed")
		return
	}
	s.log.WithField("removed", removed).Info("[SCHEDULER] old notifications removed")
}
