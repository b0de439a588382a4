// services/scheduler.go
package services

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"
)

// StartActivationScheduler checks every interval for scheduled grids that are due.
// The caller shuts the returned scheduler down.
func (s *GridService) StartActivationScheduler(ctx context.Context, interval time.Duration) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if _, err := s.ActivateDueGrids(ctx, time.Now()); err != nil {
				log.Error().Err(err).Msg("[Scheduler] grid activation failed")
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, err
	}

	sched.Start()
	log.Info().Dur("interval", interval).Msg("⏰ Grid activation scheduler running")
	return sched, nil
}
