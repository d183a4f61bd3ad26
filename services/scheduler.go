// services/scheduler.go
package services

import (
	"context"
	"errors"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"
)

// StartCatalogSyncScheduler runs the catalog sync at startup and then every interval.
// Overlapping runs are skipped by gocron and, across replicas, by the sync lock.
func StartCatalogSyncScheduler(svc *CatalogSyncService, interval, timeout time.Duration) (gocron.Scheduler, error) {
	if timeout <= 0 || timeout > interval {
		timeout = interval
	}

	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			if _, err := svc.SyncCatalog(ctx); err != nil && !errors.Is(err, ErrSyncInProgress) {
				log.Error().Err(err).Msg("[Scheduler] catalog sync job failed")
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithName("catalog-sync"),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return nil, err
	}

	sched.Start()
	log.Info().Dur("interval", interval).Msg("[Scheduler] catalog sync scheduled")
	return sched, nil
}
