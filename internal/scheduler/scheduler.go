package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"

	"github.com/i474232898/dashboard-api/internal/weather"
)

// jobTimeout bounds a single refresh run.
const jobTimeout = 30 * time.Second

// Refresher is the part of weather.Service the warmer drives.
type Refresher interface {
	Refresh(ctx context.Context, loc weather.Location) (weather.Snapshot, error)
}

// Scheduler periodically refreshes the cached weather for the configured
// location so dashboard requests rarely pay for an upstream call.
type Scheduler struct {
	scheduler *gocron.Scheduler
	service   Refresher
	location  weather.Location
	interval  time.Duration
	logger    zerolog.Logger
}

// New creates a new Scheduler. A zero interval disables it.
func New(service Refresher, location weather.Location, interval time.Duration, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		service:   service,
		location:  location,
		interval:  interval,
		logger:    logger.With().Str("component", "scheduler").Logger(),
	}
}

// Start schedules the refresh job and starts the underlying scheduler. The
// first run happens immediately.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		s.logger.Info().Msg("cache warming disabled")
		return nil
	}

	if _, err := s.scheduler.Every(s.interval).SingletonMode().Do(s.run); err != nil {
		return err
	}

	s.logger.Info().Dur("interval", s.interval).Str("location", s.location.Key()).Msg("cache warming started")
	s.scheduler.StartAsync()
	return nil
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	start := time.Now()
	if _, err := s.service.Refresh(ctx, s.location); err != nil {
		s.logger.Warn().Err(err).Str("location", s.location.Key()).Msg("refresh failed")
		return
	}
	s.logger.Debug().Dur("took", time.Since(start)).Msg("refresh completed")
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil && s.scheduler.IsRunning() {
		s.scheduler.Stop()
	}
}
