package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/weather-food-recommender/internal/weather"
)

// Refresher is the weather cache as seen by the scheduler.
type Refresher interface {
	Refresh(ctx context.Context) (weather.Snapshot, error)
}

// Scheduler periodically refreshes the weather cache so requests rarely wait on a provider.
type Scheduler struct {
	scheduler *gocron.Scheduler
	cache     Refresher
	interval  time.Duration
	timeout   time.Duration
}

// New creates a new Scheduler. An interval of zero disables it.
func New(cache Refresher, interval, timeout time.Duration) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Scheduler{
		scheduler: s,
		cache:     cache,
		interval:  interval,
		timeout:   timeout,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
// The first run happens immediately.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		log.Println("scheduler: refresh interval is 0; weather cache refreshes on demand only")
		return nil
	}

	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 1
	}

	_, err := s.scheduler.Every(minutes).Minutes().Do(s.run)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	snap, err := s.cache.Refresh(ctx)
	if err != nil {
		log.Printf("scheduler: weather refresh failed: %v", err)
		return
	}
	log.Printf("scheduler: weather refreshed (avg %.1f°C, precip %.1fmm)", snap.TempAvg, snap.Precipitation)
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
