package server

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/remotevalues/internal/fetch"
)

// CacheFlusher empties a cache on a fixed interval.
type CacheFlusher struct {
	scheduler gocron.Scheduler
	cache     fetch.Cache
}

// NewCacheFlusher schedules a flush of cache every interval. The job starts with Start.
func NewCacheFlusher(cache fetch.Cache, interval time.Duration) (*CacheFlusher, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	f := &CacheFlusher{scheduler: s, cache: cache}

	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(f.flush),
		gocron.WithName("cache-flush"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("failed to create cache flush job: %w", err)
	}
	return f, nil
}

// Start begins the schedule.
func (f *CacheFlusher) Start() {
	f.scheduler.Start()
}

// Stop shuts the scheduler down.
func (f *CacheFlusher) Stop() error {
	return f.scheduler.Shutdown()
}

func (f *CacheFlusher) flush() {
	n := f.cache.Flush()
	slog.Debug("Flushed remote value cache", slog.Int("entries", n))
}
