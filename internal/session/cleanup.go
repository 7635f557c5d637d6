package session

import (
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// CleanupScheduler runs Store.CleanupOlderThan on a cron schedule, evicting
// sessions past their TTL without relying solely on lazy eviction at read
// time (see DESIGN.md's Open Question resolution for session TTL).
type CleanupScheduler struct {
	cron *cron.Cron
}

// StartCleanup registers a cron job matching spec, evicting sessions older
// than maxAge every time it fires, and starts the scheduler. Call Stop to
// shut it down.
func StartCleanup(store *Store, spec string, maxAge time.Duration) (*CleanupScheduler, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		removed := store.CleanupOlderThan(maxAge)
		if removed > 0 {
			slog.Info("session: cleanup evicted expired sessions", slog.Int("count", removed))
		}
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	return &CleanupScheduler{cron: c}, nil
}

// Stop halts the scheduler, waiting for any in-flight run to finish.
func (s *CleanupScheduler) Stop() {
	<-s.cron.Stop().Done()
}
