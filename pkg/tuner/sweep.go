package tuner

import (
	"time"

	"github.com/Unverifiedd/m3u8XM/pkg/logger"
)

// StartSweeper launches the periodic removal of expired session entries. It
// is a no-op when the sweeper is already running.
func (c *Cache) StartSweeper(interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}

	c.mu.Lock()
	if c.sweepStop != nil {
		c.mu.Unlock()
		return
	}
	c.sweepStop = make(chan struct{})
	c.sweepDone = make(chan struct{})
	stop, done := c.sweepStop, c.sweepDone
	c.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if removed := c.Sweep(time.Now()); removed > 0 {
					logger.Debugf("Swept %d expired stream sessions", removed)
				}
			}
		}
	}()
}

// StopSweeper cancels the sweeper and waits for it to exit.
func (c *Cache) StopSweeper() {
	c.mu.Lock()
	stop, done := c.sweepStop, c.sweepDone
	c.sweepStop, c.sweepDone = nil, nil
	c.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	<-done
}

// Sweep removes every session entry whose deadline has passed and reports how
// many were dropped. The sweeper is the only writer that deletes from the
// session table.
func (c *Cache) Sweep(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for token, descriptor := range c.bySession {
		if descriptor.ExpiresAt.Before(now) {
			delete(c.bySession, token)
			removed++
		}
	}
	return removed
}
