// Package poller runs the repeating data feeds that keep the shared wallet
// state synchronized with the backend.
package poller

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kestrelpay/kestrel/internal/common"
)

// Feed is one independently scheduled repeating fetch of a single data kind.
// Refresh fetches fresh data and publishes it to shared state; it receives
// the feed's lifetime context, so a stopped feed's in-flight result is
// discarded instead of published.
type Feed struct {
	Name     string
	Interval time.Duration
	Refresh  func(ctx context.Context) error

	runs     atomic.Int64
	failures atomic.Int64
	lastRun  atomic.Int64 // unix nanos
}

// Runs returns how many times the feed has refreshed since Start.
func (f *Feed) Runs() int64 {
	return f.runs.Load()
}

// Failures returns how many refreshes have failed since Start.
func (f *Feed) Failures() int64 {
	return f.failures.Load()
}

// LastRun returns the time of the most recent refresh attempt.
func (f *Feed) LastRun() time.Time {
	n := f.lastRun.Load()
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}

// Controller owns the feed goroutines for one mount/unmount cycle. Start
// launches every registered feed; Stop cancels them and waits for in-flight
// refreshes to wind down. A Controller can be restarted after Stop.
type Controller struct {
	logger *common.Logger

	mu      sync.Mutex
	feeds   []*Feed
	cancel  context.CancelFunc
	done    sync.WaitGroup
	running bool
}

// NewController creates a controller with no feeds registered.
func NewController(logger *common.Logger) *Controller {
	return &Controller{logger: logger}
}

// Register adds a feed. Must be called before Start.
func (c *Controller) Register(feed *Feed) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.feeds = append(c.feeds, feed)
}

// Running reports whether the feeds are currently started.
func (c *Controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Feeds returns the registered feeds, for status reporting.
func (c *Controller) Feeds() []*Feed {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*Feed(nil), c.feeds...)
}

// Start launches one goroutine per feed. Calling Start on a running
// controller is a no-op.
func (c *Controller) Start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.running = true

	for _, feed := range c.feeds {
		c.done.Add(1)
		go func(f *Feed) {
			defer c.done.Done()
			c.runFeed(runCtx, f)
		}(feed)
	}

	c.logger.Info().Int("feeds", len(c.feeds)).Msg("Polling started")
}

// Stop cancels all feeds and waits for their goroutines to exit. Idempotent.
func (c *Controller) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	cancel := c.cancel
	c.cancel = nil
	c.mu.Unlock()

	cancel()
	c.done.Wait()
	c.logger.Info().Msg("Polling stopped")
}

// runFeed refreshes immediately, then on every tick. The ticker fires at the
// configured interval, and a refresh that overruns the interval simply delays
// the next one: there is never more than one in-flight refresh per feed.
// Refresh failures are logged and polling continues; transient backend blips
// leave the UI on stale-but-valid data.
func (c *Controller) runFeed(ctx context.Context, feed *Feed) {
	c.refresh(ctx, feed)

	ticker := time.NewTicker(feed.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.Debug().Str("feed", feed.Name).Msg("Feed stopped")
			return
		case <-ticker.C:
			c.refresh(ctx, feed)
		}
	}
}

func (c *Controller) refresh(ctx context.Context, feed *Feed) {
	if ctx.Err() != nil {
		return
	}

	start := time.Now()
	feed.runs.Add(1)
	feed.lastRun.Store(start.UnixNano())

	if err := feed.Refresh(ctx); err != nil {
		feed.failures.Add(1)
		if ctx.Err() != nil {
			return
		}
		c.logger.Warn().Err(err).Str("feed", feed.Name).Msg("Feed refresh failed")
		return
	}

	c.logger.Debug().
		Str("feed", feed.Name).
		Dur("elapsed", time.Since(start)).
		Msg("Feed refresh complete")
}
