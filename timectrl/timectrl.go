// Package timectrl paces replays of past solar days so instrument
// readings can be stepped through faster than wall time.
package timectrl

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Clock abstracts time for components that can run against either the
// wall clock or a replayed window.
type Clock interface {
	// Now returns the current time on this clock.
	Now() time.Time
	// After returns a channel that receives the clock's time once d has
	// elapsed on it.
	After(d time.Duration) <-chan time.Time
}

// SystemClock is the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time                         { return time.Now() }
func (SystemClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// Listener receives every simulated instant a replay visits, in order.
type Listener func(time.Time)

// Config describes one replay window.
type Config struct {
	// Start and End bound the simulated window; End must be after Start.
	Start time.Time
	End   time.Time
	// Step is the simulated time advanced per tick.
	Step time.Duration
	// Acceleration is the simulated-to-wall speed ratio: 3600 replays an
	// hour of simulated time per wall second. Zero or negative replays
	// without waiting at all.
	Acceleration float64
	// WallClock paces the replay; SystemClock when nil.
	WallClock Clock
}

// ReplayController walks a simulated time window, notifying listeners on
// every tick. It implements Clock against the simulated timeline, so
// waiters registered through After fire as the replay passes their
// deadline. A controller runs one window once.
type ReplayController struct {
	start time.Time
	end   time.Time
	step  time.Duration
	accel float64
	wall  Clock

	mu        sync.RWMutex
	current   time.Time
	listeners []Listener
	waiters   []waiter
}

type waiter struct {
	at time.Time
	ch chan time.Time
}

// NewReplayController validates the window and builds a controller
// positioned at its start.
func NewReplayController(cfg Config) (*ReplayController, error) {
	if !cfg.End.After(cfg.Start) {
		return nil, errors.New("timectrl: window end must be after start")
	}
	if cfg.Step <= 0 {
		return nil, errors.New("timectrl: step must be positive")
	}
	wall := cfg.WallClock
	if wall == nil {
		wall = SystemClock{}
	}
	return &ReplayController{
		start:   cfg.Start,
		end:     cfg.End,
		step:    cfg.Step,
		accel:   cfg.Acceleration,
		wall:    wall,
		current: cfg.Start,
	}, nil
}

// Now returns the current simulated time. Implements Clock.
func (rc *ReplayController) Now() time.Time {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	return rc.current
}

// After returns a channel that receives the simulated time on the first
// tick at or past the deadline. Implements Clock.
func (rc *ReplayController) After(d time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	rc.mu.Lock()
	rc.waiters = append(rc.waiters, waiter{at: rc.current.Add(d), ch: ch})
	rc.mu.Unlock()
	return ch
}

// AddListener registers a callback invoked on every simulated instant,
// the window start included. Register before Start.
func (rc *ReplayController) AddListener(fn Listener) {
	rc.mu.Lock()
	rc.listeners = append(rc.listeners, fn)
	rc.mu.Unlock()
}

// Start replays the window, blocking until the end is reached or ctx is
// cancelled. The final tick is clamped to the window end.
func (rc *ReplayController) Start(ctx context.Context) error {
	rc.advanceTo(rc.start)

	for {
		rc.mu.RLock()
		current := rc.current
		rc.mu.RUnlock()
		if !current.Before(rc.end) {
			return nil
		}

		simStep := rc.step
		if remaining := rc.end.Sub(current); remaining < simStep {
			simStep = remaining
		}

		if wait := rc.wallWait(simStep); wait > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-rc.wall.After(wait):
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}

		rc.advanceTo(current.Add(simStep))
	}
}

// wallWait converts a simulated step into wall time at the configured
// acceleration.
func (rc *ReplayController) wallWait(simStep time.Duration) time.Duration {
	if rc.accel <= 0 {
		return 0
	}
	return time.Duration(float64(simStep) / rc.accel)
}

// advanceTo moves the simulated clock, releases matured waiters and
// notifies listeners.
func (rc *ReplayController) advanceTo(t time.Time) {
	rc.mu.Lock()
	rc.current = t

	var due []waiter
	kept := rc.waiters[:0]
	for _, w := range rc.waiters {
		if w.at.After(t) {
			kept = append(kept, w)
		} else {
			due = append(due, w)
		}
	}
	rc.waiters = kept
	listeners := rc.listeners
	rc.mu.Unlock()

	for _, w := range due {
		w.ch <- t
	}
	for _, fn := range listeners {
		fn(t)
	}
}
