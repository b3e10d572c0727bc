// Package trigger decides when localization runs start: after a quiet
// period following media imports, and on a cron schedule.
package trigger

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Defaults for Debouncer.
const (
	DefaultDelay  = 300 * time.Second
	DefaultMargin = 5 * time.Minute
)

// FireFunc starts an import run covering items added at or after since.
type FireFunc func(ctx context.Context, since time.Time)

// Timer is the part of *time.Timer the debouncer uses.
type Timer interface {
	Stop() bool
}

// Debouncer coalesces import notifications into a single delayed run.
// It holds one pending slot: the first import arms a timer, later imports
// are absorbed until the timer fires. The run covers items added since the
// first recorded import minus Margin.
type Debouncer struct {
	Delay  time.Duration
	Margin time.Duration
	// AfterFunc schedules f after d. Defaults to time.AfterFunc.
	AfterFunc func(d time.Duration, f func()) Timer

	fire FireFunc
	ctx  context.Context
	log  *slog.Logger

	mu       sync.Mutex
	pending  Timer
	recorded time.Time
	stopped  bool
}

// NewDebouncer creates a debouncer calling fire with ctx. A non-positive
// delay uses DefaultDelay.
func NewDebouncer(ctx context.Context, delay time.Duration, fire FireFunc, log *slog.Logger) *Debouncer {
	if log == nil {
		log = slog.Default()
	}
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Debouncer{
		Delay:  delay,
		Margin: DefaultMargin,
		AfterFunc: func(d time.Duration, f func()) Timer {
			return time.AfterFunc(d, f)
		},
		fire: fire,
		ctx:  ctx,
		log:  log.With("component", "debounce"),
	}
}

// Notify records an import at the given time. It returns true when this
// call armed the timer and false when a run was already pending.
func (d *Debouncer) Notify(at time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return false
	}
	if d.pending != nil {
		d.log.Debug("import absorbed by pending run", "recorded", d.recorded.Format(time.DateTime))
		return false
	}
	d.recorded = at
	d.pending = d.AfterFunc(d.Delay, d.onTimer)
	d.log.Info("import recorded, run scheduled", "recorded", at.Format(time.DateTime), "delay", d.Delay)
	return true
}

// Pending returns the recorded import time while a run is pending.
func (d *Debouncer) Pending() (time.Time, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.recorded, d.pending != nil
}

// Stop cancels any pending run. Later notifications are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.pending != nil {
		d.pending.Stop()
		d.pending = nil
	}
}

func (d *Debouncer) onTimer() {
	d.mu.Lock()
	if d.stopped || d.pending == nil {
		d.mu.Unlock()
		return
	}
	recorded := d.recorded
	d.pending = nil
	d.recorded = time.Time{}
	d.mu.Unlock()

	since := recorded.Add(-d.Margin)
	d.log.Info("running post-import localization",
		"recorded", recorded.Format(time.DateTime),
		"since", since.Format(time.DateTime))
	d.fire(d.ctx, since)
}
