package trigger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTimer struct {
	d       time.Duration
	f       func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	t.stopped = true
	return true
}

type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{d: d, f: f}
	c.timers = append(c.timers, t)
	return t
}

type firing struct {
	mu    sync.Mutex
	since []time.Time
}

func (f *firing) fire(_ context.Context, since time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.since = append(f.since, since)
}

func newTestDebouncer(delay time.Duration) (*Debouncer, *fakeClock, *firing) {
	clock := &fakeClock{}
	fired := &firing{}
	d := NewDebouncer(context.Background(), delay, fired.fire, nil)
	d.AfterFunc = clock.AfterFunc
	return d, clock, fired
}

func TestDebouncer_CoalescesImports(t *testing.T) {
	d, clock, fired := newTestDebouncer(300 * time.Second)

	first := time.Date(2024, 3, 1, 20, 0, 0, 0, time.Local)
	assert.True(t, d.Notify(first))
	assert.False(t, d.Notify(first.Add(2*time.Second)))

	require.Len(t, clock.timers, 1, "one timer for both imports")
	assert.Equal(t, 300*time.Second, clock.timers[0].d)

	recorded, pending := d.Pending()
	assert.True(t, pending)
	assert.Equal(t, first, recorded)

	clock.timers[0].f()

	require.Len(t, fired.since, 1)
	assert.Equal(t, first.Add(-5*time.Minute), fired.since[0])

	_, pending = d.Pending()
	assert.False(t, pending, "slot cleared after firing")
}

func TestDebouncer_RearmsAfterFire(t *testing.T) {
	d, clock, fired := newTestDebouncer(time.Minute)
	t1 := time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)

	require.True(t, d.Notify(t1))
	clock.timers[0].f()
	require.True(t, d.Notify(t2))
	clock.timers[1].f()

	require.Len(t, fired.since, 2)
	assert.Equal(t, t2.Add(-DefaultMargin), fired.since[1])
}

func TestDebouncer_ZeroDelayUsesDefault(t *testing.T) {
	d, clock, _ := newTestDebouncer(0)
	d.Notify(time.Now())
	require.Len(t, clock.timers, 1)
	assert.Equal(t, DefaultDelay, clock.timers[0].d)
}

func TestDebouncer_Stop(t *testing.T) {
	d, clock, fired := newTestDebouncer(time.Minute)
	require.True(t, d.Notify(time.Now()))

	d.Stop()
	assert.True(t, clock.timers[0].stopped)

	clock.timers[0].f()
	assert.Empty(t, fired.since, "stopped debouncer never fires")
	assert.False(t, d.Notify(time.Now()))
}

func TestDebouncer_RealTimer(t *testing.T) {
	done := make(chan time.Time, 1)
	d := NewDebouncer(context.Background(), 10*time.Millisecond, func(_ context.Context, since time.Time) {
		done <- since
	}, nil)
	defer d.Stop()

	at := time.Now()
	d.Notify(at)
	select {
	case since := <-done:
		assert.Equal(t, at.Add(-DefaultMargin), since)
	case <-time.After(time.Second):
		t.Fatal("debouncer did not fire")
	}
}

func TestValidateCron(t *testing.T) {
	assert.NoError(t, ValidateCron("0 3 * * *"))
	assert.NoError(t, ValidateCron("@daily"))
	assert.Error(t, ValidateCron("every day"))
	assert.Error(t, ValidateCron("0 0 3 * * *"), "seconds field not accepted")
}

func TestSchedule_RunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s, err := NewSchedule(ctx, "@every 1h", func(context.Context) {}, nil)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("schedule did not stop")
	}
}

func TestNewSchedule_InvalidSpec(t *testing.T) {
	_, err := NewSchedule(context.Background(), "bad", func(context.Context) {}, nil)
	assert.Error(t, err)
}
