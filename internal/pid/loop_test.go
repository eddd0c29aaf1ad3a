package pid

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/gray-logic-thermal/internal/params"
)

// fakeCommander records the order of issued commands.
type fakeCommander struct {
	mu       sync.Mutex
	commands []string
}

func (f *fakeCommander) On()  { f.add("on") }
func (f *fakeCommander) Off() { f.add("off") }

func (f *fakeCommander) add(c string) {
	f.mu.Lock()
	f.commands = append(f.commands, c)
	f.mu.Unlock()
}

func (f *fakeCommander) list() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.commands...)
}

func (f *fakeCommander) count(c string) int {
	n := 0
	for _, got := range f.list() {
		if got == c {
			n++
		}
	}
	return n
}

type fakeEvents struct {
	mu      sync.Mutex
	actions []string
}

func (f *fakeEvents) RecordEvent(action string, _ map[string]any) {
	f.mu.Lock()
	f.actions = append(f.actions, action)
	f.mu.Unlock()
}

type fakeRecorder struct {
	mu         sync.Mutex
	iterations []Iteration
}

func (f *fakeRecorder) RecordIteration(it Iteration, _ params.Snapshot) {
	f.mu.Lock()
	f.iterations = append(f.iterations, it)
	f.mu.Unlock()
}

// fakeTimer is a scheduled function fired manually by the test.
type fakeTimer struct {
	delay   time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{delay: d, f: f}
	c.timers = append(c.timers, t)
	return t
}

// pending returns timers that are neither stopped nor fired.
func (c *fakeClock) pending() []*fakeTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			out = append(out, t)
		}
	}
	return out
}

// fire runs the pending timer with the given delay.
func (c *fakeClock) fire(t *testing.T, d time.Duration) {
	t.Helper()
	for _, tm := range c.pending() {
		if tm.delay == d {
			tm.fired = true
			tm.f()
			return
		}
	}
	t.Fatalf("no pending timer with delay %v", d)
}

type harness struct {
	store    *params.Store
	cmd      *fakeCommander
	events   *fakeEvents
	recorder *fakeRecorder
	clock    *fakeClock
	loop     *Loop
}

func newHarness(t *testing.T, setup func(*params.Snapshot)) *harness {
	t.Helper()
	initial := params.Defaults()
	if setup != nil {
		setup(&initial)
	}
	h := &harness{
		store:    params.New(initial),
		cmd:      &fakeCommander{},
		events:   &fakeEvents{},
		recorder: &fakeRecorder{},
		clock:    &fakeClock{},
	}
	h.loop = New(Options{
		Store:     h.store,
		Commander: h.cmd,
		Recorder:  h.recorder,
		Events:    h.events,
		AfterFunc: h.clock.AfterFunc,
	})
	t.Cleanup(h.store.Close)
	return h
}

func configured(setpoint, current float64) func(*params.Snapshot) {
	return func(s *params.Snapshot) {
		s.Setpoint = setpoint
		s.HasSetpoint = true
		s.CurrentValue = current
		s.Period = 10 * time.Second
		s.Kp = 2
		s.MinOutputPercentage = 10
	}
}

func TestLoop_StartRejectedWhenUnconfigured(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*params.Snapshot)
	}{
		{"no setpoint", func(s *params.Snapshot) { s.Period = time.Second }},
		{"no period", func(s *params.Snapshot) { s.Setpoint = 10; s.HasSetpoint = true }},
		{"nothing", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, tt.setup)
			before := h.store.Snapshot()

			assert.False(t, h.loop.Start())
			assert.Equal(t, StateStopped, h.loop.State())
			assert.Empty(t, h.clock.pending())
			assert.Empty(t, h.cmd.list())
			assert.Equal(t, before.Version, h.store.Snapshot().Version)
			assert.Equal(t, []string{EventStartRejected}, h.events.actions)
		})
	}
}

func TestLoop_StartInitialisesState(t *testing.T) {
	h := newHarness(t, func(s *params.Snapshot) {
		configured(225, 200)(s)
		s.Integral = 42
		s.Clamped = true
		s.PreviousValue = 180
	})

	require.True(t, h.loop.Start())
	assert.Equal(t, StateRunning, h.loop.State())

	snap := h.store.Snapshot()
	assert.Zero(t, snap.Integral)
	assert.False(t, snap.Clamped)
	assert.Zero(t, snap.PreviousValue)
	assert.True(t, snap.Enabled)
	assert.False(t, snap.Reset)

	pending := h.clock.pending()
	require.Len(t, pending, 1)
	assert.Equal(t, time.Duration(0), pending[0].delay)
}

func TestLoop_StartWhileRunningIsNoop(t *testing.T) {
	h := newHarness(t, configured(225, 200))

	require.True(t, h.loop.Start())
	version := h.store.Snapshot().Version

	assert.True(t, h.loop.Start())
	assert.Equal(t, version, h.store.Snapshot().Version)
	assert.Len(t, h.clock.pending(), 1)
	assert.Equal(t, []string{EventStart}, h.events.actions)
}

func TestLoop_StartWhileRunningIgnoresClearedSetpoint(t *testing.T) {
	h := newHarness(t, configured(225, 200))

	require.True(t, h.loop.Start())
	h.store.ClearSetpoint()

	assert.True(t, h.loop.Start())
	assert.Equal(t, StateRunning, h.loop.State())
	assert.Equal(t, []string{EventStart}, h.events.actions)

	h.clock.fire(t, 0)
	assert.Equal(t, StateStopped, h.loop.State())
	assert.Equal(t, []string{EventStart, EventUnconfigured}, h.events.actions)
}

func TestLoop_TimeProportioning(t *testing.T) {
	h := newHarness(t, func(s *params.Snapshot) {
		configured(225, 200)(s)
		s.Kd = 0
	})

	require.True(t, h.loop.Start())
	h.clock.fire(t, 0)

	assert.Equal(t, []string{"on"}, h.cmd.list())
	snap := h.store.Snapshot()
	assert.Equal(t, 50.0, snap.OutputPercent)
	assert.True(t, snap.OutputOn)

	// Off at period*50%, next iteration at one full period.
	h.clock.fire(t, 5*time.Second)
	assert.Equal(t, []string{"on", "off"}, h.cmd.list())
	assert.False(t, h.store.Snapshot().OutputOn)

	pending := h.clock.pending()
	require.Len(t, pending, 1)
	assert.Equal(t, 10*time.Second, pending[0].delay)
}

func TestLoop_BelowMinimumOutputSwitchesOff(t *testing.T) {
	h := newHarness(t, configured(225, 250))

	require.True(t, h.loop.Start())
	h.clock.fire(t, 0)

	assert.Equal(t, []string{"off"}, h.cmd.list())
	assert.Zero(t, h.store.Snapshot().OutputPercent)

	// Only the next iteration is pending; no duty-cycle timer.
	pending := h.clock.pending()
	require.Len(t, pending, 1)
	assert.Equal(t, 10*time.Second, pending[0].delay)
}

func TestLoop_FullOutputHasNoOffTimer(t *testing.T) {
	h := newHarness(t, configured(300, 100))

	require.True(t, h.loop.Start())
	h.clock.fire(t, 0)

	assert.Equal(t, []string{"on"}, h.cmd.list())
	require.Len(t, h.clock.pending(), 1)
}

func TestLoop_ReschedulesAndPublishes(t *testing.T) {
	h := newHarness(t, func(s *params.Snapshot) {
		configured(100, 90)(s)
		s.Kp = 1
		s.Ki = 1
	})
	sub := h.store.Subscribe()
	defer sub.Close()
	<-sub.C()

	require.True(t, h.loop.Start())
	<-sub.C() // start

	for i := 0; i < 3; i++ {
		if i == 0 {
			h.clock.fire(t, 0)
		} else {
			h.clock.fire(t, 10*time.Second)
		}
		snap := <-sub.C()
		assert.InDelta(t, float64(10*(i+1)), snap.Integral, 1e-9)
		assert.Equal(t, 90.0, snap.PreviousValue)
	}

	assert.Equal(t, uint64(3), h.loop.Iterations())
	assert.Len(t, h.recorder.iterations, 3)
}

func TestLoop_PeriodReadFresh(t *testing.T) {
	h := newHarness(t, configured(225, 200))

	require.True(t, h.loop.Start())
	h.clock.fire(t, 0)
	h.store.SetPeriod(4 * time.Second)
	h.clock.fire(t, 5*time.Second) // duty off from the first period
	h.clock.fire(t, 10*time.Second)

	// Second iteration used the new period for both timers.
	delays := []time.Duration{}
	for _, p := range h.clock.pending() {
		delays = append(delays, p.delay)
	}
	assert.ElementsMatch(t, []time.Duration{2 * time.Second, 4 * time.Second}, delays)
}

func TestLoop_StopCancelsPendingWork(t *testing.T) {
	h := newHarness(t, configured(225, 200))

	require.True(t, h.loop.Start())
	h.clock.fire(t, 0)
	require.Len(t, h.clock.pending(), 2)

	h.loop.Stop()

	assert.Equal(t, StateStopped, h.loop.State())
	assert.Empty(t, h.clock.pending())
	assert.Equal(t, []string{"on", "off"}, h.cmd.list())

	snap := h.store.Snapshot()
	assert.False(t, snap.Enabled)
	assert.False(t, snap.OutputOn)
}

func TestLoop_StaleIterationIgnored(t *testing.T) {
	h := newHarness(t, configured(225, 200))

	require.True(t, h.loop.Start())
	stale := h.clock.pending()[0]
	h.loop.Stop()

	// A timer that already fired before Stop still calls in.
	stale.f()

	assert.Equal(t, []string{"off"}, h.cmd.list())
	assert.Zero(t, h.loop.Iterations())
	assert.Empty(t, h.clock.pending())
}

func TestLoop_StopIsIdempotent(t *testing.T) {
	h := newHarness(t, configured(225, 200))

	require.True(t, h.loop.Start())
	h.loop.Stop()
	first := h.store.Snapshot()
	h.loop.Stop()
	second := h.store.Snapshot()

	assert.Equal(t, StateStopped, h.loop.State())
	assert.Equal(t, first.Enabled, second.Enabled)
	assert.Equal(t, first.OutputOn, second.OutputOn)
	assert.Equal(t, 2, h.cmd.count("off"))
	assert.Equal(t, []string{EventStart, EventStop}, h.events.actions)
}

func TestLoop_Reset(t *testing.T) {
	h := newHarness(t, func(s *params.Snapshot) {
		configured(100, 50)(s)
		s.Ki = 1
	})

	require.True(t, h.loop.Start())
	h.clock.fire(t, 0)
	require.NotZero(t, h.store.Snapshot().Integral)

	h.loop.Reset()

	snap := h.store.Snapshot()
	assert.Zero(t, snap.Integral)
	assert.False(t, snap.Clamped)
	assert.True(t, snap.Reset)
	assert.False(t, snap.Enabled)
	assert.Equal(t, StateStopped, h.loop.State())
	assert.Empty(t, h.clock.pending())
	assert.Equal(t, []string{EventStart, EventReset}, h.events.actions)

	// Start clears the reset flag.
	require.True(t, h.loop.Start())
	assert.False(t, h.store.Snapshot().Reset)
}

func TestLoop_StopsWhenSetpointCleared(t *testing.T) {
	h := newHarness(t, configured(225, 200))

	require.True(t, h.loop.Start())
	h.store.ClearSetpoint()
	h.clock.fire(t, 0)

	assert.Equal(t, StateStopped, h.loop.State())
	assert.Equal(t, []string{"off"}, h.cmd.list())
	assert.Equal(t, []string{EventStart, EventUnconfigured}, h.events.actions)
}

func TestLoop_RealTimers(t *testing.T) {
	store := params.New(params.Defaults())
	defer store.Close()
	store.Update(func(s *params.Snapshot) {
		configured(225, 200)(s)
		s.Period = 20 * time.Millisecond
	})
	cmd := &fakeCommander{}
	loop := New(Options{Store: store, Commander: cmd})

	require.True(t, loop.Start())
	require.Eventually(t, func() bool { return loop.Iterations() >= 3 }, 2*time.Second, 5*time.Millisecond)
	loop.Stop()

	n := loop.Iterations()
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, n, loop.Iterations())
	assert.Equal(t, "off", cmd.list()[len(cmd.list())-1])
}
