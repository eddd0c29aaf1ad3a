package pid

import (
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-thermal/internal/params"
)

// State is the run state of the loop.
type State string

const (
	StateStopped State = "stopped"
	StateRunning State = "running"
)

// Event actions reported to the EventRecorder.
const (
	EventStart         = "start"
	EventStartRejected = "start_rejected"
	EventStop          = "stop"
	EventReset         = "reset"
	EventUnconfigured  = "stopped_unconfigured"
)

// Commander switches the device output. Implementations must return
// immediately and deliver the command asynchronously.
type Commander interface {
	On()
	Off()
}

// Recorder receives every computed iteration (telemetry).
type Recorder interface {
	RecordIteration(it Iteration, snap params.Snapshot)
}

// EventRecorder receives loop lifecycle transitions.
type EventRecorder interface {
	RecordEvent(action string, details map[string]any)
}

// Timer is a pending scheduled function.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f to run after d on its own goroutine.
type AfterFunc func(d time.Duration, f func()) Timer

// Logger defines the logging interface for the loop.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Options holds the loop's collaborators.
type Options struct {
	// Store is required.
	Store *params.Store
	// Commander is required.
	Commander Commander
	// Recorder is optional.
	Recorder Recorder
	// Events is optional.
	Events EventRecorder
	// AfterFunc defaults to time.AfterFunc.
	AfterFunc AfterFunc
}

// Loop is the self-rescheduling PID control loop.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
//   - At most one iteration is pending or running at any time.
type Loop struct {
	store     *params.Store
	commander Commander
	recorder  Recorder
	events    EventRecorder
	after     AfterFunc
	logger    Logger

	mu         sync.Mutex
	state      State
	generation uint64
	next       Timer // pending iteration
	dutyOff    Timer // pending duty-cycle "off"
	dutySeq    uint64
	iterations uint64
}

// New creates a stopped loop.
func New(opts Options) *Loop {
	after := opts.AfterFunc
	if after == nil {
		after = func(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }
	}
	return &Loop{
		store:     opts.Store,
		commander: opts.Commander,
		recorder:  opts.Recorder,
		events:    opts.Events,
		after:     after,
		logger:    noopLogger{},
		state:     StateStopped,
	}
}

// SetLogger sets the logger for the loop.
func (l *Loop) SetLogger(logger Logger) {
	l.mu.Lock()
	l.logger = logger
	l.mu.Unlock()
}

// State returns the current run state.
func (l *Loop) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Iterations returns how many iterations have run since the loop was created.
func (l *Loop) Iterations() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.iterations
}

// Start begins regulation.
//
// It fails without touching any state when the setpoint or the period is
// unset. Otherwise it clears the integral and the clamp flag, zeroes the
// previous value, marks the loop running and runs the first iteration
// immediately. Starting a running loop is a no-op that reports true, even
// when its parameters were unset since; the next iteration stops it.
//
// Returns:
//   - bool: false only when the parameters are not configured
func (l *Loop) Start() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state == StateRunning {
		return true
	}

	snap := l.store.Snapshot()
	if !snap.Configured() {
		l.logger.Warn("control loop not started",
			"error", ErrNotConfigured,
			"has_setpoint", snap.HasSetpoint,
			"period", snap.Period,
		)
		l.recordEvent(EventStartRejected, map[string]any{
			"has_setpoint": snap.HasSetpoint,
			"period_s":     snap.Period.Seconds(),
		})
		return false
	}

	l.store.Update(func(p *params.Snapshot) {
		p.Integral = 0
		p.Clamped = false
		p.PreviousValue = 0
		p.Enabled = true
		p.Reset = false
	})

	l.state = StateRunning
	l.generation++
	gen := l.generation
	l.next = l.after(0, func() { l.iterate(gen) })

	l.logger.Info("control loop started",
		"setpoint", snap.Setpoint,
		"period", snap.Period,
	)
	l.recordEvent(EventStart, map[string]any{
		"setpoint": snap.Setpoint,
		"period_s": snap.Period.Seconds(),
	})
	return true
}

// Stop cancels the pending iteration, switches the device off and marks
// the loop stopped. Commands already in flight are not cancelled.
// Calling Stop on a stopped loop only repeats the "off" command.
func (l *Loop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stopLocked(EventStop)
}

// Reset clears the integral and the clamp flag, flags the reset and stops
// the loop.
func (l *Loop) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.store.Update(func(p *params.Snapshot) {
		p.Integral = 0
		p.Clamped = false
		p.Reset = true
	})
	l.stopLocked(EventReset)
}

func (l *Loop) stopLocked(action string) {
	wasRunning := l.state == StateRunning

	l.cancelTimersLocked()
	l.generation++
	l.commander.Off()

	l.store.Update(func(p *params.Snapshot) {
		p.Enabled = false
		p.OutputOn = false
	})
	l.state = StateStopped

	if wasRunning {
		l.logger.Info("control loop stopped", "reason", action)
		l.recordEvent(action, nil)
	}
}

func (l *Loop) cancelTimersLocked() {
	if l.next != nil {
		l.next.Stop()
		l.next = nil
	}
	if l.dutyOff != nil {
		l.dutyOff.Stop()
		l.dutyOff = nil
	}
}

// iterate runs one PID step and re-arms the loop. It does nothing if the
// loop was stopped or restarted since the step was scheduled.
func (l *Loop) iterate(gen uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != StateRunning || gen != l.generation {
		return
	}
	l.next = nil

	snap := l.store.Snapshot()
	if !snap.Configured() {
		l.logger.Warn("parameters no longer configured, stopping control loop",
			"has_setpoint", snap.HasSetpoint,
			"period", snap.Period,
		)
		l.stopLocked(EventUnconfigured)
		return
	}

	it := Compute(snap)
	l.iterations++

	on := it.OutputPercent >= snap.MinOutputPercentage
	published := l.store.Update(func(p *params.Snapshot) {
		p.Integral = it.Integral
		p.PreviousValue = it.PreviousValue
		p.Proportional = it.Proportional
		p.Differential = it.Differential
		p.Clamped = it.Clamped
		p.OutputPercent = it.OutputPercent
		p.OutputOn = on
	})

	l.logger.Debug("control loop iteration",
		"error", it.Error,
		"proportional", it.Proportional,
		"integral", it.Integral,
		"differential", it.Differential,
		"raw_output", it.RawOutput,
		"output_percent", it.OutputPercent,
		"clamped", it.Clamped,
	)

	l.driveLocked(gen, it.OutputPercent, on, snap.Period)

	if l.recorder != nil {
		l.recorder.RecordIteration(it, published)
	}

	l.next = l.after(snap.Period, func() { l.iterate(gen) })
}

// driveLocked converts the output percentage into the period's duty cycle.
func (l *Loop) driveLocked(gen uint64, outputPercent float64, on bool, period time.Duration) {
	if l.dutyOff != nil {
		l.dutyOff.Stop()
		l.dutyOff = nil
	}
	l.dutySeq++
	seq := l.dutySeq

	if !on {
		l.commander.Off()
		return
	}

	l.commander.On()
	if outputPercent < 100 {
		l.dutyOff = l.after(OnDuration(period, outputPercent), func() { l.endDuty(gen, seq) })
	}
}

// endDuty switches the output off at the end of the on-slice.
func (l *Loop) endDuty(gen, seq uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != StateRunning || gen != l.generation || seq != l.dutySeq {
		return
	}
	l.dutyOff = nil
	l.commander.Off()
	l.store.SetOutputOn(false)
}

func (l *Loop) recordEvent(action string, details map[string]any) {
	if l.events != nil {
		l.events.RecordEvent(action, details)
	}
}
