package audit

import (
	"context"
	"sync"
	"time"
)

// writeTimeout bounds each insert made by the Recorder.
const writeTimeout = 5 * time.Second

// Logger defines the logging interface for the recorder.
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

// Recorder queues events and writes them on a background goroutine.
//
// RecordEvent never blocks: when the queue is full the event is dropped
// and a warning is logged. It satisfies pid.EventRecorder and
// device.EventRecorder.
type Recorder struct {
	repo   Repository
	siteID string
	queue  chan Event
	done   chan struct{}
	now    func() time.Time

	mu     sync.RWMutex
	logger Logger
	closed bool
}

// NewRecorder starts a recorder writing to repo with room for size
// queued events.
func NewRecorder(repo Repository, siteID string, size int) *Recorder {
	if size <= 0 {
		size = 64
	}
	r := &Recorder{
		repo:   repo,
		siteID: siteID,
		queue:  make(chan Event, size),
		done:   make(chan struct{}),
		now:    time.Now,
		logger: noopLogger{},
	}
	go r.run()
	return r
}

// SetLogger sets the logger for the recorder.
func (r *Recorder) SetLogger(logger Logger) {
	r.mu.Lock()
	r.logger = logger
	r.mu.Unlock()
}

func (r *Recorder) getLogger() Logger {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.logger
}

// RecordEvent queues an event. The timestamp is taken now, not at write time.
func (r *Recorder) RecordEvent(action string, details map[string]any) {
	ev := Event{
		Action:    action,
		SiteID:    r.siteID,
		Details:   details,
		CreatedAt: r.now(),
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return
	}
	select {
	case r.queue <- ev:
	default:
		r.logger.Warn("control event dropped, queue full", "action", action)
	}
}

// Close stops accepting events and waits until the queued ones are written.
func (r *Recorder) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		<-r.done
		return
	}
	r.closed = true
	close(r.queue)
	r.mu.Unlock()
	<-r.done
}

func (r *Recorder) run() {
	defer close(r.done)
	for ev := range r.queue {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		if err := r.repo.Create(ctx, &ev); err != nil {
			r.getLogger().Error("failed to record control event", "action", ev.Action, "error", err)
		} else {
			r.getLogger().Debug("control event recorded", "action", ev.Action, "id", ev.ID)
		}
		cancel()
	}
}
