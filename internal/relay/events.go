package relay

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-thermal/internal/infrastructure/mqtt"
)

// EventRecorder is the sink shape shared by pid.EventRecorder,
// device.EventRecorder and audit.Recorder.
type EventRecorder interface {
	RecordEvent(action string, details map[string]any)
}

// Fanout forwards every event to each of its recorders in order.
type Fanout []EventRecorder

// RecordEvent implements EventRecorder.
func (f Fanout) RecordEvent(action string, details map[string]any) {
	for _, r := range f {
		if r != nil {
			r.RecordEvent(action, details)
		}
	}
}

// eventMessage is the payload published on the event topic.
type eventMessage struct {
	Action    string         `json:"action"`
	SiteID    string         `json:"site_id"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// EventPublisher publishes events on graylogic/thermal/{site}/event/{action}.
//
// RecordEvent never blocks: messages are queued and published on a
// background goroutine, and dropped with a warning when the queue is full.
type EventPublisher struct {
	pub    Publisher
	siteID string
	queue  chan eventMessage
	done   chan struct{}
	now    func() time.Time

	mu     sync.RWMutex
	logger Logger
	closed bool
}

// NewEventPublisher starts a publisher with room for size queued events.
func NewEventPublisher(pub Publisher, siteID string, size int) *EventPublisher {
	if size <= 0 {
		size = 32
	}
	p := &EventPublisher{
		pub:    pub,
		siteID: siteID,
		queue:  make(chan eventMessage, size),
		done:   make(chan struct{}),
		now:    time.Now,
		logger: noopLogger{},
	}
	go p.run()
	return p
}

// SetLogger sets the logger.
func (p *EventPublisher) SetLogger(logger Logger) {
	p.mu.Lock()
	p.logger = logger
	p.mu.Unlock()
}

func (p *EventPublisher) getLogger() Logger {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.logger
}

// RecordEvent implements EventRecorder.
func (p *EventPublisher) RecordEvent(action string, details map[string]any) {
	msg := eventMessage{
		Action:    action,
		SiteID:    p.siteID,
		Details:   details,
		Timestamp: p.now().UTC(),
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return
	}
	select {
	case p.queue <- msg:
	default:
		p.logger.Warn("event queue full, dropping mqtt event", "action", action)
	}
}

// Close publishes what is queued and stops the background goroutine.
func (p *EventPublisher) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()
	<-p.done
}

func (p *EventPublisher) run() {
	defer close(p.done)
	topics := mqtt.Topics{}
	for msg := range p.queue {
		payload, err := json.Marshal(msg)
		if err != nil {
			p.getLogger().Error("encoding event", "action", msg.Action, "error", err)
			continue
		}
		topic := topics.ThermalEvent(p.siteID, msg.Action)
		if err := p.pub.PublishEvent(topic, payload); err != nil {
			p.getLogger().Warn("publishing event failed", "topic", topic, "error", err)
		}
	}
}
