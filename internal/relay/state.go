package relay

import (
	"context"
	"encoding/json"

	"github.com/nerrad567/gray-logic-thermal/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-thermal/internal/params"
)

// StatePublisher mirrors the parameter store onto the retained state topic.
type StatePublisher struct {
	store  *params.Store
	pub    Publisher
	topic  string
	logger Logger
}

// NewStatePublisher creates a publisher for siteID's state topic.
func NewStatePublisher(store *params.Store, pub Publisher, siteID string) *StatePublisher {
	return &StatePublisher{
		store:  store,
		pub:    pub,
		topic:  mqtt.Topics{}.ThermalState(siteID),
		logger: noopLogger{},
	}
}

// SetLogger sets the logger. Call before Run.
func (p *StatePublisher) SetLogger(logger Logger) {
	p.logger = logger
}

// Run publishes the current snapshot and then every change, in order,
// until ctx is cancelled or the store is closed. Publish failures are
// logged and do not stop the relay; the next snapshot supersedes the
// failed one.
func (p *StatePublisher) Run(ctx context.Context) {
	sub := p.store.Subscribe()
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-sub.C():
			if !ok {
				return
			}
			p.publish(snap)
		}
	}
}

func (p *StatePublisher) publish(snap params.Snapshot) {
	payload, err := json.Marshal(snap)
	if err != nil {
		p.logger.Error("encoding state snapshot", "error", err)
		return
	}
	if err := p.pub.PublishRetained(p.topic, payload); err != nil {
		p.logger.Warn("publishing state snapshot failed",
			"topic", p.topic,
			"version", snap.Version,
			"error", err,
		)
	}
}
