package device

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/nerrad567/gray-logic-thermal/internal/correlation"
	"github.com/nerrad567/gray-logic-thermal/internal/params"
	"github.com/nerrad567/gray-logic-thermal/internal/request"
)

// Reading is the JSON body of the temperature endpoint.
type Reading struct {
	TempF *float64 `json:"TempF"`
}

// TemperatureRecorder receives every successful reading (telemetry).
type TemperatureRecorder interface {
	RecordTemperature(tempF float64, at time.Time)
}

// Poller reads the temperature and stores it as the current value.
type Poller struct {
	target   *request.Target
	ep       request.Endpoint
	store    *params.Store
	recorder TemperatureRecorder

	mu     sync.RWMutex
	logger Logger
}

// NewPoller creates a temperature poller writing into store.
// recorder may be nil.
func NewPoller(client *request.Client, eps Endpoints, store *params.Store, retries int, recorder TemperatureRecorder) *Poller {
	ids := correlation.NewSerial(correlation.NamespaceFor(FamilyTemperaturePoll))
	return &Poller{
		target:   request.NewTarget(client, ids, eps.Temperature).Retry(retries),
		ep:       eps.Temperature,
		store:    store,
		recorder: recorder,
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for the poller.
func (p *Poller) SetLogger(logger Logger) {
	p.mu.Lock()
	p.logger = logger
	p.mu.Unlock()
}

func (p *Poller) getLogger() Logger {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.logger
}

// Tick reads the temperature once. On failure the store keeps its last
// value.
func (p *Poller) Tick(ctx context.Context) error {
	p.target.SetEndpoint(p.ep)
	res, err := p.target.Send(ctx).Wait(ctx)
	if err != nil {
		p.getLogger().Warn("temperature poll missed",
			"id", res.ID,
			"attempts", res.Attempts,
			"error", err,
		)
		return err
	}

	var r Reading
	if err := res.Decode(&r); err != nil {
		p.getLogger().Warn("temperature reading undecodable", "id", res.ID, "error", err)
		return fmt.Errorf("decoding reading: %w", err)
	}
	if r.TempF == nil {
		p.getLogger().Warn("temperature reading empty", "id", res.ID)
		return ErrMissingTemperature
	}

	snap := p.store.SetCurrentValue(*r.TempF)
	if p.recorder != nil {
		p.recorder.RecordTemperature(*r.TempF, snap.UpdatedAt)
	}
	p.getLogger().Debug("temperature read", "id", res.ID, "temp_f", *r.TempF)
	return nil
}

// Register schedules Tick every interval on s in singleton mode.
func (p *Poller) Register(ctx context.Context, s *gocron.Scheduler, interval time.Duration) (*gocron.Job, error) {
	return register(ctx, s, interval, p.Tick)
}
