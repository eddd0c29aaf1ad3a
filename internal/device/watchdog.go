package device

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/nerrad567/gray-logic-thermal/internal/correlation"
	"github.com/nerrad567/gray-logic-thermal/internal/request"
)

// Request family names for serial correlation IDs.
const (
	FamilyWatchdogReset   = "watchdog-reset"
	FamilyTemperaturePoll = "temperature-poll"
)

// Status is the controller's watchdog status document. Its fields are
// firmware-defined.
type Status map[string]any

// WatchdogOptions configures a Watchdog.
type WatchdogOptions struct {
	// Retries is the retry budget of each feed.
	Retries int
}

// Watchdog enables and feeds the controller's watchdog.
//
// Feeds are numbered with a serial generator in the "watchdog-reset"
// namespace, so the n-th feed of a run is recognisable in logs.
type Watchdog struct {
	client  *request.Client
	eps     Endpoints
	feed    *request.Target
	ids     *correlation.Serial
	retries int

	mu     sync.RWMutex
	logger Logger

	feeds  atomic.Uint64
	misses atomic.Uint64
}

// NewWatchdog creates a watchdog feeder using client.
func NewWatchdog(client *request.Client, eps Endpoints, opts WatchdogOptions) *Watchdog {
	ids := correlation.NewSerial(correlation.NamespaceFor(FamilyWatchdogReset))
	return &Watchdog{
		client:  client,
		eps:     eps,
		feed:    request.NewTarget(client, ids, eps.WatchdogReset).Retry(opts.Retries),
		ids:     ids,
		retries: opts.Retries,
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the watchdog.
func (w *Watchdog) SetLogger(logger Logger) {
	w.mu.Lock()
	w.logger = logger
	w.mu.Unlock()
}

func (w *Watchdog) getLogger() Logger {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.logger
}

// Enable turns the controller's watchdog on.
func (w *Watchdog) Enable(ctx context.Context) error {
	call := w.client.Issue(ctx, request.Request{
		Endpoint: w.eps.WatchdogEnable,
		ID:       correlation.NewRandom().Next(),
		Retries:  w.retries,
	})
	if _, err := call.Wait(ctx); err != nil {
		return fmt.Errorf("enabling watchdog: %w", err)
	}
	w.getLogger().Info("device watchdog enabled")
	return nil
}

// Tick feeds the watchdog once. A failure after the retry budget is a
// missed feed; it is logged and returned.
func (w *Watchdog) Tick(ctx context.Context) error {
	w.feed.SetEndpoint(w.eps.WatchdogReset)
	res, err := w.feed.Send(ctx).Wait(ctx)
	if err != nil {
		w.misses.Add(1)
		w.getLogger().Warn("watchdog feed missed",
			"id", res.ID,
			"attempts", res.Attempts,
			"error", err,
		)
		return err
	}
	w.feeds.Add(1)
	w.getLogger().Debug("watchdog fed", "id", res.ID, "attempts", res.Attempts)
	return nil
}

// Status reads the controller's watchdog status.
func (w *Watchdog) Status(ctx context.Context) (Status, error) {
	call := w.client.Issue(ctx, request.Request{
		Endpoint: w.eps.WatchdogStatus,
		ID:       correlation.NewRandom().Next(),
		Retries:  w.retries,
	})
	res, err := call.Wait(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading watchdog status: %w", err)
	}
	var st Status
	if err := json.Unmarshal(res.Body, &st); err != nil {
		return nil, fmt.Errorf("decoding watchdog status: %w", err)
	}
	return st, nil
}

// LastID returns the correlation ID of the most recent feed.
func (w *Watchdog) LastID() correlation.ID {
	return w.ids.Last()
}

// Stats returns the number of successful and missed feeds.
func (w *Watchdog) Stats() (fed, missed uint64) {
	return w.feeds.Load(), w.misses.Load()
}

// Register schedules Tick every interval on s in singleton mode.
func (w *Watchdog) Register(ctx context.Context, s *gocron.Scheduler, interval time.Duration) (*gocron.Job, error) {
	return register(ctx, s, interval, w.Tick)
}

// register adds a singleton fixed-interval job running tick.
func register(ctx context.Context, s *gocron.Scheduler, interval time.Duration, tick func(context.Context) error) (*gocron.Job, error) {
	if interval <= 0 {
		return nil, ErrInvalidInterval
	}
	job, err := s.Every(interval).SingletonMode().Do(func() {
		_ = tick(ctx) // logged by tick; a failed cycle is a missed cycle
	})
	if err != nil {
		return nil, fmt.Errorf("scheduling job: %w", err)
	}
	return job, nil
}
