package device

import (
	"context"
	"errors"
	"sync"

	"github.com/nerrad567/gray-logic-thermal/internal/correlation"
	"github.com/nerrad567/gray-logic-thermal/internal/request"
)

// EventCommandFailed is recorded when an on/off command exhausts its retries.
const EventCommandFailed = "command_failed"

// Commander sends on/off commands without blocking the caller.
//
// Commands share one request.Target: switching between "on" and "off"
// gives the target a fresh correlation ID, repeated commands to the same
// endpoint keep it. Failures are logged and recorded, never returned.
type Commander struct {
	ctx    context.Context
	target *request.Target
	eps    Endpoints
	events EventRecorder

	mu     sync.RWMutex
	logger Logger
	wg     sync.WaitGroup
}

// NewCommander creates a commander issuing requests on client.
// ctx bounds every command; cancel it on shutdown.
func NewCommander(ctx context.Context, client *request.Client, eps Endpoints, retries int, events EventRecorder) *Commander {
	target := request.NewTarget(client, correlation.NewRandom(), eps.Off).Retry(retries)
	return &Commander{
		ctx:    ctx,
		target: target,
		eps:    eps,
		events: events,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the commander.
func (c *Commander) SetLogger(logger Logger) {
	c.mu.Lock()
	c.logger = logger
	c.mu.Unlock()
}

func (c *Commander) getLogger() Logger {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.logger
}

// On switches the fan/heater on.
func (c *Commander) On() {
	c.send(c.eps.On)
}

// Off switches the fan/heater off.
func (c *Commander) Off() {
	c.send(c.eps.Off)
}

// Wait blocks until every command issued so far has finished.
func (c *Commander) Wait() {
	c.wg.Wait()
}

func (c *Commander) send(ep request.Endpoint) {
	call := c.target.SendTo(c.ctx, ep)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		res, err := call.Wait(context.Background())
		log := c.getLogger()

		switch {
		case err == nil:
			log.Debug("device command sent",
				"command", ep.Name,
				"id", res.ID,
				"attempts", res.Attempts,
			)
		case errors.Is(err, request.ErrCancelled):
			log.Debug("device command cancelled", "command", ep.Name, "id", res.ID)
		default:
			log.Warn("device command failed",
				"command", ep.Name,
				"id", res.ID,
				"attempts", res.Attempts,
				"error", err,
			)
			if c.events != nil {
				c.events.RecordEvent(EventCommandFailed, map[string]any{
					"command":  ep.Name,
					"id":       res.ID.String(),
					"attempts": res.Attempts,
					"error":    err.Error(),
				})
			}
		}
	}()
}
