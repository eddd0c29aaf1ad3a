package request

import (
	"context"
	"sync"

	"github.com/nerrad567/gray-logic-thermal/internal/correlation"
)

// Call is the handle of one in-flight request.
//
// Exactly one of two things happens to a call: its Result is sent on Done
// and the channel is closed, or it is cancelled and Done is closed without
// a value.
type Call struct {
	req    Request
	done   chan Result
	cancel func()

	mu       sync.Mutex
	finished bool
}

// ID returns the correlation ID of the call.
func (c *Call) ID() correlation.ID {
	return c.req.ID
}

// Done returns the channel that delivers the call's single Result.
// A receive that reports ok == false means the call was cancelled.
func (c *Call) Done() <-chan Result {
	return c.done
}

// Cancel aborts the in-flight transport call. A result produced after
// Cancel is dropped. Calling Cancel on a finished call has no effect.
func (c *Call) Cancel() {
	c.discard()
	c.cancel()
}

// Wait blocks until the call finishes or ctx is done.
//
// Returns:
//   - Result: The delivered result (zero value if cancelled)
//   - error: Result.Err, ErrCancelled if the call was cancelled, or ctx.Err()
func (c *Call) Wait(ctx context.Context) (Result, error) {
	select {
	case res, ok := <-c.done:
		if !ok {
			return Result{ID: c.req.ID, Endpoint: c.req.Endpoint.Name}, ErrCancelled
		}
		return res, res.Err
	case <-ctx.Done():
		return Result{ID: c.req.ID, Endpoint: c.req.Endpoint.Name}, ctx.Err()
	}
}

// settle delivers res unless the call already finished.
func (c *Call) settle(res Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.finished {
		return
	}
	c.finished = true
	c.done <- res
	close(c.done)
}

// discard finishes the call without a result.
func (c *Call) discard() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.finished {
		return
	}
	c.finished = true
	close(c.done)
}
