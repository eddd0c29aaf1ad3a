package request

import (
	"context"
	"sync"

	"github.com/nerrad567/gray-logic-thermal/internal/correlation"
)

// Target is a client bound to one endpoint at a time.
//
// Moving a target to another endpoint gives it a fresh correlation ID, so
// calls still in flight against the previous endpoint stay distinguishable
// in logs from the calls that follow.
type Target struct {
	client *Client
	gen    correlation.Generator

	mu       sync.Mutex
	endpoint Endpoint
	id       correlation.ID
	retries  int
	last     *Call
}

// NewTarget creates a target for ep with an ID drawn from gen.
func NewTarget(client *Client, gen correlation.Generator, ep Endpoint) *Target {
	return &Target{
		client:   client,
		gen:      gen,
		endpoint: ep,
		id:       gen.Next(),
	}
}

// SetEndpoint points the target at ep with a freshly generated ID.
func (t *Target) SetEndpoint(ep Endpoint) correlation.ID {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.endpoint = ep
	t.id = t.gen.Next()
	return t.id
}

// SetEndpointWithID points the target at ep using the supplied ID.
func (t *Target) SetEndpointWithID(ep Endpoint, id correlation.ID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.endpoint = ep
	t.id = id
}

// Retry sets the retry budget used by subsequent sends.
func (t *Target) Retry(n int) *Target {
	if n < 0 {
		n = 0
	}
	t.mu.Lock()
	t.retries = n
	t.mu.Unlock()
	return t
}

// ID returns the target's current correlation ID.
func (t *Target) ID() correlation.ID {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.id
}

// Endpoint returns the target's current endpoint.
func (t *Target) Endpoint() Endpoint {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.endpoint
}

// Send issues a request to the current endpoint.
func (t *Target) Send(ctx context.Context) *Call {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sendLocked(ctx)
}

// SendTo moves the target to ep (fresh ID) and issues a request, atomically.
// If ep is the current endpoint the ID is kept.
func (t *Target) SendTo(ctx context.Context, ep Endpoint) *Call {
	t.mu.Lock()
	defer t.mu.Unlock()
	if ep != t.endpoint {
		t.endpoint = ep
		t.id = t.gen.Next()
	}
	return t.sendLocked(ctx)
}

// Cancel cancels the most recent call, if any.
func (t *Target) Cancel() {
	t.mu.Lock()
	last := t.last
	t.mu.Unlock()
	if last != nil {
		last.Cancel()
	}
}

func (t *Target) sendLocked(ctx context.Context) *Call {
	call := t.client.Issue(ctx, Request{
		Endpoint: t.endpoint,
		ID:       t.id,
		Retries:  t.retries,
	})
	t.last = call
	return call
}
