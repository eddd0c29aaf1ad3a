package request

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/nerrad567/gray-logic-thermal/internal/correlation"
)

// jsonMediaType is the only content type accepted from JSON endpoints.
const jsonMediaType = "application/json"

// Logger defines the logging interface for the request client.
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

// Endpoint is one device URL.
type Endpoint struct {
	// Name identifies the endpoint in logs and errors (e.g. "watchdog_reset").
	Name string
	// URL is the absolute URL to GET.
	URL string
	// JSON marks endpoints whose body must be application/json.
	JSON bool
}

// Request is one logical request.
type Request struct {
	Endpoint Endpoint
	ID       correlation.ID
	// Retries is the number of additional attempts after the first failure.
	Retries int
}

// Result is the outcome of a call. Err is nil on success.
type Result struct {
	ID       correlation.ID
	Endpoint string
	Body     []byte
	Attempts int
	Err      error
}

// Decode unmarshals a successful JSON body into v.
func (r Result) Decode(v any) error {
	if r.Err != nil {
		return r.Err
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decoding %s response: %w", r.Endpoint, err)
	}
	return nil
}

// Config configures a Client.
type Config struct {
	// Timeout bounds each attempt, including reading the body.
	Timeout time.Duration
	// RetryWait is the pause between a failed attempt and its retry.
	RetryWait time.Duration
}

// Client issues device requests over HTTP.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Client struct {
	http      *resty.Client
	retryWait time.Duration

	logger   Logger
	loggerMu sync.RWMutex
}

// NewClient creates a client whose attempts are bounded by cfg.Timeout.
func NewClient(cfg Config) *Client {
	c := &Client{
		http:      resty.New(),
		retryWait: cfg.RetryWait,
		logger:    noopLogger{},
	}
	if cfg.Timeout > 0 {
		c.http.SetTimeout(cfg.Timeout)
	}
	// Retries are counted per logical request, not by resty.
	c.http.SetRetryCount(0)
	c.http.SetLogger(restyLogger{c})
	return c
}

// SetLogger sets the logger for the client.
func (c *Client) SetLogger(logger Logger) {
	c.loggerMu.Lock()
	c.logger = logger
	c.loggerMu.Unlock()
}

// getLogger returns the current logger.
func (c *Client) getLogger() Logger {
	c.loggerMu.RLock()
	defer c.loggerMu.RUnlock()
	return c.logger
}

// Issue starts req on a new goroutine and returns its handle immediately.
//
// Parameters:
//   - ctx: Parent context; cancelling it cancels the call
//   - req: Endpoint, correlation ID and retry budget
//
// Returns:
//   - *Call: Handle delivering exactly one Result unless cancelled
func (c *Client) Issue(ctx context.Context, req Request) *Call {
	callCtx, cancel := context.WithCancel(ctx)
	call := &Call{
		req:    req,
		done:   make(chan Result, 1),
		cancel: cancel,
	}

	go func() {
		defer cancel()
		res := c.run(callCtx, req)
		if callCtx.Err() != nil {
			// Cancelled by Call.Cancel or by the parent context; drop the result.
			call.discard()
			return
		}
		call.settle(res)
	}()

	return call
}

// run performs the attempts of one logical request.
func (c *Client) run(ctx context.Context, req Request) Result {
	res := Result{ID: req.ID, Endpoint: req.Endpoint.Name}

	for {
		res.Attempts++
		body, kind, cause := c.attempt(ctx, req.Endpoint)
		if kind == nil {
			res.Body = body
			return res
		}

		if ctx.Err() != nil {
			res.Err = ErrCancelled
			return res
		}

		reqErr := &Error{
			ID:       req.ID,
			Endpoint: req.Endpoint.Name,
			Attempts: res.Attempts,
			Kind:     kind,
			Err:      cause,
		}

		if res.Attempts > req.Retries {
			res.Err = reqErr
			return res
		}

		c.getLogger().Debug("device request failed, retrying",
			"endpoint", req.Endpoint.Name,
			"correlation_id", req.ID,
			"attempt", res.Attempts,
			"retries", req.Retries,
			"error", reqErr.Err,
		)

		if c.retryWait > 0 {
			timer := time.NewTimer(c.retryWait)
			select {
			case <-ctx.Done():
				timer.Stop()
				res.Err = ErrCancelled
				return res
			case <-timer.C:
			}
		}
	}
}

// attempt sends one GET and validates the response.
// On failure it returns the error kind (ErrNetwork or ErrProtocol) and the cause.
func (c *Client) attempt(ctx context.Context, ep Endpoint) (body []byte, kind, cause error) {
	resp, err := c.http.R().SetContext(ctx).Get(ep.URL)
	if err != nil {
		return nil, ErrNetwork, err
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, ErrProtocol, fmt.Errorf("unexpected status %d", resp.StatusCode())
	}

	body = resp.Body()
	if !ep.JSON {
		return body, nil, nil
	}

	contentType := resp.Header().Get("Content-Type")
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || mediaType != jsonMediaType {
		return nil, ErrProtocol, fmt.Errorf("unexpected content type %q", contentType)
	}
	if !json.Valid(body) {
		return nil, ErrProtocol, errors.New("malformed JSON body")
	}

	return body, nil, nil
}

// restyLogger routes resty's internal messages to the client logger.
type restyLogger struct {
	c *Client
}

func (l restyLogger) Errorf(format string, v ...any) {
	l.c.getLogger().Error(fmt.Sprintf(format, v...), "component", "resty")
}

func (l restyLogger) Warnf(format string, v ...any) {
	l.c.getLogger().Warn(fmt.Sprintf(format, v...), "component", "resty")
}

func (l restyLogger) Debugf(format string, v ...any) {
	l.c.getLogger().Debug(fmt.Sprintf(format, v...), "component", "resty")
}
