package device

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/nerrad567/gray-logic-thermal/internal/request"
)

// Endpoint names used in logs, errors and events.
const (
	NameTemperature    = "temperature"
	NameOn             = "on"
	NameOff            = "off"
	NameWatchdogEnable = "watchdog_enable"
	NameWatchdogReset  = "watchdog_reset"
	NameWatchdogStatus = "watchdog_status"
)

// Paths are the device URL paths relative to the base URL.
type Paths struct {
	Temperature    string
	On             string
	Off            string
	WatchdogEnable string
	WatchdogReset  string
	WatchdogStatus string
}

// DefaultPaths returns the controller's stock paths.
func DefaultPaths() Paths {
	return Paths{
		Temperature:    "/temperature",
		On:             "/on",
		Off:            "/off",
		WatchdogEnable: "/watchdog/enable",
		WatchdogReset:  "/watchdog/reset",
		WatchdogStatus: "/watchdog/status",
	}
}

// Endpoints are the resolved device endpoints.
type Endpoints struct {
	Temperature    request.Endpoint
	On             request.Endpoint
	Off            request.Endpoint
	WatchdogEnable request.Endpoint
	WatchdogReset  request.Endpoint
	WatchdogStatus request.Endpoint
}

// NewEndpoints resolves paths against baseURL. Empty paths fall back to
// DefaultPaths.
//
// Parameters:
//   - baseURL: Absolute http(s) URL of the controller, e.g. "http://10.0.0.7"
//   - paths: Per-endpoint paths
//
// Returns:
//   - Endpoints: Resolved endpoints
//   - error: ErrInvalidBaseURL if baseURL is not an absolute http(s) URL
func NewEndpoints(baseURL string, paths Paths) (Endpoints, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return Endpoints{}, fmt.Errorf("%w: %v", ErrInvalidBaseURL, err)
	}
	if (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return Endpoints{}, fmt.Errorf("%w: %q", ErrInvalidBaseURL, baseURL)
	}

	def := DefaultPaths()
	resolve := func(name, path, fallback string, json bool) request.Endpoint {
		if path == "" {
			path = fallback
		}
		return request.Endpoint{
			Name: name,
			URL:  base.JoinPath(path).String(),
			JSON: json,
		}
	}

	return Endpoints{
		Temperature:    resolve(NameTemperature, paths.Temperature, def.Temperature, true),
		On:             resolve(NameOn, paths.On, def.On, false),
		Off:            resolve(NameOff, paths.Off, def.Off, false),
		WatchdogEnable: resolve(NameWatchdogEnable, paths.WatchdogEnable, def.WatchdogEnable, false),
		WatchdogReset:  resolve(NameWatchdogReset, paths.WatchdogReset, def.WatchdogReset, false),
		WatchdogStatus: resolve(NameWatchdogStatus, paths.WatchdogStatus, def.WatchdogStatus, true),
	}, nil
}
