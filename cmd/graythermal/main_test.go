package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-thermal/internal/infrastructure/config"
)

// fakeDevice serves the controller's HTTP endpoints and counts hits.
type fakeDevice struct {
	mu   sync.Mutex
	hits map[string]int
}

func newFakeDevice(t *testing.T) (*fakeDevice, *httptest.Server) {
	t.Helper()
	d := &fakeDevice{hits: make(map[string]int)}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d.mu.Lock()
		d.hits[r.URL.Path]++
		d.mu.Unlock()

		switch r.URL.Path {
		case "/temperature":
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"TempF": 250}`)
		case "/watchdog/status":
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"enabled": true}`)
		default:
			w.WriteHeader(http.StatusOK)
		}
	}))
	t.Cleanup(srv.Close)
	return d, srv
}

func (d *fakeDevice) count(path string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.hits[path]
}

func writeConfig(t *testing.T, content string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	t.Setenv("GRAYTHERMAL_CONFIG", path)
}

// TestRun_InvalidConfig verifies run fails with an invalid config path.
func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv("GRAYTHERMAL_CONFIG", "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := run(ctx)
	if err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
	if !strings.Contains(err.Error(), "loading config") {
		t.Errorf("error = %v, want loading config failure", err)
	}
}

// TestRun_MissingBaseURL verifies validation rejects a config without a device.
func TestRun_MissingBaseURL(t *testing.T) {
	writeConfig(t, `
site:
  id: test-site
database:
  path: "`+filepath.Join(t.TempDir(), "test.db")+`"
`)

	err := run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "device.base_url is required") {
		t.Errorf("run() error = %v, want base_url validation failure", err)
	}
}

// TestRun_StartsAndShutsDown runs the whole service against a fake device
// with MQTT, InfluxDB and the API disabled.
func TestRun_StartsAndShutsDown(t *testing.T) {
	dev, srv := newFakeDevice(t)

	writeConfig(t, `
site:
  id: test-site
device:
  base_url: "`+srv.URL+`"
  command_timeout: 500ms
  poll_timeout: 1s
control:
  kp: 2
  setpoint: 225
  period: 1s
  auto_start: true
watchdog:
  enabled: true
  interval: 1s
poller:
  interval: 1s
database:
  path: "`+filepath.Join(t.TempDir(), "test.db")+`"
mqtt:
  enabled: false
influxdb:
  enabled: false
api:
  enabled: false
logging:
  level: error
  format: text
`)

	ctx, cancel := context.WithTimeout(context.Background(), 1500*time.Millisecond)
	defer cancel()

	if err := run(ctx); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	if dev.count("/watchdog/enable") != 1 {
		t.Errorf("watchdog enable hits = %d, want 1", dev.count("/watchdog/enable"))
	}
	if dev.count("/watchdog/status") != 1 {
		t.Errorf("watchdog status hits = %d, want 1", dev.count("/watchdog/status"))
	}
	if dev.count("/temperature") == 0 {
		t.Error("temperature was never polled")
	}
	// The loop is switched off on shutdown.
	if dev.count("/off") == 0 {
		t.Error("device was never switched off")
	}
}

func TestInitialParams(t *testing.T) {
	setpoint := 225.0
	p := initialParams(config.ControlConfig{
		Gain:                1.5,
		Kp:                  2,
		Ki:                  0.1,
		Kd:                  0.5,
		MinOutputPercentage: 5,
		Period:              10 * time.Second,
		Setpoint:            &setpoint,
	})

	if !p.HasSetpoint || p.Setpoint != 225 {
		t.Errorf("setpoint = %v (has=%v), want 225", p.Setpoint, p.HasSetpoint)
	}
	if p.Gain != 1.5 || p.Kp != 2 || p.Ki != 0.1 || p.Kd != 0.5 {
		t.Errorf("gains = %v/%v/%v/%v", p.Gain, p.Kp, p.Ki, p.Kd)
	}
	if !p.Configured() {
		t.Error("params should be configured")
	}
	if !p.Reset || p.Enabled {
		t.Errorf("reset=%v enabled=%v, want reset pending and disabled", p.Reset, p.Enabled)
	}

	if initialParams(config.ControlConfig{Gain: 1}).HasSetpoint {
		t.Error("nil setpoint should leave the setpoint unset")
	}
}

func TestGetConfigPath(t *testing.T) {
	t.Setenv("GRAYTHERMAL_CONFIG", "")
	if got := getConfigPath(); got != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", got, defaultConfigPath)
	}

	t.Setenv("GRAYTHERMAL_CONFIG", "/etc/graythermal.yaml")
	if got := getConfigPath(); got != "/etc/graythermal.yaml" {
		t.Errorf("getConfigPath() = %q, want /etc/graythermal.yaml", got)
	}
}
