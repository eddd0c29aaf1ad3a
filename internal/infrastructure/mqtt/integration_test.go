//go:build integration

package mqtt

import (
	"sync"
	"testing"
	"time"
)

// These tests require a running MQTT broker at 127.0.0.1:1883.
//
// Run with:
//   go test -tags=integration -v ./internal/infrastructure/mqtt/...

func TestIntegration_RetainedStateRoundtrip(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.ClientID = "graythermal-int-pub"
	pub, err := Connect(cfg)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer pub.Close()

	topic := Topics{}.ThermalState("int-test")
	if err := pub.PublishRetained(topic, []byte(`{"version":1}`)); err != nil {
		t.Fatalf("PublishRetained() error = %v", err)
	}

	cfg.Broker.ClientID = "graythermal-int-sub"
	sub, err := Connect(cfg)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer sub.Close()

	var mu sync.Mutex
	var got []byte
	done := make(chan struct{})
	err = sub.Subscribe(topic, 1, func(_ string, payload []byte) error {
		mu.Lock()
		defer mu.Unlock()
		if got == nil {
			got = payload
			close(done)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("retained state not received")
	}
	mu.Lock()
	defer mu.Unlock()
	if string(got) != `{"version":1}` {
		t.Errorf("payload = %s", got)
	}
	if sub.SubscriptionCount() != 1 {
		t.Errorf("SubscriptionCount() = %d, want 1", sub.SubscriptionCount())
	}
}
