package request

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/gray-logic-thermal/internal/correlation"
)

func TestTarget_SetEndpointGeneratesFreshID(t *testing.T) {
	gen := correlation.NewSerial(correlation.NamespaceFor("commands"))
	on := Endpoint{Name: "on", URL: "http://device/on"}
	off := Endpoint{Name: "off", URL: "http://device/off"}

	target := NewTarget(newTestClient(), gen, on)
	first := target.ID()

	second := target.SetEndpoint(off)
	assert.NotEqual(t, first, second)
	assert.Equal(t, second, target.ID())
	assert.Equal(t, off, target.Endpoint())
	assert.Equal(t, gen.Last(), second)
}

func TestTarget_SetEndpointWithIDKeepsSuppliedID(t *testing.T) {
	gen := correlation.NewSerial(1)
	target := NewTarget(newTestClient(), gen, Endpoint{Name: "on"})

	supplied := correlation.NewRandom().Next()
	target.SetEndpointWithID(Endpoint{Name: "off"}, supplied)

	assert.Equal(t, supplied, target.ID())
	assert.Equal(t, uint64(1), gen.Last().Sequence(), "generator must not be consulted")
}

func TestTarget_SendToTagsCallsPerEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	on := Endpoint{Name: "on", URL: srv.URL + "/on"}
	off := Endpoint{Name: "off", URL: srv.URL + "/off"}
	target := NewTarget(newTestClient(), correlation.NewSerial(3), on)

	onCall := target.SendTo(context.Background(), on)
	offCall := target.SendTo(context.Background(), off)
	assert.NotEqual(t, onCall.ID(), offCall.ID())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	onRes, err := onCall.Wait(ctx)
	require.NoError(t, err)
	offRes, err := offCall.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, "on", onRes.Endpoint)
	assert.Equal(t, "off", offRes.Endpoint)
}

func TestTarget_RetryAndCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	target := NewTarget(newTestClient(), correlation.NewRandom(), Endpoint{Name: "status", URL: srv.URL}).Retry(4)
	call := target.Send(context.Background())
	target.Cancel()

	_, err := call.Wait(context.Background())
	assert.ErrorIs(t, err, ErrCancelled)
	assert.Equal(t, 4, call.req.Retries)
}
