package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func probe(t *testing.T, handler http.HandlerFunc) (int, statusResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	var resp statusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec.Code, resp
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestService_LiveEndpoint(t *testing.T) {
	s := New()
	var failing atomic.Bool
	s.AddLiveness("flaky", time.Second, func(context.Context) error {
		if failing.Load() {
			return errors.New("broken")
		}
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx, 10*time.Millisecond)
	defer s.Stop()

	waitFor(t, func() bool {
		code, _ := probe(t, s.LiveEndpoint)
		return code == http.StatusOK
	})

	failing.Store(true)
	waitFor(t, func() bool {
		code, _ := probe(t, s.LiveEndpoint)
		return code == http.StatusServiceUnavailable
	})

	_, resp := probe(t, s.LiveEndpoint)
	assert.Equal(t, "unhealthy", resp.Status)
	assert.Equal(t, "broken", resp.Checks["flaky"])
}

func TestService_ReadyEndpoint(t *testing.T) {
	s := New()

	// Not ready until marked.
	code, resp := probe(t, s.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Contains(t, resp.Checks, "_readiness")

	s.SetReady(true)
	code, resp = probe(t, s.ReadyEndpoint)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", resp.Status)

	// Draining flips it back.
	s.SetReady(false)
	code, _ = probe(t, s.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestService_ReadinessCheckFailure(t *testing.T) {
	s := New()
	s.SetReady(true)
	s.AddReadiness("postgres", time.Second, func(context.Context) error {
		return errors.New("connection refused")
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx, 10*time.Millisecond)
	defer s.Stop()

	waitFor(t, func() bool {
		code, _ := probe(t, s.ReadyEndpoint)
		return code == http.StatusServiceUnavailable
	})

	_, resp := probe(t, s.ReadyEndpoint)
	assert.Equal(t, "connection refused", resp.Checks["postgres"])
}

func TestGoroutineCountCheck(t *testing.T) {
	require.NoError(t, GoroutineCountCheck(100000)(context.Background()))
	require.Error(t, GoroutineCountCheck(0)(context.Background()))
}
