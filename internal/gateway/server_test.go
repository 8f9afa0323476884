package gateway

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"shareit/internal/config"
	"shareit/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type backendCall struct {
	Method string
	Path   string
	Query  string
	UserID string
	Body   []byte
}

// stubBackend stands in for the server tier and records what arrives.
type stubBackend struct {
	server *httptest.Server
	calls  []backendCall
	hits   atomic.Int64
	status int
	body   string
}

func newStubBackend(t *testing.T) *stubBackend {
	t.Helper()
	sb := &stubBackend{status: http.StatusOK, body: `{"ok":true}`}
	sb.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		sb.calls = append(sb.calls, backendCall{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			UserID: r.Header.Get(models.UserIDHeader),
			Body:   body,
		})
		sb.hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(sb.status)
		_, _ = w.Write([]byte(sb.body))
	}))
	t.Cleanup(sb.server.Close)
	return sb
}

func newTestGateway(t *testing.T, backend *stubBackend, limiter Limiter) http.Handler {
	t.Helper()
	logger := zerolog.Nop()
	client := NewClient(backend.server.URL, 5*time.Second)
	gw := NewGateway(config.GatewayConfig{Port: 0, ServerURL: backend.server.URL}, client, limiter, &logger)
	return gw.Handler()
}

func gatewayRequest(t *testing.T, handler http.Handler, method, path, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set(models.UserIDHeader, userID)
	}

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	return recorder
}

func TestGatewayForwardsValidCreateUser(t *testing.T) {
	backend := newStubBackend(t)
	handler := newTestGateway(t, backend, nil)

	resp := gatewayRequest(t, handler, http.MethodPost, "/users", "",
		map[string]string{"name": "Alice", "email": "alice@example.com"})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"ok":true}`, resp.Body.String())

	require.Len(t, backend.calls, 1)
	call := backend.calls[0]
	assert.Equal(t, http.MethodPost, call.Method)
	assert.Equal(t, "/users", call.Path)
	assert.JSONEq(t, `{"name":"Alice","email":"alice@example.com"}`, string(call.Body))
}

func TestGatewayRejectsInvalidPayloads(t *testing.T) {
	backend := newStubBackend(t)
	handler := newTestGateway(t, backend, nil)

	// Bad email never reaches the server tier
	resp := gatewayRequest(t, handler, http.MethodPost, "/users",
		"", map[string]string{"name": "Alice", "email": "nope"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	// Malformed JSON
	req := httptest.NewRequest(http.MethodPost, "/users", bytes.NewReader([]byte("{")))
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	// Missing available on item creation
	resp = gatewayRequest(t, handler, http.MethodPost, "/items", "1",
		map[string]string{"name": "Drill", "description": "800W"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	assert.Empty(t, backend.calls)
}

func TestGatewayRequiresIdentityHeader(t *testing.T) {
	backend := newStubBackend(t)
	handler := newTestGateway(t, backend, nil)

	resp := gatewayRequest(t, handler, http.MethodPost, "/items", "",
		map[string]any{"name": "Drill", "description": "800W", "available": true})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = gatewayRequest(t, handler, http.MethodGet, "/bookings", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	assert.Empty(t, backend.calls)
}

func TestGatewayForwardsIdentityHeader(t *testing.T) {
	backend := newStubBackend(t)
	handler := newTestGateway(t, backend, nil)

	resp := gatewayRequest(t, handler, http.MethodGet, "/items", "42", nil)
	require.Equal(t, http.StatusOK, resp.Code)

	require.Len(t, backend.calls, 1)
	assert.Equal(t, "42", backend.calls[0].UserID)
}

func TestGatewayChecksBookingWindow(t *testing.T) {
	backend := newStubBackend(t)
	handler := newTestGateway(t, backend, nil)

	start := time.Now().Add(2 * time.Hour)
	end := start.Add(-time.Hour)
	resp := gatewayRequest(t, handler, http.MethodPost, "/bookings", "1",
		map[string]any{"itemId": 1, "start": start, "end": end})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Empty(t, backend.calls)

	end = start.Add(time.Hour)
	resp = gatewayRequest(t, handler, http.MethodPost, "/bookings", "1",
		map[string]any{"itemId": 1, "start": start, "end": end})
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Len(t, backend.calls, 1)
}

func TestGatewayChecksQueryParameters(t *testing.T) {
	backend := newStubBackend(t)
	handler := newTestGateway(t, backend, nil)

	resp := gatewayRequest(t, handler, http.MethodGet, "/bookings?state=SOMEDAY", "1", nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = gatewayRequest(t, handler, http.MethodPatch, "/bookings/5?approved=maybe", "1", nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	assert.Empty(t, backend.calls)

	resp = gatewayRequest(t, handler, http.MethodPatch, "/bookings/5?approved=true", "1", nil)
	assert.Equal(t, http.StatusOK, resp.Code)

	// pat's :id parameter must not leak into the forwarded query
	require.Len(t, backend.calls, 1)
	assert.Equal(t, "/bookings/5", backend.calls[0].Path)
	assert.Equal(t, "approved=true", backend.calls[0].Query)
}

func TestGatewayRelaysServerStatus(t *testing.T) {
	backend := newStubBackend(t)
	backend.status = http.StatusNotFound
	backend.body = `{"error":"user not found"}`
	handler := newTestGateway(t, backend, nil)

	resp := gatewayRequest(t, handler, http.MethodGet, "/users/999", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.JSONEq(t, `{"error":"user not found"}`, resp.Body.String())
}

func TestGatewayBackendDown(t *testing.T) {
	backend := newStubBackend(t)
	backend.server.Close()
	handler := newTestGateway(t, backend, nil)

	resp := gatewayRequest(t, handler, http.MethodGet, "/users", "", nil)
	assert.Equal(t, http.StatusBadGateway, resp.Code)
}

func TestGatewayRateLimit(t *testing.T) {
	backend := newStubBackend(t)
	limiter := NewLocalLimiter(config.RateLimitConfig{RPS: 0.001, Burst: 1})
	handler := newTestGateway(t, backend, limiter)

	resp := gatewayRequest(t, handler, http.MethodGet, "/users", "1", nil)
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = gatewayRequest(t, handler, http.MethodGet, "/users", "1", nil)
	assert.Equal(t, http.StatusTooManyRequests, resp.Code)

	// A different caller is not throttled by the first one's bucket
	resp = gatewayRequest(t, handler, http.MethodGet, "/users", "2", nil)
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestGatewaySearchCaching(t *testing.T) {
	backend := newStubBackend(t)
	backend.body = `[{"id":1,"name":"Drill"}]`

	logger := zerolog.Nop()
	client := NewClient(backend.server.URL, 5*time.Second)
	client.UseRedisCache(newTestRedis(t), time.Minute)
	gw := NewGateway(config.GatewayConfig{Port: 0, ServerURL: backend.server.URL}, client, nil, &logger)
	handler := gw.Handler()

	resp := gatewayRequest(t, handler, http.MethodGet, "/items/search?text=drill", "", nil)
	require.Equal(t, http.StatusOK, resp.Code)

	// Second identical search is served from the cache
	resp = gatewayRequest(t, handler, http.MethodGet, "/items/search?text=drill", "", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `[{"id":1,"name":"Drill"}]`, resp.Body.String())
	assert.Equal(t, int64(1), backend.hits.Load())

	// A different query misses
	resp = gatewayRequest(t, handler, http.MethodGet, "/items/search?text=saw", "", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, int64(2), backend.hits.Load())
}
