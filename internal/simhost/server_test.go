package simhost

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/hostwin/internal/bridge"
	"github.com/GriffinCanCode/hostwin/internal/bridge/wsbridge"
	"github.com/GriffinCanCode/hostwin/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/hostwin/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/hostwin/internal/shared/errs"
)

func serve(t *testing.T, h *Host) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	reg := prometheus.NewRegistry()
	metrics := monitoring.NewMetrics(reg)
	tracer := tracing.New("devhost-test", nil)
	t.Cleanup(tracer.Close)

	router := gin.New()
	router.Use(monitoring.Middleware(metrics))
	NewServer(h, ServerOptions{Metrics: metrics, Tracer: tracer, Gatherer: reg}).Register(router)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func dialBridge(t *testing.T, srv *httptest.Server) *bridge.Bridge {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tr, err := wsbridge.Dial(ctx, wsbridge.Options{URL: "ws" + strings.TrimPrefix(srv.URL, "http") + "/bridge"})
	require.NoError(t, err)
	b := bridge.New(tr, bridge.WithTimeout(5*time.Second))
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestServer_InvokeOverWebSocket(t *testing.T) {
	h := New(Options{Windows: []WindowSpec{DefaultWindow("main")}})
	b := dialBridge(t, serve(t, h))
	ctx := context.Background()

	require.NoError(t, b.Invoke(ctx, "plugin:window|setTitle", map[string]any{"label": "main", "value": "remote"}, nil))
	title, err := bridge.Call[string](ctx, b, "plugin:window|title", map[string]any{"label": "main"})
	require.NoError(t, err)
	assert.Equal(t, "remote", title)

	err = b.Invoke(ctx, "plugin:window|title", map[string]any{"label": "ghost"}, nil)
	require.Error(t, err)
	assert.True(t, errs.IsWindowGone(err))
}

func TestServer_DeliversCallbacks(t *testing.T) {
	h := New(Options{Windows: []WindowSpec{DefaultWindow("main")}})
	b := dialBridge(t, serve(t, h))
	ctx := context.Background()

	got := make(chan json.RawMessage, 1)
	cb := b.RegisterCallback(func(payload json.RawMessage) { got <- payload })

	var eventID uint32
	require.NoError(t, b.Invoke(ctx, "plugin:event|listen", map[string]any{
		"event": "greet", "target": map[string]string{"kind": "Any"}, "handler": cb,
	}, &eventID))

	h.Emit(anyTarget, "greet", "hi")

	select {
	case payload := <-got:
		var msg message
		require.NoError(t, json.Unmarshal(payload, &msg))
		assert.Equal(t, "greet", msg.Event)
		assert.Equal(t, eventID, msg.ID)
		assert.JSONEq(t, `"hi"`, string(msg.Payload))
	case <-time.After(5 * time.Second):
		t.Fatal("callback not delivered")
	}
}

func TestServer_DisconnectDropsListeners(t *testing.T) {
	h := New(Options{})
	b := dialBridge(t, serve(t, h))

	cb := b.RegisterCallback(func(json.RawMessage) {})
	require.NoError(t, b.Invoke(context.Background(), "plugin:event|listen", map[string]any{
		"event": "x", "handler": cb,
	}, nil))
	require.Equal(t, 1, h.Listeners())

	require.NoError(t, b.Close())
	assert.Eventually(t, func() bool { return h.Listeners() == 0 }, 5*time.Second, 10*time.Millisecond)
}

func TestServer_HTTPRoutes(t *testing.T) {
	h := New(Options{Windows: []WindowSpec{DefaultWindow("main")}})
	srv := serve(t, h)

	get := func(path string) (int, string) {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return resp.StatusCode, string(body)
	}

	code, body := get("/healthz")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"status":"ok"}`, body)

	code, body = get("/status")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `"windows":["main"]`)

	code, body = get("/metrics")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "hostwin_devhost_requests_total")
}

func TestServer_MetricsAreGzipped(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	router := gin.New()
	NewServer(New(Options{}), ServerOptions{Gatherer: reg}).Register(router)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/metrics", nil)
	require.NoError(t, err)
	req.Header.Set("Accept-Encoding", "gzip")
	resp, err := http.DefaultTransport.RoundTrip(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "gzip", resp.Header.Get("Content-Encoding"))
}
