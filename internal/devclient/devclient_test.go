package devclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/hostwin/internal/simhost"
)

func fastOptions() Options {
	return Options{
		Timeout:      2 * time.Second,
		RetryMax:     2,
		RetryWaitMin: time.Millisecond,
		RetryWaitMax: 5 * time.Millisecond,
	}
}

func TestBaseURL(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "ws://127.0.0.1:8765/bridge", want: "http://127.0.0.1:8765"},
		{in: "wss://host.example/bridge?x=1", want: "https://host.example"},
		{in: "http://localhost:9000", want: "http://localhost:9000"},
		{in: "ftp://host/bridge", wantErr: true},
		{in: "ws:///bridge", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := BaseURL(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStatusFromDevHost(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := simhost.New(simhost.Options{Windows: []simhost.WindowSpec{
		simhost.DefaultWindow("main"),
		simhost.DefaultWindow("settings"),
	}})
	router := gin.New()
	simhost.NewServer(h, simhost.ServerOptions{}).Register(router)
	srv := httptest.NewServer(router)
	defer srv.Close()

	c := New(srv.URL, fastOptions())
	ctx := context.Background()
	require.NoError(t, c.Health(ctx))

	st, err := c.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"main", "settings"}, st.Windows)
	require.Len(t, st.Monitors, 1)
	assert.Equal(t, uint32(2880), st.Monitors[0].Width)
	assert.Positive(t, st.Commands)
}

func TestHealthRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	require.NoError(t, New(srv.URL, fastOptions()).Health(context.Background()))
	assert.Equal(t, int32(3), calls.Load())
}

func TestHealthReportsPersistentFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	err := New(srv.URL, fastOptions()).Health(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnhealthy)
}

func TestWaitReadyGivesUp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := New(srv.URL, fastOptions()).WaitReady(ctx, 10*time.Millisecond)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
