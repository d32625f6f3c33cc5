package tracing

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// syncBuffer is written by the collector goroutine and read by the test.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestStartSpanContinuesTrace(t *testing.T) {
	tr := New("test", nil)
	defer tr.Close()

	root, ctx := tr.StartSpan(context.Background(), "root")
	assert.NotEmpty(t, root.TraceID)
	assert.Empty(t, root.ParentID)

	child, ctx := tr.StartSpan(ctx, "child")
	assert.Equal(t, root.TraceID, child.TraceID)
	assert.Equal(t, root.SpanID, child.ParentID)
	assert.Equal(t, child.SpanID, GetSpanID(ctx))
}

func TestInjectExtract(t *testing.T) {
	ctx := WithTrace(context.Background(), "trace-1", "span-1")
	h := http.Header{}
	Inject(ctx, h)

	traceID, spanID := Extract(h)
	assert.Equal(t, TraceID("trace-1"), traceID)
	assert.Equal(t, SpanID("span-1"), spanID)

	h = http.Header{}
	Inject(context.Background(), h)
	assert.Empty(t, h)
}

func TestHTTPMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var out syncBuffer
	core := zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), zapcore.AddSync(&out), zapcore.DebugLevel)
	tr := New("devhost", zap.New(core))
	defer tr.Close()

	router := gin.New()
	router.Use(HTTPMiddleware(tr))
	router.GET("/status", func(c *gin.Context) {
		assert.Equal(t, TraceID("abc"), GetTraceID(c.Request.Context()))
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	req.Header.Set(HeaderTraceID, "abc")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "abc", rec.Header().Get(HeaderTraceID))
	assert.NotEmpty(t, rec.Header().Get(HeaderSpanID))
	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), `"operation":"GET /status"`)
	}, time.Second, 10*time.Millisecond)
}

func TestEndAfterCloseIsDropped(t *testing.T) {
	tr := New("test", nil)
	span, _ := tr.StartSpan(context.Background(), "late")
	tr.Close()
	assert.NotPanics(t, func() { tr.End(span, nil) })
}
