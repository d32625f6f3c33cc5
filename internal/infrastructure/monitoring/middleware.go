package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// Middleware counts dev host HTTP requests by route template. A websocket
// upgrade is counted when the connection ends, with its status taken from
// the upgrade response; its lifetime is not observed as latency.
func Middleware(metrics *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		upgrade := c.IsWebsocket()
		start := time.Now()

		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		if upgrade {
			metrics.RecordHTTPRequest(c.Request.Method, route, status, -1)
			return
		}
		metrics.RecordHTTPRequest(c.Request.Method, route, status, time.Since(start))
	}
}

// Timer measures one bridge invocation.
type Timer struct {
	metrics *Metrics
	command string
	start   time.Time
}

// NewTimer starts timing command.
func NewTimer(metrics *Metrics, command string) *Timer {
	return &Timer{metrics: metrics, command: command, start: time.Now()}
}

// Stop records the invocation under status ("success" or "error").
func (t *Timer) Stop(status string) {
	t.metrics.RecordBridgeCall(t.command, status, time.Since(t.start))
}
