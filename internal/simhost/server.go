package simhost

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/hostwin/internal/bridge"
	"github.com/GriffinCanCode/hostwin/internal/infrastructure/logging"
	"github.com/GriffinCanCode/hostwin/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/hostwin/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/hostwin/internal/shared/errs"
)

const writeWait = 10 * time.Second

// ServerOptions configures the websocket front end.
type ServerOptions struct {
	Logger   *zap.Logger
	Metrics  *monitoring.Metrics
	Tracer   *tracing.Tracer
	Gatherer prometheus.Gatherer
}

// Server exposes a Host over websocket frames.
type Server struct {
	host     *Host
	upgrader websocket.Upgrader
	logger   *zap.Logger
	metrics  *monitoring.Metrics
	tracer   *tracing.Tracer
	gatherer prometheus.Gatherer
	started  time.Time
}

// NewServer wraps h.
func NewServer(h *Host, opts ServerOptions) *Server {
	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &Server{
		host: h,
		upgrader: websocket.Upgrader{
			// local development host
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger:   logging.OrNop(opts.Logger),
		metrics:  opts.Metrics,
		tracer:   opts.Tracer,
		gatherer: gatherer,
		started:  time.Now(),
	}
}

// Register adds the bridge, health, status and metrics routes.
func (s *Server) Register(r gin.IRouter) {
	r.GET("/bridge", s.HandleConnection)
	r.GET("/healthz", s.health)
	r.GET("/status", s.status)
	r.GET("/metrics", gin.WrapH(gzhttp.GzipHandler(
		promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{DisableCompression: true}))))
}

// Status is the body of GET /status.
type Status struct {
	Uptime    string              `json:"uptime"`
	Windows   []string            `json:"windows"`
	Monitors  []Monitor           `json:"monitors"`
	Listeners int                 `json:"listeners"`
	Commands  int                 `json:"commands"`
	Metrics   monitoring.Snapshot `json:"metrics"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) status(c *gin.Context) {
	c.JSON(http.StatusOK, Status{
		Uptime:    time.Since(s.started).Round(time.Millisecond).String(),
		Windows:   s.host.Labels(),
		Monitors:  s.host.Monitors(),
		Listeners: s.host.Listeners(),
		Commands:  len(s.host.Commands()),
		Metrics:   s.metrics.GetSnapshot(),
	})
}

type clientConn struct {
	ws      *websocket.Conn
	writeMu sync.Mutex
	queue   *bridge.Queue
	done    chan struct{}
}

func (cc *clientConn) write(frame *bridge.Frame) error {
	data, err := bridge.MarshalFrame(frame)
	if err != nil {
		return err
	}
	cc.writeMu.Lock()
	defer cc.writeMu.Unlock()
	if err := cc.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return cc.ws.WriteMessage(websocket.TextMessage, data)
}

// HandleConnection upgrades the request and serves frames until the client
// goes away.
func (s *Server) HandleConnection(c *gin.Context) {
	ws, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer ws.Close()

	traceID, parent := tracing.Extract(c.Request.Header)
	ctx := tracing.WithTrace(c.Request.Context(), traceID, parent)

	cc := &clientConn{ws: ws, queue: bridge.NewQueue(), done: make(chan struct{})}
	conn := s.host.Connect(func(id bridge.CallbackID, payload json.RawMessage) {
		cc.queue.Push(bridge.Delivery{ID: id, Payload: payload})
	})

	s.metrics.IncWSConnections()
	s.logger.Info("client connected", zap.Uint64("conn", uint64(conn)), zap.String("remote", c.ClientIP()))

	var span *tracing.Span
	if s.tracer != nil {
		span, ctx = s.tracer.StartSpan(ctx, "ws.connection")
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.pump(cc)
	}()

	err = s.serve(ctx, conn, cc)

	close(cc.done)
	s.host.Disconnect(conn)
	wg.Wait()
	s.metrics.DecWSConnections()
	if s.tracer != nil {
		s.tracer.End(span, err)
	}
	s.logger.Info("client disconnected", zap.Uint64("conn", uint64(conn)), zap.Error(err))
}

// pump writes callback frames in delivery order.
func (s *Server) pump(cc *clientConn) {
	for {
		d, ok := cc.queue.Pop(cc.done)
		if !ok {
			return
		}
		frame := &bridge.Frame{Type: bridge.FrameCallback, Callback: d.ID, Payload: d.Payload}
		if err := cc.write(frame); err != nil {
			s.logger.Debug("callback write failed", zap.Error(err))
			continue
		}
		s.metrics.RecordWSMessage("out", bridge.FrameCallback)
	}
}

func (s *Server) serve(ctx context.Context, conn ConnID, cc *clientConn) error {
	for {
		_, data, err := cc.ws.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}

		frame, err := bridge.UnmarshalFrame(data)
		if err != nil {
			s.logger.Warn("dropping malformed frame", zap.Error(err))
			continue
		}
		s.metrics.RecordWSMessage("in", frame.Type)
		if frame.Type != bridge.FrameInvoke {
			s.logger.Warn("unexpected frame from client", zap.String("type", frame.Type))
			continue
		}

		if err := cc.write(s.invoke(ctx, conn, frame)); err != nil {
			return err
		}
		s.metrics.RecordWSMessage("out", bridge.FrameResponse)
	}
}

func (s *Server) invoke(ctx context.Context, conn ConnID, frame *bridge.Frame) *bridge.Frame {
	var span *tracing.Span
	if s.tracer != nil {
		span, ctx = s.tracer.StartSpan(ctx, frame.Cmd)
	}

	data, err := s.host.Handle(ctx, conn, frame.Cmd, frame.Args)

	if span != nil {
		s.tracer.End(span, err)
	}

	resp := &bridge.Frame{Type: bridge.FrameResponse, ID: frame.ID}
	if err == nil {
		resp.OK = true
		resp.Data = data
		return resp
	}
	var remoteErr *bridge.RemoteError
	if !errors.As(err, &remoteErr) {
		remoteErr = remote(errs.CodeInternal, "%v", err)
	}
	resp.Error = remoteErr
	return resp
}
