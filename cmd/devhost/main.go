package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/hostwin/internal/infrastructure/config"
	"github.com/GriffinCanCode/hostwin/internal/infrastructure/logging"
	"github.com/GriffinCanCode/hostwin/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/hostwin/internal/infrastructure/server"
	"github.com/GriffinCanCode/hostwin/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/hostwin/internal/simhost"
)

func main() {
	// Flags override HOSTWIN_* environment variables
	addr := flag.String("addr", "", "Listen address")
	topology := flag.String("topology", "", "TOML file describing monitors, windows and host info")
	x11 := flag.Bool("x11", false, "Read monitors from the X server named by $DISPLAY")
	dev := flag.Bool("dev", false, "Development mode (console logs, debug level)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.DevHost.Addr = *addr
	}
	if *topology != "" {
		cfg.DevHost.Topology = *topology
	}
	if *x11 {
		cfg.DevHost.X11 = true
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Logging.Level
	logCfg.Development = cfg.Logging.Development
	if *dev {
		logCfg = logging.DevelopmentConfig()
	}
	logger, err := logging.New(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, logCfg.Development); err != nil {
		logger.Error("devhost stopped", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("devhost stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *logging.Logger, development bool) error {
	opts, err := hostOptions(cfg, logger)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := monitoring.NewMetrics(reg)
	opts.Metrics = metrics
	go metrics.RunUptime(ctx.Done())

	tracer := tracing.New("devhost", logger.Component("tracing"))
	defer tracer.Close()

	srvCfg := server.Config{Addr: cfg.DevHost.Addr, Development: development}
	if cfg.RateLimit.Enabled {
		srvCfg.RateLimit = &server.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}
	}
	if len(cfg.DevHost.Origins) > 0 {
		cors := server.DefaultCORSConfig()
		cors.AllowOrigins = cfg.DevHost.Origins
		srvCfg.CORS = &cors
	}
	srv := server.New(srvCfg, logger.Component("http"), metrics, tracer)

	host := simhost.New(opts)
	simhost.NewServer(host, simhost.ServerOptions{
		Logger:   logger.Component("bridge"),
		Metrics:  metrics,
		Tracer:   tracer,
		Gatherer: reg,
	}).Register(srv.Router())
	registerLogLevel(srv.Router(), logger)

	logger.Info("devhost ready",
		zap.String("addr", cfg.DevHost.Addr),
		zap.Strings("windows", host.Labels()))
	return srv.Run(ctx)
}

// registerLogLevel adds PUT /log-level?level=debug.
func registerLogLevel(r gin.IRouter, logger *logging.Logger) {
	r.PUT("/log-level", func(c *gin.Context) {
		level := c.Query("level")
		if err := logger.SetLevel(level); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		logger.Info("Log level changed", zap.String("level", level))
		c.Status(http.StatusNoContent)
	})
}

// hostOptions seeds the simulated host: a default window, then the
// topology file, then X11 monitors, each overriding the last.
func hostOptions(cfg *config.Config, logger *logging.Logger) (simhost.Options, error) {
	opts := simhost.Options{
		Windows: []simhost.WindowSpec{simhost.DefaultWindow(cfg.Window.Label)},
		Logger:  logger.Component("simhost"),
	}
	if path := cfg.DevHost.Topology; path != "" {
		topo, err := simhost.LoadTopology(path)
		if err != nil {
			return opts, err
		}
		topo.Apply(&opts)
		logger.Info("Loaded topology",
			zap.String("path", path),
			zap.Int("monitors", len(topo.Monitors)),
			zap.Int("windows", len(topo.Windows)))
	}
	if cfg.DevHost.X11 {
		monitors, err := simhost.MonitorsFromX11(os.Getenv("DISPLAY"))
		if err != nil {
			return opts, fmt.Errorf("read X11 monitors: %w", err)
		}
		opts.Monitors = monitors
	}
	return opts, nil
}
