package main

import (
	"context"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/GriffinCanCode/hostwin/internal/appctl"
	"github.com/GriffinCanCode/hostwin/internal/bridge"
	"github.com/GriffinCanCode/hostwin/internal/bridge/script"
	"github.com/GriffinCanCode/hostwin/internal/bridge/wsbridge"
	"github.com/GriffinCanCode/hostwin/internal/dialog"
	"github.com/GriffinCanCode/hostwin/internal/infrastructure/config"
	"github.com/GriffinCanCode/hostwin/internal/infrastructure/logging"
	"github.com/GriffinCanCode/hostwin/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/hostwin/internal/osinfo"
	"github.com/GriffinCanCode/hostwin/internal/output"
	"github.com/GriffinCanCode/hostwin/internal/simhost"
	"github.com/GriffinCanCode/hostwin/internal/window"
)

// noBridge marks commands that talk to the dev host over HTTP only.
const noBridge = "hostwin/no-bridge"

// app holds what every subcommand needs once flags are parsed.
type app struct {
	cfg     *config.Config
	logger  *logging.Logger
	printer *output.Printer

	bridge  *bridge.Bridge
	windows *window.Client
}

type rootFlags struct {
	output    string
	pretty    bool
	transport string
	url       string
	script    string
	label     string
	logLevel  string
}

// execute runs one CLI invocation and releases the host connection
// whether or not the command succeeded.
func execute(ctx context.Context, args []string, stdout io.Writer) error {
	a := &app{}
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	err := root.ExecuteContext(ctx)
	if cerr := a.close(); err == nil {
		err = cerr
	}
	return err
}

func newRootCmd(a *app) *cobra.Command {
	var flags rootFlags

	root := &cobra.Command{
		Use:           "hostwin",
		Short:         "Query and control host windows",
		Long:          "hostwin talks to a window host over its bridge: list monitors and windows, change window state, and send or watch events.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd, flags)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.output, "output", "o", "json", "Output format: json or yaml")
	pf.BoolVar(&flags.pretty, "pretty", false, "Indent JSON output")
	pf.StringVar(&flags.transport, "transport", "", "Host transport: ws, script or memory (default from HOSTWIN_TRANSPORT)")
	pf.StringVar(&flags.url, "url", "", "Websocket URL of the host")
	pf.StringVar(&flags.script, "script", "", "JavaScript host file for the script transport")
	pf.StringVar(&flags.label, "label", "", "Label of the current window")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn or error")

	root.AddCommand(
		newMonitorsCmd(a),
		newWindowsCmd(a),
		newWindowCmd(a),
		newEmitCmd(a),
		newListenCmd(a),
		newOSCmd(a),
		newAppCmd(a),
		newDialogCmd(a),
		newHostCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, flags rootFlags) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if flags.transport != "" {
		cfg.Bridge.Transport = flags.transport
	}
	if flags.url != "" {
		cfg.Bridge.URL = flags.url
	}
	if flags.script != "" {
		cfg.Bridge.Script = flags.script
	}
	if flags.label != "" {
		cfg.Window.Label = flags.label
	}
	if flags.logLevel != "" {
		cfg.Logging.Level = flags.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	format, err := output.ParseFormat(flags.output)
	if err != nil {
		return err
	}
	a.printer = output.NewPrinter(cmd.OutOrStdout(), format, flags.pretty)

	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Logging.Level
	logCfg.Development = cfg.Logging.Development
	if a.logger, err = logging.New(logCfg); err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	if _, skip := cmd.Annotations[noBridge]; skip {
		return nil
	}

	b, err := a.connect(cmd.Context())
	if err != nil {
		return err
	}
	a.bridge = b
	a.windows = window.NewClient(b, window.WithCurrentLabel(cfg.Window.Label))
	return nil
}

// connect opens the configured transport and wraps it in a bridge.
func (a *app) connect(ctx context.Context) (*bridge.Bridge, error) {
	cfg := a.cfg
	logger := a.logger.Component("bridge")
	metrics := monitoring.NewMetrics(prometheus.NewRegistry())

	var (
		t   bridge.Transport
		err error
	)
	switch cfg.Bridge.Transport {
	case config.TransportWebSocket:
		opts := wsbridge.Options{
			URL:     cfg.Bridge.URL,
			Breaker: wsbridge.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout, logger),
			Logger:  logger,
			Metrics: metrics,
		}
		if cfg.RateLimit.Enabled {
			opts.Limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit.RequestsPerSecond), cfg.RateLimit.Burst)
		}
		t, err = wsbridge.Dial(ctx, opts)
	case config.TransportScript:
		t, err = script.Open(cfg.Bridge.Script, script.Options{Logger: logger})
	case config.TransportMemory:
		t, err = a.memoryHost()
	default:
		err = fmt.Errorf("unknown transport %q", cfg.Bridge.Transport)
	}
	if err != nil {
		return nil, err
	}

	logger.Debug("bridge ready", zap.String("transport", cfg.Bridge.Transport))
	return bridge.New(t,
		bridge.WithLogger(logger),
		bridge.WithMetrics(metrics),
		bridge.WithTimeout(cfg.Bridge.CallTimeout)), nil
}

// memoryHost runs a simulated host in process, seeded from the dev host
// topology file when one is configured.
func (a *app) memoryHost() (bridge.Transport, error) {
	opts := simhost.Options{
		Windows: []simhost.WindowSpec{simhost.DefaultWindow(a.cfg.Window.Label)},
		Logger:  a.logger.Component("simhost"),
	}
	if path := a.cfg.DevHost.Topology; path != "" {
		topo, err := simhost.LoadTopology(path)
		if err != nil {
			return nil, err
		}
		topo.Apply(&opts)
	}
	return simhost.NewTransport(simhost.New(opts)), nil
}

func (a *app) close() error {
	if a.logger != nil {
		defer func() { _ = a.logger.Sync() }()
	}
	if a.bridge == nil {
		return nil
	}
	err := a.bridge.Close()
	a.bridge = nil
	return err
}

func (a *app) osInfo() *osinfo.Client { return osinfo.New(a.bridge) }

func (a *app) control() *appctl.Client { return appctl.New(a.bridge) }

func (a *app) dialogs() *dialog.Client { return dialog.New(a.bridge) }
