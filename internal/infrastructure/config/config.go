package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/GriffinCanCode/hostwin/internal/shared/errs"
)

// Prefix starts every environment variable name. Tags carry the full
// name so a bare TRANSPORT or URL in the environment is never consulted.
const Prefix = "HOSTWIN"

// Transport names accepted by BridgeConfig.Transport.
const (
	TransportWebSocket = "ws"
	TransportScript    = "script"
	TransportMemory    = "memory"
)

// Config holds all application configuration.
type Config struct {
	Bridge    BridgeConfig
	Window    WindowConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
	Breaker   BreakerConfig
	DevHost   DevHostConfig
}

// BridgeConfig selects and tunes the host transport.
type BridgeConfig struct {
	Transport   string        `envconfig:"HOSTWIN_TRANSPORT" default:"ws"`
	URL         string        `envconfig:"HOSTWIN_URL" default:"ws://127.0.0.1:8765/bridge"`
	Script      string        `envconfig:"HOSTWIN_SCRIPT"`
	CallTimeout time.Duration `envconfig:"HOSTWIN_CALL_TIMEOUT" default:"10s"`
}

// WindowConfig holds the label of the window this process runs in.
type WindowConfig struct {
	Label string `envconfig:"HOSTWIN_WINDOW_LABEL" default:"main"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"HOSTWIN_LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"HOSTWIN_LOG_DEV" default:"false"`
}

// RateLimitConfig bounds outbound invocations on the socket transport
// and inbound requests on the dev host.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"HOSTWIN_RATE_LIMIT_RPS" default:"200"`
	Burst             int  `envconfig:"HOSTWIN_RATE_LIMIT_BURST" default:"400"`
	Enabled           bool `envconfig:"HOSTWIN_RATE_LIMIT_ENABLED" default:"true"`
}

// BreakerConfig tunes the circuit breaker around the socket transport.
type BreakerConfig struct {
	MaxFailures uint32        `envconfig:"HOSTWIN_BREAKER_FAILURES" default:"5"`
	Timeout     time.Duration `envconfig:"HOSTWIN_BREAKER_TIMEOUT" default:"10s"`
}

// DevHostConfig configures the simulated host server.
type DevHostConfig struct {
	Addr     string   `envconfig:"HOSTWIN_DEVHOST_ADDR" default:"127.0.0.1:8765"`
	Topology string   `envconfig:"HOSTWIN_DEVHOST_TOPOLOGY"`
	X11      bool     `envconfig:"HOSTWIN_DEVHOST_X11" default:"false"`
	Origins  []string `envconfig:"HOSTWIN_DEVHOST_ORIGINS"`
}

// Load loads configuration from HOSTWIN_* environment variables.
func Load() (*Config, error) {
	var cfg Config
	for _, section := range cfg.sections() {
		if err := envconfig.Process("", section); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// sections are processed one by one; envconfig would otherwise key nested
// fields under the struct name (HOSTWIN_BRIDGE_...).
func (c *Config) sections() []any {
	return []any{&c.Bridge, &c.Window, &c.Logging, &c.RateLimit, &c.Breaker, &c.DevHost}
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Validate checks cross-field constraints envconfig cannot express.
func (c *Config) Validate() error {
	switch c.Bridge.Transport {
	case TransportWebSocket:
		if c.Bridge.URL == "" {
			return errs.Configuration("HOSTWIN_URL", "required for transport %q", c.Bridge.Transport)
		}
	case TransportScript:
		if c.Bridge.Script == "" {
			return errs.Configuration("HOSTWIN_SCRIPT", "required for transport %q", c.Bridge.Transport)
		}
	case TransportMemory:
	default:
		return errs.Configuration("HOSTWIN_TRANSPORT", "unknown transport %q", c.Bridge.Transport)
	}
	if c.Bridge.CallTimeout <= 0 {
		return errs.Configuration("HOSTWIN_CALL_TIMEOUT", "must be positive, got %s", c.Bridge.CallTimeout)
	}
	if c.Window.Label == "" {
		return errs.Configuration("HOSTWIN_WINDOW_LABEL", "must not be empty")
	}
	if c.RateLimit.Enabled && c.RateLimit.RequestsPerSecond <= 0 {
		return errs.Configuration("HOSTWIN_RATE_LIMIT_RPS", "must be positive when rate limiting is enabled")
	}
	return nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Bridge: BridgeConfig{
			Transport:   TransportWebSocket,
			URL:         "ws://127.0.0.1:8765/bridge",
			CallTimeout: 10 * time.Second,
		},
		Window: WindowConfig{
			Label: "main",
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 200,
			Burst:             400,
			Enabled:           true,
		},
		Breaker: BreakerConfig{
			MaxFailures: 5,
			Timeout:     10 * time.Second,
		},
		DevHost: DevHostConfig{
			Addr: "127.0.0.1:8765",
		},
	}
}
