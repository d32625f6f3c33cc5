package devclient

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/hostwin/internal/infrastructure/logging"
	"github.com/GriffinCanCode/hostwin/internal/simhost"
)

// ErrUnhealthy is returned when the dev host answers with a non-2xx status.
var ErrUnhealthy = errors.New("dev host unhealthy")

// Options tunes the HTTP client.
type Options struct {
	Timeout      time.Duration
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	Logger       *zap.Logger
}

// DefaultOptions returns the options used by the CLI.
func DefaultOptions() Options {
	return Options{
		Timeout:      5 * time.Second,
		RetryMax:     3,
		RetryWaitMin: 100 * time.Millisecond,
		RetryWaitMax: 2 * time.Second,
	}
}

// Client reads the dev host's HTTP routes.
type Client struct {
	resty  *resty.Client
	logger *zap.Logger
}

// New creates a client for the dev host at baseURL (http or https).
func New(baseURL string, opts Options) *Client {
	logger := logging.OrNop(opts.Logger)

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = opts.RetryMax
	retryClient.RetryWaitMin = opts.RetryWaitMin
	retryClient.RetryWaitMax = opts.RetryWaitMax
	retryClient.Logger = leveled{logger.Sugar()}

	r := resty.NewWithClient(retryClient.StandardClient()).
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "hostwin-devclient/1.0").
		SetLogger(logger.Sugar()).
		SetJSONMarshaler(sonic.ConfigStd.Marshal).
		SetJSONUnmarshaler(sonic.ConfigStd.Unmarshal)
	if opts.Timeout > 0 {
		r.SetTimeout(opts.Timeout)
	}

	return &Client{resty: r, logger: logger}
}

// BaseURL turns a bridge websocket URL into the dev host's HTTP root:
// ws://127.0.0.1:8765/bridge becomes http://127.0.0.1:8765.
func BaseURL(bridgeURL string) (string, error) {
	u, err := url.Parse(bridgeURL)
	if err != nil {
		return "", fmt.Errorf("parse bridge url: %w", err)
	}
	switch u.Scheme {
	case "ws", "http":
		u.Scheme = "http"
	case "wss", "https":
		u.Scheme = "https"
	default:
		return "", fmt.Errorf("bridge url %q: unsupported scheme %q", bridgeURL, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("bridge url %q has no host", bridgeURL)
	}
	return (&url.URL{Scheme: u.Scheme, Host: u.Host}).String(), nil
}

// Health checks GET /healthz.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.resty.R().SetContext(ctx).Get("/healthz")
	if err != nil {
		return fmt.Errorf("health check: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("%w: healthz returned %s", ErrUnhealthy, resp.Status())
	}
	return nil
}

// Status fetches GET /status.
func (c *Client) Status(ctx context.Context) (simhost.Status, error) {
	var st simhost.Status
	resp, err := c.resty.R().SetContext(ctx).SetResult(&st).Get("/status")
	if err != nil {
		return st, fmt.Errorf("fetch status: %w", err)
	}
	if resp.IsError() {
		return st, fmt.Errorf("%w: status returned %s", ErrUnhealthy, resp.Status())
	}
	return st, nil
}

// WaitReady polls Health every interval until it succeeds or ctx is done.
func (c *Client) WaitReady(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for attempt := 1; ; attempt++ {
		err := c.Health(ctx)
		if err == nil {
			c.logger.Debug("dev host ready", zap.Int("attempts", attempt))
			return nil
		}
		c.logger.Debug("dev host not ready", zap.Int("attempt", attempt), zap.Error(err))

		select {
		case <-ctx.Done():
			return fmt.Errorf("wait for dev host: %w (last error: %v)", ctx.Err(), err)
		case <-ticker.C:
		}
	}
}

var _ retryablehttp.LeveledLogger = leveled{}

// leveled adapts zap to retryablehttp.LeveledLogger.
type leveled struct{ s *zap.SugaredLogger }

func (l leveled) Error(msg string, kv ...interface{}) { l.s.Errorw(msg, kv...) }
func (l leveled) Info(msg string, kv ...interface{})  { l.s.Debugw(msg, kv...) }
func (l leveled) Debug(msg string, kv ...interface{}) { l.s.Debugw(msg, kv...) }
func (l leveled) Warn(msg string, kv ...interface{})  { l.s.Warnw(msg, kv...) }
