// Package config assembles the realtime-watch configuration from environment
// variables and command line flags. Flags take precedence over the
// environment.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/convitepro/realtime-go/realtime"
)

// Config is everything realtime-watch needs to follow one resource.
type Config struct {
	// BaseURL is the web application the endpoints are resolved against.
	BaseURL string `env:"REALTIME_BASE_URL" envDefault:"http://localhost:8000"`

	// Resource is one of dashboard, pre_order or invite.
	Resource   string `env:"REALTIME_RESOURCE" envDefault:"dashboard"`
	ResourceID string `env:"REALTIME_RESOURCE_ID"`
	UserID     string `env:"REALTIME_USER_ID"`
	Role       string `env:"REALTIME_ROLE" envDefault:"cliente"`

	Transport            string        `env:"REALTIME_TRANSPORT" envDefault:"sse"`
	Binary               bool          `env:"REALTIME_BINARY"`
	PollInterval         time.Duration `env:"REALTIME_POLL_INTERVAL"`
	MaxReconnectAttempts int           `env:"REALTIME_MAX_RECONNECT_ATTEMPTS" envDefault:"5"`
	RequestTimeout       time.Duration `env:"REALTIME_REQUEST_TIMEOUT" envDefault:"10s"`

	// CSRFToken is sent with presence updates.
	CSRFToken string `env:"REALTIME_CSRF_TOKEN"`
	// Locale and Currency format balances, e.g. pt-BR and R$. An empty
	// locale prints plain two-decimal amounts.
	Locale   string `env:"REALTIME_LOCALE"`
	Currency string `env:"REALTIME_CURRENCY" envDefault:"R$"`

	LogLevel string `env:"REALTIME_LOG_LEVEL" envDefault:"info"`
	// LogJSON switches to the production zap encoder.
	LogJSON bool `env:"REALTIME_LOG_JSON"`
	// MetricsAddress serves Prometheus metrics when set, e.g. ":9100".
	MetricsAddress string `env:"REALTIME_METRICS_ADDRESS"`
}

// Load reads the environment, then the flags in args, and validates the
// result.
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	var errs []error

	if u, err := url.Parse(c.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("%w: base URL %q", ErrInvalidServerConfig, c.BaseURL))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%w: request timeout must be positive", ErrInvalidServerConfig))
	}

	switch realtime.ResourceKind(c.Resource) {
	case realtime.ResourceDashboard:
		if c.Role == "" {
			errs = append(errs, fmt.Errorf("%w: dashboard needs a role", ErrInvalidResourceConfig))
		}
	case realtime.ResourcePreOrder:
		if c.ResourceID == "" || c.UserID == "" {
			errs = append(errs, fmt.Errorf("%w: pre_order needs an id and a user id", ErrInvalidResourceConfig))
		}
	case realtime.ResourceInvite:
		if c.ResourceID == "" {
			errs = append(errs, fmt.Errorf("%w: invite needs an id", ErrInvalidResourceConfig))
		}
	default:
		errs = append(errs, fmt.Errorf("%w: unknown resource %q", ErrInvalidResourceConfig, c.Resource))
	}

	if _, err := realtime.ParseTransport(c.Transport); err != nil {
		errs = append(errs, fmt.Errorf("%w: %v", ErrInvalidTransportConfig, err))
	}
	if c.PollInterval < 0 || c.MaxReconnectAttempts < 0 {
		errs = append(errs, fmt.Errorf("%w: intervals and attempts must not be negative", ErrInvalidTransportConfig))
	}
	if _, err := realtime.ParseLogLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("%w: %v", ErrInvalidLogConfig, err))
	}

	return errors.Join(errs...)
}

// ClientResource returns the resource preset the configuration names.
func (c *Config) ClientResource() realtime.Resource {
	switch realtime.ResourceKind(c.Resource) {
	case realtime.ResourcePreOrder:
		return realtime.PreOrderResource(c.ResourceID, c.UserID, c.Role)
	case realtime.ResourceInvite:
		return realtime.InviteResource(c.ResourceID)
	default:
		return realtime.DashboardResource(c.Role)
	}
}

// PagePath is the page the resource lives on, which the client guard
// checks before starting.
func (c *Config) PagePath() string {
	switch realtime.ResourceKind(c.Resource) {
	case realtime.ResourcePreOrder:
		return "/pre-ordem/" + url.PathEscape(c.ResourceID) + "/"
	case realtime.ResourceInvite:
		return "/convite/" + url.PathEscape(c.ResourceID) + "/"
	default:
		return "/" + c.Role + "/dashboard/"
	}
}

// ClientOptions maps the configuration onto client options. It assumes the
// configuration is valid.
func (c *Config) ClientOptions() []realtime.ClientOption {
	transport, _ := realtime.ParseTransport(c.Transport)
	level, _ := realtime.ParseLogLevel(c.LogLevel)
	opts := []realtime.ClientOption{
		realtime.WithBaseURL(c.BaseURL),
		realtime.WithTransport(transport),
		realtime.WithUseBinaryProtocol(c.Binary),
		realtime.WithMaxReconnectAttempts(c.MaxReconnectAttempts),
		realtime.WithRequestTimeout(c.RequestTimeout),
		realtime.WithLogLevel(level),
	}
	if c.PollInterval > 0 {
		opts = append(opts, realtime.WithPollInterval(c.PollInterval))
	}
	if c.CSRFToken != "" {
		token := c.CSRFToken
		opts = append(opts, realtime.WithCSRFToken(func() string { return token }))
	}
	return opts
}
