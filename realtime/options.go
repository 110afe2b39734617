package realtime

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/convitepro/realtime-go/realtime/internal/rtutil"
	"github.com/prometheus/client_golang/prometheus"
)

// Transport selects how the client receives server pushes.
type Transport int

const (
	// TransportSSE reads a text/event-stream response. It is the default.
	TransportSSE Transport = iota
	// TransportWebSocket reads JSON text frames or msgpack binary frames
	// from a WebSocket.
	TransportWebSocket
	// TransportNone never opens a stream; the client only polls.
	TransportNone
)

func (t Transport) String() string {
	switch t {
	case TransportSSE:
		return "sse"
	case TransportWebSocket:
		return "websocket"
	case TransportNone:
		return "none"
	default:
		return "unknown"
	}
}

// ParseTransport maps "sse", "websocket" or "none" to a Transport.
func ParseTransport(s string) (Transport, error) {
	for _, t := range []Transport{TransportSSE, TransportWebSocket, TransportNone} {
		if strings.EqualFold(s, t.String()) {
			return t, nil
		}
	}
	return TransportSSE, newErrorf(ErrBadRequest, "unknown transport %q", s)
}

const (
	defaultStaleTimeout   = 45 * time.Second
	defaultBeaconTimeout  = 2 * time.Second
	defaultRequestTimeout = 10 * time.Second
)

var defaultOptions = clientOptions{
	Transport:      TransportSSE,
	StaleTimeout:   defaultStaleTimeout,
	BeaconTimeout:  defaultBeaconTimeout,
	RequestTimeout: defaultRequestTimeout,
	LogLevel:       LogWarning,
}

type clientOptions struct {
	// Zero values fall back to the Resource's settings.
	PollInterval         time.Duration
	PresenceInterval     time.Duration
	MaxReconnectAttempts *int
	Backoff              BackoffPolicy

	Transport Transport
	// StaleTimeout closes a stream that has been silent this long. Negative
	// disables the watchdog.
	StaleTimeout   time.Duration
	BeaconTimeout  time.Duration
	RequestTimeout time.Duration

	BaseURL    string
	HTTPClient *http.Client
	Dial       DialFunc

	LogHandler Logger
	LogLevel   LogLevel

	Notifier  Notifier
	CSRFToken func() string
	Metrics   prometheus.Registerer

	UseBinaryProtocol bool
	InstanceID        string

	// Test hooks.
	After rtutil.TimerFunc
	Now   func() time.Time
}

// A ClientOption configures a Client.
type ClientOption func(*clientOptions)

func applyOptionsWithDefaults(opts ...ClientOption) *clientOptions {
	to := defaultOptions
	for _, set := range opts {
		set(&to)
	}
	if to.LogHandler == nil {
		to.LogHandler = defaultLogger()
	}
	if to.HTTPClient == nil {
		to.HTTPClient = &http.Client{}
	}
	if to.After == nil {
		to.After = rtutil.After
	}
	if to.Now == nil {
		to.Now = time.Now
	}
	if to.BeaconTimeout <= 0 {
		to.BeaconTimeout = defaultBeaconTimeout
	}
	if to.RequestTimeout <= 0 {
		to.RequestTimeout = defaultRequestTimeout
	}
	return &to
}

func (opts *clientOptions) validate() error {
	if opts.BaseURL == "" {
		return nil
	}
	u, err := url.Parse(opts.BaseURL)
	if err != nil {
		return newError(ErrInvalidEndpoint, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return newErrorf(ErrInvalidEndpoint, "base URL %q must be http or https", opts.BaseURL)
	}
	return nil
}

func (opts *clientOptions) logger() logger {
	return logger{l: LoggerOptions{Logger: opts.LogHandler, Level: opts.LogLevel}}
}

// resolve joins an endpoint path to the base URL.
func (opts *clientOptions) resolve(endpoint string) (string, error) {
	ref, err := url.Parse(endpoint)
	if err != nil {
		return "", newError(ErrInvalidEndpoint, err)
	}
	if opts.BaseURL == "" || ref.IsAbs() {
		return ref.String(), nil
	}
	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return "", newError(ErrInvalidEndpoint, err)
	}
	return base.ResolveReference(ref).String(), nil
}

func (opts *clientOptions) dialer() DialFunc {
	if opts.Dial != nil {
		return opts.Dial
	}
	switch opts.Transport {
	case TransportWebSocket:
		return dialWebSocket(opts.HTTPClient)
	default:
		return dialSSE(opts.HTTPClient)
	}
}

// WithPollInterval overrides the resource's poll interval.
func WithPollInterval(d time.Duration) ClientOption {
	return func(os *clientOptions) {
		os.PollInterval = d
	}
}

// WithPresenceInterval overrides the resource's presence check interval.
func WithPresenceInterval(d time.Duration) ClientOption {
	return func(os *clientOptions) {
		os.PresenceInterval = d
	}
}

// WithMaxReconnectAttempts overrides how many stream failures are retried
// before the client settles on polling.
func WithMaxReconnectAttempts(n int) ClientOption {
	return func(os *clientOptions) {
		os.MaxReconnectAttempts = &n
	}
}

// WithBackoff overrides the resource's retry delay policy.
func WithBackoff(b BackoffPolicy) ClientOption {
	return func(os *clientOptions) {
		os.Backoff = b
	}
}

func WithTransport(t Transport) ClientOption {
	return func(os *clientOptions) {
		os.Transport = t
	}
}

// WithStaleTimeout sets how long an open stream may stay silent before it is
// treated as failed. Negative disables the check.
func WithStaleTimeout(d time.Duration) ClientOption {
	return func(os *clientOptions) {
		os.StaleTimeout = d
	}
}

// WithBeaconTimeout bounds the presence leave request sent on Close.
func WithBeaconTimeout(d time.Duration) ClientOption {
	return func(os *clientOptions) {
		os.BeaconTimeout = d
	}
}

// WithRequestTimeout bounds each poll, presence and refresh request.
func WithRequestTimeout(d time.Duration) ClientOption {
	return func(os *clientOptions) {
		os.RequestTimeout = d
	}
}

// WithBaseURL sets the scheme and host resource endpoints are resolved
// against.
func WithBaseURL(u string) ClientOption {
	return func(os *clientOptions) {
		os.BaseURL = u
	}
}

func WithHTTPClient(client *http.Client) ClientOption {
	return func(os *clientOptions) {
		os.HTTPClient = client
	}
}

// WithDial replaces the stream dialer selected by the transport.
func WithDial(dial DialFunc) ClientOption {
	return func(os *clientOptions) {
		os.Dial = dial
	}
}

func WithLogHandler(handler Logger) ClientOption {
	return func(os *clientOptions) {
		os.LogHandler = handler
	}
}

func WithLogLevel(level LogLevel) ClientOption {
	return func(os *clientOptions) {
		os.LogLevel = level
	}
}

// WithNotifier sets where user facing notices go: degraded mode, going
// offline, the other party arriving.
func WithNotifier(n Notifier) ClientOption {
	return func(os *clientOptions) {
		os.Notifier = n
	}
}

// WithCSRFToken sets the source of the X-CSRFToken header sent with
// presence updates.
func WithCSRFToken(token func() string) ClientOption {
	return func(os *clientOptions) {
		os.CSRFToken = token
	}
}

// WithMetrics registers the client's collectors with r.
func WithMetrics(r prometheus.Registerer) ClientOption {
	return func(os *clientOptions) {
		os.Metrics = r
	}
}

// WithUseBinaryProtocol asks the server for msgpack poll responses.
func WithUseBinaryProtocol(use bool) ClientOption {
	return func(os *clientOptions) {
		os.UseBinaryProtocol = use
	}
}

// WithInstanceID sets the X-Client-Instance header. A random UUID is used
// otherwise.
func WithInstanceID(id string) ClientOption {
	return func(os *clientOptions) {
		os.InstanceID = id
	}
}
