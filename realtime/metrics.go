package realtime

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "realtime"

const (
	pollResultOK    = "ok"
	pollResultError = "error"
)

var allStates = []ConnectionState{
	ConnectionStateDisconnected,
	ConnectionStateConnecting,
	ConnectionStateConnected,
	ConnectionStatePolling,
	ConnectionStateClosed,
}

// metrics are the client's prometheus collectors. They work unregistered
// when no Registerer is configured.
type metrics struct {
	streamConnects    prometheus.Counter
	streamFailures    prometheus.Counter
	reconnectAttempts prometheus.Gauge
	updates           *prometheus.CounterVec
	polls             *prometheus.CounterVec
	state             *prometheus.GaugeVec
}

func newMetrics(r prometheus.Registerer, resource Resource) (*metrics, error) {
	labels := prometheus.Labels{"resource": string(resource.Kind)}
	m := &metrics{
		streamConnects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   metricsNamespace,
			Name:        "stream_connects_total",
			Help:        "Stream connections opened.",
			ConstLabels: labels,
		}),
		streamFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   metricsNamespace,
			Name:        "stream_failures_total",
			Help:        "Stream connections that failed to open or were lost.",
			ConstLabels: labels,
		}),
		reconnectAttempts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   metricsNamespace,
			Name:        "reconnect_attempts",
			Help:        "Consecutive stream failures since the stream was last open.",
			ConstLabels: labels,
		}),
		updates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   metricsNamespace,
			Name:        "updates_total",
			Help:        "Updates dispatched, by kind and transport.",
			ConstLabels: labels,
		}, []string{"kind", "source"}),
		polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   metricsNamespace,
			Name:        "polls_total",
			Help:        "Check-updates requests, by result.",
			ConstLabels: labels,
		}, []string{"result"}),
		state: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   metricsNamespace,
			Name:        "connection_state",
			Help:        "1 for the current connection state, 0 otherwise.",
			ConstLabels: labels,
		}, []string{"state"}),
	}
	if r == nil {
		return m, nil
	}

	var err error
	if m.streamConnects, err = register(r, m.streamConnects); err != nil {
		return nil, err
	}
	if m.streamFailures, err = register(r, m.streamFailures); err != nil {
		return nil, err
	}
	if m.reconnectAttempts, err = register(r, m.reconnectAttempts); err != nil {
		return nil, err
	}
	if m.updates, err = register(r, m.updates); err != nil {
		return nil, err
	}
	if m.polls, err = register(r, m.polls); err != nil {
		return nil, err
	}
	if m.state, err = register(r, m.state); err != nil {
		return nil, err
	}
	return m, nil
}

// register registers c, or returns the collector already registered under
// the same description.
func register[T prometheus.Collector](r prometheus.Registerer, c T) (T, error) {
	err := r.Register(c)
	if err == nil {
		return c, nil
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(T); ok {
			return existing, nil
		}
	}
	return c, err
}

func (m *metrics) connected() {
	m.streamConnects.Inc()
	m.reconnectAttempts.Set(0)
}

func (m *metrics) failed(attempts int) {
	m.streamFailures.Inc()
	m.reconnectAttempts.Set(float64(attempts))
}

func (m *metrics) reconnectAttemptsReset() {
	m.reconnectAttempts.Set(0)
}

func (m *metrics) update(u *UpdateEvent) {
	m.updates.WithLabelValues(string(u.Kind), string(u.Source)).Inc()
}

func (m *metrics) polled(result string) {
	m.polls.WithLabelValues(result).Inc()
}

func (m *metrics) setState(current ConnectionState) {
	for _, s := range allStates {
		v := 0.0
		if s == current {
			v = 1
		}
		m.state.WithLabelValues(s.String()).Set(v)
	}
}
