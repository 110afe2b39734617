package realtime

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := newMetrics(reg, DashboardResource("cliente"))
	require.NoError(t, err)

	m.failed(1)
	m.failed(2)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.streamFailures))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.reconnectAttempts))

	m.connected()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.streamConnects))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.reconnectAttempts))

	m.update(&UpdateEvent{Kind: KindBalanceUpdated, Source: SourceStream})
	m.update(&UpdateEvent{Kind: KindBalanceUpdated, Source: SourcePoll})
	m.update(&UpdateEvent{Kind: KindBalanceUpdated, Source: SourcePoll})
	assert.Equal(t, 2.0, testutil.ToFloat64(m.updates.WithLabelValues("balance_updated", "poll")))

	m.polled(pollResultError)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.polls.WithLabelValues("error")))

	m.setState(ConnectionStatePolling)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.state.WithLabelValues("POLLING")))
	m.setState(ConnectionStateConnected)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.state.WithLabelValues("POLLING")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.state.WithLabelValues("CONNECTED")))

	t.Run("second client shares collectors", func(t *testing.T) {
		other, err := newMetrics(reg, DashboardResource("prestador"))
		require.NoError(t, err)
		other.connected()
		assert.Equal(t, 2.0, testutil.ToFloat64(m.streamConnects))
	})

	t.Run("unregistered", func(t *testing.T) {
		m, err := newMetrics(nil, InviteResource("1"))
		require.NoError(t, err)
		m.polled(pollResultOK)
		assert.Equal(t, 1.0, testutil.ToFloat64(m.polls.WithLabelValues("ok")))
	})
}
