package realtime_test

import (
	"testing"
	"time"

	"github.com/convitepro/realtime-go/realtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeUpdate(t *testing.T) {
	tests := map[string]struct {
		payload   string
		event     string
		kind      realtime.UpdateKind
		data      map[string]interface{}
		message   string
		retry     bool
		timestamp time.Time
	}{
		"envelope with data": {
			payload: `{"type": "balance_updated", "data": {"available": 100, "blocked": 20}, "timestamp": "2024-03-01T10:00:00.123456"}`,
			kind:    realtime.KindBalanceUpdated,
			data:    map[string]interface{}{"available": int64(100), "blocked": int64(20)},
			timestamp: time.Date(2024, 3, 1, 10, 0, 0, 123456000, time.UTC),
		},
		"kind from event name": {
			payload: `{"other_party_present": true, "other_party_name": "Ana"}`,
			event:   "presence",
			kind:    realtime.KindPresence,
			data:    map[string]interface{}{"other_party_present": true, "other_party_name": "Ana"},
		},
		"type wins over event name": {
			payload: `{"type": "status_change", "data": {"new_status": "aceita"}}`,
			event:   "message",
			kind:    realtime.KindStatusChange,
			data:    map[string]interface{}{"new_status": "aceita"},
		},
		"flat fields become data": {
			payload: `{"type": "error", "message": "Erro interno", "retry": true, "code": 7}`,
			kind:    realtime.KindError,
			data:    map[string]interface{}{"code": int64(7)},
			message: "Erro interno",
			retry:   true,
		},
		"rfc3339 timestamp": {
			payload:   `{"type": "heartbeat", "timestamp": "2024-03-01T10:00:00Z"}`,
			kind:      realtime.KindHeartbeat,
			data:      map[string]interface{}{},
			timestamp: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		},
		"unknown kinds still decode": {
			payload: `{"type": "something_new"}`,
			kind:    realtime.UpdateKind("something_new"),
			data:    map[string]interface{}{},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			u, err := realtime.DecodeUpdate("application/json", []byte(test.payload), test.event)
			require.NoError(t, err)
			assert.Equal(t, test.kind, u.Kind)
			assert.Equal(t, test.data, u.Data)
			assert.Equal(t, test.message, u.Message)
			assert.Equal(t, test.retry, u.Retry)
			assert.True(t, test.timestamp.Equal(u.ServerTimestamp), "timestamp %v", u.ServerTimestamp)
		})
	}
}

func TestDecodeUpdateErrors(t *testing.T) {
	for name, payload := range map[string]string{
		"not json":     `{"type": `,
		"no type":      `{"data": {}}`,
		"not a object": `[1, 2]`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := realtime.DecodeUpdate("application/json", []byte(payload), "message")
			assert.Error(t, err)
		})
	}
}

func TestUpdateEventAccessors(t *testing.T) {
	u := &realtime.UpdateEvent{Data: map[string]interface{}{
		"available": 100.5,
		"blocked":   int64(20),
		"total":     "120.50",
		"order_id":  int64(42),
		"present":   true,
		"bad":       "abc",
	}}

	d, ok := u.Decimal("available")
	require.True(t, ok)
	assert.Equal(t, "100.5", d.String())
	d, ok = u.Decimal("blocked")
	require.True(t, ok)
	assert.Equal(t, "20", d.String())
	d, ok = u.Decimal("total")
	require.True(t, ok)
	assert.Equal(t, "120.5", d.String())
	_, ok = u.Decimal("bad")
	assert.False(t, ok)
	_, ok = u.Decimal("missing")
	assert.False(t, ok)

	assert.Equal(t, "42", u.Text("order_id"))
	assert.Equal(t, "", u.Text("missing"))
	assert.True(t, u.Bool("present"))
	assert.False(t, u.Bool("order_id"))
}

func TestUpdateKindKnown(t *testing.T) {
	for _, k := range []realtime.UpdateKind{
		realtime.KindStatusChange,
		realtime.KindBalanceUpdated,
		realtime.KindProposalReceived,
		realtime.KindProposalAccepted,
		realtime.KindProposalRejected,
		realtime.KindOrderCreated,
		realtime.KindPresence,
		realtime.KindHeartbeat,
		realtime.KindError,
		realtime.KindDisconnected,
		realtime.KindConnected,
	} {
		assert.True(t, k.Known(), k)
	}
	assert.False(t, realtime.UpdateKind("bogus").Known())
}
