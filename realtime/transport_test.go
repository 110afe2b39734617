package realtime_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/convitepro/realtime-go/realtime"
	"github.com/convitepro/realtime-go/realtime/internal/rtutil"
	"github.com/convitepro/realtime-go/realtime/realtimetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"
)

func TestClient_EventStream(t *testing.T) {
	h := newHarness(t, realtime.DashboardResource("cliente"), dashboardPage(), realtime.WithDial(nil))
	orders := make(chan *realtime.UpdateEvent, 4)
	h.client.On(realtime.KindOrderCreated, func(u *realtime.UpdateEvent) {
		orders <- u
	})

	h.client.Start()
	realtimetest.Soon.Recv(t, nil, h.server.StreamOpened, t.Fatalf)
	h.waitState(realtime.ConnectionStateConnected)

	require.NoError(t, h.server.SendRaw(": ping\n\nid: 7\nevent: order_created\ndata: {\"order_id\": 5}\n\n"))
	var u *realtime.UpdateEvent
	realtimetest.Soon.Recv(t, &u, orders, t.Fatalf)
	assert.Equal(t, "7", u.ID)
	assert.Equal(t, realtime.SourceStream, u.Source)
	assert.Equal(t, int64(5), u.Data["order_id"])

	// The server asks for a longer pause than the backoff would take.
	require.NoError(t, h.server.SendRaw("retry: 10000\n\n"))
	require.NoError(t, h.server.Hangup())
	require.True(t, realtimetest.Soon.IsTrue(h.client.RetryPending))
	assert.Equal(t, realtime.ErrDisconnected, h.client.ErrorReason().Code)
	h.clock.Fire(t, 10*time.Second)
	realtimetest.Soon.Recv(t, nil, h.server.StreamOpened, t.Fatalf)
	h.waitState(realtime.ConnectionStateConnected)

	reqs := h.server.StreamRequests()
	require.Len(t, reqs, 2)
	assert.Equal(t, "text/event-stream", reqs[0].Header.Get("Accept"))
	assert.Equal(t, "XMLHttpRequest", reqs[0].Header.Get("X-Requested-With"))
	assert.Empty(t, reqs[0].Header.Get("Last-Event-ID"))
	assert.Equal(t, "7", reqs[1].Header.Get("Last-Event-ID"))

	h.client.Close()
	assert.False(t, h.client.StreamOpen())
}

func TestClient_EventStreamRejected(t *testing.T) {
	h := newHarness(t, realtime.DashboardResource("cliente"), dashboardPage(), realtime.WithDial(nil))
	h.server.SetStreamStatus(http.StatusServiceUnavailable)

	h.client.Start()
	require.True(t, realtimetest.Soon.IsTrue(h.client.RetryPending))
	reason := h.client.ErrorReason()
	require.NotNil(t, reason)
	assert.Equal(t, http.StatusServiceUnavailable, reason.StatusCode)
	assert.Equal(t, 1, h.client.ReconnectAttempts())

	h.server.SetStreamStatus(http.StatusOK)
	h.clock.Fire(t, 2*time.Second)
	realtimetest.Soon.Recv(t, nil, h.server.StreamOpened, t.Fatalf)
	h.waitState(realtime.ConnectionStateConnected)
	assert.Equal(t, 0, h.client.ReconnectAttempts())
}

func TestClient_WebSocket(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "XMLHttpRequest", r.Header.Get("X-Requested-With"))
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusInternalError, "")

		ctx := r.Context()
		if err := conn.Write(ctx, websocket.MessageText, []byte(`{"type": "order_created", "data": {"order_id": 1}}`)); err != nil {
			return
		}
		p, err := rtutil.MarshalMsgpack(map[string]interface{}{
			"type": "balance_updated",
			"data": map[string]interface{}{"total": "5.25"},
		})
		if err != nil {
			return
		}
		if err := conn.Write(ctx, websocket.MessageBinary, p); err != nil {
			return
		}
		// Wait for the client to go away.
		conn.Read(ctx)
	}))
	defer srv.Close()

	resource := realtime.Resource{
		Kind: realtime.ResourceCustom,
		Endpoints: realtime.Endpoints{
			Stream:       "/ws",
			CheckUpdates: "/check-updates",
		},
		PathPatterns: []string{"/painel"},
	}
	client, err := realtime.NewClient(resource, realtime.NewPage("/painel"),
		realtime.WithTransport(realtime.TransportWebSocket),
		realtime.WithBaseURL(srv.URL),
		realtime.WithHTTPClient(srv.Client()),
		realtime.WithLogHandler(realtimetest.DiscardLogger),
	)
	require.NoError(t, err)
	defer client.Close()
	sub := client.Subscribe(realtime.KindOrderCreated, realtime.KindBalanceUpdated)

	client.Start()
	ctx, cancel := context.WithTimeout(context.Background(), realtimetest.Timeout)
	defer cancel()

	u, err := sub.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, realtime.KindOrderCreated, u.Kind)
	assert.Equal(t, int64(1), u.Data["order_id"])

	u, err = sub.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, realtime.KindBalanceUpdated, u.Kind)
	total, ok := u.Decimal("total")
	require.True(t, ok)
	assert.Equal(t, "5.25", total.String())
	assert.Equal(t, realtime.ConnectionStateConnected, client.State())
}
