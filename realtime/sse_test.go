package realtime_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/convitepro/realtime-go/realtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSSEConnReceive(t *testing.T) {
	stream := strings.Join([]string{
		": connected",
		"",
		"event: balance_updated",
		"id: 41",
		`data: {"type": "balance_updated",`,
		`data:  "data": {"available": 100}}`,
		"",
		"retry: 3000",
		"data: plain\r",
		"\r",
		"",
		"event: heartbeat",
		"",
		"data:no-space",
		"",
		"event: presence",
		": keep-alive",
		"id: 7",
		`data: {"other_party_present": true}`,
		"",
		"",
	}, "\n")
	conn := realtime.NewSSEConn(io.NopCloser(strings.NewReader(stream)))
	ctx := context.Background()

	f, err := conn.Receive(ctx)
	require.NoError(t, err)
	assert.True(t, f.Comment, "comment lines are liveness frames")

	f, err = conn.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, "balance_updated", f.Event)
	assert.Equal(t, "41", f.ID)
	assert.Equal(t, "{\"type\": \"balance_updated\",\n \"data\": {\"available\": 100}}", string(f.Data))

	f, err = conn.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, "", f.Event)
	assert.Equal(t, "plain", string(f.Data))
	assert.Equal(t, 3*time.Second, f.Retry)

	// The data-less heartbeat frame is dropped along with its event name.
	f, err = conn.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, "", f.Event)
	assert.Equal(t, "no-space", string(f.Data))

	// A comment in the middle of a frame keeps the fields read so far.
	f, err = conn.Receive(ctx)
	require.NoError(t, err)
	assert.False(t, f.Comment)
	assert.Equal(t, "presence", f.Event)
	assert.Equal(t, "7", f.ID)
	assert.Equal(t, `{"other_party_present": true}`, string(f.Data))

	_, err = conn.Receive(ctx)
	require.Error(t, err)
	var info *realtime.ErrorInfo
	require.True(t, errors.As(err, &info))
	assert.Equal(t, realtime.ErrDisconnected, info.Code)
}

func TestSSEConnReceiveCancelled(t *testing.T) {
	conn := realtime.NewSSEConn(io.NopCloser(strings.NewReader("data: x\n\n")))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := conn.Receive(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDialSSE(t *testing.T) {
	t.Run("sends stream headers", func(t *testing.T) {
		headers := make(chan http.Header, 1)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			headers <- r.Header.Clone()
			w.Header().Set("Content-Type", "text/event-stream; charset=utf-8")
			io.WriteString(w, "data: {\"type\": \"order_created\"}\n\n")
		}))
		defer srv.Close()

		header := http.Header{}
		header.Set("Last-Event-ID", "7")
		conn, err := realtime.DialSSE(srv.Client())(context.Background(), srv.URL, header)
		require.NoError(t, err)
		defer conn.Close()

		h := <-headers
		assert.Equal(t, "text/event-stream", h.Get("Accept"))
		assert.Equal(t, "no-cache", h.Get("Cache-Control"))
		assert.Equal(t, "7", h.Get("Last-Event-ID"))

		f, err := conn.Receive(context.Background())
		require.NoError(t, err)
		assert.Equal(t, `{"type": "order_created"}`, string(f.Data))
	})

	tests := map[string]struct {
		handler http.HandlerFunc
		code    realtime.ErrorCode
		message string
	}{
		"server error": {
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusServiceUnavailable)
				io.WriteString(w, `{"error": "Erro ao estabelecer conexão"}`)
			},
			code:    realtime.ErrorCode(50300),
			message: "Erro ao estabelecer conexão",
		},
		"unauthenticated": {
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				io.WriteString(w, `{"error": "Não autenticado"}`)
			},
			code:    realtime.ErrUnauthorized,
			message: "Não autenticado",
		},
		"not an event stream": {
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/html")
				io.WriteString(w, "<html></html>")
			},
			code: realtime.ErrNoCompatibleTransport,
		},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(test.handler)
			defer srv.Close()

			_, err := realtime.DialSSE(srv.Client())(context.Background(), srv.URL, http.Header{})
			var info *realtime.ErrorInfo
			require.True(t, errors.As(err, &info), "got %v", err)
			assert.Equal(t, test.code, info.Code)
			if test.message != "" {
				assert.Equal(t, test.message, info.Message())
			}
		})
	}
}
