package realtime

import (
	"context"
	"net/http"
	"time"
)

// StreamFrame is one message read from a stream transport.
type StreamFrame struct {
	// Event is the SSE event name; empty for the default "message".
	Event string
	ID    string
	Data  []byte
	// Retry is the reconnection time the server asked for, if any.
	Retry time.Duration
	// Binary frames carry msgpack, text frames JSON.
	Binary bool
	// Comment frames carry no data; they only show the stream is alive.
	Comment bool
}

func (f *StreamFrame) contentType() string {
	if f.Binary {
		return protocolMsgpack
	}
	return protocolJSON
}

// StreamConn is an open server-push stream.
type StreamConn interface {
	// Receive blocks until the next frame arrives, the stream ends or ctx
	// is done.
	Receive(ctx context.Context) (*StreamFrame, error)
	Close() error
}

// DialFunc opens a stream. The stream lives until Close is called or ctx is
// done.
type DialFunc func(ctx context.Context, url string, header http.Header) (StreamConn, error)

// verboseConn logs every frame and the close of the wrapped connection.
type verboseConn struct {
	conn   StreamConn
	logger logger
}

func (vc verboseConn) Receive(ctx context.Context) (*StreamFrame, error) {
	f, err := vc.conn.Receive(ctx)
	if err != nil {
		vc.logger.Verbosef("Realtime Stream: receive error: %v", err)
		return nil, err
	}
	if !f.Comment {
		vc.logger.Verbosef("Realtime Stream: received event=%q id=%q %d bytes", f.Event, f.ID, len(f.Data))
	}
	return f, nil
}

func (vc verboseConn) Close() error {
	vc.logger.Verbosef("Realtime Stream: closed")
	return vc.conn.Close()
}
