package realtimetest

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/convitepro/realtime-go/realtime"
	"github.com/convitepro/realtime-go/realtime/internal/rtutil"
)

// Dial is one call to FakeDialer.Dial.
type Dial struct {
	URL    string
	Header http.Header
	// Conn is nil when the dial failed.
	Conn *FakeConn
}

// FakeDialer is a realtime.DialFunc handing out FakeConns, or failing with
// Err when it is set.
type FakeDialer struct {
	// Dials receives every dial attempt.
	Dials chan Dial

	mtx   sync.Mutex
	err   error
	conns []*FakeConn
	count int
}

func NewFakeDialer() *FakeDialer {
	return &FakeDialer{Dials: make(chan Dial, 64)}
}

// Fail makes every later dial fail with err; nil makes them succeed again.
func (d *FakeDialer) Fail(err error) {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	d.err = err
}

// Count returns how many dials were attempted.
func (d *FakeDialer) Count() int {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	return d.count
}

// Conns returns every connection handed out.
func (d *FakeDialer) Conns() []*FakeConn {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	return append([]*FakeConn(nil), d.conns...)
}

// OpenConns returns how many handed out connections are still open.
func (d *FakeDialer) OpenConns() int {
	n := 0
	for _, c := range d.Conns() {
		if !c.IsClosed() {
			n++
		}
	}
	return n
}

func (d *FakeDialer) Dial(ctx context.Context, url string, header http.Header) (realtime.StreamConn, error) {
	d.mtx.Lock()
	d.count++
	err := d.err
	var conn *FakeConn
	if err == nil {
		conn = newFakeConn()
		d.conns = append(d.conns, conn)
	}
	d.mtx.Unlock()

	d.Dials <- Dial{URL: url, Header: header.Clone(), Conn: conn}
	if err != nil {
		return nil, err
	}
	return conn, nil
}

var ErrConnClosed = errors.New("fake conn closed")

// FakeConn is a realtime.StreamConn fed by the test.
type FakeConn struct {
	frames chan *realtime.StreamFrame
	errs   chan error
	closed chan struct{}
	once   sync.Once
}

func newFakeConn() *FakeConn {
	return &FakeConn{
		frames: make(chan *realtime.StreamFrame),
		errs:   make(chan error, 1),
		closed: make(chan struct{}),
	}
}

func (c *FakeConn) Receive(ctx context.Context) (*realtime.StreamFrame, error) {
	select {
	case f := <-c.frames:
		return f, nil
	case err := <-c.errs:
		return nil, err
	case <-c.closed:
		return nil, ErrConnClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *FakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func (c *FakeConn) IsClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

// Send delivers f to the reader. It fails if nobody reads within Timeout or
// the conn is closed.
func (c *FakeConn) Send(f *realtime.StreamFrame) error {
	select {
	case c.frames <- f:
		return nil
	case <-c.closed:
		return ErrConnClosed
	case <-time.After(Timeout):
		return errors.New("nobody is reading the fake conn")
	}
}

// SendUpdate delivers a JSON frame {"type": kind, "data": data}.
func (c *FakeConn) SendUpdate(kind realtime.UpdateKind, data map[string]interface{}) error {
	return c.SendJSON("", map[string]interface{}{"type": string(kind), "data": data})
}

// SendJSON delivers v encoded as JSON under the given event name.
func (c *FakeConn) SendJSON(event string, v interface{}) error {
	p, err := rtutil.MarshalJSON(v)
	if err != nil {
		return err
	}
	return c.Send(&realtime.StreamFrame{Event: event, Data: p})
}

// Fail makes the pending or next Receive return err.
func (c *FakeConn) Fail(err error) {
	select {
	case c.errs <- err:
	default:
	}
}
