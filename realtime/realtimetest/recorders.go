package realtimetest

import (
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/convitepro/realtime-go/realtime"
)

// RoundTripRecorder is a http.RoundTripper wrapper which records requests.
type RoundTripRecorder struct {
	Transport http.RoundTripper

	mtx  sync.Mutex
	reqs []*http.Request
}

var _ http.RoundTripper = (*RoundTripRecorder)(nil)

// Len gives number of recorded requests.
func (rec *RoundTripRecorder) Len() int {
	rec.mtx.Lock()
	defer rec.mtx.Unlock()
	return len(rec.reqs)
}

// Requests gives all HTTP requests in order they were recorded.
func (rec *RoundTripRecorder) Requests() []*http.Request {
	rec.mtx.Lock()
	defer rec.mtx.Unlock()
	return append([]*http.Request(nil), rec.reqs...)
}

// RoundTrip implements the http.RoundTripper interface.
func (rec *RoundTripRecorder) RoundTrip(req *http.Request) (*http.Response, error) {
	rec.mtx.Lock()
	rec.reqs = append(rec.reqs, req)
	rec.mtx.Unlock()

	transport := rec.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	return transport.RoundTrip(req)
}

// HTTPClient returns a client that records through rec.
func (rec *RoundTripRecorder) HTTPClient() *http.Client {
	return &http.Client{Transport: rec}
}

// MemoryDisplay is a realtime.Display keeping the last value of each field
// and a count of writes.
type MemoryDisplay struct {
	mtx    sync.Mutex
	fields map[string]string
	writes int
}

var _ realtime.Display = (*MemoryDisplay)(nil)

func NewMemoryDisplay() *MemoryDisplay {
	return &MemoryDisplay{fields: make(map[string]string)}
}

func (d *MemoryDisplay) Set(field, value string) {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	d.fields[field] = value
	d.writes++
}

func (d *MemoryDisplay) Get(field string) string {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	return d.fields[field]
}

func (d *MemoryDisplay) Writes() int {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	return d.writes
}

// Fields returns a copy of every field shown.
func (d *MemoryDisplay) Fields() map[string]string {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	fields := make(map[string]string, len(d.fields))
	for k, v := range d.fields {
		fields[k] = v
	}
	return fields
}

// NotificationRecorder is a realtime.Notifier sending every notification to
// C.
type NotificationRecorder struct {
	C chan realtime.Notification
}

func NewNotificationRecorder() *NotificationRecorder {
	return &NotificationRecorder{C: make(chan realtime.Notification, 64)}
}

func (r *NotificationRecorder) Notify(n realtime.Notification) {
	r.C <- n
}

// LogRecorder is a realtime.Logger keeping every line it is given.
type LogRecorder struct {
	mtx   sync.Mutex
	lines []LogLine
}

type LogLine struct {
	Level   realtime.LogLevel
	Message string
}

func (r *LogRecorder) Printf(level realtime.LogLevel, format string, v ...interface{}) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	r.lines = append(r.lines, LogLine{Level: level, Message: fmt.Sprintf(format, v...)})
}

func (r *LogRecorder) Lines() []LogLine {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	return append([]LogLine(nil), r.lines...)
}

// Contains reports whether a line at level contains substr.
func (r *LogRecorder) Contains(level realtime.LogLevel, substr string) bool {
	for _, l := range r.Lines() {
		if l.Level == level && strings.Contains(l.Message, substr) {
			return true
		}
	}
	return false
}

// DiscardLogger drops everything.
var DiscardLogger realtime.Logger = discardLogger{}

type discardLogger struct{}

func (discardLogger) Printf(realtime.LogLevel, string, ...interface{}) {}
