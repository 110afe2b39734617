package realtimetest

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/convitepro/realtime-go/realtime"
	"github.com/convitepro/realtime-go/realtime/internal/rtutil"
)

// Server serves the stream, check-updates, presence and refresh endpoints
// of a Resource.
type Server struct {
	*httptest.Server

	// StreamOpened receives a value each time a stream is accepted.
	StreamOpened chan struct{}
	// Polled receives a value each time check-updates is answered.
	Polled chan struct{}
	// PresenceActions receives the action of every presence POST.
	PresenceActions chan string

	frames chan string
	hangup chan struct{}

	mtx             sync.Mutex
	streamStatus    int
	pollStatus      int
	updates         []map[string]interface{}
	binary          bool
	present         bool
	presentName     string
	streamRequests  []*http.Request
	pollRequests    []*http.Request
	presenceQueries int
	refreshes       int
}

// NewServer starts a server for the endpoints of r.
func NewServer(r realtime.Resource) *Server {
	s := &Server{
		StreamOpened:    make(chan struct{}, 64),
		Polled:          make(chan struct{}, 64),
		PresenceActions: make(chan string, 64),
		frames:          make(chan string),
		hangup:          make(chan struct{}),
		streamStatus:    http.StatusOK,
		pollStatus:      http.StatusOK,
	}
	mux := http.NewServeMux()
	handle := func(endpoint string, h http.HandlerFunc) {
		if endpoint == "" {
			return
		}
		u, err := url.Parse(endpoint)
		if err != nil {
			panic(err)
		}
		mux.HandleFunc(u.Path, h)
	}
	handle(r.Endpoints.Stream, s.serveStream)
	handle(r.Endpoints.CheckUpdates, s.serveCheckUpdates)
	handle(r.Endpoints.Presence, s.servePresence)
	handle(r.Endpoints.Refresh, s.serveRefresh)
	s.Server = httptest.NewServer(mux)
	return s
}

// SetStreamStatus makes every later stream request answer with status.
func (s *Server) SetStreamStatus(status int) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.streamStatus = status
}

// SetPollStatus makes every later check-updates request answer with
// status.
func (s *Server) SetPollStatus(status int) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.pollStatus = status
}

// SetUpdates sets what every later check-updates request returns.
func (s *Server) SetUpdates(updates ...map[string]interface{}) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.updates = updates
}

// SetBinary makes check-updates answer in msgpack to clients accepting it.
func (s *Server) SetBinary(binary bool) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.binary = binary
}

// SetPresent sets the answer to presence queries.
func (s *Server) SetPresent(present bool, name string) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.present = present
	s.presentName = name
}

func (s *Server) StreamRequests() []*http.Request {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return append([]*http.Request(nil), s.streamRequests...)
}

func (s *Server) PollRequests() []*http.Request {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return append([]*http.Request(nil), s.pollRequests...)
}

func (s *Server) PresenceQueries() int {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.presenceQueries
}

func (s *Server) Refreshes() int {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.refreshes
}

// Send writes an event to the open stream, encoding v as JSON. An empty
// event name sends an unnamed message.
func (s *Server) Send(event string, v interface{}) error {
	p, err := rtutil.MarshalJSON(v)
	if err != nil {
		return err
	}
	var b strings.Builder
	if event != "" {
		fmt.Fprintf(&b, "event: %s\n", event)
	}
	fmt.Fprintf(&b, "data: %s\n\n", p)
	return s.SendRaw(b.String())
}

// SendRaw writes raw event stream text to the open stream.
func (s *Server) SendRaw(text string) error {
	select {
	case s.frames <- text:
		return nil
	case <-time.After(Timeout):
		return fmt.Errorf("no open stream to send %q to", text)
	}
}

// Hangup ends the open stream from the server side.
func (s *Server) Hangup() error {
	select {
	case s.hangup <- struct{}{}:
		return nil
	case <-time.After(Timeout):
		return fmt.Errorf("no open stream to hang up")
	}
}

func (s *Server) serveStream(w http.ResponseWriter, r *http.Request) {
	s.mtx.Lock()
	s.streamRequests = append(s.streamRequests, r.Clone(r.Context()))
	status := s.streamStatus
	s.mtx.Unlock()

	if status != http.StatusOK {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, `{"error": "stream unavailable"}`)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher, _ := w.(http.Flusher)
	if flusher != nil {
		flusher.Flush()
	}
	s.StreamOpened <- struct{}{}

	for {
		select {
		case text := <-s.frames:
			io.WriteString(w, text)
			if flusher != nil {
				flusher.Flush()
			}
		case <-s.hangup:
			return
		case <-r.Context().Done():
			return
		}
	}
}

type checkUpdatesBody struct {
	Success    bool                     `codec:"success"`
	HasUpdates bool                     `codec:"has_updates"`
	Updates    []map[string]interface{} `codec:"updates"`
}

func (s *Server) serveCheckUpdates(w http.ResponseWriter, r *http.Request) {
	s.mtx.Lock()
	s.pollRequests = append(s.pollRequests, r.Clone(r.Context()))
	status := s.pollStatus
	updates := s.updates
	binary := s.binary
	s.mtx.Unlock()
	defer func() { s.Polled <- struct{}{} }()

	if status != http.StatusOK {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, `{"success": false, "error": "check failed"}`)
		return
	}
	body := checkUpdatesBody{
		Success:    true,
		HasUpdates: len(updates) > 0,
		Updates:    updates,
	}
	if body.Updates == nil {
		body.Updates = []map[string]interface{}{}
	}
	if binary && strings.Contains(r.Header.Get("Accept"), rtutil.ContentTypeMsgpack) {
		writeBody(w, rtutil.ContentTypeMsgpack, rtutil.MarshalMsgpack, body)
		return
	}
	writeBody(w, rtutil.ContentTypeJSON, rtutil.MarshalJSON, body)
}

type presenceBody struct {
	UserID string `codec:"user_id"`
	Action string `codec:"action"`
}

func (s *Server) servePresence(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		p, _ := io.ReadAll(r.Body)
		var body presenceBody
		if err := rtutil.UnmarshalJSON(p, &body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeBody(w, rtutil.ContentTypeJSON, rtutil.MarshalJSON, map[string]interface{}{"success": true})
		s.PresenceActions <- body.Action
		return
	}

	s.mtx.Lock()
	s.presenceQueries++
	body := map[string]interface{}{
		"success":             true,
		"other_party_present": s.present,
		"other_party_name":    s.presentName,
	}
	s.mtx.Unlock()
	writeBody(w, rtutil.ContentTypeJSON, rtutil.MarshalJSON, body)
}

func (s *Server) serveRefresh(w http.ResponseWriter, r *http.Request) {
	s.mtx.Lock()
	s.refreshes++
	s.mtx.Unlock()
	writeBody(w, rtutil.ContentTypeJSON, rtutil.MarshalJSON, map[string]interface{}{"success": true, "message": "refreshed"})
}

func writeBody(w http.ResponseWriter, contentType string, marshal func(interface{}) ([]byte, error), v interface{}) {
	p, err := marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Write(p)
}
