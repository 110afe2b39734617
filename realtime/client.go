package realtime

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/convitepro/realtime-go/realtime/internal/rtutil"
	"github.com/google/uuid"
)

// Client keeps a page up to date with a server resource. It reads a server
// push stream when it can, retries a failed stream with backoff, and falls
// back to polling the resource's check-updates endpoint once the retry
// budget is spent. Updates from either transport reach the same handlers.
//
// A Client does nothing until Start is called, and nothing after Close.
type Client struct {
	// Connection emits a ConnectionStateChange on every state transition.
	Connection ConnectionEventEmitter
	// Presence emits a PresenceChange whenever the other party arrives or
	// leaves.
	Presence PresenceEventEmitter

	resource   Resource
	env        Environment
	opts       *clientOptions
	log        logger
	rest       *rest
	metrics    *metrics
	dial       DialFunc
	instanceID string

	connEmitter     *eventEmitter
	presenceEmitter *eventEmitter
	updates         *eventEmitter
	notices         *eventEmitter

	// ctx lives until Close; it parents requests not tied to a transport.
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mtx         sync.Mutex
	afterUnlock []func()

	started     bool
	closed      bool
	state       ConnectionState
	errorReason *ErrorInfo
	attempts    int
	degraded    bool

	// gen identifies the current stream; callbacks from older streams are
	// dropped.
	gen          uint64
	conn         StreamConn
	streamCancel context.CancelFunc
	lastEventID  string
	serverRetry  time.Duration

	retrySeq    uint64
	retryCancel context.CancelFunc

	polling    bool
	pollGen    uint64
	pollCancel context.CancelFunc

	presenceCancel  context.CancelFunc
	presenceEntered bool
	presence        presenceTracker

	envOff func()
	subs   map[*Subscription]struct{}

	lastUpdateAt    time.Time
	lastHeartbeatAt time.Time
}

// NewClient returns a client following resource on env. Settings in options
// take precedence over the resource's own.
func NewClient(resource Resource, env Environment, options ...ClientOption) (*Client, error) {
	opts := applyOptionsWithDefaults(options...)
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if env == nil {
		return nil, newErrorf(ErrBadRequest, "an environment is required")
	}
	resource = resource.withOverrides(opts)
	if err := resource.Validate(); err != nil {
		return nil, err
	}

	log := opts.logger()
	instanceID := opts.InstanceID
	if instanceID == "" {
		instanceID = uuid.NewString()
	}
	m, err := newMetrics(opts.Metrics, resource)
	if err != nil {
		return nil, newError(ErrInternalError, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		resource:        resource,
		env:             env,
		opts:            opts,
		log:             log,
		rest:            newREST(opts, instanceID, log),
		metrics:         m,
		dial:            opts.dialer(),
		instanceID:      instanceID,
		connEmitter:     newEventEmitter(log),
		presenceEmitter: newEventEmitter(log),
		updates:         newEventEmitter(log),
		notices:         newEventEmitter(log),
		ctx:             ctx,
		cancel:          cancel,
		state:           ConnectionStateDisconnected,
		subs:            make(map[*Subscription]struct{}),
	}
	c.Connection = ConnectionEventEmitter{emitter: c.connEmitter}
	c.Presence = PresenceEventEmitter{emitter: c.presenceEmitter}
	if n := opts.Notifier; n != nil {
		c.notices.OnAll(func(e emitterData) {
			n.Notify(e.(Notification))
		})
	}
	return c, nil
}

func (r Resource) withOverrides(opts *clientOptions) Resource {
	if opts.PollInterval > 0 {
		r.PollInterval = opts.PollInterval
	}
	if opts.PresenceInterval > 0 {
		r.PresenceInterval = opts.PresenceInterval
	}
	if opts.MaxReconnectAttempts != nil {
		r.MaxReconnectAttempts = *opts.MaxReconnectAttempts
	} else if r.MaxReconnectAttempts == 0 {
		r.MaxReconnectAttempts = defaultMaxReconnectAttempts
	}
	if opts.Backoff != nil {
		r.Backoff = opts.Backoff
	}
	if r.PollInterval == 0 {
		r.PollInterval = defaultPollInterval
	}
	if r.PresenceInterval == 0 {
		r.PresenceInterval = defaultPresenceInterval
	}
	if r.Backoff == nil {
		r.Backoff = defaultBackoff
	}
	return r
}

func (c *Client) lock() {
	c.mtx.Lock()
}

// unlock releases the client and then runs whatever was deferred with
// runAfterUnlock, in order.
func (c *Client) unlock() {
	fns := c.afterUnlock
	c.afterUnlock = nil
	c.mtx.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func (c *Client) runAfterUnlock(fn func()) {
	c.afterUnlock = append(c.afterUnlock, fn)
}

func (c *Client) goTracked(fn func()) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		fn()
	}()
}

// Start connects the client if the page is one the resource belongs on;
// otherwise it does nothing and makes no requests. Calling Start again is a
// no-op.
func (c *Client) Start() {
	if !c.resource.Matches(c.env) {
		c.log.Debugf("Realtime: %s does not belong on %q; not starting", c.resource, c.env.Path())
		return
	}
	c.lock()
	defer c.unlock()
	if c.closed || c.started {
		return
	}
	c.startLocked()
}

func (c *Client) startLocked() {
	if c.envOff == nil {
		c.envOff = c.env.Listen(c.onEnvironment)
	}
	c.started = true
	if !c.env.Online() {
		c.log.Infof("Realtime: network offline; waiting to connect")
		c.setStateLocked(ConnectionStateDisconnected, newErrorf(ErrDisconnected, "network offline"), 0)
		return
	}
	if c.resource.hasPresence() {
		c.enterPresenceLocked()
		if c.env.Visible() {
			c.startPresenceTimerLocked()
		}
	}
	if c.streamAvailable() {
		c.connectStreamLocked()
	} else {
		c.startPollingLocked()
	}
}

func (c *Client) streamAvailable() bool {
	return c.resource.hasStream() && c.opts.Transport != TransportNone
}

// connectStreamLocked tears down any current transport and opens the stream.
func (c *Client) connectStreamLocked() {
	c.cancelRetryLocked()
	c.closeStreamLocked()
	c.gen++
	gen := c.gen

	u, err := c.opts.resolve(c.resource.Endpoints.Stream)
	if err != nil {
		c.handleStreamFailureLocked(err)
		return
	}
	header := http.Header{}
	header.Set(agentHeader, agentIdentifier())
	header.Set(instanceHeader, c.instanceID)
	header.Set(requestedWithHeader, requestedWithXHR)
	if c.lastEventID != "" {
		header.Set(lastEventIDHeader, c.lastEventID)
	}

	ctx, cancel := context.WithCancel(c.ctx)
	c.streamCancel = cancel
	c.setStateLocked(ConnectionStateConnecting, nil, 0)
	c.log.Verbosef("Realtime Stream: dialing %s (attempt %d)", u, c.attempts+1)

	dial := c.dial
	c.goTracked(func() {
		conn, err := dial(ctx, u, header)
		c.onDialed(ctx, gen, conn, err)
	})
}

func (c *Client) onDialed(ctx context.Context, gen uint64, conn StreamConn, err error) {
	c.lock()
	if c.closed || gen != c.gen {
		c.unlock()
		if conn != nil {
			conn.Close()
		}
		return
	}
	if err != nil {
		c.log.Warnf("Realtime Stream: failed to connect: %v", err)
		c.handleStreamFailureLocked(err)
		c.unlock()
		return
	}
	if c.log.l.Is(LogVerbose) {
		conn = verboseConn{conn: conn, logger: c.log}
	}
	c.conn = conn
	c.attempts = 0
	c.degraded = false
	c.metrics.connected()
	c.stopPollingLocked()
	c.setStateLocked(ConnectionStateConnected, nil, 0)
	c.dispatchLocked(&UpdateEvent{
		Kind:   KindConnected,
		Data:   map[string]interface{}{},
		Source: SourceClient,
	})
	c.unlock()

	c.readLoop(ctx, gen, conn)
}

func (c *Client) readLoop(ctx context.Context, gen uint64, conn StreamConn) {
	var timedOut atomic.Bool
	alive := make(chan struct{}, 1)
	if c.opts.StaleTimeout > 0 {
		watchCtx, stopWatch := context.WithCancel(ctx)
		defer stopWatch()
		go c.watchStale(watchCtx, conn, alive, &timedOut)
	}

	for {
		f, err := conn.Receive(ctx)
		if err != nil {
			if timedOut.Load() {
				err = newErrorf(ErrConnectionTimedOut, "no stream activity for %v", c.opts.StaleTimeout)
			}
			c.onStreamError(gen, err)
			return
		}
		select {
		case alive <- struct{}{}:
		default:
		}
		if err := c.handleFrame(gen, f); err != nil {
			c.onStreamError(gen, err)
			return
		}
	}
}

// watchStale closes conn when no frame arrived for StaleTimeout.
func (c *Client) watchStale(ctx context.Context, conn StreamConn, alive <-chan struct{}, timedOut *atomic.Bool) {
	for {
		timerCtx, cancel := context.WithCancel(ctx)
		select {
		case <-alive:
			cancel()
		case _, ok := <-c.opts.After(timerCtx, c.opts.StaleTimeout):
			cancel()
			if !ok {
				return
			}
			c.log.Warnf("Realtime Stream: no activity for %v; closing", c.opts.StaleTimeout)
			timedOut.Store(true)
			conn.Close()
			return
		}
	}
}

// handleFrame processes one stream frame. A non-nil error means the stream
// must be treated as failed.
func (c *Client) handleFrame(gen uint64, f *StreamFrame) error {
	c.lock()
	if f.ID != "" {
		c.lastEventID = f.ID
	}
	if f.Retry > 0 {
		c.serverRetry = f.Retry
	}
	c.unlock()
	if f.Comment {
		return nil
	}

	u, err := decodeUpdate(f.contentType(), f.Data, f.Event)
	if err != nil {
		c.log.Warnf("Realtime Stream: dropping malformed event %q: %v", f.Event, err)
		return nil
	}
	u.ID = f.ID
	u.Source = SourceStream
	if !c.handleUpdate(u, func() bool { return c.gen == gen }) {
		return nil
	}

	switch {
	case u.Kind == KindDisconnected:
		return newErrorf(ErrDisconnected, "server closed the stream: %s", u.Message)
	case u.Kind == KindError && u.Retry:
		return newErrorf(ErrDisconnected, "server error: %s", u.Message)
	}
	return nil
}

// handleUpdate runs the bookkeeping and dispatch shared by every transport.
// live is checked under the client lock; when it reports false the update
// belongs to a transport that was torn down and is dropped. It returns
// whether the update was dispatched.
func (c *Client) handleUpdate(u *UpdateEvent, live func() bool) bool {
	c.lock()
	defer c.unlock()
	if c.closed || !live() {
		return false
	}
	if u.Kind == KindHeartbeat {
		c.lastHeartbeatAt = c.opts.Now()
		c.log.Debugf("Realtime: heartbeat from %s", u.Source)
		return false
	}
	if !u.Kind.Known() {
		c.log.Infof("Realtime: ignoring update of unknown kind %q", u.Kind)
		return false
	}
	c.lastUpdateAt = c.opts.Now()
	if u.Kind == KindPresence {
		c.observePresenceLocked(u.Bool("other_party_present"), u.Text("other_party_name"))
	}
	c.dispatchLocked(u)
	return true
}

func (c *Client) dispatchLocked(u *UpdateEvent) {
	c.metrics.update(u)
	n := c.updates.Emit(u.Kind, u)
	for s := range c.subs {
		if s.push(u) {
			n++
		}
	}
	if n == 0 {
		c.log.Debugf("Realtime: no handler for %s", u)
	}
}

func (c *Client) onStreamError(gen uint64, err error) {
	c.lock()
	defer c.unlock()
	if c.closed || gen != c.gen {
		return
	}
	c.log.Warnf("Realtime Stream: lost: %v", err)
	c.handleStreamFailureLocked(err)
}

// handleStreamFailureLocked counts a failure and either schedules another
// stream attempt or, once the budget is spent, settles on polling until the
// network comes back.
func (c *Client) handleStreamFailureLocked(reason error) {
	c.closeStreamLocked()
	c.attempts++
	c.metrics.failed(c.attempts)
	info := newError(ErrDisconnected, reason)

	if c.attempts < c.resource.MaxReconnectAttempts {
		delay := c.resource.Backoff.Delay(c.attempts)
		if c.serverRetry > delay {
			delay = c.serverRetry
		}
		c.setStateLocked(ConnectionStateDisconnected, info, delay)
		c.scheduleRetryLocked(delay)
		return
	}

	c.degraded = true
	c.log.Warnf("Realtime Stream: giving up after %d attempts; polling every %v", c.attempts, c.resource.PollInterval)
	c.setStateLocked(ConnectionStateDisconnected, newError(ErrReconnectAttemptsExhausted, reason), 0)
	c.notifyLocked(Notification{
		Kind:    NoticeDegraded,
		Level:   LevelWarning,
		Message: "Live updates are unavailable; checking for updates periodically.",
	})
	c.startPollingLocked()
}

func (c *Client) scheduleRetryLocked(delay time.Duration) {
	c.cancelRetryLocked()
	c.retrySeq++
	seq := c.retrySeq
	ctx, cancel := context.WithCancel(c.ctx)
	c.retryCancel = cancel
	c.log.Infof("Realtime Stream: retrying in %v (attempt %d of %d)", delay, c.attempts+1, c.resource.MaxReconnectAttempts)

	c.goTracked(func() {
		if _, ok := <-c.opts.After(ctx, delay); !ok {
			return
		}
		c.lock()
		defer c.unlock()
		if c.closed || seq != c.retrySeq || c.retryCancel == nil {
			return
		}
		c.retryCancel = nil
		cancel()
		c.connectStreamLocked()
	})
}

func (c *Client) cancelRetryLocked() {
	if c.retryCancel != nil {
		c.retryCancel()
		c.retryCancel = nil
	}
}

// closeStreamLocked drops the current stream, if any. The handle is closed
// once the lock is released.
func (c *Client) closeStreamLocked() {
	c.gen++
	if c.streamCancel != nil {
		c.streamCancel()
		c.streamCancel = nil
	}
	if conn := c.conn; conn != nil {
		c.conn = nil
		c.runAfterUnlock(func() {
			if err := conn.Close(); err != nil {
				c.log.Debugf("Realtime Stream: close: %v", err)
			}
		})
	}
}

// startPollingLocked switches to polling. It is a no-op while already
// polling.
func (c *Client) startPollingLocked() {
	if c.polling {
		return
	}
	c.cancelRetryLocked()
	c.closeStreamLocked()
	c.polling = true
	var reason error
	if c.errorReason != nil {
		reason = c.errorReason
	}
	c.setStateLocked(ConnectionStatePolling, reason, 0)
	if c.env.Visible() {
		c.resumePollingLocked()
	}
}

// resumePollingLocked polls once right away and then on every interval.
func (c *Client) resumePollingLocked() {
	if c.pollCancel != nil {
		return
	}
	c.pollGen++
	gen := c.pollGen
	ctx, cancel := context.WithCancel(c.ctx)
	c.pollCancel = cancel

	c.goTracked(func() {
		c.poll(ctx, gen)
		for range rtutil.NewTicker(c.opts.After)(ctx, c.resource.PollInterval) {
			c.poll(ctx, gen)
		}
	})
}

func (c *Client) pausePollingLocked() {
	if c.pollCancel != nil {
		c.pollCancel()
		c.pollCancel = nil
		c.pollGen++
	}
}

func (c *Client) stopPollingLocked() {
	c.pausePollingLocked()
	c.polling = false
}

func (c *Client) poll(ctx context.Context, gen uint64) {
	updates, err := c.rest.checkUpdates(ctx, c.resource.Endpoints.CheckUpdates)
	if err != nil {
		if ctx.Err() == nil {
			c.log.Warnf("Realtime Poll: %v", err)
			c.metrics.polled(pollResultError)
		}
		return
	}
	c.metrics.polled(pollResultOK)
	for _, u := range updates {
		c.handleUpdate(u, func() bool { return c.pollGen == gen })
	}
}

// Refresh asks the server to recompute the resource, if it has a refresh
// endpoint, and then checks for updates once. Updates are dispatched like
// any other.
func (c *Client) Refresh(ctx context.Context) error {
	c.lock()
	closed := c.closed
	c.unlock()
	if closed {
		return newErrorf(ErrConnectionClosed, "client is closed")
	}
	if ep := c.resource.Endpoints.Refresh; !rtutil.Empty(ep) {
		if err := c.rest.refresh(ctx, ep); err != nil {
			return err
		}
	}
	updates, err := c.rest.checkUpdates(ctx, c.resource.Endpoints.CheckUpdates)
	if err != nil {
		return err
	}
	for _, u := range updates {
		c.handleUpdate(u, func() bool { return true })
	}
	return nil
}

func (c *Client) onEnvironment(e EnvironmentEvent) {
	if e == EventUnload {
		c.log.Debugf("Realtime: page unloading")
		c.Close()
		return
	}

	c.lock()
	defer c.unlock()
	if c.closed {
		return
	}
	c.log.Debugf("Realtime: page %s in state %s", e, c.state)

	switch e {
	case EventHidden:
		c.pausePollingLocked()
		c.stopPresenceTimerLocked()

	case EventVisible:
		if !c.env.Online() {
			return
		}
		switch {
		case c.polling:
			c.resumePollingLocked()
		case c.state == ConnectionStateDisconnected && !c.degraded && c.streamAvailable():
			c.connectStreamLocked()
		}
		if c.resource.hasPresence() {
			c.startPresenceTimerLocked()
			c.enterPresenceLocked()
		}

	case EventOffline:
		c.cancelRetryLocked()
		c.closeStreamLocked()
		c.stopPollingLocked()
		c.stopPresenceTimerLocked()
		c.setStateLocked(ConnectionStateDisconnected, newErrorf(ErrDisconnected, "network offline"), 0)
		c.notifyLocked(Notification{
			Kind:    NoticeOffline,
			Level:   LevelError,
			Message: "You are offline. Updates resume when the connection is back.",
		})

	case EventOnline:
		c.attempts = 0
		c.degraded = false
		c.metrics.reconnectAttemptsReset()
		c.cancelRetryLocked()
		c.stopPollingLocked()
		c.stopPresenceTimerLocked()
		c.startLocked()
	}
}

// Close stops the client: it closes the stream, stops every timer, tells the
// server the viewer left and closes all subscriptions. Once Close returns no
// update handler is started; a handler already running when Close is called
// may still be finishing. Close is safe to call more than once and in any
// state, including from a handler or a Notifier.
func (c *Client) Close() {
	c.lock()
	if c.closed {
		c.unlock()
		return
	}
	c.closed = true
	c.cancelRetryLocked()
	c.closeStreamLocked()
	c.stopPollingLocked()
	c.stopPresenceTimerLocked()
	leave := c.presenceEntered
	c.presenceEntered = false
	envOff := c.envOff
	c.envOff = nil
	subs := c.subs
	c.subs = map[*Subscription]struct{}{}
	c.updates.close()
	c.presenceEmitter.close()
	c.setStateLocked(ConnectionStateClosed, nil, 0)
	c.unlock()

	if envOff != nil {
		envOff()
	}
	for s := range subs {
		s.close()
	}
	if leave {
		c.leavePresence()
	}
	c.cancel()
	c.wg.Wait()
	c.log.Debugf("Realtime: closed")
}

func (c *Client) setStateLocked(state ConnectionState, err error, retryIn time.Duration) {
	previous := c.state
	changed := previous != state
	c.state = state
	c.errorReason = nil
	if err != nil {
		c.errorReason = newError(ErrNotSet, err)
	}
	change := ConnectionStateChange{
		Current:  state,
		Previous: previous,
		Reason:   c.errorReason,
		RetryIn:  retryIn,
		Degraded: c.degraded,
	}
	if changed {
		change.Event = ConnectionEvent(state)
		c.log.Infof("Realtime Connection: %s -> %s", previous, state)
	} else {
		change.Event = ConnectionEventUpdate
	}
	c.metrics.setState(state)
	c.connEmitter.Emit(change.Event, change)
}

// notifyLocked queues n for the notifier. The notifier runs on the
// emitter's goroutines, outside the ones Close waits for, so it may call
// back into the client.
func (c *Client) notifyLocked(n Notification) {
	c.notices.Emit(n.Kind, n)
}

// On registers handle for updates of the given kind. Each handler receives
// updates one at a time, in arrival order.
func (c *Client) On(kind UpdateKind, handle func(*UpdateEvent)) (off func()) {
	return c.updates.On(kind, func(e emitterData) {
		handle(e.(*UpdateEvent))
	})
}

// OnAll registers handle for updates of every kind.
func (c *Client) OnAll(handle func(*UpdateEvent)) (off func()) {
	return c.updates.OnAll(func(e emitterData) {
		handle(e.(*UpdateEvent))
	})
}

// Once is like On, except the handler is removed after the first update.
func (c *Client) Once(kind UpdateKind, handle func(*UpdateEvent)) (off func()) {
	return c.updates.Once(kind, func(e emitterData) {
		handle(e.(*UpdateEvent))
	})
}

// OnceAll is like OnAll, except the handler is removed after the first
// update.
func (c *Client) OnceAll(handle func(*UpdateEvent)) (off func()) {
	return c.updates.OnceAll(func(e emitterData) {
		handle(e.(*UpdateEvent))
	})
}

// Off removes every handler registered with On or Once for kind.
func (c *Client) Off(kind UpdateKind) {
	c.updates.Off(kind)
}

// OffAll removes every update handler.
func (c *Client) OffAll() {
	c.updates.OffAll()
}

// Subscribe returns a Subscription receiving updates of the given kinds, or
// of every kind when none is given.
func (c *Client) Subscribe(kinds ...UpdateKind) *Subscription {
	s := newSubscription(kinds)
	c.lock()
	defer c.unlock()
	if c.closed {
		s.close()
		return s
	}
	c.subs[s] = struct{}{}
	s.unsubscribe = func() {
		c.lock()
		defer c.unlock()
		delete(c.subs, s)
	}
	return s
}

func (c *Client) State() ConnectionState {
	c.lock()
	defer c.unlock()
	return c.state
}

// ErrorReason returns the error behind the last state change, if any.
func (c *Client) ErrorReason() *ErrorInfo {
	c.lock()
	defer c.unlock()
	return c.errorReason
}

// ReconnectAttempts returns the number of stream failures since the stream
// was last open.
func (c *Client) ReconnectAttempts() int {
	c.lock()
	defer c.unlock()
	return c.attempts
}

// Degraded reports whether the client gave up on the stream and polls until
// the network comes back.
func (c *Client) Degraded() bool {
	c.lock()
	defer c.unlock()
	return c.degraded
}

// LastUpdateAt returns when the last content update was dispatched.
// Heartbeats do not count.
func (c *Client) LastUpdateAt() time.Time {
	c.lock()
	defer c.unlock()
	return c.lastUpdateAt
}

func (c *Client) LastHeartbeatAt() time.Time {
	c.lock()
	defer c.unlock()
	return c.lastHeartbeatAt
}

func (c *Client) OtherPartyPresent() bool {
	c.lock()
	defer c.unlock()
	return c.presence.present
}

func (c *Client) Resource() Resource {
	return c.resource
}

// InstanceID is the value sent in the X-Client-Instance header.
func (c *Client) InstanceID() string {
	return c.instanceID
}
