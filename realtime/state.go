package realtime

import "time"

// ConnectionState describes the transport mode of a Client.
type ConnectionState struct {
	name string
}

var (
	// ConnectionStateDisconnected is the state of a client with no stream and
	// no poll timer, either before Start or after a failure or offline event.
	ConnectionStateDisconnected ConnectionState = ConnectionState{name: "DISCONNECTED"}
	// ConnectionStateConnecting is entered while the stream is being opened.
	ConnectionStateConnecting ConnectionState = ConnectionState{name: "CONNECTING"}
	// ConnectionStateConnected means updates arrive over the open stream.
	ConnectionStateConnected ConnectionState = ConnectionState{name: "CONNECTED"}
	// ConnectionStatePolling means updates are fetched from the check-updates
	// endpoint on a fixed interval.
	ConnectionStatePolling ConnectionState = ConnectionState{name: "POLLING"}
	// ConnectionStateClosed is terminal; the client was closed and will not
	// open another transport.
	ConnectionStateClosed ConnectionState = ConnectionState{name: "CLOSED"}
)

func (e ConnectionState) String() string {
	return e.name
}

// ConnectionEvent names a connection state change, or an update that left the
// state unchanged.
type ConnectionEvent struct {
	name string
}

func (ConnectionEvent) isEmitterEvent() {}

var (
	ConnectionEventDisconnected ConnectionEvent = ConnectionEvent(ConnectionStateDisconnected)
	ConnectionEventConnecting   ConnectionEvent = ConnectionEvent(ConnectionStateConnecting)
	ConnectionEventConnected    ConnectionEvent = ConnectionEvent(ConnectionStateConnected)
	ConnectionEventPolling      ConnectionEvent = ConnectionEvent(ConnectionStatePolling)
	ConnectionEventClosed       ConnectionEvent = ConnectionEvent(ConnectionStateClosed)
	// ConnectionEventUpdate is emitted when the state is unchanged but
	// something about it is, such as a new error reason.
	ConnectionEventUpdate ConnectionEvent = ConnectionEvent{name: "UPDATE"}
)

func (e ConnectionEvent) String() string {
	return e.name
}

// ConnectionStateChange is emitted on Client.Connection for every
// transition.
type ConnectionStateChange struct {
	Current  ConnectionState
	Event    ConnectionEvent
	Previous ConnectionState
	// Reason is the error that caused the change, if any.
	Reason *ErrorInfo
	// RetryIn is how long until the next stream attempt, when one is
	// scheduled.
	RetryIn time.Duration
	// Degraded is set once the reconnect budget is spent and the client
	// polls until the network comes back.
	Degraded bool
}

func (ConnectionStateChange) isEmitterData() {}

// ConnectionEventEmitter registers handlers for ConnectionStateChange
// events.
type ConnectionEventEmitter struct {
	emitter *eventEmitter
}

// On registers an event handler for connection events of a specific kind.
func (em ConnectionEventEmitter) On(e ConnectionEvent, handle func(ConnectionStateChange)) (off func()) {
	return em.emitter.On(e, func(change emitterData) {
		handle(change.(ConnectionStateChange))
	})
}

// OnAll registers an event handler for all connection events.
func (em ConnectionEventEmitter) OnAll(handle func(ConnectionStateChange)) (off func()) {
	return em.emitter.OnAll(func(change emitterData) {
		handle(change.(ConnectionStateChange))
	})
}

// Once registers an one-off event handler for connection events of a specific kind.
func (em ConnectionEventEmitter) Once(e ConnectionEvent, handle func(ConnectionStateChange)) (off func()) {
	return em.emitter.Once(e, func(change emitterData) {
		handle(change.(ConnectionStateChange))
	})
}

// OnceAll registers an one-off event handler for all connection events.
func (em ConnectionEventEmitter) OnceAll(handle func(ConnectionStateChange)) (off func()) {
	return em.emitter.OnceAll(func(change emitterData) {
		handle(change.(ConnectionStateChange))
	})
}

// Off deregisters event handlers for connection events of a specific kind.
func (em ConnectionEventEmitter) Off(e ConnectionEvent) {
	em.emitter.Off(e)
}

// OffAll deregisters all event handlers.
func (em ConnectionEventEmitter) OffAll() {
	em.emitter.OffAll()
}

// PresenceChange is emitted on Client.Presence whenever the other party's
// presence flips.
type PresenceChange struct {
	Present bool
	Name    string
	// Previous is the value before this change.
	Previous bool
}

func (PresenceChange) isEmitterData() {}

// presenceEvent is the single event key PresenceChange values are emitted
// under.
type presenceEvent struct{}

func (presenceEvent) isEmitterEvent() {}

// PresenceEventEmitter registers handlers for PresenceChange events.
type PresenceEventEmitter struct {
	emitter *eventEmitter
}

// On registers a handler for every presence edge.
func (em PresenceEventEmitter) On(handle func(PresenceChange)) (off func()) {
	return em.emitter.OnAll(func(change emitterData) {
		handle(change.(PresenceChange))
	})
}

// Once registers a handler for the next presence edge only.
func (em PresenceEventEmitter) Once(handle func(PresenceChange)) (off func()) {
	return em.emitter.OnceAll(func(change emitterData) {
		handle(change.(PresenceChange))
	})
}

// OffAll deregisters all presence handlers.
func (em PresenceEventEmitter) OffAll() {
	em.emitter.OffAll()
}
