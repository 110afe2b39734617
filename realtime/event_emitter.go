package realtime

import (
	"runtime/debug"
	"sync"
)

// eventEmitter delivers events to registered handlers. Each handler runs on
// its own goroutine and sees its events one at a time, in the order they were
// emitted; emitting never blocks on a handler.
type eventEmitter struct {
	sync.Mutex
	listeners listenersForEvent
	closed    bool
	log       logger
}

type emitterEvent interface {
	isEmitterEvent()
}

type emitterData interface {
	isEmitterData()
}

// listenersForEvent keeps handlers in registration order, keyed by event; the
// nil key holds the handlers for every event.
type listenersForEvent map[emitterEvent][]*eventListener

type eventListener struct {
	handler func(emitterData)
	once    bool
	em      *eventEmitter

	queueMtx sync.Mutex
	queue    []emitterData
}

func (l *eventListener) handle(e emitterData) {
	// The goroutine that finds the queue empty starts a drainer; everyone
	// else only enqueues.
	l.queueMtx.Lock()
	isBusy := len(l.queue) > 0
	l.queue = append(l.queue, e)
	l.queueMtx.Unlock()

	if isBusy {
		return
	}

	go func() {
		done := false
		for !done {
			l.queueMtx.Lock()
			e := l.queue[0]
			l.queueMtx.Unlock()

			if !l.em.isClosed() {
				safeHandle(e, l.handler, l.em.log)
			}

			l.queueMtx.Lock()
			l.queue = l.queue[1:]
			done = len(l.queue) == 0
			l.queueMtx.Unlock()
		}
	}()
}

func safeHandle(e emitterData, handle func(emitterData), log logger) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		log.Errorf("EventEmitter: panic in event handler: %v\n%s", r, debug.Stack())
	}()

	handle(e)
}

func newEventEmitter(log logger) *eventEmitter {
	return &eventEmitter{
		listeners: listenersForEvent{},
		log:       log,
	}
}

// On registers handle for event. Registering the same function twice makes
// it run twice per event.
func (em *eventEmitter) On(event emitterEvent, handle func(emitterData)) (off func()) {
	return em.on(event, handle, false)
}

// OnAll registers handle for every event.
func (em *eventEmitter) OnAll(handle func(emitterData)) (off func()) {
	return em.on(nil, handle, false)
}

// Once is like On, except the handler is removed once first triggered.
func (em *eventEmitter) Once(event emitterEvent, handle func(emitterData)) (off func()) {
	return em.on(event, handle, true)
}

// OnceAll is like OnAll, except the handler is removed once first triggered.
func (em *eventEmitter) OnceAll(handle func(emitterData)) (off func()) {
	return em.on(nil, handle, true)
}

func (em *eventEmitter) on(event emitterEvent, handle func(emitterData), once bool) (off func()) {
	em.Lock()
	defer em.Unlock()

	l := &eventListener{
		handler: handle,
		once:    once,
		em:      em,
	}
	if em.closed {
		return func() {}
	}
	em.listeners[event] = append(em.listeners[event], l)

	return func() {
		em.Lock()
		defer em.Unlock()
		em.remove(event, l)
	}
}

// remove must be called with em locked.
func (em *eventEmitter) remove(event emitterEvent, l *eventListener) {
	listeners := em.listeners[event]
	for i, other := range listeners {
		if other == l {
			em.listeners[event] = append(listeners[:i:i], listeners[i+1:]...)
			return
		}
	}
}

// Off removes all listeners for the given event.
func (em *eventEmitter) Off(event emitterEvent) {
	em.Lock()
	defer em.Unlock()
	if event != nil {
		delete(em.listeners, event)
	}
}

// OffAll removes every listener.
func (em *eventEmitter) OffAll() {
	em.Lock()
	defer em.Unlock()
	em.listeners = listenersForEvent{}
}

// Emit queues data for every handler registered for event and for all
// events. It returns how many handlers were queued. A panicking handler is
// logged and does not affect the others.
func (em *eventEmitter) Emit(event emitterEvent, data emitterData) int {
	// Collect the handlers under the lock and call them outside it, so they
	// can call back into the emitter.
	listeners := em.listenersForEvent(event)
	for _, l := range listeners {
		l.handle(data)
	}
	return len(listeners)
}

func (em *eventEmitter) listenersForEvent(event emitterEvent) (listeners []*eventListener) {
	em.Lock()
	defer em.Unlock()

	if em.closed {
		return nil
	}

	keys := []emitterEvent{nil}
	if event != nil {
		keys = append(keys, event)
	}
	for _, key := range keys {
		for _, l := range em.listeners[key] {
			listeners = append(listeners, l)
			if l.once {
				em.remove(key, l)
			}
		}
	}
	return listeners
}

// close drops every listener and stops delivery of anything still queued.
func (em *eventEmitter) close() {
	em.Lock()
	defer em.Unlock()
	em.closed = true
	em.listeners = listenersForEvent{}
}

func (em *eventEmitter) isClosed() bool {
	em.Lock()
	defer em.Unlock()
	return em.closed
}
