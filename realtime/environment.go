package realtime

import "sync"

// EnvironmentEvent is a page lifecycle or network change the client reacts
// to.
type EnvironmentEvent int

const (
	EventHidden EnvironmentEvent = iota + 1
	EventVisible
	EventOffline
	EventOnline
	EventUnload
)

func (e EnvironmentEvent) String() string {
	switch e {
	case EventHidden:
		return "hidden"
	case EventVisible:
		return "visible"
	case EventOffline:
		return "offline"
	case EventOnline:
		return "online"
	case EventUnload:
		return "unload"
	default:
		return "unknown"
	}
}

// Environment is the page a Client runs on: where it is, whether the user
// can see it, whether the network is up, and the lifecycle events that
// change those.
type Environment interface {
	// Path is the URL path of the current page.
	Path() string
	// HasMarker reports whether the page carries the named marker
	// attribute.
	HasMarker(name string) bool
	Visible() bool
	Online() bool
	// Listen registers fn for every lifecycle event until off is called.
	Listen(fn func(EnvironmentEvent)) (off func())
}

// Page is an in-memory Environment. Events are delivered synchronously, in
// the goroutine that caused them.
type Page struct {
	mtx       sync.Mutex
	path      string
	markers   map[string]bool
	visible   bool
	online    bool
	nextID    int
	listeners map[int]func(EnvironmentEvent)
	order     []int
}

// NewPage returns a visible, online page at path carrying the given marker
// attributes.
func NewPage(path string, markers ...string) *Page {
	p := &Page{
		path:      path,
		markers:   make(map[string]bool, len(markers)),
		visible:   true,
		online:    true,
		listeners: make(map[int]func(EnvironmentEvent)),
	}
	for _, m := range markers {
		p.markers[m] = true
	}
	return p
}

func (p *Page) Path() string {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	return p.path
}

func (p *Page) HasMarker(name string) bool {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	return p.markers[name]
}

func (p *Page) Visible() bool {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	return p.visible
}

func (p *Page) Online() bool {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	return p.online
}

func (p *Page) Listen(fn func(EnvironmentEvent)) (off func()) {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	p.order = append(p.order, id)
	return func() {
		p.mtx.Lock()
		defer p.mtx.Unlock()
		delete(p.listeners, id)
	}
}

// SetVisible changes the page visibility, emitting EventVisible or
// EventHidden when it actually changes.
func (p *Page) SetVisible(visible bool) {
	p.mtx.Lock()
	changed := p.visible != visible
	p.visible = visible
	p.mtx.Unlock()
	if !changed {
		return
	}
	if visible {
		p.emit(EventVisible)
	} else {
		p.emit(EventHidden)
	}
}

// SetOnline changes network availability, emitting EventOnline or
// EventOffline when it actually changes.
func (p *Page) SetOnline(online bool) {
	p.mtx.Lock()
	changed := p.online != online
	p.online = online
	p.mtx.Unlock()
	if !changed {
		return
	}
	if online {
		p.emit(EventOnline)
	} else {
		p.emit(EventOffline)
	}
}

// Unload emits EventUnload, as a browser does when navigating away.
func (p *Page) Unload() {
	p.emit(EventUnload)
}

// Listeners returns the number of registered listeners.
func (p *Page) Listeners() int {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	return len(p.listeners)
}

func (p *Page) emit(e EnvironmentEvent) {
	p.mtx.Lock()
	var fns []func(EnvironmentEvent)
	live := p.order[:0]
	for _, id := range p.order {
		if fn, ok := p.listeners[id]; ok {
			fns = append(fns, fn)
			live = append(live, id)
		}
	}
	p.order = live
	p.mtx.Unlock()

	for _, fn := range fns {
		fn(e)
	}
}
