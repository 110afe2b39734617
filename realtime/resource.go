package realtime

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/convitepro/realtime-go/realtime/internal/rtutil"
)

// ResourceKind tags which page a Resource belongs to.
type ResourceKind string

const (
	ResourceDashboard ResourceKind = "dashboard"
	ResourcePreOrder  ResourceKind = "pre_order"
	ResourceInvite    ResourceKind = "invite"
	ResourceCustom    ResourceKind = "custom"
)

// Endpoints are the server paths a Resource talks to. They are resolved
// against the client base URL. Only CheckUpdates is required.
type Endpoints struct {
	// Stream is the server-push endpoint. Empty means poll only.
	Stream string
	// CheckUpdates returns {success, has_updates, updates[]}.
	CheckUpdates string
	// Presence accepts enter/leave POSTs and answers presence GETs.
	Presence string
	// Refresh asks the server to recompute its data before the next poll.
	Refresh string
}

// Resource describes what a Client follows and how: its endpoints, the page
// it belongs on and the timing of its transports.
type Resource struct {
	Kind     ResourceKind
	ID       string
	ViewerID string
	Role     string

	Endpoints Endpoints

	// PathPatterns and Marker make up the page guard: the client only
	// starts when the page path contains one of the patterns or the page
	// carries the marker.
	PathPatterns []string
	Marker       string

	PollInterval         time.Duration
	PresenceInterval     time.Duration
	MaxReconnectAttempts int
	Backoff              BackoffPolicy
}

const (
	defaultPollInterval         = 30 * time.Second
	defaultPresenceInterval     = 60 * time.Second
	defaultMaxReconnectAttempts = 5
)

// DashboardResource follows the client or provider dashboard of the signed
// in user.
func DashboardResource(role string) Resource {
	return Resource{
		Kind: ResourceDashboard,
		Role: role,
		Endpoints: Endpoints{
			Stream:       "/realtime/dashboard/stream",
			CheckUpdates: "/realtime/dashboard/check-updates",
			Refresh:      "/realtime/dashboard/refresh",
		},
		PathPatterns:         []string{"/cliente/dashboard", "/prestador/dashboard"},
		Marker:               "data-dashboard-realtime",
		PollInterval:         defaultPollInterval,
		MaxReconnectAttempts: defaultMaxReconnectAttempts,
		Backoff:              LinearBackoff{Base: 2 * time.Second},
	}
}

// PreOrderResource follows a pre-order negotiation, including whether the
// other party is looking at it.
func PreOrderResource(id, userID, role string) Resource {
	base := "/pre-ordem/" + url.PathEscape(id)
	q := url.Values{}
	q.Set("user_id", userID)
	q.Set("role", role)
	return Resource{
		Kind:     ResourcePreOrder,
		ID:       id,
		ViewerID: userID,
		Role:     role,
		Endpoints: Endpoints{
			Stream:       base + "/stream?" + q.Encode(),
			CheckUpdates: base + "/check-updates",
			Presence:     base + "/presenca",
		},
		PathPatterns:         []string{"/pre-ordem/"},
		Marker:               "data-pre-order-id",
		PollInterval:         defaultPollInterval,
		PresenceInterval:     defaultPresenceInterval,
		MaxReconnectAttempts: defaultMaxReconnectAttempts,
		Backoff:              ExponentialBackoff{Base: time.Second, Max: 30 * time.Second},
	}
}

// InviteResource polls the proposal status of an invite. The server has no
// stream for invites.
func InviteResource(id string) Resource {
	return Resource{
		Kind: ResourceInvite,
		ID:   id,
		Endpoints: Endpoints{
			CheckUpdates: "/convite/" + url.PathEscape(id) + "/status-updates",
		},
		PathPatterns:         []string{"/convite/"},
		Marker:               "data-proposal-status",
		PollInterval:         10 * time.Second,
		MaxReconnectAttempts: defaultMaxReconnectAttempts,
		Backoff:              defaultBackoff,
	}
}

// Validate reports configuration errors as an *ErrorInfo with code
// ErrInvalidResource.
func (r Resource) Validate() error {
	var errs []error
	if rtutil.Empty(r.Endpoints.CheckUpdates) {
		errs = append(errs, errors.New("check-updates endpoint is required"))
	}
	if r.MaxReconnectAttempts < 0 {
		errs = append(errs, errors.New("max reconnect attempts must not be negative"))
	}
	if r.PollInterval < 0 || r.PresenceInterval < 0 {
		errs = append(errs, errors.New("intervals must not be negative"))
	}
	switch r.Kind {
	case ResourcePreOrder, ResourceInvite:
		if rtutil.Empty(r.ID) {
			errs = append(errs, errors.New(string(r.Kind)+" resource needs an id"))
		}
	}
	if r.Kind == ResourcePreOrder && rtutil.Empty(r.ViewerID) {
		errs = append(errs, errors.New("pre-order resource needs a viewer id"))
	}
	if len(errs) > 0 {
		return newError(ErrInvalidResource, errors.Join(errs...))
	}
	return nil
}

// Matches reports whether env is a page this resource belongs on.
func (r Resource) Matches(env Environment) bool {
	if env == nil {
		return false
	}
	if rtutil.ContainsAny(env.Path(), r.PathPatterns) {
		return true
	}
	return r.Marker != "" && env.HasMarker(r.Marker)
}

func (r Resource) hasStream() bool {
	return !rtutil.Empty(r.Endpoints.Stream)
}

func (r Resource) hasPresence() bool {
	return !rtutil.Empty(r.Endpoints.Presence)
}

func (r Resource) String() string {
	var b strings.Builder
	b.WriteString(string(r.Kind))
	if r.ID != "" {
		b.WriteString(":")
		b.WriteString(r.ID)
	}
	return b.String()
}
