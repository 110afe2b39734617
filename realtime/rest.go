package realtime

import (
	"context"
	"net/http"

	"github.com/convitepro/realtime-go/realtime/internal/rtutil"
	"github.com/go-resty/resty/v2"
)

// rest issues the request/response calls of a Client: check-updates polls,
// presence updates and queries, and manual refresh.
type rest struct {
	client *resty.Client
	opts   *clientOptions
	log    logger
}

type checkUpdatesResponse struct {
	Success    bool                     `codec:"success"`
	HasUpdates bool                     `codec:"has_updates"`
	Updates    []map[string]interface{} `codec:"updates"`
	Error      string                   `codec:"error"`
}

type presenceRequest struct {
	UserID string `codec:"user_id"`
	Action string `codec:"action"`
}

type presenceResponse struct {
	Success           bool   `codec:"success"`
	OtherPartyPresent bool   `codec:"other_party_present"`
	OtherPartyName    string `codec:"other_party_name"`
}

const (
	presenceEnter = "enter"
	presenceLeave = "leave"
)

func newREST(opts *clientOptions, instanceID string, log logger) *rest {
	// resty shares the caller's http.Client; timeouts are applied per
	// request through the context so open streams on the same client are
	// not cut.
	client := resty.NewWithClient(opts.HTTPClient).
		SetLogger(log).
		SetHeader(requestedWithHeader, requestedWithXHR).
		SetHeader(agentHeader, agentIdentifier()).
		SetHeader(instanceHeader, instanceID)
	if opts.UseBinaryProtocol {
		client.SetHeader("Accept", protocolMsgpack+", "+protocolJSON+";q=0.9")
	} else {
		client.SetHeader("Accept", protocolJSON)
	}
	return &rest{client: client, opts: opts, log: log}
}

func (r *rest) request(ctx context.Context) *resty.Request {
	return r.client.R().SetContext(ctx)
}

func (r *rest) do(ctx context.Context, method, endpoint string, req *resty.Request, out interface{}) error {
	u, err := r.opts.resolve(endpoint)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, r.opts.RequestTimeout)
	defer cancel()
	req.SetContext(ctx)

	resp, err := req.Execute(method, u)
	if err != nil {
		return newError(ErrConnectionFailed, err)
	}
	contentType := resp.Header().Get("Content-Type")
	if err := checkValidHTTPResponse(resp.StatusCode(), contentType, resp.Body()); err != nil {
		return err
	}
	if out == nil || len(resp.Body()) == 0 {
		return nil
	}
	if err := rtutil.Unmarshal(contentType, resp.Body(), out); err != nil {
		return newError(ErrProtocolError, err)
	}
	return nil
}

// checkUpdates polls endpoint and returns the decoded updates. Entries that
// cannot be decoded are logged and skipped.
func (r *rest) checkUpdates(ctx context.Context, endpoint string) ([]*UpdateEvent, error) {
	var body checkUpdatesResponse
	if err := r.do(ctx, http.MethodGet, endpoint, r.request(ctx), &body); err != nil {
		return nil, err
	}
	if !body.Success {
		msg := body.Error
		if msg == "" {
			msg = "server reported failure"
		}
		return nil, newErrorf(ErrPollFailed, "%s", msg)
	}
	if !body.HasUpdates && len(body.Updates) == 0 {
		return nil, nil
	}
	updates := make([]*UpdateEvent, 0, len(body.Updates))
	for i, m := range body.Updates {
		u, err := updateFromMap(m, "")
		if err != nil {
			r.log.Warnf("Realtime Poll: dropping update %d: %v", i, err)
			continue
		}
		u.Source = SourcePoll
		updates = append(updates, u)
	}
	return updates, nil
}

// setPresence posts an enter or leave for userID.
func (r *rest) setPresence(ctx context.Context, endpoint, userID, action string) error {
	p, err := rtutil.MarshalJSON(presenceRequest{UserID: userID, Action: action})
	if err != nil {
		return newError(ErrInternalError, err)
	}
	req := r.request(ctx).
		SetHeader("Content-Type", protocolJSON).
		SetBody(p)
	if r.opts.CSRFToken != nil {
		if token := r.opts.CSRFToken(); token != "" {
			req.SetHeader(csrfHeader, token)
		}
	}
	if err := r.do(ctx, http.MethodPost, endpoint, req, nil); err != nil {
		return newError(ErrPresenceFailed, err)
	}
	return nil
}

// presence asks whether the other party of userID is present.
func (r *rest) presence(ctx context.Context, endpoint, userID string) (presenceResponse, error) {
	var body presenceResponse
	req := r.request(ctx).SetQueryParam("user_id", userID)
	if err := r.do(ctx, http.MethodGet, endpoint, req, &body); err != nil {
		return body, newError(ErrPresenceFailed, err)
	}
	return body, nil
}

func (r *rest) refresh(ctx context.Context, endpoint string) error {
	return r.do(ctx, http.MethodGet, endpoint, r.request(ctx), nil)
}
