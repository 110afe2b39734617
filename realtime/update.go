package realtime

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/convitepro/realtime-go/realtime/internal/rtutil"
	"github.com/shopspring/decimal"
)

// UpdateKind is the type of an UpdateEvent.
type UpdateKind string

func (UpdateKind) isEmitterEvent() {}

func (k UpdateKind) String() string {
	return string(k)
}

const (
	KindStatusChange     UpdateKind = "status_change"
	KindBalanceUpdated   UpdateKind = "balance_updated"
	KindProposalReceived UpdateKind = "proposal_received"
	KindProposalAccepted UpdateKind = "proposal_accepted"
	KindProposalRejected UpdateKind = "proposal_rejected"
	KindOrderCreated     UpdateKind = "order_created"
	KindPresence         UpdateKind = "presence"
	KindHeartbeat        UpdateKind = "heartbeat"
	KindError            UpdateKind = "error"
	KindDisconnected     UpdateKind = "disconnected"

	// KindConnected is dispatched by the client itself each time the stream
	// opens.
	KindConnected UpdateKind = "connected"

	KindOrdersUpdated         UpdateKind = "orders_updated"
	KindOrderStatusChanged    UpdateKind = "order_status_changed"
	KindMutualAcceptance      UpdateKind = "mutual_acceptance"
	KindProposalStatusChanged UpdateKind = "proposal_status_changed"
	KindNewNotification       UpdateKind = "new_notification"
	KindInviteExpired         UpdateKind = "invite_expired"
)

var knownKinds = map[UpdateKind]struct{}{
	KindStatusChange:          {},
	KindBalanceUpdated:        {},
	KindProposalReceived:      {},
	KindProposalAccepted:      {},
	KindProposalRejected:      {},
	KindOrderCreated:          {},
	KindPresence:              {},
	KindHeartbeat:             {},
	KindError:                 {},
	KindDisconnected:          {},
	KindConnected:             {},
	KindOrdersUpdated:         {},
	KindOrderStatusChanged:    {},
	KindMutualAcceptance:      {},
	KindProposalStatusChanged: {},
	KindNewNotification:       {},
	KindInviteExpired:         {},
}

// Known reports whether k is one of the kinds the client dispatches.
func (k UpdateKind) Known() bool {
	_, ok := knownKinds[k]
	return ok
}

// UpdateSource tells which transport carried an update.
type UpdateSource string

const (
	SourceStream UpdateSource = "stream"
	SourcePoll   UpdateSource = "poll"
	SourceClient UpdateSource = "client"
)

// UpdateEvent is one update pushed by the server or returned by a poll.
// Handlers get the same shape from either transport.
type UpdateEvent struct {
	Kind    UpdateKind
	Data    map[string]interface{}
	Message string
	// Retry is set on error events the server expects the client to recover
	// from by reconnecting.
	Retry bool
	// ServerTimestamp is zero when the server sent none.
	ServerTimestamp time.Time
	// ID is the stream event id, if any.
	ID     string
	Source UpdateSource
}

func (*UpdateEvent) isEmitterData() {}

func (e *UpdateEvent) String() string {
	return fmt.Sprintf("<UpdateEvent %s from %s>", e.Kind, e.Source)
}

// Text returns Data[key] as a string. Numbers are formatted.
func (e *UpdateEvent) Text(key string) string {
	return stringFrom(e.Data[key])
}

// Decimal returns Data[key] as a decimal. Numbers and numeric strings
// convert; anything else reports false.
func (e *UpdateEvent) Decimal(key string) (decimal.Decimal, bool) {
	return decimalFrom(e.Data[key])
}

// Bool returns Data[key] as a bool.
func (e *UpdateEvent) Bool(key string) bool {
	v, _ := e.Data[key].(bool)
	return v
}

// The envelope fields; everything else at the top level is data when the
// server sends no "data" object.
var envelopeFields = map[string]bool{
	"type":      true,
	"data":      true,
	"message":   true,
	"timestamp": true,
	"retry":     true,
}

var errMissingKind = errors.New("update has no type")

// decodeUpdate parses one update document. eventName is the stream event
// name, used when the document has no "type".
func decodeUpdate(contentType string, p []byte, eventName string) (*UpdateEvent, error) {
	var m map[string]interface{}
	if err := rtutil.Unmarshal(contentType, p, &m); err != nil {
		return nil, err
	}
	return updateFromMap(m, eventName)
}

func updateFromMap(m map[string]interface{}, eventName string) (*UpdateEvent, error) {
	if m == nil {
		return nil, errors.New("update is not an object")
	}
	e := &UpdateEvent{}
	if kind, ok := m["type"].(string); ok && kind != "" {
		e.Kind = UpdateKind(kind)
	} else if eventName != "" && eventName != "message" {
		e.Kind = UpdateKind(eventName)
	} else {
		return nil, errMissingKind
	}

	if data, ok := m["data"].(map[string]interface{}); ok {
		e.Data = data
	} else {
		e.Data = make(map[string]interface{}, len(m))
		for k, v := range m {
			if !envelopeFields[k] {
				e.Data[k] = v
			}
		}
	}
	if msg, ok := m["message"].(string); ok {
		e.Message = msg
	}
	e.Retry, _ = m["retry"].(bool)
	if ts, ok := m["timestamp"]; ok {
		e.ServerTimestamp = parseTimestamp(ts)
	}
	return e, nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999",
}

// parseTimestamp accepts RFC 3339, naive ISO 8601 (taken as UTC) and unix
// seconds.
func parseTimestamp(v interface{}) time.Time {
	switch v := v.(type) {
	case string:
		for _, layout := range timestampLayouts {
			if t, err := time.ParseInLocation(layout, v, time.UTC); err == nil {
				return t
			}
		}
	default:
		if f, ok := floatFrom(v); ok && f > 0 {
			sec := int64(f)
			return time.Unix(sec, int64((f-float64(sec))*1e9)).UTC()
		}
	}
	return time.Time{}
}

func floatFrom(v interface{}) (float64, bool) {
	switch v := v.(type) {
	case int64:
		return float64(v), true
	case uint64:
		return float64(v), true
	case int:
		return float64(v), true
	case float64:
		return v, true
	case float32:
		return float64(v), true
	}
	return 0, false
}

func decimalFrom(v interface{}) (decimal.Decimal, bool) {
	switch v := v.(type) {
	case int64:
		return decimal.NewFromInt(v), true
	case int:
		return decimal.NewFromInt(int64(v)), true
	case uint64:
		d, err := decimal.NewFromString(strconv.FormatUint(v, 10))
		return d, err == nil
	case float64:
		return decimal.NewFromFloat(v), true
	case float32:
		return decimal.NewFromFloat32(v), true
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		return d, err == nil
	}
	return decimal.Decimal{}, false
}

func stringFrom(v interface{}) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
