package realtime

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Display is whatever shows values to the user, addressed by field name.
// Set always receives the full value to show, so applying it twice is the
// same as applying it once.
type Display interface {
	Set(field, value string)
}

// Notifier shows transient notices to the user.
type Notifier interface {
	Notify(Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notification)

func (f NotifierFunc) Notify(n Notification) {
	f(n)
}

type NotificationKind string

func (NotificationKind) isEmitterEvent() {}

const (
	NoticeDegraded NotificationKind = "degraded"
	NoticeOffline  NotificationKind = "offline"
	NoticePresence NotificationKind = "presence"
	NoticeUpdate   NotificationKind = "update"
)

type NotificationLevel string

const (
	LevelInfo    NotificationLevel = "info"
	LevelSuccess NotificationLevel = "success"
	LevelWarning NotificationLevel = "warning"
	LevelError   NotificationLevel = "error"
)

type Notification struct {
	Kind    NotificationKind
	Level   NotificationLevel
	Message string
	// Duration is how long to show the notice; zero leaves it to the
	// renderer.
	Duration time.Duration
}

func (Notification) isEmitterData() {}

// MoneyFormatter renders a monetary amount.
type MoneyFormatter interface {
	Format(decimal.Decimal) string
}

// DecimalFormatter renders amounts with two decimal places, e.g. "100.00".
type DecimalFormatter struct{}

func (DecimalFormatter) Format(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// LocaleFormatter renders amounts with the grouping and decimal separators
// of a locale, prefixed by a currency symbol, e.g. "R$ 1.234,50" for pt-BR.
type LocaleFormatter struct {
	printer *message.Printer
	point   string
	symbol  string
}

// NewLocaleFormatter returns a formatter for the BCP 47 locale.
func NewLocaleFormatter(locale, symbol string) (*LocaleFormatter, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, newError(ErrBadRequest, err)
	}
	p := message.NewPrinter(tag)
	point := strings.Trim(p.Sprint(number.Decimal(1.5, number.Scale(1))), "0123456789")
	if point == "" {
		point = "."
	}
	return &LocaleFormatter{printer: p, point: point, symbol: symbol}, nil
}

var maxGroupedAmount = decimal.NewFromInt(math.MaxInt64)

// Format keeps every digit of d: the whole part goes through the locale
// printer as an integer and the cents are appended after the locale's
// decimal point. Amounts past int64 are printed without grouping.
func (f *LocaleFormatter) Format(d decimal.Decimal) string {
	d = d.Round(2)
	whole := d.Truncate(0).Abs()
	cents := d.Abs().Sub(whole).Shift(2).IntPart()

	var s string
	if whole.LessThanOrEqual(maxGroupedAmount) {
		s = f.printer.Sprint(number.Decimal(whole.IntPart()))
	} else {
		s = whole.String()
	}
	s = fmt.Sprintf("%s%s%02d", s, f.point, cents)
	if d.IsNegative() {
		s = "-" + s
	}
	if f.symbol == "" {
		return s
	}
	return f.symbol + " " + s
}

const (
	FieldBalanceAvailable = "balance.available"
	FieldBalanceBlocked   = "balance.blocked"
	FieldBalanceTotal     = "balance.total"
	FieldConnectionStatus = "realtime.status"
	FieldStatus           = "status"
	FieldStatusLabel      = "status.label"
)

// BindBalance shows the available, blocked and total amounts of every
// balance_updated update on d. A nil formatter means DecimalFormatter.
func BindBalance(c *Client, d Display, f MoneyFormatter) (off func()) {
	if f == nil {
		f = DecimalFormatter{}
	}
	return c.On(KindBalanceUpdated, func(u *UpdateEvent) {
		for key, field := range map[string]string{
			"available": FieldBalanceAvailable,
			"blocked":   FieldBalanceBlocked,
			"total":     FieldBalanceTotal,
		} {
			if v, ok := u.Decimal(key); ok {
				d.Set(field, f.Format(v))
			}
		}
	})
}

const (
	StatusOnline   = "online"
	StatusPolling  = "polling"
	StatusOffline  = "offline"
	StatusDegraded = "degraded"
)

// BindConnectionStatus keeps the connection indicator on d current.
func BindConnectionStatus(c *Client, d Display) (off func()) {
	return c.Connection.OnAll(func(change ConnectionStateChange) {
		d.Set(FieldConnectionStatus, connectionStatus(change))
	})
}

func connectionStatus(change ConnectionStateChange) string {
	switch change.Current {
	case ConnectionStateConnected:
		return StatusOnline
	case ConnectionStatePolling:
		if change.Degraded {
			return StatusDegraded
		}
		return StatusPolling
	default:
		return StatusOffline
	}
}

var statusLabels = map[string]string{
	"aceita":                 "Aceita",
	"em_andamento":           "Em Andamento",
	"aguardando_confirmacao": "Aguardando Confirmação",
	"concluida":              "Concluída",
	"cancelada":              "Cancelada",
	"em_contestacao":         "Em Contestação",
}

// StatusLabel returns the display label of an order status.
func StatusLabel(status string) string {
	if label, ok := statusLabels[status]; ok {
		return label
	}
	return strings.ReplaceAll(status, "_", " ")
}

// BindOrderStatus shows the new status of status_change and
// order_status_changed updates on d, under "status" and "status.label", or
// "order.<id>.status" and "order.<id>.status.label" when the update names
// an order.
func BindOrderStatus(c *Client, d Display) (off func()) {
	handle := func(u *UpdateEvent) {
		status := u.Text("new_status")
		if status == "" {
			status = u.Text("status")
		}
		if status == "" {
			return
		}
		prefix := ""
		if id := u.Text("order_id"); id != "" {
			prefix = "order." + id + "."
		}
		d.Set(prefix+FieldStatus, status)
		d.Set(prefix+FieldStatusLabel, StatusLabel(status))
	}
	offStatus := c.On(KindStatusChange, handle)
	offOrder := c.On(KindOrderStatusChanged, handle)
	return func() {
		offStatus()
		offOrder()
	}
}

const newOrderNoticeDuration = 5 * time.Second

// BindNotifications turns content updates into notices on n: new orders,
// order changes, balance changes and proposal outcomes. The server's own
// message is used when it sent one.
func BindNotifications(c *Client, n Notifier) (off func()) {
	return c.OnAll(func(u *UpdateEvent) {
		notice := Notification{Kind: NoticeUpdate, Level: LevelInfo, Message: u.Message}
		switch u.Kind {
		case KindOrderCreated:
			notice.Level = LevelSuccess
			notice.Duration = newOrderNoticeDuration
			if notice.Message == "" {
				notice.Message = "Order #" + orderID(u) + " created"
			}
		case KindOrderStatusChanged, KindOrdersUpdated:
			if notice.Message == "" {
				notice.Message = "Order #" + orderID(u) + " updated"
			}
		case KindBalanceUpdated:
			if notice.Message == "" {
				notice.Message = "Balance updated"
			}
		case KindProposalAccepted, KindMutualAcceptance:
			notice.Level = LevelSuccess
		case KindProposalRejected:
			notice.Level = LevelWarning
		case KindProposalReceived, KindNewNotification:
		default:
			return
		}
		if notice.Message == "" {
			return
		}
		n.Notify(notice)
	})
}

func orderID(u *UpdateEvent) string {
	if id := u.Text("order_id"); id != "" {
		return id
	}
	return u.Text("id")
}
