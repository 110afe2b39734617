package realtime_test

import (
	"testing"
	"time"

	"github.com/convitepro/realtime-go/realtime"
	"github.com/convitepro/realtime-go/realtime/realtimetest"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecimalFormatter(t *testing.T) {
	f := realtime.DecimalFormatter{}
	assert.Equal(t, "100.00", f.Format(decimal.NewFromInt(100)))
	assert.Equal(t, "0.10", f.Format(decimal.RequireFromString("0.1")))
	assert.Equal(t, "1234.57", f.Format(decimal.RequireFromString("1234.565")))
}

func TestLocaleFormatter(t *testing.T) {
	f, err := realtime.NewLocaleFormatter("pt-BR", "R$")
	require.NoError(t, err)
	assert.Equal(t, "R$ 1.234,50", f.Format(decimal.RequireFromString("1234.5")))
	assert.Equal(t, "R$ 100,00", f.Format(decimal.NewFromInt(100)))
	assert.Equal(t, "R$ -0,05", f.Format(decimal.RequireFromString("-0.049")))
	// Past float64 precision every digit still shows.
	assert.Equal(t, "R$ 9.007.199.254.740.993,07", f.Format(decimal.RequireFromString("9007199254740993.07")))
	assert.Equal(t, "R$ 123456789012345678901234,10", f.Format(decimal.RequireFromString("123456789012345678901234.1")))

	f, err = realtime.NewLocaleFormatter("en-US", "")
	require.NoError(t, err)
	assert.Equal(t, "1,234.50", f.Format(decimal.RequireFromString("1234.5")))

	_, err = realtime.NewLocaleFormatter("not a locale!", "")
	assert.Error(t, err)
}

func TestStatusLabel(t *testing.T) {
	assert.Equal(t, "Aguardando Confirmação", realtime.StatusLabel("aguardando_confirmacao"))
	assert.Equal(t, "em revisao", realtime.StatusLabel("em_revisao"))
}

func TestBindNotifications(t *testing.T) {
	h := newHarness(t, realtime.DashboardResource("cliente"), dashboardPage())
	notes := realtimetest.NewNotificationRecorder()
	realtime.BindNotifications(h.client, notes)
	h.client.Start()
	conn := h.connect()

	require.NoError(t, conn.SendUpdate(realtime.KindOrderCreated, map[string]interface{}{"id": 31}))
	var n realtime.Notification
	realtimetest.Soon.Recv(t, &n, notes.C, t.Fatalf)
	assert.Equal(t, realtime.Notification{
		Kind:     realtime.NoticeUpdate,
		Level:    realtime.LevelSuccess,
		Message:  "Order #31 created",
		Duration: 5 * time.Second,
	}, n)

	require.NoError(t, conn.SendJSON("", map[string]interface{}{
		"type":    "proposal_rejected",
		"message": "Proposta recusada",
		"data":    map[string]interface{}{"proposal_id": 2},
	}))
	realtimetest.Soon.Recv(t, &n, notes.C, t.Fatalf)
	assert.Equal(t, realtime.LevelWarning, n.Level)
	assert.Equal(t, "Proposta recusada", n.Message)

	// Nothing to say: no message and no default text.
	require.NoError(t, conn.SendUpdate(realtime.KindProposalAccepted, nil))
	require.NoError(t, conn.SendUpdate(realtime.KindStatusChange, map[string]interface{}{"new_status": "aceita"}))
	realtimetest.Instantly.NoRecv(t, nil, notes.C, t.Fatalf)
}
