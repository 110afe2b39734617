package realtime_test

import (
	"errors"
	"testing"
	"time"

	"github.com/convitepro/realtime-go/realtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResourcePresets(t *testing.T) {
	t.Run("dashboard", func(t *testing.T) {
		r := realtime.DashboardResource("prestador")
		require.NoError(t, r.Validate())
		assert.Equal(t, "/realtime/dashboard/stream", r.Endpoints.Stream)
		assert.Equal(t, "/realtime/dashboard/check-updates", r.Endpoints.CheckUpdates)
		assert.Equal(t, "/realtime/dashboard/refresh", r.Endpoints.Refresh)
		assert.Equal(t, 30*time.Second, r.PollInterval)
		assert.Equal(t, 5, r.MaxReconnectAttempts)
		assert.Equal(t, 4*time.Second, r.Backoff.Delay(2))
	})

	t.Run("pre-order", func(t *testing.T) {
		r := realtime.PreOrderResource("12", "7", "cliente")
		require.NoError(t, r.Validate())
		assert.Equal(t, "/pre-ordem/12/stream?role=cliente&user_id=7", r.Endpoints.Stream)
		assert.Equal(t, "/pre-ordem/12/check-updates", r.Endpoints.CheckUpdates)
		assert.Equal(t, "/pre-ordem/12/presenca", r.Endpoints.Presence)
		assert.Equal(t, 60*time.Second, r.PresenceInterval)
		assert.Equal(t, 4*time.Second, r.Backoff.Delay(2))
		assert.Equal(t, 30*time.Second, r.Backoff.Delay(6))
	})

	t.Run("invite", func(t *testing.T) {
		r := realtime.InviteResource("abc")
		require.NoError(t, r.Validate())
		assert.Empty(t, r.Endpoints.Stream)
		assert.Equal(t, "/convite/abc/status-updates", r.Endpoints.CheckUpdates)
		assert.Equal(t, 10*time.Second, r.PollInterval)
	})
}

func TestResourceValidate(t *testing.T) {
	tests := map[string]realtime.Resource{
		"no poll endpoint":   {Kind: realtime.ResourceCustom},
		"negative attempts":  {Kind: realtime.ResourceCustom, Endpoints: realtime.Endpoints{CheckUpdates: "/x"}, MaxReconnectAttempts: -1},
		"pre-order no id":    realtime.PreOrderResource("", "7", "cliente"),
		"pre-order no user":  realtime.PreOrderResource("12", "", "cliente"),
		"invite no id":       realtime.InviteResource(" "),
		"negative intervals": {Kind: realtime.ResourceCustom, Endpoints: realtime.Endpoints{CheckUpdates: "/x"}, PollInterval: -time.Second},
	}
	for name, r := range tests {
		t.Run(name, func(t *testing.T) {
			err := r.Validate()
			var info *realtime.ErrorInfo
			require.True(t, errors.As(err, &info), "got %v", err)
			assert.Equal(t, realtime.ErrInvalidResource, info.Code)
		})
	}
}

func TestResourceMatches(t *testing.T) {
	r := realtime.DashboardResource("cliente")

	assert.True(t, r.Matches(realtime.NewPage("/cliente/dashboard")))
	assert.True(t, r.Matches(realtime.NewPage("/prestador/dashboard/")))
	assert.True(t, r.Matches(realtime.NewPage("/conta", "data-dashboard-realtime")))
	assert.False(t, r.Matches(realtime.NewPage("/conta")))
	assert.False(t, r.Matches(realtime.NewPage("/conta", "data-pre-order-id")))
	assert.False(t, r.Matches(nil))
}
