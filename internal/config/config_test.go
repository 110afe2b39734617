package config

import (
	"testing"
	"time"

	"github.com/convitepro/realtime-go/realtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000", cfg.BaseURL)
	assert.Equal(t, "dashboard", cfg.Resource)
	assert.Equal(t, "cliente", cfg.Role)
	assert.Equal(t, "sse", cfg.Transport)
	assert.Equal(t, 5, cfg.MaxReconnectAttempts)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "/cliente/dashboard/", cfg.PagePath())
	assert.Equal(t, realtime.ResourceDashboard, cfg.ClientResource().Kind)
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("REALTIME_RESOURCE", "invite")
	t.Setenv("REALTIME_RESOURCE_ID", "41")
	t.Setenv("REALTIME_POLL_INTERVAL", "20s")
	t.Setenv("REALTIME_TRANSPORT", "websocket")

	cfg, err := Load([]string{"-id", "42", "-transport", "none", "-log-level", "debug"})
	require.NoError(t, err)

	assert.Equal(t, "invite", cfg.Resource)
	assert.Equal(t, "42", cfg.ResourceID)
	assert.Equal(t, 20*time.Second, cfg.PollInterval)
	assert.Equal(t, "none", cfg.Transport)
	assert.Equal(t, "/convite/42/", cfg.PagePath())

	resource := cfg.ClientResource()
	assert.Equal(t, realtime.ResourceInvite, resource.Kind)
	assert.Equal(t, "42", resource.ID)
	assert.Len(t, cfg.ClientOptions(), 7)
}

func TestLoad_PreOrder(t *testing.T) {
	cfg, err := Load([]string{"-resource", "pre_order", "-id", "12", "-user", "7", "-role", "prestador", "-csrf-token", "tok"})
	require.NoError(t, err)

	resource := cfg.ClientResource()
	assert.Equal(t, realtime.ResourcePreOrder, resource.Kind)
	assert.Equal(t, "7", resource.ViewerID)
	assert.Equal(t, "/pre-ordem/12/", cfg.PagePath())
	assert.True(t, resource.Matches(realtime.NewPage(cfg.PagePath())))
	assert.Len(t, cfg.ClientOptions(), 7)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		args    []string
		wantErr error
	}{
		{
			name:    "base URL without scheme",
			args:    []string{"-base-url", "localhost:8000"},
			wantErr: ErrInvalidServerConfig,
		},
		{
			name:    "zero request timeout",
			args:    []string{"-request-timeout", "0s"},
			wantErr: ErrInvalidServerConfig,
		},
		{
			name:    "unknown resource",
			args:    []string{"-resource", "wallet"},
			wantErr: ErrInvalidResourceConfig,
		},
		{
			name:    "pre-order without user",
			args:    []string{"-resource", "pre_order", "-id", "12"},
			wantErr: ErrInvalidResourceConfig,
		},
		{
			name:    "invite without id",
			env:     map[string]string{"REALTIME_RESOURCE": "invite"},
			wantErr: ErrInvalidResourceConfig,
		},
		{
			name:    "unknown transport",
			args:    []string{"-transport", "carrier-pigeon"},
			wantErr: ErrInvalidTransportConfig,
		},
		{
			name:    "negative attempts",
			args:    []string{"-max-reconnect-attempts", "-1"},
			wantErr: ErrInvalidTransportConfig,
		},
		{
			name:    "unknown log level",
			env:     map[string]string{"REALTIME_LOG_LEVEL": "loud"},
			wantErr: ErrInvalidLogConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(tt.args)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLoad_BadInput(t *testing.T) {
	t.Run("bad env value", func(t *testing.T) {
		t.Setenv("REALTIME_POLL_INTERVAL", "often")
		_, err := Load(nil)
		assert.ErrorContains(t, err, "error getting env configs")
	})
	t.Run("unknown flag", func(t *testing.T) {
		_, err := Load([]string{"-verbose"})
		assert.ErrorContains(t, err, "error parsing flags")
	})
	t.Run("positional argument", func(t *testing.T) {
		_, err := Load([]string{"dashboard"})
		assert.ErrorContains(t, err, "unexpected arguments")
	})
}
