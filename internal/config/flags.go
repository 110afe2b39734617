package config

import (
	"flag"
	"fmt"
)

// parseFlags overrides cfg with the flags present in args. Values already in
// cfg serve as flag defaults, so unset flags keep what the environment said.
//
// Flags:
//
//	-base-url web application base URL
//	-resource dashboard, pre_order or invite
//	-id resource id (pre-order or invite)
//	-user viewer user id (pre-order)
//	-role viewer role, cliente or prestador
//	-transport sse, websocket or none
//	-binary request msgpack poll responses
//	-poll-interval poll interval override (e.g. 15s)
//	-max-reconnect-attempts stream attempts before falling back to polling
//	-request-timeout per request timeout (e.g. 10s)
//	-csrf-token token sent with presence updates
//	-locale balance locale (e.g. pt-BR)
//	-currency currency symbol printed before balances
//	-log-level none, error, warning, info, verbose or debug
//	-log-json log JSON lines
//	-metrics-address serve Prometheus metrics on this address
func parseFlags(cfg *Config, args []string) error {
	fs := flag.NewFlagSet("realtime-watch", flag.ContinueOnError)

	fs.StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "Web application base URL")
	fs.StringVar(&cfg.Resource, "resource", cfg.Resource, "Resource to follow: dashboard, pre_order or invite")
	fs.StringVar(&cfg.ResourceID, "id", cfg.ResourceID, "Resource id")
	fs.StringVar(&cfg.UserID, "user", cfg.UserID, "Viewer user id")
	fs.StringVar(&cfg.Role, "role", cfg.Role, "Viewer role")
	fs.StringVar(&cfg.Transport, "transport", cfg.Transport, "Stream transport: sse, websocket or none")
	fs.BoolVar(&cfg.Binary, "binary", cfg.Binary, "Request msgpack poll responses")
	fs.DurationVar(&cfg.PollInterval, "poll-interval", cfg.PollInterval, "Poll interval override (e.g., 15s)")
	fs.IntVar(&cfg.MaxReconnectAttempts, "max-reconnect-attempts", cfg.MaxReconnectAttempts, "Stream attempts before polling")
	fs.DurationVar(&cfg.RequestTimeout, "request-timeout", cfg.RequestTimeout, "Request timeout (e.g., 10s)")
	fs.StringVar(&cfg.CSRFToken, "csrf-token", cfg.CSRFToken, "CSRF token for presence updates")
	fs.StringVar(&cfg.Locale, "locale", cfg.Locale, "Balance locale (e.g., pt-BR)")
	fs.StringVar(&cfg.Currency, "currency", cfg.Currency, "Currency symbol")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level")
	fs.BoolVar(&cfg.LogJSON, "log-json", cfg.LogJSON, "Log JSON lines")
	fs.StringVar(&cfg.MetricsAddress, "metrics-address", cfg.MetricsAddress, "Prometheus metrics address (e.g., :9100)")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("error parsing flags: %w", err)
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return nil
}
