// Command realtime-watch follows one resource of the web application the way
// its pages do and logs every update, connection change and notice.
//
// Configuration comes from REALTIME_* environment variables and flags; run
// with -h for the list. SIGHUP forces a refresh, SIGINT and SIGTERM leave
// the page.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/convitepro/realtime-go/internal/config"
	"github.com/convitepro/realtime-go/internal/logging"
	"github.com/convitepro/realtime-go/realtime"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "realtime-watch:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load(args)
	if err != nil {
		return err
	}
	level, _ := realtime.ParseLogLevel(cfg.LogLevel)
	log, err := logging.New(cfg.LogJSON, level)
	if err != nil {
		return fmt.Errorf("error building logger: %w", err)
	}
	defer log.Sync()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if cfg.MetricsAddress != "" {
		srv := serveMetrics(cfg.MetricsAddress, registry, log)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(ctx)
		}()
	}

	page := realtime.NewPage(cfg.PagePath())
	notifier := realtime.NotifierFunc(func(n realtime.Notification) {
		log.Info("notice", zap.String("kind", string(n.Kind)), zap.String("level", string(n.Level)), zap.String("message", n.Message))
	})
	opts := append(cfg.ClientOptions(),
		realtime.WithLogHandler(logging.NewAdapter(log)),
		realtime.WithMetrics(registry),
		realtime.WithNotifier(notifier),
	)
	client, err := realtime.NewClient(cfg.ClientResource(), page, opts...)
	if err != nil {
		return err
	}

	display := &logDisplay{log: log}
	var formatter realtime.MoneyFormatter
	if cfg.Locale != "" {
		if formatter, err = realtime.NewLocaleFormatter(cfg.Locale, cfg.Currency); err != nil {
			return err
		}
	}
	realtime.BindBalance(client, display, formatter)
	realtime.BindConnectionStatus(client, display)
	realtime.BindOrderStatus(client, display)
	realtime.BindNotifications(client, notifier)
	client.Presence.On(func(c realtime.PresenceChange) {
		log.Info("presence", zap.Bool("present", c.Present), zap.String("name", c.Name))
	})
	client.Connection.OnAll(func(c realtime.ConnectionStateChange) {
		fields := []zap.Field{
			zap.Stringer("state", c.Current),
			zap.Stringer("previous", c.Previous),
			zap.Bool("degraded", c.Degraded),
		}
		if c.RetryIn > 0 {
			fields = append(fields, zap.Duration("retry_in", c.RetryIn))
		}
		if c.Reason != nil {
			fields = append(fields, zap.Error(c.Reason))
		}
		log.Info("connection", fields...)
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	sub := client.Subscribe()
	client.Start()
	log.Info("watching", zap.Stringer("resource", client.Resource()), zap.String("base_url", cfg.BaseURL), zap.String("instance", client.InstanceID()))

	updates := make(chan *realtime.UpdateEvent)
	go func() {
		defer close(updates)
		for {
			u, err := sub.Next(ctx)
			if err != nil {
				return
			}
			select {
			case updates <- u:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case u, ok := <-updates:
			if !ok {
				page.Unload()
				return nil
			}
			log.Info("update",
				zap.Stringer("kind", u.Kind),
				zap.String("source", string(u.Source)),
				zap.String("message", u.Message),
				zap.Any("data", u.Data),
			)
		case <-hup:
			refreshCtx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
			if err := client.Refresh(refreshCtx); err != nil {
				log.Warn("refresh failed", zap.Error(err))
			}
			cancel()
		case <-ctx.Done():
			log.Info("leaving")
			page.Unload()
			return nil
		}
	}
}

func serveMetrics(addr string, registry *prometheus.Registry, log *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server", zap.Error(err))
		}
	}()
	log.Info("serving metrics", zap.String("address", addr))
	return srv
}

// logDisplay shows bound fields as log lines.
type logDisplay struct {
	log *zap.Logger
}

func (d *logDisplay) Set(field, value string) {
	d.log.Info("display", zap.String("field", field), zap.String("value", value))
}
