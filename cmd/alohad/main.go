// alohad is the ALOHA/RDC node daemon: it wires a radio, a framer, the RDC
// duty-cycling layer, and the MAC retry controller into a running node,
// and exposes Prometheus metrics plus a small JSON status endpoint.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/dantte-lp/alohamac/internal/addr"
	"github.com/dantte-lp/alohamac/internal/config"
	"github.com/dantte-lp/alohamac/internal/framer"
	"github.com/dantte-lp/alohamac/internal/mac"
	alohametrics "github.com/dantte-lp/alohamac/internal/metrics"
	"github.com/dantte-lp/alohamac/internal/radio"
	"github.com/dantte-lp/alohamac/internal/rdc"
	"github.com/dantte-lp/alohamac/internal/scratchpad"
	"github.com/dantte-lp/alohamac/internal/statusapi"
	appversion "github.com/dantte-lp/alohamac/internal/version"
)

// shutdownTimeout bounds how long graceful shutdown waits for the status
// HTTP server to drain active connections.
const shutdownTimeout = 10 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to configuration file (YAML)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.New(slog.NewTextHandler(os.Stderr, nil)).Error("failed to load configuration",
			slog.String("error", err.Error()),
		)
		return 1
	}

	logLevel := new(slog.LevelVar)
	logLevel.Set(config.ParseLogLevel(cfg.Log.Level))
	logger := newLoggerWithLevel(cfg.Log, logLevel)

	local, err := addr.Parse(cfg.Node.Addr)
	if err != nil {
		logger.Error("invalid node address", slog.String("error", err.Error()))
		return 1
	}

	logger.Info("alohad starting",
		slog.String("version", appversion.Version),
		slog.String("node", local.String()),
		slog.String("medium", cfg.Radio.MediumAddr),
		slog.String("metrics_addr", cfg.Metrics.Addr),
	)

	reg := prometheus.NewRegistry()
	collector := alohametrics.NewCollector(reg)

	medium := radio.Lookup(cfg.Radio.MediumAddr)
	mr := radio.NewMediumRadio(medium)
	defer mr.Close()

	d := rdc.New(mr, framer.LengthFramer{}, local, cfg.RDC.ToRDCConfig(), logger)
	d.SetMetrics(collector)

	m := mac.New(d, cfg.MAC.ToMACConfig(), logger)
	m.SetMetrics(collector)
	m.SetReceiveHandler(func(payload []byte, attrs scratchpad.Attrs) {
		logger.Debug("alohad: frame delivered",
			slog.String("sender", attrs.Sender.String()),
			slog.Int("len", len(payload)),
		)
	})
	d.SetUpward(m)

	if err := m.Init(); err != nil {
		logger.Error("failed to initialize MAC/RDC stack", slog.String("error", err.Error()))
		return 1
	}
	if cfg.RDC.KeepRadioOnIdle {
		if err := m.Off(true); err != nil {
			logger.Warn("failed to keep radio on", slog.String("error", err.Error()))
		}
	}

	if err := runServers(cfg, local, m, reg, logger, *configPath, logLevel); err != nil {
		logger.Error("alohad exited with error", slog.String("error", err.Error()))
		return 1
	}

	logger.Info("alohad stopped")
	return 0
}

// runServers sets up and runs the status/metrics HTTP server alongside
// signal handling, using an errgroup with a signal-aware context for
// coordinated graceful shutdown.
func runServers(
	cfg *config.Config,
	local addr.Addr,
	m *mac.MAC,
	reg *prometheus.Registry,
	logger *slog.Logger,
	configPath string,
	logLevel *slog.LevelVar,
) error {
	statusSrv := newStatusServer(cfg.Metrics, reg, local, m)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)

	lc := net.ListenConfig{}
	g.Go(func() error {
		logger.Info("status server listening",
			slog.String("addr", cfg.Metrics.Addr),
			slog.String("metrics_path", cfg.Metrics.Path),
		)
		return listenAndServe(gCtx, &lc, statusSrv, cfg.Metrics.Addr)
	})

	startDaemonGoroutines(gCtx, g, configPath, logLevel, m, logger)

	notifyReady(logger)

	g.Go(func() error {
		<-gCtx.Done()
		return gracefulShutdown(gCtx, m, logger, statusSrv)
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("run servers: %w", err)
	}
	return nil
}

// startDaemonGoroutines registers the watchdog and SIGHUP reload goroutines.
func startDaemonGoroutines(
	ctx context.Context,
	g *errgroup.Group,
	configPath string,
	logLevel *slog.LevelVar,
	m *mac.MAC,
	logger *slog.Logger,
) {
	g.Go(func() error {
		return runWatchdog(ctx, logger)
	})

	sigHUP := make(chan os.Signal, 1)
	signal.Notify(sigHUP, syscall.SIGHUP)
	g.Go(func() error {
		defer signal.Stop(sigHUP)
		handleSIGHUP(ctx, sigHUP, configPath, logLevel, m, logger)
		return nil
	})
}

// -------------------------------------------------------------------------
// Systemd integration — sd_notify + watchdog
// -------------------------------------------------------------------------

func notifyReady(logger *slog.Logger) {
	sent, err := daemon.SdNotify(false, daemon.SdNotifyReady)
	if err != nil {
		logger.Warn("failed to notify systemd readiness", slog.String("error", err.Error()))
		return
	}
	if sent {
		logger.Info("notified systemd: READY")
	}
}

func notifyStopping(logger *slog.Logger) {
	sent, err := daemon.SdNotify(false, daemon.SdNotifyStopping)
	if err != nil {
		logger.Warn("failed to notify systemd stopping", slog.String("error", err.Error()))
		return
	}
	if sent {
		logger.Info("notified systemd: STOPPING")
	}
}

// runWatchdog sends periodic watchdog keepalives to systemd at half the
// configured watchdog interval; it exits immediately if no watchdog is
// configured.
func runWatchdog(ctx context.Context, logger *slog.Logger) error {
	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil {
		logger.Warn("failed to check systemd watchdog", slog.String("error", err.Error()))
		return nil
	}
	if interval == 0 {
		logger.Debug("systemd watchdog not configured, skipping keepalive")
		return nil
	}

	tickInterval := interval / 2
	logger.Info("systemd watchdog enabled",
		slog.Duration("watchdog_sec", interval),
		slog.Duration("keepalive_interval", tickInterval),
	)

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, wdErr := daemon.SdNotify(false, daemon.SdNotifyWatchdog); wdErr != nil {
				logger.Warn("failed to send watchdog keepalive", slog.String("error", wdErr.Error()))
			}
		}
	}
}

// -------------------------------------------------------------------------
// SIGHUP reload — log level + declarative neighbor list
// -------------------------------------------------------------------------

// handleSIGHUP reloads configuration on each SIGHUP until ctx is done. The
// neighbor list is declarative only in the sense that it is logged for
// operator visibility; MAC itself builds its neighbor queues lazily from
// traffic and needs no explicit reconciliation step.
func handleSIGHUP(
	ctx context.Context,
	sigHUP <-chan os.Signal,
	configPath string,
	logLevel *slog.LevelVar,
	m *mac.MAC,
	logger *slog.Logger,
) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-sigHUP:
			logger.Info("received SIGHUP, reloading configuration")
			reloadConfig(configPath, logLevel, logger)
		}
	}
}

// reloadConfig loads a fresh configuration from configPath and updates the
// dynamic log level. Errors are logged but do not stop the daemon — the
// previous configuration remains in effect.
func reloadConfig(configPath string, logLevel *slog.LevelVar, logger *slog.Logger) {
	newCfg, err := loadConfig(configPath)
	if err != nil {
		logger.Error("failed to reload configuration, keeping current settings",
			slog.String("error", err.Error()),
		)
		return
	}

	oldLevel := logLevel.Level()
	newLevel := config.ParseLogLevel(newCfg.Log.Level)
	logLevel.Set(newLevel)

	logger.Info("configuration reloaded",
		slog.String("old_log_level", oldLevel.String()),
		slog.String("new_log_level", newLevel.String()),
		slog.Int("neighbors_declared", len(newCfg.Neighbors)),
	)
}

// -------------------------------------------------------------------------
// Status/metrics HTTP server
// -------------------------------------------------------------------------

func newStatusServer(cfg config.MetricsConfig, reg *prometheus.Registry, local addr.Addr, m *mac.MAC) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		stats := m.QueueStats()
		view := statusapi.Status{
			Node:    local.String(),
			Version: appversion.Version,
			Queues:  make([]statusapi.QueueStat, 0, len(stats)),
		}
		for _, s := range stats {
			view.Queues = append(view.Queues, statusapi.QueueStat{
				Addr:          s.Addr.String(),
				Length:        s.Length,
				Transmissions: s.Transmissions,
			})
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(view); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func listenAndServe(ctx context.Context, lc *net.ListenConfig, srv *http.Server, listenAddr string) error {
	ln, err := lc.Listen(ctx, "tcp", listenAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", listenAddr, err)
	}
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve on %s: %w", listenAddr, err)
	}
	return nil
}

// gracefulShutdown notifies systemd, turns the radio off, and drains the
// status server's active connections within shutdownTimeout.
func gracefulShutdown(ctx context.Context, m *mac.MAC, logger *slog.Logger, srv *http.Server) error {
	logger.Info("initiating graceful shutdown")
	notifyStopping(logger)

	if err := m.Off(false); err != nil {
		logger.Warn("failed to turn off radio during shutdown", slog.String("error", err.Error()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown status server: %w", err)
	}
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("load config from %s: %w", path, err)
		}
		return cfg, nil
	}
	return config.DefaultConfig(), nil
}

func newLoggerWithLevel(cfg config.LogConfig, level *slog.LevelVar) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch cfg.Format {
	case "text":
		handler = slog.NewTextHandler(os.Stdout, opts)
	default:
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
