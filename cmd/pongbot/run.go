package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v3"

	"github.com/dalnet/pongbot/internal/config"
	"github.com/dalnet/pongbot/internal/irc"
	"github.com/dalnet/pongbot/internal/logging"
	"github.com/dalnet/pongbot/internal/pong"
)

const daemonEnv = "PONGBOT_DAEMON"

func runAction(ctx context.Context, cmd *cli.Command) error {
	// Daemonize unless -x flag is set
	if !cmd.Bool("foreground") {
		return daemonize()
	}

	if err := writePIDFile(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not write PID file: %v\n", err)
	}

	return run(ctx, cmd.String("config"), cmd.String("log-level"))
}

// daemonize performs double-fork to become a daemon
func daemonize() error {
	if os.Getenv(daemonEnv) == "1" {
		// We're the daemon child: re-exec in the foreground and leave
		if err := writePIDFile(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not write PID file: %v\n", err)
		}
		fmt.Printf("Now becoming a daemon\nMy pid is %d, this has been written to pid.txt\n", os.Getpid())
		return startDetached(append(os.Args, "-x"), os.Environ())
	}

	// First fork
	if err := startDetached(os.Args, append(os.Environ(), daemonEnv+"=1")); err != nil {
		return fmt.Errorf("failed to fork: %w", err)
	}
	return nil
}

func startDetached(args, env []string) error {
	cmd := exec.Command(args[0], args[1:]...)
	cmd.Env = env
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	return cmd.Start()
}

func writePIDFile() error {
	return os.WriteFile("pid.txt", []byte(fmt.Sprintf("%d\n", os.Getpid())), 0644)
}

func run(ctx context.Context, configPath, logLevel string) error {
	// Make config path absolute
	if !filepath.IsAbs(configPath) {
		wd, _ := os.Getwd()
		configPath = filepath.Join(wd, configPath)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if logLevel == "" {
		logLevel = cfg.LogLevel
	}
	logger := logging.Setup(cfg.LogFormat, logLevel, nil)

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	observer, err := pong.NewPrometheusObserver(reg)
	if err != nil {
		return err
	}

	client, err := irc.NewClient(cfg, logger, observer)
	if err != nil {
		return fmt.Errorf("failed to create IRC client: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client.OnShutdown = func() {
		client.Quit("Shutdown requested")
		stop()
	}
	client.OnRestart = func() {
		client.Quit("Restarting")
		restart(logger)
	}

	if cfg.MetricsAddr != "" {
		srv := &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           metricsHandler(reg, client.Ready),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("serving metrics", "addr", cfg.MetricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
	}

	logger.Info("connecting", "server", cfg.Server, "port", cfg.Port, "tls", cfg.TLS)
	if err := client.Connect(); err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		logger.Info("connected, entering main loop")
		client.Loop()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		client.Quit("Received shutdown signal")
		select {
		case <-loopDone:
		case <-time.After(5 * time.Second):
		}
	case <-loopDone:
	}
	return nil
}

// restart re-execs the binary without -x so it daemonizes again
func restart(logger *slog.Logger) {
	var args []string
	for _, arg := range os.Args {
		if arg != "-x" && arg != "--foreground" {
			args = append(args, arg)
		}
	}
	if err := syscall.Exec(args[0], args, os.Environ()); err != nil {
		logger.Error("failed to restart", "error", err)
		os.Exit(1)
	}
}

func metricsHandler(reg *prometheus.Registry, ready func() bool) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if !ready() {
			http.Error(w, "not connected", http.StatusServiceUnavailable)
			return
		}
		fmt.Fprintln(w, "ok")
	})
	return mux
}
