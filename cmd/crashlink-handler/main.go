// Command crashlink-handler serves the catch side of the CrashLink exception
// bridge.
//
// It listens on a Unix socket, normalizes every incoming raise regardless of
// which of the six wire variants arrived, records a pending crash report, and
// replies with the handler status. Exchanges are strictly sequential: one
// request is processed to completion before the next is accepted.
//
// Usage:
//
//	crashlink-handler [flags]
//
// Flags:
//
//	-config string   Configuration file path (YAML)
//	-socket string   Handler socket path (overrides config)
//	-reports string  Report directory (overrides config)
//	-log-file string Delivery log path (overrides config)
//	-console         Mirror delivery events to stderr
//
// Examples:
//
//	# Serve with defaults
//	crashlink-handler -socket /tmp/crashlink.sock -reports /tmp/reports
//
//	# Serve from a config file with console logging
//	crashlink-handler -config /etc/crashlink/handler.yaml -console
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/crashlink-project/crashlink-go/pkg/config"
	"github.com/crashlink-project/crashlink-go/pkg/delivery"
	"github.com/crashlink-project/crashlink-go/pkg/log"
	"github.com/crashlink-project/crashlink-go/pkg/persistence"
	"github.com/crashlink-project/crashlink-go/pkg/transport"
	"github.com/crashlink-project/crashlink-go/pkg/wire"
)

var (
	configPath string
	socketPath string
	reportDir  string
	logFile    string
	console    bool
)

func init() {
	flag.StringVar(&configPath, "config", "", "Configuration file path (YAML)")
	flag.StringVar(&socketPath, "socket", "", "Handler socket path (overrides config)")
	flag.StringVar(&reportDir, "reports", "", "Report directory (overrides config)")
	flag.StringVar(&logFile, "log-file", "", "Delivery log path (overrides config)")
	flag.BoolVar(&console, "console", false, "Mirror delivery events to stderr")
}

func main() {
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "crashlink-handler: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	timeout, err := cfg.HandlerTimeout()
	if err != nil {
		return err
	}

	logger, closeLogger, err := buildLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLogger()

	store := persistence.NewPendingReportStore(
		filepath.Join(cfg.Reports.Dir, cfg.Reports.PendingFile))
	store.SetLogger(logger)
	if cfg.Reports.WorldReadable {
		store.SetPermissions(persistence.PermissionsWorldReadable)
	}

	catcher := delivery.NewCatcher(newHandler(store, timeout))
	catcher.SetLogger(logger)

	// A stale socket from a previous run blocks the listener.
	if err := os.Remove(cfg.Channel.Path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove stale socket: %w", err)
	}
	listener, err := transport.ListenChannel(cfg.Channel.Path)
	if err != nil {
		return err
	}
	defer listener.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	slog.Info("serving exception channel", "socket", cfg.Channel.Path, "reports", cfg.Reports.Dir)

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				slog.Info("shutting down")
				return nil
			}
			return fmt.Errorf("accept failed: %w", err)
		}

		conn.SetLogger(logger)
		conn.SetMaxMessageSize(cfg.Channel.MaxMessageSize)
		serveConn(ctx, catcher, conn)
	}
}

// serveConn handles exchanges from one raiser until it disconnects.
func serveConn(ctx context.Context, catcher *delivery.Catcher, conn *transport.ChannelConn) {
	defer conn.Close()

	err := catcher.Serve(ctx, conn)
	if err == nil || errors.Is(err, context.Canceled) {
		return
	}

	var transportErr *delivery.TransportError
	if errors.As(err, &transportErr) && errors.Is(transportErr.Err, io.EOF) {
		// Raiser disconnected cleanly.
		return
	}
	slog.Warn("exchange failed", "channel", conn.ChannelID(), "error", err)
}

// newHandler returns the single exception handler: record a pending report
// and acknowledge. State-carrying raises get their input state echoed back
// unchanged.
func newHandler(store *persistence.PendingReportStore, timeout time.Duration) delivery.Handler {
	return func(ctx context.Context, exc *delivery.Exception) wire.Status {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		slog.Info("exception caught",
			"behavior", exc.Behavior.String(),
			"exception", exc.Type,
			"code", exc.Code,
			"subcode", exc.Subcode,
			"thread", uint32(exc.Thread),
			"task", uint32(exc.Task),
			"state_words", len(exc.OldState),
		)

		id, err := store.Add(persistence.PendingReport{
			Behavior:  exc.Behavior,
			Exception: exc.Type,
			Code:      exc.Code,
			Subcode:   exc.Subcode,
			Thread:    exc.Thread,
			Task:      exc.Task,
			Status:    wire.StatusSuccess,
		})
		if err != nil {
			slog.Error("failed to record report", "error", err)
			return wire.StatusFailure
		}
		if ctx.Err() != nil {
			return wire.StatusAborted
		}

		slog.Info("report recorded", "report_id", id)
		exc.NewState = exc.OldState
		return wire.StatusSuccess
	}
}

func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if configPath != "" {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return nil, err
		}
	}

	if socketPath != "" {
		cfg.Channel.Path = socketPath
	}
	if reportDir != "" {
		cfg.Reports.Dir = reportDir
	}
	if logFile != "" {
		cfg.Logging.File = logFile
	}
	if console {
		cfg.Logging.Console = true
	}
	return cfg, cfg.Validate()
}

// buildLogger assembles the delivery event logger from the logging config.
func buildLogger(cfg *config.Config) (log.Logger, func(), error) {
	var loggers []log.Logger
	closer := func() {}

	if cfg.Logging.File != "" {
		fileLogger, err := log.NewFileLogger(cfg.Logging.File)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open delivery log: %w", err)
		}
		loggers = append(loggers, fileLogger)
		closer = func() { _ = fileLogger.Close() }
	}
	if cfg.Logging.Console {
		loggers = append(loggers, log.NewSlogAdapter(slog.Default()))
	}

	switch len(loggers) {
	case 0:
		return log.NoopLogger{}, closer, nil
	case 1:
		return loggers[0], closer, nil
	default:
		return log.NewMultiLogger(loggers...), closer, nil
	}
}
