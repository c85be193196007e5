package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/npratt/cadence/internal/config"
	"github.com/npratt/cadence/internal/control"
	"github.com/npratt/cadence/internal/controller"
	"github.com/npratt/cadence/internal/daemon"
	"github.com/npratt/cadence/internal/events"
	"github.com/npratt/cadence/internal/exec"
	"github.com/npratt/cadence/internal/hooks"
	"github.com/npratt/cadence/internal/metrics"
	"github.com/npratt/cadence/internal/phase"
	"github.com/npratt/cadence/internal/shutdown"
	"github.com/npratt/cadence/internal/tui"
)

const (
	// shutdownTimeout bounds the graceful stop after SIGINT/SIGTERM.
	shutdownTimeout = 10 * time.Second
	// tuiBufferSize is the TUI subscription buffer; ticks arrive every second.
	tuiBufferSize = 1000
)

// loadServeConfig loads configuration and applies explicitly set flags.
func loadServeConfig(cmd *cobra.Command) (*config.Config, string, error) {
	cfg, err := config.LoadConfig(viper.GetViper())
	if err != nil {
		return nil, "", fmt.Errorf("load config: %w", err)
	}

	if cmd.Flags().Changed(FlagLogFile) {
		cfg.Paths.Log = viper.GetString(FlagLogFile)
	}
	if cmd.Flags().Changed(FlagEventLog) {
		cfg.Paths.EventLog = viper.GetString(FlagEventLog)
	}
	if cmd.Flags().Changed(FlagSocketPath) {
		cfg.Paths.Socket = viper.GetString(FlagSocketPath)
	}
	if cmd.Flags().Changed(FlagMetricsAddr) {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Addr = viper.GetString(FlagMetricsAddr)
	}

	projectRoot := daemon.FindProjectRoot("")
	cfg.Paths, err = daemon.ResolvePaths(cfg.Paths, projectRoot)
	if err != nil {
		return nil, "", fmt.Errorf("resolve paths: %w", err)
	}
	return cfg, projectRoot, nil
}

// runServe hosts the timer: control socket, event log, hooks, metrics and,
// in the foreground, the TUI.
func runServe(cmd *cobra.Command, logger *slog.Logger, logLevel *slog.LevelVar) error {
	daemonMode := viper.GetBool(FlagDaemon)

	// Explicit flag wins; otherwise use the TUI when attached to a terminal.
	tuiEnabled := viper.GetBool(FlagTUI)
	if !cmd.Flags().Changed(FlagTUI) && !daemonMode {
		tuiEnabled = term.IsTerminal(int(os.Stdout.Fd()))
	}
	if tuiEnabled && daemonMode {
		return errors.New("--tui and --daemon flags are incompatible")
	}

	cfg, projectRoot, err := loadServeConfig(cmd)
	if err != nil {
		return err
	}

	if daemonMode {
		client := daemon.NewClient(cfg.Paths.Socket)
		if client.IsRunning() {
			return fmt.Errorf("daemon already running (socket: %s)", cfg.Paths.Socket)
		}

		shouldExit, _, err := daemon.Daemonize(cfg.Paths.Socket, cmd.OutOrStdout())
		if err != nil {
			return fmt.Errorf("daemonize: %w", err)
		}
		if shouldExit {
			return nil
		}
	}

	// The TUI owns the terminal and a daemonized child has no stderr.
	if tuiEnabled || daemon.IsDaemonized() {
		fileLog, err := SetupFileLogger(cfg.Paths.Log, logLevel, cfg.LogRotation)
		if err != nil {
			return err
		}
		defer func() { _ = fileLog.Close() }()
		logger = fileLog.Logger
		slog.SetDefault(logger)
	}

	pidFile := daemon.NewPIDFile(cfg.Paths.PID)
	pidFile.CleanupStale(cfg.Paths.Socket)
	if err := pidFile.Write(); err != nil {
		if errors.Is(err, daemon.ErrAlreadyRunning) {
			return fmt.Errorf("cadence is already serving this project (pid file: %s)", cfg.Paths.PID)
		}
		return err
	}
	defer func() { _ = pidFile.Remove() }()

	logger.Info("cadence starting",
		"version", version,
		"socket", cfg.Paths.Socket,
		"event_log", cfg.Paths.EventLog,
		"work", cfg.Timer.Work,
		"daemon_mode", daemonMode,
		"tui", tuiEnabled,
	)

	infoPath := daemon.DaemonInfoPath(projectRoot)
	if err := os.MkdirAll(filepath.Dir(infoPath), 0755); err != nil {
		return fmt.Errorf("create %s directory: %w", daemon.StateDir, err)
	}
	instanceID := uuid.NewString()
	info := &daemon.DaemonInfo{
		InstanceID:   instanceID,
		SocketPath:   cfg.Paths.Socket,
		PIDPath:      cfg.Paths.PID,
		LogPath:      cfg.Paths.Log,
		EventLogPath: cfg.Paths.EventLog,
		StartTime:    time.Now(),
		PID:          os.Getpid(),
	}
	if cfg.Metrics.Enabled {
		info.MetricsAddr = cfg.Metrics.Addr
	}
	if err := daemon.WriteDaemonInfo(infoPath, info); err != nil {
		logger.Warn("failed to write daemon info", "error", err)
	}
	defer func() { _ = daemon.RemoveDaemonInfo(infoPath) }()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	router := events.NewRouter(events.DefaultBufferSize)
	router.SetLogger(logger)
	defer router.Close()

	if cfg.EventLog.Enabled && cfg.Paths.EventLog != "" {
		opts := []events.LogSinkOption{events.WithSinkLogger(logger)}
		if !cfg.EventLog.IncludeTicks {
			opts = append(opts, events.WithoutTypes(events.EventTick))
		}
		logSink := events.NewLogSink(cfg.Paths.EventLog, opts...)
		if err := logSink.Start(ctx, router.Subscribe()); err != nil {
			return fmt.Errorf("start event log: %w", err)
		}
		defer func() {
			// Closing the router lets the sink drain what is buffered.
			router.Close()
			_ = logSink.Stop()
		}()
	}

	if cfg.Hooks.Enabled() {
		hookRunner := hooks.New(cfg.Hooks, exec.NewExecRunner(), logger)
		go hookRunner.Run(ctx, router.Subscribe())
	}

	if cfg.Metrics.Enabled {
		go func() {
			if err := metrics.Serve(ctx, cfg.Metrics.Addr, logger); err != nil {
				logger.Error("metrics server error", "error", err)
			}
		}()
	}

	state := control.New(cfg.Timer.Durations().Seconds(phase.Work))
	ctrl := controller.New(cfg.Timer, state, router,
		controller.WithLogger(logger),
		controller.WithInstanceID(instanceID),
	)

	dmn := daemon.New(cfg.Paths.Socket, ctrl, logger)
	daemonCtx, daemonCancel := context.WithCancel(ctx)
	daemonDone := make(chan struct{})
	go func() {
		defer close(daemonDone)
		if err := dmn.Start(daemonCtx); err != nil {
			logger.Error("daemon server error", "error", err)
		}
	}()
	stopDaemon := func() {
		daemonCancel()
		<-daemonDone
	}

	if tuiEnabled {
		tuiEvents := router.SubscribeBuffered(tuiBufferSize)
		app := tui.New(tuiEvents, tui.WithTimer(ctrl), tui.WithOnQuit(ctrl.Stop))

		ctrlDone := make(chan error, 1)
		go func() {
			ctrlDone <- ctrl.Run(ctx)
			// Closing the router ends the TUI when the host is stopped
			// from the CLI.
			router.Close()
		}()

		tuiErr := app.Run()
		ctrl.Stop()
		err := <-ctrlDone
		stopDaemon()
		return errors.Join(tuiErr, err)
	}

	err = shutdown.RunWithGracefulShutdown(ctx, logger, shutdownTimeout,
		ctrl.Run,
		func(context.Context) error {
			ctrl.Stop()
			return nil
		},
	)
	stopDaemon()
	return err
}
