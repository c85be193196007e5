package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/npratt/cadence/internal/config"
	"github.com/npratt/cadence/internal/daemon"
	"github.com/npratt/cadence/internal/events"
)

var version = "dev"

// getDaemonClient creates a daemon client from daemon.json, falling back to
// the configured socket path.
func getDaemonClient() (*daemon.Client, error) {
	if info, err := daemon.FindDaemonInfo(""); err == nil {
		return daemon.NewClient(info.SocketPath), nil
	}

	sock := viper.GetString(FlagSocketPath)
	if sock == "" {
		cfg, err := config.LoadConfig(viper.GetViper())
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		sock = cfg.Paths.Socket
	}
	paths, err := daemon.ResolvePaths(config.PathsConfig{Socket: sock}, daemon.FindProjectRoot(""))
	if err != nil {
		return nil, fmt.Errorf("resolve socket path: %w", err)
	}
	return daemon.NewClient(paths.Socket), nil
}

// eventLogPath finds the event log of the running host, or the configured
// default when no host is running.
func eventLogPath() (string, error) {
	if info, err := daemon.FindDaemonInfo(""); err == nil && info.EventLogPath != "" {
		return info.EventLogPath, nil
	}

	cfg, err := config.LoadConfig(viper.GetViper())
	if err != nil {
		return "", fmt.Errorf("load config: %w", err)
	}
	paths, err := daemon.ResolvePaths(cfg.Paths, daemon.FindProjectRoot(""))
	if err != nil {
		return "", fmt.Errorf("resolve paths: %w", err)
	}
	return paths.EventLog, nil
}

// printStatus writes the human-readable status report.
func printStatus(out io.Writer, status *daemon.StatusResponse) {
	state := "idle"
	switch {
	case status.Paused:
		state = "paused"
	case status.Running:
		state = "running"
	}

	_, _ = fmt.Fprintf(out, "Phase: %s\n", status.Label)
	_, _ = fmt.Fprintf(out, "State: %s\n", state)
	_, _ = fmt.Fprintf(out, "Remaining: %s of %s\n",
		events.FormatClock(status.Remaining), events.FormatClock(status.Duration))
	_, _ = fmt.Fprintf(out, "Sessions: %d\n", status.Sessions)
	_, _ = fmt.Fprintf(out, "Uptime: %s\n", status.Uptime)
	_, _ = fmt.Fprintf(out, "PID: %d\n", status.PID)
}

// clientCommand builds a command that runs fn against the daemon client.
func clientCommand(use, short string, fn func(cmd *cobra.Command, client *daemon.Client) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getDaemonClient()
			if err != nil {
				return err
			}
			return fn(cmd, client)
		},
	}
}

func newRootCmd(logger *slog.Logger, logLevel *slog.LevelVar) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cadence",
		Short: "Focus/break cycle timer",
		Long: `cadence is a focus/break cycle timer. A host process runs the countdown
and moves Work -> Short Break -> Work, with a Long Break after every fourth
work session. The host is controlled over a Unix socket by the commands
below or from its terminal UI.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if viper.GetBool(FlagVerbose) {
				logLevel.Set(slog.LevelDebug)
				logger.Debug("verbose logging enabled")
			}
		},
	}

	rootCmd.PersistentFlags().Bool(FlagVerbose, false, "Enable verbose (debug) logging")
	rootCmd.PersistentFlags().String(FlagConfig, "", "Config file path (default: .cadence/config.yaml)")
	rootCmd.PersistentFlags().String(FlagSocketPath, "", "Unix socket path for daemon control")
	rootCmd.PersistentFlags().VisitAll(func(f *pflag.Flag) {
		_ = viper.BindPFlag(f.Name, f)
	})

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "cadence %s\n", version)
		},
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Host the timer",
		Long: `Host the timer and its control socket.

In a terminal the host shows the TUI. Use --daemon to run it in the
background and drive it with start, toggle, reset and skip.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, logger, logLevel)
		},
	}
	serveCmd.Flags().Bool(FlagDaemon, false, "Run as a background daemon")
	serveCmd.Flags().Bool(FlagTUI, false, "Enable terminal UI")
	serveCmd.Flags().String(FlagLogFile, "", "Log file path")
	serveCmd.Flags().String(FlagEventLog, "", "Event log (JSON lines) path")
	serveCmd.Flags().String(FlagMetricsAddr, "", "Serve Prometheus metrics on this address")
	serveCmd.Flags().VisitAll(func(f *pflag.Flag) {
		_ = viper.BindPFlag(f.Name, f)
	})

	startCmd := clientCommand("start", "Start the countdown", func(cmd *cobra.Command, client *daemon.Client) error {
		started, err := client.Start()
		if err != nil {
			return err
		}
		if started {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Countdown started")
		} else {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Countdown already running")
		}
		return nil
	})

	toggleCmd := clientCommand("toggle", "Pause or resume the countdown", func(cmd *cobra.Command, client *daemon.Client) error {
		paused, err := client.Toggle()
		if err != nil {
			return err
		}
		if paused {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Paused")
		} else {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Resumed")
		}
		return nil
	})

	resetCmd := clientCommand("reset", "Stop the countdown without changing phase", func(cmd *cobra.Command, client *daemon.Client) error {
		if err := client.Reset(); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Countdown reset")
		return nil
	})

	skipCmd := clientCommand("skip", "Switch to the next phase now", func(cmd *cobra.Command, client *daemon.Client) error {
		cycle, err := client.SwitchPhase()
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Now in %s (%d sessions done)\n", cycle.Phase.Label(), cycle.Sessions)
		return nil
	})

	setTimeCmd := &cobra.Command{
		Use:   "set-time <duration|seconds>",
		Short: "Set the length of the current phase",
		Long: `Set the length of the current phase, e.g. "25m", "90s" or "1500".
A running countdown picks up the new length on its next tick.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seconds, err := config.ParseSeconds(args[0])
			if err != nil {
				return err
			}
			client, err := getDaemonClient()
			if err != nil {
				return err
			}
			if err := client.InitTime(seconds); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Duration set to %s\n", events.FormatClock(seconds))
			return nil
		},
	}

	statusCmd := clientCommand("status", "Show timer status", func(cmd *cobra.Command, client *daemon.Client) error {
		status, err := client.Status()
		if err != nil {
			return err
		}

		if viper.GetBool(FlagJSON) {
			data, err := json.MarshalIndent(status, "", "  ")
			if err != nil {
				return fmt.Errorf("marshal status: %w", err)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		}

		printStatus(cmd.OutOrStdout(), status)
		return nil
	})
	statusCmd.Flags().Bool(FlagJSON, false, "Output status as JSON")
	_ = viper.BindPFlag(FlagJSON, statusCmd.Flags().Lookup(FlagJSON))

	stopCmd := clientCommand("stop", "Stop the host", func(cmd *cobra.Command, client *daemon.Client) error {
		if err := client.Shutdown(); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Stop requested")
		return nil
	})

	eventsCmd := &cobra.Command{
		Use:   "events",
		Short: "View recent events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := eventLogPath()
			if err != nil {
				return err
			}
			if path == "" {
				return fmt.Errorf("event log is disabled")
			}

			if viper.GetBool(FlagFollow) {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Following events (Ctrl+C to stop)...")
				return tailFollow(cmd.Context(), cmd.OutOrStdout(), path)
			}
			return tailLast(cmd.OutOrStdout(), path, viper.GetInt(FlagCount))
		},
	}
	eventsCmd.Flags().Bool(FlagFollow, false, "Follow event stream (like tail -f)")
	eventsCmd.Flags().Int(FlagCount, 20, "Number of recent events to show")
	eventsCmd.Flags().VisitAll(func(f *pflag.Flag) {
		_ = viper.BindPFlag(f.Name, f)
	})

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadServeConfig(cmd)
			if err != nil {
				return err
			}
			data, err := config.Dump(cfg)
			if err != nil {
				return err
			}
			_, _ = cmd.OutOrStdout().Write(data)
			return nil
		},
	}

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(toggleCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(skipCmd)
	rootCmd.AddCommand(setTimeCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(eventsCmd)

	return rootCmd
}

func main() {
	logLevel := &slog.LevelVar{}
	logger := NewLogger(os.Stderr, logLevel)
	slog.SetDefault(logger)

	viper.SetEnvPrefix("CADENCE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := newRootCmd(logger, logLevel).ExecuteContext(ctx); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}
