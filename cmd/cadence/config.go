package main

// Flag names for Viper binding
const (
	// Global flags
	FlagVerbose    = "verbose"
	FlagConfig     = "config"
	FlagSocketPath = "socket-path"

	// Serve command flags
	FlagDaemon      = "daemon"
	FlagTUI         = "tui"
	FlagLogFile     = "log-file"
	FlagEventLog    = "event-log"
	FlagMetricsAddr = "metrics-addr"

	// Events command flags
	FlagFollow = "follow"
	FlagCount  = "count"

	// Output format flags
	FlagJSON = "json"
)
