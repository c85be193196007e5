// Package config provides configuration types and defaults for cadence.
package config

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/npratt/cadence/internal/phase"
)

// Config holds all configuration for cadence.
type Config struct {
	Timer       TimerConfig       `yaml:"timer" mapstructure:"timer"`
	Paths       PathsConfig       `yaml:"paths" mapstructure:"paths"`
	EventLog    EventLogConfig    `yaml:"event_log" mapstructure:"event_log"`
	LogRotation LogRotationConfig `yaml:"log_rotation" mapstructure:"log_rotation"`
	Metrics     MetricsConfig     `yaml:"metrics" mapstructure:"metrics"`
	Hooks       HooksConfig       `yaml:"hooks" mapstructure:"hooks"`
}

// TimerConfig holds phase lengths and countdown loop cadences.
type TimerConfig struct {
	Work       time.Duration `yaml:"work" mapstructure:"work"`
	ShortBreak time.Duration `yaml:"short_break" mapstructure:"short_break"`
	LongBreak  time.Duration `yaml:"long_break" mapstructure:"long_break"`

	TickInterval    time.Duration `yaml:"tick_interval" mapstructure:"tick_interval"`       // Active loop cadence
	PausePoll       time.Duration `yaml:"pause_poll" mapstructure:"pause_poll"`             // Upper bound on a paused wait
	CompletionGrace time.Duration `yaml:"completion_grace" mapstructure:"completion_grace"` // Wait after the final tick
	SwitchGrace     time.Duration `yaml:"switch_grace" mapstructure:"switch_grace"`         // Wait between phase_changed and toggle
	SwitchTimeout   time.Duration `yaml:"switch_timeout" mapstructure:"switch_timeout"`     // Max wait for a loop to stop on skip

	// AutoDuration loads the next phase's length after every transition.
	AutoDuration bool `yaml:"auto_duration" mapstructure:"auto_duration"`
}

// Durations returns the configured per-phase lengths.
func (t TimerConfig) Durations() phase.Durations {
	return phase.Durations{
		Work:       t.Work,
		ShortBreak: t.ShortBreak,
		LongBreak:  t.LongBreak,
	}
}

// PathsConfig holds file paths for logs, socket, and pid file.
type PathsConfig struct {
	Log      string `yaml:"log" mapstructure:"log"`
	EventLog string `yaml:"event_log" mapstructure:"event_log"`
	Socket   string `yaml:"socket" mapstructure:"socket"`
	PID      string `yaml:"pid" mapstructure:"pid"`
}

// EventLogConfig controls what the JSONL event log records.
type EventLogConfig struct {
	Enabled      bool `yaml:"enabled" mapstructure:"enabled"`
	IncludeTicks bool `yaml:"include_ticks" mapstructure:"include_ticks"`
}

// LogRotationConfig holds settings for log file rotation.
// Used for the TUI debug log (lumberjack-based automatic rotation).
type LogRotationConfig struct {
	MaxSizeMB  int  `yaml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int  `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int  `yaml:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool `yaml:"compress" mapstructure:"compress"`
}

// MetricsConfig controls the prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Addr    string `yaml:"addr" mapstructure:"addr"`
}

// HooksConfig lists commands run on timer notifications. Each command is an
// argv list; a one-line description of the event is appended as the last
// argument.
type HooksConfig struct {
	OnPhaseChange []string      `yaml:"on_phase_change" mapstructure:"on_phase_change"`
	OnDone        []string      `yaml:"on_done" mapstructure:"on_done"`
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// Enabled reports whether any hook command is configured.
func (h HooksConfig) Enabled() bool {
	return len(h.OnPhaseChange) > 0 || len(h.OnDone) > 0
}

// Default returns a Config with the classic 25/5/15 minute cycle.
func Default() *Config {
	return &Config{
		Timer: TimerConfig{
			Work:            25 * time.Minute,
			ShortBreak:      5 * time.Minute,
			LongBreak:       15 * time.Minute,
			TickInterval:    time.Second,
			PausePoll:       50 * time.Millisecond,
			CompletionGrace: time.Second,
			SwitchGrace:     10 * time.Millisecond,
			SwitchTimeout:   2 * time.Second,
			AutoDuration:    true,
		},
		Paths: PathsConfig{
			Log:      ".cadence/cadence.log",
			EventLog: ".cadence/events.jsonl",
			Socket:   ".cadence/cadence.sock",
			PID:      ".cadence/cadence.pid",
		},
		EventLog: EventLogConfig{
			Enabled:      true,
			IncludeTicks: false,
		},
		LogRotation: LogRotationConfig{
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 7,
			Compress:   true,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    "127.0.0.1:9464",
		},
		Hooks: HooksConfig{
			OnPhaseChange: []string{},
			OnDone:        []string{},
			Timeout:       10 * time.Second,
		},
	}
}

// Validate reports configuration values the timer cannot run with.
func (c *Config) Validate() error {
	var errs []error

	t := c.Timer
	for _, d := range []struct {
		name string
		val  time.Duration
	}{
		{"timer.work", t.Work},
		{"timer.short_break", t.ShortBreak},
		{"timer.long_break", t.LongBreak},
	} {
		if d.val < time.Second {
			errs = append(errs, fmt.Errorf("%s must be at least 1s, got %v", d.name, d.val))
		}
	}

	for _, d := range []struct {
		name string
		val  time.Duration
	}{
		{"timer.tick_interval", t.TickInterval},
		{"timer.pause_poll", t.PausePoll},
		{"timer.switch_timeout", t.SwitchTimeout},
	} {
		if d.val <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %v", d.name, d.val))
		}
	}

	if t.CompletionGrace < 0 {
		errs = append(errs, fmt.Errorf("timer.completion_grace must not be negative, got %v", t.CompletionGrace))
	}
	if t.SwitchGrace < 0 {
		errs = append(errs, fmt.Errorf("timer.switch_grace must not be negative, got %v", t.SwitchGrace))
	}

	if c.Paths.Socket == "" {
		errs = append(errs, errors.New("paths.socket must be set"))
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		errs = append(errs, errors.New("metrics.addr must be set when metrics are enabled"))
	}

	if c.Hooks.Enabled() && c.Hooks.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("hooks.timeout must be positive, got %v", c.Hooks.Timeout))
	}

	return errors.Join(errs...)
}

// ParseSeconds converts a phase length given as a Go duration ("25m",
// "90s") or a bare number of seconds into whole seconds.
func ParseSeconds(s string) (uint32, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty duration")
	}

	if n, err := strconv.ParseUint(s, 10, 32); err == nil {
		return uint32(n), nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid duration %q: negative", s)
	}
	secs := d / time.Second
	if secs > math.MaxUint32 {
		return 0, fmt.Errorf("invalid duration %q: too long", s)
	}
	return uint32(secs), nil
}

// Dump renders the configuration in the same YAML shape the config files use.
func Dump(c *Config) ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal config yaml: %w", err)
	}
	return data, nil
}
