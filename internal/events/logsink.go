package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// Sink consumes events from the router.
type Sink interface {
	Start(ctx context.Context, events <-chan Event) error
	Stop() error
}

// LogSink writes events to a JSON lines file that `cadence events` tails.
type LogSink struct {
	path    string
	file    *os.File
	encoder *json.Encoder
	skip    map[EventType]bool
	backups int
	logger  *slog.Logger
	mu      sync.Mutex
	done    chan struct{}
}

// DefaultLogBackups is how many rotated event logs a LogSink keeps.
const DefaultLogBackups = 5

// LogSinkOption configures a LogSink.
type LogSinkOption func(*LogSink)

// WithoutTypes keeps the given event types out of the log file.
// Ticks arrive once per second and are usually excluded.
func WithoutTypes(types ...EventType) LogSinkOption {
	return func(s *LogSink) {
		for _, t := range types {
			s.skip[t] = true
		}
	}
}

// WithBackups sets how many rotated logs survive a restart. Zero keeps none.
func WithBackups(n int) LogSinkOption {
	return func(s *LogSink) {
		if n >= 0 {
			s.backups = n
		}
	}
}

// WithSinkLogger sets where write and rotation failures are reported.
func WithSinkLogger(logger *slog.Logger) LogSinkOption {
	return func(s *LogSink) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewLogSink creates a new LogSink that writes to the specified path.
func NewLogSink(path string, opts ...LogSinkOption) *LogSink {
	s := &LogSink{
		path:    path,
		skip:    make(map[EventType]bool),
		backups: DefaultLogBackups,
		logger:  slog.Default(),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens the log file and begins processing events.
// It runs until the context is canceled or the events channel is closed.
func (s *LogSink) Start(ctx context.Context, events <-chan Event) error {
	if err := s.openFile(); err != nil {
		return err
	}

	go s.run(ctx, events)
	return nil
}

// backupLayout is the timestamp suffix of rotated logs. It sorts
// chronologically as a string.
const backupLayout = "2006-01-02T15-04-05.000"

func (s *LogSink) openFile() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}

	if err := s.rotateExistingLog(); err != nil {
		return err
	}
	s.pruneBackups()

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}

	s.mu.Lock()
	s.file = file
	s.encoder = json.NewEncoder(file)
	s.mu.Unlock()

	return nil
}

// rotateExistingLog moves a non-empty log from the previous run aside so
// each host run starts a fresh file for `cadence events --follow`.
func (s *LogSink) rotateExistingLog() error {
	info, err := os.Stat(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("stat log file: %w", err)
	}
	if info.Size() == 0 {
		return nil
	}

	bakPath := fmt.Sprintf("%s.%s.bak", s.path, time.Now().Format(backupLayout))
	if err := os.Rename(s.path, bakPath); err != nil {
		return fmt.Errorf("rotate log file: %w", err)
	}
	return nil
}

// pruneBackups deletes the oldest rotated logs beyond the configured count.
func (s *LogSink) pruneBackups() {
	backups, err := filepath.Glob(s.path + ".*.bak")
	if err != nil || len(backups) <= s.backups {
		return
	}

	sort.Strings(backups)
	for _, old := range backups[:len(backups)-s.backups] {
		if err := os.Remove(old); err != nil {
			s.logger.Warn("remove old event log", "path", old, "error", err)
		}
	}
}

func (s *LogSink) run(ctx context.Context, events <-chan Event) {
	defer close(s.done)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			s.write(event)
		}
	}
}

func (s *LogSink) write(event Event) {
	if s.skip[event.Type()] {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.encoder == nil {
		return
	}

	if err := s.encoder.Encode(event); err != nil {
		s.logger.Warn("write event log", "type", event.Type(), "error", err)
	}
}

// Stop closes the log file.
func (s *LogSink) Stop() error {
	<-s.done

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file != nil {
		err := s.file.Close()
		s.file = nil
		s.encoder = nil
		return err
	}
	return nil
}

// Path returns the log file path.
func (s *LogSink) Path() string {
	return s.path
}
