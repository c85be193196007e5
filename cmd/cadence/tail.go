package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/npratt/cadence/internal/events"
)

// tailLast prints the last n lines of the event log.
func tailLast(out io.Writer, path string, n int) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			_, _ = fmt.Fprintln(out, "No events yet (event log does not exist)")
			return nil
		}
		return fmt.Errorf("open event log: %w", err)
	}
	defer func() { _ = file.Close() }()

	// Ring of the last n lines.
	lines := make([]string, 0, max(n, 1))
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if n <= 0 {
			continue
		}
		if len(lines) == n {
			lines = lines[1:]
		}
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read event log: %w", err)
	}

	if len(lines) == 0 {
		_, _ = fmt.Fprintln(out, "No events yet")
		return nil
	}

	for _, line := range lines {
		_, _ = fmt.Fprintln(out, events.FormatLine(line))
	}
	return nil
}

// tailFollow prints lines appended to the event log until ctx is done.
func tailFollow(ctx context.Context, out io.Writer, path string) error {
	return followLog(ctx, out, path, nil)
}

// followLog watches the event log's directory so it sees the file being
// created as well as written. A Create on the log name means a new host run
// rotated the old file away; the new file is read from its start. ready, if
// non-nil, is closed once the watch is in place.
func followLog(ctx context.Context, out io.Writer, path string, ready chan<- struct{}) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	target := filepath.Base(path)

	f := &follower{out: out}
	defer f.close()

	if err := f.open(path, io.SeekEnd); err != nil {
		if !os.IsNotExist(err) {
			return err
		}
		_, _ = fmt.Fprintln(out, "Waiting for event log to be created...")
	}
	if ready != nil {
		close(ready)
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != target {
				continue
			}

			if event.Has(fsnotify.Create) && !f.isCurrent(path) {
				f.close()
				if err := f.open(path, io.SeekStart); err != nil && !os.IsNotExist(err) {
					return err
				}
			}
			if event.Has(fsnotify.Write) && f.file == nil {
				if err := f.open(path, io.SeekStart); err != nil && !os.IsNotExist(err) {
					return err
				}
			}
			if err := f.drain(); err != nil {
				return err
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch event log: %w", err)
		}
	}
}

// follower reads complete lines from the currently open event log.
type follower struct {
	out     io.Writer
	file    *os.File
	reader  *bufio.Reader
	partial strings.Builder
}

func (f *follower) open(path string, whence int) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return err
		}
		return fmt.Errorf("open event log: %w", err)
	}
	if _, err := file.Seek(0, whence); err != nil {
		_ = file.Close()
		return fmt.Errorf("seek event log: %w", err)
	}
	f.file = file
	f.reader = bufio.NewReader(file)
	f.partial.Reset()
	return nil
}

// isCurrent reports whether path still names the open file.
func (f *follower) isCurrent(path string) bool {
	if f.file == nil {
		return false
	}
	open, err := f.file.Stat()
	if err != nil {
		return false
	}
	named, err := os.Stat(path)
	if err != nil {
		return false
	}
	return os.SameFile(open, named)
}

// drain prints every complete line up to EOF and keeps a trailing partial
// line for the next write.
func (f *follower) drain() error {
	if f.file == nil {
		return nil
	}
	for {
		line, err := f.reader.ReadString('\n')
		f.partial.WriteString(line)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read event log: %w", err)
		}
		_, _ = fmt.Fprintln(f.out, events.FormatLine(strings.TrimSuffix(f.partial.String(), "\n")))
		f.partial.Reset()
	}
}

func (f *follower) close() {
	if f.file != nil {
		_ = f.file.Close()
		f.file = nil
		f.reader = nil
	}
}
