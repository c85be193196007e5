package tui

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"

	"github.com/npratt/cadence/internal/events"
)

// isTerminal returns true if both stdout and stdin are TTYs.
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd())) && term.IsTerminal(int(os.Stdin.Fd()))
}

// terminalSize returns the current terminal width and height.
// Returns 0, 0 if the terminal size cannot be determined.
func terminalSize() (width, height int) {
	width, height, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 0, 0
	}
	return width, height
}

// terminalTooSmall returns true if the terminal is below the minimum size.
func terminalTooSmall() bool {
	width, height := terminalSize()
	return width < minWidth || height < minHeight
}

// runSimple prints every event except ticks to stdout until the channel
// closes or the process is interrupted.
func (t *TUI) runSimple() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	for {
		select {
		case <-sigChan:
			if t.onQuit != nil {
				t.onQuit()
			}
			return nil
		case event, ok := <-t.eventChan:
			if !ok {
				return nil
			}
			if line := simpleLine(event); line != "" {
				fmt.Println(line)
			}
		}
	}
}

// simpleLine formats an event for line output. Ticks are only printed on
// whole minutes so the output stays readable.
func simpleLine(event events.Event) string {
	if tick, ok := event.(*events.TickEvent); ok && tick.SecondsLeft%60 != 0 {
		return ""
	}
	return events.FormatWithTimestamp(event)
}
