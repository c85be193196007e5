// Package events defines the notifications produced by the timer and the
// channel-based router that fans them out to sinks and user interfaces.
package events

import (
	"time"

	"github.com/npratt/cadence/internal/phase"
)

// EventType identifies the category and nature of an event.
type EventType string

// Timer notifications.
const (
	EventTick         EventType = "tick"
	EventDone         EventType = "done"
	EventToggle       EventType = "toggle"
	EventPhaseChanged EventType = "phase_changed"
	EventTimerStopped EventType = "timer_stopped"
)

// Host lifecycle events.
const (
	EventHostStart EventType = "host.start"
	EventHostStop  EventType = "host.stop"

	EventError EventType = "error"
)

// Source constants identify the origin of events.
const (
	SourceTimer = "timer"
	SourceHost  = "cadence"
)

// Event is the base interface for all events in the system.
type Event interface {
	Type() EventType
	Timestamp() time.Time
	Source() string
}

// BaseEvent provides the common fields for all events.
type BaseEvent struct {
	EventType EventType `json:"type"`
	Time      time.Time `json:"timestamp"`
	Src       string    `json:"source"`
}

// Type returns the event type.
func (e BaseEvent) Type() EventType {
	return e.EventType
}

// Timestamp returns when the event occurred.
func (e BaseEvent) Timestamp() time.Time {
	return e.Time
}

// Source returns the origin of the event.
func (e BaseEvent) Source() string {
	return e.Src
}

// TickEvent carries the remaining time once per active second.
type TickEvent struct {
	BaseEvent
	SecondsLeft uint32 `json:"seconds_left"`
}

// DoneEvent is emitted when a countdown completes naturally.
type DoneEvent struct {
	BaseEvent
}

// ToggleEvent reports the pause flag after every pause/resume and after a
// phase switch.
type ToggleEvent struct {
	BaseEvent
	Paused bool `json:"paused"`
}

// PhaseChangedEvent carries the new phase on every transition.
type PhaseChangedEvent struct {
	BaseEvent
	Phase    phase.Phase `json:"phase"`
	Sessions uint32      `json:"sessions"`
}

// TimerStoppedEvent signals that any prior loop has fully terminated after a
// phase switch.
type TimerStoppedEvent struct {
	BaseEvent
}

// HostStartEvent is emitted when the host process begins serving.
type HostStartEvent struct {
	BaseEvent
	WorkDir  string `json:"work_dir"`
	Instance string `json:"instance,omitempty"`
}

// HostStopEvent is emitted when the host process stops.
type HostStopEvent struct {
	BaseEvent
	Reason   string `json:"reason,omitempty"`
	Instance string `json:"instance,omitempty"`
}

// Severity constants for error events.
const (
	SeverityWarning = "warning"
	SeverityError   = "error"
)

// ErrorEvent is emitted for any error condition worth surfacing to a UI.
type ErrorEvent struct {
	BaseEvent
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

// NewEvent creates a BaseEvent with the given type and source.
func NewEvent(eventType EventType, source string) BaseEvent {
	return BaseEvent{
		EventType: eventType,
		Time:      time.Now(),
		Src:       source,
	}
}

// NewTimerEvent creates a BaseEvent with the timer as the source.
func NewTimerEvent(eventType EventType) BaseEvent {
	return NewEvent(eventType, SourceTimer)
}

// NewHostEvent creates a BaseEvent with the host process as the source.
func NewHostEvent(eventType EventType) BaseEvent {
	return NewEvent(eventType, SourceHost)
}

// Tick builds a tick notification.
func Tick(secondsLeft uint32) *TickEvent {
	return &TickEvent{BaseEvent: NewTimerEvent(EventTick), SecondsLeft: secondsLeft}
}

// Done builds a completion notification.
func Done() *DoneEvent {
	return &DoneEvent{BaseEvent: NewTimerEvent(EventDone)}
}

// Toggle builds a pause-state notification.
func Toggle(paused bool) *ToggleEvent {
	return &ToggleEvent{BaseEvent: NewTimerEvent(EventToggle), Paused: paused}
}

// PhaseChanged builds a phase transition notification.
func PhaseChanged(c phase.Cycle) *PhaseChangedEvent {
	return &PhaseChangedEvent{
		BaseEvent: NewTimerEvent(EventPhaseChanged),
		Phase:     c.Phase,
		Sessions:  c.Sessions,
	}
}

// TimerStopped builds a stopped notification.
func TimerStopped() *TimerStoppedEvent {
	return &TimerStoppedEvent{BaseEvent: NewTimerEvent(EventTimerStopped)}
}
