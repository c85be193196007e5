// Package metrics exposes prometheus collectors for the timer loop and the
// notification router.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/npratt/cadence/internal/phase"
)

// Timer loop metrics
var (
	// TicksTotal counts tick notifications emitted by the loop
	TicksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cadence_ticks_total",
			Help: "Total tick notifications emitted",
		},
	)

	// LoopsStartedTotal counts loops that acquired the run slot
	LoopsStartedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cadence_loops_started_total",
			Help: "Total timer loops started",
		},
	)

	// StartsRejectedTotal counts start requests ignored because a loop was active
	StartsRejectedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cadence_starts_rejected_total",
			Help: "Start requests ignored because a loop already held the run slot",
		},
	)

	// ResetsTotal counts reset requests
	ResetsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cadence_resets_total",
			Help: "Total reset requests",
		},
	)

	// PhaseTransitionsTotal counts phase changes by origin, target and trigger
	PhaseTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cadence_phase_transitions_total",
			Help: "Phase transitions by from, to and trigger (completed/skipped)",
		},
		[]string{"from", "to", "trigger"},
	)

	// RemainingSeconds is the last remaining time reported by a tick
	RemainingSeconds = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cadence_remaining_seconds",
			Help: "Seconds left in the current phase as of the last tick",
		},
	)

	// CurrentPhase is 1 for the active phase and 0 for the others
	CurrentPhase = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cadence_current_phase",
			Help: "Current phase (1 = active)",
		},
		[]string{"phase"},
	)

	// Paused is 1 while the timer is paused
	Paused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cadence_paused",
			Help: "Whether the timer is paused (1) or not (0)",
		},
	)
)

// Event router metrics
var (
	// EventsDroppedTotal counts notifications dropped on full subscriber buffers
	EventsDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cadence_events_dropped_total",
			Help: "Notifications dropped because a subscriber buffer was full",
		},
		[]string{"event_type"},
	)
)

// Trigger labels for PhaseTransitionsTotal.
const (
	TriggerCompleted = "completed"
	TriggerSkipped   = "skipped"
)

// SetPhase marks p as the current phase.
func SetPhase(p phase.Phase) {
	for _, candidate := range []phase.Phase{phase.Work, phase.ShortBreak, phase.LongBreak} {
		v := 0.0
		if candidate == p {
			v = 1
		}
		CurrentPhase.WithLabelValues(candidate.String()).Set(v)
	}
}

// SetPaused records the pause flag.
func SetPaused(paused bool) {
	if paused {
		Paused.Set(1)
		return
	}
	Paused.Set(0)
}

// RecordTransition counts one phase change.
func RecordTransition(from, to phase.Phase, trigger string) {
	PhaseTransitionsTotal.WithLabelValues(from.String(), to.String(), trigger).Inc()
	SetPhase(to)
}
