package metrics

import (
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/npratt/cadence/internal/phase"
)

func TestMetricsRegistration(t *testing.T) {
	collectors := []prometheus.Collector{
		TicksTotal,
		LoopsStartedTotal,
		StartsRejectedTotal,
		ResetsTotal,
		PhaseTransitionsTotal,
		RemainingSeconds,
		CurrentPhase,
		Paused,
		EventsDroppedTotal,
	}

	for _, c := range collectors {
		desc := make(chan *prometheus.Desc, 10)
		c.Describe(desc)
		close(desc)

		require.NotNil(t, <-desc, "collector should have a valid descriptor")
	}
}

func TestSetPhase(t *testing.T) {
	SetPhase(phase.ShortBreak)

	assert.Equal(t, 1.0, testutil.ToFloat64(CurrentPhase.WithLabelValues("short_break")))
	assert.Equal(t, 0.0, testutil.ToFloat64(CurrentPhase.WithLabelValues("work")))
	assert.Equal(t, 0.0, testutil.ToFloat64(CurrentPhase.WithLabelValues("long_break")))
}

func TestRecordTransition(t *testing.T) {
	counter := PhaseTransitionsTotal.WithLabelValues("work", "long_break", TriggerSkipped)
	before := testutil.ToFloat64(counter)

	RecordTransition(phase.Work, phase.LongBreak, TriggerSkipped)

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
	assert.Equal(t, 1.0, testutil.ToFloat64(CurrentPhase.WithLabelValues("long_break")))
}

func TestSetPaused(t *testing.T) {
	SetPaused(true)
	assert.Equal(t, 1.0, testutil.ToFloat64(Paused))
	SetPaused(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(Paused))
}

func TestServe(t *testing.T) {
	// Reserve a free port, then hand it to Serve.
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, addr, nil)
	}()

	TicksTotal.Inc()

	var body string
	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/metrics")
		if err != nil {
			return false
		}
		defer func() { _ = resp.Body.Close() }()
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return false
		}
		body = string(data)
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	assert.True(t, strings.Contains(body, "cadence_ticks_total"))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
