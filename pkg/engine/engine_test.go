package engine

import (
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trumenapp/go-tileguard/pkg/models"
	"github.com/trumenapp/go-tileguard/pkg/telemetry"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// captureSink records events on a channel so tests can wait for the async
// dispatch.
type captureSink struct {
	events chan telemetry.Event
}

func newCaptureSink() *captureSink {
	return &captureSink{events: make(chan telemetry.Event, 16)}
}

func (s *captureSink) ReportSuspiciousActivity(ev telemetry.Event) {
	s.events <- ev
}

func (s *captureSink) next(t *testing.T) telemetry.Event {
	t.Helper()
	select {
	case ev := <-s.events:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("expected a suspicious-activity event")
		return telemetry.Event{}
	}
}

func walkSample(i int) models.LocationSample {
	return models.LocationSample{
		Latitude:         40.0 + float64(i)*0.0003,
		Longitude:        -74.0,
		CapturedAtMillis: int64(i) * 30_000,
		AccuracyMeters:   10,
	}
}

func TestFirstSampleIsValid(t *testing.T) {
	e := New()
	s := NewSession("s1")

	verdict := e.EvaluateLocation(s, walkSample(0))

	assert.False(t, verdict.Suspicious)
	assert.Equal(t, models.ReasonLocationValid, verdict.PrimaryReason)
	assert.Zero(t, verdict.RiskScore)
	assert.Empty(t, verdict.ContributingChecks)
	assert.Len(t, e.History(s), 1)
}

func TestHistoryBoundedAtCapacity(t *testing.T) {
	e := New()
	s := NewSession("s1")

	for i := 1; i <= 150; i++ {
		e.EvaluateLocation(s, walkSample(i))
	}

	samples := e.History(s)
	require.Len(t, samples, 100)
	assert.Equal(t, walkSample(51).CapturedAtMillis, samples[0].CapturedAtMillis)
	assert.Equal(t, walkSample(150).CapturedAtMillis, samples[99].CapturedAtMillis)
}

func TestImpossibleSpeedVerdict(t *testing.T) {
	e := New()
	s := NewSession("s1")

	e.EvaluateLocation(s, models.LocationSample{
		Latitude: 0, Longitude: 0, CapturedAtMillis: 0, AccuracyMeters: 10,
	})
	verdict := e.EvaluateLocation(s, models.LocationSample{
		Latitude: 0.01, Longitude: 0, CapturedAtMillis: 10_000, AccuracyMeters: 10,
	})

	require.True(t, verdict.Suspicious)
	assert.Equal(t, models.ReasonImpossibleSpeed, verdict.PrimaryReason)
	assert.Equal(t, 90, verdict.RiskScore)
	require.Len(t, verdict.ContributingChecks, 1)
}

func TestTeleportOutranksSpeed(t *testing.T) {
	e := New()
	s := NewSession("s1")

	e.EvaluateLocation(s, models.LocationSample{
		Latitude: 0, Longitude: 0, CapturedAtMillis: 0, AccuracyMeters: 10,
	})
	// 2.22 km in 500ms violates the teleport check; the speed check stays
	// quiet below its 5s floor, so teleport's 95 is the only and top score.
	verdict := e.EvaluateLocation(s, models.LocationSample{
		Latitude: 0, Longitude: 0.02, CapturedAtMillis: 500, AccuracyMeters: 10,
	})

	require.True(t, verdict.Suspicious)
	assert.Equal(t, models.ReasonTeleportation, verdict.PrimaryReason)
	assert.Equal(t, 95, verdict.RiskScore)
}

func TestPinnedCoordinatesVerdict(t *testing.T) {
	e := New()
	s := NewSession("s1")

	var verdict models.RiskVerdict
	for i := 0; i < 5; i++ {
		verdict = e.EvaluateLocation(s, models.LocationSample{
			Latitude: 1.0, Longitude: 1.0, CapturedAtMillis: int64(i) * 60_000, AccuracyMeters: 10,
		})
	}

	require.True(t, verdict.Suspicious)
	assert.Equal(t, models.ReasonIdenticalCoordinates, verdict.PrimaryReason)
	assert.Equal(t, 70, verdict.RiskScore)
}

func TestMultipleChecksContribute(t *testing.T) {
	e := New()
	s := NewSession("s1")

	e.EvaluateLocation(s, models.LocationSample{
		Latitude: 0, Longitude: 0, CapturedAtMillis: 0, AccuracyMeters: 10,
	})
	// Fast, imprecise and far at once: speed (10s > 5s floor), accuracy and
	// teleport cannot all fire together (teleport needs <2s), but speed and
	// accuracy do.
	verdict := e.EvaluateLocation(s, models.LocationSample{
		Latitude: 0.05, Longitude: 0, CapturedAtMillis: 10_000, AccuracyMeters: 500,
	})

	require.True(t, verdict.Suspicious)
	require.Len(t, verdict.ContributingChecks, 2)
	assert.Equal(t, models.ReasonImpossibleSpeed, verdict.ContributingChecks[0].Reason)
	assert.Equal(t, models.ReasonPoorAccuracy, verdict.ContributingChecks[1].Reason)
	// Max score wins: speed capped at 90 beats accuracy's 30.
	assert.Equal(t, models.ReasonImpossibleSpeed, verdict.PrimaryReason)
	assert.Equal(t, 90, verdict.RiskScore)
}

func TestAggregateTieBreakIsStable(t *testing.T) {
	// On an exact score tie the earlier check in evaluation order wins.
	outcomes := []models.CheckOutcome{
		{Suspicious: false, Reason: models.ReasonSpeedNormal},
		{Suspicious: true, Reason: models.ReasonPoorAccuracy, RiskScore: 70},
		{Suspicious: true, Reason: models.ReasonIdenticalCoordinates, RiskScore: 70},
	}

	verdict := aggregate(outcomes)

	assert.Equal(t, models.ReasonPoorAccuracy, verdict.PrimaryReason)
	assert.Equal(t, 70, verdict.RiskScore)
	assert.Len(t, verdict.ContributingChecks, 2)
}

func TestAggregateHigherScoreBeatsOrder(t *testing.T) {
	outcomes := []models.CheckOutcome{
		{Suspicious: true, Reason: models.ReasonImpossibleSpeed, RiskScore: 90},
		{Suspicious: true, Reason: models.ReasonTeleportation, RiskScore: 95},
	}

	verdict := aggregate(outcomes)

	assert.Equal(t, models.ReasonTeleportation, verdict.PrimaryReason)
	assert.Equal(t, 95, verdict.RiskScore)
}

func TestInvalidCoordinatesRejected(t *testing.T) {
	e := New()
	s := NewSession("s1")

	cases := []models.LocationSample{
		{Latitude: math.NaN(), Longitude: 0},
		{Latitude: 0, Longitude: math.NaN()},
		{Latitude: 91, Longitude: 0},
		{Latitude: -91, Longitude: 0},
		{Latitude: 0, Longitude: 181},
		{Latitude: 0, Longitude: -181},
	}
	for _, sample := range cases {
		verdict := e.EvaluateLocation(s, sample)
		require.True(t, verdict.Suspicious)
		assert.Equal(t, models.ReasonInvalidCoordinates, verdict.PrimaryReason)
		assert.Equal(t, 100, verdict.RiskScore)
	}

	assert.Empty(t, e.History(s), "invalid samples must not enter history")
}

func TestTileDiscoveryRapidExploration(t *testing.T) {
	clock := newFakeClock()
	e := New(WithClock(clock))
	s := NewSession("s1")

	var oc models.CheckOutcome
	for i := 0; i < 9; i++ {
		oc = e.EvaluateTileDiscovery(s, fmt.Sprintf("14/9544/%d", i))
		clock.advance(5 * time.Second)
	}

	require.True(t, oc.Suspicious)
	assert.Equal(t, models.ReasonRapidExploration, oc.Reason)
	assert.Equal(t, 85, oc.RiskScore)
	details := oc.Details.(models.ExplorationDetails)
	assert.Equal(t, 9, details.RecentCount)
}

func TestAutomationViaEngine(t *testing.T) {
	e := New()
	s := NewSession("s1")

	for i := 0; i < 20; i++ {
		e.EvaluateLocation(s, models.LocationSample{
			Latitude:         40.0 + float64(i)*0.0000045,
			Longitude:        -74.0,
			CapturedAtMillis: int64(i) * 1000,
			AccuracyMeters:   8,
		})
	}

	before := e.History(s)
	oc := e.EvaluateAutomation(s)

	require.True(t, oc.Suspicious)
	assert.Equal(t, models.ReasonAutomationDetected, oc.Reason)
	assert.Equal(t, 95, oc.RiskScore)
	details := oc.Details.(models.AutomationDetails)
	assert.True(t, details.PerfectTiming)
	assert.True(t, details.UnnaturalPrecision)

	assert.Equal(t, before, e.History(s), "automation analysis must not mutate history")
}

func TestResetSessionClearsState(t *testing.T) {
	e := New()
	s := NewSession("s1")

	for i := 0; i < 10; i++ {
		e.EvaluateLocation(s, walkSample(i))
	}
	e.EvaluateTileDiscovery(s, "tile-a")

	e.ResetSession(s)

	assert.Empty(t, e.History(s))
	oc := e.EvaluateAutomation(s)
	assert.Equal(t, models.ReasonInsufficientData, oc.Reason)
}

func TestSuspiciousVerdictReported(t *testing.T) {
	sink := newCaptureSink()
	e := New(WithSink(sink))
	s := NewSession("session-xyz")

	e.EvaluateLocation(s, models.LocationSample{
		Latitude: 0, Longitude: 0, CapturedAtMillis: 0, AccuracyMeters: 10,
	})
	e.EvaluateLocation(s, models.LocationSample{
		Latitude: 0, Longitude: 0.02, CapturedAtMillis: 500, AccuracyMeters: 10,
	})

	ev := sink.next(t)
	assert.Equal(t, "session-xyz", ev.SessionID)
	assert.Equal(t, models.ReasonTeleportation, ev.Kind)
	assert.Equal(t, 95, ev.RiskScore)
	require.NotNil(t, ev.Sample)
	assert.Equal(t, 0.02, ev.Sample.Longitude)
	assert.Contains(t, ev.Reasons, models.ReasonTeleportation)
}

func TestReportingNeverBlocksVerdict(t *testing.T) {
	// A sink that blocks forever must not delay the verdict path.
	blocked := make(chan struct{})
	e := New(WithSink(blockingSink{ch: blocked}))
	s := NewSession("s1")

	e.EvaluateLocation(s, models.LocationSample{
		Latitude: 0, Longitude: 0, CapturedAtMillis: 0, AccuracyMeters: 10,
	})

	done := make(chan struct{})
	go func() {
		e.EvaluateLocation(s, models.LocationSample{
			Latitude: 0, Longitude: 0.02, CapturedAtMillis: 500, AccuracyMeters: 10,
		})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("verdict blocked on the reporting sink")
	}
	close(blocked)
}

func TestPanickingSinkIsContained(t *testing.T) {
	e := New(WithSink(panicSink{}))
	s := NewSession("s1")

	e.EvaluateLocation(s, models.LocationSample{
		Latitude: 0, Longitude: 0, CapturedAtMillis: 0, AccuracyMeters: 10,
	})
	verdict := e.EvaluateLocation(s, models.LocationSample{
		Latitude: 0, Longitude: 0.02, CapturedAtMillis: 500, AccuracyMeters: 10,
	})

	assert.True(t, verdict.Suspicious, "verdict must survive a panicking sink")
}

func TestSessionsEvaluateIndependently(t *testing.T) {
	e := New()
	a, b := NewSession("a"), NewSession("b")

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			s := a
			if n%2 == 1 {
				s = b
			}
			for j := 0; j < 50; j++ {
				e.EvaluateLocation(s, walkSample(j))
			}
		}(i)
	}
	wg.Wait()

	assert.Len(t, e.History(a), 100)
	assert.Len(t, e.History(b), 100)
}

type blockingSink struct{ ch chan struct{} }

func (s blockingSink) ReportSuspiciousActivity(telemetry.Event) { <-s.ch }

type panicSink struct{}

func (panicSink) ReportSuspiciousActivity(telemetry.Event) { panic("sink exploded") }
