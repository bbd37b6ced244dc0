// Package telemetry handles the engine's only outward-facing effect:
// reporting suspicious activity. Reporting is fire-and-forget by contract; a
// slow or failing sink must never delay or alter a verdict, so the engine
// dispatches to sinks asynchronously and sinks absorb their own errors.
package telemetry

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/trumenapp/go-tileguard/pkg/models"
)

// Event is one suspicious-activity report.
type Event struct {
	SessionID string
	Kind      models.ReasonCode
	RiskScore int

	// Sample is the triggering location fix; nil for events not tied to a
	// single sample (tile discoveries, automation analysis).
	Sample *models.LocationSample

	// Reasons lists every check that flagged, in evaluation order.
	Reasons []models.ReasonCode

	// Details carries the primary check's typed payload.
	Details models.Details

	At time.Time
}

// Severity buckets a risk score for alert routing.
func (e Event) Severity() string {
	switch {
	case e.RiskScore >= 80:
		return "HIGH"
	case e.RiskScore >= 60:
		return "MEDIUM"
	default:
		return "LOW"
	}
}

// Sink receives suspicious-activity events. Implementations must not block
// for long and must swallow their own failures; the engine neither retries
// nor observes the outcome.
type Sink interface {
	ReportSuspiciousActivity(ev Event)
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) ReportSuspiciousActivity(Event) {}

const (
	// Repeated alerts for the same (session, kind) are suppressed within a
	// cooldown so a pinned spoofer doesn't flood the log. High-risk events
	// get a shorter cooldown and are never suppressed.
	alertCooldown         = 5 * time.Minute
	alertCooldownHighRisk = time.Minute
	highRiskScore         = 90
)

// LogSink emits suspicious-activity events as structured log lines with a
// per-(session, kind) cooldown. It is the default sink for deployments that
// ship logs to their aggregation pipeline instead of a dedicated alert bus.
type LogSink struct {
	log zerolog.Logger

	mu        sync.Mutex
	nextAlert map[string]time.Time

	now func() time.Time // swappable in tests
}

// NewLogSink creates a log-backed sink.
func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{
		log:       logger,
		nextAlert: make(map[string]time.Time),
		now:       time.Now,
	}
}

// ReportSuspiciousActivity logs the event unless an identical-kind alert for
// the session is still inside its cooldown. Events scoring at or above the
// high-risk threshold always go through.
func (s *LogSink) ReportSuspiciousActivity(ev Event) {
	key := ev.SessionID + ":" + string(ev.Kind)
	now := s.now()

	s.mu.Lock()
	if until, ok := s.nextAlert[key]; ok && now.Before(until) && ev.RiskScore < highRiskScore {
		s.mu.Unlock()
		return
	}
	cooldown := alertCooldown
	if ev.RiskScore >= highRiskScore {
		cooldown = alertCooldownHighRisk
	}
	s.nextAlert[key] = now.Add(cooldown)
	s.mu.Unlock()

	evt := s.log.Warn().
		Str("session_id", ev.SessionID).
		Str("kind", string(ev.Kind)).
		Int("risk_score", ev.RiskScore).
		Str("severity", ev.Severity()).
		Time("at", ev.At)

	if ev.Sample != nil {
		evt = evt.
			Float64("latitude", ev.Sample.Latitude).
			Float64("longitude", ev.Sample.Longitude).
			Int64("captured_at_millis", ev.Sample.CapturedAtMillis)
	}
	if len(ev.Reasons) > 0 {
		reasons := make([]string, len(ev.Reasons))
		for i, r := range ev.Reasons {
			reasons[i] = string(r)
		}
		evt = evt.Strs("reasons", reasons)
	}
	if ev.Details != nil {
		evt = evt.Interface("details", ev.Details)
	}

	evt.Msg("suspicious activity detected")
}
