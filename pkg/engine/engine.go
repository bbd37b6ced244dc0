// Package engine evaluates location telemetry for a tile-exploration game
// session and produces risk verdicts.
//
// Architecture principles, in the spirit of keeping the engine honest:
//   - The engine holds no per-session state; sessions are explicit context
//     objects constructed and passed by the caller.
//   - Guards run in a fixed order against an exclusive snapshot of the
//     session buffers; no guard performs I/O.
//   - The engine only scores. Enforcement (block, throttle, ban) is the
//     caller's policy decision.
//   - Suspicious-activity reporting is dispatched asynchronously and can
//     neither delay nor fail a verdict.
package engine

import (
	"math"

	"github.com/trumenapp/go-tileguard/pkg/guards"
	"github.com/trumenapp/go-tileguard/pkg/models"
	"github.com/trumenapp/go-tileguard/pkg/telemetry"
)

const invalidCoordinatesScore = 100

// Engine runs the detection guards. One engine serves any number of
// sessions concurrently; it is immutable after construction.
type Engine struct {
	// perSample guards run in fixed order on every location sample. The
	// order is part of the verdict contract: score ties break toward the
	// earlier guard.
	perSample   []guards.Guard
	exploration *guards.ExplorationGuard
	automation  *guards.AutomationAnalyzer

	clock   Clock
	sink    telemetry.Sink
	metrics *telemetry.Metrics
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces the wall clock, for deterministic tests and replays.
func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithSink sets the suspicious-activity sink. Defaults to a no-op sink.
func WithSink(s telemetry.Sink) Option {
	return func(e *Engine) { e.sink = s }
}

// WithMetrics wires evaluation counters. Defaults to none.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithMaxSpeedKmh overrides the speed guard threshold.
func WithMaxSpeedKmh(maxKmh float64) Option {
	return func(e *Engine) { e.perSample[0] = guards.NewSpeedGuard(maxKmh) }
}

// WithMaxTilesPerMinute overrides the exploration-rate limit.
func WithMaxTilesPerMinute(limit int) Option {
	return func(e *Engine) { e.exploration = guards.NewExplorationGuard(limit) }
}

// New creates an engine with the default guard set.
func New(opts ...Option) *Engine {
	e := &Engine{
		perSample: []guards.Guard{
			guards.NewSpeedGuard(guards.DefaultMaxSpeedKmh),
			guards.NewAccuracyGuard(guards.DefaultMaxAccuracyMeters),
			guards.NewPatternGuard(),
			guards.NewTeleportGuard(),
		},
		exploration: guards.NewExplorationGuard(guards.DefaultMaxTilesPerMinute),
		automation:  guards.NewAutomationAnalyzer(),
		clock:       systemClock{},
		sink:        telemetry.NopSink{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// EvaluateLocation appends the sample to the session history and returns the
// aggregated verdict of the per-sample guards.
//
// Samples with non-finite or out-of-range coordinates never reach the guards
// or the history: they come back as suspicious invalid_coordinates verdicts
// so garbage can't poison later distance math.
func (e *Engine) EvaluateLocation(s *Session, sample models.LocationSample) models.RiskVerdict {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !validCoordinates(sample.Latitude, sample.Longitude) {
		oc := models.CheckOutcome{
			Suspicious: true,
			Reason:     models.ReasonInvalidCoordinates,
			RiskScore:  invalidCoordinatesScore,
			Details: models.InvalidCoordinatesDetails{
				Latitude:  sample.Latitude,
				Longitude: sample.Longitude,
			},
		}
		verdict := models.RiskVerdict{
			Suspicious:         true,
			PrimaryReason:      oc.Reason,
			RiskScore:          oc.RiskScore,
			ContributingChecks: []models.CheckOutcome{oc},
		}
		e.metrics.ObserveVerdict(verdict)
		e.report(s.ID, &sample, verdict.PrimaryReason, verdict.RiskScore, verdict.ContributingChecks)
		return verdict
	}

	s.history.Append(sample)

	outcomes := make([]models.CheckOutcome, 0, len(e.perSample))
	for _, g := range e.perSample {
		outcomes = append(outcomes, g.Evaluate(sample, s.history))
	}

	verdict := aggregate(outcomes)
	e.metrics.ObserveVerdict(verdict)
	if verdict.Suspicious {
		e.report(s.ID, &sample, verdict.PrimaryReason, verdict.RiskScore, verdict.ContributingChecks)
	}
	return verdict
}

// EvaluateTileDiscovery records a confirmed new-tile discovery and returns
// the exploration-rate outcome.
func (e *Engine) EvaluateTileDiscovery(s *Session, tileID string) models.CheckOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := e.clock.Now()
	oc := e.exploration.Evaluate(s.tiles, tileID, now.UnixMilli())
	e.metrics.ObserveTileDiscovery(oc)
	if oc.Suspicious {
		e.report(s.ID, nil, oc.Reason, oc.RiskScore, []models.CheckOutcome{oc})
	}
	return oc
}

// EvaluateAutomation runs the statistical automation pass over the existing
// history. It does not mutate session state.
func (e *Engine) EvaluateAutomation(s *Session) models.CheckOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	oc := e.automation.Evaluate(s.history)
	e.metrics.ObserveAutomationCheck(oc)
	if oc.Suspicious {
		e.report(s.ID, nil, oc.Reason, oc.RiskScore, []models.CheckOutcome{oc})
	}
	return oc
}

// History returns a copy of the session's buffered samples in arrival order.
func (e *Engine) History(s *Session) []models.LocationSample {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Samples()
}

// ResetSession clears both session buffers. Called on logout or explicit
// reset.
func (e *Engine) ResetSession(s *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history.Clear()
	s.tiles.Clear()
}

// aggregate combines per-sample outcomes into one verdict: the maximum score
// among suspicious checks wins, and on an exact tie the check evaluated
// first does. The scan tracks the running max explicitly so the tie-break
// never depends on filter/sort behavior.
func aggregate(outcomes []models.CheckOutcome) models.RiskVerdict {
	var contributing []models.CheckOutcome
	maxScore := -1
	primary := models.ReasonLocationValid

	for _, oc := range outcomes {
		if !oc.Suspicious {
			continue
		}
		contributing = append(contributing, oc)
		if oc.RiskScore > maxScore {
			maxScore = oc.RiskScore
			primary = oc.Reason
		}
	}

	if len(contributing) == 0 {
		return models.RiskVerdict{PrimaryReason: models.ReasonLocationValid}
	}
	return models.RiskVerdict{
		Suspicious:         true,
		PrimaryReason:      primary,
		RiskScore:          maxScore,
		ContributingChecks: contributing,
	}
}

// report dispatches a suspicious-activity event to the sink without blocking
// the verdict path. A panicking sink is contained here; the engine owes the
// caller a verdict no matter what the reporting collaborator does.
func (e *Engine) report(sessionID string, sample *models.LocationSample, kind models.ReasonCode, score int, checks []models.CheckOutcome) {
	reasons := make([]models.ReasonCode, len(checks))
	var details models.Details
	for i, c := range checks {
		reasons[i] = c.Reason
		if c.Reason == kind {
			details = c.Details
		}
	}
	ev := telemetry.Event{
		SessionID: sessionID,
		Kind:      kind,
		RiskScore: score,
		Sample:    sample,
		Reasons:   reasons,
		Details:   details,
		At:        e.clock.Now(),
	}
	go func() {
		defer func() { _ = recover() }()
		e.sink.ReportSuspiciousActivity(ev)
	}()
}

func validCoordinates(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsInf(lat, 0) || math.IsNaN(lon) || math.IsInf(lon, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
