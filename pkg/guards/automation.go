package guards

import (
	"math"

	"github.com/trumenapp/go-tileguard/pkg/history"
	"github.com/trumenapp/go-tileguard/pkg/models"
)

const (
	// automationMinSamples is the history size below which the analyzer
	// reports insufficient_data instead of a result.
	automationMinSamples = 10

	// automationWindow caps how many recent samples the statistics run over.
	automationWindow = 20

	// automationVarianceThreshold (ms²): human-produced fixes never arrive
	// with near-zero interval variance over a 20-sample window.
	automationVarianceThreshold = 100.0

	// automationPrecisionKm: every consecutive step being nonzero yet under
	// one meter is the fingerprint of a scripted random-walk.
	automationPrecisionKm = 0.001

	// automationMatchEpsilon (degrees, ~11 m) for repeated-path matching.
	automationMatchEpsilon = 1e-4

	automationScore = 95
)

// AutomationAnalyzer runs a statistical pass over recent history to detect
// scripted movement. It is an independent entry point: callers invoke it
// periodically or on demand, not on every sample, and it never mutates the
// history it reads.
type AutomationAnalyzer struct{}

// NewAutomationAnalyzer creates an automation analyzer.
func NewAutomationAnalyzer() *AutomationAnalyzer { return &AutomationAnalyzer{} }

func (a *AutomationAnalyzer) Name() string { return "automation" }

// Evaluate analyzes the most recent samples for robotic signatures:
// perfectly uniform timing, unnaturally tiny step distances, or a repeating
// path. Statistics are reported in the details even when nothing flags.
func (a *AutomationAnalyzer) Evaluate(hist *history.History) models.CheckOutcome {
	if hist.Len() < automationMinSamples {
		return models.CheckOutcome{Reason: models.ReasonInsufficientData}
	}

	samples := hist.Tail(automationWindow)

	intervals := make([]float64, 0, len(samples)-1)
	distances := make([]float64, 0, len(samples)-1)
	for i := 1; i < len(samples); i++ {
		intervals = append(intervals, float64(samples[i].CapturedAtMillis-samples[i-1].CapturedAtMillis))
		distances = append(distances, Haversine(
			samples[i-1].Latitude, samples[i-1].Longitude,
			samples[i].Latitude, samples[i].Longitude,
		))
	}

	avgInterval := mean(intervals)
	variance := 0.0
	for _, iv := range intervals {
		variance += (iv - avgInterval) * (iv - avgInterval)
	}
	variance /= float64(len(intervals))

	perfectTiming := variance < automationVarianceThreshold

	unnaturalPrecision := true
	for _, d := range distances {
		if d <= 0 || d >= automationPrecisionKm {
			unnaturalPrecision = false
			break
		}
	}

	repetitiveMovement := a.repeatsPath(samples)

	details := models.AutomationDetails{
		PerfectTiming:      perfectTiming,
		UnnaturalPrecision: unnaturalPrecision,
		RepetitiveMovement: repetitiveMovement,
		AvgIntervalMs:      avgInterval,
		IntervalVariance:   variance,
		SampleCount:        len(samples),
	}

	if perfectTiming || unnaturalPrecision || repetitiveMovement {
		return models.CheckOutcome{
			Suspicious: true,
			Reason:     models.ReasonAutomationDetected,
			RiskScore:  automationScore,
			Details:    details,
		}
	}

	return models.CheckOutcome{Reason: models.ReasonHumanBehavior, Details: details}
}

// repeatsPath reports whether the first three positions of the window recur
// at the same offsets in the following three, i.e. the client replays a
// short recorded loop.
func (a *AutomationAnalyzer) repeatsPath(samples []models.LocationSample) bool {
	if len(samples) < 6 {
		return false
	}
	for i := 0; i < 3; i++ {
		p, q := samples[i], samples[i+3]
		if math.Abs(p.Latitude-q.Latitude) >= automationMatchEpsilon ||
			math.Abs(p.Longitude-q.Longitude) >= automationMatchEpsilon {
			return false
		}
	}
	return true
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
