package guards

import (
	"github.com/trumenapp/go-tileguard/pkg/history"
	"github.com/trumenapp/go-tileguard/pkg/models"
)

// DefaultMaxAccuracyMeters is the horizontal accuracy radius above which a
// fix is considered too imprecise to trust.
const DefaultMaxAccuracyMeters = 100.0

const accuracyScore = 30

// AccuracyGuard flags samples whose reported horizontal accuracy is too poor
// for tile attribution. Spoofing tools often report implausible accuracy
// values; genuine urban-canyon fixes also land here, hence the modest score.
type AccuracyGuard struct {
	MaxAccuracyMeters float64
}

// NewAccuracyGuard creates an accuracy guard. Non-positive thresholds fall
// back to DefaultMaxAccuracyMeters.
func NewAccuracyGuard(maxAccuracyMeters float64) *AccuracyGuard {
	if maxAccuracyMeters <= 0 {
		maxAccuracyMeters = DefaultMaxAccuracyMeters
	}
	return &AccuracyGuard{MaxAccuracyMeters: maxAccuracyMeters}
}

func (g *AccuracyGuard) Name() string { return "accuracy" }

func (g *AccuracyGuard) Evaluate(sample models.LocationSample, _ *history.History) models.CheckOutcome {
	details := models.AccuracyDetails{
		AccuracyMeters:  sample.AccuracyMeters,
		ThresholdMeters: g.MaxAccuracyMeters,
	}

	if sample.AccuracyMeters > g.MaxAccuracyMeters {
		return models.CheckOutcome{
			Suspicious: true,
			Reason:     models.ReasonPoorAccuracy,
			RiskScore:  accuracyScore,
			Details:    details,
		}
	}

	return models.CheckOutcome{Reason: models.ReasonAccuracyGood, Details: details}
}
