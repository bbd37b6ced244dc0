package guards

import (
	"math"

	"github.com/trumenapp/go-tileguard/pkg/history"
	"github.com/trumenapp/go-tileguard/pkg/models"
)

const (
	// patternMinHistory is the minimum buffered samples (including the one
	// under test) before the check produces a meaningful result.
	patternMinHistory = 5

	// patternMaxDuplicates is the number of prior samples allowed at the
	// exact same coordinate before flagging.
	patternMaxDuplicates = 3

	// patternEpsilonDegrees treats coordinates closer than ~0.1 m as
	// identical. Real GPS fixes never repeat to this precision.
	patternEpsilonDegrees = 1e-6

	patternScore = 70
)

// PatternGuard flags samples whose coordinate repeats across history with
// machine precision, the signature of a pinned spoofed location.
type PatternGuard struct{}

// NewPatternGuard creates a pattern guard.
func NewPatternGuard() *PatternGuard { return &PatternGuard{} }

func (g *PatternGuard) Name() string { return "pattern" }

func (g *PatternGuard) Evaluate(sample models.LocationSample, hist *history.History) models.CheckOutcome {
	if hist.Len() < patternMinHistory {
		return models.CheckOutcome{Reason: models.ReasonInsufficientPatternData}
	}

	// The sample under test sits at the buffer tail; count duplicates among
	// the entries before it.
	duplicates := 0
	for i := 0; i < hist.Len()-1; i++ {
		prior := hist.At(i)
		if math.Abs(prior.Latitude-sample.Latitude) < patternEpsilonDegrees &&
			math.Abs(prior.Longitude-sample.Longitude) < patternEpsilonDegrees {
			duplicates++
		}
	}

	details := models.PatternDetails{
		DuplicateCount: duplicates,
		MaxDuplicates:  patternMaxDuplicates,
		Latitude:       sample.Latitude,
		Longitude:      sample.Longitude,
	}

	if duplicates > patternMaxDuplicates {
		return models.CheckOutcome{
			Suspicious: true,
			Reason:     models.ReasonIdenticalCoordinates,
			RiskScore:  patternScore,
			Details:    details,
		}
	}

	return models.CheckOutcome{Reason: models.ReasonPatternNormal, Details: details}
}
