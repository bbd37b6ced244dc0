package guards

import (
	"math"

	"github.com/trumenapp/go-tileguard/pkg/history"
	"github.com/trumenapp/go-tileguard/pkg/models"
)

// DefaultMaxSpeedKmh is the movement speed above which a sample is flagged.
// 50 km/h covers walking, running and cycling; exploration from a vehicle is
// treated as suspicious for a walking game.
const DefaultMaxSpeedKmh = 50.0

const (
	// speedMinIntervalSeconds suppresses false positives from rapid
	// successive fixes: below this gap, GPS jitter dominates the distance.
	speedMinIntervalSeconds = 5.0

	speedBaseScore = 50.0
	speedMaxScore  = 90.0
)

// SpeedGuard flags samples that imply an impossible travel speed between the
// previous position and the new one.
type SpeedGuard struct {
	MaxSpeedKmh float64
}

// NewSpeedGuard creates a speed guard. Non-positive maxSpeedKmh falls back
// to DefaultMaxSpeedKmh.
func NewSpeedGuard(maxSpeedKmh float64) *SpeedGuard {
	if maxSpeedKmh <= 0 {
		maxSpeedKmh = DefaultMaxSpeedKmh
	}
	return &SpeedGuard{MaxSpeedKmh: maxSpeedKmh}
}

func (g *SpeedGuard) Name() string { return "speed" }

func (g *SpeedGuard) Evaluate(sample models.LocationSample, hist *history.History) models.CheckOutcome {
	prev, ok := hist.Previous()
	if !ok {
		return models.CheckOutcome{Reason: models.ReasonNoPreviousLocation}
	}

	distanceKm := Haversine(prev.Latitude, prev.Longitude, sample.Latitude, sample.Longitude)
	diff := timeDiffSeconds(prev.CapturedAtMillis, sample.CapturedAtMillis)

	details := models.SpeedDetails{
		DistanceKm:      distanceKm,
		TimeDiffSeconds: diff,
		MaxAllowedKmh:   g.MaxSpeedKmh,
	}

	// Duplicate or out-of-order timestamp: speed is undefined, skip the check.
	if diff <= 0 {
		return models.CheckOutcome{Reason: models.ReasonSpeedNormal, Details: details}
	}

	speedKmh := distanceKm / diff * 3600
	details.SpeedKmh = speedKmh

	if speedKmh > g.MaxSpeedKmh && diff > speedMinIntervalSeconds {
		score := int(math.Min(speedMaxScore, speedBaseScore+(speedKmh-g.MaxSpeedKmh)))
		return models.CheckOutcome{
			Suspicious: true,
			Reason:     models.ReasonImpossibleSpeed,
			RiskScore:  score,
			Details:    details,
		}
	}

	return models.CheckOutcome{Reason: models.ReasonSpeedNormal, Details: details}
}
