package guards

import (
	"github.com/trumenapp/go-tileguard/pkg/history"
	"github.com/trumenapp/go-tileguard/pkg/models"
)

const (
	// teleportThresholdKm / teleportWindowSeconds: covering more than a
	// kilometer in under two seconds is beyond any ground vehicle.
	teleportThresholdKm   = 1.0
	teleportWindowSeconds = 2.0

	teleportScore = 95
)

// TeleportGuard flags instantaneous large jumps between consecutive samples.
// Unlike SpeedGuard it does not divide by the time delta, so it also catches
// jumps with a zero or negative timestamp difference.
type TeleportGuard struct{}

// NewTeleportGuard creates a teleport guard.
func NewTeleportGuard() *TeleportGuard { return &TeleportGuard{} }

func (g *TeleportGuard) Name() string { return "teleport" }

func (g *TeleportGuard) Evaluate(sample models.LocationSample, hist *history.History) models.CheckOutcome {
	prev, ok := hist.Previous()
	if !ok {
		return models.CheckOutcome{Reason: models.ReasonNoPreviousLocation}
	}

	distanceKm := Haversine(prev.Latitude, prev.Longitude, sample.Latitude, sample.Longitude)
	diff := timeDiffSeconds(prev.CapturedAtMillis, sample.CapturedAtMillis)

	details := models.TeleportDetails{
		DistanceKm:       distanceKm,
		TimeDiffSeconds:  diff,
		ThresholdKm:      teleportThresholdKm,
		ThresholdSeconds: teleportWindowSeconds,
	}

	if distanceKm > teleportThresholdKm && diff < teleportWindowSeconds {
		return models.CheckOutcome{
			Suspicious: true,
			Reason:     models.ReasonTeleportation,
			RiskScore:  teleportScore,
			Details:    details,
		}
	}

	return models.CheckOutcome{Reason: models.ReasonMovementNormal, Details: details}
}
