package guards

import (
	"time"

	"github.com/trumenapp/go-tileguard/pkg/history"
	"github.com/trumenapp/go-tileguard/pkg/models"
)

// DefaultMaxTilesPerMinute bounds how many new tiles a session may discover
// inside a one-minute window before being flagged. On foot a player crosses
// a handful of tiles per minute at most.
const DefaultMaxTilesPerMinute = 8

const (
	explorationWindow = time.Minute
	explorationScore  = 85
)

// ExplorationGuard bounds the tile-discovery velocity of a session. It is a
// separate entry point from the per-sample guards: the caller invokes it on
// each confirmed new-tile discovery, not on every location fix.
type ExplorationGuard struct {
	MaxTilesPerMinute int
}

// NewExplorationGuard creates an exploration-rate guard. Non-positive limits
// fall back to DefaultMaxTilesPerMinute.
func NewExplorationGuard(maxTilesPerMinute int) *ExplorationGuard {
	if maxTilesPerMinute <= 0 {
		maxTilesPerMinute = DefaultMaxTilesPerMinute
	}
	return &ExplorationGuard{MaxTilesPerMinute: maxTilesPerMinute}
}

func (g *ExplorationGuard) Name() string { return "exploration_rate" }

// Evaluate records the tile visit into the tracker (pruning expired records)
// and checks the last-minute discovery count.
func (g *ExplorationGuard) Evaluate(tracker *history.TileTracker, tileID string, nowMillis int64) models.CheckOutcome {
	tracker.Record(tileID, nowMillis)

	recent := tracker.RecentWithin(explorationWindow, nowMillis)

	details := models.ExplorationDetails{
		RecentCount:  len(recent),
		MaxPerMinute: g.MaxTilesPerMinute,
	}

	if len(recent) > g.MaxTilesPerMinute {
		tiles := make([]string, len(recent))
		for i, v := range recent {
			tiles[i] = v.TileID
		}
		details.RecentTiles = tiles
		return models.CheckOutcome{
			Suspicious: true,
			Reason:     models.ReasonRapidExploration,
			RiskScore:  explorationScore,
			Details:    details,
		}
	}

	return models.CheckOutcome{Reason: models.ReasonExplorationRateNormal, Details: details}
}
