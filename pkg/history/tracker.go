package history

import (
	"time"

	"github.com/trumenapp/go-tileguard/pkg/models"
)

// DefaultRetention is how long tile visits are kept before being pruned.
const DefaultRetention = time.Hour

// TileTracker logs tile-discovery timestamps for one session. Records older
// than the retention horizon are pruned eagerly on every insert, so the
// tracker is bounded by the discovery rate within the window rather than a
// hard capacity.
type TileTracker struct {
	visits    []models.TileVisitRecord
	retention time.Duration
}

// NewTileTracker returns an empty tracker with the given retention window.
// Non-positive retentions fall back to DefaultRetention.
func NewTileTracker(retention time.Duration) *TileTracker {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &TileTracker{retention: retention}
}

// Record logs a tile visit at nowMillis and prunes expired records.
func (t *TileTracker) Record(tileID string, nowMillis int64) {
	t.prune(nowMillis)
	t.visits = append(t.visits, models.TileVisitRecord{
		TileID:           tileID,
		ObservedAtMillis: nowMillis,
	})
}

// RecentWithin returns the records observed inside the trailing window,
// oldest first.
func (t *TileTracker) RecentWithin(window time.Duration, nowMillis int64) []models.TileVisitRecord {
	cutoff := nowMillis - window.Milliseconds()
	start := len(t.visits)
	for i, v := range t.visits {
		if v.ObservedAtMillis > cutoff {
			start = i
			break
		}
	}
	out := make([]models.TileVisitRecord, len(t.visits)-start)
	copy(out, t.visits[start:])
	return out
}

// Len returns the number of retained records.
func (t *TileTracker) Len() int { return len(t.visits) }

// Clear discards all records.
func (t *TileTracker) Clear() { t.visits = nil }

// prune drops records older than the retention horizon. Records are
// appended in clock order, so expired entries form a prefix.
func (t *TileTracker) prune(nowMillis int64) {
	cutoff := nowMillis - t.retention.Milliseconds()
	idx := 0
	for idx < len(t.visits) && t.visits[idx].ObservedAtMillis <= cutoff {
		idx++
	}
	if idx == 0 {
		return
	}
	n := copy(t.visits, t.visits[idx:])
	t.visits = t.visits[:n]
}
