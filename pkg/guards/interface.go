// Package guards contains the individual anomaly checks run against location
// telemetry. Each guard is a pure function of (current history buffer, new
// sample): no guard carries state across calls or performs I/O, so every
// evaluation is bounded by the history window and deterministic.
//
// Guards never fail. When a check cannot be computed (no previous sample,
// not enough history, zero time delta) it degrades to a non-suspicious
// outcome with a reason code saying why.
package guards

import (
	"github.com/trumenapp/go-tileguard/pkg/history"
	"github.com/trumenapp/go-tileguard/pkg/models"
)

// Guard is one per-sample check.
//
// Evaluate is called after the new sample has been appended to the history
// buffer, so the sample under test is always the buffer tail. Guards that
// need the prior position read history.Previous().
type Guard interface {
	// Name is the guard's stable identifier, used in logs.
	Name() string

	// Evaluate runs the check. The returned outcome always carries a
	// risk score in [0, 100].
	Evaluate(sample models.LocationSample, hist *history.History) models.CheckOutcome
}
