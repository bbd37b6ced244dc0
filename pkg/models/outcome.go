package models

// ReasonCode identifies the result class of a single check or an aggregated
// verdict. Codes are stable strings: they end up in emitted telemetry events
// and downstream aggregation keys, so renaming one is a breaking change.
type ReasonCode string

const (
	ReasonNoPreviousLocation      ReasonCode = "no_previous_location"
	ReasonSpeedNormal             ReasonCode = "speed_normal"
	ReasonImpossibleSpeed         ReasonCode = "impossible_speed"
	ReasonAccuracyGood            ReasonCode = "accuracy_good"
	ReasonPoorAccuracy            ReasonCode = "poor_accuracy"
	ReasonInsufficientPatternData ReasonCode = "insufficient_pattern_data"
	ReasonPatternNormal           ReasonCode = "pattern_normal"
	ReasonIdenticalCoordinates    ReasonCode = "identical_coordinates"
	ReasonMovementNormal          ReasonCode = "movement_normal"
	ReasonTeleportation           ReasonCode = "teleportation"
	ReasonExplorationRateNormal   ReasonCode = "exploration_rate_normal"
	ReasonRapidExploration        ReasonCode = "rapid_exploration"
	ReasonInsufficientData        ReasonCode = "insufficient_data"
	ReasonHumanBehavior           ReasonCode = "human_behavior"
	ReasonAutomationDetected      ReasonCode = "automation_detected"
	ReasonLocationValid           ReasonCode = "location_valid"
	ReasonInvalidCoordinates      ReasonCode = "invalid_coordinates"
)

// Details carries check-specific context for a CheckOutcome. Each reason
// family has its own concrete type, so consumers can type-switch instead of
// digging through an open-ended map.
type Details interface {
	detailsTag()
}

// SpeedDetails accompanies impossible_speed and speed_normal outcomes.
type SpeedDetails struct {
	SpeedKmh        float64 `json:"speed_kmh"`
	DistanceKm      float64 `json:"distance_km"`
	TimeDiffSeconds float64 `json:"time_diff_seconds"`
	MaxAllowedKmh   float64 `json:"max_allowed_kmh"`
}

// AccuracyDetails accompanies poor_accuracy and accuracy_good outcomes.
type AccuracyDetails struct {
	AccuracyMeters  float64 `json:"accuracy_meters"`
	ThresholdMeters float64 `json:"threshold_meters"`
}

// PatternDetails accompanies identical_coordinates and pattern_normal outcomes.
type PatternDetails struct {
	DuplicateCount int     `json:"duplicate_count"`
	MaxDuplicates  int     `json:"max_duplicates"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
}

// TeleportDetails accompanies teleportation and movement_normal outcomes.
type TeleportDetails struct {
	DistanceKm       float64 `json:"distance_km"`
	TimeDiffSeconds  float64 `json:"time_diff_seconds"`
	ThresholdKm      float64 `json:"threshold_km"`
	ThresholdSeconds float64 `json:"threshold_seconds"`
}

// ExplorationDetails accompanies rapid_exploration and
// exploration_rate_normal outcomes.
type ExplorationDetails struct {
	RecentCount  int      `json:"recent_count"`
	MaxPerMinute int      `json:"max_per_minute"`
	RecentTiles  []string `json:"recent_tiles,omitempty"`
}

// AutomationDetails accompanies automation_detected, human_behavior and
// insufficient_data outcomes. The statistics are populated even for
// non-suspicious results so they can feed offline threshold tuning.
type AutomationDetails struct {
	PerfectTiming      bool    `json:"perfect_timing"`
	UnnaturalPrecision bool    `json:"unnatural_precision"`
	RepetitiveMovement bool    `json:"repetitive_movement"`
	AvgIntervalMs      float64 `json:"avg_interval_ms"`
	IntervalVariance   float64 `json:"interval_variance_ms2"`
	SampleCount        int     `json:"sample_count"`
}

// InvalidCoordinatesDetails accompanies invalid_coordinates outcomes.
type InvalidCoordinatesDetails struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (SpeedDetails) detailsTag()              {}
func (AccuracyDetails) detailsTag()           {}
func (PatternDetails) detailsTag()            {}
func (TeleportDetails) detailsTag()           {}
func (ExplorationDetails) detailsTag()        {}
func (AutomationDetails) detailsTag()         {}
func (InvalidCoordinatesDetails) detailsTag() {}

// CheckOutcome is the result of one guard evaluation. Outcomes are ephemeral:
// they exist only inside the verdict returned to the caller and in emitted
// telemetry events, never in persistent state.
type CheckOutcome struct {
	Suspicious bool       `json:"is_suspicious"`
	Reason     ReasonCode `json:"reason"`
	RiskScore  int        `json:"risk_score"`
	Details    Details    `json:"details,omitempty"`
}

// RiskVerdict is the aggregated result of all per-sample guards.
//
// The engine does not make enforcement decisions. It returns the verdict and
// leaves blocking, down-weighting or flagging policy to the caller.
type RiskVerdict struct {
	Suspicious bool `json:"is_suspicious"`

	// PrimaryReason is the reason of the highest-scoring suspicious check.
	// On exact score ties the check evaluated first wins. location_valid
	// when nothing flagged.
	PrimaryReason ReasonCode `json:"primary_reason"`

	// RiskScore is the maximum score among suspicious checks, 0..100.
	RiskScore int `json:"risk_score"`

	// ContributingChecks lists every suspicious outcome in evaluation order.
	ContributingChecks []CheckOutcome `json:"contributing_checks,omitempty"`
}
