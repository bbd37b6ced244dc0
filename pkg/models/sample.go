package models

// LocationSample is a single GPS reading reported by the client.
//
// Samples are untrusted by construction: latitude, longitude, timestamp and
// accuracy all come from the device and can be spoofed. The engine treats a
// sample as immutable once recorded into a session's history.
type LocationSample struct {
	// Latitude/Longitude in decimal degrees (WGS84).
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`

	// CapturedAtMillis is the device-reported capture time in Unix
	// milliseconds. It is not validated against the server clock; samples
	// may arrive out of order.
	CapturedAtMillis int64 `json:"captured_at_millis"`

	// AccuracyMeters is the horizontal accuracy radius reported by the
	// device's location provider.
	AccuracyMeters float64 `json:"accuracy_meters"`

	// SpeedMps is the device-reported speed in meters per second, when the
	// platform provides one. Nil when unavailable.
	SpeedMps *float64 `json:"speed_mps,omitempty"`
}

// TileVisitRecord marks the discovery of one map tile by a session.
type TileVisitRecord struct {
	// TileID identifies the tile in the map tiling scheme, e.g. "14/9544/5892".
	TileID string `json:"tile_id"`

	// ObservedAtMillis is the server-side observation time in Unix milliseconds.
	ObservedAtMillis int64 `json:"observed_at_millis"`
}
