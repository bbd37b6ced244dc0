package guards

import "math"

// Haversine computes the great-circle distance between two coordinates
// (lat, lon in degrees) in kilometers.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusKm = 6371.0

	dLat := (lat2 - lat1) * (math.Pi / 180.0)
	dLon := (lon2 - lon1) * (math.Pi / 180.0)

	lat1 = lat1 * (math.Pi / 180.0)
	lat2 = lat2 * (math.Pi / 180.0)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLon/2)*math.Sin(dLon/2)*math.Cos(lat1)*math.Cos(lat2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

// timeDiffSeconds returns the elapsed time between two sample timestamps in
// seconds. Negative when the newer sample carries an older timestamp.
func timeDiffSeconds(fromMillis, toMillis int64) float64 {
	return float64(toMillis-fromMillis) / 1000.0
}
