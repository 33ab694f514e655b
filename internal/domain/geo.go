package domain

import "math"

const earthRadiusKm = 6371.0

// proximityThresholdKm is the great-circle distance under which two locations
// are considered the same place for duplicate detection.
const proximityThresholdKm = 5.0

// HaversineKm returns the great-circle distance between two WGS-84 coordinate
// pairs in kilometers.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLon := radians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

// CloseEnough reports whether two locations are within the proximity
// threshold and should be treated as duplicates. Location IDs are minted fresh
// on every geocoding lookup, so ID equality says nothing about identity.
func CloseEnough(a, b Location) bool {
	return HaversineKm(a.Lat, a.Lon, b.Lat, b.Lon) < proximityThresholdKm
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
