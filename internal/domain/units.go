package domain

import "math"

// kmhToMphFactor converts km/h to mph.
const kmhToMphFactor = 0.621371

// CelsiusToFahrenheit converts a temperature reading.
func CelsiusToFahrenheit(c float64) float64 {
	return c*9/5 + 32
}

// KmhToMph converts a wind speed reading.
func KmhToMph(v float64) float64 {
	return v * kmhToMphFactor
}

// compassPoints is the 8-point rose used for display wind direction.
var compassPoints = [...]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

// CompassDirection maps meteorological degrees to the nearest 8-point compass
// label, 45° per sector.
func CompassDirection(degrees float64) string {
	index := int(math.Round(degrees/45)) % len(compassPoints)
	if index < 0 {
		index += len(compassPoints)
	}
	return compassPoints[index]
}
