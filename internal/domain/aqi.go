package domain

// AQIUnavailable is the sentinel stored when the air-quality fetch degraded.
// AQI failures never fail the overall snapshot.
const (
	AQIUnavailable            = -1
	AQIUnavailableDescription = "Unavailable"
)

// DescribeAQI maps a European AQI value to its banded description.
func DescribeAQI(aqi int) string {
	switch {
	case aqi <= 20:
		return "Good"
	case aqi <= 40:
		return "Fair"
	case aqi <= 60:
		return "Moderate"
	case aqi <= 80:
		return "Poor"
	case aqi <= 100:
		return "Very Poor"
	default:
		return "Extremely Poor"
	}
}
