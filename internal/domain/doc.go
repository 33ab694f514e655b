// Package domain models per-location weather snapshots and severe-weather alerts.
//
// # Data Sources
//
// Weather data comes from the Open-Meteo family of public APIs: the forecast
// API (current conditions plus a 7-day daily forecast), the air-quality API
// (European AQI), and the historical archive API. Geocoding uses the
// Open-Meteo geocoding API for forward lookups and Nominatim for reverse
// lookups. The fetcher fuses these responses into one WeatherSnapshot per
// location.
//
// # WMO Weather Codes
//
// Current and forecast conditions arrive as WMO weather codes (0-99). The
// condition table maps each known code to a day and a night label, e.g.
//
//	0  → "Clear sky"
//	63 → "Moderate rain"
//	95 → "Thunderstorm"
//
// Unknown codes fall back to code 0's labels.
//
// # Severity Classification
//
// Classify evaluates a raw observation against unit-aware threshold tables and
// produces ranked alerts across five rule families: temperature, weather-code
// condition, wind gusts, humidity, and next-day precipitation probability.
// The four-level scale orders as
//
//	extreme (0) > severe (1) > moderate (2) > advisory (3)
//
// and the returned alert list is sorted ascending by rank, stable within a
// rank. Thresholds differ between metric and imperial unit systems; they are
// independent tables, not converted at evaluation time.
//
// Precipitation probability is a known oddity carried over from the product
// rule set: the ≥90% tier is labeled "severe" rather than "extreme". Tests pin
// this behavior; do not "fix" it without confirming product intent.
//
// # Units
//
// Snapshot fields keep the provider's native metric units (Celsius, km/h).
// Conversion to Fahrenheit and mph happens only inside alert message text and
// in the display layer, never in stored data.
package domain
