// Package fetcher fuses the forecast, air-quality, and archive APIs into
// display-ready weather records, spending the per-API rate budgets.
package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/skycast-app/skycast/internal/adapter/openmeteo"
	"github.com/skycast-app/skycast/internal/domain"
	"github.com/skycast-app/skycast/internal/observability"
)

const dateLayout = "2006-01-02"

// FetchError indicates the upstream returned a structurally invalid payload.
type FetchError struct {
	Reason string
}

func (e *FetchError) Error() string {
	return "invalid forecast payload: " + e.Reason
}

// ForecastAPI fetches current conditions and the daily forecast.
type ForecastAPI interface {
	Forecast(ctx context.Context, lat, lon float64) (openmeteo.ForecastResponse, error)
}

// AirQualityAPI fetches the current AQI.
type AirQualityAPI interface {
	CurrentAQI(ctx context.Context, lat, lon float64) (int, error)
}

// ArchiveAPI fetches past daily observations.
type ArchiveAPI interface {
	Daily(ctx context.Context, lat, lon float64, startDate, endDate string) (openmeteo.ArchiveResponse, error)
}

// Limiter gates a request against a sliding-window budget.
type Limiter interface {
	Acquire(ctx context.Context) error
}

// Fetcher orchestrates upstream calls for one location at a time. The
// archive endpoints draw from the weather budget, matching the upstream's
// accounting.
type Fetcher struct {
	forecast ForecastAPI
	air      AirQualityAPI
	archive  ArchiveAPI

	weatherLimiter Limiter
	airLimiter     Limiter

	metrics *observability.Metrics
	logger  *slog.Logger
	clock   clockwork.Clock
}

// New creates a Fetcher.
func New(
	forecast ForecastAPI,
	air AirQualityAPI,
	archive ArchiveAPI,
	weatherLimiter, airLimiter Limiter,
	metrics *observability.Metrics,
	logger *slog.Logger,
) *Fetcher {
	return &Fetcher{
		forecast:       forecast,
		air:            air,
		archive:        archive,
		weatherLimiter: weatherLimiter,
		airLimiter:     airLimiter,
		metrics:        metrics,
		logger:         logger,
		clock:          clockwork.NewRealClock(),
	}
}

// FetchWeather builds a complete snapshot for the location. The forecast and
// air-quality calls run concurrently on their own budgets. An air-quality
// failure degrades the snapshot to an unavailable AQI instead of failing the
// fetch; a forecast failure fails it.
func (f *Fetcher) FetchWeather(ctx context.Context, loc domain.Location, unit domain.TemperatureUnit) (domain.WeatherSnapshot, error) {
	start := f.clock.Now()

	type aqiResult struct {
		reading  domain.AQIReading
		degraded bool
	}
	aqiCh := make(chan aqiResult, 1)
	go func() {
		reading, degraded := f.fetchAirQuality(ctx, loc)
		aqiCh <- aqiResult{reading: reading, degraded: degraded}
	}()

	if err := f.acquire(ctx, f.weatherLimiter, "weather"); err != nil {
		f.metrics.FetchRequests.WithLabelValues("error").Inc()
		return domain.WeatherSnapshot{}, err
	}

	resp, err := f.forecast.Forecast(ctx, loc.Lat, loc.Lon)
	if err != nil {
		f.metrics.FetchRequests.WithLabelValues("error").Inc()
		return domain.WeatherSnapshot{}, fmt.Errorf("fetch forecast for %s: %w", loc.City, err)
	}

	if err := validateDaily(resp.Daily); err != nil {
		f.metrics.FetchRequests.WithLabelValues("error").Inc()
		return domain.WeatherSnapshot{}, err
	}

	obs := domain.Observation{
		Temperature: resp.Current.Temperature,
		FeelsLike:   resp.Current.ApparentTemperature,
		WindSpeed:   resp.Current.WindSpeed,
		WindGust:    resp.Current.WindGusts,
		WindDegrees: resp.Current.WindDirection,
		Humidity:    resp.Current.Humidity,
		WeatherCode: resp.Current.WeatherCode,
		IsDay:       resp.Current.IsDay == 1,
	}

	forecast := mapForecastDays(resp.Daily)

	var day0Precip float64
	if len(resp.Daily.PrecipProbMax) > 0 && resp.Daily.PrecipProbMax[0] != nil {
		day0Precip = *resp.Daily.PrecipProbMax[0]
	}

	cls := domain.Classify(obs, day0Precip, unit)
	for _, alert := range cls.Alerts {
		f.metrics.AlertsEmitted.WithLabelValues(string(alert.Severity)).Inc()
	}

	aqi := <-aqiCh
	snap := domain.BuildSnapshot(loc, obs, forecast, aqi.reading, cls)

	outcome := "success"
	if aqi.degraded {
		outcome = "degraded_aqi"
	}
	f.metrics.FetchRequests.WithLabelValues(outcome).Inc()
	f.metrics.FetchDuration.Observe(f.clock.Since(start).Seconds())

	return snap, nil
}

// HistoricalWindow returns the seven days centered on today's date yearsBack
// years ago.
func (f *Fetcher) HistoricalWindow(ctx context.Context, loc domain.Location, yearsBack int) ([]domain.HistoricalDay, error) {
	target := f.clock.Now().AddDate(-yearsBack, 0, 0)
	startDate := target.AddDate(0, 0, -3).Format(dateLayout)
	endDate := target.AddDate(0, 0, 3).Format(dateLayout)

	if err := f.acquire(ctx, f.weatherLimiter, "weather"); err != nil {
		return nil, err
	}

	resp, err := f.archive.Daily(ctx, loc.Lat, loc.Lon, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("fetch historical window for %s: %w", loc.City, err)
	}
	return mapArchiveDays(resp.Daily), nil
}

// YearlyComparison returns today's date observed in each of the past years,
// most recent first. Years whose fetch fails or has no archived data are
// skipped.
func (f *Fetcher) YearlyComparison(ctx context.Context, loc domain.Location, years int) ([]domain.YearlyComparison, error) {
	now := f.clock.Now()

	results := make([]domain.YearlyComparison, 0, years)
	for i := 1; i <= years; i++ {
		year := now.Year() - i
		date := time.Date(year, now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).Format(dateLayout)

		if err := f.acquire(ctx, f.weatherLimiter, "weather"); err != nil {
			return nil, err
		}

		resp, err := f.archive.Daily(ctx, loc.Lat, loc.Lon, date, date)
		if err != nil {
			f.logger.Warn("yearly comparison fetch failed",
				"city", loc.City, "year", year, "error", err)
			continue
		}

		days := mapArchiveDays(resp.Daily)
		if len(days) == 0 {
			continue
		}
		results = append(results, domain.YearlyComparison{Year: year, Day: days[0]})
	}
	return results, nil
}

func (f *Fetcher) fetchAirQuality(ctx context.Context, loc domain.Location) (domain.AQIReading, bool) {
	if err := f.acquire(ctx, f.airLimiter, "air_quality"); err != nil {
		f.logger.Warn("air quality rate limit", "city", loc.City, "error", err)
		return domain.UnavailableAQI(), true
	}

	aqi, err := f.air.CurrentAQI(ctx, loc.Lat, loc.Lon)
	if err != nil {
		f.logger.Warn("air quality fetch failed", "city", loc.City, "error", err)
		return domain.UnavailableAQI(), true
	}
	return domain.AQIReading{AQI: aqi, Description: domain.DescribeAQI(aqi)}, false
}

func (f *Fetcher) acquire(ctx context.Context, l Limiter, api string) error {
	start := f.clock.Now()
	if err := l.Acquire(ctx); err != nil {
		return fmt.Errorf("%s rate limit: %w", api, err)
	}
	f.metrics.RateLimitWait.WithLabelValues(api).Observe(f.clock.Since(start).Seconds())
	return nil
}

func validateDaily(d openmeteo.DailyBlock) error {
	n := len(d.Time)
	switch {
	case n == 0:
		return &FetchError{Reason: "missing daily time series"}
	case len(d.TemperatureMax) != n:
		return &FetchError{Reason: "missing daily temperature_2m_max series"}
	case len(d.TemperatureMin) != n:
		return &FetchError{Reason: "missing daily temperature_2m_min series"}
	case len(d.WeatherCode) != n:
		return &FetchError{Reason: "missing daily weather_code series"}
	}
	return nil
}

func mapForecastDays(d openmeteo.DailyBlock) []domain.DailyForecast {
	days := make([]domain.DailyForecast, 0, len(d.Time))
	for i, date := range d.Time {
		var precip float64
		if i < len(d.PrecipProbMax) && d.PrecipProbMax[i] != nil {
			precip = *d.PrecipProbMax[i]
		}
		var gust int
		if i < len(d.WindGustsMax) {
			gust = round(d.WindGustsMax[i])
		}
		days = append(days, domain.DailyForecast{
			Date:        date,
			MaxTemp:     round(d.TemperatureMax[i]),
			MinTemp:     round(d.TemperatureMin[i]),
			Condition:   domain.DayCondition(d.WeatherCode[i]),
			PrecipProb:  round(precip),
			MaxWindGust: gust,
		})
	}
	return days
}

func mapArchiveDays(d openmeteo.ArchiveDaily) []domain.HistoricalDay {
	days := make([]domain.HistoricalDay, 0, len(d.Time))
	for i, date := range d.Time {
		if day, ok := archiveDay(d, i, date); ok {
			days = append(days, day)
		}
	}
	return days
}

// archiveDay maps one archive row, rejecting rows whose temperatures are
// null. Recent dates sit outside the reanalysis window and come back that
// way.
func archiveDay(d openmeteo.ArchiveDaily, i int, date string) (domain.HistoricalDay, bool) {
	if i >= len(d.TemperatureMax) || d.TemperatureMax[i] == nil ||
		i >= len(d.TemperatureMin) || d.TemperatureMin[i] == nil ||
		i >= len(d.TemperatureMean) || d.TemperatureMean[i] == nil {
		return domain.HistoricalDay{}, false
	}

	day := domain.HistoricalDay{
		Date:      date,
		MaxTemp:   round(*d.TemperatureMax[i]),
		MinTemp:   round(*d.TemperatureMin[i]),
		AvgTemp:   round(*d.TemperatureMean[i]),
		Condition: "Unknown",
	}
	if i < len(d.WeatherCode) && d.WeatherCode[i] != nil {
		day.Condition = domain.DayCondition(*d.WeatherCode[i])
	}
	if i < len(d.PrecipitationSum) && d.PrecipitationSum[i] != nil {
		day.Precipitation = math.Round(*d.PrecipitationSum[i]*10) / 10
	}
	if i < len(d.WindSpeedMax) && d.WindSpeedMax[i] != nil {
		day.WindSpeed = round(*d.WindSpeedMax[i])
	}
	return day, true
}

func round(v float64) int {
	return int(math.Round(v))
}
