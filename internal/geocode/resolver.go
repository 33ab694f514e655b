// Package geocode turns user queries into Locations. A query is either a
// "lat,lon" coordinate pair, a supported US state name, or free text.
package geocode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/skycast-app/skycast/internal/adapter/nominatim"
	"github.com/skycast-app/skycast/internal/adapter/openmeteo"
	"github.com/skycast-app/skycast/internal/domain"
	"github.com/skycast-app/skycast/internal/observability"
)

// ErrNoResults indicates a free-text query matched nothing.
var ErrNoResults = errors.New("no location found")

const (
	unknownLocation = "Unknown Location"
	unknownCountry  = "Unknown"

	// Region and country placeholder when reverse geocoding fails entirely.
	currentLocation = "Current Location"
)

// GeoNames admin1 ids for the supported state queries.
var usStateAdmin1 = map[string]int64{
	"california": 5332921,
	"new york":   5128638,
	"texas":      4736286,
	"florida":    4155751,
}

// Cities probed to populate a state query, matched against the state's
// admin1 id afterwards.
var stateProbeCities = []string{"los angeles", "san francisco", "san diego", "sacramento"}

// settlementExtractors is the priority order for naming a reverse-geocoded
// place. The first extractor returning a non-empty value wins.
var settlementExtractors = []func(nominatim.Address) string{
	func(a nominatim.Address) string { return a.City },
	func(a nominatim.Address) string { return a.Town },
	func(a nominatim.Address) string { return a.Village },
	func(a nominatim.Address) string { return a.Suburb },
}

// Searcher is the forward-geocoding dependency.
type Searcher interface {
	Search(ctx context.Context, name string, count int) ([]openmeteo.SearchResult, error)
	SearchInCountry(ctx context.Context, name, country string, count int) ([]openmeteo.SearchResult, error)
}

// ReverseGeocoder is the coordinate-to-address dependency.
type ReverseGeocoder interface {
	Reverse(ctx context.Context, lat, lon float64) (nominatim.Address, error)
}

// Resolver resolves search queries into candidate Locations.
type Resolver struct {
	search  Searcher
	reverse ReverseGeocoder
	metrics *observability.Metrics
	logger  *slog.Logger
	newID   func() string
}

// NewResolver creates a Resolver.
func NewResolver(search Searcher, reverse ReverseGeocoder, metrics *observability.Metrics, logger *slog.Logger) *Resolver {
	return &Resolver{
		search:  search,
		reverse: reverse,
		metrics: metrics,
		logger:  logger,
		newID:   uuid.NewString,
	}
}

// Resolve returns candidate Locations for a query. Coordinate queries always
// produce exactly one Location, falling back to a synthetic "Current
// Location" entry when reverse geocoding fails. Free-text queries with no
// matches return ErrNoResults.
func (r *Resolver) Resolve(ctx context.Context, query string) ([]domain.Location, error) {
	if lat, lon, ok := parseCoordinates(query); ok {
		return []domain.Location{r.resolveCoordinates(ctx, lat, lon)}, nil
	}

	if stateID, ok := usStateAdmin1[strings.ToLower(strings.TrimSpace(query))]; ok {
		return r.resolveState(ctx, stateID)
	}

	return r.resolveFreeText(ctx, query)
}

func (r *Resolver) resolveCoordinates(ctx context.Context, lat, lon float64) domain.Location {
	addr, err := r.reverse.Reverse(ctx, lat, lon)
	if err != nil {
		r.metrics.GeocodeRequests.WithLabelValues("reverse", "error").Inc()
		r.logger.Warn("reverse geocode failed, using synthetic location",
			"lat", lat, "lon", lon, "error", err)
		return domain.Location{
			ID:      r.newID(),
			City:    unknownLocation,
			Country: currentLocation,
			Lat:     lat,
			Lon:     lon,
			Region:  currentLocation,
		}
	}
	r.metrics.GeocodeRequests.WithLabelValues("reverse", "success").Inc()

	country := addr.Country
	if country == "" {
		country = unknownCountry
	}
	return domain.Location{
		ID:      r.newID(),
		City:    settlementName(addr),
		State:   addr.State,
		Country: country,
		Lat:     lat,
		Lon:     lon,
		Region:  firstNonEmpty(addr.State, addr.Country, "Other"),
	}
}

func (r *Resolver) resolveState(ctx context.Context, stateID int64) ([]domain.Location, error) {
	var matches []openmeteo.SearchResult
	for _, city := range stateProbeCities {
		results, err := r.search.SearchInCountry(ctx, city, "United States", 1)
		if err != nil {
			r.metrics.GeocodeRequests.WithLabelValues("region", "error").Inc()
			return nil, fmt.Errorf("probe %q: %w", city, err)
		}
		for _, res := range results {
			if res.Admin1ID == stateID && strings.HasPrefix(res.FeatureCode, "PPL") {
				matches = append(matches, res)
			}
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Population > matches[j].Population
	})

	r.metrics.GeocodeRequests.WithLabelValues("region", outcomeFor(len(matches))).Inc()
	return r.mapResults(matches), nil
}

func (r *Resolver) resolveFreeText(ctx context.Context, query string) ([]domain.Location, error) {
	results, err := r.search.Search(ctx, query, 10)
	if err != nil {
		r.metrics.GeocodeRequests.WithLabelValues("forward", "error").Inc()
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	if len(results) == 0 {
		r.metrics.GeocodeRequests.WithLabelValues("forward", "empty").Inc()
		return nil, ErrNoResults
	}

	r.metrics.GeocodeRequests.WithLabelValues("forward", "success").Inc()
	return r.mapResults(results), nil
}

func (r *Resolver) mapResults(results []openmeteo.SearchResult) []domain.Location {
	locations := make([]domain.Location, 0, len(results))
	for _, res := range results {
		city := res.Name
		if city == "" {
			city = unknownLocation
		}
		country := res.Country
		if country == "" {
			country = unknownCountry
		}
		locations = append(locations, domain.Location{
			ID:      r.newID(),
			City:    city,
			State:   res.Admin1,
			Country: country,
			Lat:     res.Latitude,
			Lon:     res.Longitude,
			Region:  firstNonEmpty(res.Admin1, res.Country, "Other"),
		})
	}
	return locations
}

func settlementName(a nominatim.Address) string {
	for _, extract := range settlementExtractors {
		if name := extract(a); name != "" {
			return name
		}
	}
	return unknownLocation
}

// parseCoordinates accepts "lat,lon" with optional whitespace.
func parseCoordinates(query string) (lat, lon float64, ok bool) {
	parts := strings.Split(query, ",")
	if len(parts) != 2 {
		return 0, 0, false
	}
	lat, errLat := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lon, errLon := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if errLat != nil || errLon != nil {
		return 0, 0, false
	}
	return lat, lon, true
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func outcomeFor(n int) string {
	if n == 0 {
		return "empty"
	}
	return "success"
}
