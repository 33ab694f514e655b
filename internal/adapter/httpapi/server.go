// Package httpapi exposes the service over HTTP: location search and
// management, weather snapshots, history, settings, and the operational
// endpoints.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/skycast-app/skycast/internal/domain"
	"github.com/skycast-app/skycast/internal/geocode"
	"github.com/skycast-app/skycast/internal/store"
)

// LocationResolver turns a search query into candidate locations.
type LocationResolver interface {
	Resolve(ctx context.Context, query string) ([]domain.Location, error)
}

// HistoryFetcher serves the historical endpoints.
type HistoryFetcher interface {
	HistoricalWindow(ctx context.Context, loc domain.Location, yearsBack int) ([]domain.HistoricalDay, error)
	YearlyComparison(ctx context.Context, loc domain.Location, years int) ([]domain.YearlyComparison, error)
}

// Sweeper runs on-demand refreshes and reports readiness.
type Sweeper interface {
	RunSweep(ctx context.Context) error
	CheckReadiness(ctx context.Context) error
}

// Server is the HTTP surface.
type Server struct {
	httpServer *http.Server
	store      *store.Store
	resolver   LocationResolver
	history    HistoryFetcher
	sweeper    Sweeper

	defaultUnit domain.TemperatureUnit
	logger      *slog.Logger
}

// NewServer creates the HTTP server and wires all routes.
func NewServer(addr string, st *store.Store, resolver LocationResolver, history HistoryFetcher,
	sweeper Sweeper, defaultUnit domain.TemperatureUnit, logger *slog.Logger) *Server {
	s := &Server{
		store:       st,
		resolver:    resolver,
		history:     history,
		sweeper:     sweeper,
		defaultUnit: defaultUnit,
		logger:      logger,
	}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/search", s.handleSearch).Methods(http.MethodGet)

	api.HandleFunc("/locations", s.handleListLocations).Methods(http.MethodGet)
	api.HandleFunc("/locations", s.handleAddLocation).Methods(http.MethodPost)
	api.HandleFunc("/locations/order", s.handleReorder).Methods(http.MethodPut)
	api.HandleFunc("/locations/{id}", s.handleRemoveLocation).Methods(http.MethodDelete)
	api.HandleFunc("/locations/{id}/favorite", s.handleSetFavorite).Methods(http.MethodPut)

	api.HandleFunc("/weather", s.handleAllWeather).Methods(http.MethodGet)
	api.HandleFunc("/weather/{id}", s.handleWeather).Methods(http.MethodGet)
	api.HandleFunc("/refresh", s.handleRefresh).Methods(http.MethodPost)

	api.HandleFunc("/history/{id}", s.handleHistory).Methods(http.MethodGet)
	api.HandleFunc("/history/{id}/yearly", s.handleYearly).Methods(http.MethodGet)

	api.HandleFunc("/settings", s.handleGetSettings).Methods(http.MethodGet)
	api.HandleFunc("/settings", s.handleUpdateSettings).Methods(http.MethodPut)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.sweeper.CheckReadiness(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "missing query parameter q")
		return
	}

	locations, err := s.resolver.Resolve(r.Context(), query)
	if errors.Is(err, geocode.ErrNoResults) {
		writeError(w, http.StatusNotFound, "no location found")
		return
	}
	if err != nil {
		s.logger.Error("search failed", "query", query, "error", err)
		writeError(w, http.StatusBadGateway, "location search failed")
		return
	}
	writeJSON(w, http.StatusOK, locations)
}

func (s *Server) handleListLocations(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.Locations(r.Context())
	if err != nil {
		s.logger.Error("list locations failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load locations")
		return
	}
	if records == nil {
		records = []store.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleAddLocation(w http.ResponseWriter, r *http.Request) {
	var loc domain.Location
	if err := json.NewDecoder(r.Body).Decode(&loc); err != nil {
		writeError(w, http.StatusBadRequest, "invalid location payload")
		return
	}
	if loc.ID == "" || loc.City == "" {
		writeError(w, http.StatusBadRequest, "location id and city are required")
		return
	}

	err := s.store.AddLocation(r.Context(), loc)
	if errors.Is(err, store.ErrDuplicateLocation) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		s.logger.Error("add location failed", "city", loc.City, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save location")
		return
	}
	writeJSON(w, http.StatusCreated, loc)
}

func (s *Server) handleRemoveLocation(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	err := s.store.RemoveLocation(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "location not found")
		return
	}
	if err != nil {
		s.logger.Error("remove location failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to remove location")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReorder(w http.ResponseWriter, r *http.Request) {
	var body struct {
		IDs []string `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.IDs) == 0 {
		writeError(w, http.StatusBadRequest, "invalid reorder payload")
		return
	}

	if err := s.store.Reorder(r.Context(), body.IDs); err != nil {
		s.logger.Error("reorder failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to reorder locations")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetFavorite(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var body struct {
		Favorite bool `json:"favorite"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid favorite payload")
		return
	}

	err := s.store.SetFavorite(r.Context(), id, body.Favorite)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "location not found")
		return
	}
	if err != nil {
		s.logger.Error("set favorite failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update favorite")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAllWeather(w http.ResponseWriter, r *http.Request) {
	snaps, err := s.store.Snapshots(r.Context())
	if err != nil {
		s.logger.Error("load snapshots failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load weather")
		return
	}
	if snaps == nil {
		snaps = []domain.WeatherSnapshot{}
	}
	writeJSON(w, http.StatusOK, snaps)
}

func (s *Server) handleWeather(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	snap, err := s.store.Snapshot(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "no weather data for location")
		return
	}
	if err != nil {
		s.logger.Error("load snapshot failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load weather")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// handleRefresh runs a sweep synchronously. Unlike the background schedule,
// failures surface to the caller.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.sweeper.RunSweep(r.Context()); err != nil {
		s.logger.Error("manual refresh failed", "error", err)
		writeError(w, http.StatusBadGateway, "refresh failed: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "refreshed"})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.lookupLocation(w, r)
	if !ok {
		return
	}

	yearsBack, ok := intQuery(w, r, "years_back", 1, 1, 50)
	if !ok {
		return
	}

	days, err := s.history.HistoricalWindow(r.Context(), rec.Location, yearsBack)
	if err != nil {
		s.logger.Error("historical fetch failed", "city", rec.City, "error", err)
		writeError(w, http.StatusBadGateway, "failed to load historical weather")
		return
	}
	writeJSON(w, http.StatusOK, days)
}

func (s *Server) handleYearly(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.lookupLocation(w, r)
	if !ok {
		return
	}

	years, ok := intQuery(w, r, "years", 5, 1, 50)
	if !ok {
		return
	}

	results, err := s.history.YearlyComparison(r.Context(), rec.Location, years)
	if err != nil {
		s.logger.Error("yearly comparison failed", "city", rec.City, "error", err)
		writeError(w, http.StatusBadGateway, "failed to load yearly comparison")
		return
	}
	writeJSON(w, http.StatusOK, results)
}

type settingsPayload struct {
	TemperatureUnit      domain.TemperatureUnit `json:"temperature_unit"`
	NotificationsEnabled bool                   `json:"notifications_enabled"`
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	unit, err := s.store.TemperatureUnit(r.Context(), s.defaultUnit)
	if err != nil {
		s.logger.Error("load settings failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}
	enabled, err := s.store.NotificationsEnabled(r.Context())
	if err != nil {
		s.logger.Error("load settings failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}
	writeJSON(w, http.StatusOK, settingsPayload{TemperatureUnit: unit, NotificationsEnabled: enabled})
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var body settingsPayload
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid settings payload")
		return
	}
	if body.TemperatureUnit != domain.Celsius && body.TemperatureUnit != domain.Fahrenheit {
		writeError(w, http.StatusBadRequest, "temperature_unit must be C or F")
		return
	}

	if err := s.store.SetTemperatureUnit(r.Context(), body.TemperatureUnit); err != nil {
		s.logger.Error("save settings failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save settings")
		return
	}
	if err := s.store.SetNotificationsEnabled(r.Context(), body.NotificationsEnabled); err != nil {
		s.logger.Error("save settings failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save settings")
		return
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) lookupLocation(w http.ResponseWriter, r *http.Request) (store.Record, bool) {
	id := mux.Vars(r)["id"]

	rec, err := s.store.Location(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "location not found")
		return store.Record{}, false
	}
	if err != nil {
		s.logger.Error("load location failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load location")
		return store.Record{}, false
	}
	return rec, true
}

func intQuery(w http.ResponseWriter, r *http.Request, name string, def, min, max int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < min || n > max {
		writeError(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return n, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
