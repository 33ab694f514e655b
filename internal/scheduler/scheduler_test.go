package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skycast-app/skycast/internal/alert"
	"github.com/skycast-app/skycast/internal/config"
	"github.com/skycast-app/skycast/internal/domain"
	"github.com/skycast-app/skycast/internal/observability"
	"github.com/skycast-app/skycast/internal/store"
)

type fakeFetcher struct {
	fn    func(ctx context.Context, loc domain.Location, unit domain.TemperatureUnit) (domain.WeatherSnapshot, error)
	calls []string
}

func (f *fakeFetcher) FetchWeather(ctx context.Context, loc domain.Location, unit domain.TemperatureUnit) (domain.WeatherSnapshot, error) {
	f.calls = append(f.calls, loc.City)
	return f.fn(ctx, loc, unit)
}

type fakeStorage struct {
	records    []store.Record
	removed    map[string]bool
	snapshots  map[string]domain.WeatherSnapshot
	ledger     alert.Ledger
	unit       domain.TemperatureUnit
	notify     bool
	listErr    error
	listErrs   int
	saveErr    error
	savedOrder []string
}

func newFakeStorage(records ...store.Record) *fakeStorage {
	return &fakeStorage{
		records:   records,
		removed:   map[string]bool{},
		snapshots: map[string]domain.WeatherSnapshot{},
		ledger:    alert.Ledger{},
		unit:      domain.Celsius,
		notify:    true,
	}
}

func (f *fakeStorage) Locations(context.Context) ([]store.Record, error) {
	if f.listErr != nil && f.listErrs > 0 {
		f.listErrs--
		return nil, f.listErr
	}
	return f.records, nil
}

func (f *fakeStorage) Location(_ context.Context, id string) (store.Record, error) {
	if f.removed[id] {
		return store.Record{}, store.ErrNotFound
	}
	for _, rec := range f.records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return store.Record{}, store.ErrNotFound
}

func (f *fakeStorage) SaveSnapshot(_ context.Context, snap domain.WeatherSnapshot) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.snapshots[snap.LocationID] = snap
	f.savedOrder = append(f.savedOrder, snap.LocationID)
	return nil
}

func (f *fakeStorage) Snapshots(context.Context) ([]domain.WeatherSnapshot, error) {
	var snaps []domain.WeatherSnapshot
	for _, rec := range f.records {
		if snap, ok := f.snapshots[rec.ID]; ok {
			snaps = append(snaps, snap)
		}
	}
	return snaps, nil
}

func (f *fakeStorage) Ledger(context.Context) (alert.Ledger, error) { return f.ledger, nil }

func (f *fakeStorage) SaveLedger(_ context.Context, ledger alert.Ledger) error {
	f.ledger = ledger
	return nil
}

func (f *fakeStorage) TemperatureUnit(_ context.Context, fallback domain.TemperatureUnit) (domain.TemperatureUnit, error) {
	if f.unit == "" {
		return fallback, nil
	}
	return f.unit, nil
}

func (f *fakeStorage) NotificationsEnabled(context.Context) (bool, error) { return f.notify, nil }

type fakeDispatcher struct {
	dispatched [][]alert.Notification
}

func (f *fakeDispatcher) Dispatch(_ context.Context, notifications []alert.Notification) {
	f.dispatched = append(f.dispatched, notifications)
}

func record(id, city string) store.Record {
	return store.Record{Location: domain.Location{ID: id, City: city, Country: "United States"}}
}

func calmSnapshot(loc domain.Location) domain.WeatherSnapshot {
	return domain.WeatherSnapshot{LocationID: loc.ID, City: loc.City, Temperature: 20, Condition: "Clear sky"}
}

func stormySnapshot(loc domain.Location) domain.WeatherSnapshot {
	return domain.WeatherSnapshot{
		LocationID: loc.ID,
		City:       loc.City,
		Alerts: []domain.WeatherAlert{{
			Message: "Dangerous wind gusts of 80 km/h", Severity: domain.SeverityExtreme,
			Type: domain.AlertWind, TimeContext: domain.ContextCurrent,
		}},
		HasSevereAlert: true,
	}
}

func testScheduler(fetcher WeatherFetcher, storage Storage, dispatcher NotificationDispatcher) *Scheduler {
	cfg := &config.Config{
		UpdateInterval:     5 * time.Minute,
		SweepMaxRetries:    3,
		SweepRetryDelay:    time.Millisecond,
		DefaultUnit:        domain.Celsius,
		MorningSummaryHour: 7,
	}
	return New(fetcher, storage, dispatcher, cfg,
		observability.NewMetricsForTesting(),
		slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRunSweep_UpdatesAllLocationsInOrder(t *testing.T) {
	storage := newFakeStorage(record("loc-1", "Austin"), record("loc-2", "Portland"))
	fetcher := &fakeFetcher{
		fn: func(_ context.Context, loc domain.Location, unit domain.TemperatureUnit) (domain.WeatherSnapshot, error) {
			assert.Equal(t, domain.Celsius, unit)
			return calmSnapshot(loc), nil
		},
	}

	s := testScheduler(fetcher, storage, &fakeDispatcher{})
	require.NoError(t, s.RunSweep(context.Background()))

	assert.Equal(t, []string{"Austin", "Portland"}, fetcher.calls)
	assert.Equal(t, []string{"loc-1", "loc-2"}, storage.savedOrder)
	assert.NoError(t, s.CheckReadiness(context.Background()))
}

func TestRunSweep_FailedLocationSkipped(t *testing.T) {
	storage := newFakeStorage(record("loc-1", "Austin"), record("loc-2", "Portland"))
	fetcher := &fakeFetcher{
		fn: func(_ context.Context, loc domain.Location, _ domain.TemperatureUnit) (domain.WeatherSnapshot, error) {
			if loc.ID == "loc-1" {
				return domain.WeatherSnapshot{}, errors.New("upstream down")
			}
			return calmSnapshot(loc), nil
		},
	}

	s := testScheduler(fetcher, storage, &fakeDispatcher{})
	require.NoError(t, s.RunSweep(context.Background()))

	assert.NotContains(t, storage.snapshots, "loc-1")
	assert.Contains(t, storage.snapshots, "loc-2")
}

func TestRunSweep_RemovedLocationResultDiscarded(t *testing.T) {
	storage := newFakeStorage(record("loc-1", "Austin"))
	fetcher := &fakeFetcher{
		fn: func(_ context.Context, loc domain.Location, _ domain.TemperatureUnit) (domain.WeatherSnapshot, error) {
			// Simulates removal while the fetch is in flight.
			storage.removed["loc-1"] = true
			return calmSnapshot(loc), nil
		},
	}

	s := testScheduler(fetcher, storage, &fakeDispatcher{})
	require.NoError(t, s.RunSweep(context.Background()))

	assert.Empty(t, storage.snapshots)
}

func TestRunSweep_RetriesThenSucceeds(t *testing.T) {
	storage := newFakeStorage(record("loc-1", "Austin"))
	storage.listErr = errors.New("database locked")
	storage.listErrs = 2

	fetcher := &fakeFetcher{
		fn: func(_ context.Context, loc domain.Location, _ domain.TemperatureUnit) (domain.WeatherSnapshot, error) {
			return calmSnapshot(loc), nil
		},
	}

	s := testScheduler(fetcher, storage, &fakeDispatcher{})
	require.NoError(t, s.RunSweep(context.Background()))
	assert.Contains(t, storage.snapshots, "loc-1")
}

func TestRunSweep_RetriesExhausted(t *testing.T) {
	storage := newFakeStorage(record("loc-1", "Austin"))
	storage.listErr = errors.New("database locked")
	storage.listErrs = 100

	s := testScheduler(&fakeFetcher{}, storage, &fakeDispatcher{})
	err := s.RunSweep(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 retries")
	assert.Error(t, s.CheckReadiness(context.Background()))
}

func TestRunSweep_DispatchesNewAlerts(t *testing.T) {
	storage := newFakeStorage(record("loc-1", "Austin"))
	fetcher := &fakeFetcher{
		fn: func(_ context.Context, loc domain.Location, _ domain.TemperatureUnit) (domain.WeatherSnapshot, error) {
			return stormySnapshot(loc), nil
		},
	}
	dispatcher := &fakeDispatcher{}

	s := testScheduler(fetcher, storage, dispatcher)
	require.NoError(t, s.RunSweep(context.Background()))

	require.Len(t, dispatcher.dispatched, 1)
	require.Len(t, dispatcher.dispatched[0], 1)
	assert.Equal(t, "🚨 Weather Alert - Austin", dispatcher.dispatched[0][0].Title)
	assert.Equal(t, alert.Ledger{"loc-1": {"Dangerous wind gusts of 80 km/h"}}, storage.ledger)

	// The same alert stays silent on the next sweep.
	require.NoError(t, s.RunSweep(context.Background()))
	assert.Len(t, dispatcher.dispatched, 1)
}

func TestRunSweep_NotificationsDisabledStillUpdatesLedger(t *testing.T) {
	storage := newFakeStorage(record("loc-1", "Austin"))
	storage.notify = false
	fetcher := &fakeFetcher{
		fn: func(_ context.Context, loc domain.Location, _ domain.TemperatureUnit) (domain.WeatherSnapshot, error) {
			return stormySnapshot(loc), nil
		},
	}
	dispatcher := &fakeDispatcher{}

	s := testScheduler(fetcher, storage, dispatcher)
	require.NoError(t, s.RunSweep(context.Background()))

	assert.Empty(t, dispatcher.dispatched)
	assert.Equal(t, alert.Ledger{"loc-1": {"Dangerous wind gusts of 80 km/h"}}, storage.ledger)
}

func TestRunSweep_MorningSummaryOncePerDay(t *testing.T) {
	storage := newFakeStorage(record("loc-1", "Austin"))
	fetcher := &fakeFetcher{
		fn: func(_ context.Context, loc domain.Location, _ domain.TemperatureUnit) (domain.WeatherSnapshot, error) {
			return calmSnapshot(loc), nil
		},
	}
	dispatcher := &fakeDispatcher{}

	s := testScheduler(fetcher, storage, dispatcher)
	s.summaryEnabled = true
	s.clock = clockwork.NewFakeClockAt(time.Date(2026, 8, 28, 7, 5, 0, 0, time.UTC))

	require.NoError(t, s.RunSweep(context.Background()))
	require.Len(t, dispatcher.dispatched, 1)
	assert.Equal(t, "☀️ Morning Weather Summary", dispatcher.dispatched[0][0].Title)
	assert.Equal(t, "Austin: 20°C, Clear sky", dispatcher.dispatched[0][0].Body)

	// Same hour, same day: no second summary.
	require.NoError(t, s.RunSweep(context.Background()))
	assert.Len(t, dispatcher.dispatched, 1)
}

func TestRunSweep_NoSummaryOutsideConfiguredHour(t *testing.T) {
	storage := newFakeStorage(record("loc-1", "Austin"))
	fetcher := &fakeFetcher{
		fn: func(_ context.Context, loc domain.Location, _ domain.TemperatureUnit) (domain.WeatherSnapshot, error) {
			return calmSnapshot(loc), nil
		},
	}
	dispatcher := &fakeDispatcher{}

	s := testScheduler(fetcher, storage, dispatcher)
	s.summaryEnabled = true
	s.clock = clockwork.NewFakeClockAt(time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC))

	require.NoError(t, s.RunSweep(context.Background()))
	assert.Empty(t, dispatcher.dispatched)
}

func TestRunSweep_CancelledContext(t *testing.T) {
	storage := newFakeStorage(record("loc-1", "Austin"))
	ctx, cancel := context.WithCancel(context.Background())
	fetcher := &fakeFetcher{
		fn: func(_ context.Context, loc domain.Location, _ domain.TemperatureUnit) (domain.WeatherSnapshot, error) {
			cancel()
			return calmSnapshot(loc), nil
		},
	}

	s := testScheduler(fetcher, storage, &fakeDispatcher{})
	err := s.RunSweep(ctx)
	require.Error(t, err)
}
