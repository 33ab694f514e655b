// Package scheduler drives the periodic weather sweep: every interval it
// refreshes each saved location sequentially, persists the results, and
// reconciles alert notifications.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/jonboulle/clockwork"

	"github.com/skycast-app/skycast/internal/alert"
	"github.com/skycast-app/skycast/internal/config"
	"github.com/skycast-app/skycast/internal/domain"
	"github.com/skycast-app/skycast/internal/observability"
	"github.com/skycast-app/skycast/internal/store"
)

// WeatherFetcher produces a fresh snapshot for one location.
type WeatherFetcher interface {
	FetchWeather(ctx context.Context, loc domain.Location, unit domain.TemperatureUnit) (domain.WeatherSnapshot, error)
}

// Storage is the persistence surface the sweep needs.
type Storage interface {
	Locations(ctx context.Context) ([]store.Record, error)
	Location(ctx context.Context, id string) (store.Record, error)
	SaveSnapshot(ctx context.Context, snap domain.WeatherSnapshot) error
	Snapshots(ctx context.Context) ([]domain.WeatherSnapshot, error)
	Ledger(ctx context.Context) (alert.Ledger, error)
	SaveLedger(ctx context.Context, ledger alert.Ledger) error
	TemperatureUnit(ctx context.Context, fallback domain.TemperatureUnit) (domain.TemperatureUnit, error)
	NotificationsEnabled(ctx context.Context) (bool, error)
}

// NotificationDispatcher delivers notifications to the configured sinks.
type NotificationDispatcher interface {
	Dispatch(ctx context.Context, notifications []alert.Notification)
}

// Scheduler runs the periodic sweep.
type Scheduler struct {
	fetcher    WeatherFetcher
	store      Storage
	dispatcher NotificationDispatcher

	interval    time.Duration
	maxRetries  int
	retryDelay  time.Duration
	defaultUnit domain.TemperatureUnit

	summaryEnabled bool
	summaryHour    int

	metrics *observability.Metrics
	logger  *slog.Logger
	clock   clockwork.Clock

	ready atomic.Bool

	// mu serializes sweeps so a slow manual refresh and a timer tick never
	// interleave.
	mu              sync.Mutex
	lastSummaryDate string
}

// New creates a Scheduler.
func New(fetcher WeatherFetcher, storage Storage, dispatcher NotificationDispatcher,
	cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		fetcher:        fetcher,
		store:          storage,
		dispatcher:     dispatcher,
		interval:       cfg.UpdateInterval,
		maxRetries:     cfg.SweepMaxRetries,
		retryDelay:     cfg.SweepRetryDelay,
		defaultUnit:    cfg.DefaultUnit,
		summaryEnabled: cfg.MorningSummaryEnabled,
		summaryHour:    cfg.MorningSummaryHour,
		metrics:        metrics,
		logger:         logger,
		clock:          clockwork.NewRealClock(),
	}
}

// CheckReadiness returns nil once at least one sweep has completed.
func (s *Scheduler) CheckReadiness(_ context.Context) error {
	if !s.ready.Load() {
		return errors.New("no weather sweep has completed yet")
	}
	return nil
}

// Run sweeps immediately, then on every interval tick until the context is
// cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("scheduler started", "interval", s.interval)
	s.metrics.SchedulerRunning.Set(1)
	defer s.metrics.SchedulerRunning.Set(0)

	if err := s.RunSweep(ctx); err != nil && ctx.Err() == nil {
		s.logger.Error("initial sweep failed", "error", err)
	}

	cron := gocron.NewScheduler(time.UTC)
	_, err := cron.Every(s.interval).Do(func() {
		if err := s.RunSweep(ctx); err != nil && ctx.Err() == nil {
			s.logger.Error("scheduled sweep failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule sweep: %w", err)
	}
	cron.StartAsync()
	defer cron.Stop()

	<-ctx.Done()
	s.logger.Info("scheduler stopping", "reason", ctx.Err())
	return nil
}

// RunSweep refreshes every saved location once, retrying the whole sweep
// with doubling delays when it fails outright. Individual location failures
// only skip that location.
func (s *Scheduler) RunSweep(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := s.clock.Now()
	delay := s.retryDelay

	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			s.logger.Warn("retrying sweep", "attempt", attempt, "delay", delay)
			if !sleepWithContext(ctx, s.clock, delay) {
				return ctx.Err()
			}
			delay *= 2
		}

		lastErr = s.sweep(ctx)
		if lastErr == nil {
			s.metrics.SweepDuration.Observe(s.clock.Since(start).Seconds())
			s.ready.Store(true)
			return nil
		}
		if ctx.Err() != nil {
			return lastErr
		}
		s.logger.Error("sweep failed", "attempt", attempt, "error", lastErr)
	}

	s.metrics.SweepFailures.Inc()
	return fmt.Errorf("sweep failed after %d retries: %w", s.maxRetries, lastErr)
}

// sweep runs one full pass. Locations update sequentially to respect the
// upstream rate budgets.
func (s *Scheduler) sweep(ctx context.Context) error {
	records, err := s.store.Locations(ctx)
	if err != nil {
		return fmt.Errorf("load locations: %w", err)
	}
	if len(records) == 0 {
		return nil
	}

	unit, err := s.store.TemperatureUnit(ctx, s.defaultUnit)
	if err != nil {
		return fmt.Errorf("load temperature unit: %w", err)
	}

	for _, rec := range records {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		snap, err := s.fetcher.FetchWeather(ctx, rec.Location, unit)
		if err != nil {
			s.logger.Error("weather update failed, skipping location",
				"city", rec.City, "error", err)
			continue
		}

		// The sweep may have been cancelled or the location removed while
		// the fetch was in flight; either way the result is discarded.
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if _, err := s.store.Location(ctx, rec.ID); errors.Is(err, store.ErrNotFound) {
			s.logger.Info("location removed mid-sweep, discarding result", "city", rec.City)
			continue
		} else if err != nil {
			return fmt.Errorf("recheck location %s: %w", rec.City, err)
		}

		if err := s.store.SaveSnapshot(ctx, snap); err != nil {
			return fmt.Errorf("save snapshot for %s: %w", rec.City, err)
		}
	}

	return s.notify(ctx)
}

// notify reconciles the alert ledger against the freshly stored snapshots
// and dispatches whatever is new.
func (s *Scheduler) notify(ctx context.Context) error {
	snaps, err := s.store.Snapshots(ctx)
	if err != nil {
		return fmt.Errorf("load snapshots: %w", err)
	}

	ledger, err := s.store.Ledger(ctx)
	if err != nil {
		return fmt.Errorf("load alert ledger: %w", err)
	}

	next, notifications := alert.Reconcile(snaps, ledger)
	if err := s.store.SaveLedger(ctx, next); err != nil {
		return fmt.Errorf("save alert ledger: %w", err)
	}

	enabled, err := s.store.NotificationsEnabled(ctx)
	if err != nil {
		return fmt.Errorf("load notification setting: %w", err)
	}
	if !enabled {
		return nil
	}

	if len(notifications) > 0 {
		s.dispatcher.Dispatch(ctx, notifications)
	}
	s.maybeSendMorningSummary(ctx, snaps)
	return nil
}

func (s *Scheduler) maybeSendMorningSummary(ctx context.Context, snaps []domain.WeatherSnapshot) {
	if !s.summaryEnabled {
		return
	}

	now := s.clock.Now()
	if now.Hour() != s.summaryHour {
		return
	}
	today := now.Format("2006-01-02")
	if s.lastSummaryDate == today {
		return
	}

	summary, ok := alert.MorningSummary(snaps)
	if !ok {
		return
	}
	s.dispatcher.Dispatch(ctx, []alert.Notification{summary})
	s.lastSummaryDate = today
}

func sleepWithContext(ctx context.Context, clock clockwork.Clock, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}
