// Package store persists saved locations, their latest snapshots, the
// delivered-alert ledger, and display settings in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	_ "github.com/mattn/go-sqlite3"

	"github.com/skycast-app/skycast/internal/alert"
	"github.com/skycast-app/skycast/internal/domain"
)

// ErrNotFound indicates the requested record does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateLocation indicates a saved location already exists within the
// proximity threshold of the one being added.
var ErrDuplicateLocation = errors.New("location already saved nearby")

const schema = `
CREATE TABLE IF NOT EXISTS locations (
	id       TEXT PRIMARY KEY,
	city     TEXT NOT NULL,
	state    TEXT NOT NULL DEFAULT '',
	country  TEXT NOT NULL,
	lat      REAL NOT NULL,
	lon      REAL NOT NULL,
	region   TEXT NOT NULL DEFAULT '',
	position INTEGER NOT NULL,
	favorite INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS snapshots (
	location_id TEXT PRIMARY KEY REFERENCES locations(id) ON DELETE CASCADE,
	data        TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS alert_ledger (
	location_id TEXT PRIMARY KEY,
	messages    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// Record is a saved location with its list metadata.
type Record struct {
	domain.Location
	Favorite bool `json:"favorite"`
}

// Store wraps the SQLite database.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (creating if necessary) the database at path and applies the
// schema.
func Open(path string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// The sqlite driver does not tolerate concurrent writers on one file.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// AddLocation appends a location to the end of the saved list. Locations
// within the proximity threshold of an existing one are rejected with
// ErrDuplicateLocation.
func (s *Store) AddLocation(ctx context.Context, loc domain.Location) error {
	existing, err := s.Locations(ctx)
	if err != nil {
		return err
	}
	for _, rec := range existing {
		if domain.CloseEnough(rec.Location, loc) {
			return fmt.Errorf("%w: %s", ErrDuplicateLocation, rec.City)
		}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO locations (id, city, state, country, lat, lon, region, position)
		VALUES (?, ?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(position), -1) + 1 FROM locations))`,
		loc.ID, loc.City, loc.State, loc.Country, loc.Lat, loc.Lon, loc.Region)
	if err != nil {
		return fmt.Errorf("insert location: %w", err)
	}
	return nil
}

// Locations returns the saved list in display order.
func (s *Store) Locations(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, city, state, country, lat, lon, region, favorite
		FROM locations ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query locations: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.City, &rec.State, &rec.Country,
			&rec.Lat, &rec.Lon, &rec.Region, &rec.Favorite); err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Location returns one saved location.
func (s *Store) Location(ctx context.Context, id string) (Record, error) {
	var rec Record
	err := s.db.QueryRowContext(ctx, `
		SELECT id, city, state, country, lat, lon, region, favorite
		FROM locations WHERE id = ?`, id).
		Scan(&rec.ID, &rec.City, &rec.State, &rec.Country,
			&rec.Lat, &rec.Lon, &rec.Region, &rec.Favorite)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("query location: %w", err)
	}
	return rec, nil
}

// RemoveLocation deletes a location, its snapshot, and its ledger entry.
func (s *Store) RemoveLocation(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM locations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete location: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM alert_ledger WHERE location_id = ?`, id); err != nil {
		return fmt.Errorf("delete ledger entry: %w", err)
	}
	return nil
}

// Reorder rewrites display positions to match the given id order. Ids not
// present in the list keep their relative order after the listed ones.
func (s *Store) Reorder(ctx context.Context, ids []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reorder: %w", err)
	}
	defer tx.Rollback()

	for pos, id := range ids {
		if _, err := tx.ExecContext(ctx,
			`UPDATE locations SET position = ? WHERE id = ?`, pos, id); err != nil {
			return fmt.Errorf("reorder location %s: %w", id, err)
		}
	}
	return tx.Commit()
}

// SetFavorite toggles the favorite flag.
func (s *Store) SetFavorite(ctx context.Context, id string, favorite bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE locations SET favorite = ? WHERE id = ?`, favorite, id)
	if err != nil {
		return fmt.Errorf("set favorite: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveSnapshot stores the latest snapshot for its location, replacing any
// previous one.
func (s *Store) SaveSnapshot(ctx context.Context, snap domain.WeatherSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("serialize snapshot: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO snapshots (location_id, data) VALUES (?, ?)
		ON CONFLICT(location_id) DO UPDATE SET data = excluded.data`,
		snap.LocationID, data)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Snapshot returns the latest snapshot for a location.
func (s *Store) Snapshot(ctx context.Context, locationID string) (domain.WeatherSnapshot, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM snapshots WHERE location_id = ?`, locationID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.WeatherSnapshot{}, ErrNotFound
	}
	if err != nil {
		return domain.WeatherSnapshot{}, fmt.Errorf("query snapshot: %w", err)
	}

	var snap domain.WeatherSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return domain.WeatherSnapshot{}, fmt.Errorf("deserialize snapshot: %w", err)
	}
	return snap, nil
}

// Snapshots returns all stored snapshots in location display order.
// Locations without a snapshot yet are skipped.
func (s *Store) Snapshots(ctx context.Context) ([]domain.WeatherSnapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.data FROM snapshots s
		JOIN locations l ON l.id = s.location_id
		ORDER BY l.position`)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []domain.WeatherSnapshot
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		var snap domain.WeatherSnapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			return nil, fmt.Errorf("deserialize snapshot: %w", err)
		}
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

// Ledger loads the delivered-alert ledger.
func (s *Store) Ledger(ctx context.Context) (alert.Ledger, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT location_id, messages FROM alert_ledger`)
	if err != nil {
		return nil, fmt.Errorf("query ledger: %w", err)
	}
	defer rows.Close()

	ledger := make(alert.Ledger)
	for rows.Next() {
		var id string
		var data []byte
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		var messages []string
		if err := json.Unmarshal(data, &messages); err != nil {
			return nil, fmt.Errorf("deserialize ledger entry: %w", err)
		}
		ledger[id] = messages
	}
	return ledger, rows.Err()
}

// SaveLedger replaces the stored ledger wholesale.
func (s *Store) SaveLedger(ctx context.Context, ledger alert.Ledger) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin ledger save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM alert_ledger`); err != nil {
		return fmt.Errorf("clear ledger: %w", err)
	}
	for id, messages := range ledger {
		data, err := json.Marshal(messages)
		if err != nil {
			return fmt.Errorf("serialize ledger entry: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO alert_ledger (location_id, messages) VALUES (?, ?)`, id, data); err != nil {
			return fmt.Errorf("insert ledger entry: %w", err)
		}
	}
	return tx.Commit()
}

// Settings keys.
const (
	settingTemperatureUnit      = "temperature_unit"
	settingNotificationsEnabled = "notifications_enabled"
)

// TemperatureUnit returns the stored display unit, or the given default
// when none is set.
func (s *Store) TemperatureUnit(ctx context.Context, fallback domain.TemperatureUnit) (domain.TemperatureUnit, error) {
	value, err := s.setting(ctx, settingTemperatureUnit)
	if errors.Is(err, ErrNotFound) {
		return fallback, nil
	}
	if err != nil {
		return "", err
	}
	return domain.TemperatureUnit(value), nil
}

// SetTemperatureUnit stores the display unit.
func (s *Store) SetTemperatureUnit(ctx context.Context, unit domain.TemperatureUnit) error {
	return s.setSetting(ctx, settingTemperatureUnit, string(unit))
}

// NotificationsEnabled reports whether alert delivery is switched on.
// Defaults to true when never set.
func (s *Store) NotificationsEnabled(ctx context.Context) (bool, error) {
	value, err := s.setting(ctx, settingNotificationsEnabled)
	if errors.Is(err, ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return value == "true", nil
}

// SetNotificationsEnabled stores the alert delivery switch.
func (s *Store) SetNotificationsEnabled(ctx context.Context, enabled bool) error {
	value := "false"
	if enabled {
		value = "true"
	}
	return s.setSetting(ctx, settingNotificationsEnabled, value)
}

func (s *Store) setting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("query setting %s: %w", key, err)
	}
	return value, nil
}

func (s *Store) setSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("save setting %s: %w", key, err)
	}
	return nil
}
