package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Reading is one persisted temperature/humidity sample.
type Reading struct {
	ID          int64     `json:"id"`
	DeviceID    string    `json:"device_id"`
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
	CreatedAt   time.Time `json:"created_at"`
}

// SeedLevel is one persisted feeder seed level report.
type SeedLevel struct {
	ID        int64     `json:"id"`
	DeviceID  string    `json:"device_id"`
	Level     float64   `json:"level"`
	CreatedAt time.Time `json:"created_at"`
}

// Alert is one persisted device alert.
type Alert struct {
	ID        int64     `json:"id"`
	DeviceID  string    `json:"device_id"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Log is one persisted activity log entry. Every accepted reading,
// command, and lifecycle event produces one.
type Log struct {
	ID        int64     `json:"id"`
	DeviceID  string    `json:"device_id"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Log entry types written by the core.
const (
	LogTypeReading   = "temperature"
	LogTypeSeedLevel = "seed_level"
	LogTypeAlert     = "alert"
	LogTypeCommand   = "command"
	LogTypeLifecycle = "lifecycle"
)

// Repository defines the insert-only operations the core needs.
type Repository interface {
	InsertReading(ctx context.Context, reading *Reading) error
	InsertSeedLevel(ctx context.Context, level *SeedLevel) error
	InsertAlert(ctx context.Context, alert *Alert) error
	InsertLog(ctx context.Context, entry *Log) error
}

// SQLiteRepository writes AutoFarm rows to SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a repository on the shared database handle.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// InsertReading appends a reading row. The CreatedAt is generated if zero
// and written back to the struct along with the row ID.
func (r *SQLiteRepository) InsertReading(ctx context.Context, reading *Reading) error {
	if reading.DeviceID == "" {
		return fmt.Errorf("%w: device id required", ErrInvalidRow)
	}
	if reading.CreatedAt.IsZero() {
		reading.CreatedAt = time.Now().UTC()
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO readings (device_id, temperature, humidity, created_at)
		 VALUES (?, ?, ?, ?)`,
		reading.DeviceID, reading.Temperature, reading.Humidity,
		reading.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting reading: %w", err)
	}

	reading.ID, _ = res.LastInsertId() //nolint:errcheck // sqlite always supports it
	return nil
}

// InsertSeedLevel appends a seed level row.
func (r *SQLiteRepository) InsertSeedLevel(ctx context.Context, level *SeedLevel) error {
	if level.DeviceID == "" {
		return fmt.Errorf("%w: device id required", ErrInvalidRow)
	}
	if level.CreatedAt.IsZero() {
		level.CreatedAt = time.Now().UTC()
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO seed_levels (device_id, level, created_at)
		 VALUES (?, ?, ?)`,
		level.DeviceID, level.Level,
		level.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting seed level: %w", err)
	}

	level.ID, _ = res.LastInsertId() //nolint:errcheck
	return nil
}

// InsertAlert appends an alert row.
func (r *SQLiteRepository) InsertAlert(ctx context.Context, alert *Alert) error {
	if alert.DeviceID == "" {
		return fmt.Errorf("%w: device id required", ErrInvalidRow)
	}
	if alert.Type == "" {
		return fmt.Errorf("%w: alert type required", ErrInvalidRow)
	}
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now().UTC()
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO alerts (device_id, type, message, created_at)
		 VALUES (?, ?, ?, ?)`,
		alert.DeviceID, alert.Type, alert.Message,
		alert.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting alert: %w", err)
	}

	alert.ID, _ = res.LastInsertId() //nolint:errcheck
	return nil
}

// InsertLog appends an activity log row.
func (r *SQLiteRepository) InsertLog(ctx context.Context, entry *Log) error {
	if entry.DeviceID == "" {
		return fmt.Errorf("%w: device id required", ErrInvalidRow)
	}
	if entry.Type == "" {
		return fmt.Errorf("%w: log type required", ErrInvalidRow)
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO logs (device_id, type, message, created_at)
		 VALUES (?, ?, ?, ?)`,
		entry.DeviceID, entry.Type, entry.Message,
		entry.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting log: %w", err)
	}

	entry.ID, _ = res.LastInsertId() //nolint:errcheck
	return nil
}
