package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/blotterscan/blotterscan/internal/model"
)

// HistoryDB provides SQLite-based storage for completed search runs.
// It manages connection pooling and provides methods for CRUD operations.
//
// Design decision: We store the full run as JSON alongside a relational
// booking_records table. The JSON column preserves everything for replay
// and export; the relational table makes cross-run queries cheap, in
// particular the new-bookings diff between consecutive runs.
type HistoryDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a HistoryDB at the specified directory.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, "blotterscan.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("history database not found at %s", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite connection string: mode=rw prevents creating new
	// files, mode=rwc allows creation.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Close closes the database connection.
func (hdb *HistoryDB) Close() error {
	return hdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (hdb *HistoryDB) createTables() error {
	schema := `
	-- Runs store one row per completed batch search
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at DATETIME NOT NULL,
		elapsed_seconds REAL NOT NULL,
		workers INTEGER NOT NULL,
		queries INTEGER NOT NULL,
		failures INTEGER NOT NULL,
		run_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	-- Booking records are denormalized per run for cross-run queries
	CREATE TABLE IF NOT EXISTS booking_records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		booking_number TEXT NOT NULL,
		booking_date TEXT,
		release_date TEXT,
		status TEXT,
		time_served_days INTEGER,
		charges TEXT,
		facility TEXT,
		extra_json TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_records_run ON booking_records(run_id);
	CREATE INDEX IF NOT EXISTS idx_records_number ON booking_records(booking_number);
	CREATE INDEX IF NOT EXISTS idx_records_name ON booking_records(name);
	`

	_, err := hdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveRun stores a completed run and its booking records.
func (hdb *HistoryDB) SaveRun(ctx context.Context, run *model.Run) error {
	runJSON, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to serialize run: %w", err)
	}

	tx, err := hdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // No-op after commit

	_, err = tx.ExecContext(ctx, `
	INSERT INTO runs (id, started_at, elapsed_seconds, workers, queries, failures, run_json)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.StartedAt.UTC().Format("2006-01-02 15:04:05"),
		run.Elapsed.Seconds(),
		run.Workers,
		len(run.Results),
		len(run.Failures()),
		string(runJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	for _, record := range run.Records() {
		extraJSON := ""
		if len(record.Extra) > 0 {
			data, err := json.Marshal(record.Extra)
			if err != nil {
				return fmt.Errorf("failed to serialize extra fields: %w", err)
			}
			extraJSON = string(data)
		}

		_, err = tx.ExecContext(ctx, `
		INSERT INTO booking_records
			(run_id, name, booking_number, booking_date, release_date,
			 status, time_served_days, charges, facility, extra_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			run.ID,
			record.Name,
			record.BookingNumber,
			record.BookingDate,
			record.ReleaseDate,
			record.Status.String(),
			record.TimeServedDays,
			record.Charges,
			record.Facility,
			extraJSON,
		)
		if err != nil {
			return fmt.Errorf("failed to insert booking record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// GetRun retrieves a stored run by its identifier.
// Returns nil without error when the run does not exist.
func (hdb *HistoryDB) GetRun(ctx context.Context, id string) (*model.Run, error) {
	var runJSON string
	err := hdb.db.QueryRowContext(ctx,
		`SELECT run_json FROM runs WHERE id = ?`, id).Scan(&runJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	var run model.Run
	if err := json.Unmarshal([]byte(runJSON), &run); err != nil {
		return nil, fmt.Errorf("failed to parse run: %w", err)
	}
	return &run, nil
}

// RunMetadata contains summary information about a stored run.
// This is used for displaying run history without loading full runs.
type RunMetadata struct {
	// ID is the run identifier.
	ID string

	// StartedAt is when the run began.
	StartedAt time.Time

	// Elapsed is the total run duration.
	Elapsed time.Duration

	// Workers is the concurrency limit the run used.
	Workers int

	// Queries is the number of submitted queries.
	Queries int

	// Failures is the number of queries that did not complete.
	Failures int

	// Records is the number of booking records found.
	Records int
}

// ListRuns returns metadata for the most recent runs, newest first.
// A limit of 0 returns all runs.
func (hdb *HistoryDB) ListRuns(ctx context.Context, limit int) ([]RunMetadata, error) {
	query := `
	SELECT r.id, r.started_at, r.elapsed_seconds, r.workers, r.queries, r.failures,
	       (SELECT COUNT(*) FROM booking_records b WHERE b.run_id = r.id)
	FROM runs r
	ORDER BY r.started_at DESC, r.id
	`
	args := make([]any, 0, 1)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := hdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var results []RunMetadata
	for rows.Next() {
		var meta RunMetadata
		var started string
		var elapsed float64

		if err := rows.Scan(&meta.ID, &started, &elapsed, &meta.Workers,
			&meta.Queries, &meta.Failures, &meta.Records); err != nil {
			return nil, fmt.Errorf("failed to scan run metadata: %w", err)
		}
		meta.StartedAt = parseTimestamp(started)
		meta.Elapsed = time.Duration(elapsed * float64(time.Second))
		results = append(results, meta)
	}

	return results, rows.Err()
}

// LatestRun retrieves the most recent stored run, or nil when the
// history is empty.
func (hdb *HistoryDB) LatestRun(ctx context.Context) (*model.Run, error) {
	var runJSON string
	err := hdb.db.QueryRowContext(ctx, `
	SELECT run_json FROM runs
	ORDER BY started_at DESC, id
	LIMIT 1
	`).Scan(&runJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}

	var run model.Run
	if err := json.Unmarshal([]byte(runJSON), &run); err != nil {
		return nil, fmt.Errorf("failed to parse run: %w", err)
	}
	return &run, nil
}

// NewBookings returns the booking records present in run but absent from
// every earlier stored run, keyed by booking number. This is the diff a
// repeat user cares about: who was booked since last time.
func (hdb *HistoryDB) NewBookings(ctx context.Context, run *model.Run) ([]model.BookingRecord, error) {
	rows, err := hdb.db.QueryContext(ctx, `
	SELECT DISTINCT b.booking_number
	FROM booking_records b
	JOIN runs r ON r.id = b.run_id
	WHERE r.id != ?
	`, run.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to query known bookings: %w", err)
	}
	defer rows.Close()

	known := make(map[string]bool)
	for rows.Next() {
		var number string
		if err := rows.Scan(&number); err != nil {
			return nil, fmt.Errorf("failed to scan booking number: %w", err)
		}
		known[number] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var fresh []model.BookingRecord
	for _, record := range run.Records() {
		if !known[record.BookingNumber] {
			fresh = append(fresh, record)
		}
	}
	return fresh, nil
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// SQLite may return timestamps in different formats depending on configuration.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
