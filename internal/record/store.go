// Package record persists corrected samples to sqlite, grouped by
// capture id, and moves them in and out of CSV for offline analysis and
// replay.
package record

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/KiranM189/Capstone/internal/quat"
	"github.com/KiranM189/Capstone/internal/sensor"
)

// Row is one corrected sample as stored: which capture it belongs to,
// which limb, the bias-removed global orientation, and when it arrived.
type Row struct {
	Capture   string
	Label     sensor.Label
	W         float64
	X         float64
	Y         float64
	Z         float64
	Timestamp time.Time
}

// Quat returns the stored orientation as a quaternion value.
func (r Row) Quat() quat.Quaternion {
	return quat.Quaternion{W: r.W, X: r.X, Y: r.Y, Z: r.Z}
}

// NewRow builds a Row from a corrected sample.
func NewRow(capture string, label sensor.Label, q quat.Quaternion, ts time.Time) Row {
	return Row{Capture: capture, Label: label, W: q.W, X: q.X, Y: q.Y, Z: q.Z, Timestamp: ts}
}

// Store is the sqlite-backed sample archive.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and ensures the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open record db: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS samples (
			capture      TEXT NOT NULL,
			label        TEXT NOT NULL,
			w            DOUBLE NOT NULL,
			x            DOUBLE NOT NULL,
			y            DOUBLE NOT NULL,
			z            DOUBLE NOT NULL,
			timestamp_ns BIGINT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_samples_capture ON samples(capture, timestamp_ns);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create record schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Append inserts one row.
func (s *Store) Append(row Row) error {
	_, err := s.db.Exec(
		`INSERT INTO samples (capture, label, w, x, y, z, timestamp_ns) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		row.Capture, string(row.Label), row.W, row.X, row.Y, row.Z, row.Timestamp.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert sample: %w", err)
	}
	return nil
}

// Capture returns every row of one capture in arrival order.
func (s *Store) Capture(capture string) ([]Row, error) {
	rows, err := s.db.Query(
		`SELECT capture, label, w, x, y, z, timestamp_ns FROM samples WHERE capture = ? ORDER BY timestamp_ns`,
		capture,
	)
	if err != nil {
		return nil, fmt.Errorf("query capture %s: %w", capture, err)
	}
	defer rows.Close()

	return scanRows(rows)
}

// Latest returns the capture id with the most recent sample, or "" when
// the store is empty.
func (s *Store) Latest() (string, error) {
	var capture string
	err := s.db.QueryRow(
		`SELECT capture FROM samples ORDER BY timestamp_ns DESC LIMIT 1`,
	).Scan(&capture)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("query latest capture: %w", err)
	}
	return capture, nil
}

// CaptureInfo summarizes one recorded capture.
type CaptureInfo struct {
	Capture string
	Samples int
	First   time.Time
	Last    time.Time
}

// Captures lists every recorded capture, most recent first.
func (s *Store) Captures() ([]CaptureInfo, error) {
	rows, err := s.db.Query(`
		SELECT capture, COUNT(*), MIN(timestamp_ns), MAX(timestamp_ns)
		FROM samples GROUP BY capture ORDER BY MAX(timestamp_ns) DESC`)
	if err != nil {
		return nil, fmt.Errorf("query captures: %w", err)
	}
	defer rows.Close()

	var out []CaptureInfo
	for rows.Next() {
		var info CaptureInfo
		var first, last int64
		if err := rows.Scan(&info.Capture, &info.Samples, &first, &last); err != nil {
			return nil, fmt.Errorf("scan capture info: %w", err)
		}
		info.First = time.Unix(0, first).UTC()
		info.Last = time.Unix(0, last).UTC()
		out = append(out, info)
	}
	return out, rows.Err()
}

func scanRows(rows *sql.Rows) ([]Row, error) {
	var out []Row
	for rows.Next() {
		var r Row
		var label string
		var ns int64
		if err := rows.Scan(&r.Capture, &label, &r.W, &r.X, &r.Y, &r.Z, &ns); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		r.Label = sensor.Label(label)
		r.Timestamp = time.Unix(0, ns).UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}
