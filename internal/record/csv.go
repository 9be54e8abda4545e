package record

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/KiranM189/Capstone/internal/sensor"
)

// csvHeader is the exported column set. Capture id is not a column: one
// CSV file holds one capture.
var csvHeader = []string{"label", "w", "x", "y", "z", "timestamp"}

// ExportCSV writes rows as CSV with a header line. Timestamps are
// RFC3339 with nanoseconds so replay keeps the original pacing.
func ExportCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range rows {
		rec := []string{
			string(r.Label),
			strconv.FormatFloat(r.W, 'f', -1, 64),
			strconv.FormatFloat(r.X, 'f', -1, 64),
			strconv.FormatFloat(r.Y, 'f', -1, 64),
			strconv.FormatFloat(r.Z, 'f', -1, 64),
			r.Timestamp.UTC().Format(time.RFC3339Nano),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ImportCSV reads an exported capture back as rows, in file order. The
// capture column is not part of the file; callers assign one.
func ImportCSV(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(csvHeader)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	for i, want := range csvHeader {
		if header[i] != want {
			return nil, fmt.Errorf("unexpected csv header %v", header)
		}
	}

	var out []Row
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}

		row := Row{Label: sensor.Label(rec[0])}
		if row.Label == "" {
			return nil, fmt.Errorf("csv line %d: empty label", line)
		}
		for i, dst := range []*float64{&row.W, &row.X, &row.Y, &row.Z} {
			v, err := strconv.ParseFloat(rec[i+1], 64)
			if err != nil {
				return nil, fmt.Errorf("csv line %d: column %s: %w", line, csvHeader[i+1], err)
			}
			*dst = v
		}
		ts, err := time.Parse(time.RFC3339Nano, rec[5])
		if err != nil {
			return nil, fmt.Errorf("csv line %d: timestamp: %w", line, err)
		}
		row.Timestamp = ts.UTC()
		out = append(out, row)
	}
	return out, nil
}
