package record

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KiranM189/Capstone/internal/quat"
	"github.com/KiranM189/Capstone/internal/sensor"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "capture.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testRows(capture string, n int) []Row {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	rows := make([]Row, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, NewRow(
			capture,
			sensor.LabelRightArm,
			quat.Quaternion{W: 1, Z: float64(i) / 100},
			base.Add(time.Duration(i)*30*time.Millisecond),
		))
	}
	return rows
}

func TestStoreRoundTrip(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)

	want := testRows("cap-1", 5)
	for _, r := range want {
		require.NoError(t, s.Append(r))
	}

	got, err := s.Capture("cap-1")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	missing, err := s.Capture("cap-unknown")
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestStoreCaptures(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)

	early := testRows("cap-early", 3)
	for _, r := range early {
		require.NoError(t, s.Append(r))
	}
	late := testRows("cap-late", 2)
	for i := range late {
		late[i].Timestamp = late[i].Timestamp.Add(time.Hour)
		require.NoError(t, s.Append(late[i]))
	}

	infos, err := s.Captures()
	require.NoError(t, err)
	require.Len(t, infos, 2)

	assert.Equal(t, "cap-late", infos[0].Capture, "most recent capture first")
	assert.Equal(t, 2, infos[0].Samples)
	assert.Equal(t, "cap-early", infos[1].Capture)
	assert.Equal(t, 3, infos[1].Samples)
	assert.True(t, infos[1].Last.After(infos[1].First))

	latest, err := s.Latest()
	require.NoError(t, err)
	assert.Equal(t, "cap-late", latest)
}

func TestStoreLatestEmpty(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	latest, err := s.Latest()
	require.NoError(t, err)
	assert.Empty(t, latest)
}

func TestCSVRoundTrip(t *testing.T) {
	t.Parallel()

	rows := testRows("cap-1", 4)
	rows[2].Label = sensor.LabelLeftLeg

	var buf bytes.Buffer
	require.NoError(t, ExportCSV(&buf, rows))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "label,w,x,y,z,timestamp\n"))
	assert.Equal(t, 1+len(rows), strings.Count(out, "\n"), "header plus one line per row")

	got, err := ImportCSV(&buf)
	require.NoError(t, err)
	require.Len(t, got, len(rows))
	for i := range rows {
		assert.Equal(t, rows[i].Label, got[i].Label)
		assert.Equal(t, rows[i].Quat(), got[i].Quat())
		assert.True(t, rows[i].Timestamp.Equal(got[i].Timestamp))
		assert.Empty(t, got[i].Capture, "capture id is not carried in CSV")
	}
}

func TestImportCSVRejectsGarbage(t *testing.T) {
	t.Parallel()

	for name, input := range map[string]string{
		"wrong header":    "who,what,when\n",
		"missing columns": "label,w,x,y,z,timestamp\nRA,1,0,0\n",
		"bad float":       "label,w,x,y,z,timestamp\nRA,one,0,0,0,2026-03-01T09:00:00Z\n",
		"bad timestamp":   "label,w,x,y,z,timestamp\nRA,1,0,0,0,yesterday\n",
		"empty label":     "label,w,x,y,z,timestamp\n,1,0,0,0,2026-03-01T09:00:00Z\n",
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := ImportCSV(strings.NewReader(input))
			assert.Error(t, err)
		})
	}
}

func TestRecorder(t *testing.T) {
	t.Parallel()

	t.Run("rows land in the store", func(t *testing.T) {
		t.Parallel()
		s := openTestStore(t)
		rec := NewRecorder(s)

		for _, r := range testRows("cap-1", 10) {
			rec.Record(r)
		}
		rec.Close() // drains

		got, err := s.Capture("cap-1")
		require.NoError(t, err)
		assert.Len(t, got, 10)
		assert.Zero(t, rec.Dropped())
		assert.Zero(t, rec.Failed())
	})

	t.Run("close is idempotent", func(t *testing.T) {
		t.Parallel()
		s := openTestStore(t)
		rec := NewRecorder(s)
		rec.Close()
		rec.Close()
	})
}
