package app

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/KiranM189/Capstone/internal/config"
	"github.com/KiranM189/Capstone/internal/quat"
	"github.com/KiranM189/Capstone/internal/record"
	"github.com/KiranM189/Capstone/internal/sensor"
	"github.com/KiranM189/Capstone/internal/session"
	"github.com/KiranM189/Capstone/internal/timeutil"
)

// ReplayOptions control how recorded rows are redelivered.
type ReplayOptions struct {
	Fast  bool               // skip recorded pacing
	Clock timeutil.Clock     // nil: wall clock
	Emit  func(PoseDocument) // called after each retarget pass; may be nil
}

// ReplaySummary reports what one replay produced.
type ReplaySummary struct {
	Capture   string
	Samples   int
	Labels    map[sensor.Label]int
	Start     time.Time
	End       time.Time
	FinalPose map[sensor.Label]quat.Quaternion
}

// Replay redelivers recorded rows into a fresh session, pacing by the
// recorded timestamps. The rows hold corrected orientations, so the
// fresh session is left uncalibrated and they pass through untouched.
func Replay(capture string, rows []record.Row, opts ReplayOptions) ReplaySummary {
	clock := opts.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}

	sess := session.New(session.Config{Clock: clock})
	defer sess.Close()

	summary := ReplaySummary{
		Capture: capture,
		Labels:  make(map[sensor.Label]int),
	}

	var prev time.Time
	for i, row := range rows {
		if !opts.Fast && i > 0 {
			if gap := row.Timestamp.Sub(prev); gap > 0 {
				clock.Sleep(gap)
			}
		}
		prev = row.Timestamp

		up := sess.Deliver(sensor.Sample{
			Label:   row.Label,
			Q:       row.Quat(),
			Seq:     uint64(i + 1),
			Arrival: row.Timestamp,
		})

		summary.Samples++
		summary.Labels[row.Label]++
		if summary.Start.IsZero() {
			summary.Start = row.Timestamp
		}
		summary.End = row.Timestamp

		if opts.Emit != nil {
			opts.Emit(PoseDocument{
				Capture: capture,
				State:   up.State,
				Time:    row.Timestamp,
				Pose:    up.Pose,
			})
		}
	}

	summary.FinalPose = sess.Pose()
	return summary
}

// ReplayConfig is what cmd/replay collects from its flags.
type ReplayConfig struct {
	CSVPath string
	DBPath  string
	Capture string // empty with DBPath: latest capture
	Fast    bool
}

// RunReplay loads a recorded capture from CSV or straight from the
// store, redelivers it, and republishes the retargeted pose when a
// broker is configured. Prints a summary when done.
func RunReplay(rc ReplayConfig) error {
	capture, rows, err := loadReplayRows(rc)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("capture %s holds no samples", capture)
	}
	log.Printf("replay: capture %s, %d samples", capture, len(rows))

	opts := ReplayOptions{Fast: rc.Fast}

	cfg := config.Get()
	if cfg.MQTTBroker != "" {
		pub, err := NewPublisher(cfg)
		if err != nil {
			return err
		}
		defer pub.Close()
		opts.Emit = func(doc PoseDocument) {
			payload, err := json.Marshal(doc)
			if err != nil {
				log.Printf("replay: pose marshal error: %v", err)
				return
			}
			pub.PublishPose(payload)
		}
	}

	summary := Replay(capture, rows, opts)

	fmt.Printf("replayed capture %s: %d samples over %s\n",
		summary.Capture, summary.Samples, summary.End.Sub(summary.Start))
	for _, label := range sensor.KnownLabels {
		n, ok := summary.Labels[label]
		if !ok {
			continue
		}
		q := summary.FinalPose[label]
		fmt.Printf("  %-4s %6d samples  final w=%+.4f x=%+.4f y=%+.4f z=%+.4f\n",
			label, n, q.W, q.X, q.Y, q.Z)
	}
	return nil
}

func loadReplayRows(rc ReplayConfig) (string, []record.Row, error) {
	switch {
	case rc.CSVPath != "":
		f, err := os.Open(rc.CSVPath)
		if err != nil {
			return "", nil, fmt.Errorf("open csv: %w", err)
		}
		defer f.Close()
		rows, err := record.ImportCSV(f)
		if err != nil {
			return "", nil, err
		}
		return filepath.Base(rc.CSVPath), rows, nil

	case rc.DBPath != "":
		store, err := record.Open(rc.DBPath)
		if err != nil {
			return "", nil, err
		}
		defer store.Close()

		capture := rc.Capture
		if capture == "" {
			capture, err = store.Latest()
			if err != nil {
				return "", nil, err
			}
		}
		rows, err := store.Capture(capture)
		if err != nil {
			return "", nil, err
		}
		return capture, rows, nil

	default:
		return "", nil, fmt.Errorf("nothing to replay: set -csv or -db")
	}
}
