// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


package session

import (
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/KiranM189/Capstone/internal/monitoring"
	"github.com/KiranM189/Capstone/internal/quat"
	"github.com/KiranM189/Capstone/internal/sensor"
)

// Reference is a completed calibration: the per-label reference
// orientations plus how the collection went. It doubles as the
// persistence format.
type Reference struct {
	Version     int                             `json:"version"`
	Capture     string                          `json:"capture"`
	CompletedAt time.Time                       `json:"completed_at"`
	WindowMS    int64                           `json:"window_ms"`
	Labels      map[sensor.Label]LabelReference `json:"labels"`
}

// LabelReference is one limb's calibration outcome.
type LabelReference struct {
	Orientation quat.Quaternion `json:"orientation"`
	LabelQuality
}

// LabelQuality quantifies how still a limb was held while its window
// filled.
type LabelQuality struct {
	Samples    int     `json:"samples"`
	StdDev     float64 `json:"stddev"`
	Confidence float64 `json:"confidence"`
}

// StartCalibration opens a fresh collection window. Valid in any state:
// restarting during an open window discards that window's buffers, and
// the previous reference table keeps serving live correction until the
// new collection completes.
func (s *Session) StartCalibration() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelTimerLocked()
	s.collectGen++
	s.buffers = make(map[sensor.Label][]quat.Quaternion)
	s.collectStart = s.clock.Now()
	s.state = StateCollecting

	monitoring.Logf("session: calibration collecting for %v", s.window)

	gen := s.collectGen
	timer := s.clock.NewTimer(s.window)
	cancel := make(chan struct{})
	s.timer = timer
	s.timerCancel = cancel

	go func() {
		select {
		case <-timer.C():
			s.finishCollection(gen)
		case <-cancel:
		}
	}()
}

// finishCollection runs once, when the window timer expires. Completion
// is time-bounded: labels with buffered samples get a new reference,
// silent labels keep whatever reference they had.
func (s *Session) finishCollection(gen int) {
	s.mu.Lock()

	if gen != s.collectGen || s.state != StateCollecting {
		s.mu.Unlock()
		return
	}

	s.state = StateComputing
	s.timer = nil
	s.timerCancel = nil

	for label, buf := range s.buffers {
		if len(buf) == 0 {
			continue
		}
		avg, ok := quat.Mean(buf)
		if !ok {
			s.degenerateMean.Inc()
			monitoring.Logf("session: calibration: label %s: degenerate mean over %d samples, reference unchanged", label, len(buf))
			continue
		}
		s.refs[label] = avg
		s.quality[label] = bufferQuality(buf)
	}
	s.buffers = make(map[sensor.Label][]quat.Quaternion)
	s.calibratedAt = s.clock.Now()
	s.state = StateCalibrated

	ref := s.referenceLocked()
	cb := s.onCalibrated
	dir := s.refDir
	s.mu.Unlock()

	monitoring.Logf("session: calibration complete, %d labels referenced", len(ref.Labels))

	if dir != "" {
		if err := saveReference(dir, ref); err != nil {
			monitoring.Logf("session: save reference: %v", err)
		}
	}
	if cb != nil {
		cb(ref)
	}
}

// Reference snapshots the active reference table.
func (s *Session) Reference() Reference {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.referenceLocked()
}

func (s *Session) referenceLocked() Reference {
	labels := make(map[sensor.Label]LabelReference, len(s.refs))
	for label, q := range s.refs {
		labels[label] = LabelReference{Orientation: q, LabelQuality: s.quality[label]}
	}
	return Reference{
		Version:     1,
		Capture:     s.captureID.String(),
		CompletedAt: s.calibratedAt,
		WindowMS:    s.window.Milliseconds(),
		Labels:      labels,
	}
}

// bufferQuality measures stillness over one label's window: the standard
// deviation of each quaternion component, averaged over the four
// components. Samples are hemisphere-aligned first so sign flips do not
// read as motion.
func bufferQuality(buf []quat.Quaternion) LabelQuality {
	q := LabelQuality{Samples: len(buf)}
	if len(buf) < 2 {
		q.Confidence = confidence(0)
		return q
	}

	comps := make([][]float64, 4)
	for i := range comps {
		comps[i] = make([]float64, 0, len(buf))
	}
	first := buf[0]
	for _, smp := range buf {
		if smp.Dot(first) < 0 {
			smp = smp.Neg()
		}
		comps[0] = append(comps[0], smp.W)
		comps[1] = append(comps[1], smp.X)
		comps[2] = append(comps[2], smp.Y)
		comps[3] = append(comps[3], smp.Z)
	}

	var sd float64
	for _, c := range comps {
		sd += stat.StdDev(c, nil)
	}
	q.StdDev = sd / 4.0
	q.Confidence = confidence(q.StdDev)
	return q
}

func confidence(sd float64) float64 {
	return 100.0 / (1.0 + sd*100.0)
}
