// Package session holds the live state of one capture: per-label
// reference orientations, the latest corrected global pose, the
// calibration state machine, and the retargeted local rotations. All
// table writes go through one mutex so the retargeter never sees a torn
// parent/child pair.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/KiranM189/Capstone/internal/monitoring"
	"github.com/KiranM189/Capstone/internal/quat"
	"github.com/KiranM189/Capstone/internal/sensor"
	"github.com/KiranM189/Capstone/internal/skeleton"
	"github.com/KiranM189/Capstone/internal/timeutil"
)

// DefaultWindow is how long a calibration collection runs.
const DefaultWindow = 30 * time.Second

// State names a phase of the calibration state machine.
type State string

const (
	StateIdle       State = "idle"
	StateCollecting State = "collecting"
	StateComputing  State = "computing"
	StateCalibrated State = "calibrated"
)

// Config wires a Session. Zero values pick the defaults noted per field.
type Config struct {
	Skeleton     *skeleton.Skeleton // nil: built-in rig
	Clock        timeutil.Clock     // nil: wall clock
	Window       time.Duration      // 0: DefaultWindow
	ReferenceDir string             // "": references are not persisted
	OnCalibrated func(Reference)    // called after each completed calibration
}

// Session is the single writer over all capture tables.
type Session struct {
	skel   *skeleton.Skeleton
	clock  timeutil.Clock
	window time.Duration
	refDir string

	onCalibrated func(Reference)

	mu        sync.Mutex
	captureID uuid.UUID
	state     State

	collectGen   int
	collectStart time.Time
	timer        timeutil.Timer
	timerCancel  chan struct{}

	buffers map[sensor.Label][]quat.Quaternion
	refs    map[sensor.Label]quat.Quaternion
	quality map[sensor.Label]LabelQuality
	global  map[sensor.Label]quat.Quaternion
	local   map[sensor.Label]quat.Quaternion

	calibratedAt time.Time

	labels map[sensor.Label]*labelStats

	zeroNorm       monitoring.Counter
	degenerateMean monitoring.Counter
}

type labelStats struct {
	samples  uint64
	gaps     uint64
	lastSeq  uint64
	lastSeen time.Time
}

// New creates a Session. When cfg.ReferenceDir holds a previously saved
// reference it seeds the correction table, so a gateway restart does not
// lose calibration.
func New(cfg Config) *Session {
	s := &Session{
		skel:         cfg.Skeleton,
		clock:        cfg.Clock,
		window:       cfg.Window,
		refDir:       cfg.ReferenceDir,
		onCalibrated: cfg.OnCalibrated,
		captureID:    uuid.New(),
		state:        StateIdle,
		buffers:      make(map[sensor.Label][]quat.Quaternion),
		refs:         make(map[sensor.Label]quat.Quaternion),
		quality:      make(map[sensor.Label]LabelQuality),
		global:       make(map[sensor.Label]quat.Quaternion),
		local:        make(map[sensor.Label]quat.Quaternion),
		labels:       make(map[sensor.Label]*labelStats),
	}
	if s.skel == nil {
		s.skel = skeleton.Default()
	}
	if s.clock == nil {
		s.clock = timeutil.RealClock{}
	}
	if s.window <= 0 {
		s.window = DefaultWindow
	}
	if s.refDir != "" {
		s.seedFromDisk()
	}
	return s
}

// Update reports what one delivered sample changed.
type Update struct {
	Sample    sensor.Sample
	Corrected quat.Quaternion                  // bias-removed global orientation; zero when Buffered
	Buffered  bool                             // consumed by an open collection window
	Pose      map[sensor.Label]quat.Quaternion // local rotations after this sample's pass; nil when Buffered
	State     State
}

// Deliver applies one decoded sample: normalize, then either buffer it
// into the open collection window or correct it and rerun the retarget
// pass. Safe to call from any number of link goroutines.
func (s *Session) Deliver(smp sensor.Sample) Update {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.trackLabel(smp)

	q, ok := smp.Q.Normalized()
	if !ok {
		// Degenerate frame: keep the raw value so the stream never stalls.
		s.zeroNorm.Inc()
		monitoring.Logf("session: label %s seq %d: zero-norm quaternion", smp.Label, smp.Seq)
		q = smp.Q
	}

	if s.state == StateCollecting {
		s.buffers[smp.Label] = append(s.buffers[smp.Label], q)
		return Update{Sample: smp, Buffered: true, State: s.state}
	}

	corrected := s.correct(smp.Label, q)
	s.global[smp.Label] = corrected
	s.retarget()

	return Update{
		Sample:    smp,
		Corrected: corrected,
		Pose:      s.poseCopy(),
		State:     s.state,
	}
}

// correct removes the label's calibration-time bias. Without a reference
// the reading passes through untouched.
func (s *Session) correct(label sensor.Label, q quat.Quaternion) quat.Quaternion {
	ref, ok := s.refs[label]
	if !ok {
		return q
	}
	c := ref.Conjugate().Mul(q)
	if n, ok := c.Normalized(); ok {
		return n
	}
	return c
}

func (s *Session) trackLabel(smp sensor.Sample) {
	st := s.labels[smp.Label]
	if st == nil {
		st = &labelStats{}
		s.labels[smp.Label] = st
	}
	st.samples++
	if st.lastSeq != 0 && smp.Seq > st.lastSeq+1 {
		st.gaps += smp.Seq - st.lastSeq - 1
	}
	st.lastSeq = smp.Seq
	st.lastSeen = smp.Arrival
}

func (s *Session) poseCopy() map[sensor.Label]quat.Quaternion {
	out := make(map[sensor.Label]quat.Quaternion, len(s.local))
	for k, v := range s.local {
		out[k] = v
	}
	return out
}

// CaptureID returns the current capture's identifier.
func (s *Session) CaptureID() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.captureID
}

// NewCapture rotates the capture identifier. Called when a start token
// passes through, so recorded samples group by run.
func (s *Session) NewCapture() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.captureID = uuid.New()
	return s.captureID
}

// State returns the calibration phase.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// CollectingRemaining returns how much of the collection window is left,
// zero when no collection is open.
func (s *Session) CollectingRemaining() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateCollecting {
		return 0
	}
	left := s.window - s.clock.Since(s.collectStart)
	if left < 0 {
		left = 0
	}
	return left
}

// Pose returns a copy of the current local rotation table.
func (s *Session) Pose() map[sensor.Label]quat.Quaternion {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.poseCopy()
}

// Global returns a copy of the corrected global orientation table.
func (s *Session) Global() map[sensor.Label]quat.Quaternion {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[sensor.Label]quat.Quaternion, len(s.global))
	for k, v := range s.global {
		out[k] = v
	}
	return out
}

// Skeleton returns the rig this session retargets onto.
func (s *Session) Skeleton() *skeleton.Skeleton {
	return s.skel
}

// Close cancels a pending calibration timer. The session stays usable
// for sample delivery.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelTimerLocked()
}

func (s *Session) cancelTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.timerCancel != nil {
		close(s.timerCancel)
		s.timerCancel = nil
	}
}

// LabelStats is the per-label delivery bookkeeping exposed by Stats.
type LabelStats struct {
	Samples  uint64    `json:"samples"`
	Gaps     uint64    `json:"gaps"`
	LastSeq  uint64    `json:"last_seq"`
	LastSeen time.Time `json:"last_seen"`
}

// Stats is a point-in-time view of session health.
type Stats struct {
	Capture        string                        `json:"capture"`
	State          State                         `json:"state"`
	Labels         map[sensor.Label]LabelStats   `json:"labels"`
	Quality        map[sensor.Label]LabelQuality `json:"quality,omitempty"`
	ZeroNorm       uint64                        `json:"zero_norm"`
	DegenerateMean uint64                        `json:"degenerate_mean"`
}

// Stats snapshots delivery counters and the last calibration's quality.
func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	labels := make(map[sensor.Label]LabelStats, len(s.labels))
	for label, st := range s.labels {
		labels[label] = LabelStats{
			Samples:  st.samples,
			Gaps:     st.gaps,
			LastSeq:  st.lastSeq,
			LastSeen: st.lastSeen,
		}
	}
	quality := make(map[sensor.Label]LabelQuality, len(s.quality))
	for label, q := range s.quality {
		quality[label] = q
	}

	return Stats{
		Capture:        s.captureID.String(),
		State:          s.state,
		Labels:         labels,
		Quality:        quality,
		ZeroNorm:       s.zeroNorm.Value(),
		DegenerateMean: s.degenerateMean.Value(),
	}
}
