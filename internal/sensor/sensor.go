// Package sensor defines the wire vocabulary shared with the strap-on
// sensor firmware: limb labels, the per-reading message schema, and the
// control tokens a gateway may send back.
package sensor

import (
	"fmt"
	"math"
	"time"

	"github.com/KiranM189/Capstone/internal/quat"
)

// Label identifies a sensor/joint position on the body.
type Label string

const (
	LabelHips          Label = "HIPS"
	LabelSpine         Label = "SP"
	LabelChest         Label = "SP2"
	LabelHead          Label = "H"
	LabelRightArm      Label = "RA"
	LabelRightForearm  Label = "RFA"
	LabelLeftArm       Label = "LA"
	LabelLeftForearm   Label = "LFA"
	LabelRightUpperLeg Label = "RUL"
	LabelRightLeg      Label = "RL"
	LabelLeftUpperLeg  Label = "LUL"
	LabelLeftLeg       Label = "LL"
)

// KnownLabels lists every joint label the default rig understands.
var KnownLabels = []Label{
	LabelHips, LabelSpine, LabelChest, LabelHead,
	LabelRightArm, LabelRightForearm, LabelLeftArm, LabelLeftForearm,
	LabelRightUpperLeg, LabelRightLeg, LabelLeftUpperLeg, LabelLeftLeg,
}

// PhysicalLabels lists the labels that carry a strap-on sensor in the
// reference deployment. The other four joints stay at bind pose unless a
// reading shows up for them.
var PhysicalLabels = []Label{
	LabelRightArm, LabelRightForearm, LabelLeftArm, LabelLeftForearm,
	LabelRightUpperLeg, LabelRightLeg, LabelLeftUpperLeg, LabelLeftLeg,
}

// Known reports whether l is one of the default rig's labels. Unknown
// labels are still carried through calibration bookkeeping; they just
// never reach a joint.
func (l Label) Known() bool {
	for _, k := range KnownLabels {
		if l == k {
			return true
		}
	}
	return false
}

// Control tokens forwarded verbatim to every connected sensor.
const (
	ControlStart     = "start"
	ControlCalibrate = "calibrate"
	ControlStop      = "stop"
)

// ValidControl reports whether tok is one of the three control tokens.
func ValidControl(tok string) bool {
	switch tok {
	case ControlStart, ControlCalibrate, ControlStop:
		return true
	}
	return false
}

// Message is one sensor reading as it appears on the wire.
type Message struct {
	Count      uint64     `json:"count"` // monotonic per sensor
	Label      Label      `json:"label"`
	Quaternion [4]float64 `json:"quaternion"` // w, x, y, z
}

// Quat returns the reading as a quaternion value.
func (m Message) Quat() quat.Quaternion {
	return quat.Quaternion{W: m.Quaternion[0], X: m.Quaternion[1], Y: m.Quaternion[2], Z: m.Quaternion[3]}
}

// Sample validates the message and stamps it with its arrival time.
func (m Message) Sample(arrival time.Time) (Sample, error) {
	if m.Label == "" {
		return Sample{}, fmt.Errorf("sample without label")
	}
	for _, c := range m.Quaternion {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return Sample{}, fmt.Errorf("label %s: non-finite quaternion component", m.Label)
		}
	}
	return Sample{Label: m.Label, Q: m.Quat(), Seq: m.Count, Arrival: arrival}, nil
}

// Sample is one decoded, validated sensor reading.
type Sample struct {
	Label   Label
	Q       quat.Quaternion
	Seq     uint64
	Arrival time.Time
}

// Message converts the sample back to its wire form.
func (s Sample) Message() Message {
	return Message{
		Count:      s.Seq,
		Label:      s.Label,
		Quaternion: [4]float64{s.Q.W, s.Q.X, s.Q.Y, s.Q.Z},
	}
}

// Source is anything that can produce sensor readings over time: a mock
// generator, a replayed capture, eventually real hardware behind a link.
type Source interface {
	Next() (Message, error)
}
