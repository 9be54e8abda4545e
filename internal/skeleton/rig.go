package skeleton

import (
	"encoding/json"
	"fmt"
	"os"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/KiranM189/Capstone/internal/quat"
	"github.com/KiranM189/Capstone/internal/sensor"
)

// jointDef is the on-disk form of one joint. Bind and offset are w,x,y,z
// arrays; both read as identity when omitted.
type jointDef struct {
	Label    string      `json:"label"`
	Parent   string      `json:"parent,omitempty"`
	Bind     *[4]float64 `json:"bind,omitempty"`
	Offset   *[4]float64 `json:"offset,omitempty"`
	Position [3]float64  `json:"position,omitempty"`
}

type definition struct {
	Joints []jointDef `json:"joints"`
}

// Load reads a rig definition from a JSON file and validates it.
func Load(path string) (*Skeleton, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("skeleton: read %s: %w", path, err)
	}

	var def definition
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("skeleton: parse %s: %w", path, err)
	}

	joints := make([]Joint, 0, len(def.Joints))
	for _, jd := range def.Joints {
		j := Joint{
			Label:    sensor.Label(jd.Label),
			Parent:   sensor.Label(jd.Parent),
			Position: r3.Vec{X: jd.Position[0], Y: jd.Position[1], Z: jd.Position[2]},
		}
		if jd.Bind != nil {
			j.Bind = quat.Quaternion{W: jd.Bind[0], X: jd.Bind[1], Y: jd.Bind[2], Z: jd.Bind[3]}
		}
		if jd.Offset != nil {
			j.Offset = quat.Quaternion{W: jd.Offset[0], X: jd.Offset[1], Y: jd.Offset[2], Z: jd.Offset[3]}
		}
		joints = append(joints, j)
	}

	s, err := New(joints)
	if err != nil {
		return nil, fmt.Errorf("%w (in %s)", err, path)
	}
	return s, nil
}

// Default returns the built-in 12-joint humanoid rig: hips root, spine
// chain up to the head, arm chains off the chest, leg chains off the
// hips. Binds are identity; positions are a rough T-pose in meters for
// consumers that draw the rig.
func Default() *Skeleton {
	s, err := New([]Joint{
		{Label: sensor.LabelHips, Position: r3.Vec{Y: 0.90}},
		{Label: sensor.LabelSpine, Parent: sensor.LabelHips, Position: r3.Vec{Y: 1.05}},
		{Label: sensor.LabelChest, Parent: sensor.LabelSpine, Position: r3.Vec{Y: 1.20}},
		{Label: sensor.LabelHead, Parent: sensor.LabelChest, Position: r3.Vec{Y: 1.50}},

		{Label: sensor.LabelRightArm, Parent: sensor.LabelChest, Position: r3.Vec{X: 0.20, Y: 1.35}},
		{Label: sensor.LabelRightForearm, Parent: sensor.LabelRightArm, Position: r3.Vec{X: 0.45, Y: 1.35}},
		{Label: sensor.LabelLeftArm, Parent: sensor.LabelChest, Position: r3.Vec{X: -0.20, Y: 1.35}},
		{Label: sensor.LabelLeftForearm, Parent: sensor.LabelLeftArm, Position: r3.Vec{X: -0.45, Y: 1.35}},

		{Label: sensor.LabelRightUpperLeg, Parent: sensor.LabelHips, Position: r3.Vec{X: 0.10, Y: 0.85}},
		{Label: sensor.LabelRightLeg, Parent: sensor.LabelRightUpperLeg, Position: r3.Vec{X: 0.10, Y: 0.45}},
		{Label: sensor.LabelLeftUpperLeg, Parent: sensor.LabelHips, Position: r3.Vec{X: -0.10, Y: 0.85}},
		{Label: sensor.LabelLeftLeg, Parent: sensor.LabelLeftUpperLeg, Position: r3.Vec{X: -0.10, Y: 0.45}},
	})
	if err != nil {
		panic(err) // static table, cannot fail
	}
	return s
}
