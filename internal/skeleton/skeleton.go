// Package skeleton models the joint hierarchy the retargeter writes
// into: a tree of labeled joints with bind orientations, validated and
// topologically ordered once at load time.
package skeleton

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/KiranM189/Capstone/internal/quat"
	"github.com/KiranM189/Capstone/internal/sensor"
)

// Joint is one node of the rig. Bind and InvBind are captured at load
// time and never change; Offset is a static mounting trim, identity by
// default. Position is the rest-pose location, carried for consumers
// that draw the rig, never used by the rotation math.
type Joint struct {
	Label    sensor.Label
	Parent   sensor.Label // empty for the root
	Bind     quat.Quaternion
	InvBind  quat.Quaternion
	Offset   quat.Quaternion
	Position r3.Vec
}

// Skeleton is an immutable joint tree with a precomputed topological
// visiting order (root first, every joint after its parent). Safe for
// concurrent readers.
type Skeleton struct {
	joints []Joint
	index  map[sensor.Label]int
	order  []sensor.Label
	root   sensor.Label
}

// New validates the joint set and precomputes the visiting order.
// Exactly one root, unique labels, every parent present, no cycles.
func New(joints []Joint) (*Skeleton, error) {
	if len(joints) == 0 {
		return nil, fmt.Errorf("skeleton: no joints")
	}

	s := &Skeleton{
		joints: make([]Joint, len(joints)),
		index:  make(map[sensor.Label]int, len(joints)),
	}

	for i, j := range joints {
		if j.Label == "" {
			return nil, fmt.Errorf("skeleton: joint %d has no label", i)
		}
		if _, dup := s.index[j.Label]; dup {
			return nil, fmt.Errorf("skeleton: duplicate joint %s", j.Label)
		}

		j.Bind = normalizeOrIdentity(j.Bind)
		j.InvBind = j.Bind.Conjugate()
		j.Offset = normalizeOrIdentity(j.Offset)

		if j.Parent == "" {
			if s.root != "" {
				return nil, fmt.Errorf("skeleton: multiple roots: %s and %s", s.root, j.Label)
			}
			s.root = j.Label
		}

		s.joints[i] = j
		s.index[j.Label] = i
	}

	if s.root == "" {
		return nil, fmt.Errorf("skeleton: no root joint")
	}

	for _, j := range s.joints {
		if j.Parent == "" {
			continue
		}
		if _, ok := s.index[j.Parent]; !ok {
			return nil, fmt.Errorf("skeleton: joint %s references missing parent %s", j.Label, j.Parent)
		}
	}

	if err := s.buildOrder(); err != nil {
		return nil, err
	}
	return s, nil
}

// normalizeOrIdentity scales q to unit length. The zero value means
// "unspecified" and reads as no rotation.
func normalizeOrIdentity(q quat.Quaternion) quat.Quaternion {
	n, ok := q.Normalized()
	if !ok {
		return quat.Identity()
	}
	return n
}

// buildOrder walks the tree breadth-first from the root. Any joint left
// unvisited sits on a parent cycle.
func (s *Skeleton) buildOrder() error {
	children := make(map[sensor.Label][]sensor.Label, len(s.joints))
	for _, j := range s.joints {
		if j.Parent != "" {
			children[j.Parent] = append(children[j.Parent], j.Label)
		}
	}

	s.order = make([]sensor.Label, 0, len(s.joints))
	queue := []sensor.Label{s.root}
	for len(queue) > 0 {
		label := queue[0]
		queue = queue[1:]
		s.order = append(s.order, label)
		queue = append(queue, children[label]...)
	}

	if len(s.order) != len(s.joints) {
		return fmt.Errorf("skeleton: cycle detected, %d of %d joints reachable from root", len(s.order), len(s.joints))
	}
	return nil
}

// Root returns the root joint's label.
func (s *Skeleton) Root() sensor.Label {
	return s.root
}

// Order returns the topological visiting order. Callers must not modify
// the returned slice.
func (s *Skeleton) Order() []sensor.Label {
	return s.order
}

// Joint looks up a joint by label.
func (s *Skeleton) Joint(label sensor.Label) (Joint, bool) {
	i, ok := s.index[label]
	if !ok {
		return Joint{}, false
	}
	return s.joints[i], true
}

// Len returns the number of joints.
func (s *Skeleton) Len() int {
	return len(s.joints)
}

// Joints returns the joint set in topological order, for consumers that
// need the whole rig (renderers, status pages).
func (s *Skeleton) Joints() []Joint {
	out := make([]Joint, 0, len(s.order))
	for _, label := range s.order {
		out = append(out, s.joints[s.index[label]])
	}
	return out
}
