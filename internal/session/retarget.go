package session

import "github.com/KiranM189/Capstone/internal/quat"

// retarget recomposes the local rotation table from the corrected global
// orientations, visiting joints root-first so a parent is always settled
// before its children subtract it. Caller holds s.mu.
func (s *Session) retarget() {
	for _, label := range s.skel.Order() {
		g, ok := s.global[label]
		if !ok {
			// No reading yet: the stale-but-valid local stands.
			continue
		}
		joint, _ := s.skel.Joint(label)

		// Parent-relative rotation. When the parent has no reading the
		// child's own global is treated as already parent-local.
		parentLocal := g
		var final quat.Quaternion
		if joint.Parent == "" {
			final = joint.Bind.Mul(parentLocal).Mul(joint.Offset)
		} else {
			if pg, ok := s.global[joint.Parent]; ok {
				parentLocal = pg.Conjugate().Mul(g)
			}
			final = joint.InvBind.Mul(parentLocal).Mul(joint.Offset)
		}

		n, ok := final.Normalized()
		if !ok {
			// A degenerate frame propagated this far; keep the last good
			// rotation rather than emit a zero.
			continue
		}
		s.local[label] = n
	}
}
