// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


package sensor

import (
	"math"
	"time"

	"github.com/KiranM189/Capstone/internal/quat"
)

type mockSource struct {
	label Label
	phase float64
	start time.Time
	seq   uint64
}

// NewMockSource creates a mock sensor for one limb that generates smooth
// changing orientations. Each label gets its own phase so limbs do not
// move in lockstep.
func NewMockSource(label Label) Source {
	phase := 0.0
	for i, k := range KnownLabels {
		if k == label {
			phase = float64(i) * 0.8
			break
		}
	}
	return &mockSource{label: label, phase: phase, start: time.Now()}
}

func (m *mockSource) Next() (Message, error) {
	elapsed := time.Since(m.start).Seconds() + m.phase

	q := quat.FromEuler(
		20*math.Sin(elapsed),
		15*math.Cos(elapsed*0.7),
		30*math.Sin(elapsed*0.3),
	)

	m.seq++
	return Message{
		Count:      m.seq,
		Label:      m.label,
		Quaternion: [4]float64{q.W, q.X, q.Y, q.Z},
	}, nil
}
