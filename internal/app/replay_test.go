package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KiranM189/Capstone/internal/quat"
	"github.com/KiranM189/Capstone/internal/record"
	"github.com/KiranM189/Capstone/internal/sensor"
	"github.com/KiranM189/Capstone/internal/timeutil"
)

func replayRows(base time.Time) []record.Row {
	zRot90 := quat.FromEuler(0, 0, 90)
	return []record.Row{
		record.NewRow("cap-1", sensor.LabelRightArm, zRot90, base),
		record.NewRow("cap-1", sensor.LabelRightArm, quat.Identity(), base.Add(50*time.Millisecond)),
		record.NewRow("cap-1", sensor.LabelRightForearm, quat.Identity(), base.Add(125*time.Millisecond)),
	}
}

func TestReplayPacesByRecordedGaps(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 4, 2, 11, 0, 0, 0, time.UTC)
	clock := timeutil.NewMockClock(base)

	var docs []PoseDocument
	sum := Replay("cap-1", replayRows(base), ReplayOptions{
		Clock: clock,
		Emit:  func(doc PoseDocument) { docs = append(docs, doc) },
	})

	// One sleep per inter-sample gap, none before the first sample.
	assert.Equal(t, []time.Duration{50 * time.Millisecond, 75 * time.Millisecond}, clock.Sleeps())

	assert.Equal(t, "cap-1", sum.Capture)
	assert.Equal(t, 3, sum.Samples)
	assert.Equal(t, map[sensor.Label]int{
		sensor.LabelRightArm:     2,
		sensor.LabelRightForearm: 1,
	}, sum.Labels)
	assert.Equal(t, base, sum.Start)
	assert.Equal(t, base.Add(125*time.Millisecond), sum.End)

	require.Len(t, docs, 3)
	assert.Equal(t, "cap-1", docs[0].Capture)
	assert.Equal(t, base, docs[0].Time)
	assert.Contains(t, docs[0].Pose, sensor.LabelRightArm)

	// Rows are pre-corrected, so the last delivered orientations stand
	// as-is in the final pose.
	require.Contains(t, sum.FinalPose, sensor.LabelRightArm)
	assert.InDelta(t, 1, sum.FinalPose[sensor.LabelRightArm].W, 1e-9)
	require.Contains(t, sum.FinalPose, sensor.LabelRightForearm)
	assert.InDelta(t, 1, sum.FinalPose[sensor.LabelRightForearm].W, 1e-9)
}

func TestReplayFastSkipsPacing(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 4, 2, 11, 0, 0, 0, time.UTC)
	clock := timeutil.NewMockClock(base)

	sum := Replay("cap-1", replayRows(base), ReplayOptions{Clock: clock, Fast: true})

	assert.Empty(t, clock.Sleeps())
	assert.Equal(t, 3, sum.Samples)
}

func TestReplayNonMonotonicTimestamps(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 4, 2, 11, 0, 0, 0, time.UTC)
	rows := []record.Row{
		record.NewRow("cap-2", sensor.LabelHips, quat.Identity(), base.Add(time.Second)),
		record.NewRow("cap-2", sensor.LabelHips, quat.Identity(), base),
	}
	clock := timeutil.NewMockClock(base)

	sum := Replay("cap-2", rows, ReplayOptions{Clock: clock})

	// A backwards step must not turn into a sleep.
	assert.Empty(t, clock.Sleeps())
	assert.Equal(t, 2, sum.Samples)
}

func TestReplayEmptyRows(t *testing.T) {
	t.Parallel()

	sum := Replay("cap-3", nil, ReplayOptions{Clock: timeutil.NewMockClock(time.Now())})
	assert.Zero(t, sum.Samples)
	assert.Empty(t, sum.FinalPose)
	assert.True(t, sum.Start.IsZero())
}
