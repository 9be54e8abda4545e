package sensor

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageJSON(t *testing.T) {
	t.Parallel()

	t.Run("decodes the firmware schema", func(t *testing.T) {
		t.Parallel()
		raw := `{"count": 42, "label": "RA", "quaternion": [0.7071, 0, 0, 0.7071]}`

		var msg Message
		require.NoError(t, json.Unmarshal([]byte(raw), &msg))
		assert.Equal(t, uint64(42), msg.Count)
		assert.Equal(t, LabelRightArm, msg.Label)
		assert.Equal(t, [4]float64{0.7071, 0, 0, 0.7071}, msg.Quaternion)
	})

	t.Run("quaternion is scalar first", func(t *testing.T) {
		t.Parallel()
		msg := Message{Quaternion: [4]float64{1, 2, 3, 4}}
		q := msg.Quat()
		assert.Equal(t, 1.0, q.W)
		assert.Equal(t, 2.0, q.X)
		assert.Equal(t, 3.0, q.Y)
		assert.Equal(t, 4.0, q.Z)
	})
}

func TestMessageSample(t *testing.T) {
	t.Parallel()
	arrival := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	t.Run("valid message", func(t *testing.T) {
		t.Parallel()
		s, err := Message{Count: 7, Label: LabelLeftLeg, Quaternion: [4]float64{1, 0, 0, 0}}.Sample(arrival)
		require.NoError(t, err)
		assert.Equal(t, LabelLeftLeg, s.Label)
		assert.Equal(t, uint64(7), s.Seq)
		assert.Equal(t, arrival, s.Arrival)
		assert.Equal(t, 1.0, s.Q.W)
	})

	t.Run("missing label rejected", func(t *testing.T) {
		t.Parallel()
		_, err := Message{Quaternion: [4]float64{1, 0, 0, 0}}.Sample(arrival)
		assert.Error(t, err)
	})

	t.Run("non-finite components rejected", func(t *testing.T) {
		t.Parallel()
		for _, bad := range [][4]float64{
			{math.NaN(), 0, 0, 0},
			{1, math.Inf(1), 0, 0},
			{1, 0, math.Inf(-1), 0},
		} {
			_, err := Message{Label: LabelHead, Quaternion: bad}.Sample(arrival)
			assert.Error(t, err)
		}
	})

	t.Run("round trips back to a message", func(t *testing.T) {
		t.Parallel()
		in := Message{Count: 3, Label: LabelRightForearm, Quaternion: [4]float64{0.5, 0.5, 0.5, 0.5}}
		s, err := in.Sample(arrival)
		require.NoError(t, err)
		assert.Equal(t, in, s.Message())
	})
}

func TestLabels(t *testing.T) {
	t.Parallel()

	t.Run("twelve known, eight physical", func(t *testing.T) {
		t.Parallel()
		assert.Len(t, KnownLabels, 12)
		assert.Len(t, PhysicalLabels, 8)
		for _, l := range PhysicalLabels {
			assert.True(t, l.Known(), "physical label %s must be known", l)
		}
	})

	t.Run("unknown label", func(t *testing.T) {
		t.Parallel()
		assert.False(t, Label("TAIL").Known())
	})
}

func TestMockSource(t *testing.T) {
	t.Parallel()

	src := NewMockSource(LabelRightArm)

	var prev Message
	for i := 0; i < 5; i++ {
		msg, err := src.Next()
		require.NoError(t, err)
		assert.Equal(t, LabelRightArm, msg.Label)
		assert.Equal(t, prev.Count+1, msg.Count, "count must be monotonic")

		q := msg.Quat()
		assert.InDelta(t, 1.0, q.Norm(), 1e-6, "mock readings must be unit quaternions")
		prev = msg
	}
}
