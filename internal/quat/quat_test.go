package quat

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalized(t *testing.T) {
	t.Parallel()

	t.Run("unit result within tolerance", func(t *testing.T) {
		t.Parallel()
		for _, q := range []Quaternion{
			{W: 1},
			{W: 1, X: 1, Y: 1, Z: 1},
			{W: 0.2, X: -3, Y: 0.001, Z: 7},
			{X: 1e-8},
		} {
			n, ok := q.Normalized()
			require.True(t, ok)
			assert.InDelta(t, 1.0, n.Norm(), 1e-6)
		}
	})

	t.Run("zero norm passes through", func(t *testing.T) {
		t.Parallel()
		n, ok := Quaternion{}.Normalized()
		assert.False(t, ok)
		assert.Equal(t, Quaternion{}, n)
	})

	t.Run("preserves direction", func(t *testing.T) {
		t.Parallel()
		n, ok := Quaternion{W: 2, Z: 2}.Normalized()
		require.True(t, ok)
		assert.InDelta(t, math.Sqrt2/2, n.W, 1e-12)
		assert.InDelta(t, math.Sqrt2/2, n.Z, 1e-12)
	})
}

func TestMul(t *testing.T) {
	t.Parallel()

	t.Run("identity is neutral", func(t *testing.T) {
		t.Parallel()
		q := Quaternion{W: 0.5, X: 0.5, Y: 0.5, Z: 0.5}
		assert.Equal(t, q, Identity().Mul(q))
		assert.Equal(t, q, q.Mul(Identity()))
	})

	t.Run("conjugate cancels unit rotation", func(t *testing.T) {
		t.Parallel()
		q, ok := Quaternion{W: 1, X: 2, Y: -1, Z: 0.5}.Normalized()
		require.True(t, ok)
		id := q.Conjugate().Mul(q)
		assert.InDelta(t, 1, id.W, 1e-12)
		assert.InDelta(t, 0, id.X, 1e-12)
		assert.InDelta(t, 0, id.Y, 1e-12)
		assert.InDelta(t, 0, id.Z, 1e-12)
	})

	t.Run("two 90 degree z turns make 180", func(t *testing.T) {
		t.Parallel()
		z90 := Quaternion{W: math.Sqrt2 / 2, Z: math.Sqrt2 / 2}
		z180 := z90.Mul(z90)
		assert.InDelta(t, 0, z180.W, 1e-12)
		assert.InDelta(t, 1, z180.Z, 1e-12)
	})

	t.Run("not commutative", func(t *testing.T) {
		t.Parallel()
		x90 := Quaternion{W: math.Sqrt2 / 2, X: math.Sqrt2 / 2}
		z90 := Quaternion{W: math.Sqrt2 / 2, Z: math.Sqrt2 / 2}
		a := x90.Mul(z90)
		b := z90.Mul(x90)
		assert.NotEqual(t, a, b)
	})
}

func TestInverse(t *testing.T) {
	t.Parallel()

	t.Run("matches conjugate for unit quaternions", func(t *testing.T) {
		t.Parallel()
		q, ok := Quaternion{W: 3, X: -1, Y: 4, Z: 1}.Normalized()
		require.True(t, ok)
		inv := q.Inverse()
		conj := q.Conjugate()
		assert.InDelta(t, conj.W, inv.W, 1e-12)
		assert.InDelta(t, conj.X, inv.X, 1e-12)
		assert.InDelta(t, conj.Y, inv.Y, 1e-12)
		assert.InDelta(t, conj.Z, inv.Z, 1e-12)
	})

	t.Run("non-unit inverse still cancels", func(t *testing.T) {
		t.Parallel()
		q := Quaternion{W: 2, X: 0, Y: 0, Z: 2}
		id := q.Inverse().Mul(q)
		assert.InDelta(t, 1, id.W, 1e-12)
		assert.InDelta(t, 0, id.Z, 1e-12)
	})

	t.Run("zero quaternion unchanged", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, Quaternion{}, Quaternion{}.Inverse())
	})
}

func TestMean(t *testing.T) {
	t.Parallel()

	t.Run("identical samples reproduce the sample", func(t *testing.T) {
		t.Parallel()
		m, ok := Mean([]Quaternion{{W: 1}, {W: 1}})
		require.True(t, ok)
		assert.Equal(t, Quaternion{W: 1}, m)
	})

	t.Run("antipodal pair is hemisphere aligned", func(t *testing.T) {
		t.Parallel()
		// q and -q are the same rotation; a naive componentwise mean
		// would cancel to zero norm.
		m, ok := Mean([]Quaternion{{W: 1}, {W: -1}})
		require.True(t, ok)
		assert.InDelta(t, 1, m.W, 1e-12)
	})

	t.Run("clustered samples average between them", func(t *testing.T) {
		t.Parallel()
		a := Quaternion{W: math.Cos(0.1), Z: math.Sin(0.1)}
		b := Quaternion{W: math.Cos(0.2), Z: math.Sin(0.2)}
		m, ok := Mean([]Quaternion{a, b})
		require.True(t, ok)
		assert.InDelta(t, 1.0, m.Norm(), 1e-6)
		assert.InDelta(t, math.Cos(0.15), m.W, 1e-3)
		assert.InDelta(t, math.Sin(0.15), m.Z, 1e-3)
	})

	t.Run("mixed sign cluster still averages", func(t *testing.T) {
		t.Parallel()
		a := Quaternion{W: math.Cos(0.1), Z: math.Sin(0.1)}
		m, ok := Mean([]Quaternion{a, a.Neg(), a, a.Neg()})
		require.True(t, ok)
		assert.InDelta(t, a.W, m.W, 1e-12)
		assert.InDelta(t, a.Z, m.Z, 1e-12)
	})

	t.Run("empty input", func(t *testing.T) {
		t.Parallel()
		_, ok := Mean(nil)
		assert.False(t, ok)
	})

	t.Run("degenerate zero samples", func(t *testing.T) {
		t.Parallel()
		_, ok := Mean([]Quaternion{{}, {}})
		assert.False(t, ok)
	})
}

func TestEuler(t *testing.T) {
	t.Parallel()

	t.Run("identity has zero angles", func(t *testing.T) {
		t.Parallel()
		roll, pitch, yaw := Identity().Euler()
		assert.InDelta(t, 0, roll, 1e-9)
		assert.InDelta(t, 0, pitch, 1e-9)
		assert.InDelta(t, 0, yaw, 1e-9)
	})

	t.Run("90 degrees about z is yaw", func(t *testing.T) {
		t.Parallel()
		roll, pitch, yaw := Quaternion{W: math.Sqrt2 / 2, Z: math.Sqrt2 / 2}.Euler()
		assert.InDelta(t, 0, roll, 1e-9)
		assert.InDelta(t, 0, pitch, 1e-9)
		assert.InDelta(t, 90, yaw, 1e-9)
	})

	t.Run("gimbal clamp survives slight over-unit input", func(t *testing.T) {
		t.Parallel()
		// pitch = +90deg exactly; float noise can push asin's argument
		// past 1 without the clamp.
		_, pitch, _ := Quaternion{W: math.Sqrt2 / 2, Y: math.Sqrt2 / 2}.Euler()
		assert.InDelta(t, 90, pitch, 1e-6)
	})

	t.Run("round trips through FromEuler", func(t *testing.T) {
		t.Parallel()
		for _, angles := range [][3]float64{
			{0, 0, 0},
			{10, -20, 30},
			{-45, 12.5, 170},
		} {
			q := FromEuler(angles[0], angles[1], angles[2])
			assert.InDelta(t, 1.0, q.Norm(), 1e-9)
			roll, pitch, yaw := q.Euler()
			assert.InDelta(t, angles[0], roll, 1e-9)
			assert.InDelta(t, angles[1], pitch, 1e-9)
			assert.InDelta(t, angles[2], yaw, 1e-9)
		}
	})
}
