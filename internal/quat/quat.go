package quat

import "math"

// degenerateNormTol is the norm below which an averaged quaternion is
// treated as carrying no usable direction.
const degenerateNormTol = 1e-9

// Quaternion is a rotation in w,x,y,z (scalar-first) form.
type Quaternion struct {
	W float64 `json:"w"`
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Identity returns the no-rotation quaternion.
func Identity() Quaternion {
	return Quaternion{W: 1}
}

// Mul returns the Hamilton product q*r: the rotation r followed by q.
func (q Quaternion) Mul(r Quaternion) Quaternion {
	return Quaternion{
		W: q.W*r.W - q.X*r.X - q.Y*r.Y - q.Z*r.Z,
		X: q.W*r.X + q.X*r.W + q.Y*r.Z - q.Z*r.Y,
		Y: q.W*r.Y - q.X*r.Z + q.Y*r.W + q.Z*r.X,
		Z: q.W*r.Z + q.X*r.Y - q.Y*r.X + q.Z*r.W,
	}
}

// Conjugate negates the vector part. For a unit quaternion the conjugate
// is the inverse rotation.
func (q Quaternion) Conjugate() Quaternion {
	return Quaternion{W: q.W, X: -q.X, Y: -q.Y, Z: -q.Z}
}

// Inverse returns the multiplicative inverse. A zero quaternion has no
// inverse and is returned unchanged.
func (q Quaternion) Inverse() Quaternion {
	n2 := q.W*q.W + q.X*q.X + q.Y*q.Y + q.Z*q.Z
	if n2 == 0 {
		return q
	}
	return Quaternion{W: q.W / n2, X: -q.X / n2, Y: -q.Y / n2, Z: -q.Z / n2}
}

// Norm returns the Euclidean length over all four components.
func (q Quaternion) Norm() float64 {
	return math.Sqrt(q.W*q.W + q.X*q.X + q.Y*q.Y + q.Z*q.Z)
}

// Dot returns the four-component dot product. Its sign tells whether two
// unit quaternions lie in the same hemisphere (same-sign encodings of
// nearby rotations).
func (q Quaternion) Dot(r Quaternion) float64 {
	return q.W*r.W + q.X*r.X + q.Y*r.Y + q.Z*r.Z
}

// Neg flips the sign of all components. q and Neg(q) encode the same
// rotation.
func (q Quaternion) Neg() Quaternion {
	return Quaternion{W: -q.W, X: -q.X, Y: -q.Y, Z: -q.Z}
}

// Normalized returns q scaled to unit length. A zero-norm quaternion
// cannot be normalized; it is returned unchanged with ok=false so a bad
// frame degrades instead of dividing by zero.
func (q Quaternion) Normalized() (Quaternion, bool) {
	n := q.Norm()
	if n == 0 {
		return q, false
	}
	return Quaternion{W: q.W / n, X: q.X / n, Y: q.Y / n, Z: q.Z / n}, true
}

// FromEuler builds the rotation for roll, pitch, yaw in degrees
// (x, y, z Tait-Bryan, applied yaw-pitch-roll).
func FromEuler(roll, pitch, yaw float64) Quaternion {
	const rad = math.Pi / 180.0
	cr := math.Cos(roll * rad / 2)
	sr := math.Sin(roll * rad / 2)
	cp := math.Cos(pitch * rad / 2)
	sp := math.Sin(pitch * rad / 2)
	cy := math.Cos(yaw * rad / 2)
	sy := math.Sin(yaw * rad / 2)

	return Quaternion{
		W: cr*cp*cy + sr*sp*sy,
		X: sr*cp*cy - cr*sp*sy,
		Y: cr*sp*cy + sr*cp*sy,
		Z: cr*cp*sy - sr*sp*cy,
	}
}

// Euler converts q to roll, pitch, yaw in degrees (x, y, z Tait-Bryan).
// Display/console convenience only; all pipeline math stays in
// quaternion form.
func (q Quaternion) Euler() (roll, pitch, yaw float64) {
	roll = math.Atan2(2*(q.W*q.X+q.Y*q.Z), 1-2*(q.X*q.X+q.Y*q.Y))

	sinp := 2 * (q.W*q.Y - q.Z*q.X)
	if sinp > 1 {
		sinp = 1
	} else if sinp < -1 {
		sinp = -1
	}
	pitch = math.Asin(sinp)

	yaw = math.Atan2(2*(q.W*q.Z+q.X*q.Y), 1-2*(q.Y*q.Y+q.Z*q.Z))

	const deg = 180.0 / math.Pi
	return roll * deg, pitch * deg, yaw * deg
}

// Mean returns the normalized componentwise mean of samples. Each sample
// is first sign-aligned against the first one, since q and -q encode the
// same rotation and mixing hemispheres cancels the average toward zero.
// ok=false when samples is empty or the aligned mean still has a
// degenerate norm (samples not clustered around one orientation).
func Mean(samples []Quaternion) (Quaternion, bool) {
	if len(samples) == 0 {
		return Quaternion{}, false
	}
	first := samples[0]
	var sum Quaternion
	for _, s := range samples {
		if s.Dot(first) < 0 {
			s = s.Neg()
		}
		sum.W += s.W
		sum.X += s.X
		sum.Y += s.Y
		sum.Z += s.Z
	}
	n := float64(len(samples))
	avg := Quaternion{W: sum.W / n, X: sum.X / n, Y: sum.Y / n, Z: sum.Z / n}
	if avg.Norm() < degenerateNormTol {
		return avg, false
	}
	return avg.Normalized()
}
