package geometry

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// Quaternion is a rotation in 3D space. Every constructor and operation in
// this package returns a unit quaternion, callers never normalize by hand.
// The world is Y-up and the identity rotation faces +Z.
type Quaternion struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

// slerpLinearThreshold is the cosine above which Slerp falls back to a
// normalized linear blend, sin(theta) being too small to divide by.
const slerpLinearThreshold = 0.9995

// Identity returns the rotation that leaves vectors unchanged.
func Identity() Quaternion {
	return Quaternion{W: 1}
}

// AxisAngle builds the rotation of angle radians around axis.
// A zero axis yields the identity.
func AxisAngle(axis Vector3D, angle float64) Quaternion {
	n := axis.Normalize()
	if n.LenSqr() <= Epsilon {
		return Identity()
	}
	s, c := math.Sincos(angle / 2)
	return Quaternion{X: n.X * s, Y: n.Y * s, Z: n.Z * s, W: c}
}

func (q Quaternion) String() string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f, %.3f)", q.X, q.Y, q.Z, q.W)
}

// Dot is the 4D dot product, the cosine of half the angle between two unit rotations.
func (q Quaternion) Dot(other Quaternion) float64 {
	return q.X*other.X + q.Y*other.Y + q.Z*other.Z + q.W*other.W
}

// Len is the 4D magnitude; 1 for every valid rotation.
func (q Quaternion) Len() float64 {
	return math.Sqrt(q.Dot(q))
}

// Normalize rescales q to unit length. A degenerate quaternion becomes the identity.
func (q Quaternion) Normalize() Quaternion {
	l := q.Len()
	if l < Epsilon || math.IsNaN(l) {
		return Identity()
	}
	inv := 1 / l
	return Quaternion{X: q.X * inv, Y: q.Y * inv, Z: q.Z * inv, W: q.W * inv}
}

// Rotate applies the rotation to v.
func (q Quaternion) Rotate(v Vector3D) Vector3D {
	u := Vector3D{X: q.X, Y: q.Y, Z: q.Z}
	t := u.Cross(v).Mul(2)
	return v.Add(t.Mul(q.W)).Add(u.Cross(t))
}

// Forward is the direction q faces: +Z rotated by q.
func (q Quaternion) Forward() Vector3D {
	return q.Rotate(Forward)
}

// Slerp spherically interpolates from q toward target by t, clamped to [0, 1].
// The shortest arc is always taken.
func (q Quaternion) Slerp(target Quaternion, t float64) Quaternion {
	if t <= 0 || math.IsNaN(t) {
		return q
	}
	if t >= 1 {
		return target
	}

	cos := q.Dot(target)
	if cos < 0 {
		target = Quaternion{X: -target.X, Y: -target.Y, Z: -target.Z, W: -target.W}
		cos = -cos
	}

	var wq, wt float64
	if cos > slerpLinearThreshold {
		wq, wt = 1-t, t
	} else {
		theta := math.Acos(cos)
		sin := math.Sin(theta)
		wq = math.Sin((1-t)*theta) / sin
		wt = math.Sin(t*theta) / sin
	}

	return Quaternion{
		X: q.X*wq + target.X*wt,
		Y: q.Y*wq + target.Y*wt,
		Z: q.Z*wq + target.Z*wt,
		W: q.W*wq + target.W*wt,
	}.Normalize()
}

// Eq reports whether q and other describe the same rotation within Epsilon.
// q and -q are the same rotation.
func (q Quaternion) Eq(other Quaternion) bool {
	return 1-math.Abs(q.Dot(other)) <= Epsilon
}

// FromToRotation returns the shortest rotation taking direction from onto direction to.
func FromToRotation(from, to Vector3D) Quaternion {
	a, b := from.Normalize(), to.Normalize()
	if a.LenSqr() <= Epsilon || b.LenSqr() <= Epsilon {
		return Identity()
	}
	d := a.Dot(b)
	if d < -1+Epsilon {
		// Opposite directions: half turn about any axis orthogonal to a.
		axis := Right.Cross(a)
		if axis.LenSqr() <= Epsilon {
			axis = Up.Cross(a)
		}
		return AxisAngle(axis, math.Pi)
	}
	c := a.Cross(b)
	return Quaternion{X: c.X, Y: c.Y, Z: c.Z, W: 1 + d}.Normalize()
}

// LookRotation returns the rotation whose forward axis is dir and whose up
// axis is as close to world up as possible. When dir is parallel to world
// up the shortest rotation from +Z is used instead. Callers must guard
// against a zero dir; it yields the identity.
func LookRotation(dir Vector3D) Quaternion {
	z := dir.Normalize()
	if z.LenSqr() <= Epsilon {
		return Identity()
	}
	x := Up.Cross(z)
	if x.LenSqr() <= Epsilon {
		return FromToRotation(Forward, z)
	}
	x = x.Normalize()
	y := z.Cross(x)

	// Rotation matrix with columns x, y, z.
	m00, m01, m02 := x.X, y.X, z.X
	m10, m11, m12 := x.Y, y.Y, z.Y
	m20, m21, m22 := x.Z, y.Z, z.Z

	var q Quaternion
	switch trace := m00 + m11 + m22; {
	case trace > 0:
		s := 0.5 / math.Sqrt(trace+1)
		q = Quaternion{X: (m21 - m12) * s, Y: (m02 - m20) * s, Z: (m10 - m01) * s, W: 0.25 / s}
	case m00 > m11 && m00 > m22:
		s := 2 * math.Sqrt(1+m00-m11-m22)
		q = Quaternion{X: 0.25 * s, Y: (m01 + m10) / s, Z: (m02 + m20) / s, W: (m21 - m12) / s}
	case m11 > m22:
		s := 2 * math.Sqrt(1+m11-m00-m22)
		q = Quaternion{X: (m01 + m10) / s, Y: 0.25 * s, Z: (m12 + m21) / s, W: (m02 - m20) / s}
	default:
		s := 2 * math.Sqrt(1+m22-m00-m11)
		q = Quaternion{X: (m02 + m20) / s, Y: (m12 + m21) / s, Z: 0.25 * s, W: (m10 - m01) / s}
	}
	return q.Normalize()
}

// RandomRotation returns a rotation uniformly distributed over SO(3) (Shoemake's method).
func RandomRotation(rng *rand.Rand) Quaternion {
	u1, u2, u3 := rng.Float64(), rng.Float64(), rng.Float64()
	a, b := math.Sqrt(1-u1), math.Sqrt(u1)
	s2, c2 := math.Sincos(2 * math.Pi * u2)
	s3, c3 := math.Sincos(2 * math.Pi * u3)
	return Quaternion{X: a * s2, Y: a * c2, Z: b * s3, W: b * c3}.Normalize()
}
