package spatial

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrDegenerateOrientation is returned when a quaternion cannot be
// normalized because its norm is zero, NaN or Inf.
var ErrDegenerateOrientation = errors.New("spatial: degenerate orientation (zero-norm quaternion)")

const normEps = 1e-12

// QuatIdentity returns the unit quaternion with no rotation.
func QuatIdentity() quat.Number {
	return quat.Number{Real: 1}
}

// AxisAngle returns the rotation by angle radians about axis.
func AxisAngle(axis r3.Vec, angle float64) quat.Number {
	return quat.Number(r3.NewRotation(angle, axis))
}

// Euler composes intrinsic x-y-z rotations, angles in radians.
func Euler(x, y, z float64) quat.Number {
	q := quat.Mul(AxisAngle(r3.Vec{X: 1}, x), AxisAngle(r3.Vec{Y: 1}, y))
	return quat.Mul(q, AxisAngle(r3.Vec{Z: 1}, z))
}

// EulerDeg is Euler with angles in degrees.
func EulerDeg(x, y, z float64) quat.Number {
	return Euler(x*math.Pi/180, y*math.Pi/180, z*math.Pi/180)
}

// Normalize scales q to unit norm.
func Normalize(q quat.Number) (quat.Number, error) {
	n := quat.Abs(q)
	if n < normEps || math.IsNaN(n) || math.IsInf(n, 0) {
		return quat.Number{}, ErrDegenerateOrientation
	}
	return quat.Scale(1/n, q), nil
}

// Rotate applies the active rotation q to v.
func Rotate(v r3.Vec, q quat.Number) r3.Vec {
	p := quat.Mul(quat.Mul(q, pure(v)), quat.Conj(q))
	return r3.Vec{X: p.Imag, Y: p.Jmag, Z: p.Kmag}
}

// RotateInv applies the inverse of q to v, i.e. expresses a parent-frame
// vector in the rotated frame.
func RotateInv(v r3.Vec, q quat.Number) r3.Vec {
	return Rotate(v, quat.Conj(q))
}

// Integrate advances orientation q by the body-frame angular velocity omega
// over dt using the exponential map, then renormalizes.
func Integrate(q quat.Number, omega r3.Vec, dt float64) (quat.Number, error) {
	dq := quat.Exp(pure(r3.Scale(0.5*dt, omega)))
	return Normalize(quat.Mul(q, dq))
}

// ToAxisAngle returns a unit axis and angle in [0, pi]. The axis of an
// identity rotation is +x.
func ToAxisAngle(q quat.Number) (r3.Vec, float64) {
	if q.Real < 0 {
		q = quat.Scale(-1, q)
	}
	v := r3.Vec{X: q.Imag, Y: q.Jmag, Z: q.Kmag}
	s := r3.Norm(v)
	if s < normEps {
		return r3.Vec{X: 1}, 0
	}
	return r3.Scale(1/s, v), 2 * math.Atan2(s, q.Real)
}

// AngleBetween returns the rotation angle taking a to b.
func AngleBetween(a, b quat.Number) float64 {
	_, angle := ToAxisAngle(quat.Mul(quat.Conj(a), b))
	return angle
}

// Matrix returns the rotation matrix of the active rotation q.
func Matrix(q quat.Number) Mat3 {
	var m Mat3
	cols := [3]r3.Vec{
		Rotate(r3.Vec{X: 1}, q),
		Rotate(r3.Vec{Y: 1}, q),
		Rotate(r3.Vec{Z: 1}, q),
	}
	for j, c := range cols {
		m[0][j], m[1][j], m[2][j] = c.X, c.Y, c.Z
	}
	return m
}

func pure(v r3.Vec) quat.Number {
	return quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}
}
