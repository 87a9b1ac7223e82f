// Package math3d provides the 2D and 3D vector primitives used by the
// flip-book mesh, camera and visibility code.
//
// A single value type per dimension serves both as a point and as a vector.
// Point - point yields a vector (Sub), point + vector yields a point (Add).
package math3d

import "math"

// Epsilon is the length below which a vector is treated as zero.
const Epsilon = 1e-8

// Vec3 represents a 3D point or vector.
type Vec3 struct {
	X, Y, Z float64
}

// V3 creates a new Vec3.
func V3(x, y, z float64) Vec3 {
	return Vec3{x, y, z}
}

// Zero3 returns the zero vector.
func Zero3() Vec3 {
	return Vec3{}
}

// Up returns the world up vector (0, 0, 1). The scene floor is the XY plane.
func Up() Vec3 {
	return Vec3{0, 0, 1}
}

// Forward returns the default viewing direction (1, 0, 0).
func Forward() Vec3 {
	return Vec3{1, 0, 0}
}

// Add returns a + b.
func (a Vec3) Add(b Vec3) Vec3 {
	return Vec3{a.X + b.X, a.Y + b.Y, a.Z + b.Z}
}

// Sub returns a - b.
func (a Vec3) Sub(b Vec3) Vec3 {
	return Vec3{a.X - b.X, a.Y - b.Y, a.Z - b.Z}
}

// Mul returns the component-wise product a * b.
func (a Vec3) Mul(b Vec3) Vec3 {
	return Vec3{a.X * b.X, a.Y * b.Y, a.Z * b.Z}
}

// Scale returns a * s.
func (a Vec3) Scale(s float64) Vec3 {
	return Vec3{a.X * s, a.Y * s, a.Z * s}
}

// Div returns a / s.
func (a Vec3) Div(s float64) Vec3 {
	return Vec3{a.X / s, a.Y / s, a.Z / s}
}

// Dot returns the dot product a · b.
func (a Vec3) Dot(b Vec3) float64 {
	return a.X*b.X + a.Y*b.Y + a.Z*b.Z
}

// Cross returns the cross product a × b.
func (a Vec3) Cross(b Vec3) Vec3 {
	return Vec3{
		a.Y*b.Z - a.Z*b.Y,
		a.Z*b.X - a.X*b.Z,
		a.X*b.Y - a.Y*b.X,
	}
}

// Len returns the length (magnitude) of the vector.
func (a Vec3) Len() float64 {
	return math.Sqrt(a.X*a.X + a.Y*a.Y + a.Z*a.Z)
}

// LenSq returns the squared length (faster, no sqrt).
func (a Vec3) LenSq() float64 {
	return a.X*a.X + a.Y*a.Y + a.Z*a.Z
}

// Unit returns the unit vector in the same direction. Vectors shorter than
// Epsilon have no direction; Unit returns the X axis for them.
func (a Vec3) Unit() Vec3 {
	l := a.Len()
	if l < Epsilon {
		return Vec3{1, 0, 0}
	}
	return Vec3{a.X / l, a.Y / l, a.Z / l}
}

// Negate returns the negated vector.
func (a Vec3) Negate() Vec3 {
	return Vec3{-a.X, -a.Y, -a.Z}
}

// Lerp returns the linear interpolation between a and b by t.
func (a Vec3) Lerp(b Vec3, t float64) Vec3 {
	return Vec3{
		a.X + (b.X-a.X)*t,
		a.Y + (b.Y-a.Y)*t,
		a.Z + (b.Z-a.Z)*t,
	}
}

// Combo returns the affine combination (1-t)a + tb of two points.
func (a Vec3) Combo(b Vec3, t float64) Vec3 {
	return a.Lerp(b, t)
}

// Combos returns the affine combination sum(w[i] * p[i]) of points, computed
// as offsets from the first point so the weights need only sum to one.
// It panics if the slices differ in length or are empty.
func Combos(ps []Vec3, ws []float64) Vec3 {
	if len(ps) != len(ws) || len(ps) == 0 {
		panic("math3d: Combos needs one weight per point")
	}
	base := ps[0]
	out := base
	for i := 1; i < len(ps); i++ {
		out = out.Add(ps[i].Sub(base).Scale(ws[i]))
	}
	return out
}

// Dist returns the distance between two points.
func (a Vec3) Dist(b Vec3) float64 {
	return a.Sub(b).Len()
}

// DistSq returns the squared distance between two points.
func (a Vec3) DistSq(b Vec3) float64 {
	return a.Sub(b).LenSq()
}

// Min returns the component-wise minimum.
func (a Vec3) Min(b Vec3) Vec3 {
	return Vec3{
		math.Min(a.X, b.X),
		math.Min(a.Y, b.Y),
		math.Min(a.Z, b.Z),
	}
}

// Max returns the component-wise maximum.
func (a Vec3) Max(b Vec3) Vec3 {
	return Vec3{
		math.Max(a.X, b.X),
		math.Max(a.Y, b.Y),
		math.Max(a.Z, b.Z),
	}
}

// XY drops the Z component.
func (a Vec3) XY() Vec2 {
	return Vec2{a.X, a.Y}
}

// Floor returns the point projected straight down onto the z = 0 plane.
func (a Vec3) Floor() Vec3 {
	return Vec3{a.X, a.Y, 0}
}

// ApproxEqual reports whether a and b differ by less than tol in every
// component.
func (a Vec3) ApproxEqual(b Vec3, tol float64) bool {
	return math.Abs(a.X-b.X) < tol && math.Abs(a.Y-b.Y) < tol && math.Abs(a.Z-b.Z) < tol
}
