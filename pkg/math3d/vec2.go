package math3d

import "math"

// Vec2 represents a 2D point or vector, used for floor positions and image
// plane coordinates.
type Vec2 struct {
	X, Y float64
}

// V2 creates a new Vec2.
func V2(x, y float64) Vec2 {
	return Vec2{x, y}
}

// Add returns a + b.
func (a Vec2) Add(b Vec2) Vec2 {
	return Vec2{a.X + b.X, a.Y + b.Y}
}

// Sub returns a - b.
func (a Vec2) Sub(b Vec2) Vec2 {
	return Vec2{a.X - b.X, a.Y - b.Y}
}

// Scale returns a * s.
func (a Vec2) Scale(s float64) Vec2 {
	return Vec2{a.X * s, a.Y * s}
}

// Div returns a / s.
func (a Vec2) Div(s float64) Vec2 {
	return Vec2{a.X / s, a.Y / s}
}

// Negate returns the negated vector.
func (a Vec2) Negate() Vec2 {
	return Vec2{-a.X, -a.Y}
}

// Dot returns the dot product a · b.
func (a Vec2) Dot(b Vec2) float64 {
	return a.X*b.X + a.Y*b.Y
}

// Cross returns the z component of the 3D cross product of a and b.
// It is positive when b lies counter-clockwise of a.
func (a Vec2) Cross(b Vec2) float64 {
	return a.X*b.Y - a.Y*b.X
}

// Perp returns a rotated a quarter turn counter-clockwise.
func (a Vec2) Perp() Vec2 {
	return Vec2{-a.Y, a.X}
}

// Len returns the length of the vector.
func (a Vec2) Len() float64 {
	return math.Hypot(a.X, a.Y)
}

// LenSq returns the squared length.
func (a Vec2) LenSq() float64 {
	return a.X*a.X + a.Y*a.Y
}

// Unit returns the unit vector in the same direction, or the X axis when a
// is shorter than Epsilon.
func (a Vec2) Unit() Vec2 {
	l := a.Len()
	if l < Epsilon {
		return Vec2{1, 0}
	}
	return Vec2{a.X / l, a.Y / l}
}

// Lerp returns the linear interpolation between a and b by t.
func (a Vec2) Lerp(b Vec2, t float64) Vec2 {
	return Vec2{a.X + (b.X-a.X)*t, a.Y + (b.Y-a.Y)*t}
}

// Combo returns the affine combination (1-t)a + tb of two points.
func (a Vec2) Combo(b Vec2, t float64) Vec2 {
	return a.Lerp(b, t)
}

// Dist returns the distance between two points.
func (a Vec2) Dist(b Vec2) float64 {
	return a.Sub(b).Len()
}

// DistSq returns the squared distance between two points.
func (a Vec2) DistSq(b Vec2) float64 {
	return a.Sub(b).LenSq()
}

// Min returns the component-wise minimum.
func (a Vec2) Min(b Vec2) Vec2 {
	return Vec2{math.Min(a.X, b.X), math.Min(a.Y, b.Y)}
}

// Max returns the component-wise maximum.
func (a Vec2) Max(b Vec2) Vec2 {
	return Vec2{math.Max(a.X, b.X), math.Max(a.Y, b.Y)}
}

// Rotate returns a rotated counter-clockwise by angle radians.
func (a Vec2) Rotate(angle float64) Vec2 {
	c, s := math.Cos(angle), math.Sin(angle)
	return Vec2{a.X*c - a.Y*s, a.X*s + a.Y*c}
}

// Angle returns the heading of a in radians, measured from +X.
func (a Vec2) Angle() float64 {
	return math.Atan2(a.Y, a.X)
}

// Vec3 lifts a onto the plane z.
func (a Vec2) Vec3(z float64) Vec3 {
	return Vec3{a.X, a.Y, z}
}

// ApproxEqual reports whether a and b differ by less than tol in every
// component.
func (a Vec2) ApproxEqual(b Vec2, tol float64) bool {
	return math.Abs(a.X-b.X) < tol && math.Abs(a.Y-b.Y) < tol
}
