// Package scene holds the editable description of a walk-through: where
// library objects are placed on the floor and where the camera stands for
// each shot.
package scene

import (
	"math"

	"github.com/taigrr/flipbook/pkg/math3d"
	"github.com/taigrr/flipbook/pkg/models"
)

// MinScale is the smallest footprint radius a placement may have.
const MinScale = 0.1

// Bounds is the rectangle of floor that objects must stay inside.
type Bounds struct {
	Left   float64 `yaml:"left"`
	Right  float64 `yaml:"right"`
	Bottom float64 `yaml:"bottom"`
	Top    float64 `yaml:"top"`
}

// DefaultBounds is the floor seen by an 800x600 editor with a 300 pixel unit: 3⅓ units deep
// and 2 units wide, with the camera side at x = 0.
func DefaultBounds() Bounds {
	return Bounds{
		Left:   0,
		Right:  2 * (800.0 - 300.0) / 300.0,
		Bottom: -1,
		Top:    1,
	}
}

// Contains reports whether p lies inside the bounds, edges included.
func (b Bounds) Contains(p math3d.Vec3) bool {
	return p.X >= b.Left && p.X <= b.Right && p.Y >= b.Bottom && p.Y <= b.Top
}

// Placement is one library object set down on the floor. Its footprint is
// the disc of radius Scale about Position, and it is kept inside the scene
// bounds by Resize and MoveTo.
type Placement struct {
	Object      models.Handle
	Name        string
	Position    math3d.Vec3 // Z is always 0
	Scale       float64
	Orientation float64 // degrees counter-clockwise about +Z
}

// NewPlacement puts object at position with the minimum scale, clamped into
// bounds.
func NewPlacement(object models.Handle, name string, position math3d.Vec3, b Bounds) Placement {
	p := Placement{
		Object: object,
		Name:   name,
		Scale:  MinScale,
	}
	p.MoveTo(position, b)
	return p
}

// Resize sets the scale to the requested value, raised to MinScale and then
// lowered so the footprint does not cross any edge of b. A placement whose
// position lies outside b shrinks to zero; MoveTo brings it back in.
func (p *Placement) Resize(scale float64, b Bounds) {
	scale = math.Max(scale, MinScale)
	scale = math.Min(scale, b.Right-p.Position.X)
	scale = math.Min(scale, b.Top-p.Position.Y)
	scale = math.Min(scale, p.Position.X-b.Left)
	scale = math.Min(scale, p.Position.Y-b.Bottom)
	p.Scale = math.Max(scale, 0)
}

// MoveTo relocates the placement onto the floor at position, clamped so the
// footprint stays inside b.
func (p *Placement) MoveTo(position math3d.Vec3, b Bounds) {
	x := math.Max(position.X, b.Left+p.Scale)
	y := math.Max(position.Y, b.Bottom+p.Scale)
	x = math.Min(x, b.Right-p.Scale)
	y = math.Min(y, b.Top-p.Scale)
	p.Position = math3d.V3(x, y, 0)
}

// RotateBy spins the placement further by angle degrees.
func (p *Placement) RotateBy(angle float64) {
	p.Orientation += angle
}

// clampedTo returns p moved into b at the minimum scale and then grown
// back towards its own scale as far as b allows.
func (p Placement) clampedTo(b Bounds) Placement {
	scale := p.Scale
	p.Scale = MinScale
	p.MoveTo(p.Position, b)
	p.Resize(scale, b)
	return p
}

// BaseIncludes reports whether q lies strictly inside the footprint.
func (p Placement) BaseIncludes(q math3d.Vec3) bool {
	return p.Position.DistSq(q) < p.Scale*p.Scale
}

// Matrix returns the object-to-world transform: scale, then spin about Z,
// then move to Position.
func (p Placement) Matrix() math3d.Mat4 {
	return math3d.FloorTransform(p.Position, p.Orientation*math.Pi/180, p.Scale)
}

// Transform maps a single point of the library mesh into the scene. It
// builds the matrix on every call; map whole meshes through Matrix.
func (p Placement) Transform(v math3d.Vec3) math3d.Vec3 {
	return p.Matrix().MulVec3(v)
}
