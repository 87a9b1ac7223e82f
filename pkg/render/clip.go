package render

import (
	"github.com/taigrr/flipbook/pkg/math3d"
	"github.com/taigrr/flipbook/pkg/models"
)

// Plane represents a plane in 3D space using the equation: Ax + By + Cz + D = 0
// where (A, B, C) is the normal and D is the distance from origin.
type Plane struct {
	Normal math3d.Vec3
	D      float64
}

// DistanceToPoint returns the signed distance from the plane to a point.
// Positive = in front (same side as normal), negative = behind.
func (p Plane) DistanceToPoint(point math3d.Vec3) float64 {
	return p.Normal.Dot(point) + p.D
}

// ClipSegment keeps the part of segment ab on the positive side of the plane.
// It returns the clipped endpoints and their parameters along ab; ok is false
// when nothing is left.
func (p Plane) ClipSegment(a, b math3d.Vec3) (ca, cb math3d.Vec3, t0, t1 float64, ok bool) {
	da := p.DistanceToPoint(a)
	db := p.DistanceToPoint(b)
	switch {
	case da >= 0 && db >= 0:
		return a, b, 0, 1, true
	case da < 0 && db < 0:
		return a, b, 0, 0, false
	}
	t := da / (da - db)
	cut := a.Lerp(b, t)
	if da < 0 {
		return cut, b, t, 1, true
	}
	return a, cut, 0, t, true
}

// ClipPolygon keeps the part of a convex polygon on the positive side of the
// plane (Sutherland–Hodgman). A triangle clips to zero, three or four
// corners.
func (p Plane) ClipPolygon(poly []math3d.Vec3) []math3d.Vec3 {
	if len(poly) == 0 {
		return nil
	}
	out := make([]math3d.Vec3, 0, len(poly)+1)
	prev := poly[len(poly)-1]
	dPrev := p.DistanceToPoint(prev)
	for _, cur := range poly {
		dCur := p.DistanceToPoint(cur)
		if dCur >= 0 {
			if dPrev < 0 {
				out = append(out, prev.Lerp(cur, dPrev/(dPrev-dCur)))
			}
			out = append(out, cur)
		} else if dPrev >= 0 {
			out = append(out, prev.Lerp(cur, dPrev/(dPrev-dCur)))
		}
		prev, dPrev = cur, dCur
	}
	if len(out) < 3 {
		return nil
	}
	return out
}

// AABB represents an axis-aligned bounding box.
type AABB struct {
	Min math3d.Vec3
	Max math3d.Vec3
}

// BoundsOf returns the bounding box of a locked mesh.
func BoundsOf(m *models.Mesh) AABB {
	lo, hi := m.Bounds()
	return AABB{Min: lo, Max: hi}
}

// InFrontOf reports whether any part of the box lies on the positive side of
// the plane. It tests only the "positive vertex", the corner furthest along
// the plane normal.
func (b AABB) InFrontOf(plane Plane) bool {
	pVertex := math3d.V3(
		selectComponent(plane.Normal.X >= 0, b.Max.X, b.Min.X),
		selectComponent(plane.Normal.Y >= 0, b.Max.Y, b.Min.Y),
		selectComponent(plane.Normal.Z >= 0, b.Max.Z, b.Min.Z),
	)
	return plane.DistanceToPoint(pVertex) >= 0
}

// selectComponent is a branchless conditional selection helper.
func selectComponent(cond bool, a, b float64) float64 {
	if cond {
		return a
	}
	return b
}

// Rect is an axis-aligned rectangle on the image plane.
type Rect struct {
	Min math3d.Vec2
	Max math3d.Vec2
}

// RectOf returns the smallest rectangle holding all points.
func RectOf(pts ...math3d.Vec2) Rect {
	if len(pts) == 0 {
		return Rect{}
	}
	r := Rect{Min: pts[0], Max: pts[0]}
	for _, p := range pts[1:] {
		r.Min = r.Min.Min(p)
		r.Max = r.Max.Max(p)
	}
	return r
}

// Overlaps reports whether r and o share any point.
func (r Rect) Overlaps(o Rect) bool {
	return r.Min.X <= o.Max.X && o.Min.X <= r.Max.X &&
		r.Min.Y <= o.Max.Y && o.Min.Y <= r.Max.Y
}
