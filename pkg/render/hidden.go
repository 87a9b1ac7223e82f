package render

import (
	"math"
	"slices"

	"github.com/taigrr/flipbook/pkg/math3d"
	"github.com/taigrr/flipbook/pkg/models"
)

const (
	// DefaultDepthEpsilon is the relative depth margin by which a face must
	// be nearer than an edge to hide it. Coincident depths stay visible.
	DefaultDepthEpsilon = 1e-6
	// MinVisible is the shortest parameter span kept as a visible piece.
	MinVisible = 1e-9
	// minArea is the doubled image area below which a face is edge-on.
	minArea = 1e-12
)

// Interval is a closed parameter range [T0, T1] along an edge image.
type Interval struct {
	T0, T1 float64
}

// Len returns the parameter length of the interval.
func (iv Interval) Len() float64 {
	return iv.T1 - iv.T0
}

// Occluder is a projected face that may hide edges behind it.
type Occluder struct {
	P      [3]math3d.Vec2
	Object int
	Face   models.FaceIndex

	inv    [3]float64 // 1/depth at each corner
	area   float64    // twice the signed image area
	bounds Rect
	maxInv float64
}

// NewOccluder prepares a projected triangle. depth holds the camera depth of
// each corner and must be positive.
func NewOccluder(p [3]math3d.Vec2, depth [3]float64, object int, face models.FaceIndex) Occluder {
	o := Occluder{
		P:      p,
		Object: object,
		Face:   face,
		area:   p[1].Sub(p[0]).Cross(p[2].Sub(p[0])),
		bounds: RectOf(p[0], p[1], p[2]),
	}
	for i, d := range depth {
		o.inv[i] = 1 / d
		o.maxInv = math.Max(o.maxInv, o.inv[i])
	}
	return o
}

// EdgeOn reports whether the face is seen edge-on and so hides nothing.
func (o Occluder) EdgeOn() bool {
	return math.Abs(o.area) < minArea
}

// hasCorner reports whether one of the corners is exactly q at depth. A
// shared mesh vertex projects to the same point and depth every time.
func (o Occluder) hasCorner(q math3d.Vec2, depth float64) bool {
	inv := 1 / depth
	for i, p := range o.P {
		if p == q && o.inv[i] == inv {
			return true
		}
	}
	return false
}

// invDepthAt returns 1/depth of the face's plane under image point q.
// Inverse depth is affine on the image plane, so barycentric weights
// interpolate it exactly.
func (o Occluder) invDepthAt(q math3d.Vec2) float64 {
	bc := barycentric(o.P[0].X, o.P[0].Y, o.P[1].X, o.P[1].Y, o.P[2].X, o.P[2].Y, q.X, q.Y)
	return bc.X*o.inv[0] + bc.Y*o.inv[1] + bc.Z*o.inv[2]
}

// EdgeImage is a projected edge.
type EdgeImage struct {
	A, B           math3d.Vec2
	DepthA, DepthB float64
	Object         int
	Faces          [2]models.FaceIndex // second is models.NoFace on a boundary
}

// invDepthAt returns 1/depth along the edge at image parameter s. This is
// linear in s, which is what makes the interpolation perspective-correct.
func (e EdgeImage) invDepthAt(s float64) float64 {
	return (1-s)/e.DepthA + s/e.DepthB
}

// owns reports whether o is one of the edge's own faces.
func (e EdgeImage) owns(o *Occluder) bool {
	if o.Object != e.Object {
		return false
	}
	return o.Face == e.Faces[0] || (e.Faces[1] != models.NoFace && o.Face == e.Faces[1])
}

// Resolver decides which parts of edges are hidden by a fixed set of
// occluders. It is read-only once built and safe for concurrent use.
type Resolver struct {
	Occluders    []Occluder
	DepthEpsilon float64
}

// NewResolver returns a resolver over occluders. Edge-on faces are dropped.
func NewResolver(occluders []Occluder, depthEpsilon float64) *Resolver {
	kept := make([]Occluder, 0, len(occluders))
	for _, o := range occluders {
		if !o.EdgeOn() {
			kept = append(kept, o)
		}
	}
	return &Resolver{Occluders: kept, DepthEpsilon: depthEpsilon}
}

// Visible returns the parts of e that no occluder hides, as ascending,
// disjoint intervals of the image parameter.
func (r *Resolver) Visible(e EdgeImage) []Interval {
	return complement(r.Occluded(e))
}

// Occluded returns the union of the hidden parts of e, sorted and merged.
func (r *Resolver) Occluded(e EdgeImage) []Interval {
	box := RectOf(e.A, e.B)
	edgeMinInv := math.Min(1/e.DepthA, 1/e.DepthB)
	var hidden []Interval
	for i := range r.Occluders {
		o := &r.Occluders[i]
		if e.owns(o) || !o.bounds.Overlaps(box) {
			continue
		}
		// A face wholly behind the farthest point of the edge cannot hide it.
		if o.maxInv <= (1+r.DepthEpsilon)*edgeMinInv {
			continue
		}
		if iv, ok := r.hiddenBy(e, o); ok {
			hidden = append(hidden, iv)
		}
	}
	return union(hidden)
}

// hiddenBy returns the part of e that o covers on the image and that lies
// behind o.
func (r *Resolver) hiddenBy(e EdgeImage, o *Occluder) (Interval, bool) {
	lo, hi, ok := coverage(e.A, e.B, o)
	if !ok {
		return Interval{}, false
	}

	// g(s) = 1/d_face(s) - 1/d_edge(s) is linear in s. The face is in front
	// where g exceeds the margin eps/d_edge(s).
	g := func(s float64) float64 {
		return o.invDepthAt(e.A.Lerp(e.B, s)) - e.invDepthAt(s)
	}
	margin := func(s float64) float64 {
		return r.DepthEpsilon * e.invDepthAt(s)
	}

	// A face through an endpoint of the edge meets it there at the same
	// depth, so g is zero at that end and its sign is decided at the other.
	switch {
	case lo <= MinVisible && o.hasCorner(e.A, e.DepthA):
		if g(hi) > margin(hi) {
			return Interval{lo, hi}, true
		}
		return Interval{}, false
	case hi >= 1-MinVisible && o.hasCorner(e.B, e.DepthB):
		if g(lo) > margin(lo) {
			return Interval{lo, hi}, true
		}
		return Interval{}, false
	}

	gLo, gHi := g(lo)-margin(lo), g(hi)-margin(hi)
	switch {
	case gLo > 0 && gHi > 0:
		return Interval{lo, hi}, true
	case gLo <= 0 && gHi <= 0:
		return Interval{}, false
	}
	cross := lo + (hi-lo)*gLo/(gLo-gHi)
	if gLo > 0 {
		return Interval{lo, cross}, cross > lo
	}
	return Interval{cross, hi}, hi > cross
}

// coverage clips the parameter range [0,1] of segment ab against the three
// edge half-planes of the triangle (Cyrus–Beck).
func coverage(a, b math3d.Vec2, o *Occluder) (lo, hi float64, ok bool) {
	lo, hi = 0, 1
	sign := 1.0
	if o.area < 0 {
		sign = -1
	}
	d := b.Sub(a)
	for i := range 3 {
		p, q := o.P[i], o.P[(i+1)%3]
		side := q.Sub(p)
		// Inside when sign * cross(side, x - p) >= 0 for x = a + s*d.
		c0 := sign * side.Cross(a.Sub(p))
		c1 := sign * side.Cross(d)
		switch {
		case math.Abs(c1) < minArea:
			if c0 < 0 {
				return 0, 0, false
			}
		case c1 > 0:
			lo = math.Max(lo, -c0/c1)
		default:
			hi = math.Min(hi, -c0/c1)
		}
		if lo >= hi {
			return 0, 0, false
		}
	}
	return lo, hi, true
}

// union merges overlapping intervals.
func union(ivs []Interval) []Interval {
	if len(ivs) == 0 {
		return nil
	}
	slices.SortFunc(ivs, func(a, b Interval) int {
		switch {
		case a.T0 < b.T0:
			return -1
		case a.T0 > b.T0:
			return 1
		}
		return 0
	})
	out := []Interval{ivs[0]}
	for _, iv := range ivs[1:] {
		last := &out[len(out)-1]
		if iv.T0 <= last.T1 {
			last.T1 = math.Max(last.T1, iv.T1)
			continue
		}
		out = append(out, iv)
	}
	return out
}

// complement returns [0,1] minus sorted, disjoint intervals, dropping
// pieces shorter than MinVisible.
func complement(hidden []Interval) []Interval {
	var out []Interval
	t := 0.0
	for _, iv := range hidden {
		if iv.T0-t > MinVisible {
			out = append(out, Interval{t, iv.T0})
		}
		t = math.Max(t, iv.T1)
	}
	if 1-t > MinVisible {
		out = append(out, Interval{t, 1})
	}
	return out
}

// barycentric calculates barycentric coordinates for point (px, py) in triangle.
func barycentric(x0, y0, x1, y1, x2, y2, px, py float64) math3d.Vec3 {
	v0x, v0y := x2-x0, y2-y0
	v1x, v1y := x1-x0, y1-y0
	v2x, v2y := px-x0, py-y0

	dot00 := v0x*v0x + v0y*v0y
	dot01 := v0x*v1x + v0y*v1y
	dot02 := v0x*v2x + v0y*v2y
	dot11 := v1x*v1x + v1y*v1y
	dot12 := v1x*v2x + v1y*v2y

	invDenom := 1.0 / (dot00*dot11 - dot01*dot01)
	u := (dot11*dot02 - dot01*dot12) * invDenom
	v := (dot00*dot12 - dot01*dot02) * invDenom

	return math3d.V3(1-u-v, v, u)
}
