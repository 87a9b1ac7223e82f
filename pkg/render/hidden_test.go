package render

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taigrr/flipbook/pkg/math3d"
	"github.com/taigrr/flipbook/pkg/models"
)

func TestBarycentric(t *testing.T) {
	tests := []struct {
		name     string
		px, py   float64
		expected math3d.Vec3
	}{
		{"vertex 0", 0, 0, math3d.V3(1, 0, 0)},
		{"vertex 1", 1, 0, math3d.V3(0, 1, 0)},
		{"vertex 2", 0, 1, math3d.V3(0, 0, 1)},
		{"centroid", 1.0 / 3, 1.0 / 3, math3d.V3(1.0/3, 1.0/3, 1.0/3)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			// Triangle: (0,0), (1,0), (0,1)
			bc := barycentric(0, 0, 1, 0, 0, 1, tc.px, tc.py)
			assert.True(t, bc.ApproxEqual(tc.expected, 1e-9), "barycentric(%v, %v) = %v", tc.px, tc.py, bc)
		})
	}

	t.Run("outside triangle", func(t *testing.T) {
		bc := barycentric(0, 0, 1, 0, 0, 1, -1, -1)
		assert.False(t, bc.X >= 0 && bc.Y >= 0 && bc.Z >= 0)
	})
}

// flatOccluder is the image triangle (0,0) (size,0) (0,size) at a single
// depth, owned by object 1.
func flatOccluder(size, depth float64) Occluder {
	return NewOccluder(
		[3]math3d.Vec2{math3d.V2(0, 0), math3d.V2(size, 0), math3d.V2(0, size)},
		[3]float64{depth, depth, depth},
		1, 0,
	)
}

// horizontal is an edge of object 0 along y = 0.5 from x = -1 to x = 3.
func horizontal(depthA, depthB float64) EdgeImage {
	return EdgeImage{
		A: math3d.V2(-1, 0.5), B: math3d.V2(3, 0.5),
		DepthA: depthA, DepthB: depthB,
		Object: 0,
		Faces:  [2]models.FaceIndex{0, models.NoFace},
	}
}

// assertIntervals compares to within the relative depth margin, which
// shifts crossings by about DefaultDepthEpsilon.
func assertIntervals(t *testing.T, want, got []Interval, msgAndArgs ...any) {
	t.Helper()
	require.Len(t, got, len(want), msgAndArgs...)
	for i := range want {
		assert.InDelta(t, want[i].T0, got[i].T0, 1e-5, "interval %d start of %v", i, got)
		assert.InDelta(t, want[i].T1, got[i].T1, 1e-5, "interval %d end of %v", i, got)
	}
}

func TestResolverVisible(t *testing.T) {
	tests := []struct {
		name      string
		occluders []Occluder
		edge      EdgeImage
		want      []Interval
	}{
		{
			name: "no occluders",
			edge: horizontal(2, 2),
			want: []Interval{{0, 1}},
		},
		{
			name:      "face in front hides the covered middle",
			occluders: []Occluder{flatOccluder(2, 1)},
			edge:      horizontal(2, 2),
			want:      []Interval{{0, 0.25}, {0.625, 1}},
		},
		{
			name:      "nearer face covering the whole edge",
			occluders: []Occluder{flatOccluder(4, 1)},
			edge: EdgeImage{
				A: math3d.V2(0.5, 0.5), B: math3d.V2(2, 0.5),
				DepthA: 2, DepthB: 2,
				Object: 0,
				Faces:  [2]models.FaceIndex{0, models.NoFace},
			},
			want: []Interval{},
		},
		{
			name:      "face behind hides nothing",
			occluders: []Occluder{flatOccluder(2, 3)},
			edge:      horizontal(2, 2),
			want:      []Interval{{0, 1}},
		},
		{
			name:      "coincident depth stays visible",
			occluders: []Occluder{flatOccluder(2, 2)},
			edge:      horizontal(2, 2),
			want:      []Interval{{0, 1}},
		},
		{
			// 1/d_edge = 2 - 1.5s meets the face's 1/d = 1 at s = 2/3.
			name:      "edge passing behind the face",
			occluders: []Occluder{flatOccluder(4, 1)},
			edge:      horizontal(0.5, 2),
			want:      []Interval{{0, 2.0 / 3.0}},
		},
		{
			name:      "overlapping occluders merge",
			occluders: []Occluder{flatOccluder(2, 1), flatOccluder(3, 1.5)},
			edge:      horizontal(2, 2),
			want:      []Interval{{0, 0.25}, {0.875, 1}},
		},
		{
			name: "disjoint rectangles skip the test",
			occluders: []Occluder{NewOccluder(
				[3]math3d.Vec2{math3d.V2(0, 2), math3d.V2(1, 2), math3d.V2(0, 3)},
				[3]float64{1, 1, 1}, 1, 0)},
			edge: horizontal(2, 2),
			want: []Interval{{0, 1}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(tt.occluders, DefaultDepthEpsilon)
			assertIntervals(t, tt.want, r.Visible(tt.edge))
		})
	}
}

// fromCorner is an edge of object 0 leaving the occluder corner (0,0) for
// (1,1), inside flatOccluder(4, 1).
func fromCorner(depthA, depthB float64) EdgeImage {
	return EdgeImage{
		A: math3d.V2(0, 0), B: math3d.V2(1, 1),
		DepthA: depthA, DepthB: depthB,
		Object: 0,
		Faces:  [2]models.FaceIndex{0, models.NoFace},
	}
}

func TestResolverSharedEndpoint(t *testing.T) {
	r := NewResolver([]Occluder{flatOccluder(4, 1)}, DefaultDepthEpsilon)

	assertIntervals(t, []Interval{}, r.Visible(fromCorner(1, 2)),
		"an edge leaving the face's corner behind it is hidden right up to the corner")

	back := fromCorner(1, 2)
	back.A, back.B = back.B, back.A
	back.DepthA, back.DepthB = back.DepthB, back.DepthA
	assertIntervals(t, []Interval{}, r.Visible(back), "same edge, reversed")

	assertIntervals(t, []Interval{{0, 1}}, r.Visible(fromCorner(1, 0.5)),
		"an edge leaving the corner towards the camera stays whole")

	// Same image point but nearer than the corner: 1/d_edge = 10/9 - 11/18 s
	// drops below the face's 1 at s = 2/11.
	assertIntervals(t, []Interval{{0, 2.0 / 11.0}}, r.Visible(fromCorner(0.9, 2)))
}

func TestResolverIgnoresOwnFaces(t *testing.T) {
	own := flatOccluder(2, 1)
	own.Object = 0

	edge := horizontal(2, 2)
	r := NewResolver([]Occluder{own}, DefaultDepthEpsilon)
	assertIntervals(t, []Interval{{0, 1}}, r.Visible(edge))

	edge.Faces = [2]models.FaceIndex{3, 0}
	assertIntervals(t, []Interval{{0, 1}}, r.Visible(edge), "twin face is also own")

	edge.Faces = [2]models.FaceIndex{3, models.NoFace}
	assertIntervals(t, []Interval{{0, 0.25}, {0.625, 1}}, r.Visible(edge), "another face of the same object hides")
}

func TestResolverDropsEdgeOnFaces(t *testing.T) {
	flat := NewOccluder(
		[3]math3d.Vec2{math3d.V2(0, 0), math3d.V2(1, 1), math3d.V2(2, 2)},
		[3]float64{1, 1, 1}, 1, 0)
	assert.True(t, flat.EdgeOn())

	r := NewResolver([]Occluder{flat, flatOccluder(1, 1)}, DefaultDepthEpsilon)
	assert.Len(t, r.Occluders, 1)
}

func TestResolverClockwiseOccluder(t *testing.T) {
	o := flatOccluder(2, 1)
	o = NewOccluder([3]math3d.Vec2{o.P[0], o.P[2], o.P[1]}, [3]float64{1, 1, 1}, 1, 0)

	r := NewResolver([]Occluder{o}, DefaultDepthEpsilon)
	assertIntervals(t, []Interval{{0, 0.25}, {0.625, 1}}, r.Visible(horizontal(2, 2)))
}

func TestResolverVisibleIsComplementOfOccluded(t *testing.T) {
	r := NewResolver([]Occluder{flatOccluder(2, 1), flatOccluder(3, 1.5)}, DefaultDepthEpsilon)
	edge := horizontal(3, 2)

	total := 0.0
	for _, iv := range r.Occluded(edge) {
		total += iv.Len()
	}
	for _, iv := range r.Visible(edge) {
		total += iv.Len()
	}
	assert.InDelta(t, 1, total, 1e-9)
}

func TestUnionAndComplement(t *testing.T) {
	got := union([]Interval{{0.5, 0.7}, {0.1, 0.2}, {0.15, 0.3}, {0.7, 0.8}})
	assertIntervals(t, []Interval{{0.1, 0.3}, {0.5, 0.8}}, got)

	assertIntervals(t, []Interval{{0, 0.1}, {0.3, 0.5}, {0.8, 1}}, complement(got))
	assertIntervals(t, []Interval{{0, 1}}, complement(nil))
	assert.Empty(t, complement([]Interval{{0, 1}}))
	assert.Empty(t, complement([]Interval{{math.SmallestNonzeroFloat64, 1 - 1e-12}}), "slivers are dropped")
}
