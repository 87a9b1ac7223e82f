package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taigrr/flipbook/pkg/math3d"
	"github.com/taigrr/flipbook/pkg/models"
)

func TestPlaneDistanceToPoint(t *testing.T) {
	// Plane at Z=0, normal pointing +Z
	plane := Plane{Normal: math3d.V3(0, 0, 1), D: 0}

	tests := []struct {
		name     string
		point    math3d.Vec3
		expected float64
	}{
		{"origin", math3d.V3(0, 0, 0), 0},
		{"in front", math3d.V3(0, 0, 5), 5},
		{"behind", math3d.V3(0, 0, -3), -3},
		{"offset XY", math3d.V3(10, -5, 2), 2},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.expected, plane.DistanceToPoint(tc.point), tol)
		})
	}
}

func TestClipSegment(t *testing.T) {
	plane := Plane{Normal: math3d.V3(1, 0, 0), D: -1} // x >= 1

	tests := []struct {
		name   string
		a, b   math3d.Vec3
		ok     bool
		ca, cb math3d.Vec3
		t0, t1 float64
	}{
		{"all in front", math3d.V3(2, 0, 0), math3d.V3(3, 1, 0), true, math3d.V3(2, 0, 0), math3d.V3(3, 1, 0), 0, 1},
		{"all behind", math3d.V3(0, 0, 0), math3d.V3(-3, 1, 0), false, math3d.Vec3{}, math3d.Vec3{}, 0, 0},
		{"enters", math3d.V3(0, 0, 0), math3d.V3(4, 4, 0), true, math3d.V3(1, 1, 0), math3d.V3(4, 4, 0), 0.25, 1},
		{"leaves", math3d.V3(3, 0, 2), math3d.V3(-1, 0, 2), true, math3d.V3(3, 0, 2), math3d.V3(1, 0, 2), 0, 0.5},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ca, cb, t0, t1, ok := plane.ClipSegment(tc.a, tc.b)
			require.Equal(t, tc.ok, ok)
			if !ok {
				return
			}
			assert.True(t, ca.ApproxEqual(tc.ca, tol), "ca = %v", ca)
			assert.True(t, cb.ApproxEqual(tc.cb, tol), "cb = %v", cb)
			assert.InDelta(t, tc.t0, t0, tol)
			assert.InDelta(t, tc.t1, t1, tol)
		})
	}
}

func TestClipPolygon(t *testing.T) {
	plane := Plane{Normal: math3d.V3(1, 0, 0), D: -1} // x >= 1
	tri := func(a, b, c math3d.Vec3) []math3d.Vec3 { return []math3d.Vec3{a, b, c} }

	t.Run("unclipped", func(t *testing.T) {
		in := tri(math3d.V3(2, 0, 0), math3d.V3(3, 0, 0), math3d.V3(2, 1, 0))
		assert.Equal(t, in, plane.ClipPolygon(in))
	})

	t.Run("fully behind", func(t *testing.T) {
		assert.Nil(t, plane.ClipPolygon(tri(math3d.V3(0, 0, 0), math3d.V3(0.5, 0, 0), math3d.V3(0, 1, 0))))
	})

	t.Run("one corner behind gives a quad", func(t *testing.T) {
		got := plane.ClipPolygon(tri(math3d.V3(0, 0, 0), math3d.V3(2, 0, 0), math3d.V3(2, 2, 0)))
		require.Len(t, got, 4)
		for _, p := range got {
			assert.GreaterOrEqual(t, p.X, 1-tol)
		}
	})

	t.Run("two corners behind gives a triangle", func(t *testing.T) {
		got := plane.ClipPolygon(tri(math3d.V3(0, 0, 0), math3d.V3(3, 0, 0), math3d.V3(0, 3, 0)))
		require.Len(t, got, 3)
		for _, p := range got {
			assert.GreaterOrEqual(t, p.X, 1-tol)
		}
	})
}

func TestAABBInFrontOf(t *testing.T) {
	m := models.NewMesh("tri")
	m.AddVertex(math3d.V3(2, 0, 0))
	m.AddVertex(math3d.V3(3, 1, 0))
	m.AddVertex(math3d.V3(2, 1, 1))
	_, err := m.AddFace(0, 1, 2)
	require.NoError(t, err)
	m.Lock()
	box := BoundsOf(m)

	assert.True(t, box.InFrontOf(Plane{Normal: math3d.V3(1, 0, 0), D: -1}))
	assert.True(t, box.InFrontOf(Plane{Normal: math3d.V3(1, 0, 0), D: -2.5}), "straddling")
	assert.False(t, box.InFrontOf(Plane{Normal: math3d.V3(1, 0, 0), D: -4}))
	assert.False(t, box.InFrontOf(Plane{Normal: math3d.V3(-1, 0, 0), D: 1}))
}

func TestRectOverlaps(t *testing.T) {
	r := RectOf(math3d.V2(0, 0), math3d.V2(2, 1))
	assert.Equal(t, math3d.V2(0, 0), r.Min)
	assert.Equal(t, math3d.V2(2, 1), r.Max)

	assert.True(t, r.Overlaps(RectOf(math3d.V2(1, 0.5), math3d.V2(3, 3))))
	assert.True(t, r.Overlaps(RectOf(math3d.V2(2, 1), math3d.V2(3, 3))), "touching corners")
	assert.False(t, r.Overlaps(RectOf(math3d.V2(2.1, 0), math3d.V2(3, 1))))
	assert.False(t, r.Overlaps(RectOf(math3d.V2(0, -2), math3d.V2(2, -0.5))))
}
