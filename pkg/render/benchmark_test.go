package render

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/taigrr/flipbook/pkg/math3d"
	"github.com/taigrr/flipbook/pkg/models"
	"github.com/taigrr/flipbook/pkg/scene"
)

// sphereMesh builds a sphere without its polar caps, 2*(rings-2)*segs
// triangles.
func sphereMesh(b *testing.B, rings, segs int) *models.Mesh {
	b.Helper()
	m := models.NewMesh("sphere")
	for r := 1; r < rings; r++ {
		lat := math.Pi * (float64(r)/float64(rings) - 0.5)
		for s := 0; s < segs; s++ {
			dir := math3d.V2(math.Cos(lat), 0).Rotate(2 * math.Pi * float64(s) / float64(segs))
			m.AddVertex(dir.Vec3(math.Sin(lat)))
		}
	}
	at := func(r, s int) models.VertexIndex { return models.VertexIndex((r-1)*segs + s%segs) }
	for r := 1; r < rings-1; r++ {
		for s := 0; s < segs; s++ {
			if err := m.AddPolygon([]models.VertexIndex{at(r, s), at(r, s+1), at(r+1, s+1), at(r+1, s)}); err != nil {
				b.Fatal(err)
			}
		}
	}
	if err := m.Finish(); err != nil {
		b.Fatal(err)
	}
	return m
}

func benchWalkThru(b *testing.B, count int) (*Renderer, *scene.WalkThru) {
	b.Helper()
	lib := models.NewLibrary()
	if _, err := lib.Add("sphere", sphereMesh(b, 12, 16)); err != nil {
		b.Fatal(err)
	}

	rng := rand.New(rand.NewSource(42))
	w := scene.New(scene.DefaultBounds())
	for range count {
		pos := math3d.V3(0.3+rng.Float64()*2.8, rng.Float64()*1.6-0.8, 0)
		p := scene.NewPlacement(0, "sphere", pos, w.Bounds)
		p.Resize(0.15, w.Bounds)
		w.AddPlacement(p)
	}
	w.AddShot(scene.NewShot(math3d.V3(0.1, 0.5, 0), math3d.V3(1, -0.3, 0)))
	w.AddShot(scene.NewShot(math3d.V3(0.1, -0.5, 0), math3d.V3(1, 0.3, 0)))
	return NewRenderer(lib), w
}

// BenchmarkRenderShot measures one page of a cluttered scene.
func BenchmarkRenderShot(b *testing.B) {
	r, w := benchWalkThru(b, 12)
	objects, err := r.BuildObjects(w)
	if err != nil {
		b.Fatal(err)
	}
	shot, _ := w.Shot(0)

	b.ResetTimer()
	for b.Loop() {
		_ = r.RenderShot(shot, objects)
	}
}

// BenchmarkRender measures a whole walk-through rendered concurrently.
func BenchmarkRender(b *testing.B) {
	r, w := benchWalkThru(b, 12)
	ctx := context.Background()

	b.ResetTimer()
	for b.Loop() {
		if _, err := r.Render(ctx, w); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkResolverVisible measures one edge against a crowd of occluders.
func BenchmarkResolverVisible(b *testing.B) {
	rng := rand.New(rand.NewSource(7))
	occluders := make([]Occluder, 500)
	for i := range occluders {
		c := math3d.V2(rng.Float64()*4-2, rng.Float64()*4-2)
		occluders[i] = NewOccluder(
			[3]math3d.Vec2{c, c.Add(math3d.V2(0.3, 0)), c.Add(math3d.V2(0, 0.3))},
			[3]float64{1 + rng.Float64(), 1 + rng.Float64(), 1 + rng.Float64()},
			i, 0,
		)
	}
	r := NewResolver(occluders, DefaultDepthEpsilon)
	edge := EdgeImage{
		A: math3d.V2(-2, -1), B: math3d.V2(2, 1),
		DepthA: 1.5, DepthB: 2.5,
		Object: -1,
		Faces:  [2]models.FaceIndex{0, models.NoFace},
	}

	for b.Loop() {
		_ = r.Visible(edge)
	}
}
