package render

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/taigrr/flipbook/pkg/math3d"
	"github.com/taigrr/flipbook/pkg/models"
	"github.com/taigrr/flipbook/pkg/scene"
)

// SceneObject is a library mesh cloned into scene coordinates for one
// placement. It lives for a single render.
type SceneObject struct {
	Placement scene.Placement
	Mesh      *models.Mesh
}

// Renderer turns walk-throughs into pages.
type Renderer struct {
	lib          *models.Library
	depthEpsilon float64
	nearDepth    float64
	layout       PageLayout
	workers      int
	log          *zap.Logger
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithDepthEpsilon sets the relative depth margin for hiding an edge.
func WithDepthEpsilon(eps float64) Option {
	return func(r *Renderer) { r.depthEpsilon = eps }
}

// WithNearDepth sets the depth of the near clipping plane.
func WithNearDepth(near float64) Option {
	return func(r *Renderer) {
		if near > 0 {
			r.nearDepth = near
		}
	}
}

// WithPageLayout sets how the image plane maps onto a page.
func WithPageLayout(l PageLayout) Option {
	return func(r *Renderer) { r.layout = l }
}

// WithWorkers bounds the number of shots rendered at once.
func WithWorkers(n int) Option {
	return func(r *Renderer) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(log *zap.Logger) Option {
	return func(r *Renderer) {
		if log != nil {
			r.log = log
		}
	}
}

// NewRenderer creates a renderer drawing objects from lib.
func NewRenderer(lib *models.Library, opts ...Option) *Renderer {
	r := &Renderer{
		lib:          lib,
		depthEpsilon: DefaultDepthEpsilon,
		nearDepth:    DefaultNearDepth,
		layout:       DefaultPageLayout(),
		workers:      runtime.NumCPU(),
		log:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Layout returns the page layout in use.
func (r *Renderer) Layout() PageLayout {
	return r.layout
}

// BuildObjects clones the library mesh of every placement in wt into scene
// coordinates, in placement order.
func (r *Renderer) BuildObjects(wt *scene.WalkThru) ([]SceneObject, error) {
	placements := wt.Placements()
	objects := make([]SceneObject, 0, len(placements))
	for i, p := range placements {
		src, ok := r.lib.Mesh(p.Object)
		if !ok {
			return nil, fmt.Errorf("placement %d (%s): %w", i, p.Name, models.ErrUnknownObject)
		}
		xf := p.Matrix()
		m, err := src.Clone(fmt.Sprintf("%s#%d", p.Name, i), xf.MulVec3)
		if err != nil {
			return nil, fmt.Errorf("placement %d (%s): %w", i, p.Name, err)
		}
		objects = append(objects, SceneObject{Placement: p, Mesh: m})
	}
	return objects, nil
}

// RenderShot draws the objects as seen from shot: every edge with the parts
// hidden by faces removed, plus a dot on each visible vertex.
func (r *Renderer) RenderShot(shot scene.Shot, objects []SceneObject) Page {
	cam := CameraForShot(shot)
	near := cam.NearPlane(r.nearDepth)
	resolver := NewResolver(r.occluders(cam, near, objects), r.depthEpsilon)

	type vertexKey struct {
		object int
		vertex models.VertexIndex
	}
	var page Page
	seen := make(map[vertexKey]bool)
	dot := func(object int, v models.VertexIndex, p math3d.Vec2) {
		k := vertexKey{object, v}
		if seen[k] {
			return
		}
		seen[k] = true
		page.Dots = append(page.Dots, r.layout.ToPage(p))
	}

	for oi, obj := range objects {
		if !BoundsOf(obj.Mesh).InFrontOf(near) {
			continue
		}
		for _, e := range obj.Mesh.Edges() {
			a, b, t0, t1, ok := near.ClipSegment(obj.Mesh.Position(e.Source), obj.Mesh.Position(e.Target))
			if !ok {
				continue
			}
			// Points on or past the near plane are projected without the
			// near test; their depth is at least the near depth.
			pa, pb := cam.Project(a, 0), cam.Project(b, 0)
			img := EdgeImage{
				A: pa.Point, B: pb.Point,
				DepthA: pa.Depth, DepthB: pb.Depth,
				Object: oi,
				Faces:  [2]models.FaceIndex{e.Face, e.Twin},
			}
			for _, iv := range resolver.Visible(img) {
				sa, sb := img.A.Lerp(img.B, iv.T0), img.A.Lerp(img.B, iv.T1)
				page.Segments = append(page.Segments, Segment{
					A: r.layout.ToPage(sa),
					B: r.layout.ToPage(sb),
				})
				if iv.T0 == 0 && t0 == 0 {
					dot(oi, e.Source, img.A)
				}
				if iv.T1 == 1 && t1 == 1 {
					dot(oi, e.Target, img.B)
				}
			}
		}
	}
	return page
}

// occluders projects every face in front of the near plane, fanning the
// clipped polygons back into triangles.
func (r *Renderer) occluders(cam SceneCamera, near Plane, objects []SceneObject) []Occluder {
	var out []Occluder
	for oi, obj := range objects {
		if !BoundsOf(obj.Mesh).InFrontOf(near) {
			continue
		}
		for fi, f := range obj.Mesh.Faces() {
			corners := []math3d.Vec3{
				obj.Mesh.Position(f.V[0]),
				obj.Mesh.Position(f.V[1]),
				obj.Mesh.Position(f.V[2]),
			}
			poly := near.ClipPolygon(corners)
			if poly == nil {
				continue
			}
			proj := make([]Projection, len(poly))
			for i, p := range poly {
				proj[i] = cam.Project(p, 0)
			}
			for i := 1; i+1 < len(proj); i++ {
				out = append(out, NewOccluder(
					[3]math3d.Vec2{proj[0].Point, proj[i].Point, proj[i+1].Point},
					[3]float64{proj[0].Depth, proj[i].Depth, proj[i+1].Depth},
					oi, models.FaceIndex(fi),
				))
			}
		}
	}
	return out
}

// Render draws every shot of wt, returning the pages in shot order. The
// walk-through is snapshotted first so it may be edited meanwhile.
func (r *Renderer) Render(ctx context.Context, wt *scene.WalkThru) ([]Page, error) {
	snap := wt.Snapshot()
	objects, err := r.BuildObjects(snap)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	shots := snap.Shots()
	pages := make([]Page, len(shots))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, shot := range shots {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			page := r.RenderShot(shot, objects)
			page.Index = i
			pages[i] = page
			r.log.Debug("rendered shot",
				zap.Int("shot", i),
				zap.Int("segments", len(page.Segments)),
				zap.Int("dots", len(page.Dots)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	r.log.Info("rendered walk-through",
		zap.Int("pages", len(pages)),
		zap.Int("objects", len(objects)),
		zap.Duration("elapsed", time.Since(start)))
	return pages, nil
}

// RenderTo renders wt and hands the pages to sink in shot order.
func (r *Renderer) RenderTo(ctx context.Context, wt *scene.WalkThru, sink PageSink) error {
	pages, err := r.Render(ctx, wt)
	if err != nil {
		return err
	}
	for _, p := range pages {
		if err := sink.WritePage(p); err != nil {
			return fmt.Errorf("page %d: %w", p.Index, err)
		}
	}
	return nil
}
