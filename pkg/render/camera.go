// Package render turns a walk-through into flip-book pages: perspective line
// drawings of every placed object with hidden lines removed.
package render

import (
	"errors"

	"github.com/taigrr/flipbook/pkg/math3d"
	"github.com/taigrr/flipbook/pkg/scene"
)

// DefaultNearDepth is the closest depth in front of the camera that is drawn.
// Anything nearer is clipped away before projection.
const DefaultNearDepth = 1e-3

// ErrDegenerateFrame is returned when the viewing direction is parallel to
// the up direction, so no camera frame exists.
var ErrDegenerateFrame = errors.New("camera direction is parallel to up")

// SceneCamera is a pinhole camera with an orthonormal frame. The image plane
// sits at distance 1 along Into. Right × Into points along Up, a left-handed
// frame in which image x grows to the right and image y grows upward.
type SceneCamera struct {
	Center math3d.Vec3
	Right  math3d.Vec3
	Up     math3d.Vec3
	Into   math3d.Vec3
}

// NewSceneCamera builds the frame for a camera at center looking along
// towards, with worldUp giving the upright direction.
func NewSceneCamera(center, towards, worldUp math3d.Vec3) (SceneCamera, error) {
	into := towards.Unit()
	side := into.Cross(worldUp.Unit())
	if side.Len() < math3d.Epsilon {
		return SceneCamera{}, ErrDegenerateFrame
	}
	right := side.Unit()
	return SceneCamera{
		Center: center,
		Right:  right,
		Up:     right.Cross(into),
		Into:   into,
	}, nil
}

// CameraForShot returns the camera of a shot, with +Z as up. Shot directions
// are horizontal, so the frame always exists.
func CameraForShot(s scene.Shot) SceneCamera {
	cam, err := NewSceneCamera(s.Position, s.Direction, math3d.Up())
	if err != nil {
		// A shot direction is a unit floor vector; only a zero value gets here.
		cam, _ = NewSceneCamera(s.Position, math3d.Forward(), math3d.Up())
	}
	return cam
}

// Depth returns the distance of p in front of the camera along Into.
func (c SceneCamera) Depth(p math3d.Vec3) float64 {
	return p.Sub(c.Center).Dot(c.Into)
}

// Projection is a point on the image plane together with its depth.
type Projection struct {
	Point   math3d.Vec2
	Depth   float64
	Visible bool // false when the point is not in front of the near depth
}

// Project maps p through the pinhole onto the image plane. Points with depth
// at or below near are reported not visible and are never divided.
func (c SceneCamera) Project(p math3d.Vec3, near float64) Projection {
	rel := p.Sub(c.Center)
	depth := rel.Dot(c.Into)
	if depth <= near {
		return Projection{Depth: depth}
	}
	// rel/depth lands on the image plane; subtract the plane's center.
	onPlane := rel.Div(depth).Sub(c.Into)
	return Projection{
		Point:   math3d.V2(onPlane.Dot(c.Right), onPlane.Dot(c.Up)),
		Depth:   depth,
		Visible: true,
	}
}

// NearPlane returns the plane depth = near with its normal facing into the
// view, so points in front have positive distance.
func (c SceneCamera) NearPlane(near float64) Plane {
	return Plane{
		Normal: c.Into,
		D:      -(c.Center.Dot(c.Into) + near),
	}
}
