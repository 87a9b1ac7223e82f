package scene

import (
	"errors"
	"fmt"

	"github.com/taigrr/flipbook/pkg/math3d"
)

const (
	// ShotSelectRadius is how close a floor point must be to a shot to
	// select it.
	ShotSelectRadius = 0.2
	// ShotMaxX keeps the camera out of the deepest part of the floor.
	ShotMaxX = 3.0
)

var (
	// ErrLastShot is returned when removing the only shot.
	ErrLastShot = errors.New("a walk-through needs at least one shot")
	// ErrNoSuchShot is returned for a shot index out of range.
	ErrNoSuchShot = errors.New("no such shot")
	// ErrNoSuchPlacement is returned for a placement index out of range.
	ErrNoSuchPlacement = errors.New("no such placement")
)

// Shot is a camera standing on the floor looking horizontally.
type Shot struct {
	Position  math3d.Vec3 // Z is always 0
	Direction math3d.Vec3 // unit, Z is always 0
}

// NewShot places a camera at position looking along direction. Both are
// flattened onto the floor; a vertical direction becomes +X.
func NewShot(position, direction math3d.Vec3) Shot {
	return Shot{
		Position:  position.Floor(),
		Direction: direction.Floor().Unit(),
	}
}

// Pan turns the camera counter-clockwise by angle radians.
func (s *Shot) Pan(angle float64) {
	s.Direction = s.Direction.XY().Rotate(angle).Unit().Vec3(0)
}

// Heading returns the viewing direction in radians from +X.
func (s Shot) Heading() float64 {
	return s.Direction.XY().Angle()
}

// WalkThru is an ordered camera path through a set of placements. It always
// holds at least one shot.
type WalkThru struct {
	Bounds     Bounds
	shots      []Shot
	placements []Placement
}

// New returns a walk-through with one shot at the origin looking along +X.
func New(b Bounds) *WalkThru {
	return &WalkThru{
		Bounds: b,
		shots:  []Shot{NewShot(math3d.Zero3(), math3d.Forward())},
	}
}

// Shots returns a copy of the shot sequence.
func (w *WalkThru) Shots() []Shot {
	return append([]Shot(nil), w.shots...)
}

// Shot returns shot i.
func (w *WalkThru) Shot(i int) (Shot, bool) {
	if i < 0 || i >= len(w.shots) {
		return Shot{}, false
	}
	return w.shots[i], true
}

// ShotCount returns the number of shots.
func (w *WalkThru) ShotCount() int {
	return len(w.shots)
}

// AddShot appends a shot and returns its index.
func (w *WalkThru) AddShot(s Shot) int {
	w.shots = append(w.shots, NewShot(s.Position, s.Direction))
	return len(w.shots) - 1
}

// SetShots replaces the shot sequence. An empty sequence resets to the
// default shot.
func (w *WalkThru) SetShots(shots []Shot) {
	w.shots = w.shots[:0]
	for _, s := range shots {
		w.AddShot(s)
	}
	if len(w.shots) == 0 {
		w.AddShot(NewShot(math3d.Zero3(), math3d.Forward()))
	}
}

// UpdateShot replaces shot i.
func (w *WalkThru) UpdateShot(i int, s Shot) error {
	if i < 0 || i >= len(w.shots) {
		return fmt.Errorf("shot %d: %w", i, ErrNoSuchShot)
	}
	w.shots[i] = NewShot(s.Position, s.Direction)
	return nil
}

// MoveShot relocates shot i, keeping the camera at x <= ShotMaxX.
func (w *WalkThru) MoveShot(i int, p math3d.Vec3) error {
	if i < 0 || i >= len(w.shots) {
		return fmt.Errorf("shot %d: %w", i, ErrNoSuchShot)
	}
	p.X = min(p.X, ShotMaxX)
	w.shots[i].Position = p.Floor()
	return nil
}

// RemoveShot deletes shot i and returns the index of the shot that takes
// its place in a selection. The last remaining shot cannot be removed.
func (w *WalkThru) RemoveShot(i int) (int, error) {
	if i < 0 || i >= len(w.shots) {
		return 0, fmt.Errorf("shot %d: %w", i, ErrNoSuchShot)
	}
	if len(w.shots) == 1 {
		return 0, ErrLastShot
	}
	w.shots = append(w.shots[:i], w.shots[i+1:]...)
	return min(i, len(w.shots)-1), nil
}

// ShotNear returns the index of the first shot within ShotSelectRadius of p.
func (w *WalkThru) ShotNear(p math3d.Vec3) (int, bool) {
	for i, s := range w.shots {
		if s.Position.Dist(p.Floor()) < ShotSelectRadius {
			return i, true
		}
	}
	return -1, false
}

// NextShot returns the index after i, stopping at the last shot.
func (w *WalkThru) NextShot(i int) int {
	return max(0, min(i+1, len(w.shots)-1))
}

// PrevShot returns the index before i, stopping at the first shot.
func (w *WalkThru) PrevShot(i int) int {
	return max(0, min(i-1, len(w.shots)-1))
}

// Placements returns a copy of the placements.
func (w *WalkThru) Placements() []Placement {
	return append([]Placement(nil), w.placements...)
}

// Placement returns placement i.
func (w *WalkThru) Placement(i int) (Placement, bool) {
	if i < 0 || i >= len(w.placements) {
		return Placement{}, false
	}
	return w.placements[i], true
}

// AddPlacement appends a placement and returns its index. The placement
// is re-clamped against the walk-through bounds.
func (w *WalkThru) AddPlacement(p Placement) int {
	w.placements = append(w.placements, p.clampedTo(w.Bounds))
	return len(w.placements) - 1
}

// UpdatePlacement replaces placement i, re-clamped against the bounds.
func (w *WalkThru) UpdatePlacement(i int, p Placement) error {
	if i < 0 || i >= len(w.placements) {
		return fmt.Errorf("placement %d: %w", i, ErrNoSuchPlacement)
	}
	w.placements[i] = p.clampedTo(w.Bounds)
	return nil
}

// RemovePlacement deletes placement i.
func (w *WalkThru) RemovePlacement(i int) error {
	if i < 0 || i >= len(w.placements) {
		return fmt.Errorf("placement %d: %w", i, ErrNoSuchPlacement)
	}
	w.placements = append(w.placements[:i], w.placements[i+1:]...)
	return nil
}

// PlacementAt returns the index of the topmost (most recently added)
// placement whose footprint contains p.
func (w *WalkThru) PlacementAt(p math3d.Vec3) (int, bool) {
	for i := len(w.placements) - 1; i >= 0; i-- {
		if w.placements[i].BaseIncludes(p.Floor()) {
			return i, true
		}
	}
	return -1, false
}

// Snapshot returns an independent copy, safe to render while w
// keeps being edited.
func (w *WalkThru) Snapshot() *WalkThru {
	return &WalkThru{
		Bounds:     w.Bounds,
		shots:      w.Shots(),
		placements: w.Placements(),
	}
}
