package scene

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/taigrr/flipbook/pkg/math3d"
	"github.com/taigrr/flipbook/pkg/models"
)

// File is the on-disk form of a walk-through.
type File struct {
	Bounds     *Bounds         `yaml:"bounds,omitempty"`
	Shots      []ShotSpec      `yaml:"shots"`
	Placements []PlacementSpec `yaml:"placements"`
}

// ShotSpec is a shot as written in a scene file.
type ShotSpec struct {
	Position  [2]float64 `yaml:"position,flow"`
	Direction [2]float64 `yaml:"direction,flow"`
}

// PlacementSpec is a placement as written in a scene file. Objects are
// referred to by library name.
type PlacementSpec struct {
	Object      string     `yaml:"object"`
	Position    [2]float64 `yaml:"position,flow"`
	Scale       float64    `yaml:"scale"`
	Orientation float64    `yaml:"orientation"`
}

// Decode reads a scene file, resolving object names in lib. Bounds in the
// file override b. Placements are clamped into the bounds, so a hand-edited
// file cannot put an object partly off the floor.
func Decode(r io.Reader, lib *models.Library, b Bounds) (*WalkThru, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode scene: %w", err)
	}
	if f.Bounds != nil {
		b = *f.Bounds
	}

	w := New(b)
	shots := make([]Shot, 0, len(f.Shots))
	for _, s := range f.Shots {
		shots = append(shots, NewShot(
			math3d.V3(s.Position[0], s.Position[1], 0),
			math3d.V3(s.Direction[0], s.Direction[1], 0),
		))
	}
	w.SetShots(shots)

	for i, ps := range f.Placements {
		h, err := lib.Lookup(ps.Object)
		if err != nil {
			return nil, fmt.Errorf("placement %d: %w", i, err)
		}
		p := NewPlacement(h, ps.Object, math3d.V3(ps.Position[0], ps.Position[1], 0), b)
		p.Resize(ps.Scale, b)
		p.RotateBy(ps.Orientation)
		w.placements = append(w.placements, p)
	}
	return w, nil
}

// LoadFile reads a scene file from disk.
func LoadFile(path string, lib *models.Library, b Bounds) (*WalkThru, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene: %w", err)
	}
	w, err := Decode(bytes.NewReader(data), lib, b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return w, nil
}

// File converts the walk-through to its on-disk form.
func (w *WalkThru) File() File {
	b := w.Bounds
	f := File{
		Bounds:     &b,
		Shots:      make([]ShotSpec, 0, len(w.shots)),
		Placements: make([]PlacementSpec, 0, len(w.placements)),
	}
	for _, s := range w.shots {
		f.Shots = append(f.Shots, ShotSpec{
			Position:  [2]float64{s.Position.X, s.Position.Y},
			Direction: [2]float64{s.Direction.X, s.Direction.Y},
		})
	}
	for _, p := range w.placements {
		f.Placements = append(f.Placements, PlacementSpec{
			Object:      p.Name,
			Position:    [2]float64{p.Position.X, p.Position.Y},
			Scale:       p.Scale,
			Orientation: p.Orientation,
		})
	}
	return f
}

// Encode writes the walk-through as YAML.
func (w *WalkThru) Encode(out io.Writer) error {
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(w.File()); err != nil {
		return fmt.Errorf("encode scene: %w", err)
	}
	return enc.Close()
}

// SaveFile writes the walk-through to path.
func (w *WalkThru) SaveFile(path string) error {
	var buf bytes.Buffer
	if err := w.Encode(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write scene: %w", err)
	}
	return nil
}
