// Package models builds triangular surface meshes from model files and keeps
// a library of them for placement in a scene.
package models

import (
	"errors"
	"fmt"
	"math"

	"github.com/taigrr/flipbook/pkg/math3d"
)

var (
	// ErrLocked is the panic value for mutating a locked mesh.
	ErrLocked = errors.New("mesh is locked")
	// ErrNotLocked is returned when a locked mesh is required.
	ErrNotLocked = errors.New("mesh is not locked")
	// ErrNonManifold is returned when an edge would gain a third face.
	ErrNonManifold = errors.New("edge already joins two faces")
	// ErrIndexOutOfRange is returned when a face names a missing vertex.
	ErrIndexOutOfRange = errors.New("vertex index out of range")
	// ErrDegenerateFace is returned when a face repeats a vertex.
	ErrDegenerateFace = errors.New("face repeats a vertex")
	// ErrDegenerateMesh is returned when a mesh cannot be normalized.
	ErrDegenerateMesh = errors.New("mesh has no horizontal extent")
)

// VertexIndex identifies a vertex within its mesh.
type VertexIndex int

// FaceIndex identifies a face within its mesh topology.
type FaceIndex int

// EdgeIndex identifies an edge within its mesh topology.
type EdgeIndex int

// NoFace marks the missing twin of a boundary edge.
const NoFace FaceIndex = -1

// Vertex is a corner of the surface.
type Vertex struct {
	ID       VertexIndex
	Position math3d.Vec3
	Normal   math3d.Vec3 // average of incident face normals, set on Lock
}

// Face is a triangle with counter-clockwise vertex order.
type Face struct {
	V [3]VertexIndex
}

// Has reports whether vi is a corner of f.
func (f Face) Has(vi VertexIndex) bool {
	return f.V[0] == vi || f.V[1] == vi || f.V[2] == vi
}

// EdgeKey is the canonical name of an undirected edge.
type EdgeKey struct {
	Lo, Hi VertexIndex
}

// EdgeKeyOf returns the key for the edge between a and b in either order.
func EdgeKeyOf(a, b VertexIndex) EdgeKey {
	if a > b {
		a, b = b, a
	}
	return EdgeKey{Lo: a, Hi: b}
}

// Edge is a face boundary or the hinge between two faces.
type Edge struct {
	ID     EdgeIndex
	Source VertexIndex
	Target VertexIndex
	Face   FaceIndex // face that created the edge
	Twin   FaceIndex // second face on a hinge, NoFace on a boundary
}

// Key returns the canonical key of the edge.
func (e Edge) Key() EdgeKey {
	return EdgeKeyOf(e.Source, e.Target)
}

// IsBoundary reports whether the edge borders only one face.
func (e Edge) IsBoundary() bool {
	return e.Twin == NoFace
}

// Faces returns the one or two faces the edge belongs to.
func (e Edge) Faces() []FaceIndex {
	if e.Twin == NoFace {
		return []FaceIndex{e.Face}
	}
	return []FaceIndex{e.Face, e.Twin}
}

// HasFace reports whether f is one of the edge's faces.
func (e Edge) HasFace(f FaceIndex) bool {
	return e.Face == f || (e.Twin != NoFace && e.Twin == f)
}

// Topology is the connectivity of a mesh. Once the owning mesh is locked it
// is never written again and is shared by every clone.
type Topology struct {
	faces   []Face
	edges   []Edge
	edgeMap map[EdgeKey]EdgeIndex
}

func newTopology() *Topology {
	return &Topology{edgeMap: make(map[EdgeKey]EdgeIndex)}
}

// Mesh is a triangular surface: vertices it owns plus a topology.
// A mesh is mutable until Lock; afterwards it is read-only and safe for
// concurrent readers.
type Mesh struct {
	Name string

	vertices []Vertex
	topo     *Topology
	normals  []math3d.Vec3 // per face, set on Lock
	locked   bool

	boundsMin math3d.Vec3
	boundsMax math3d.Vec3
}

// NewMesh creates an empty, unlocked mesh.
func NewMesh(name string) *Mesh {
	return &Mesh{
		Name:     name,
		vertices: make([]Vertex, 0),
		topo:     newTopology(),
	}
}

func (m *Mesh) mustBeUnlocked() {
	if m.locked {
		panic(fmt.Errorf("%s: %w", m.Name, ErrLocked))
	}
}

// AddVertex appends a vertex and returns its index.
// It panics with ErrLocked if the mesh is locked.
func (m *Mesh) AddVertex(p math3d.Vec3) VertexIndex {
	m.mustBeUnlocked()
	vi := VertexIndex(len(m.vertices))
	m.vertices = append(m.vertices, Vertex{ID: vi, Position: p})
	return vi
}

// AddFace appends the triangle (a, b, c) and records its three edges.
// A face that would give some edge a third face is rejected and leaves the
// mesh unchanged. It panics with ErrLocked if the mesh is locked.
func (m *Mesh) AddFace(a, b, c VertexIndex) (FaceIndex, error) {
	m.mustBeUnlocked()
	n := VertexIndex(len(m.vertices))
	for _, vi := range [3]VertexIndex{a, b, c} {
		if vi < 0 || vi >= n {
			return NoFace, fmt.Errorf("face (%d %d %d): vertex %d: %w", a, b, c, vi, ErrIndexOutOfRange)
		}
	}
	if a == b || b == c || c == a {
		return NoFace, fmt.Errorf("face (%d %d %d): %w", a, b, c, ErrDegenerateFace)
	}

	sides := [3][2]VertexIndex{{a, b}, {b, c}, {c, a}}
	for _, s := range sides {
		if ei, ok := m.topo.edgeMap[EdgeKeyOf(s[0], s[1])]; ok && m.topo.edges[ei].Twin != NoFace {
			return NoFace, fmt.Errorf("face (%d %d %d): edge %d-%d: %w", a, b, c, s[0], s[1], ErrNonManifold)
		}
	}

	fi := FaceIndex(len(m.topo.faces))
	m.topo.faces = append(m.topo.faces, Face{V: [3]VertexIndex{a, b, c}})
	for _, s := range sides {
		m.addEdge(s[0], s[1], fi)
	}
	return fi, nil
}

// AddPolygon adds a convex polygon as a fan of triangles sharing its first
// corner. Concave or strongly non-planar polygons triangulate incorrectly.
func (m *Mesh) AddPolygon(vs []VertexIndex) error {
	if len(vs) < 3 {
		return fmt.Errorf("polygon with %d corners: %w", len(vs), ErrDegenerateFace)
	}
	for i := 1; i < len(vs)-1; i++ {
		if _, err := m.AddFace(vs[0], vs[i], vs[i+1]); err != nil {
			return err
		}
	}
	return nil
}

func (m *Mesh) addEdge(a, b VertexIndex, f FaceIndex) {
	key := EdgeKeyOf(a, b)
	if ei, ok := m.topo.edgeMap[key]; ok {
		m.topo.edges[ei].Twin = f
		return
	}
	ei := EdgeIndex(len(m.topo.edges))
	m.topo.edges = append(m.topo.edges, Edge{ID: ei, Source: a, Target: b, Face: f, Twin: NoFace})
	m.topo.edgeMap[key] = ei
}

// Recenter translates the vertices so the center of their bounding box is
// at the origin.
func (m *Mesh) Recenter() {
	m.mustBeUnlocked()
	if len(m.vertices) == 0 {
		return
	}
	m.calculateBounds()
	center := m.Center()
	for i := range m.vertices {
		m.vertices[i].Position = m.vertices[i].Position.Sub(center)
	}
}

// RegirthAndSeat lifts the mesh so its lowest point sits at z = 0 and then
// scales it uniformly so the vertex farthest from the z axis is at
// horizontal distance 1.
func (m *Mesh) RegirthAndSeat() error {
	m.mustBeUnlocked()
	radius2 := 0.0
	bottom := math.MaxFloat64
	for _, v := range m.vertices {
		p := v.Position
		radius2 = math.Max(radius2, p.X*p.X+p.Y*p.Y)
		bottom = math.Min(bottom, p.Z)
	}
	radius := math.Sqrt(radius2)
	if radius < math3d.Epsilon {
		return fmt.Errorf("%s: %w", m.Name, ErrDegenerateMesh)
	}
	seat := math3d.V3(0, 0, bottom)
	for i := range m.vertices {
		m.vertices[i].Position = m.vertices[i].Position.Sub(seat).Div(radius)
	}
	return nil
}

// Finish normalizes a freshly read mesh and locks it: the bounding box is
// centered, the base seated on z = 0, and the horizontal radius scaled to 1.
func (m *Mesh) Finish() error {
	m.Recenter()
	if err := m.RegirthAndSeat(); err != nil {
		return err
	}
	m.Lock()
	return nil
}

// Lock freezes the mesh. Face normals, vertex normals and bounds are
// computed once here. Locking twice is a no-op.
func (m *Mesh) Lock() {
	if m.locked {
		return
	}
	m.calculateNormals()
	m.calculateBounds()
	m.locked = true
}

// Locked reports whether the mesh is read-only.
func (m *Mesh) Locked() bool {
	return m.locked
}

func (m *Mesh) calculateBounds() {
	if len(m.vertices) == 0 {
		m.boundsMin, m.boundsMax = math3d.Zero3(), math3d.Zero3()
		return
	}
	m.boundsMin = m.vertices[0].Position
	m.boundsMax = m.vertices[0].Position
	for _, v := range m.vertices[1:] {
		m.boundsMin = m.boundsMin.Min(v.Position)
		m.boundsMax = m.boundsMax.Max(v.Position)
	}
}

// calculateNormals sets the unit normal of every face and the averaged
// normal of every vertex. Vertex sums are area weighted.
func (m *Mesh) calculateNormals() {
	m.normals = make([]math3d.Vec3, len(m.topo.faces))
	sums := make([]math3d.Vec3, len(m.vertices))
	for i, f := range m.topo.faces {
		v0 := m.vertices[f.V[0]].Position
		v1 := m.vertices[f.V[1]].Position
		v2 := m.vertices[f.V[2]].Position
		n := v1.Sub(v0).Cross(v2.Sub(v0))
		m.normals[i] = n.Unit()
		for _, vi := range f.V {
			sums[vi] = sums[vi].Add(n)
		}
	}
	for i := range m.vertices {
		m.vertices[i].Normal = sums[i].Unit()
	}
}

// Clone returns a locked copy of a locked mesh with every position passed
// through xf. The copy shares the topology of m.
func (m *Mesh) Clone(name string, xf func(math3d.Vec3) math3d.Vec3) (*Mesh, error) {
	if !m.locked {
		return nil, fmt.Errorf("clone %s: %w", m.Name, ErrNotLocked)
	}
	c := &Mesh{
		Name:     name,
		vertices: make([]Vertex, len(m.vertices)),
		topo:     m.topo,
	}
	for i, v := range m.vertices {
		c.vertices[i] = Vertex{ID: v.ID, Position: xf(v.Position)}
	}
	c.Lock()
	return c, nil
}

// SharesTopology reports whether m and o were cloned from the same mesh.
func (m *Mesh) SharesTopology(o *Mesh) bool {
	return m.topo == o.topo
}

// Vertex returns vertex i.
func (m *Mesh) Vertex(i VertexIndex) (Vertex, bool) {
	if i < 0 || int(i) >= len(m.vertices) {
		return Vertex{}, false
	}
	return m.vertices[i], true
}

// Position returns the position of vertex i, or the origin if i is out of
// range.
func (m *Mesh) Position(i VertexIndex) math3d.Vec3 {
	v, _ := m.Vertex(i)
	return v.Position
}

// Face returns face i.
func (m *Mesh) Face(i FaceIndex) (Face, bool) {
	if i < 0 || int(i) >= len(m.topo.faces) {
		return Face{}, false
	}
	return m.topo.faces[i], true
}

// FaceNormal returns the unit normal of face i. Normals exist only once the
// mesh is locked.
func (m *Mesh) FaceNormal(i FaceIndex) (math3d.Vec3, bool) {
	if i < 0 || int(i) >= len(m.normals) {
		return math3d.Vec3{}, false
	}
	return m.normals[i], true
}

// Edge returns edge i.
func (m *Mesh) Edge(i EdgeIndex) (Edge, bool) {
	if i < 0 || int(i) >= len(m.topo.edges) {
		return Edge{}, false
	}
	return m.topo.edges[i], true
}

// EdgeBetween returns the edge joining a and b, in either order.
func (m *Mesh) EdgeBetween(a, b VertexIndex) (Edge, bool) {
	ei, ok := m.topo.edgeMap[EdgeKeyOf(a, b)]
	if !ok {
		return Edge{}, false
	}
	return m.topo.edges[ei], true
}

// Vertices returns the vertices. The slice must not be modified.
func (m *Mesh) Vertices() []Vertex {
	return m.vertices
}

// Faces returns the faces. The slice must not be modified.
func (m *Mesh) Faces() []Face {
	return m.topo.faces
}

// Edges returns the edges. The slice must not be modified.
func (m *Mesh) Edges() []Edge {
	return m.topo.edges
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.vertices)
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.topo.faces)
}

// EdgeCount returns the number of edges.
func (m *Mesh) EdgeCount() int {
	return len(m.topo.edges)
}

// BoundaryEdgeCount returns the number of edges with a single face. It is
// zero for a closed surface.
func (m *Mesh) BoundaryEdgeCount() int {
	n := 0
	for _, e := range m.topo.edges {
		if e.IsBoundary() {
			n++
		}
	}
	return n
}

// Bounds returns the axis-aligned bounding box as of the last Lock.
func (m *Mesh) Bounds() (lo, hi math3d.Vec3) {
	return m.boundsMin, m.boundsMax
}

// Center returns the center of the bounding box.
func (m *Mesh) Center() math3d.Vec3 {
	return m.boundsMin.Add(m.boundsMax).Scale(0.5)
}

// Size returns the dimensions of the bounding box.
func (m *Mesh) Size() math3d.Vec3 {
	return m.boundsMax.Sub(m.boundsMin)
}
