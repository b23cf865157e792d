package world

import (
	"image"
	"image/draw"
	"math"

	"github.com/pkg/errors"
	"golang.org/x/image/vector"

	"assaultwing/wire"
)

// maxMeshSize bounds vertex and triangle counts so both fit the 16-bit
// fields of a wall's constant segment.
const maxMeshSize = math.MaxUint16

var ErrMeshTooLarge = errors.New("wall mesh too large")

// Mesh is a triangle list over shared vertices. A retired triangle is
// collapsed to the index triple 0, 0, 0.
type Mesh struct {
	Vertices  []Vector
	Triangles [][3]int
}

// Validate reports meshes that cannot be replicated.
func (m Mesh) Validate() error {
	if len(m.Vertices) > maxMeshSize || len(m.Triangles) > maxMeshSize {
		return errors.Wrapf(ErrMeshTooLarge, "%d vertices and %d triangles, limit %d", len(m.Vertices), len(m.Triangles), maxMeshSize)
	}
	for i, t := range m.Triangles {
		for _, v := range t {
			if v < 0 || v >= len(m.Vertices) {
				return errors.Errorf("triangle %d references vertex %d of %d", i, v, len(m.Vertices))
			}
		}
	}
	return nil
}

func (m Mesh) clone() Mesh {
	c := Mesh{
		Vertices:  append([]Vector(nil), m.Vertices...),
		Triangles: append([][3]int(nil), m.Triangles...),
	}
	return c
}

func (m Mesh) center() Vector {
	if len(m.Vertices) == 0 {
		return Vector{}
	}
	var sum Vector
	for _, v := range m.Vertices {
		sum = sum.Add(v)
	}
	return sum.Scale(1 / float64(len(m.Vertices)))
}

// GridWall triangulates the rectangle at (x, y) of size w×h into square
// cells of the given size, two triangles per cell.
func GridWall(x, y, w, h, cell float64) Mesh {
	nx := int(math.Max(1, math.Round(w/cell)))
	ny := int(math.Max(1, math.Round(h/cell)))
	sx, sy := w/float64(nx), h/float64(ny)
	var m Mesh
	for j := 0; j <= ny; j++ {
		for i := 0; i <= nx; i++ {
			m.Vertices = append(m.Vertices, Vector{X: x + float64(i)*sx, Y: y + float64(j)*sy})
		}
	}
	at := func(i, j int) int { return j*(nx+1) + i }
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			m.Triangles = append(m.Triangles,
				[3]int{at(i, j), at(i+1, j), at(i+1, j+1)},
				[3]int{at(i, j), at(i+1, j+1), at(i, j+1)},
			)
		}
	}
	return m
}

// Wall is destructible geometry. Only the authoritative side builds the
// index map and computes holes; other peers apply retired triangle lists.
type Wall struct {
	Mesh Mesh

	live    []bool
	retired int

	// index map: one cell per world unit, each listing the triangles that
	// cover it. covers counts the cells still referencing each triangle.
	origin image.Point
	size   image.Point
	cells  [][]int
	covers []int
}

func NewWall(m Mesh) *Wall {
	w := &Wall{
		Mesh: m.clone(),
		live: make([]bool, len(m.Triangles)),
	}
	for i, t := range w.Mesh.Triangles {
		if t == [3]int{} {
			w.retired++
			continue
		}
		w.live[i] = true
	}
	return w
}

func (w *Wall) Len() int {
	return len(w.Mesh.Triangles)
}

// Remaining is the number of triangles not yet retired.
func (w *Wall) Remaining() int {
	return len(w.Mesh.Triangles) - w.retired
}

// Triangles returns the corners of every live triangle in index order.
func (w *Wall) Triangles() [][3]Vector {
	ts := make([][3]Vector, 0, w.Remaining())
	for i, t := range w.Mesh.Triangles {
		if !w.live[i] {
			continue
		}
		ts = append(ts, w.corners(t))
	}
	return ts
}

func (w *Wall) corners(t [3]int) [3]Vector {
	return [3]Vector{w.Mesh.Vertices[t[0]], w.Mesh.Vertices[t[1]], w.Mesh.Vertices[t[2]]}
}

func (w *Wall) buildIndexMap() {
	min := image.Pt(math.MaxInt32, math.MaxInt32)
	max := image.Pt(math.MinInt32, math.MinInt32)
	for _, v := range w.Mesh.Vertices {
		min.X = minInt(min.X, int(math.Floor(v.X)))
		min.Y = minInt(min.Y, int(math.Floor(v.Y)))
		max.X = maxInt(max.X, int(math.Ceil(v.X)))
		max.Y = maxInt(max.Y, int(math.Ceil(v.Y)))
	}
	if len(w.Mesh.Vertices) == 0 {
		min, max = image.Point{}, image.Point{}
	}
	w.origin = min
	w.size = max.Sub(min)
	w.cells = make([][]int, w.size.X*w.size.Y)
	w.covers = make([]int, len(w.Mesh.Triangles))

	for i, t := range w.Mesh.Triangles {
		if !w.live[i] {
			continue
		}
		corners := w.corners(t)
		bounds, mask := rasterizeTriangle(corners)
		for y := 0; y < bounds.Dy(); y++ {
			for x := 0; x < bounds.Dx(); x++ {
				if mask.AlphaAt(x, y).A < 128 {
					continue
				}
				w.cover(image.Pt(bounds.Min.X+x, bounds.Min.Y+y), i)
			}
		}
		if w.covers[i] == 0 {
			// Sliver triangles covering no cell sit in the cell of their
			// centroid so a hole can still retire them.
			c := corners[0].Add(corners[1]).Add(corners[2]).Scale(1.0 / 3)
			w.cover(image.Pt(int(math.Floor(c.X)), int(math.Floor(c.Y))), i)
		}
	}
}

func (w *Wall) cell(p image.Point) int {
	p = p.Sub(w.origin)
	if p.X < 0 || p.Y < 0 || p.X >= w.size.X || p.Y >= w.size.Y {
		return -1
	}
	return p.Y*w.size.X + p.X
}

func (w *Wall) cover(p image.Point, tri int) {
	c := w.cell(p)
	if c < 0 {
		return
	}
	w.cells[c] = append(w.cells[c], tri)
	w.covers[tri]++
}

func rasterizeTriangle(t [3]Vector) (image.Rectangle, *image.Alpha) {
	minX := math.Floor(math.Min(t[0].X, math.Min(t[1].X, t[2].X)))
	minY := math.Floor(math.Min(t[0].Y, math.Min(t[1].Y, t[2].Y)))
	maxX := math.Ceil(math.Max(t[0].X, math.Max(t[1].X, t[2].X)))
	maxY := math.Ceil(math.Max(t[0].Y, math.Max(t[1].Y, t[2].Y)))
	bounds := image.Rect(int(minX), int(minY), int(maxX), int(maxY))
	mask := image.NewAlpha(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	if bounds.Empty() {
		return bounds, mask
	}
	z := vector.NewRasterizer(bounds.Dx(), bounds.Dy())
	z.DrawOp = draw.Src
	z.MoveTo(float32(t[0].X-minX), float32(t[0].Y-minY))
	z.LineTo(float32(t[1].X-minX), float32(t[1].Y-minY))
	z.LineTo(float32(t[2].X-minX), float32(t[2].Y-minY))
	z.ClosePath()
	z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	return bounds, mask
}

// MakeHole removes the circle at pos from the wall and returns the indices
// of the triangles it retired, in retirement order.
func (w *Wall) MakeHole(pos Vector, radius float64) []int {
	if w.cells == nil {
		w.buildIndexMap()
	}
	var retired []int
	r2 := radius * radius
	x0, x1 := int(math.Floor(pos.X-radius)), int(math.Ceil(pos.X+radius))
	y0, y1 := int(math.Floor(pos.Y-radius)), int(math.Ceil(pos.Y+radius))
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			dx, dy := float64(x)+0.5-pos.X, float64(y)+0.5-pos.Y
			if dx*dx+dy*dy > r2 {
				continue
			}
			c := w.cell(image.Pt(x, y))
			if c < 0 {
				continue
			}
			for _, tri := range w.cells[c] {
				w.covers[tri]--
				if w.covers[tri] == 0 && w.live[tri] {
					w.retire(tri)
					retired = append(retired, tri)
				}
			}
			w.cells[c] = nil
		}
	}
	return retired
}

// Retire collapses the listed triangles. Indices already retired are
// ignored; out of range indices mean the message was corrupt.
func (w *Wall) Retire(indices []int) error {
	for _, i := range indices {
		if i < 0 || i >= len(w.Mesh.Triangles) {
			return errors.Wrapf(wire.ErrCorrupt, "triangle %d out of range [0, %d)", i, len(w.Mesh.Triangles))
		}
	}
	for _, i := range indices {
		if w.live[i] {
			w.retire(i)
		}
	}
	return nil
}

func (w *Wall) retire(i int) {
	w.Mesh.Triangles[i] = [3]int{}
	w.live[i] = false
	w.retired++
}

// Hit reports whether p lies on a part of the wall that is still standing.
func (w *Wall) Hit(p Vector) bool {
	if w.cells == nil {
		w.buildIndexMap()
	}
	c := w.cell(image.Pt(int(math.Floor(p.X)), int(math.Floor(p.Y))))
	if c < 0 {
		return false
	}
	for _, tri := range w.cells[c] {
		if w.live[tri] {
			return true
		}
	}
	return false
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
