// Package mesh implements the structured rectilinear meshes that flux and
// dose fields live on, plus VTR (VTK XML RectilinearGrid) file I/O.
//
// Cell values are stored flat with x varying fastest, matching the VTK cell
// ordering, so arrays round-trip through VTR files without reshuffling.
package mesh

import (
	"math"
	"sort"

	"dosedelta/internal/derr"
)

// Rect is a structured rectilinear mesh. X, Y and Z hold the cell boundary
// coordinates per axis in strictly ascending order, so each axis with n+1
// boundaries has n cells.
type Rect struct {
	X, Y, Z []float64
}

// NewUniform builds a mesh covering box with a uniform cell pitch. The upper
// bound is extended to the next pitch multiple so cells are never truncated.
func NewUniform(box Box, pitch float64) (*Rect, error) {
	if pitch <= 0 {
		return nil, derr.Validationf("mesh pitch must be positive, got %g", pitch)
	}
	if box.Max.X <= box.Min.X || box.Max.Y <= box.Min.Y || box.Max.Z <= box.Min.Z {
		return nil, derr.Geometryf("degenerate mesh bounds %+v", box)
	}
	axis := func(lo, hi float64) []float64 {
		n := int(math.Ceil((hi - lo) / pitch))
		coords := make([]float64, n+1)
		for i := range coords {
			coords[i] = lo + float64(i)*pitch
		}
		return coords
	}
	return &Rect{X: axis(box.Min.X, box.Max.X), Y: axis(box.Min.Y, box.Max.Y), Z: axis(box.Min.Z, box.Max.Z)}, nil
}

// NX returns the cell count along x.
func (r *Rect) NX() int { return len(r.X) - 1 }

// NY returns the cell count along y.
func (r *Rect) NY() int { return len(r.Y) - 1 }

// NZ returns the cell count along z.
func (r *Rect) NZ() int { return len(r.Z) - 1 }

// NumCells returns the total cell count.
func (r *Rect) NumCells() int { return r.NX() * r.NY() * r.NZ() }

// Bounds returns the bounding box of the mesh.
func (r *Rect) Bounds() Box {
	return Box{
		Min: Vec3{r.X[0], r.Y[0], r.Z[0]},
		Max: Vec3{r.X[len(r.X)-1], r.Y[len(r.Y)-1], r.Z[len(r.Z)-1]},
	}
}

// Diagonal returns the length of the mesh bounding-box diagonal.
func (r *Rect) Diagonal() float64 {
	b := r.Bounds()
	return b.Max.Sub(b.Min).Norm()
}

// MinPitch returns the smallest cell extent over all axes.
func (r *Rect) MinPitch() float64 {
	min := math.Inf(1)
	for _, axis := range [][]float64{r.X, r.Y, r.Z} {
		for i := 1; i < len(axis); i++ {
			if d := axis[i] - axis[i-1]; d < min {
				min = d
			}
		}
	}
	return min
}

// CellIndex flattens (i,j,k) cell coordinates, x fastest.
func (r *Rect) CellIndex(i, j, k int) int {
	return i + j*r.NX() + k*r.NX()*r.NY()
}

// CellCenter returns the center point of cell (i,j,k).
func (r *Rect) CellCenter(i, j, k int) Vec3 {
	return Vec3{
		(r.X[i] + r.X[i+1]) / 2,
		(r.Y[j] + r.Y[j+1]) / 2,
		(r.Z[k] + r.Z[k+1]) / 2,
	}
}

// Contains reports whether p lies inside the mesh bounds.
func (r *Rect) Contains(p Vec3) bool { return r.Bounds().Contains(p) }

// FindCell locates the cell containing p. Points on an upper boundary fall
// into the last cell of that axis. Points outside the mesh are a geometry
// error.
func (r *Rect) FindCell(p Vec3) (i, j, k int, err error) {
	if !r.Contains(p) {
		return 0, 0, 0, derr.Geometryf("point (%g, %g, %g) is outside the mesh bounds", p.X, p.Y, p.Z)
	}
	return locate(r.X, p.X), locate(r.Y, p.Y), locate(r.Z, p.Z), nil
}

// locate returns the cell index along one axis for a coordinate known to be
// within [axis[0], axis[n]].
func locate(axis []float64, v float64) int {
	i := sort.SearchFloat64s(axis, v)
	// SearchFloat64s returns the boundary index at or after v; shift to the
	// cell below unless v sits exactly on a lower boundary.
	if i > 0 && (i == len(axis) || axis[i] != v) {
		i--
	}
	if i > len(axis)-2 {
		i = len(axis) - 2
	}
	return i
}

// CellsAlong returns the flat indices of the cells intersected by the segment
// from a to b, in traversal order. Both endpoints must be inside the mesh.
// The traversal steps from one boundary crossing to the next, so a cell the
// segment barely clips near a corner is still visited.
func (r *Rect) CellsAlong(a, b Vec3) ([]int, error) {
	if !r.Contains(a) || !r.Contains(b) {
		return nil, derr.Geometryf("segment (%g, %g, %g)-(%g, %g, %g) extends beyond the mesh bounds",
			a.X, a.Y, a.Z, b.X, b.Y, b.Z)
	}
	d := b.Sub(a)
	if d.Norm() == 0 {
		return nil, derr.Geometryf("segment has zero length at (%g, %g, %g)", a.X, a.Y, a.Z)
	}

	i, j, k, err := r.FindCell(a)
	if err != nil {
		return nil, err
	}
	axes := [3][]float64{r.X, r.Y, r.Z}
	start := [3]float64{a.X, a.Y, a.Z}
	dir := [3]float64{d.X, d.Y, d.Z}
	cell := [3]int{i, j, k}
	counts := [3]int{r.NX(), r.NY(), r.NZ()}

	// Segment parameter of the next boundary crossing along one axis.
	cross := func(ax int) float64 {
		switch {
		case dir[ax] > 0:
			return (axes[ax][cell[ax]+1] - start[ax]) / dir[ax]
		case dir[ax] < 0:
			return (axes[ax][cell[ax]] - start[ax]) / dir[ax]
		}
		return math.Inf(1)
	}

	cells := []int{r.CellIndex(cell[0], cell[1], cell[2])}
	for steps := counts[0] + counts[1] + counts[2]; steps > 0; steps-- {
		next, t := -1, math.Inf(1)
		for ax := 0; ax < 3; ax++ {
			if c := cross(ax); c < t {
				next, t = ax, c
			}
		}
		if next < 0 || t >= 1 {
			break
		}
		if dir[next] > 0 {
			cell[next]++
		} else {
			cell[next]--
		}
		if cell[next] < 0 || cell[next] >= counts[next] {
			break
		}
		cells = append(cells, r.CellIndex(cell[0], cell[1], cell[2]))
	}
	return cells, nil
}

// Congruent reports whether two meshes share exactly the same cell boundary
// coordinates. Fields may only be summed over congruent meshes.
func (r *Rect) Congruent(o *Rect) bool {
	return equalAxis(r.X, o.X) && equalAxis(r.Y, o.Y) && equalAxis(r.Z, o.Z)
}

func equalAxis(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// validate checks the axis invariants shared by constructed and loaded meshes.
func (r *Rect) validate() error {
	for name, axis := range map[string][]float64{"x": r.X, "y": r.Y, "z": r.Z} {
		if len(axis) < 2 {
			return derr.Validationf("%s axis needs at least two boundary coordinates, got %d", name, len(axis))
		}
		for i := 1; i < len(axis); i++ {
			if axis[i] <= axis[i-1] {
				return derr.Unitf("%s axis coordinates must be strictly ascending (index %d: %g after %g)",
					name, i, axis[i], axis[i-1])
			}
		}
	}
	return nil
}
