// Package field holds scalar dose-rate fields over a rectilinear mesh, their
// aggregation across sources, and their serialization.
package field

import (
	"dosedelta/internal/derr"
	"dosedelta/internal/mesh"
)

// Unit strings carried by dose fields.
const (
	// UnitPerGram marks per-source fields and equal-mass totals,
	// microsieverts per hour per gram of component.
	UnitPerGram = "uSv/h/g"
	// UnitAbsolute marks mass-weighted totals, microsieverts per hour.
	UnitAbsolute = "uSv/h"
)

// Field is a scalar field over a rectilinear mesh, one value per cell, flat
// with x varying fastest.
type Field struct {
	Mesh   *mesh.Rect
	Values []float64
	Unit   string
}

// New allocates a zero field over m.
func New(m *mesh.Rect, unit string) *Field {
	return &Field{Mesh: m, Values: make([]float64, m.NumCells()), Unit: unit}
}

// At returns the value of cell (i,j,k).
func (f *Field) At(i, j, k int) float64 {
	return f.Values[f.Mesh.CellIndex(i, j, k)]
}

// Sample returns the field value of the cell containing p.
func (f *Field) Sample(p mesh.Vec3) (float64, error) {
	i, j, k, err := f.Mesh.FindCell(p)
	if err != nil {
		return 0, err
	}
	return f.At(i, j, k), nil
}

// Max returns the largest cell value and the center of its cell.
func (f *Field) Max() (float64, mesh.Vec3) {
	best := 0
	for i, v := range f.Values {
		if v > f.Values[best] {
			best = i
		}
	}
	nx, ny := f.Mesh.NX(), f.Mesh.NY()
	return f.Values[best], f.Mesh.CellCenter(best%nx, (best/nx)%ny, best/(nx*ny))
}

// MaxInBox returns the largest value among cells whose centers fall inside
// the box, and that cell's center. It is a geometry error when no cell
// center lies within the box.
func (f *Field) MaxInBox(box mesh.Box) (float64, mesh.Vec3, error) {
	found := false
	best := 0.0
	var at mesh.Vec3
	for k := 0; k < f.Mesh.NZ(); k++ {
		for j := 0; j < f.Mesh.NY(); j++ {
			for i := 0; i < f.Mesh.NX(); i++ {
				c := f.Mesh.CellCenter(i, j, k)
				if !box.Contains(c) {
					continue
				}
				if v := f.At(i, j, k); !found || v > best {
					found, best, at = true, v, c
				}
			}
		}
	}
	if !found {
		return 0, mesh.Vec3{}, derr.Geometryf("no mesh cell centers inside box %+v", box)
	}
	return best, at, nil
}

// Sum aggregates per-source fields into a total by elementwise summation in
// source order, so the result is reproducible bit for bit. All fields must
// share one mesh geometry and one unit. With masses given (one per field,
// grams) each field is weighted by its mass and the total is absolute; with
// nil masses the equal-mass total stays per-gram.
func Sum(fields []*Field, masses []float64) (*Field, error) {
	if len(fields) == 0 {
		return nil, derr.Consistencyf("no fields to aggregate")
	}
	if masses != nil && len(masses) != len(fields) {
		return nil, derr.Validationf("got %d masses for %d fields", len(masses), len(fields))
	}
	first := fields[0]
	for i, f := range fields[1:] {
		if !first.Mesh.Congruent(f.Mesh) {
			return nil, derr.Consistencyf("field %d mesh geometry differs from field 0; fields must share one mesh", i+1)
		}
		if f.Unit != first.Unit {
			return nil, derr.Unitf("field %d has unit %q, field 0 has %q", i+1, f.Unit, first.Unit)
		}
	}

	unit := first.Unit
	if masses != nil {
		unit = UnitAbsolute
	}
	total := New(first.Mesh, unit)
	for i, f := range fields {
		w := 1.0
		if masses != nil {
			w = masses[i]
		}
		for c, v := range f.Values {
			total.Values[c] += w * v
		}
	}
	return total, nil
}

// WriteVTR serializes the field as a VTR file with one named cell array.
func (f *Field) WriteVTR(path, name string) error {
	return mesh.WriteVTR(path, f.Mesh, []mesh.NamedArray{{Name: name, Values: f.Values}})
}
