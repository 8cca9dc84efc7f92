// Package flux loads energy-binned neutron flux maps from VTR files and
// samples per-bin spectra at points or along line segments.
package flux

import (
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"dosedelta/internal/derr"
	"dosedelta/internal/mesh"
)

// BinPrefix is the naming convention for energy-bin cell arrays in flux maps.
const BinPrefix = "ValueBin-"

// Field is an energy-binned flux map on a rectilinear mesh. Bins[b] holds the
// per-cell flux of energy group b, groups ordered by the numeric suffix of
// their array name.
type Field struct {
	Mesh     *mesh.Rect
	BinNames []string
	Bins     [][]float64

	log *zap.Logger
}

// Load reads a flux VTR and selects its energy-bin arrays. Arrays whose name
// does not start with BinPrefix are ignored; a file with no bin arrays is
// rejected.
func Load(path string, log *zap.Logger) (*Field, error) {
	if log == nil {
		log = zap.NewNop()
	}
	grid, arrays, err := mesh.ReadVTR(path)
	if err != nil {
		return nil, err
	}

	type bin struct {
		order int
		name  string
		vals  []float64
	}
	var bins []bin
	for _, a := range arrays {
		if !strings.HasPrefix(a.Name, BinPrefix) {
			continue
		}
		suffix := strings.TrimPrefix(a.Name, BinPrefix)
		order, err := strconv.Atoi(suffix)
		if err != nil {
			return nil, derr.Validationf("%s: energy bin array %q has non-numeric suffix %q", path, a.Name, suffix)
		}
		bins = append(bins, bin{order: order, name: a.Name, vals: a.Values})
	}
	if len(bins) == 0 {
		return nil, derr.Validationf("%s contains no %q cell arrays", path, BinPrefix+"<n>")
	}
	sort.Slice(bins, func(i, j int) bool { return bins[i].order < bins[j].order })

	f := &Field{Mesh: grid, log: log}
	for _, b := range bins {
		f.BinNames = append(f.BinNames, b.name)
		f.Bins = append(f.Bins, b.vals)
	}
	log.Info("loaded flux map",
		zap.String("path", path),
		zap.Int("groups", len(f.Bins)),
		zap.Int("cells", grid.NumCells()))
	return f, nil
}

// Groups returns the number of energy groups.
func (f *Field) Groups() int { return len(f.Bins) }

// SpectrumAt returns the per-group flux of the cell containing p.
func (f *Field) SpectrumAt(p mesh.Vec3) ([]float64, error) {
	i, j, k, err := f.Mesh.FindCell(p)
	if err != nil {
		return nil, derr.Geometryf("point (%g, %g, %g) is not within the flux map", p.X, p.Y, p.Z)
	}
	return f.spectrum(f.Mesh.CellIndex(i, j, k)), nil
}

// SpectraAlong returns one spectrum per cell intersected by the segment from
// a to b, in traversal order.
func (f *Field) SpectraAlong(a, b mesh.Vec3) ([][]float64, error) {
	cells, err := f.Mesh.CellsAlong(a, b)
	if err != nil {
		if derr.IsKind(err, derr.KindGeometry) {
			return nil, derr.Geometryf("line source (%g, %g, %g)-(%g, %g, %g) extends beyond or is not within the flux map",
				a.X, a.Y, a.Z, b.X, b.Y, b.Z)
		}
		return nil, err
	}
	spectra := make([][]float64, len(cells))
	for i, c := range cells {
		spectra[i] = f.spectrum(c)
	}
	return spectra, nil
}

func (f *Field) spectrum(cell int) []float64 {
	s := make([]float64, len(f.Bins))
	total := 0.0
	for b := range f.Bins {
		s[b] = f.Bins[b][cell]
		total += s[b]
	}
	if total == 0 && f.log != nil {
		f.log.Warn("flux is zero in all energy bins at the sampled cell", zap.Int("cell", cell))
	}
	return s
}
