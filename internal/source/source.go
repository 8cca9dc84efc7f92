// Package source normalizes point/line source specifications from the three
// input channels (inline coordinate lists, config object, sources CSV) into
// an ordered list of validated primitives.
package source

import (
	"fmt"

	"dosedelta/internal/activation"
	"dosedelta/internal/derr"
	"dosedelta/internal/mesh"
)

// Kind discriminates the geometric form of a primitive.
type Kind int

const (
	// KindPoint is a single-coordinate source.
	KindPoint Kind = iota
	// KindLine is a segment source with activity spread uniformly along it.
	KindLine
)

func (k Kind) String() string {
	if k == KindLine {
		return "line"
	}
	return "point"
}

// DefaultMass is substituted per primitive when no mass is given. With unit
// masses all sources weigh equally and dose values read as "per gram of
// component", a normalization policy rather than a physical claim.
const DefaultMass = 1.0

// Primitive is one normalized source: a point or a segment, its component
// mass in grams, and optionally precomputed activities that bypass the
// activation engine.
type Primitive struct {
	Kind Kind
	P1   mesh.Vec3
	P2   mesh.Vec3 // line end point; zero value for points
	Mass float64

	Activities activation.Activities
}

// Length returns the segment length; zero for points.
func (p *Primitive) Length() float64 {
	if p.Kind != KindLine {
		return 0
	}
	return p.P2.Sub(p.P1).Norm()
}

// Center returns the point location or the segment midpoint.
func (p *Primitive) Center() mesh.Vec3 {
	if p.Kind == KindLine {
		return p.P1.Mid(p.P2)
	}
	return p.P1
}

// Label returns the coordinate tag used in output file names.
func (p *Primitive) Label() string {
	if p.Kind == KindLine {
		return fmt.Sprintf("%g_%g_%g_to_%g_%g_%g", p.P1.X, p.P1.Y, p.P1.Z, p.P2.X, p.P2.Y, p.P2.Z)
	}
	return fmt.Sprintf("%g_%g_%g", p.P1.X, p.P1.Y, p.P1.Z)
}

// Inline carries the coordinate lists of the inline/config channel. Entry i
// of each populated slice describes source i.
type Inline struct {
	X1, Y1, Z1 []float64
	X2, Y2, Z2 []float64
	M          []float64
}

func (in *Inline) empty() bool {
	return in == nil || (len(in.X1) == 0 && len(in.Y1) == 0 && len(in.Z1) == 0 &&
		len(in.X2) == 0 && len(in.Y2) == 0 && len(in.Z2) == 0 && len(in.M) == 0)
}

// Resolve builds the ordered primitive list from exactly one input channel.
// Supplying both channels, or neither, is a configuration error. The second
// return reports whether masses were given explicitly; with defaulted unit
// masses downstream totals keep their per-gram reading.
func Resolve(inline *Inline, csvPath string) ([]Primitive, bool, error) {
	hasInline := !inline.empty()
	hasCSV := csvPath != ""
	switch {
	case hasInline && hasCSV:
		return nil, false, derr.Configurationf("sources CSV and inline coordinates are mutually exclusive")
	case !hasInline && !hasCSV:
		return nil, false, derr.Configurationf("no sources given: supply inline coordinates or a sources CSV")
	case hasCSV:
		var err error
		inline, err = readSourcesCSV(csvPath)
		if err != nil {
			return nil, false, err
		}
	}
	primitives, err := fromInline(inline)
	if err != nil {
		return nil, false, err
	}
	return primitives, len(inline.M) > 0, nil
}

func fromInline(in *Inline) ([]Primitive, error) {
	n := len(in.X1)
	if n == 0 || len(in.Y1) != n || len(in.Z1) != n {
		return nil, derr.Validationf("the number of x1, y1 and z1 coordinates must match (got %d, %d, %d)",
			len(in.X1), len(in.Y1), len(in.Z1))
	}

	isLine := len(in.X2) > 0 || len(in.Y2) > 0 || len(in.Z2) > 0
	if isLine && (len(in.X2) != n || len(in.Y2) != n || len(in.Z2) != n) {
		return nil, derr.Validationf("line sources need complete second points: x2, y2, z2 counts (%d, %d, %d) must all equal %d",
			len(in.X2), len(in.Y2), len(in.Z2), n)
	}
	if len(in.M) > 0 && len(in.M) != n {
		return nil, derr.Validationf("the number of masses (%d) must match the number of sources (%d)", len(in.M), n)
	}

	primitives := make([]Primitive, 0, n)
	for i := 0; i < n; i++ {
		p := Primitive{
			Kind: KindPoint,
			P1:   mesh.Vec3{X: in.X1[i], Y: in.Y1[i], Z: in.Z1[i]},
			Mass: DefaultMass,
		}
		if isLine {
			p.Kind = KindLine
			p.P2 = mesh.Vec3{X: in.X2[i], Y: in.Y2[i], Z: in.Z2[i]}
			if p.Length() == 0 {
				return nil, derr.Geometryf("line source %d has zero length at (%g, %g, %g)", i+1, p.P1.X, p.P1.Y, p.P1.Z)
			}
		}
		if len(in.M) > 0 {
			p.Mass = in.M[i]
		}
		if p.Mass <= 0 {
			return nil, derr.Validationf("source %d has non-positive mass %g g", i+1, p.Mass)
		}
		primitives = append(primitives, p)
	}
	return primitives, nil
}

// AttachActivities sets precomputed activities on every primitive, the bypass
// path for user supplied activity tables.
func AttachActivities(primitives []Primitive, activities activation.Activities) {
	for i := range primitives {
		primitives[i].Activities = activities
	}
}
