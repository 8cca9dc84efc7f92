package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dosedelta/internal/activation"
	"dosedelta/internal/derr"
	"dosedelta/internal/mesh"
)

func writeCSV(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sources.csv")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestResolve_InlinePoints(t *testing.T) {
	prims, hasMasses, err := Resolve(&Inline{
		X1: []float64{1, 4}, Y1: []float64{2, 5}, Z1: []float64{3, 6},
	}, "")
	require.NoError(t, err)
	require.Len(t, prims, 2)
	assert.False(t, hasMasses)

	assert.Equal(t, KindPoint, prims[0].Kind)
	assert.Equal(t, mesh.Vec3{X: 1, Y: 2, Z: 3}, prims[0].P1)
	assert.Equal(t, DefaultMass, prims[0].Mass)
	assert.Equal(t, "4_5_6", prims[1].Label())
}

func TestResolve_InlineLines(t *testing.T) {
	prims, hasMasses, err := Resolve(&Inline{
		X1: []float64{0}, Y1: []float64{0}, Z1: []float64{0},
		X2: []float64{0}, Y2: []float64{0}, Z2: []float64{30},
		M: []float64{12.5},
	}, "")
	require.NoError(t, err)
	require.Len(t, prims, 1)
	assert.True(t, hasMasses)

	p := prims[0]
	assert.Equal(t, KindLine, p.Kind)
	assert.Equal(t, 30.0, p.Length())
	assert.Equal(t, mesh.Vec3{X: 0, Y: 0, Z: 15}, p.Center())
	assert.Equal(t, 12.5, p.Mass)
	assert.Equal(t, "0_0_0_to_0_0_30", p.Label())
}

func TestResolve_ChannelExclusivity(t *testing.T) {
	inline := &Inline{X1: []float64{0}, Y1: []float64{0}, Z1: []float64{0}}

	_, _, err := Resolve(inline, "some.csv")
	assert.True(t, derr.IsKind(err, derr.KindConfiguration))

	_, _, err = Resolve(&Inline{}, "")
	assert.True(t, derr.IsKind(err, derr.KindConfiguration))
}

func TestResolve_CountMismatch(t *testing.T) {
	_, _, err := Resolve(&Inline{X1: []float64{1, 2}, Y1: []float64{1}, Z1: []float64{1, 2}}, "")
	assert.True(t, derr.IsKind(err, derr.KindValidation))
}

func TestResolve_PartialSecondPoint(t *testing.T) {
	_, _, err := Resolve(&Inline{
		X1: []float64{0}, Y1: []float64{0}, Z1: []float64{0},
		X2: []float64{1},
	}, "")
	assert.True(t, derr.IsKind(err, derr.KindValidation))
}

func TestResolve_ZeroLengthLine(t *testing.T) {
	_, _, err := Resolve(&Inline{
		X1: []float64{5}, Y1: []float64{5}, Z1: []float64{5},
		X2: []float64{5}, Y2: []float64{5}, Z2: []float64{5},
	}, "")
	assert.True(t, derr.IsKind(err, derr.KindGeometry))
}

func TestResolve_NonPositiveMass(t *testing.T) {
	_, _, err := Resolve(&Inline{
		X1: []float64{0}, Y1: []float64{0}, Z1: []float64{0},
		M: []float64{0},
	}, "")
	assert.True(t, derr.IsKind(err, derr.KindValidation))
}

func TestResolve_CSV(t *testing.T) {
	path := writeCSV(t, "z1,x1,m,y1\n3,1,2.5,2\n6,4,1,5\n")

	prims, hasMasses, err := Resolve(&Inline{}, path)
	require.NoError(t, err)
	require.Len(t, prims, 2)
	assert.True(t, hasMasses)
	assert.Equal(t, mesh.Vec3{X: 1, Y: 2, Z: 3}, prims[0].P1)
	assert.Equal(t, 2.5, prims[0].Mass)
	assert.Equal(t, mesh.Vec3{X: 4, Y: 5, Z: 6}, prims[1].P1)
}

func TestResolve_CSVLineColumns(t *testing.T) {
	path := writeCSV(t, "x1,y1,z1,x2,y2,z2\n0,0,0,0,0,30\n")

	prims, hasMasses, err := Resolve(&Inline{}, path)
	require.NoError(t, err)
	require.Len(t, prims, 1)
	assert.Equal(t, KindLine, prims[0].Kind)
	// No m column: masses are defaulted, not declared.
	assert.False(t, hasMasses)
	assert.Equal(t, DefaultMass, prims[0].Mass)
}

func TestResolve_CSVUnrecognizedHeader(t *testing.T) {
	path := writeCSV(t, "x1,y1,zz1\n0,0,0\n")

	_, _, err := Resolve(&Inline{}, path)
	assert.True(t, derr.IsKind(err, derr.KindValidation))
	assert.Contains(t, err.Error(), "{x1,y1,z1}")
}

func TestResolve_CSVNonNumeric(t *testing.T) {
	path := writeCSV(t, "x1,y1,z1\n0,zero,0\n")

	_, _, err := Resolve(&Inline{}, path)
	assert.True(t, derr.IsKind(err, derr.KindValidation))
}

func TestResolve_CSVNoRows(t *testing.T) {
	path := writeCSV(t, "x1,y1,z1\n")

	_, _, err := Resolve(&Inline{}, path)
	assert.True(t, derr.IsKind(err, derr.KindValidation))
}

func TestAttachActivities(t *testing.T) {
	prims, _, err := Resolve(&Inline{X1: []float64{0, 1}, Y1: []float64{0, 1}, Z1: []float64{0, 1}}, "")
	require.NoError(t, err)

	acts := activation.Activities{"Co060": {1e5}}
	AttachActivities(prims, acts)
	for _, p := range prims {
		assert.Equal(t, acts, p.Activities)
	}
}
