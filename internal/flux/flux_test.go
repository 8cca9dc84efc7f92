package flux

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"dosedelta/internal/derr"
	"dosedelta/internal/mesh"
)

// writeFluxVTR builds a 2x2x2 flux map with the given cell arrays and returns
// its path.
func writeFluxVTR(t *testing.T, arrays []mesh.NamedArray) string {
	t.Helper()
	r, err := mesh.NewUniform(mesh.Box{Min: mesh.Vec3{X: 0, Y: 0, Z: 0}, Max: mesh.Vec3{X: 10, Y: 10, Z: 10}}, 5)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "flux.vtr")
	require.NoError(t, mesh.WriteVTR(path, r, arrays))
	return path
}

func constArray(name string, v float64) mesh.NamedArray {
	vals := make([]float64, 8)
	for i := range vals {
		vals[i] = v
	}
	return mesh.NamedArray{Name: name, Values: vals}
}

func TestLoad_OrdersBinsByNumericSuffix(t *testing.T) {
	// Deliberately shuffled document order plus a non-bin array.
	path := writeFluxVTR(t, []mesh.NamedArray{
		constArray("ValueBin-2", 3),
		constArray("ErrorBin-0", 99),
		constArray("ValueBin-0", 1),
		constArray("ValueBin-1", 2),
	})

	f, err := Load(path, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, 3, f.Groups())
	assert.Equal(t, []string{"ValueBin-0", "ValueBin-1", "ValueBin-2"}, f.BinNames)

	s, err := f.SpectrumAt(mesh.Vec3{X: 1, Y: 1, Z: 1})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, s)
}

func TestLoad_NoBins(t *testing.T) {
	path := writeFluxVTR(t, []mesh.NamedArray{constArray("Dose_Total", 1)})
	_, err := Load(path, zaptest.NewLogger(t))
	assert.True(t, derr.IsKind(err, derr.KindValidation))
}

func TestLoad_NonNumericSuffix(t *testing.T) {
	path := writeFluxVTR(t, []mesh.NamedArray{constArray("ValueBin-fast", 1)})
	_, err := Load(path, zaptest.NewLogger(t))
	assert.True(t, derr.IsKind(err, derr.KindValidation))
}

func TestSpectrumAt_OutsideMap(t *testing.T) {
	path := writeFluxVTR(t, []mesh.NamedArray{constArray("ValueBin-0", 1)})
	f, err := Load(path, zaptest.NewLogger(t))
	require.NoError(t, err)

	_, err = f.SpectrumAt(mesh.Vec3{X: -5, Y: 0, Z: 0})
	assert.True(t, derr.IsKind(err, derr.KindGeometry))
	assert.Contains(t, err.Error(), "not within the flux map")
}

func TestSpectraAlong(t *testing.T) {
	path := writeFluxVTR(t, []mesh.NamedArray{constArray("ValueBin-0", 2)})
	f, err := Load(path, zaptest.NewLogger(t))
	require.NoError(t, err)

	spectra, err := f.SpectraAlong(mesh.Vec3{X: 1, Y: 2.5, Z: 2.5}, mesh.Vec3{X: 9, Y: 2.5, Z: 2.5})
	require.NoError(t, err)
	assert.Len(t, spectra, 2)
	for _, s := range spectra {
		assert.Equal(t, []float64{2}, s)
	}

	_, err = f.SpectraAlong(mesh.Vec3{X: 0, Y: 0, Z: 0}, mesh.Vec3{X: 20, Y: 0, Z: 0})
	assert.True(t, derr.IsKind(err, derr.KindGeometry))
}
