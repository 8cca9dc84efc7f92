package field

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dosedelta/internal/derr"
)

func TestRenderSlice(t *testing.T) {
	m := fieldMesh(t, 50)
	f := rampField(t, m, 1)

	img, err := f.RenderSlice("z", 25)
	require.NoError(t, err)
	b := img.Bounds()
	assert.Equal(t, m.NX()*cellPixels, b.Dx())
	assert.Equal(t, m.NY()*cellPixels, b.Dy())
}

func TestRenderSlice_InvalidAxis(t *testing.T) {
	f := rampField(t, fieldMesh(t, 50), 1)
	_, err := f.RenderSlice("w", 0)
	assert.True(t, derr.IsKind(err, derr.KindLookup))
}

func TestRenderSlice_OffsetOutsideExtent(t *testing.T) {
	f := rampField(t, fieldMesh(t, 50), 1)
	_, err := f.RenderSlice("x", 150)
	assert.True(t, derr.IsKind(err, derr.KindGeometry))
}

func TestWriteSlicePNG(t *testing.T) {
	f := rampField(t, fieldMesh(t, 50), 1)
	path := filepath.Join(t.TempDir(), "slice.png")
	require.NoError(t, f.WriteSlicePNG(path, "y", 75))

	in, err := os.Open(path)
	require.NoError(t, err)
	defer in.Close()
	img, err := png.Decode(in)
	require.NoError(t, err)
	assert.False(t, img.Bounds().Empty())
}
