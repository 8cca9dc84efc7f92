package mesh

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dosedelta/internal/derr"
)

func testMesh(t *testing.T) *Rect {
	t.Helper()
	r, err := NewUniform(Box{Min: Vec3{-100, -100, -100}, Max: Vec3{100, 100, 100}}, 50)
	require.NoError(t, err)
	return r
}

func TestNewUniform(t *testing.T) {
	r := testMesh(t)
	assert.Equal(t, 4, r.NX())
	assert.Equal(t, 4, r.NY())
	assert.Equal(t, 4, r.NZ())
	assert.Equal(t, 64, r.NumCells())
	assert.Equal(t, 50.0, r.MinPitch())
}

func TestNewUniform_Invalid(t *testing.T) {
	_, err := NewUniform(Box{Min: Vec3{0, 0, 0}, Max: Vec3{10, 10, 10}}, -1)
	assert.True(t, derr.IsKind(err, derr.KindValidation))

	_, err = NewUniform(Box{Min: Vec3{5, 0, 0}, Max: Vec3{5, 10, 10}}, 1)
	assert.True(t, derr.IsKind(err, derr.KindGeometry))
}

func TestFindCell(t *testing.T) {
	r := testMesh(t)

	i, j, k, err := r.FindCell(Vec3{-99, -99, -99})
	require.NoError(t, err)
	assert.Equal(t, [3]int{0, 0, 0}, [3]int{i, j, k})

	// Upper boundary belongs to the last cell.
	i, j, k, err = r.FindCell(Vec3{100, 100, 100})
	require.NoError(t, err)
	assert.Equal(t, [3]int{3, 3, 3}, [3]int{i, j, k})

	// Lower cell boundaries start a new cell.
	i, _, _, err = r.FindCell(Vec3{0, -99, -99})
	require.NoError(t, err)
	assert.Equal(t, 2, i)

	_, _, _, err = r.FindCell(Vec3{101, 0, 0})
	assert.True(t, derr.IsKind(err, derr.KindGeometry))
}

func TestCellCenter(t *testing.T) {
	r := testMesh(t)
	assert.Equal(t, Vec3{-75, -75, -75}, r.CellCenter(0, 0, 0))
	assert.Equal(t, Vec3{75, 75, 75}, r.CellCenter(3, 3, 3))
}

func TestCellsAlong(t *testing.T) {
	r := testMesh(t)

	// Axis-aligned segment through the middle of the first x row.
	cells, err := r.CellsAlong(Vec3{-99, -75, -75}, Vec3{99, -75, -75})
	require.NoError(t, err)
	want := []int{r.CellIndex(0, 0, 0), r.CellIndex(1, 0, 0), r.CellIndex(2, 0, 0), r.CellIndex(3, 0, 0)}
	assert.Equal(t, want, cells)

	// A segment within one cell reports exactly that cell.
	cells, err = r.CellsAlong(Vec3{-90, -90, -90}, Vec3{-60, -60, -60})
	require.NoError(t, err)
	assert.Equal(t, []int{r.CellIndex(0, 0, 0)}, cells)

	_, err = r.CellsAlong(Vec3{0, 0, 0}, Vec3{0, 0, 200})
	assert.True(t, derr.IsKind(err, derr.KindGeometry))

	// A segment clipping only a sliver of a cell near its corner still
	// reports that cell: the chord inside it is far shorter than any
	// fixed sampling step.
	cells, err = r.CellsAlong(Vec3{-1, -0.95, -75}, Vec3{1, 1.05, -75})
	require.NoError(t, err)
	want = []int{r.CellIndex(1, 1, 0), r.CellIndex(1, 2, 0), r.CellIndex(2, 2, 0)}
	assert.Equal(t, want, cells)

	_, err = r.CellsAlong(Vec3{10, 10, 10}, Vec3{10, 10, 10})
	assert.True(t, derr.IsKind(err, derr.KindGeometry))
}

func TestCongruent(t *testing.T) {
	a := testMesh(t)
	b := testMesh(t)
	assert.True(t, a.Congruent(b))

	c, err := NewUniform(Box{Min: Vec3{-100, -100, -100}, Max: Vec3{100, 100, 100}}, 25)
	require.NoError(t, err)
	assert.False(t, a.Congruent(c))
}

func TestBoxUnionPad(t *testing.T) {
	a := Box{Min: Vec3{0, 0, 0}, Max: Vec3{1, 1, 1}}
	b := Box{Min: Vec3{-2, 0.5, 0}, Max: Vec3{0, 3, 1}}
	u := a.Union(b)
	assert.Equal(t, Vec3{-2, 0, 0}, u.Min)
	assert.Equal(t, Vec3{1, 3, 1}, u.Max)

	p := a.Pad(10)
	assert.Equal(t, Vec3{-10, -10, -10}, p.Min)
	assert.Equal(t, Vec3{11, 11, 11}, p.Max)
}
