package nuclide

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dosedelta/internal/derr"
)

func TestNameForms(t *testing.T) {
	cases := []struct {
		in, short, long string
	}{
		{"co60", "Co60", "Co060"},
		{"Co060m", "Co60m", "Co060m"},
		{"NB94m", "Nb94m", "Nb094m"},
		{"ta182", "Ta182", "Ta182"},
	}
	for _, tc := range cases {
		short, err := Normalize(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.short, short, tc.in)

		long, err := LongName(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.long, long, tc.in)
	}
}

func TestSplit_Malformed(t *testing.T) {
	for _, bad := range []string{"", "60co", "co", "co60x", "co-60"} {
		_, _, _, err := Split(bad)
		assert.True(t, derr.IsKind(err, derr.KindValidation), bad)
	}
}

func TestNaturalIsotopes(t *testing.T) {
	names, err := NaturalIsotopes("Ta")
	require.NoError(t, err)
	assert.Equal(t, []string{"ta180", "ta181"}, names)

	names, err = NaturalIsotopes("co")
	require.NoError(t, err)
	assert.Equal(t, []string{"co59"}, names)

	_, err = NaturalIsotopes("unobtainium")
	assert.True(t, derr.IsKind(err, derr.KindDomain))
}

func TestAtoms_LinearInDeviation(t *testing.T) {
	one, err := Atoms("co59", 1)
	require.NoError(t, err)
	five, err := Atoms("co59", 5)
	require.NoError(t, err)
	assert.InEpsilon(t, 5*one, five, 1e-12)

	// 1% of a mole of co59 per gram, scaled by the atomic weight.
	w, err := AtomicWeight("co59")
	require.NoError(t, err)
	assert.InEpsilon(t, 0.01*Avogadro/w, one, 1e-12)
}

func TestAtomicWeight_Unknown(t *testing.T) {
	_, err := AtomicWeight("co58")
	assert.True(t, derr.IsKind(err, derr.KindDomain))
}
