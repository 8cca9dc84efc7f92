package activation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dosedelta/internal/derr"
)

func TestReadActivitiesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "acts.txt")
	require.NoError(t, os.WriteFile(path, []byte("co60 1.5e5\n\nta182m 2e3\n"), 0o644))

	acts, err := ReadActivitiesFile(path)
	require.NoError(t, err)
	assert.Equal(t, Activities{
		"Co060":  {1.5e5},
		"Ta182m": {2e3},
	}, acts)
	assert.Equal(t, []string{"Co060", "Ta182m"}, acts.Nuclides())
}

func TestReadActivitiesFile_Malformed(t *testing.T) {
	cases := map[string]string{
		"arity":       "co60 1.5 extra\n",
		"bad nuclide": "60co 1.5\n",
		"bad value":   "co60 lots\n",
		"empty":       "\n\n",
	}
	for name, body := range cases {
		path := filepath.Join(t.TempDir(), "acts.txt")
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
		_, err := ReadActivitiesFile(path)
		assert.True(t, derr.IsKind(err, derr.KindValidation), name)
	}
}
