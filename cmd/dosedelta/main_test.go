package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dosedelta/internal/config"
	"dosedelta/internal/derr"
)

func TestResolveConfig_Layering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	body := "element: co\ndecay_time: 100\nmesh:\n  pitch: 10\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	prev := cfgFile
	cfgFile = path
	t.Cleanup(func() { cfgFile = prev })

	t.Setenv("DOSEDELTA_DECAY_TIME", "200")

	cfg, err := resolveConfig(rootCmd)
	require.NoError(t, err)
	// File over defaults, environment over file, defaults elsewhere.
	assert.Equal(t, "co", cfg.Element)
	assert.Equal(t, 200.0, cfg.DecayTime)
	assert.Equal(t, 10.0, cfg.Mesh.Pitch)
	assert.Equal(t, 500.0, cfg.Mesh.Padding)
}

func TestResolveConfig_Plot(t *testing.T) {
	prev := plotArg
	t.Cleanup(func() { plotArg = prev })

	plotArg = []string{"z", "40"}
	cfg, err := resolveConfig(rootCmd)
	require.NoError(t, err)
	require.NotNil(t, cfg.Plot)
	assert.Equal(t, "z", cfg.Plot.Axis)
	assert.Equal(t, 40.0, cfg.Plot.Offset)

	plotArg = []string{"z"}
	_, err = resolveConfig(rootCmd)
	assert.True(t, derr.IsKind(err, derr.KindValidation))

	plotArg = []string{"z", "forty"}
	_, err = resolveConfig(rootCmd)
	assert.True(t, derr.IsKind(err, derr.KindValidation))
}

func TestOverlayFlags_OnlyChanged(t *testing.T) {
	require.NoError(t, rootCmd.Flags().Set("element", "nb"))
	t.Cleanup(func() {
		flagCfg.Element = ""
		rootCmd.Flags().Lookup("element").Changed = false
	})

	cfg := config.Default()
	cfg.Element = "ta"
	cfg.DecayTime = 300
	overlayFlags(rootCmd, cfg)

	// The set flag wins, unset flags leave existing values alone.
	assert.Equal(t, "nb", cfg.Element)
	assert.Equal(t, 300.0, cfg.DecayTime)
}
