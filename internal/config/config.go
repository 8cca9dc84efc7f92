// Package config defines the run configuration shared by the CLI flags, the
// optional yaml config file and DOSEDELTA_* environment overrides, plus the
// cross-field validation that gates every run.
package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"dosedelta/internal/derr"
)

// Plot selects an optional rendered slice of the total dose field.
type Plot struct {
	Axis   string  `yaml:"axis"   env:"AXIS"`
	Offset float64 `yaml:"offset" env:"OFFSET"`
}

// Mesh overrides the dose mesh construction defaults.
type Mesh struct {
	// Pitch is the uniform cell size in cm.
	Pitch float64 `yaml:"pitch" env:"PITCH"`
	// Padding is added around the source bounding box on every face, cm.
	Padding float64 `yaml:"padding" env:"PADDING"`
}

// RunConfig mirrors the CLI surface key for key.
type RunConfig struct {
	RootOutput string `yaml:"root_output" env:"ROOT_OUTPUT"`
	Verbose    bool   `yaml:"verbose"     env:"VERBOSE"`

	// Activation parameter group; mutually exclusive with ActivitiesFile.
	Element       string  `yaml:"element"        env:"ELEMENT"`
	DeltaImpurity float64 `yaml:"delta_impurity" env:"DELTA_IMPURITY"`
	InputFlux     string  `yaml:"input_flux"     env:"INPUT_FLUX"`
	IrradScenario string  `yaml:"irrad_scenario" env:"IRRAD_SCENARIO"`
	DecayTime     float64 `yaml:"decay_time"     env:"DECAY_TIME"`

	ActivitiesFile string `yaml:"activities_file" env:"ACTIVITIES_FILE"`

	// Source channels; inline coordinates and the CSV are mutually exclusive.
	X1         []float64 `yaml:"x1" env:"X1"`
	Y1         []float64 `yaml:"y1" env:"Y1"`
	Z1         []float64 `yaml:"z1" env:"Z1"`
	X2         []float64 `yaml:"x2" env:"X2"`
	Y2         []float64 `yaml:"y2" env:"Y2"`
	Z2         []float64 `yaml:"z2" env:"Z2"`
	M          []float64 `yaml:"m"  env:"M"`
	SourcesCSV string    `yaml:"sources_csv" env:"SOURCES_CSV"`

	Plot *Plot `yaml:"plot,omitempty"`
	Mesh Mesh  `yaml:"mesh" envPrefix:"MESH_"`

	Workstation string `yaml:"workstation" env:"WORKSTATION"`
	Location    string `yaml:"location"    env:"LOCATION"`

	OutputAllVTR bool `yaml:"output_all_vtr" env:"OUTPUT_ALL_VTR"`

	// Workers bounds the integrator goroutines; 0 means GOMAXPROCS.
	Workers int `yaml:"workers" env:"WORKERS"`
}

// Default returns the baseline configuration before file, env and flag
// overlays.
func Default() *RunConfig {
	return &RunConfig{
		RootOutput: "output",
		Mesh: Mesh{
			Pitch:   50,
			Padding: 500,
		},
	}
}

// Load reads a yaml config file over the defaults.
func Load(path string) (*RunConfig, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, derr.Wrap(derr.KindValidation, err, "config file %s is not valid yaml", path)
	}
	return cfg, nil
}

// ApplyEnv overlays DOSEDELTA_* environment variables.
func (c *RunConfig) ApplyEnv() error {
	if err := env.ParseWithOptions(c, env.Options{Prefix: "DOSEDELTA_"}); err != nil {
		return derr.Wrap(derr.KindValidation, err, "parsing environment overrides")
	}
	return nil
}

// Validate enforces the channel exclusivity and pairing rules before any
// computation starts. Per-coordinate and CSV schema validation belongs to
// the source resolver.
func (c *RunConfig) Validate() error {
	hasInline := len(c.X1) > 0 || len(c.Y1) > 0 || len(c.Z1) > 0 || len(c.M) > 0
	if c.SourcesCSV != "" && hasInline {
		return derr.Configurationf("--sources_csv and inline --x1/--y1/--z1 coordinates are mutually exclusive")
	}
	if c.SourcesCSV == "" && !hasInline {
		return derr.Configurationf("one of --sources_csv and --x1/--y1/--z1 must be provided")
	}

	activationGroup := c.activationParams()
	if c.ActivitiesFile != "" && len(activationGroup) > 0 {
		return derr.Configurationf("--activities_file replaces the activation stage and is mutually exclusive with %s",
			strings.Join(activationGroup, ", "))
	}
	if c.ActivitiesFile == "" {
		var missing []string
		for flag, set := range map[string]bool{
			"--element":        c.Element != "",
			"--delta_impurity": c.DeltaImpurity != 0,
			"--input_flux":     c.InputFlux != "",
			"--irrad_scenario": c.IrradScenario != "",
		} {
			if !set {
				missing = append(missing, flag)
			}
		}
		if len(missing) > 0 {
			sort.Strings(missing)
			return derr.Configurationf("missing required arguments: %s", strings.Join(missing, ", "))
		}
		if c.DecayTime < 0 {
			return derr.Validationf("--decay_time must be non-negative, got %g", c.DecayTime)
		}
	}

	if (c.Workstation == "") != (c.Location == "") {
		return derr.Configurationf("--workstation and --location must be supplied together")
	}
	if c.Plot != nil {
		switch c.Plot.Axis {
		case "x", "y", "z":
		default:
			return derr.Validationf("plot axis must be one of x, y, z; got %q", c.Plot.Axis)
		}
	}
	if c.Mesh.Pitch <= 0 {
		return derr.Validationf("mesh pitch must be positive, got %g", c.Mesh.Pitch)
	}
	if c.Mesh.Padding <= 0 {
		return derr.Validationf("mesh padding must be positive, got %g", c.Mesh.Padding)
	}
	return nil
}

func (c *RunConfig) activationParams() []string {
	var set []string
	if c.Element != "" {
		set = append(set, "--element")
	}
	if c.DeltaImpurity != 0 {
		set = append(set, "--delta_impurity")
	}
	if c.InputFlux != "" {
		set = append(set, "--input_flux")
	}
	if c.IrradScenario != "" {
		set = append(set, "--irrad_scenario")
	}
	if c.DecayTime != 0 {
		set = append(set, "--decay_time")
	}
	return set
}
