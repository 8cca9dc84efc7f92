// Command dosedelta approximates the deviation in activity and gamma dose
// rate caused by a change in an element's impurity content within an
// irradiated component.
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"dosedelta/internal/config"
	"dosedelta/internal/derr"
	"dosedelta/internal/run"
	"dosedelta/internal/workstation"
)

var (
	cfgFile string
	flagCfg = config.Default()
	plotArg []string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "dosedelta",
	Short: "Estimate the gamma dose-rate deviation from an impurity change",
	Long: `dosedelta estimates the change in gamma dose rate around point or line
sources caused by a specified deviation in an element's mass fraction within
an irradiated material.

Activities are computed from a binned neutron flux map (VTR) and an
irradiation scenario, or read from a precomputed activities file. Dose-rate
fields are integrated over a shared 3D mesh, summed over sources, and
written as VTR files, with optional slice images and per-workstation
reports. Unshielded, unscattered transport only.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if v, _ := cmd.Flags().GetBool("verbose"); v {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveConfig(cmd)
		if err != nil {
			return err
		}
		result, err := run.New(cfg, logger).Run(cmd.Context())
		if err != nil {
			if kind := derr.KindOf(err); kind != "" {
				logger.Error("run failed", zap.String("kind", string(kind)), zap.Error(err))
			}
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), result.Dir)
		return nil
	},
}

var locationsCmd = &cobra.Command{
	Use:   "locations",
	Short: "List the known workstation locations",
	Run: func(cmd *cobra.Command, args []string) {
		for _, loc := range workstation.Locations() {
			fmt.Fprintln(cmd.OutOrStdout(), loc)
		}
	},
}

// resolveConfig layers defaults, the optional config file, DOSEDELTA_*
// environment variables and explicitly set flags, in that order.
func resolveConfig(cmd *cobra.Command) (*config.RunConfig, error) {
	cfg := config.Default()
	if cfgFile != "" {
		var err error
		if cfg, err = config.Load(cfgFile); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	overlayFlags(cmd, cfg)

	if len(plotArg) > 0 {
		if len(plotArg) != 2 {
			return nil, derr.Validationf("--plot expects \"axis,offset\", got %q", strings.Join(plotArg, ","))
		}
		offset, err := strconv.ParseFloat(plotArg[1], 64)
		if err != nil {
			return nil, derr.Validationf("--plot offset %q is not a number", plotArg[1])
		}
		cfg.Plot = &config.Plot{Axis: plotArg[0], Offset: offset}
	}
	return cfg, nil
}

// overlayFlags copies only the flags the user actually set, so config-file
// and environment values survive unless overridden.
func overlayFlags(cmd *cobra.Command, cfg *config.RunConfig) {
	f := cmd.Flags()
	if f.Changed("root_output") {
		cfg.RootOutput = flagCfg.RootOutput
	}
	if f.Changed("element") {
		cfg.Element = flagCfg.Element
	}
	if f.Changed("delta_impurity") {
		cfg.DeltaImpurity = flagCfg.DeltaImpurity
	}
	if f.Changed("input_flux") {
		cfg.InputFlux = flagCfg.InputFlux
	}
	if f.Changed("irrad_scenario") {
		cfg.IrradScenario = flagCfg.IrradScenario
	}
	if f.Changed("decay_time") {
		cfg.DecayTime = flagCfg.DecayTime
	}
	if f.Changed("activities_file") {
		cfg.ActivitiesFile = flagCfg.ActivitiesFile
	}
	if f.Changed("x1") {
		cfg.X1 = flagCfg.X1
	}
	if f.Changed("y1") {
		cfg.Y1 = flagCfg.Y1
	}
	if f.Changed("z1") {
		cfg.Z1 = flagCfg.Z1
	}
	if f.Changed("x2") {
		cfg.X2 = flagCfg.X2
	}
	if f.Changed("y2") {
		cfg.Y2 = flagCfg.Y2
	}
	if f.Changed("z2") {
		cfg.Z2 = flagCfg.Z2
	}
	if f.Changed("m") {
		cfg.M = flagCfg.M
	}
	if f.Changed("sources_csv") {
		cfg.SourcesCSV = flagCfg.SourcesCSV
	}
	if f.Changed("workstation") {
		cfg.Workstation = flagCfg.Workstation
	}
	if f.Changed("location") {
		cfg.Location = flagCfg.Location
	}
	if f.Changed("output_all_vtr") {
		cfg.OutputAllVTR = flagCfg.OutputAllVTR
	}
	if f.Changed("workers") {
		cfg.Workers = flagCfg.Workers
	}
	if f.Changed("mesh_pitch") {
		cfg.Mesh.Pitch = flagCfg.Mesh.Pitch
	}
	if f.Changed("mesh_padding") {
		cfg.Mesh.Padding = flagCfg.Mesh.Padding
	}
	if f.Changed("verbose") {
		cfg.Verbose = flagCfg.Verbose
	}
}

func init() {
	f := rootCmd.Flags()

	rootCmd.PersistentFlags().BoolVarP(&flagCfg.Verbose, "verbose", "v", false, "enable debug logging")

	f.StringVar(&cfgFile, "cfg", "", "path to a yaml config file mirroring the flags")
	f.StringVar(&flagCfg.RootOutput, "root_output", flagCfg.RootOutput, "root directory for output files")

	f.StringVar(&flagCfg.Element, "element", "", "element with deviation, e.g. Co, Ta, Nb")
	f.Float64Var(&flagCfg.DeltaImpurity, "delta_impurity", 0, "deviation in the element's weight as a percentage")
	f.StringVar(&flagCfg.InputFlux, "input_flux", "", "path to the VTR file with the neutron spectrum")
	f.StringVar(&flagCfg.IrradScenario, "irrad_scenario", "", "irradiation scenario: DT1, SA2, or a path to a scenario file")
	f.Float64Var(&flagCfg.DecayTime, "decay_time", 0, "decay time for calculating dose, seconds")
	f.StringVar(&flagCfg.ActivitiesFile, "activities_file", "", "text file with precomputed nuclide activities (Bq/g)")

	f.Float64SliceVar(&flagCfg.X1, "x1", nil, "x coordinate(s) of point source or line start")
	f.Float64SliceVar(&flagCfg.Y1, "y1", nil, "y coordinate(s) of point source or line start")
	f.Float64SliceVar(&flagCfg.Z1, "z1", nil, "z coordinate(s) of point source or line start")
	f.Float64SliceVar(&flagCfg.X2, "x2", nil, "x coordinate(s) of the line source end")
	f.Float64SliceVar(&flagCfg.Y2, "y2", nil, "y coordinate(s) of the line source end")
	f.Float64SliceVar(&flagCfg.Z2, "z2", nil, "z coordinate(s) of the line source end")
	f.Float64SliceVar(&flagCfg.M, "m", nil, "mass of the component(s) where the impurity is located, grams")
	f.StringVar(&flagCfg.SourcesCSV, "sources_csv", "", "CSV with source coordinates: x1,y1,z1[,x2,y2,z2][,m]")

	f.StringSliceVar(&plotArg, "plot", nil, "output a slice image of the dose mesh: axis,offset")
	f.StringVar(&flagCfg.Workstation, "workstation", "", "workstation to report the max dose for, e.g. 1, 3 or 'all'")
	f.StringVar(&flagCfg.Location, "location", "", "location of the workstation(s), e.g. 'nb cell'")
	f.BoolVar(&flagCfg.OutputAllVTR, "output_all_vtr", false, "write an individual VTR file for every source")

	f.IntVar(&flagCfg.Workers, "workers", 0, "integrator worker goroutines (0 = all CPUs)")
	f.Float64Var(&flagCfg.Mesh.Pitch, "mesh_pitch", flagCfg.Mesh.Pitch, "dose mesh cell size, cm")
	f.Float64Var(&flagCfg.Mesh.Padding, "mesh_padding", flagCfg.Mesh.Padding, "dose mesh padding around the sources, cm")

	rootCmd.AddCommand(locationsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
