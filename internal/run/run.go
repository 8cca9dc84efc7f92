// Package run orchestrates a full dose-deviation assessment: resolving
// sources, activating them, integrating dose fields over the shared run mesh
// and writing the output set.
package run

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"dosedelta/internal/activation"
	"dosedelta/internal/config"
	"dosedelta/internal/dose"
	"dosedelta/internal/field"
	"dosedelta/internal/flux"
	"dosedelta/internal/mesh"
	"dosedelta/internal/source"
	"dosedelta/internal/workstation"
)

// Result summarizes a finished run.
type Result struct {
	Dir     string
	Sources int
	// Total is the aggregated field; for a single source it is that
	// source's field.
	Total *field.Field
}

// Runner executes one assessment for a validated configuration.
type Runner struct {
	Cfg *config.RunConfig
	Log *zap.Logger

	clock func() time.Time
}

// New wires a runner; a nil logger becomes a no-op one.
func New(cfg *config.RunConfig, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{Cfg: cfg, Log: log, clock: time.Now}
}

// Run executes the assessment. All fields are computed before anything is
// written, and a failed write removes the run directory, so a run either
// produces its complete output set or nothing.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	cfg := r.Cfg
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	primitives, hasMasses, err := source.Resolve(&source.Inline{
		X1: cfg.X1, Y1: cfg.Y1, Z1: cfg.Z1,
		X2: cfg.X2, Y2: cfg.Y2, Z2: cfg.Z2,
		M: cfg.M,
	}, cfg.SourcesCSV)
	if err != nil {
		return nil, err
	}
	r.Log.Info("resolved sources",
		zap.Int("count", len(primitives)),
		zap.String("kind", primitives[0].Kind.String()))

	// Resolve the report volumes before any integration so an unknown
	// location or workstation fails the run up front.
	var stations []workstation.Station
	if cfg.Workstation != "" {
		if stations, err = workstation.Lookup(cfg.Location, cfg.Workstation); err != nil {
			return nil, err
		}
	}

	runMesh, err := r.buildMesh(primitives, stations)
	if err != nil {
		return nil, err
	}

	if err := r.computeActivities(ctx, primitives); err != nil {
		return nil, err
	}

	integrator := dose.NewIntegrator(cfg.Workers, r.Log)
	fields := make([]*field.Field, len(primitives))
	masses := make([]float64, len(primitives))
	for i := range primitives {
		term, err := dose.SourceTerm(primitives[i].Activities)
		if err != nil {
			return nil, err
		}
		r.Log.Info("calculating the dose",
			zap.String("source", primitives[i].Label()),
			zap.Float64("term", term))
		fields[i], err = integrator.Integrate(ctx, runMesh, &primitives[i], term)
		if err != nil {
			return nil, err
		}
		masses[i] = primitives[i].Mass
	}

	total := fields[0]
	if len(fields) > 1 {
		// Without explicit masses the equal-mass total keeps its per-gram
		// reading; defaulted unit masses are a normalization, not data.
		var weights []float64
		if hasMasses {
			weights = masses
		}
		if total, err = field.Sum(fields, weights); err != nil {
			return nil, err
		}
	}

	dir, err := r.writeOutputs(primitives, fields, total, stations)
	if err != nil {
		return nil, err
	}
	r.Log.Info("run complete", zap.String("dir", dir))
	return &Result{Dir: dir, Sources: len(primitives), Total: total}, nil
}

// buildMesh constructs the single mesh shared by every source of the run:
// the union of the per-source padded boxes at the configured pitch, extended
// to cover any requested workstation volumes so their maxima can be taken
// from the field. A shared mesh keeps per-source fields congruent by
// construction so they can always be aggregated.
func (r *Runner) buildMesh(primitives []source.Primitive, stations []workstation.Station) (*mesh.Rect, error) {
	box := sourceBox(primitives[0])
	for _, p := range primitives[1:] {
		box = box.Union(sourceBox(p))
	}
	box = box.Pad(r.Cfg.Mesh.Padding)
	for _, s := range stations {
		box = box.Union(s.Box)
	}
	return mesh.NewUniform(box, r.Cfg.Mesh.Pitch)
}

func sourceBox(p source.Primitive) mesh.Box {
	b := mesh.Box{Min: p.P1, Max: p.P1}
	if p.Kind == source.KindLine {
		b = b.Union(mesh.Box{Min: p.P2, Max: p.P2})
	}
	return b
}

// computeActivities fills in each primitive's activities, either from the
// user supplied table or through the activation engine.
func (r *Runner) computeActivities(ctx context.Context, primitives []source.Primitive) error {
	cfg := r.Cfg
	if cfg.ActivitiesFile != "" {
		activities, err := activation.ReadActivitiesFile(cfg.ActivitiesFile)
		if err != nil {
			return err
		}
		r.Log.Info("using precomputed activities",
			zap.String("file", cfg.ActivitiesFile),
			zap.Int("nuclides", len(activities)))
		source.AttachActivities(primitives, activities)
		return nil
	}

	fluxField, err := flux.Load(cfg.InputFlux, r.Log)
	if err != nil {
		return err
	}
	scenario, err := activation.LoadScenario(cfg.IrradScenario)
	if err != nil {
		return err
	}
	engine, err := activation.NewEngine(fluxField, scenario, cfg.DecayTime, r.Log)
	if err != nil {
		return err
	}

	r.Log.Info("calculating activities",
		zap.String("element", cfg.Element),
		zap.Float64("delta_impurity", cfg.DeltaImpurity),
		zap.String("scenario", scenario.Name),
		zap.Float64("decay_time", cfg.DecayTime))
	for i := range primitives {
		var activities activation.Activities
		if primitives[i].Kind == source.KindLine {
			activities, err = engine.ActivateLine(ctx, cfg.Element, cfg.DeltaImpurity, primitives[i].P1, primitives[i].P2)
		} else {
			activities, err = engine.ActivatePoint(ctx, cfg.Element, cfg.DeltaImpurity, primitives[i].P1)
		}
		if err != nil {
			return err
		}
		primitives[i].Activities = activities
	}
	return nil
}

// writeOutputs creates the run directory and writes the complete output set.
// Any failure removes the directory again.
func (r *Runner) writeOutputs(primitives []source.Primitive, fields []*field.Field, total *field.Field, stations []workstation.Station) (string, error) {
	cfg := r.Cfg
	stamp := r.clock().Format("20060102_150405")
	dir := filepath.Join(cfg.RootOutput, fmt.Sprintf("dosedelta_%s_%s", stamp, uuid.NewString()[:8]))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	write := func() error {
		meta, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(dir, "metadata.json"), meta, 0o644); err != nil {
			return err
		}

		// A single source always keeps its individual field; there is no
		// separate total to write.
		perSource := cfg.OutputAllVTR || len(primitives) == 1
		if perSource {
			for i := range primitives {
				name := fmt.Sprintf("dose_%s.vtr", primitives[i].Label())
				if err := fields[i].WriteVTR(filepath.Join(dir, name), "Delta_Dose"); err != nil {
					return err
				}
			}
		}
		if len(primitives) > 1 {
			if err := total.WriteVTR(filepath.Join(dir, "dose_total.vtr"), "Dose_Total"); err != nil {
				return err
			}
		}

		if cfg.Plot != nil {
			if err := total.WriteSlicePNG(
				filepath.Join(dir, fmt.Sprintf("dose_slice_%s_%g.png", cfg.Plot.Axis, cfg.Plot.Offset)),
				cfg.Plot.Axis, cfg.Plot.Offset); err != nil {
				return err
			}
		}

		if len(stations) > 0 {
			if err := r.writeWorkstationReports(dir, primitives, fields, total, stations); err != nil {
				return err
			}
		}
		return nil
	}

	if err := write(); err != nil {
		os.RemoveAll(dir)
		return "", err
	}
	return dir, nil
}

func (r *Runner) writeWorkstationReports(dir string, primitives []source.Primitive, fields []*field.Field, total *field.Field, list []workstation.Station) error {
	cfg := r.Cfg
	for i := range primitives {
		rows, err := workstation.Report(fields[i], list)
		if err != nil {
			return err
		}
		name := fmt.Sprintf("dose_%s_%s.csv", primitives[i].Label(), cfg.Location)
		if err := workstation.WriteReport(filepath.Join(dir, name), rows); err != nil {
			return err
		}
	}
	if len(primitives) > 1 {
		rows, err := workstation.Report(total, list)
		if err != nil {
			return err
		}
		name := fmt.Sprintf("dose_%s_total.csv", cfg.Location)
		if err := workstation.WriteReport(filepath.Join(dir, name), rows); err != nil {
			return err
		}
	}
	return nil
}
