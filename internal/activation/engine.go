// Package activation converts a binned flux spectrum, an elemental impurity
// deviation and an irradiation scenario into per-nuclide activities. The
// response is linear in the impurity deviation.
package activation

import (
	"context"

	"go.uber.org/zap"

	"dosedelta/internal/derr"
	"dosedelta/internal/flux"
	"dosedelta/internal/mesh"
	"dosedelta/internal/nuclide"
)

// Engine computes activities for sources from a flux map and an irradiation
// scenario. It is one of the two producers of Activities; the other is a
// user supplied activities file, and downstream dose code cannot tell them
// apart.
type Engine struct {
	Flux      *flux.Field
	Scenario  *Scenario
	DecayTime float64
	Log       *zap.Logger
}

// NewEngine wires an engine; a nil logger is replaced with a no-op one.
func NewEngine(f *flux.Field, sc *Scenario, decayTime float64, log *zap.Logger) (*Engine, error) {
	if decayTime < 0 {
		return nil, derr.Validationf("decay time must be non-negative, got %g", decayTime)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{Flux: f, Scenario: sc, DecayTime: decayTime, Log: log}, nil
}

// ActivatePoint computes per-nuclide activities for an impurity deviation at
// a single point, sampling the flux at that point.
func (e *Engine) ActivatePoint(ctx context.Context, element string, deltaPct float64, p mesh.Vec3) (Activities, error) {
	spectrum, err := e.Flux.SpectrumAt(p)
	if err != nil {
		return nil, err
	}
	return e.activate(ctx, element, deltaPct, [][]float64{spectrum})
}

// ActivateLine computes per-nuclide activities along a line source, one
// sample per flux cell the segment intersects.
func (e *Engine) ActivateLine(ctx context.Context, element string, deltaPct float64, a, b mesh.Vec3) (Activities, error) {
	spectra, err := e.Flux.SpectraAlong(a, b)
	if err != nil {
		return nil, err
	}
	return e.activate(ctx, element, deltaPct, spectra)
}

func (e *Engine) activate(ctx context.Context, element string, deltaPct float64, spectra [][]float64) (Activities, error) {
	isotopes, err := nuclide.NaturalIsotopes(element)
	if err != nil {
		return nil, err
	}
	reactions, err := Reactions(element)
	if err != nil {
		return nil, err
	}

	natural := make(map[string]bool, len(isotopes))
	for _, iso := range isotopes {
		natural[iso] = true
	}

	e.Log.Info("performing collapse and calculating reaction rates",
		zap.String("element", element),
		zap.Int("samples", len(spectra)))

	out := make(Activities)
	for _, spectrum := range spectra {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		parents := make(map[string]Parent)
		var parentOrder []string
		for _, rx := range reactions {
			if !natural[rx.Parent] {
				continue
			}
			parentLong, err := nuclide.LongName(rx.Parent)
			if err != nil {
				return nil, err
			}
			productLong, err := nuclide.LongName(rx.Product)
			if err != nil {
				return nil, err
			}

			p, seen := parents[parentLong]
			if !seen {
				atoms, err := nuclide.Atoms(rx.Parent, deltaPct)
				if err != nil {
					return nil, err
				}
				p = Parent{Atoms: atoms, Channels: make(map[string]float64)}
				parentOrder = append(parentOrder, parentLong)
			}

			xs, err := CrossSection(element, rx.Parent, rx.Product)
			if err != nil {
				return nil, err
			}
			sigmaEff, err := Collapse(xs, spectrum, e.Log)
			if err != nil {
				return nil, err
			}
			p.Channels[productLong] = ReactionRate(sigmaEff, spectrum)
			p.Products = append(p.Products, productLong)
			parents[parentLong] = p
		}

		activities, err := TotalActivity(parents, parentOrder, e.Scenario, e.DecayTime)
		if err != nil {
			return nil, err
		}
		for _, name := range sortedKeys(activities) {
			out[name] = append(out[name], activities[name])
		}
	}
	return out, nil
}
