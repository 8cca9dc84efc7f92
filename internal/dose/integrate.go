package dose

import (
	"context"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"dosedelta/internal/derr"
	"dosedelta/internal/field"
	"dosedelta/internal/mesh"
	"dosedelta/internal/source"
)

// Integrator evaluates dose-rate fields over a mesh, one source at a time.
// Cells are independent, so integration fans out across z slabs; every
// goroutine writes a disjoint range of the output slice and no values are
// accumulated across goroutines, which makes the result bit-for-bit
// deterministic regardless of worker count.
type Integrator struct {
	// Workers bounds the slab goroutines; 0 means GOMAXPROCS.
	Workers int
	Log     *zap.Logger
}

// NewIntegrator wires an integrator; a nil logger becomes a no-op one.
func NewIntegrator(workers int, log *zap.Logger) *Integrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Integrator{Workers: workers, Log: log}
}

// Integrate produces the per-gram dose-rate field of one source over m: each
// cell's representative point (its center) is evaluated against the source
// kernel exactly once. A source farther from the mesh than one bounding-box
// diagonal is rejected; its contribution would be indistinguishable from
// zero and the coordinates are almost certainly wrong.
func (ig *Integrator) Integrate(ctx context.Context, m *mesh.Rect, src *source.Primitive, term float64) (*field.Field, error) {
	if src.Kind == source.KindLine && src.Length() == 0 {
		return nil, derr.Geometryf("line source has zero length at (%g, %g, %g)", src.P1.X, src.P1.Y, src.P1.Z)
	}
	if d := distanceToBox(src.Center(), m.Bounds()); d > m.Diagonal() {
		return nil, derr.Geometryf("source at (%g, %g, %g) lies %.4g cm outside the mesh bounds",
			src.Center().X, src.Center().Y, src.Center().Z, d)
	}

	out := field.New(m, field.UnitPerGram)
	rMin := m.MinPitch() / 2

	workers := ig.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	nx, ny := m.NX(), m.NY()
	for k := 0; k < m.NZ(); k++ {
		k := k
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			for j := 0; j < ny; j++ {
				for i := 0; i < nx; i++ {
					p := m.CellCenter(i, j, k)
					var rate float64
					if src.Kind == source.KindLine {
						rate = LineRate(term, src.P1, src.P2, p)
					} else {
						rate = PointRate(term, src.P1, p, rMin)
					}
					out.Values[m.CellIndex(i, j, k)] = rate
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ig.Log.Debug("integrated source field",
		zap.String("kind", src.Kind.String()),
		zap.String("source", src.Label()),
		zap.Int("cells", m.NumCells()))
	return out, nil
}

// distanceToBox is the euclidean distance from p to the closest point of b,
// zero when p is inside.
func distanceToBox(p mesh.Vec3, b mesh.Box) float64 {
	clamp := func(v, lo, hi float64) float64 {
		if v < lo {
			return lo
		}
		if v > hi {
			return hi
		}
		return v
	}
	nearest := mesh.Vec3{
		X: clamp(p.X, b.Min.X, b.Max.X),
		Y: clamp(p.Y, b.Min.Y, b.Max.Y),
		Z: clamp(p.Z, b.Min.Z, b.Max.Z),
	}
	return p.Sub(nearest).Norm()
}
