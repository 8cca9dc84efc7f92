package field

import (
	"image"
	"image/color"
	"image/png"
	"math"
	"os"

	"dosedelta/internal/derr"
)

// pixels rendered per mesh cell in slice images.
const cellPixels = 6

// RenderSlice rasterizes the mesh slice nearest to offset along the given
// axis ("x", "y" or "z") as a log-scaled heatmap. Zero cells render as
// background.
func (f *Field) RenderSlice(axis string, offset float64) (image.Image, error) {
	var (
		coords []float64
		nu, nv int
		sample func(slice, u, v int) float64
	)
	switch axis {
	case "x":
		coords, nu, nv = f.Mesh.X, f.Mesh.NY(), f.Mesh.NZ()
		sample = func(s, u, v int) float64 { return f.At(s, u, v) }
	case "y":
		coords, nu, nv = f.Mesh.Y, f.Mesh.NX(), f.Mesh.NZ()
		sample = func(s, u, v int) float64 { return f.At(u, s, v) }
	case "z":
		coords, nu, nv = f.Mesh.Z, f.Mesh.NX(), f.Mesh.NY()
		sample = func(s, u, v int) float64 { return f.At(u, v, s) }
	default:
		return nil, derr.Lookupf("invalid slice axis %q: expected one of x, y, z", axis)
	}
	if offset < coords[0] || offset > coords[len(coords)-1] {
		return nil, derr.Geometryf("slice offset %g is outside the %s extent [%g, %g]",
			offset, axis, coords[0], coords[len(coords)-1])
	}

	slice := 0
	bestDist := math.Inf(1)
	for i := 0; i < len(coords)-1; i++ {
		center := (coords[i] + coords[i+1]) / 2
		if d := math.Abs(center - offset); d < bestDist {
			bestDist, slice = d, i
		}
	}

	lo, hi := logRange(f.Values)
	img := image.NewRGBA(image.Rect(0, 0, nu*cellPixels, nv*cellPixels))
	for v := 0; v < nv; v++ {
		for u := 0; u < nu; u++ {
			c := heatColor(sample(slice, u, v), lo, hi)
			for py := 0; py < cellPixels; py++ {
				for px := 0; px < cellPixels; px++ {
					// Flip vertically so increasing v points up.
					img.Set(u*cellPixels+px, (nv-1-v)*cellPixels+py, c)
				}
			}
		}
	}
	return img, nil
}

// WriteSlicePNG renders the slice and writes it as a PNG file.
func (f *Field) WriteSlicePNG(path, axis string, offset float64) error {
	img, err := f.RenderSlice(axis, offset)
	if err != nil {
		return err
	}
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()
	return png.Encode(out, img)
}

// logRange finds the log10 bounds of the positive values, with a floor so an
// all-equal field still renders.
func logRange(values []float64) (lo, hi float64) {
	minV, maxV := math.Inf(1), 0.0
	for _, v := range values {
		if v <= 0 {
			continue
		}
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}
	if maxV == 0 {
		return 0, 1
	}
	minV = math.Max(minV, maxV*1e-12)
	lo, hi = math.Log10(minV), math.Log10(maxV)
	if hi == lo {
		hi = lo + 1
	}
	return lo, hi
}

// heatColor maps a value onto a blue-to-red log color ramp.
func heatColor(v, lo, hi float64) color.RGBA {
	if v <= 0 {
		return color.RGBA{R: 245, G: 245, B: 245, A: 255}
	}
	t := (math.Log10(v) - lo) / (hi - lo)
	t = math.Max(0, math.Min(1, t))
	return color.RGBA{
		R: uint8(255 * t),
		G: uint8(80 * (1 - math.Abs(2*t-1))),
		B: uint8(255 * (1 - t)),
		A: 255,
	}
}
