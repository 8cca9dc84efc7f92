package dose

import (
	"math"

	"dosedelta/internal/mesh"
)

// PointRate evaluates the unshielded point kernel: dose rate at p from a
// point source term at src, inverse-square in vacuum with no buildup.
//
// The r=0 singularity is handled with a minimum-distance floor: r is clamped
// to rMin (half the smallest cell pitch of the target mesh), so the cell
// containing the source reads a finite maximum instead of NaN and the field
// stays monotone away from the source.
func PointRate(term float64, src, p mesh.Vec3, rMin float64) float64 {
	r := p.Sub(src).Norm()
	if r < rMin {
		r = rMin
	}
	return term / (4 * math.Pi * r * r)
}

// LineRate evaluates the closed-form line kernel: dose rate at p from a
// segment a-b carrying the source term uniformly along its length,
// rate = (term/L) · θ / (4π·w), with θ the angle the segment subtends at p
// and w the perpendicular distance from p to the carrying line. A point on
// the carrying line (w = 0) reads the per-length term directly.
func LineRate(term float64, a, b, p mesh.Vec3) float64 {
	ab := b.Sub(a)
	length := ab.Norm()
	perLength := term / length

	toA := a.Sub(p)
	toB := b.Sub(p)
	normA := toA.Norm()
	normB := toB.Norm()
	if normA == 0 || normB == 0 {
		return perLength
	}

	cos := toA.Dot(toB) / (normA * normB)
	cos = math.Max(-1, math.Min(1, cos))
	theta := math.Acos(cos)

	w := ab.Cross(p.Sub(a)).Norm() / length
	if w == 0 {
		return perLength
	}
	return perLength * theta / (4 * math.Pi * w)
}
