package activation

import (
	"go.uber.org/zap"

	"dosedelta/internal/derr"
)

// barnToCm2 converts microscopic cross sections from barns to cm².
const barnToCm2 = 1e-24

// Collapse folds a per-group cross section with a flux spectrum into the
// flux-weighted effective cross section, sigma_eff = sum(sigma*phi)/sum(phi).
// An all-zero spectrum collapses to zero.
func Collapse(xs, spectrum []float64, log *zap.Logger) (float64, error) {
	if len(xs) != len(spectrum) {
		return 0, derr.Unitf("cross section has %d groups but flux spectrum has %d", len(xs), len(spectrum))
	}
	total := 0.0
	weighted := 0.0
	for g := range xs {
		total += spectrum[g]
		weighted += xs[g] * spectrum[g]
	}
	if total == 0 {
		if log != nil {
			log.Warn("flux is zero in all energy bins at the selected location")
		}
		return 0, nil
	}
	return weighted / total, nil
}

// ReactionRate converts an effective cross section (barns) and a flux
// spectrum into a per-atom reaction rate (1/s). The impurity deviation is
// already folded into the atom count, so the rate is deviation-independent.
func ReactionRate(sigmaEff float64, spectrum []float64) float64 {
	total := 0.0
	for _, phi := range spectrum {
		total += phi
	}
	return sigmaEff * total * barnToCm2
}
