package activation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dosedelta/internal/derr"
)

func TestUnstable(t *testing.T) {
	lambda, ok := Unstable("Ta182")
	require.True(t, ok)
	assert.InEpsilon(t, math.Ln2/9.91354e6, lambda, 1e-12)

	_, ok = Unstable("W182")
	assert.False(t, ok)
	_, ok = Unstable("Xx999")
	assert.False(t, ok)
}

func TestBateman_SingleNuclide(t *testing.T) {
	lambda := math.Ln2 / 100
	got := bateman([]float64{lambda}, 100, 1e6)
	assert.InEpsilon(t, 5e5, got, 1e-9)
}

func TestBateman_CoincidentConstants(t *testing.T) {
	// Equal parent and daughter constants: the exact two-member solution is
	// n0 * lambda * t * exp(-lambda*t).
	lambda := math.Ln2 / 100
	got := bateman([]float64{lambda, lambda}, 100, 1e6)
	require.False(t, math.IsNaN(got))
	require.False(t, math.IsInf(got, 0))
	assert.InEpsilon(t, 1e6*lambda*100*math.Exp(-lambda*100), got, 1e-4)
}

func TestBateman_AccumulatingTail(t *testing.T) {
	// A zero trailing constant means nothing is removed from the head.
	assert.Equal(t, 1e6, bateman([]float64{0}, 1e9, 1e6))
}

// taParents builds a single Ta181 parent with one transmutation channel into
// Ta182 at the given per-atom rate.
func taParents(rate float64) (map[string]Parent, []string) {
	return map[string]Parent{
		"Ta181": {
			Atoms:    1e20,
			Channels: map[string]float64{"Ta182": rate},
			Products: []string{"Ta182"},
		},
	}, []string{"Ta181"}
}

func TestTotalActivity_DecayLaw(t *testing.T) {
	parents, order := taParents(1e-12)
	sc := &Scenario{Name: "test", Times: []float64{3600}, Fluxes: []float64{1}}

	fresh, err := TotalActivity(parents, order, sc, 0)
	require.NoError(t, err)
	require.Contains(t, fresh, "Ta182")
	require.Greater(t, fresh["Ta182"], 0.0)

	halfLife := 9.91354e6
	cooled, err := TotalActivity(parents, order, sc, halfLife)
	require.NoError(t, err)
	assert.InEpsilon(t, 0.5*fresh["Ta182"], cooled["Ta182"], 1e-9)
}

func TestTotalActivity_ZeroFluxProducesNothing(t *testing.T) {
	parents, order := taParents(1e-12)
	sc := &Scenario{Name: "test", Times: []float64{3600}, Fluxes: []float64{0}}

	activities, err := TotalActivity(parents, order, sc, 0)
	require.NoError(t, err)
	assert.Zero(t, activities["Ta182"])
}

func TestTotalActivity_NegativeDecayTime(t *testing.T) {
	parents, order := taParents(1e-12)
	sc := &Scenario{Name: "test", Times: []float64{3600}, Fluxes: []float64{1}}

	_, err := TotalActivity(parents, order, sc, -1)
	assert.True(t, derr.IsKind(err, derr.KindValidation))
}

func TestTotalActivity_UnknownProduct(t *testing.T) {
	parents := map[string]Parent{
		"Ta181": {Atoms: 1, Channels: map[string]float64{"Xx999": 1e-12}, Products: []string{"Xx999"}},
	}
	sc := &Scenario{Name: "test", Times: []float64{1}, Fluxes: []float64{1}}

	_, err := TotalActivity(parents, []string{"Ta181"}, sc, 0)
	assert.True(t, derr.IsKind(err, derr.KindDomain))
}
