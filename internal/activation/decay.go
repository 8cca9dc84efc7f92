package activation

import (
	_ "embed"
	"encoding/json"
	"math"
	"sort"
	"sync"

	"dosedelta/internal/derr"
)

//go:embed data/decay.json
var decayJSON []byte

// decayEntry is one nuclide of the bundled decay data, padded long names.
// Stable nuclides carry no half-life.
type decayEntry struct {
	Name         string    `json:"name"`
	HalfLifeSecs *float64  `json:"half_life_secs,omitempty"`
	BR           []float64 `json:"BR,omitempty"`
	Daughters    []string  `json:"Decay_daughter_names,omitempty"`
}

var (
	decayOnce sync.Once
	decayData map[string]decayEntry
)

func decayTable() map[string]decayEntry {
	decayOnce.Do(func() {
		var entries []decayEntry
		if err := json.Unmarshal(decayJSON, &entries); err != nil {
			panic("bundled decay data is malformed: " + err.Error())
		}
		decayData = make(map[string]decayEntry, len(entries))
		for _, e := range entries {
			decayData[e.Name] = e
		}
	})
	return decayData
}

// Unstable reports whether the decay data knows nuclide as radioactive, and
// its total decay constant if so.
func Unstable(nuclide string) (lambda float64, ok bool) {
	e, found := decayTable()[nuclide]
	if !found || e.HalfLifeSecs == nil {
		return 0, false
	}
	return math.Ln2 / *e.HalfLifeSecs, true
}

// chainNode is one nuclide in a decay network prepared for a specific parent
// under irradiation. lambdas[0] is the total removal constant; lambdas[i>0]
// pair with daughters[i] as per-channel constants. For the activated parent
// the channels are its transmutation reaction rates rather than decays, and
// they scale with the pulse flux.
type chainNode struct {
	lambdas   []float64
	daughters []string
}

// decayNetwork holds the per-parent chain nodes for one activation
// calculation. parentBase keeps the unscaled reaction-rate lambdas that each
// pulse rescales by its relative flux.
type decayNetwork struct {
	parent     string
	nodes      map[string]*chainNode
	parentBase []float64
}

// newDecayNetwork builds the chain nodes for a parent isotope with the given
// transmutation channels (product long name -> per-atom reaction rate).
func newDecayNetwork(parent string, channels map[string]float64, products []string) (*decayNetwork, error) {
	table := decayTable()
	if _, ok := table[parent]; !ok {
		return nil, derr.Domainf("parent nuclide %s is not in the bundled decay data", parent)
	}

	net := &decayNetwork{parent: parent, nodes: make(map[string]*chainNode)}
	for name, e := range table {
		if e.HalfLifeSecs == nil {
			continue
		}
		total := math.Ln2 / *e.HalfLifeSecs
		node := &chainNode{
			lambdas:   []float64{total},
			daughters: []string{name},
		}
		for i, br := range e.BR {
			node.lambdas = append(node.lambdas, br*total)
			node.daughters = append(node.daughters, e.Daughters[i])
		}
		net.nodes[name] = node
	}

	// The parent transmutes by activation, not decay: channel order follows
	// the caller's product order so identical inputs always walk the network
	// identically.
	parentNode := &chainNode{lambdas: []float64{0}, daughters: []string{parent}}
	total := 0.0
	for _, product := range products {
		if _, ok := table[product]; !ok {
			return nil, derr.Domainf("product nuclide %s is not in the bundled decay data", product)
		}
		rate := channels[product]
		total += rate
		parentNode.lambdas = append(parentNode.lambdas, rate)
		parentNode.daughters = append(parentNode.daughters, product)
	}
	parentNode.lambdas[0] = total
	net.nodes[parent] = parentNode
	net.parentBase = append([]float64(nil), parentNode.lambdas...)
	return net, nil
}

// scaleParent rescales the parent's transmutation constants by the relative
// flux of the current pulse.
func (net *decayNetwork) scaleParent(relFlux float64) {
	node := net.nodes[net.parent]
	for i := range node.lambdas {
		node.lambdas[i] = net.parentBase[i] * relFlux
	}
}

// bateman evaluates the chain solution for the last nuclide of a linear chain
// with removal constants lams after time t, starting from n0 atoms of the
// chain head. A zero trailing constant means the nuclide only accumulates.
func bateman(lams []float64, t, n0 float64) float64 {
	last := lams[len(lams)-1]
	if last == 0 {
		return n0
	}
	lams = distinct(lams)
	sum := 0.0
	for i, li := range lams {
		alpha := 1.0
		for j, lj := range lams {
			if i != j {
				alpha *= lj / (lj - li)
			}
		}
		sum += li * alpha * math.Exp(-li*t)
	}
	return n0 * sum / last
}

// distinct nudges coincident removal constants apart; the partial-fraction
// expansion divides by pairwise differences, so equal constants would turn
// the whole chain into NaN. The perturbation sits far below the precision of
// the half-life data.
func distinct(lams []float64) []float64 {
	out := append([]float64(nil), lams...)
	for i := 1; i < len(out); i++ {
		for contains(out[:i], out[i]) {
			if out[i] == 0 {
				out[i] = 1e-300
			} else {
				out[i] *= 1 + 1e-9
			}
		}
	}
	return out
}

func contains(vals []float64, v float64) bool {
	for _, x := range vals {
		if x == v {
			return true
		}
	}
	return false
}

// irradiate walks the decay network below nuclide for one pulse of length t,
// returning the atoms of every nuclide reached. chain carries the removal
// constants from the pulse-start nuclide down to the current one.
func (net *decayNetwork) irradiate(t, n0 float64, nuclide string, chain []float64) map[string]float64 {
	out := map[string]float64{nuclide: bateman(chain, t, n0)}

	node := net.nodes[nuclide]
	for i := 1; i < len(node.lambdas); i++ {
		daughter := node.daughters[i]
		dn, ok := net.nodes[daughter]
		// Stable daughters end the chain; so does reaching back to the
		// parent, which cannot be re-produced by decay.
		if !ok || daughter == net.parent {
			continue
		}
		next := make([]float64, len(chain)+1)
		copy(next, chain)
		next[len(chain)-1] = node.lambdas[i]
		next[len(chain)] = dn.lambdas[0]
		for name, atoms := range net.irradiate(t, n0, daughter, next) {
			out[name] += atoms
		}
	}
	return out
}

// inventoryAfter runs the full irradiation scenario and returns the atoms of
// every nuclide present at the end.
func (net *decayNetwork) inventoryAfter(sc *Scenario, parentAtoms float64) map[string]float64 {
	inventory := map[string]float64{net.parent: parentAtoms}
	for p := range sc.Times {
		net.scaleParent(sc.Fluxes[p])
		next := make(map[string]float64)
		// Sorted walk keeps the floating-point accumulation order, and so
		// the result bits, identical across runs.
		for _, nuclide := range sortedKeys(inventory) {
			chain := []float64{net.nodes[nuclide].lambdas[0]}
			for name, n := range net.irradiate(sc.Times[p], inventory[nuclide], nuclide, chain) {
				next[name] += n
			}
		}
		inventory = next
	}
	return inventory
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Parent describes one activated parent isotope: its atom count per gram of
// component and the per-atom reaction rates per product (long names).
type Parent struct {
	Atoms    float64
	Channels map[string]float64
	// Products fixes the channel iteration order.
	Products []string
}

// TotalActivity runs the scenario plus decay time for every parent and
// returns the activity of each unstable nuclide in Bq per gram of component.
func TotalActivity(parents map[string]Parent, parentOrder []string, sc *Scenario, decayTime float64) (map[string]float64, error) {
	if decayTime < 0 {
		return nil, derr.Validationf("decay time must be non-negative, got %g", decayTime)
	}
	full := sc.withDecay(decayTime)

	activities := make(map[string]float64)
	for _, parent := range parentOrder {
		p := parents[parent]
		net, err := newDecayNetwork(parent, p.Channels, p.Products)
		if err != nil {
			return nil, err
		}
		inventory := net.inventoryAfter(full, p.Atoms)
		for _, nuclide := range sortedKeys(inventory) {
			if lambda, ok := Unstable(nuclide); ok {
				activities[nuclide] += inventory[nuclide] * lambda
			}
		}
	}
	return activities, nil
}
