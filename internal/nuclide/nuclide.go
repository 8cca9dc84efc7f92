// Package nuclide handles nuclide naming and the bundled isotope table
// (naturally occurring isotopes with atomic weights and abundances).
//
// Two name forms circulate in the data files: the display form used by the
// dose factor table ("Co60m") and the padded form used by the decay data
// ("Co060m"). Both derive from the same (symbol, mass, suffix) triple.
package nuclide

import (
	_ "embed"
	"encoding/csv"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"dosedelta/internal/derr"
)

// Avogadro constant, atoms per mole.
const Avogadro = 6.02214076e23

//go:embed data/isotopes.csv
var isotopesCSV string

// Isotope is one row of the bundled isotope table.
type Isotope struct {
	Symbol       string
	MassNumber   int
	AtomicWeight float64
	Abundance    float64
}

var (
	tableOnce sync.Once
	table     []Isotope
	nameRe    = regexp.MustCompile(`^([A-Za-z]+)(\d+)([mn]?)$`)
)

func isotopes() []Isotope {
	tableOnce.Do(func() {
		r := csv.NewReader(strings.NewReader(isotopesCSV))
		rows, err := r.ReadAll()
		if err != nil {
			panic(fmt.Sprintf("bundled isotope table is malformed: %v", err))
		}
		for _, row := range rows[1:] {
			mass, _ := strconv.Atoi(row[1])
			weight, _ := strconv.ParseFloat(row[2], 64)
			abundance, _ := strconv.ParseFloat(row[3], 64)
			table = append(table, Isotope{
				Symbol:       row[0],
				MassNumber:   mass,
				AtomicWeight: weight,
				Abundance:    abundance,
			})
		}
	})
	return table
}

// Split breaks a nuclide name into symbol, mass number and metastable suffix.
func Split(name string) (symbol string, mass int, suffix string, err error) {
	m := nameRe.FindStringSubmatch(name)
	if m == nil {
		return "", 0, "", derr.Validationf("malformed nuclide name %q", name)
	}
	mass, _ = strconv.Atoi(m[2])
	return strings.ToLower(m[1]), mass, m[3], nil
}

// Normalize returns the display form, e.g. "co060m" -> "Co60m".
func Normalize(name string) (string, error) {
	symbol, mass, suffix, err := Split(name)
	if err != nil {
		return "", err
	}
	return title(symbol) + strconv.Itoa(mass) + suffix, nil
}

// LongName returns the padded form used by the decay data, e.g. "co60m" ->
// "Co060m".
func LongName(name string) (string, error) {
	symbol, mass, suffix, err := Split(name)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%03d%s", title(symbol), mass, suffix), nil
}

func title(symbol string) string {
	if symbol == "" {
		return symbol
	}
	return strings.ToUpper(symbol[:1]) + strings.ToLower(symbol[1:])
}

// NaturalIsotopes returns the short names of the naturally occurring isotopes
// of an element, table order, e.g. "ta" -> ["ta180", "ta181"].
func NaturalIsotopes(element string) ([]string, error) {
	element = strings.ToLower(element)
	var names []string
	for _, iso := range isotopes() {
		if iso.Symbol == element && iso.Abundance > 0 {
			names = append(names, fmt.Sprintf("%s%d", iso.Symbol, iso.MassNumber))
		}
	}
	if len(names) == 0 {
		return nil, derr.Domainf("element %q is not in the bundled isotope table", element)
	}
	return names, nil
}

// AtomicWeight returns the standard atomic weight of an isotope, g/mol.
func AtomicWeight(isotope string) (float64, error) {
	symbol, mass, _, err := Split(isotope)
	if err != nil {
		return 0, err
	}
	for _, iso := range isotopes() {
		if iso.Symbol == symbol && iso.MassNumber == mass {
			return iso.AtomicWeight, nil
		}
	}
	return 0, derr.Domainf("no isotope table entry for %s-%d", symbol, mass)
}

// Atoms returns the number of impurity atoms per gram of component for a
// fractional impurity deviation given in percent. The activation response is
// linear in the deviation, so the deviation enters here and nowhere else.
func Atoms(isotope string, deltaPct float64) (float64, error) {
	weight, err := AtomicWeight(isotope)
	if err != nil {
		return 0, err
	}
	return (deltaPct / 100) * Avogadro / weight, nil
}
