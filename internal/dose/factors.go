// Package dose implements the unshielded point/line dose kernels and the
// mesh integrator that turns source activities into dose-rate fields.
package dose

import (
	_ "embed"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"dosedelta/internal/activation"
	"dosedelta/internal/derr"
	"dosedelta/internal/nuclide"
)

// svToMicroSv converts the dose factor table (Sv) into the reported
// microsievert scale.
const svToMicroSv = 1e6

//go:embed data/dosefactors.csv
var doseFactorsCSV string

var (
	factorsOnce sync.Once
	factors     map[string]float64
)

func factorTable() map[string]float64 {
	factorsOnce.Do(func() {
		rows, err := csv.NewReader(strings.NewReader(doseFactorsCSV)).ReadAll()
		if err != nil {
			panic(fmt.Sprintf("bundled dose factor table is malformed: %v", err))
		}
		factors = make(map[string]float64, len(rows)-1)
		for _, row := range rows[1:] {
			v, _ := strconv.ParseFloat(row[1], 64)
			factors[row[0]] = v
		}
	})
	return factors
}

// Factor returns the dose conversion factor for a nuclide,
// Sv·cm²/(h·Bq) at unit distance in vacuum. Accepts any nuclide name form.
func Factor(name string) (float64, error) {
	display, err := nuclide.Normalize(name)
	if err != nil {
		return 0, err
	}
	f, ok := factorTable()[display]
	if !ok {
		return 0, derr.Domainf("dose conversion factor not found for nuclide %s", display)
	}
	return f, nil
}

// SourceTerm folds per-nuclide activities into the scalar source term of the
// dose kernels, µSv·cm²/h per gram of component: the sum over nuclides and
// line samples of activity times dose factor. Nuclides absent from the dose
// factor table are an error rather than a silent omission.
func SourceTerm(activities activation.Activities) (float64, error) {
	if len(activities) == 0 {
		return 0, derr.Validationf("no activities to convert to dose")
	}
	term := 0.0
	for _, name := range activities.Nuclides() {
		f, err := Factor(name)
		if err != nil {
			return 0, err
		}
		for _, act := range activities[name] {
			term += f * act * svToMicroSv
		}
	}
	return term, nil
}
