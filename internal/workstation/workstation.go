// Package workstation resolves named maintenance workstations to reference
// volumes and reports per-workstation dose deviations extracted from a dose
// field.
package workstation

import (
	_ "embed"
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	"dosedelta/internal/derr"
	"dosedelta/internal/field"
	"dosedelta/internal/mesh"
)

// Wildcard selects every workstation of a location.
const Wildcard = "all"

//go:embed data/workstations.csv
var workstationsCSV string

// Station is one named workstation volume at a location.
type Station struct {
	Location string
	Name     string
	Box      mesh.Box
}

var (
	tableOnce sync.Once
	table     []Station
)

func stations() []Station {
	tableOnce.Do(func() {
		rows, err := csv.NewReader(strings.NewReader(workstationsCSV)).ReadAll()
		if err != nil {
			panic(fmt.Sprintf("bundled workstation table is malformed: %v", err))
		}
		for _, row := range rows[1:] {
			nums := make([]float64, 6)
			for i := range nums {
				nums[i], _ = strconv.ParseFloat(row[i+2], 64)
			}
			table = append(table, Station{
				Location: row[0],
				Name:     row[1],
				Box: mesh.Box{
					Min: mesh.Vec3{X: nums[0], Y: nums[2], Z: nums[4]},
					Max: mesh.Vec3{X: nums[1], Y: nums[3], Z: nums[5]},
				},
			})
		}
	})
	return table
}

// Locations returns the known location names, sorted.
func Locations() []string {
	seen := map[string]bool{}
	var names []string
	for _, s := range stations() {
		if !seen[s.Location] {
			seen[s.Location] = true
			names = append(names, s.Location)
		}
	}
	sort.Strings(names)
	return names
}

// Lookup resolves a location plus workstation name (or Wildcard) to the
// matching stations in table order. Unknown names are lookup errors naming
// the available set.
func Lookup(location, workstation string) ([]Station, error) {
	location = strings.ToLower(strings.TrimSpace(location))
	workstation = strings.ToLower(strings.TrimSpace(workstation))

	var atLocation []Station
	for _, s := range stations() {
		if s.Location == location {
			atLocation = append(atLocation, s)
		}
	}
	if len(atLocation) == 0 {
		return nil, derr.Lookupf("no matching location found for %q; available locations: %s",
			location, strings.Join(Locations(), ", "))
	}
	if workstation == Wildcard {
		return atLocation, nil
	}

	var names []string
	for _, s := range atLocation {
		if s.Name == workstation {
			return []Station{s}, nil
		}
		names = append(names, s.Name)
	}
	return nil, derr.Lookupf("no workstation %q at location %q; available workstations: %s",
		workstation, location, strings.Join(names, ", "))
}

// ReportRow is one line of a workstation dose report.
type ReportRow struct {
	Workstation string
	Dose        float64
}

// Report extracts the maximum dose deviation within each station's volume.
func Report(f *field.Field, list []Station) ([]ReportRow, error) {
	rows := make([]ReportRow, 0, len(list))
	for _, s := range list {
		dose, _, err := f.MaxInBox(s.Box)
		if err != nil {
			return nil, err
		}
		rows = append(rows, ReportRow{Workstation: s.Name, Dose: dose})
	}
	return rows, nil
}

// WriteReport writes the rows as a CSV with the dose in scientific notation.
func WriteReport(path string, rows []ReportRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"Workstation", "Delta Dose (micro Sieverts per hour)"}); err != nil {
		return err
	}
	for _, row := range rows {
		if err := w.Write([]string{row.Workstation, fmt.Sprintf("%.3e", row.Dose)}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
