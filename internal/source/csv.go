package source

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"dosedelta/internal/derr"
)

// The recognized sources CSV column sets: a point block, optionally extended
// to a line block, each optionally extended with a mass column.
var recognizedColumnSets = [][]string{
	{"x1", "y1", "z1"},
	{"x1", "y1", "z1", "m"},
	{"x1", "y1", "z1", "x2", "y2", "z2"},
	{"x1", "y1", "z1", "x2", "y2", "z2", "m"},
}

// readSourcesCSV parses a sources CSV into the inline representation. The
// header must declare exactly one of the recognized column sets, in any
// column order.
func readSourcesCSV(path string) (*Inline, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening sources CSV: %w", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, derr.Wrap(derr.KindValidation, err, "sources CSV %s is malformed", path)
	}
	if len(records) < 2 {
		return nil, derr.Validationf("sources CSV %s has no data rows", path)
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = strings.ToLower(strings.TrimSpace(h))
	}
	if err := checkColumnSet(path, header); err != nil {
		return nil, err
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[h] = i
	}

	in := &Inline{}
	for rowNum, row := range records[1:] {
		if len(row) != len(header) {
			return nil, derr.Validationf("sources CSV %s row %d has %d fields, expected %d",
				path, rowNum+2, len(row), len(header))
		}
		get := func(name string) (float64, error) {
			v, err := strconv.ParseFloat(strings.TrimSpace(row[col[name]]), 64)
			if err != nil {
				return 0, derr.Validationf("sources CSV %s row %d: non-numeric %s value %q",
					path, rowNum+2, name, row[col[name]])
			}
			return v, nil
		}

		for _, spec := range []struct {
			name string
			dst  *[]float64
		}{
			{"x1", &in.X1}, {"y1", &in.Y1}, {"z1", &in.Z1},
			{"x2", &in.X2}, {"y2", &in.Y2}, {"z2", &in.Z2},
			{"m", &in.M},
		} {
			if _, ok := col[spec.name]; !ok {
				continue
			}
			v, err := get(spec.name)
			if err != nil {
				return nil, err
			}
			*spec.dst = append(*spec.dst, v)
		}
	}
	return in, nil
}

func checkColumnSet(path string, header []string) error {
	sorted := append([]string(nil), header...)
	sort.Strings(sorted)
	for _, set := range recognizedColumnSets {
		want := append([]string(nil), set...)
		sort.Strings(want)
		if equalStrings(sorted, want) {
			return nil
		}
	}
	var expected []string
	for _, set := range recognizedColumnSets {
		expected = append(expected, "{"+strings.Join(set, ",")+"}")
	}
	return derr.Validationf("sources CSV %s has columns {%s}; expected one of %s",
		path, strings.Join(header, ","), strings.Join(expected, ", "))
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
