package activation

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"dosedelta/internal/derr"
	"dosedelta/internal/nuclide"
)

// Activities maps long nuclide names to per-sample activity in Bq per gram of
// component. Point sources have a single sample; line sources carry one
// sample per flux cell intersected along the line.
type Activities map[string][]float64

// Nuclides returns the nuclide names in deterministic order.
func (a Activities) Nuclides() []string {
	names := make([]string, 0, len(a))
	for n := range a {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Scale returns a copy with every activity multiplied by k.
func (a Activities) Scale(k float64) Activities {
	out := make(Activities, len(a))
	for n, samples := range a {
		scaled := make([]float64, len(samples))
		for i, v := range samples {
			scaled[i] = v * k
		}
		out[n] = scaled
	}
	return out
}

// ReadActivitiesFile parses a user supplied activity table, one
// "<nuclide> <activity Bq/g>" pair per line. It substitutes the whole
// activation stage, so flux, scenario and decay-time inputs are not needed
// alongside it.
func ReadActivitiesFile(path string) (Activities, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening activities file: %w", err)
	}
	defer f.Close()

	activities := make(Activities)
	scan := bufio.NewScanner(f)
	line := 0
	for scan.Scan() {
		line++
		text := strings.TrimSpace(scan.Text())
		if text == "" {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) != 2 {
			return nil, derr.Validationf("%s:%d: expected \"<nuclide> <activity>\", got %q", path, line, text)
		}
		name, err := nuclide.LongName(fields[0])
		if err != nil {
			return nil, derr.Validationf("%s:%d: %v", path, line, err)
		}
		value, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, derr.Validationf("%s:%d: non-numeric activity %q", path, line, fields[1])
		}
		activities[name] = []float64{value}
	}
	if err := scan.Err(); err != nil {
		return nil, fmt.Errorf("reading activities file: %w", err)
	}
	if len(activities) == 0 {
		return nil, derr.Validationf("activities file %s is empty", path)
	}
	return activities, nil
}
