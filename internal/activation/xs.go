package activation

import (
	"bufio"
	"embed"
	"fmt"
	"strconv"
	"strings"

	"dosedelta/internal/derr"
)

//go:embed data/xs
var xsFS embed.FS

// Reaction is an activation channel from a parent isotope to a product
// nuclide, short-name forms ("co59" -> "co60m").
type Reaction struct {
	Parent  string
	Product string
}

// Reactions lists the activation channels available in the bundled cross
// section file for an element.
func Reactions(element string) ([]Reaction, error) {
	lines, err := xsLines(element)
	if err != nil {
		return nil, err
	}
	var reactions []Reaction
	for _, line := range lines {
		if p, q, ok := parseReactionHeader(line); ok {
			reactions = append(reactions, Reaction{Parent: p, Product: q})
		}
	}
	if len(reactions) == 0 {
		return nil, derr.Validationf("cross section file for %q declares no reactions", element)
	}
	return reactions, nil
}

// CrossSection extracts the per-group cross section (barns) for one reaction
// channel from the bundled file for the element.
func CrossSection(element, parent, product string) ([]float64, error) {
	lines, err := xsLines(element)
	if err != nil {
		return nil, err
	}
	var (
		values []float64
		found  bool
	)
	for _, line := range lines {
		if p, q, ok := parseReactionHeader(line); ok {
			if found {
				break
			}
			found = p == parent && q == product
			continue
		}
		if !found {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			break
		}
		if len(fields) == 3 {
			v, err := strconv.ParseFloat(fields[2], 64)
			if err != nil {
				return nil, derr.Validationf("cross section file for %q: bad value %q in reaction %s -> %s",
					element, fields[2], parent, product)
			}
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return nil, derr.Domainf("no cross section data for reaction %s -> %s of element %q", parent, product, element)
	}
	return values, nil
}

func xsLines(element string) ([]string, error) {
	name := fmt.Sprintf("data/xs/%s.xs", strings.ToLower(element))
	f, err := xsFS.Open(name)
	if err != nil {
		return nil, derr.Domainf("no bundled cross section data for element %q", element)
	}
	defer f.Close()

	var lines []string
	scan := bufio.NewScanner(f)
	for scan.Scan() {
		lines = append(lines, scan.Text())
	}
	return lines, scan.Err()
}

// parseReactionHeader recognizes lines of the form
// "parent (n,x) product" and returns the parent and product names.
func parseReactionHeader(line string) (parent, product string, ok bool) {
	if !strings.Contains(line, "(") || !strings.Contains(line, ")") {
		return "", "", false
	}
	fields := strings.Fields(strings.TrimSpace(line))
	if len(fields) != 3 || !strings.HasPrefix(fields[1], "(") {
		return "", "", false
	}
	return fields[0], fields[2], true
}
