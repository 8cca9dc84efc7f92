package mesh

import (
	"encoding/xml"
	"fmt"
	"os"
	"strconv"
	"strings"

	"dosedelta/internal/derr"
)

// NamedArray is one scalar cell array of a VTR file, insertion-ordered.
type NamedArray struct {
	Name   string
	Values []float64
}

// VTK XML RectilinearGrid document, ascii encoded arrays only. The subset
// written here matches what pyevtk/pyvista style mesh tools produce and
// consume for structured dose and flux maps.
type vtkFile struct {
	XMLName   xml.Name `xml:"VTKFile"`
	Type      string   `xml:"type,attr"`
	Version   string   `xml:"version,attr"`
	ByteOrder string   `xml:"byte_order,attr"`
	Grid      vtkGrid  `xml:"RectilinearGrid"`
}

type vtkGrid struct {
	WholeExtent string   `xml:"WholeExtent,attr"`
	Piece       vtkPiece `xml:"Piece"`
}

type vtkPiece struct {
	Extent      string       `xml:"Extent,attr"`
	Coordinates vtkArrayList `xml:"Coordinates"`
	CellData    vtkArrayList `xml:"CellData"`
}

type vtkArrayList struct {
	Arrays []vtkArray `xml:"DataArray"`
}

type vtkArray struct {
	Type   string `xml:"type,attr"`
	Name   string `xml:"Name,attr"`
	Format string `xml:"format,attr"`
	Data   string `xml:",chardata"`
}

// ReadVTR loads a rectilinear mesh and all of its cell arrays from a VTK XML
// file. Array order follows document order.
func ReadVTR(path string) (*Rect, []NamedArray, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading vtr: %w", err)
	}
	var doc vtkFile
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return nil, nil, derr.Wrap(derr.KindValidation, err, "%s is not a VTK XML file", path)
	}
	if doc.Type != "RectilinearGrid" {
		return nil, nil, derr.Validationf("%s: unsupported VTK grid type %q, expected RectilinearGrid", path, doc.Type)
	}

	axes := map[string][]float64{}
	for _, a := range doc.Grid.Piece.Coordinates.Arrays {
		vals, err := parseFloats(a.Data)
		if err != nil {
			return nil, nil, derr.Wrap(derr.KindValidation, err, "%s: coordinate array %q", path, a.Name)
		}
		axes[strings.ToLower(a.Name)] = vals
	}
	r := &Rect{X: axes["x"], Y: axes["y"], Z: axes["z"]}
	if err := r.validate(); err != nil {
		return nil, nil, err
	}

	var arrays []NamedArray
	for _, a := range doc.Grid.Piece.CellData.Arrays {
		vals, err := parseFloats(a.Data)
		if err != nil {
			return nil, nil, derr.Wrap(derr.KindValidation, err, "%s: cell array %q", path, a.Name)
		}
		if len(vals) != r.NumCells() {
			return nil, nil, derr.Unitf("%s: cell array %q has %d values for a %d-cell mesh",
				path, a.Name, len(vals), r.NumCells())
		}
		arrays = append(arrays, NamedArray{Name: a.Name, Values: vals})
	}
	return r, arrays, nil
}

// WriteVTR serializes the mesh and cell arrays as an ascii VTK XML file.
func WriteVTR(path string, r *Rect, arrays []NamedArray) error {
	if err := r.validate(); err != nil {
		return err
	}
	for _, a := range arrays {
		if len(a.Values) != r.NumCells() {
			return derr.Unitf("cell array %q has %d values for a %d-cell mesh", a.Name, len(a.Values), r.NumCells())
		}
	}

	extent := fmt.Sprintf("0 %d 0 %d 0 %d", r.NX(), r.NY(), r.NZ())
	doc := vtkFile{
		Type:      "RectilinearGrid",
		Version:   "0.1",
		ByteOrder: "LittleEndian",
		Grid: vtkGrid{
			WholeExtent: extent,
			Piece: vtkPiece{
				Extent: extent,
				Coordinates: vtkArrayList{Arrays: []vtkArray{
					coordArray("x", r.X),
					coordArray("y", r.Y),
					coordArray("z", r.Z),
				}},
			},
		},
	}
	for _, a := range arrays {
		doc.Grid.Piece.CellData.Arrays = append(doc.Grid.Piece.CellData.Arrays, vtkArray{
			Type: "Float64", Name: a.Name, Format: "ascii", Data: formatFloats(a.Values),
		})
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling vtr: %w", err)
	}
	return os.WriteFile(path, append([]byte(xml.Header), out...), 0o644)
}

func coordArray(name string, vals []float64) vtkArray {
	return vtkArray{Type: "Float64", Name: name, Format: "ascii", Data: formatFloats(vals)}
}

func parseFloats(s string) ([]float64, error) {
	fields := strings.Fields(s)
	vals := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("bad float %q", f)
		}
		vals = append(vals, v)
	}
	return vals, nil
}

func formatFloats(vals []float64) string {
	var b strings.Builder
	for i, v := range vals {
		if i > 0 {
			b.WriteByte(' ')
		}
		// Shortest exact representation so fields round-trip bit for bit.
		b.WriteString(strconv.FormatFloat(v, 'e', -1, 64))
	}
	return b.String()
}
