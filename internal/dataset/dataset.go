package dataset

import (
	"fmt"
	"slices"
)

// Dimension names that mark the structural mode of an Argo dataset.
const (
	DimIndex   = "index"
	DimProf    = "N_PROF"
	DimLevels  = "N_LEVELS"
	HistoryKey = "history"
)

// Mode is the structural layout of a dataset.
type Mode int

const (
	Unknown Mode = iota
	// Point datasets have one flat "index" dimension of observations.
	Point
	// Profile datasets have an N_PROF x N_LEVELS grid.
	Profile
)

func (m Mode) String() string {
	switch m {
	case Point:
		return "point"
	case Profile:
		return "profile"
	default:
		return "unknown"
	}
}

// ParseMode accepts "point" or "profile".
func ParseMode(s string) (Mode, error) {
	switch s {
	case "point":
		return Point, nil
	case "profile":
		return Profile, nil
	default:
		return Unknown, fmt.Errorf("unknown dataset form %q (want point or profile)", s)
	}
}

// Dataset is a set of named variables over shared named dimensions, with
// global attributes, low-level encoding hints and a structural mode.
// Variable order is explicit and preserved by every operation.
type Dataset struct {
	names    []string
	vars     map[string]*Variable
	dimNames []string
	dims     map[string]int
	coords   map[string]bool
	attrs    *Attrs
	encoding *Attrs
	mode     Mode
}

// New returns an empty dataset in Unknown mode.
func New() *Dataset {
	return &Dataset{
		vars:     make(map[string]*Variable),
		dims:     make(map[string]int),
		coords:   make(map[string]bool),
		attrs:    NewAttrs(),
		encoding: NewAttrs(),
	}
}

func (d *Dataset) Attrs() *Attrs    { return d.attrs }
func (d *Dataset) Encoding() *Attrs { return d.encoding }
func (d *Dataset) Mode() Mode       { return d.mode }
func (d *Dataset) SetMode(m Mode)   { d.mode = m }

// SetDim declares a dimension. Redeclaring an existing dimension changes its
// length without checking the variables that use it.
func (d *Dataset) SetDim(name string, n int) {
	if _, ok := d.dims[name]; !ok {
		d.dimNames = append(d.dimNames, name)
	}
	d.dims[name] = n
}

// Dims returns the dimension names in declaration order.
func (d *Dataset) Dims() []string { return slices.Clone(d.dimNames) }

// DimLen returns the length of dim.
func (d *Dataset) DimLen(dim string) (int, bool) {
	n, ok := d.dims[dim]
	return n, ok
}

// HasDim reports whether dim is declared.
func (d *Dataset) HasDim(dim string) bool {
	_, ok := d.dims[dim]
	return ok
}

// Set adds or replaces a variable. Its dimensions are declared if new and
// must match the declared lengths otherwise. A replaced variable keeps its
// position.
func (d *Dataset) Set(v *Variable) error {
	for i, dim := range v.dims {
		if n, ok := d.dims[dim]; ok && n != v.shape[i] {
			return fmt.Errorf("variable %s: dimension %s has length %d, dataset has %d", v.name, dim, v.shape[i], n)
		}
	}
	for i, dim := range v.dims {
		if _, ok := d.dims[dim]; !ok {
			d.SetDim(dim, v.shape[i])
		}
	}
	if _, ok := d.vars[v.name]; !ok {
		d.names = append(d.names, v.name)
	}
	d.vars[v.name] = v
	return nil
}

// Variable returns the named variable, or nil.
func (d *Dataset) Variable(name string) *Variable { return d.vars[name] }

// Has reports whether the named variable exists.
func (d *Dataset) Has(name string) bool {
	_, ok := d.vars[name]
	return ok
}

// Names returns all variable names, coordinates included, in order.
func (d *Dataset) Names() []string { return slices.Clone(d.names) }

// DataVars returns the names of non-coordinate variables in order.
func (d *Dataset) DataVars() []string {
	out := make([]string, 0, len(d.names))
	for _, n := range d.names {
		if !d.coords[n] {
			out = append(out, n)
		}
	}
	return out
}

// Coords returns the names of coordinate variables in order.
func (d *Dataset) Coords() []string {
	var out []string
	for _, n := range d.names {
		if d.coords[n] {
			out = append(out, n)
		}
	}
	return out
}

// IsCoord reports whether name is a coordinate variable.
func (d *Dataset) IsCoord(name string) bool { return d.coords[name] }

// SetCoords designates the named variables as coordinates. Absent names are
// ignored.
func (d *Dataset) SetCoords(names ...string) {
	for _, n := range names {
		if d.Has(n) {
			d.coords[n] = true
		}
	}
}

// ResetCoords turns every coordinate back into a data variable.
func (d *Dataset) ResetCoords() {
	clear(d.coords)
}

// Drop removes the named variables. Absent names are ignored.
func (d *Dataset) Drop(names ...string) {
	for _, n := range names {
		if !d.Has(n) {
			continue
		}
		delete(d.vars, n)
		delete(d.coords, n)
		d.names = slices.DeleteFunc(d.names, func(s string) bool { return s == n })
	}
}

// DropDims removes the dimensions and every variable that uses any of them.
func (d *Dataset) DropDims(dims ...string) {
	var victims []string
	for _, n := range d.names {
		if slices.ContainsFunc(d.vars[n].dims, func(s string) bool { return slices.Contains(dims, s) }) {
			victims = append(victims, n)
		}
	}
	d.Drop(victims...)
	for _, dim := range dims {
		if _, ok := d.dims[dim]; !ok {
			continue
		}
		delete(d.dims, dim)
		d.dimNames = slices.DeleteFunc(d.dimNames, func(s string) bool { return s == dim })
	}
}

// PruneDims removes dimensions no variable uses.
func (d *Dataset) PruneDims() {
	used := make(map[string]bool)
	for _, v := range d.vars {
		for _, dim := range v.dims {
			used[dim] = true
		}
	}
	var unused []string
	for _, dim := range d.dimNames {
		if !used[dim] {
			unused = append(unused, dim)
		}
	}
	d.DropDims(unused...)
}

// Take returns a copy whose dim axis holds positions idx of the original,
// in that order. Negative positions produce fill values. Variables without
// dim are copied unchanged.
func (d *Dataset) Take(dim string, idx []int) (*Dataset, error) {
	if !d.HasDim(dim) {
		return nil, Structural("take", "dataset has no dimension %s", dim)
	}
	out := d.emptyCopy()
	for _, name := range d.dimNames {
		n := d.dims[name]
		if name == dim {
			n = len(idx)
		}
		out.SetDim(name, n)
	}
	for _, name := range d.names {
		v := d.vars[name]
		if axis := v.Axis(dim); axis >= 0 {
			v = v.Take(axis, idx)
		} else {
			v = v.Clone()
		}
		if err := out.Set(v); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// SortVariables orders variables by name.
func (d *Dataset) SortVariables() {
	slices.Sort(d.names)
}

// AppendHistory appends entry to the "history" attribute, separated from
// earlier entries by "; ".
func (d *Dataset) AppendHistory(entry string) {
	if prev := d.attrs.GetString(HistoryKey); prev != "" {
		entry = prev + "; " + entry
	}
	d.attrs.Set(HistoryKey, entry)
}

// InferMode derives the structural mode from the declared dimensions:
// N_PROF wins over index.
func (d *Dataset) InferMode() Mode {
	switch {
	case d.HasDim(DimProf):
		return Profile
	case d.HasDim(DimIndex):
		return Point
	default:
		return Unknown
	}
}

// Clone returns a deep copy.
func (d *Dataset) Clone() *Dataset {
	out := d.emptyCopy()
	for _, name := range d.dimNames {
		out.SetDim(name, d.dims[name])
	}
	for _, name := range d.names {
		out.names = append(out.names, name)
		out.vars[name] = d.vars[name].Clone()
	}
	return out
}

// emptyCopy carries attributes, encoding, coordinate designations and mode
// but no dimensions or variables.
func (d *Dataset) emptyCopy() *Dataset {
	out := New()
	out.attrs = d.attrs.Clone()
	out.encoding = d.encoding.Clone()
	out.mode = d.mode
	for c := range d.coords {
		out.coords[c] = true
	}
	return out
}
