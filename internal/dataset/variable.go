package dataset

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"time"
)

// CastedAttr is the per-variable metadata flag set once type normalization
// has given the variable a concrete element type.
const CastedAttr = "casted"

// Variable is an n-dimensional array stored flat in row-major order, tagged
// with one dimension name per axis.
//
// The slice returned by Values and the typed accessors is the variable's own
// storage and must not be modified; use WithValues or Clone to derive a new
// variable.
type Variable struct {
	name  string
	dims  []string
	shape []int
	kind  Kind
	data  any
	attrs *Attrs
}

// NewVariable creates a variable. values must be one of []string, []int64,
// []float64, []time.Time or []any and hold exactly prod(shape) elements.
func NewVariable(name string, dims []string, shape []int, values any) (*Variable, error) {
	if len(dims) != len(shape) {
		return nil, fmt.Errorf("variable %s: %d dimension names for rank %d", name, len(dims), len(shape))
	}
	n := 1
	for i, s := range shape {
		if s < 0 {
			return nil, fmt.Errorf("variable %s: negative length for dimension %s", name, dims[i])
		}
		n *= s
	}
	kind, length, err := kindOf(values)
	if err != nil {
		return nil, fmt.Errorf("variable %s: %w", name, err)
	}
	if length != n {
		return nil, fmt.Errorf("variable %s: %d values for shape %v", name, length, shape)
	}
	if len(shape) == 0 {
		dims, shape = nil, nil
	}
	return &Variable{
		name:  name,
		dims:  slices.Clone(dims),
		shape: slices.Clone(shape),
		kind:  kind,
		data:  values,
		attrs: NewAttrs(),
	}, nil
}

// MustVariable is like NewVariable but panics on error. It is meant for fixtures.
func MustVariable(name string, dims []string, shape []int, values any) *Variable {
	v, err := NewVariable(name, dims, shape, values)
	if err != nil {
		panic(err)
	}
	return v
}

// Full returns a variable of the given kind with every element set to the
// kind's fill value.
func Full(name string, dims []string, shape []int, kind Kind) *Variable {
	n := product(shape)
	var values any
	switch kind {
	case String:
		values = filled(n, StringFill)
	case Int:
		values = filled(n, IntFill)
	case Float:
		values = filled(n, math.NaN())
	case Time:
		values = make([]time.Time, n)
	default:
		values = make([]any, n)
	}
	return MustVariable(name, dims, shape, values)
}

func kindOf(values any) (Kind, int, error) {
	switch vv := values.(type) {
	case []string:
		return String, len(vv), nil
	case []int64:
		return Int, len(vv), nil
	case []float64:
		return Float, len(vv), nil
	case []time.Time:
		return Time, len(vv), nil
	case []any:
		return Object, len(vv), nil
	default:
		return 0, 0, fmt.Errorf("unsupported value type %T", values)
	}
}

func (v *Variable) Name() string   { return v.name }
func (v *Variable) Kind() Kind     { return v.kind }
func (v *Variable) Rank() int      { return len(v.dims) }
func (v *Variable) Attrs() *Attrs  { return v.attrs }
func (v *Variable) Values() any    { return v.data }
func (v *Variable) Dims() []string { return slices.Clone(v.dims) }
func (v *Variable) Shape() []int   { return slices.Clone(v.shape) }

// Len returns the total number of elements.
func (v *Variable) Len() int { return product(v.shape) }

// Casted reports whether type normalization marked this variable as done.
func (v *Variable) Casted() bool { return v.attrs.GetBool(CastedAttr) }

// Strings returns the elements of a String variable, or nil for other kinds.
func (v *Variable) Strings() []string {
	s, _ := v.data.([]string)
	return s
}

// Ints returns the elements of an Int variable, or nil for other kinds.
func (v *Variable) Ints() []int64 {
	s, _ := v.data.([]int64)
	return s
}

// Floats returns the elements of a Float variable, or nil for other kinds.
func (v *Variable) Floats() []float64 {
	s, _ := v.data.([]float64)
	return s
}

// Times returns the elements of a Time variable, or nil for other kinds.
func (v *Variable) Times() []time.Time {
	s, _ := v.data.([]time.Time)
	return s
}

// Objects returns the elements of an Object variable, or nil for other kinds.
func (v *Variable) Objects() []any {
	s, _ := v.data.([]any)
	return s
}

// HasDims reports whether the variable's dimension tuple is exactly dims.
func (v *Variable) HasDims(dims ...string) bool { return slices.Equal(v.dims, dims) }

// Axis returns the position of dim in the variable's dimensions, or -1.
func (v *Variable) Axis(dim string) int { return slices.Index(v.dims, dim) }

// Value returns element i (flat index) as an interface value.
func (v *Variable) Value(i int) any {
	switch vv := v.data.(type) {
	case []string:
		return vv[i]
	case []int64:
		return vv[i]
	case []float64:
		return vv[i]
	case []time.Time:
		return vv[i]
	case []any:
		return vv[i]
	}
	return nil
}

// IsMissing reports whether element i is undefined: NaN for floats,
// not-a-time for timestamps and nil for objects. Integers and text are never
// missing; their fill sentinels are ordinary values.
func (v *Variable) IsMissing(i int) bool {
	switch vv := v.data.(type) {
	case []float64:
		return math.IsNaN(vv[i])
	case []time.Time:
		return vv[i].IsZero()
	case []any:
		return vv[i] == nil
	}
	return false
}

type nanKey struct{}

// Key returns a comparable identity for element i such that two elements
// with equal keys are the same value. NaN equals NaN and not-a-time equals
// not-a-time.
func (v *Variable) Key(i int) any {
	switch vv := v.data.(type) {
	case []string:
		return vv[i]
	case []int64:
		return vv[i]
	case []float64:
		if math.IsNaN(vv[i]) {
			return nanKey{}
		}
		return vv[i]
	case []time.Time:
		if vv[i].IsZero() {
			return nanKey{}
		}
		return vv[i].UnixNano()
	case []any:
		if vv[i] == nil {
			return nil
		}
		return fmt.Sprintf("%T:%v", vv[i], vv[i])
	}
	return nil
}

// Format renders element i for diagnostics.
func (v *Variable) Format(i int) string {
	switch vv := v.data.(type) {
	case []string:
		return strconv.Quote(vv[i])
	case []float64:
		return strconv.FormatFloat(vv[i], 'g', -1, 64)
	case []time.Time:
		if vv[i].IsZero() {
			return "NaT"
		}
		return vv[i].UTC().Format(time.RFC3339)
	case []any:
		if s, ok := vv[i].(string); ok {
			return strconv.Quote(s)
		}
	}
	return fmt.Sprint(v.Value(i))
}

// Unique returns the distinct element renderings in first-seen order.
func (v *Variable) Unique() []string {
	seen := make(map[any]bool)
	var out []string
	for i := range v.Len() {
		k := v.Key(i)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, v.Format(i))
	}
	return out
}

// Clone returns a deep copy.
func (v *Variable) Clone() *Variable {
	out := &Variable{
		name:  v.name,
		dims:  slices.Clone(v.dims),
		shape: slices.Clone(v.shape),
		kind:  v.kind,
		attrs: v.attrs.Clone(),
	}
	switch vv := v.data.(type) {
	case []string:
		out.data = slices.Clone(vv)
	case []int64:
		out.data = slices.Clone(vv)
	case []float64:
		out.data = slices.Clone(vv)
	case []time.Time:
		out.data = slices.Clone(vv)
	case []any:
		out.data = slices.Clone(vv)
	}
	return out
}

// Rename returns a copy named name.
func (v *Variable) Rename(name string) *Variable {
	out := v.Clone()
	out.name = name
	return out
}

// WithValues returns a variable with v's name, dimensions and attributes but
// new element values, which may be of a different kind.
func (v *Variable) WithValues(values any) (*Variable, error) {
	out, err := NewVariable(v.name, v.dims, v.shape, values)
	if err != nil {
		return nil, err
	}
	out.attrs = v.attrs.Clone()
	return out, nil
}

// Reshape returns a copy laid over new dimensions holding the same elements
// in the same flat order.
func (v *Variable) Reshape(dims []string, shape []int) (*Variable, error) {
	if product(shape) != v.Len() {
		return nil, fmt.Errorf("variable %s: cannot reshape %v to %v", v.name, v.shape, shape)
	}
	out := v.Clone()
	out.dims = slices.Clone(dims)
	out.shape = slices.Clone(shape)
	if len(out.dims) != len(out.shape) {
		return nil, fmt.Errorf("variable %s: %d dimension names for rank %d", v.name, len(dims), len(shape))
	}
	return out, nil
}

// Gather builds a variable over dims/shape whose element j is v's flat
// element idx[j], or the fill value where idx[j] is negative.
func (v *Variable) Gather(dims []string, shape []int, idx []int) (*Variable, error) {
	if len(idx) != product(shape) {
		return nil, fmt.Errorf("variable %s: %d indices for shape %v", v.name, len(idx), shape)
	}
	var values any
	switch vv := v.data.(type) {
	case []string:
		values = gather(vv, idx, StringFill)
	case []int64:
		values = gather(vv, idx, IntFill)
	case []float64:
		values = gather(vv, idx, math.NaN())
	case []time.Time:
		values = gather(vv, idx, time.Time{})
	case []any:
		values = gather(vv, idx, nil)
	}
	out, err := NewVariable(v.name, dims, shape, values)
	if err != nil {
		return nil, err
	}
	out.attrs = v.attrs.Clone()
	return out, nil
}

// Take selects positions idx along axis, keeping all other axes. Negative
// positions produce fill values.
func (v *Variable) Take(axis int, idx []int) *Variable {
	inner := product(v.shape[axis+1:])
	outer := product(v.shape[:axis])
	n := v.shape[axis]
	flat := make([]int, 0, outer*len(idx)*inner)
	for o := range outer {
		for _, j := range idx {
			for in := range inner {
				if j < 0 {
					flat = append(flat, -1)
					continue
				}
				flat = append(flat, (o*n+j)*inner+in)
			}
		}
	}
	shape := v.Shape()
	shape[axis] = len(idx)
	out, err := v.Gather(v.dims, shape, flat)
	if err != nil {
		panic(err) // unreachable: flat is sized from shape
	}
	return out
}

// Choose builds a variable shaped like the sources whose element e is
// srcs[pick[e]]'s element e, or the fill value where pick[e] is negative.
// All sources must share shape and kind.
func Choose(name string, pick []int, srcs ...*Variable) (*Variable, error) {
	if len(srcs) == 0 {
		return nil, fmt.Errorf("choose %s: no sources", name)
	}
	first := srcs[0]
	for _, s := range srcs[1:] {
		if s.kind != first.kind {
			return nil, fmt.Errorf("choose %s: kind %s of %s differs from %s of %s", name, s.kind, s.name, first.kind, first.name)
		}
		if !slices.Equal(s.shape, first.shape) {
			return nil, fmt.Errorf("choose %s: shape %v of %s differs from %v of %s", name, s.shape, s.name, first.shape, first.name)
		}
	}
	if len(pick) != first.Len() {
		return nil, fmt.Errorf("choose %s: %d picks for %d elements", name, len(pick), first.Len())
	}
	var values any
	switch first.kind {
	case String:
		values = choose(srcs, pick, (*Variable).Strings, StringFill)
	case Int:
		values = choose(srcs, pick, (*Variable).Ints, IntFill)
	case Float:
		values = choose(srcs, pick, (*Variable).Floats, math.NaN())
	case Time:
		values = choose(srcs, pick, (*Variable).Times, time.Time{})
	default:
		values = choose(srcs, pick, (*Variable).Objects, nil)
	}
	out, err := NewVariable(name, first.dims, first.shape, values)
	if err != nil {
		return nil, err
	}
	out.attrs = first.attrs.Clone()
	return out, nil
}

func gather[T any](src []T, idx []int, fill T) []T {
	out := make([]T, len(idx))
	for j, i := range idx {
		if i < 0 {
			out[j] = fill
			continue
		}
		out[j] = src[i]
	}
	return out
}

func choose[T any](srcs []*Variable, pick []int, get func(*Variable) []T, fill T) []T {
	cols := make([][]T, len(srcs))
	for i, s := range srcs {
		cols[i] = get(s)
	}
	out := make([]T, len(pick))
	for e, p := range pick {
		if p < 0 {
			out[e] = fill
			continue
		}
		out[e] = cols[p][e]
	}
	return out
}

func filled[T any](n int, fill T) []T {
	out := make([]T, n)
	for i := range out {
		out[i] = fill
	}
	return out
}

func product(shape []int) int {
	n := 1
	for _, s := range shape {
		n *= s
	}
	return n
}
