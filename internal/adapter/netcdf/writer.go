package netcdf

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"time"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
	"github.com/spf13/cast"

	"github.com/pocean23/argopy/internal/dataset"
)

// Fill values written for undefined numeric elements. A float variable with
// its own _FillValue keeps it.
const (
	floatFill float64 = 9.9692099683868690e+36 // NC_DOUBLE default
	intFill   int32   = 99999
)

const (
	dateTimeDim    = "DATE_TIME"
	dateTimeLayout = "20060102150405"
	dateTimeWidth  = len(dateTimeLayout)
)

// storage is how one dataset variable is laid out in the file.
type storage struct {
	v     *dataset.Variable
	dims  []string
	width int // bytes per text element, 0 for numeric variables
	fill  float64
}

// Write stores ds at path as a netCDF classic file, replacing any existing
// file. Text becomes NC_CHAR with a STRING<n> dimension sized to the longest
// value, timestamps become 14-character YYYYMMDDHHMISS text, integers NC_INT
// and floats NC_DOUBLE with NaN written as _FillValue. Variables on a
// zero-length dimension are kept only when it can serve as the record
// dimension.
func Write(path string, ds *dataset.Dataset) error {
	h, layout, err := buildHeader(ds)
	if err != nil {
		return fmt.Errorf("netcdf: writing %s: %w", path, err)
	}

	tmp := path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("netcdf: creating %s: %w", path, err)
	}
	if err := writeFile(file, h, layout); err != nil {
		file.Close()
		os.Remove(tmp)
		return fmt.Errorf("netcdf: writing %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("netcdf: writing %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("netcdf: writing %s: %w", path, err)
	}
	return nil
}

func writeFile(file *os.File, h *cdf.Header, layout []storage) error {
	f, err := cdf.Create(file, h)
	if err != nil {
		return err
	}
	for _, s := range layout {
		if err := writeVariable(f, s); err != nil {
			return fmt.Errorf("variable %s: %w", s.v.Name(), err)
		}
	}
	return cdf.UpdateNumRecs(file)
}

func buildHeader(ds *dataset.Dataset) (*cdf.Header, []storage, error) {
	var dims []string
	var lengths []int
	declared := make(map[string]int)
	declare := func(name string, n int) {
		if _, ok := declared[name]; ok {
			return
		}
		declared[name] = n
		dims = append(dims, name)
		lengths = append(lengths, n)
	}

	record := recordDim(ds)
	for _, d := range ds.Dims() {
		n, _ := ds.DimLen(d)
		if n > 0 || d == record {
			declare(d, n)
		}
	}

	var layout []storage
	for _, name := range ds.Names() {
		v := ds.Variable(name)
		if !writable(ds, v, record) {
			continue
		}
		s := storage{v: v, dims: v.Dims()}
		switch v.Kind() {
		case dataset.Float:
			s.fill = floatFillOf(v)
		case dataset.String, dataset.Object:
			s.width = textWidth(v)
			dim := fmt.Sprintf("STRING%d", s.width)
			if n, ok := declared[dim]; ok && n != s.width {
				dim += "_" + name
			}
			declare(dim, s.width)
			s.dims = append(s.dims, dim)
		case dataset.Time:
			s.width = dateTimeWidth
			declare(dateTimeDim, dateTimeWidth)
			s.dims = append(s.dims, dateTimeDim)
		}
		layout = append(layout, s)
	}

	h := cdf.NewHeader(dims, lengths)
	for _, s := range layout {
		h.AddVariable(s.v.Name(), s.dims, zeroValue(s.v.Kind()))
		attrs := s.v.Attrs().Clone()
		switch s.v.Kind() {
		case dataset.Float:
			attrs.Set("_FillValue", s.fill)
		case dataset.Int:
			attrs.Set("_FillValue", intFill)
		case dataset.Time:
			attrs.Set("conventions", "YYYYMMDDHHMISS")
		}
		addAttributes(h, s.v.Name(), attrs)
	}
	addAttributes(h, "", ds.Attrs())
	h.Define()
	if errs := h.Check(); len(errs) > 0 {
		return nil, nil, errors.Join(errs...)
	}
	return h, layout, nil
}

// recordDim picks the zero-length dimension that will be unlimited: the
// first one used as the outermost dimension of some variable.
func recordDim(ds *dataset.Dataset) string {
	for _, name := range ds.Names() {
		dims := ds.Variable(name).Dims()
		if len(dims) == 0 {
			continue
		}
		if n, _ := ds.DimLen(dims[0]); n == 0 {
			return dims[0]
		}
	}
	return ""
}

// writable rejects variables that would need a second record dimension or
// a record dimension in an inner position.
func writable(ds *dataset.Dataset, v *dataset.Variable, record string) bool {
	for i, d := range v.Dims() {
		n, _ := ds.DimLen(d)
		if n != 0 {
			continue
		}
		if d != record || i != 0 {
			return false
		}
	}
	return true
}

func textWidth(v *dataset.Variable) int {
	width := 1
	for i := range v.Len() {
		width = max(width, len(textOf(v.Value(i))))
	}
	return width
}

func textOf(e any) string {
	if e == nil {
		return ""
	}
	return cast.ToString(e)
}

func zeroValue(k dataset.Kind) any {
	switch k {
	case dataset.Float:
		return []float64{0}
	case dataset.Int:
		return []int32{0}
	default:
		return ""
	}
}

func addAttributes(h *cdf.Header, v string, attrs *dataset.Attrs) {
	for _, k := range attrs.Keys() {
		val, _ := attrs.Get(k)
		if a, ok := attributeValue(val); ok {
			h.AddAttribute(v, k, a)
		}
	}
}

// attributeValue converts a metadata value to one of the attribute types
// the file format stores. Booleans are stored as INT 0/1.
func attributeValue(val any) (any, bool) {
	switch x := val.(type) {
	case string:
		return x, true
	case bool:
		if x {
			return []int32{1}, true
		}
		return []int32{0}, true
	case int:
		return []int32{int32(x)}, true
	case int32:
		return []int32{x}, true
	case int64:
		return []int32{int32(x)}, true
	case []int64:
		out := make([]int32, len(x))
		for i, n := range x {
			out[i] = int32(n)
		}
		return out, len(out) > 0
	case float32:
		return []float32{x}, true
	case float64:
		return []float64{x}, true
	case []float64:
		return x, len(x) > 0
	case []int32, []int16, []float32, []uint8:
		return x, true
	case time.Time:
		return x.UTC().Format(time.RFC3339), true
	case nil:
		return nil, false
	default:
		return fmt.Sprint(x), true
	}
}

func writeVariable(f *cdf.File, s storage) error {
	v := s.v
	n := v.Len()
	if n == 0 {
		return nil
	}
	shape := v.Shape()
	if s.width > 0 {
		shape = append(shape, s.width)
	}
	begin := make([]int, len(shape))
	end := make([]int, len(shape))
	for i, l := range shape {
		end[i] = l - 1
	}
	w := f.Writer(v.Name(), begin, end)

	var payload any
	switch v.Kind() {
	case dataset.Float:
		arr := sparse.ZerosDense(v.Shape()...)
		copy(arr.Elements, v.Floats())
		payload = float64Payload(arr, s.fill)
	case dataset.Int:
		arr := sparse.ZerosDenseInt(v.Shape()...)
		for i, x := range v.Ints() {
			arr.Elements[i] = int(x)
		}
		payload = int32Payload(arr)
	case dataset.Time:
		payload = textPayload(n, s.width, func(i int) string {
			t := v.Times()[i]
			if t.IsZero() {
				return "              "
			}
			return t.UTC().Format(dateTimeLayout)
		})
	default:
		payload = textPayload(n, s.width, func(i int) string { return textOf(v.Value(i)) })
	}

	if _, err := w.Write(payload); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// floatFillOf returns the variable's own _FillValue, or floatFill.
func floatFillOf(v *dataset.Variable) float64 {
	if val, ok := v.Attrs().Get("_FillValue"); ok {
		if f, err := cast.ToFloat64E(val); err == nil && !math.IsNaN(f) {
			return f
		}
	}
	return floatFill
}

// float64Payload replaces undefined elements with fill.
func float64Payload(arr *sparse.DenseArray, fill float64) []float64 {
	out := slices.Clone(arr.Elements)
	for i, x := range out {
		if math.IsNaN(x) {
			out[i] = fill
		}
	}
	return out
}

func int32Payload(arr *sparse.DenseArrayInt) []int32 {
	out := make([]int32, len(arr.Elements))
	for i, x := range arr.Elements {
		out[i] = int32(x)
	}
	return out
}

// textPayload packs n strings into fixed-width NUL-padded records.
func textPayload(n, width int, at func(int) string) []byte {
	buf := make([]byte, n*width)
	for i := range n {
		copy(buf[i*width:(i+1)*width], at(i))
	}
	return buf
}
