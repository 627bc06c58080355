// Package netcdf reads and writes Argo datasets as netCDF classic files and
// resolves floats in a local copy of the Argo GDAC tree.
package netcdf

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"strings"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"

	"github.com/pocean23/argopy/internal/dataset"
)

// Format is recorded in the dataset encoding of every file read.
const Format = "NETCDF3_CLASSIC"

// Open reads a netCDF classic file into a dataset. Numeric types are widened
// to int64 and float64, with _FillValue masked to NaN for floats. Character
// arrays become untyped text; a trailing dimension used only as the last
// dimension of character variables (STRING8, DATE_TIME, ...) is folded into
// the strings. Dates are not decoded.
func Open(path string) (*dataset.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &dataset.SourceNotFoundError{Path: path}
		}
		return nil, fmt.Errorf("netcdf: opening %s: %w", path, err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("netcdf: opening %s: %w", path, err)
	}
	nc, err := cdf.Open(f)
	if err != nil {
		return nil, fmt.Errorf("netcdf: reading header of %s: %w", path, err)
	}

	ds, err := decode(nc, int(nc.Header.NumRecs(fi.Size())))
	if err != nil {
		return nil, fmt.Errorf("netcdf: %s: %w", path, err)
	}
	ds.Encoding().Set("source", path)
	ds.Encoding().Set("format", Format)
	return ds, nil
}

func decode(nc *cdf.File, numRecs int) (*dataset.Dataset, error) {
	h := nc.Header
	folded := foldedDims(h)

	ds := dataset.New()
	for i, name := range h.Dimensions("") {
		if folded[name] {
			continue
		}
		n := h.Lengths("")[i]
		if n == 0 {
			n = numRecs
		}
		ds.SetDim(name, n)
	}

	for _, name := range h.Variables() {
		v, err := readVariable(nc, name, numRecs, folded)
		if err != nil {
			return nil, fmt.Errorf("reading variable %s: %w", name, err)
		}
		for _, a := range h.Attributes(name) {
			v.Attrs().Set(a, attrValue(h.GetAttribute(name, a)))
		}
		if err := ds.Set(v); err != nil {
			return nil, err
		}
	}
	for _, a := range h.Attributes("") {
		ds.Attrs().Set(a, attrValue(h.GetAttribute("", a)))
	}
	ds.SetMode(ds.InferMode())
	return ds, nil
}

// isChar reports whether v is stored as NC_CHAR.
func isChar(h *cdf.Header, v string) bool {
	_, ok := h.ZeroValue(v, 0).(string)
	return ok
}

// foldedDims returns the dimensions that only ever appear as the last
// dimension of character variables.
func foldedDims(h *cdf.Header) map[string]bool {
	used := make(map[string]bool)
	blocked := make(map[string]bool)
	for _, v := range h.Variables() {
		dims := h.Dimensions(v)
		char := isChar(h, v)
		for i, d := range dims {
			used[d] = true
			if !char || i != len(dims)-1 {
				blocked[d] = true
			}
		}
	}
	out := make(map[string]bool)
	for d := range used {
		if !blocked[d] {
			out[d] = true
		}
	}
	return out
}

func readVariable(nc *cdf.File, name string, numRecs int, folded map[string]bool) (*dataset.Variable, error) {
	h := nc.Header
	dims := h.Dimensions(name)
	lengths := append([]int(nil), h.Lengths(name)...)
	if h.IsRecordVariable(name) {
		lengths[0] = numRecs
	}
	n := 1
	for _, l := range lengths {
		n *= l
	}

	var raw any
	if n > 0 {
		var err error
		if raw, err = readRaw(nc, name, lengths, n); err != nil {
			return nil, err
		}
	}

	if isChar(h, name) {
		buf, _ := raw.([]byte)
		width := 1
		if len(dims) > 0 && folded[dims[len(dims)-1]] {
			width = lengths[len(lengths)-1]
			dims, lengths = dims[:len(dims)-1], lengths[:len(lengths)-1]
		}
		count := 0
		if width > 0 {
			count = n / width
		}
		return dataset.NewVariable(name, dims, lengths, splitText(buf, count, width))
	}

	switch data := raw.(type) {
	case nil:
		return dataset.NewVariable(name, dims, lengths, emptyOf(h.ZeroValue(name, 0)))
	case []uint8:
		return dataset.NewVariable(name, dims, lengths, widenBytes(data))
	case []int16:
		return dataset.NewVariable(name, dims, lengths, widen(data))
	case []int32:
		return dataset.NewVariable(name, dims, lengths, widen(data))
	case []float32, []float64:
		arr := sparse.ZerosDense(lengths...)
		switch d := data.(type) {
		case []float32:
			for i, x := range d {
				arr.Elements[i] = float64(x)
			}
		case []float64:
			copy(arr.Elements, d)
		}
		if fill, ok := fillValue(h.GetAttribute(name, "_FillValue")); ok {
			for i, x := range arr.Elements {
				if x == fill {
					arr.Elements[i] = math.NaN()
				}
			}
		}
		return dataset.NewVariable(name, dims, arr.Shape, arr.Elements)
	default:
		return nil, fmt.Errorf("unsupported storage type %T", raw)
	}
}

// readRaw reads all n elements of a variable. Record variables need an
// explicit end corner, otherwise the reader stops after the first record.
func readRaw(nc *cdf.File, name string, lengths []int, n int) (any, error) {
	begin := make([]int, len(lengths))
	end := make([]int, len(lengths))
	for i, l := range lengths {
		end[i] = l - 1
	}
	r := nc.Reader(name, begin, end)
	var buf any
	if isChar(nc.Header, name) {
		buf = make([]byte, n)
	} else {
		buf = r.Zero(n)
	}
	got, err := r.Read(buf)
	if got < n {
		if err == nil {
			err = fmt.Errorf("short read: %d of %d elements", got, n)
		}
		return nil, err
	}
	return buf, nil
}

// splitText cuts buf into n strings of width bytes, dropping NUL padding.
func splitText(buf []byte, n, width int) []any {
	out := make([]any, n)
	for i := range out {
		if buf == nil {
			out[i] = ""
			continue
		}
		out[i] = strings.TrimRight(string(buf[i*width:(i+1)*width]), "\x00")
	}
	return out
}

// widenBytes reads NC_BYTE values, which are signed.
func widenBytes(in []uint8) []int64 {
	out := make([]int64, len(in))
	for i, x := range in {
		out[i] = int64(int8(x))
	}
	return out
}

func widen[T int16 | int32](in []T) []int64 {
	out := make([]int64, len(in))
	for i, x := range in {
		out[i] = int64(x)
	}
	return out
}

func emptyOf(zero any) any {
	switch zero.(type) {
	case []float32, []float64:
		return []float64{}
	case string:
		return []any{}
	default:
		return []int64{}
	}
}

func fillValue(attr any) (float64, bool) {
	switch a := attr.(type) {
	case []float32:
		if len(a) > 0 {
			return float64(a[0]), true
		}
	case []float64:
		if len(a) > 0 {
			return a[0], true
		}
	}
	return 0, false
}

// attrValue unwraps single-element numeric attributes and widens the rest.
func attrValue(attr any) any {
	switch a := attr.(type) {
	case string:
		return strings.TrimRight(a, "\x00")
	case []uint8:
		return scalarOr(widenBytes(a))
	case []int16:
		return scalarOr(widen(a))
	case []int32:
		return scalarOr(widen(a))
	case []float32:
		out := make([]float64, len(a))
		for i, x := range a {
			out[i] = float64(x)
		}
		return scalarOr(out)
	case []float64:
		return scalarOr(a)
	}
	return attr
}

func scalarOr[T any](s []T) any {
	if len(s) == 1 {
		return s[0]
	}
	return s
}
