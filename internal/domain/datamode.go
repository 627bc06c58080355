package domain

import (
	"log/slog"
	"strings"

	"github.com/spf13/cast"

	"github.com/pocean23/argopy/internal/dataset"
)

// PhysicalQuantities are the measured parameters merged by FilterDataMode,
// in output order.
var PhysicalQuantities = []string{"PRES", "TEMP", "PSAL", "DOXY"}

// Data modes of an Argo record.
const (
	DataModeRealTime = "R"
	DataModeAdjusted = "A"
	DataModeDelayed  = "D"
)

const opFilterDataMode = "filter data mode"

type filterOptions struct {
	keepError bool
}

// FilterOption configures FilterDataMode.
type FilterOption func(*filterOptions)

// WithKeepError controls whether <PARAM>_ERROR is produced from
// <PARAM>_ADJUSTED_ERROR. It is on by default.
func WithKeepError(keep bool) FilterOption {
	return func(o *filterOptions) { o.keepError = keep }
}

// FilterDataMode merges the real-time and adjusted variants of each
// physical quantity into one variable, choosing per record according to
// DATA_MODE:
//
//	R  <PARAM>, <PARAM>_QC
//	A  <PARAM>_ADJUSTED, <PARAM>_ADJUSTED_QC, <PARAM>_ADJUSTED_ERROR
//	D  as A, with undefined adjusted values replaced by <PARAM>
//
// Records with any other mode get fill values. Every variable whose name
// contains ADJUSTED is removed, the others pass through unchanged. Records
// run along "index" for point datasets and N_PROF for profile datasets.
func FilterDataMode(ds *dataset.Dataset, logger *slog.Logger, opts ...FilterOption) (*dataset.Dataset, error) {
	o := filterOptions{keepError: true}
	for _, opt := range opts {
		opt(&o)
	}

	var recordDim string
	switch ds.InferMode() {
	case dataset.Point:
		recordDim = dataset.DimIndex
	case dataset.Profile:
		recordDim = dataset.DimProf
	default:
		return nil, dataset.Structural(opFilterDataMode, "dataset has neither %s nor %s dimension", dataset.DimIndex, dataset.DimProf)
	}
	modeVar := ds.Variable("DATA_MODE")
	if modeVar == nil {
		return nil, dataset.Structural(opFilterDataMode, "DATA_MODE variable is missing")
	}
	if !modeVar.HasDims(recordDim) {
		return nil, dataset.Structural(opFilterDataMode, "DATA_MODE has dimensions %v, want [%s]", modeVar.Dims(), recordDim)
	}

	// Variants must share a kind before they can be merged.
	in, _ := CastTypes(ds, logger)
	modes := make([]string, modeVar.Len())
	for i := range modes {
		modes[i] = strings.TrimSpace(cast.ToString(modeVar.Value(i)))
	}

	out := in.Clone()
	for _, name := range in.Names() {
		if strings.Contains(name, "ADJUSTED") {
			out.Drop(name)
		}
	}
	for _, param := range PhysicalQuantities {
		if !in.Has(param) || in.IsCoord(param) {
			continue
		}
		merged, err := mergeQuantity(in, param, recordDim, modes, o.keepError)
		if err != nil {
			return nil, err
		}
		for _, v := range merged {
			if err := out.Set(v); err != nil {
				return nil, err
			}
		}
	}

	addHistory(out, HistoryFilterDataMode)
	out.SortVariables()
	out, _ = CastTypes(out, logger)
	return out, nil
}

// mergeQuantity builds <PARAM>, <PARAM>_QC and optionally <PARAM>_ERROR.
func mergeQuantity(ds *dataset.Dataset, param, recordDim string, modes []string, keepError bool) ([]*dataset.Variable, error) {
	plain := ds.Variable(param)
	if plain.Axis(recordDim) < 0 {
		return nil, dataset.Structural(opFilterDataMode, "%s does not run along %s", param, recordDim)
	}
	records := recordOf(plain, recordDim)

	adjusted := variantOrFill(ds, param+"_ADJUSTED", plain)
	values, err := chooseVariant(param, pickValues(records, modes, adjusted), plain, adjusted)
	if err != nil {
		return nil, err
	}
	out := []*dataset.Variable{values}

	qc, adjQC := ds.Variable(param+"_QC"), ds.Variable(param+"_ADJUSTED_QC")
	if qc != nil || adjQC != nil {
		if qc == nil {
			qc = dataset.Full(param+"_QC", adjQC.Dims(), adjQC.Shape(), adjQC.Kind())
		}
		adjQC = variantOrFill(ds, param+"_ADJUSTED_QC", qc)
		v, err := chooseVariant(param+"_QC", pickQC(recordOf(qc, recordDim), modes), qc, adjQC)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}

	if adjErr := ds.Variable(param + "_ADJUSTED_ERROR"); keepError && adjErr != nil {
		v, err := chooseVariant(param+"_ERROR", pickError(recordOf(adjErr, recordDim), modes), adjErr)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// chooseVariant is dataset.Choose with disagreeing variants reported as a
// structural error.
func chooseVariant(name string, pick []int, srcs ...*dataset.Variable) (*dataset.Variable, error) {
	v, err := dataset.Choose(name, pick, srcs...)
	if err != nil {
		return nil, dataset.Structural(opFilterDataMode, "%v", err)
	}
	return v, nil
}

// variantOrFill returns the named variable, or an all-fill stand-in shaped
// like ref when it is absent.
func variantOrFill(ds *dataset.Dataset, name string, ref *dataset.Variable) *dataset.Variable {
	if v := ds.Variable(name); v != nil {
		return v
	}
	return dataset.Full(name, ref.Dims(), ref.Shape(), ref.Kind())
}

// recordOf maps each flat element of v to its position along dim.
func recordOf(v *dataset.Variable, dim string) []int {
	axis := v.Axis(dim)
	shape := v.Shape()
	if axis < 0 {
		return make([]int, v.Len())
	}
	inner := 1
	for _, s := range shape[axis+1:] {
		inner *= s
	}
	out := make([]int, v.Len())
	for e := range out {
		out[e] = (e / inner) % shape[axis]
	}
	return out
}

// pickValues chooses source 0 (plain) or 1 (adjusted) per element.
func pickValues(records []int, modes []string, adjusted *dataset.Variable) []int {
	pick := make([]int, len(records))
	for e, r := range records {
		switch modes[r] {
		case DataModeRealTime:
			pick[e] = 0
		case DataModeAdjusted:
			pick[e] = 1
		case DataModeDelayed:
			pick[e] = 1
			if adjusted.IsMissing(e) {
				pick[e] = 0
			}
		default:
			pick[e] = -1
		}
	}
	return pick
}

func pickQC(records []int, modes []string) []int {
	pick := make([]int, len(records))
	for e, r := range records {
		switch modes[r] {
		case DataModeRealTime:
			pick[e] = 0
		case DataModeAdjusted, DataModeDelayed:
			pick[e] = 1
		default:
			pick[e] = -1
		}
	}
	return pick
}

func pickError(records []int, modes []string) []int {
	pick := make([]int, len(records))
	for e, r := range records {
		switch modes[r] {
		case DataModeAdjusted, DataModeDelayed:
			pick[e] = 0
		default:
			pick[e] = -1
		}
	}
	return pick
}
