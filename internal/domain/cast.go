package domain

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/pocean23/argopy/internal/dataset"
)

// ErrCast marks a variable that could not be converted to its domain type.
var ErrCast = errors.New("cast failed")

// CastError describes one variable left unconverted by CastTypes.
type CastError struct {
	Variable string
	From     dataset.Kind
	To       dataset.Kind
	// Values lists the distinct values found in the variable.
	Values []string
	Err    error
}

func (e *CastError) Error() string {
	return fmt.Sprintf("cast %s from %s to %s: %v", e.Variable, e.From, e.To, e.Err)
}

func (e *CastError) Unwrap() error { return e.Err }

func (e *CastError) Is(target error) bool { return target == ErrCast }

// packedTimeLayout is the YYYYMMDDHHMISS text convention of Argo date fields.
const (
	packedTimeLayout     = "20060102150405"
	packedTimeConvention = "YYYYMMDDHHMISS"
	calibrationDate      = "SCIENTIFIC_CALIB_DATE"
)

var stringVariables = map[string]bool{
	"PLATFORM_NUMBER": true, "DATA_MODE": true, "DIRECTION": true, "DATA_CENTRE": true,
	"DATA_TYPE": true, "FORMAT_VERSION": true, "HANDBOOK_VERSION": true, "PROJECT_NAME": true,
	"PI_NAME": true, "STATION_PARAMETERS": true, "DATA_CENTER": true, "DC_REFERENCE": true,
	"DATA_STATE_INDICATOR": true, "PLATFORM_TYPE": true, "FIRMWARE_VERSION": true,
	"POSITIONING_SYSTEM": true, "PROFILE_PRES_QC": true, "PROFILE_PSAL_QC": true,
	"PROFILE_TEMP_QC": true, "PARAMETER": true, "SCIENTIFIC_CALIB_EQUATION": true,
	"SCIENTIFIC_CALIB_COEFFICIENT": true, "SCIENTIFIC_CALIB_COMMENT": true,
	"HISTORY_INSTITUTION": true, "HISTORY_STEP": true, "HISTORY_SOFTWARE": true,
	"HISTORY_SOFTWARE_RELEASE": true, "HISTORY_REFERENCE": true, "HISTORY_ACTION": true,
	"HISTORY_PARAMETER": true, "VERTICAL_SAMPLING_SCHEME": true, "FLOAT_SERIAL_NO": true,
}

var intVariables = map[string]bool{
	"PLATFORM_NUMBER": true, "WMO_INST_TYPE": true, "CYCLE_NUMBER": true, "CONFIG_MISSION_NUMBER": true,
}

var timeVariables = map[string]bool{
	"REFERENCE_DATE_TIME": true, "DATE_CREATION": true, "DATE_UPDATE": true, "JULD": true,
	"JULD_LOCATION": true, calibrationDate: true, "HISTORY_DATE": true,
}

// qcCleanup maps malformed quality flags found in real files to flag "0".
var qcCleanup = map[string]string{
	"   ": "0",
	"nan": "0",
	" ":   "0",
	"n":   "0",
}

// isQCVariable matches per-measurement quality flags, not the PROFILE_*_QC
// summaries.
func isQCVariable(name string) bool {
	return strings.Contains(name, "QC") && !strings.Contains(name, "PROFILE")
}

// CastTypes returns a copy of ds with every data variable converted toward
// its Argo type, and the variables that could not be converted. A failed
// variable keeps its previous values and type; the others are unaffected.
// Each variable gets a "casted" attribute that is true when its final kind
// is not Object. Coordinates are left as they are.
//
// Applying CastTypes to its own output changes nothing.
func CastTypes(ds *dataset.Dataset, logger *slog.Logger) (*dataset.Dataset, []*CastError) {
	if logger == nil {
		logger = slog.Default()
	}
	out := ds.Clone()
	var failures []*CastError
	for _, name := range out.DataVars() {
		v, errs := castVariable(out.Variable(name))
		for _, ce := range errs {
			logger.Warn("failed to cast variable",
				"variable", ce.Variable,
				"from", ce.From.String(),
				"to", ce.To.String(),
				"values", ce.Values,
				"error", ce.Err,
			)
		}
		failures = append(failures, errs...)
		// Shape is unchanged so Set cannot fail.
		_ = out.Set(v)
	}
	return out, failures
}

func castVariable(v *dataset.Variable) (*dataset.Variable, []*CastError) {
	name := v.Name()
	var failures []*CastError
	step := func(to dataset.Kind, convert func(*dataset.Variable) (*dataset.Variable, error)) {
		next, err := convert(v)
		if err != nil {
			failures = append(failures, &CastError{Variable: name, From: v.Kind(), To: to, Values: v.Unique(), Err: err})
			return
		}
		v = next
	}

	v.Attrs().Set(dataset.CastedAttr, false)

	if stringVariables[name] && v.Kind() == dataset.Object {
		step(dataset.String, toString)
	}
	if intVariables[name] {
		step(dataset.Int, toInt)
	}
	if timeVariables[name] && v.Kind() == dataset.Object {
		switch {
		case v.Attrs().GetString("conventions") == packedTimeConvention:
			step(dataset.Time, toTime)
		case name == calibrationDate:
			step(dataset.String, toString)
			step(dataset.Time, toTime)
		}
	}
	if isQCVariable(name) {
		if v.Kind() == dataset.Object {
			step(dataset.String, toString)
		}
		if v.Kind() == dataset.String {
			v = cleanQC(v)
		}
		step(dataset.Int, toInt)
	}

	v.Attrs().Set(dataset.CastedAttr, v.Kind() != dataset.Object)
	return v, failures
}

func toString(v *dataset.Variable) (*dataset.Variable, error) {
	switch v.Kind() {
	case dataset.String:
		return v, nil
	case dataset.Time:
		return nil, fmt.Errorf("timestamps have no text form")
	}
	out := make([]string, v.Len())
	for i := range out {
		e := v.Value(i)
		if e == nil {
			out[i] = dataset.StringFill
			continue
		}
		s, err := cast.ToStringE(e)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return v.WithValues(out)
}

func toInt(v *dataset.Variable) (*dataset.Variable, error) {
	switch v.Kind() {
	case dataset.Int:
		return v, nil
	case dataset.Time:
		return nil, fmt.Errorf("timestamps cannot become integers")
	}
	out := make([]int64, v.Len())
	for i := range out {
		n, err := intValue(v.Value(i))
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return v.WithValues(out)
}

func intValue(e any) (int64, error) {
	switch x := e.(type) {
	case nil:
		return 0, fmt.Errorf("missing value")
	case string:
		// Decimal only: flags like "08" must not be read as octal.
		return strconv.ParseInt(strings.TrimSpace(x), 10, 64)
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return 0, fmt.Errorf("non-finite value %v", x)
		}
	}
	return cast.ToInt64E(e)
}

func toTime(v *dataset.Variable) (*dataset.Variable, error) {
	if v.Kind() == dataset.Time {
		return v, nil
	}
	out := make([]time.Time, v.Len())
	for i := range out {
		e := v.Value(i)
		if e == nil {
			continue
		}
		s, err := cast.ToStringE(e)
		if err != nil {
			return nil, err
		}
		s = strings.TrimSpace(s)
		if s == "" || s == "nan" {
			continue
		}
		t, err := time.ParseInLocation(packedTimeLayout, s, time.UTC)
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return v.WithValues(out)
}

func cleanQC(v *dataset.Variable) *dataset.Variable {
	src := v.Strings()
	if !slices.ContainsFunc(src, isMalformedQC) {
		return v
	}
	out := make([]string, len(src))
	for i, s := range src {
		if r, ok := qcCleanup[s]; ok {
			s = r
		}
		out[i] = s
	}
	cleaned, err := v.WithValues(out)
	if err != nil {
		return v
	}
	return cleaned
}

func isMalformedQC(s string) bool {
	_, ok := qcCleanup[s]
	return ok
}
