// Package mock generates synthetic Argo multi-profile datasets shaped like
// the content of a <wmo>_prof.nc file as read from disk: untyped text,
// packed dates, the three data modes and padded N_PROF x N_LEVELS grids.
// Output is deterministic for a given seed.
package mock

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/pocean23/argopy/internal/dataset"
)

// Options controls the generated float.
type Options struct {
	Platform int64
	// DataCentre is the two-letter institution code stored in DATA_CENTRE.
	DataCentre string
	Profiles   int
	// Levels is the deepest profile's number of levels. Other profiles get
	// between half of it and all of it.
	Levels int
	Seed   uint64
	// Start is the date of the first profile.
	Start time.Time
}

// DefaultOptions returns a small coriolis float.
func DefaultOptions() Options {
	return Options{
		Platform:   6902746,
		DataCentre: "IF",
		Profiles:   12,
		Levels:     20,
		Seed:       1,
		Start:      time.Date(2019, time.January, 1, 6, 0, 0, 0, time.UTC),
	}
}

var (
	julianEpoch = time.Date(1950, time.January, 1, 0, 0, 0, 0, time.UTC)
	parameters  = []string{"PRES", "TEMP", "PSAL"}
	adjustError = map[string]float64{"PRES": 2.4, "TEMP": 0.002, "PSAL": 0.01}
)

// dataModes cycles so every mode is present in any float with three or more
// profiles.
var dataModes = []string{"R", "A", "D"}

// Float builds the raw profile-form dataset of one float.
func Float(o Options) *dataset.Dataset {
	rng := rand.New(rand.NewPCG(o.Seed, uint64(o.Platform)))
	nProf, nLevels := o.Profiles, max(o.Levels, 1)

	b := builder{ds: dataset.New(), nProf: nProf, nLevels: nLevels}
	b.ds.SetDim(dataset.DimProf, nProf)
	b.ds.SetDim(dataset.DimLevels, nLevels)
	b.ds.SetDim("N_PARAM", len(parameters))
	b.ds.SetDim("N_CALIB", 1)
	b.ds.SetDim("N_HISTORY", 0)

	b.scalar("DATA_TYPE", "Argo profile")
	b.scalar("FORMAT_VERSION", "3.1")
	b.date("REFERENCE_DATE_TIME", julianEpoch)
	b.date("DATE_CREATION", o.Start)
	b.date("DATE_UPDATE", o.Start.AddDate(0, 0, 10*nProf))

	depth := make([]int, nProf)
	modes := make([]string, nProf)
	platform := make([]any, nProf)
	centre := make([]any, nProf)
	direction := make([]any, nProf)
	mode := make([]any, nProf)
	profQC := make([]any, nProf)
	cycles := make([]int64, nProf)
	juld := make([]float64, nProf)
	lat := make([]float64, nProf)
	lon := make([]float64, nProf)
	stations := make([]any, 0, nProf*len(parameters))
	calib := make([]any, 0, nProf*len(parameters))

	la, lo := -40+rng.Float64()*10, 5+rng.Float64()*10
	for p := range nProf {
		depth[p] = nLevels/2 + rng.IntN(nLevels-nLevels/2+1)
		depth[p] = max(min(depth[p], nLevels), 1)
		modes[p] = dataModes[p%len(dataModes)]
		platform[p] = fmt.Sprintf("%-8d", o.Platform)
		centre[p] = o.DataCentre
		mode[p] = modes[p]
		profQC[p] = "A"
		cycles[p] = int64(p + 1)
		direction[p] = "A"
		if p%7 == 6 {
			direction[p] = "D"
			cycles[p] = int64(p)
		}
		when := o.Start.Add(time.Duration(p) * 10 * 24 * time.Hour)
		juld[p] = when.Sub(julianEpoch).Hours() / 24
		la += rng.NormFloat64() * 0.1
		lo += rng.NormFloat64() * 0.1
		lat[p], lon[p] = round(la, 3), round(lo, 3)
		for _, param := range parameters {
			stations = append(stations, param)
			if modes[p] == "D" {
				calib = append(calib, o.Start.AddDate(1, 0, 0).Format("20060102150405"))
			} else {
				calib = append(calib, " ")
			}
		}
	}

	prof := []string{dataset.DimProf}
	b.add("PLATFORM_NUMBER", prof, []int{nProf}, platform)
	b.add("CYCLE_NUMBER", prof, []int{nProf}, cycles)
	b.add("DIRECTION", prof, []int{nProf}, direction)
	b.add("DATA_CENTRE", prof, []int{nProf}, centre)
	b.add("DATA_MODE", prof, []int{nProf}, mode)
	juldVar := b.add("JULD", prof, []int{nProf}, juld)
	juldVar.Attrs().Set("units", "days since 1950-01-01 00:00:00 UTC")
	juldVar.Attrs().Set("standard_name", "time")
	b.add("LATITUDE", prof, []int{nProf}, lat).Attrs().Set("units", "degree_north")
	b.add("LONGITUDE", prof, []int{nProf}, lon).Attrs().Set("units", "degree_east")
	b.add("PROFILE_PRES_QC", prof, []int{nProf}, profQC)
	b.add("STATION_PARAMETERS", []string{dataset.DimProf, "N_PARAM"}, []int{nProf, len(parameters)}, stations)
	b.add("SCIENTIFIC_CALIB_DATE", []string{dataset.DimProf, "N_CALIB", "N_PARAM"}, []int{nProf, 1, len(parameters)}, calib)
	b.add("HISTORY_INSTITUTION", []string{"N_HISTORY", dataset.DimProf}, []int{0, nProf}, []any{})

	for _, param := range parameters {
		b.measurement(rng, param, depth, modes)
	}

	b.ds.Attrs().Set("title", "Argo float vertical profile")
	b.ds.Attrs().Set("institution", o.DataCentre)
	b.ds.Attrs().Set("Conventions", "Argo-3.1 CF-1.6")
	b.ds.Attrs().Set("featureType", "trajectoryProfile")
	b.ds.SetMode(dataset.Profile)
	return b.ds
}

type builder struct {
	ds             *dataset.Dataset
	nProf, nLevels int
}

func (b *builder) add(name string, dims []string, shape []int, values any) *dataset.Variable {
	v := dataset.MustVariable(name, dims, shape, values)
	if err := b.ds.Set(v); err != nil {
		panic(err) // shapes are derived from the declared dimensions
	}
	return v
}

func (b *builder) scalar(name, value string) {
	b.add(name, nil, nil, []any{value})
}

func (b *builder) date(name string, t time.Time) {
	b.add(name, nil, nil, []any{t.Format("20060102150405")}).Attrs().Set("conventions", "YYYYMMDDHHMISS")
}

// measurement adds <PARAM>, _QC, _ADJUSTED, _ADJUSTED_QC and
// _ADJUSTED_ERROR. Adjusted values exist for A and D profiles; some D levels
// lack one so the plain value has to stand in.
func (b *builder) measurement(rng *rand.Rand, param string, depth []int, modes []string) {
	n := b.nProf * b.nLevels
	values := make([]float64, n)
	qc := make([]any, n)
	adjusted := make([]float64, n)
	adjQC := make([]any, n)
	adjErr := make([]float64, n)

	for p := range b.nProf {
		for l := range b.nLevels {
			e := p*b.nLevels + l
			if l >= depth[p] {
				values[e], adjusted[e], adjErr[e] = math.NaN(), math.NaN(), math.NaN()
				qc[e], adjQC[e] = " ", " "
				continue
			}
			values[e] = round(sample(rng, param, l), 3)
			qc[e] = "1"
			switch modes[p] {
			case "R":
				adjusted[e], adjErr[e] = math.NaN(), math.NaN()
				adjQC[e] = " "
			case "A", "D":
				adjusted[e] = round(values[e]+offset(param), 3)
				adjErr[e] = adjustError[param]
				adjQC[e] = "1"
				if modes[p] == "D" && l%5 == 4 {
					adjusted[e] = math.NaN()
					adjQC[e] = "4"
				}
			}
		}
	}

	grid := []string{dataset.DimProf, dataset.DimLevels}
	shape := []int{b.nProf, b.nLevels}
	b.add(param, grid, shape, values)
	b.add(param+"_QC", grid, shape, qc)
	b.add(param+"_ADJUSTED", grid, shape, adjusted)
	b.add(param+"_ADJUSTED_QC", grid, shape, adjQC)
	b.add(param+"_ADJUSTED_ERROR", grid, shape, adjErr)
}

// sample returns a plausible value of param at vertical level l.
func sample(rng *rand.Rand, param string, l int) float64 {
	switch param {
	case "PRES":
		return 5 + 10*float64(l) + rng.Float64()
	case "TEMP":
		return 18*math.Exp(-float64(l)/8) + 2 + rng.NormFloat64()*0.05
	default:
		return 34.2 + 0.04*float64(l) + rng.NormFloat64()*0.01
	}
}

func offset(param string) float64 {
	switch param {
	case "PRES":
		return -0.5
	case "TEMP":
		return 0.001
	default:
		return 0.005
	}
}

func round(x float64, digits int) float64 {
	p := math.Pow(10, float64(digits))
	return math.Round(x*p) / p
}
