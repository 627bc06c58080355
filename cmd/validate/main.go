// Command validate checks the behavioral guarantees of the dataset
// transformations against a real multi-profile file or a generated float:
// identifier round trips, normalization idempotence, data-mode merging, and
// the point/profile reshapes.
//
// Usage:
//
//	go run ./cmd/validate -file data/gdac/coriolis/6902746/6902746_prof.nc
//	go run ./cmd/validate -mock -profiles 30 -levels 50
package main

import (
	"cmp"
	"flag"
	"fmt"
	"math"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"gonum.org/v1/gonum/floats"

	"github.com/pocean23/argopy/internal/adapter/netcdf"
	"github.com/pocean23/argopy/internal/dataset"
	"github.com/pocean23/argopy/internal/domain"
	"github.com/pocean23/argopy/internal/mock"
)

// levelVariables are compared across reshapes.
var levelVariables = []string{"PRES", "TEMP", "PSAL"}

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	file := flag.String("file", "", "multi-profile netCDF file to validate")
	useMock := flag.Bool("mock", false, "validate a generated float instead of a file")
	profiles := flag.Int("profiles", 24, "profiles of the generated float")
	levels := flag.Int("levels", 30, "levels of the generated float")
	seed := flag.Uint64("seed", 1, "seed of the generated float")
	flag.Parse()

	if (*file == "") == !*useMock {
		flag.Usage()
		os.Exit(1)
	}

	var (
		ds  *dataset.Dataset
		err error
	)
	if *useMock {
		opts := mock.DefaultOptions()
		opts.Profiles, opts.Levels, opts.Seed = *profiles, *levels, *seed
		ds = mock.Float(opts)
	} else if ds, err = netcdf.Open(*file); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}

	if code := run(ds); code != 0 {
		os.Exit(code)
	}
}

func run(raw *dataset.Dataset) int {
	// Set a fixed clock matching genmock for reproducible history entries.
	domain.SetClock(clockwork.NewFakeClockAt(
		time.Date(2024, time.April, 27, 6, 0, 0, 0, time.UTC),
	))
	defer domain.SetClock(nil)

	fmt.Println("=== Argo Dataset Validation ===")
	fmt.Println()

	profile, failures := domain.CastTypes(raw, nil)
	for _, f := range failures {
		fmt.Printf("note: %v\n", f)
	}
	if profile.InferMode() == dataset.Point {
		var err error
		if profile, err = domain.PointToProfile(profile, nil); err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: point input: %v\n", err)
			return 1
		}
	}
	if profile.InferMode() != dataset.Profile {
		fmt.Fprintln(os.Stderr, "FATAL: input has neither N_PROF nor index dimension")
		return 1
	}

	phases := []*phase{
		validateUIDRoundTrip(profile),
		validateCastIdempotent(profile),
		validateDataModeMerge(profile),
		validateProfileToPoint(profile),
		validatePointToProfile(profile),
	}

	// ── Report results ──
	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	nProf, _ := profile.DimLen(dataset.DimProf)
	nLevels, _ := profile.DimLen(dataset.DimLevels)
	fmt.Println()
	fmt.Printf("Profiles: %d, levels: %d, variables: %d\n", nProf, nLevels, len(profile.Names()))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Phases ──

func validateUIDRoundTrip(ds *dataset.Dataset) *phase {
	p := &phase{name: "Profile identifier round trip"}
	for _, c := range []struct {
		platform, cycle int64
		d               domain.Direction
	}{
		{690024, 13, domain.Ascending},
		{690024, 13, domain.Descending},
		{1, 0, domain.Ascending},
		{99999, 99999, domain.Descending},
	} {
		if gp, gc, gd := domain.DecodeUID(domain.EncodeUID(c.platform, c.cycle, c.d)); gp != c.platform || gc != c.cycle || gd != c.d {
			p.errorf("(%d, %d, %s) decoded as (%d, %d, %s)", c.platform, c.cycle, c.d, gp, gc, gd)
		}
	}

	platforms, cycles, directions, err := profileKeys(ds)
	if err != nil {
		p.errorf("%v", err)
		return p
	}
	ids, err := domain.EncodeUIDs(platforms, cycles, directions)
	if err != nil {
		p.errorf("%v", err)
		return p
	}
	gp, gc, gd := domain.DecodeUIDs(ids)
	for i := range ids {
		if gp[i] != platforms[i] || gc[i] != cycles[i] || gd[i] != directions[i] {
			p.errorf("profile %d: (%d, %d, %s) decoded as (%d, %d, %s)",
				i, platforms[i], cycles[i], directions[i], gp[i], gc[i], gd[i])
		}
	}
	return p
}

func validateCastIdempotent(ds *dataset.Dataset) *phase {
	p := &phase{name: "Type normalization idempotent"}
	again, _ := domain.CastTypes(ds, nil)
	for _, name := range ds.Names() {
		a, b := ds.Variable(name), again.Variable(name)
		if a.Kind() != b.Kind() {
			p.errorf("%s: kind %s became %s", name, a.Kind(), b.Kind())
			continue
		}
		for i := range a.Len() {
			if a.Key(i) != b.Key(i) {
				p.errorf("%s[%d]: %s became %s", name, i, a.Format(i), b.Format(i))
				break
			}
		}
	}
	return p
}

func validateDataModeMerge(ds *dataset.Dataset) *phase {
	p := &phase{name: "Data-mode reconciliation"}
	merged, err := domain.FilterDataMode(ds, nil)
	if err != nil {
		p.errorf("%v", err)
		return p
	}
	for _, name := range merged.Names() {
		if strings.Contains(name, "ADJUSTED") {
			p.errorf("%s survived filtering", name)
		}
	}

	modes := ds.Variable("DATA_MODE")
	for _, param := range domain.PhysicalQuantities {
		plain, out := ds.Variable(param), merged.Variable(param)
		if plain == nil || out == nil || plain.Kind() != dataset.Float {
			continue
		}
		adjusted := ds.Variable(param + "_ADJUSTED")
		levels := plain.Len() / max(modes.Len(), 1)
		for r := range modes.Len() {
			for l := range levels {
				e := r*levels + l
				want := math.NaN()
				switch strings.TrimSpace(fmt.Sprint(modes.Value(r))) {
				case domain.DataModeRealTime:
					want = plain.Floats()[e]
				case domain.DataModeAdjusted:
					want = floatAt(adjusted, e)
				case domain.DataModeDelayed:
					want = floatAt(adjusted, e)
					if math.IsNaN(want) {
						want = plain.Floats()[e]
					}
				}
				if got := out.Floats()[e]; !floats.Same([]float64{got}, []float64{want}) {
					p.errorf("%s profile %d level %d: got %g, want %g", param, r, l, got, want)
				}
			}
		}
	}
	return p
}

func validateProfileToPoint(ds *dataset.Dataset) *phase {
	p := &phase{name: "Profile to point keeps defined pressure"}
	points, err := domain.ProfileToPoint(ds, nil)
	if err != nil {
		p.errorf("%v", err)
		return p
	}
	pres := points.Variable("PRES")
	for i := range pres.Len() {
		if pres.IsMissing(i) {
			p.errorf("record %d has undefined PRES", i)
		}
	}
	return p
}

func validatePointToProfile(ds *dataset.Dataset) *phase {
	p := &phase{name: "Point to profile round trip"}
	points, err := domain.ProfileToPoint(ds, nil)
	if err != nil {
		p.errorf("%v", err)
		return p
	}
	profiles, err := domain.PointToProfile(points, nil)
	if err != nil {
		p.errorf("%v", err)
		return p
	}
	records, _ := points.DimLen(dataset.DimIndex)
	nProf, _ := profiles.DimLen(dataset.DimProf)
	nLevels, _ := profiles.DimLen(dataset.DimLevels)
	if nProf*nLevels < records {
		p.errorf("grid %d x %d holds fewer than %d records", nProf, nLevels, records)
	}

	back, err := domain.ProfileToPoint(profiles, nil)
	if err != nil {
		p.errorf("%v", err)
		return p
	}
	want, err := pointTuples(points)
	if err != nil {
		p.errorf("%v", err)
		return p
	}
	got, err := pointTuples(back)
	if err != nil {
		p.errorf("%v", err)
		return p
	}
	if len(got[0]) != len(want[0]) {
		p.errorf("round trip has %d records, want %d", len(got[0]), len(want[0]))
		return p
	}
	for c := range want {
		if !floats.Same(got[c], want[c]) {
			p.errorf("column %d differs after round trip", c)
		}
	}
	return p
}

// ── Helpers ──

func profileKeys(ds *dataset.Dataset) (platforms, cycles []int64, directions []domain.Direction, err error) {
	pv, cv, dv := ds.Variable("PLATFORM_NUMBER"), ds.Variable("CYCLE_NUMBER"), ds.Variable("DIRECTION")
	if pv == nil || cv == nil || dv == nil {
		return nil, nil, nil, fmt.Errorf("PLATFORM_NUMBER, CYCLE_NUMBER and DIRECTION are required")
	}
	if pv.Kind() != dataset.Int || cv.Kind() != dataset.Int {
		return nil, nil, nil, fmt.Errorf("PLATFORM_NUMBER and CYCLE_NUMBER are not integers")
	}
	directions = make([]domain.Direction, dv.Len())
	for i := range directions {
		if directions[i], err = domain.ParseDirection(fmt.Sprint(dv.Value(i))); err != nil {
			return nil, nil, nil, err
		}
	}
	return pv.Ints(), cv.Ints(), directions, nil
}

// pointTuples returns the columns (uid, PRES, TEMP, PSAL) of a point dataset
// with rows sorted, so two datasets holding the same multiset of
// observations yield identical columns.
func pointTuples(ds *dataset.Dataset) ([][]float64, error) {
	platforms, cycles, directions, err := profileKeys(ds)
	if err != nil {
		return nil, err
	}
	ids, err := domain.EncodeUIDs(platforms, cycles, directions)
	if err != nil {
		return nil, err
	}
	rows := make([][]float64, len(ids))
	for i, id := range ids {
		rows[i] = []float64{float64(id)}
		for _, name := range levelVariables {
			rows[i] = append(rows[i], floatAt(ds.Variable(name), i))
		}
	}
	slices.SortFunc(rows, func(a, b []float64) int {
		for k := range a {
			if c := cmp.Compare(a[k], b[k]); c != 0 {
				return c
			}
		}
		return 0
	})

	cols := make([][]float64, len(levelVariables)+1)
	for c := range cols {
		cols[c] = make([]float64, len(rows))
		for r := range rows {
			cols[c][r] = rows[r][c]
		}
	}
	return cols, nil
}

func floatAt(v *dataset.Variable, i int) float64 {
	if v == nil || v.Kind() != dataset.Float || i >= v.Len() {
		return math.NaN()
	}
	return v.Floats()[i]
}
