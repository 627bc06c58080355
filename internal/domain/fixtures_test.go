package domain

import (
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/pocean23/argopy/internal/dataset"
)

var (
	nan     = math.NaN()
	testNow = time.Date(2024, 4, 26, 15, 0, 0, 0, time.UTC)
	t1      = time.Date(2020, 1, 1, 6, 0, 0, 0, time.UTC)
	t2      = time.Date(2020, 1, 11, 6, 0, 0, 0, time.UTC)
	t3      = time.Date(2020, 1, 21, 6, 0, 0, 0, time.UTC)
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func freezeClock(t *testing.T) {
	t.Helper()
	SetClock(clockwork.NewFakeClockAt(testNow))
	t.Cleanup(func() { SetClock(nil) })
}

func set(t *testing.T, ds *dataset.Dataset, name string, dims []string, shape []int, values any) *dataset.Variable {
	t.Helper()
	v, err := dataset.NewVariable(name, dims, shape, values)
	require.NoError(t, err)
	require.NoError(t, ds.Set(v))
	return v
}

// pointFloat is one float with three profiles in scrambled arrival order:
//
//	cycle 1 ascending   PRES 5, 10, 15   TIME t1
//	cycle 2 ascending   PRES 5, 10       TIME t2
//	cycle 1 descending  PRES 7           TIME t3
func pointFloat(t *testing.T) *dataset.Dataset {
	t.Helper()
	ds := dataset.New()
	idx := []string{dataset.DimIndex}
	n := []int{6}
	set(t, ds, "PLATFORM_NUMBER", idx, n, []int64{6902746, 6902746, 6902746, 6902746, 6902746, 6902746})
	set(t, ds, "CYCLE_NUMBER", idx, n, []int64{1, 2, 1, 1, 2, 1})
	set(t, ds, "DIRECTION", idx, n, []string{"A", "A", "A", "D", "A", "A"})
	set(t, ds, "PRES", idx, n, []float64{5, 5, 10, 7, 10, 15})
	set(t, ds, "TEMP", idx, n, []float64{20, 19, 18, 17, 16, 15})
	set(t, ds, "TIME", idx, n, []time.Time{t1, t2, t1, t3, t2, t1})
	set(t, ds, "LATITUDE", idx, n, []float64{-40.1, -40.5, -40.1, -40.9, -40.5, -40.1})
	ds.SetCoords("TIME", "LATITUDE")
	ds.Attrs().Set("title", "Argo float vertical profile")
	ds.Encoding().Set("source", "6902746_prof.nc")
	ds.SetMode(dataset.Point)
	return ds
}
