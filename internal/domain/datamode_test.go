package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"github.com/pocean23/argopy/internal/dataset"
)

// threeModes holds one record per data mode; the delayed record has no
// adjusted pressure.
func threeModes(t *testing.T) *dataset.Dataset {
	t.Helper()
	ds := dataset.New()
	idx := []string{dataset.DimIndex}
	n := []int{3}
	set(t, ds, "DATA_MODE", idx, n, []any{"R", "A", "D"})
	set(t, ds, "PRES", idx, n, []float64{10, nan, 30})
	set(t, ds, "PRES_ADJUSTED", idx, n, []float64{nan, 21, nan})
	set(t, ds, "PRES_QC", idx, n, []any{"1", "2", "3"})
	set(t, ds, "PRES_ADJUSTED_QC", idx, n, []any{"4", "5", " "})
	set(t, ds, "PRES_ADJUSTED_ERROR", idx, n, []float64{nan, 0.1, 0.2})
	set(t, ds, "CYCLE_NUMBER", idx, n, []int64{1, 2, 3})
	set(t, ds, "TIME", idx, n, []float64{1, 2, 3})
	ds.SetCoords("TIME")
	ds.Attrs().Set("history", "created")
	ds.SetMode(dataset.Point)
	return ds
}

func TestFilterDataMode(t *testing.T) {
	freezeClock(t)

	out, err := FilterDataMode(threeModes(t), discardLogger())
	require.NoError(t, err)

	t.Run("values follow the record mode", func(t *testing.T) {
		assert.Equal(t, []float64{10, 21, 30}, out.Variable("PRES").Floats())
	})

	t.Run("quality flags follow the record mode", func(t *testing.T) {
		assert.Equal(t, []int64{1, 5, 0}, out.Variable("PRES_QC").Ints())
	})

	t.Run("error only for adjusted records", func(t *testing.T) {
		assert.True(t, floats.Same([]float64{nan, 0.1, 0.2}, out.Variable("PRES_ERROR").Floats()))
	})

	t.Run("adjusted variants removed", func(t *testing.T) {
		assert.Equal(t, []string{"CYCLE_NUMBER", "DATA_MODE", "PRES", "PRES_ERROR", "PRES_QC", "TIME"}, out.Names())
		assert.True(t, out.IsCoord("TIME"))
	})

	t.Run("unrelated variables unchanged", func(t *testing.T) {
		assert.Equal(t, []int64{1, 2, 3}, out.Variable("CYCLE_NUMBER").Ints())
		assert.Equal(t, []string{"R", "A", "D"}, out.Variable("DATA_MODE").Strings())
	})

	t.Run("history appended", func(t *testing.T) {
		assert.Equal(t, "created; 2024-04-26T15:00:00Z Variables filtered according to DATA_MODE", out.Attrs().GetString("history"))
	})
}

func TestFilterDataModeDropsError(t *testing.T) {
	out, err := FilterDataMode(threeModes(t), discardLogger(), WithKeepError(false))
	require.NoError(t, err)
	assert.False(t, out.Has("PRES_ERROR"))
	assert.True(t, out.Has("PRES"))
}

func TestFilterDataModeDoesNotModifyInput(t *testing.T) {
	ds := threeModes(t)
	_, err := FilterDataMode(ds, discardLogger())
	require.NoError(t, err)
	assert.True(t, ds.Has("PRES_ADJUSTED"))
	assert.Equal(t, dataset.Object, ds.Variable("PRES_QC").Kind())
	assert.Equal(t, "created", ds.Attrs().GetString("history"))
}

func TestFilterDataModeProfile(t *testing.T) {
	ds := dataset.New()
	grid := []string{dataset.DimProf, dataset.DimLevels}
	set(t, ds, "DATA_MODE", []string{dataset.DimProf}, []int{3}, []any{"D", "R", " "})
	set(t, ds, "TEMP", grid, []int{3, 2}, []float64{1, 2, 3, 4, 5, 6})
	set(t, ds, "TEMP_ADJUSTED", grid, []int{3, 2}, []float64{11, nan, 13, 14, 15, 16})
	set(t, ds, "PSAL", grid, []int{3, 2}, []float64{34, 35, 36, 37, 38, 39})
	ds.SetMode(dataset.Profile)

	out, err := FilterDataMode(ds, discardLogger())
	require.NoError(t, err)

	assert.True(t, floats.Same([]float64{11, 2, 3, 4, nan, nan}, out.Variable("TEMP").Floats()))
	assert.True(t, floats.Same([]float64{34, 35, 36, 37, nan, nan}, out.Variable("PSAL").Floats()),
		"missing adjusted variant reads as undefined")
	assert.False(t, out.Has("TEMP_QC"))
	assert.False(t, out.Has("TEMP_ERROR"))
}

func TestFilterDataModeStructuralErrors(t *testing.T) {
	t.Run("no DATA_MODE", func(t *testing.T) {
		ds := threeModes(t)
		ds.Drop("DATA_MODE")
		_, err := FilterDataMode(ds, discardLogger())
		require.Error(t, err)
		assert.True(t, errors.Is(err, dataset.ErrStructural))
	})

	t.Run("no point or profile dimension", func(t *testing.T) {
		ds := dataset.New()
		set(t, ds, "DATA_MODE", []string{"N_OBS"}, []int{1}, []any{"R"})
		_, err := FilterDataMode(ds, discardLogger())
		var se *dataset.StructuralError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, "filter data mode", se.Op)
	})
	t.Run("variants of different kinds", func(t *testing.T) {
		ds := threeModes(t)
		set(t, ds, "PRES_QC", []string{dataset.DimIndex}, []int{3}, []any{"1", "x", "3"})
		_, err := FilterDataMode(ds, discardLogger())
		var se *dataset.StructuralError
		require.True(t, errors.As(err, &se))
		assert.Contains(t, se.Reason, "PRES_QC")
	})
}
