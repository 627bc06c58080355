package dataset

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pointFixture(t *testing.T) *Dataset {
	t.Helper()
	ds := New()
	require.NoError(t, ds.Set(MustVariable("PRES", []string{DimIndex}, []int{4}, []float64{5, 10, math.NaN(), 20})))
	require.NoError(t, ds.Set(MustVariable("CYCLE_NUMBER", []string{DimIndex}, []int{4}, []int64{1, 1, 2, 2})))
	require.NoError(t, ds.Set(MustVariable("DATA_MODE", []string{DimIndex}, []int{4}, []string{"R", "A", "D", "R"})))
	require.NoError(t, ds.Set(MustVariable("TIME", []string{DimIndex}, []int{4}, make([]time.Time, 4))))
	ds.SetCoords("TIME")
	ds.SetMode(Point)
	return ds
}

func TestNewVariable(t *testing.T) {
	t.Run("kind from slice type", func(t *testing.T) {
		cases := []struct {
			values any
			kind   Kind
		}{
			{[]string{"a"}, String},
			{[]int64{1}, Int},
			{[]float64{1}, Float},
			{[]time.Time{{}}, Time},
			{[]any{"a"}, Object},
		}
		for _, tc := range cases {
			v, err := NewVariable("X", []string{"n"}, []int{1}, tc.values)
			require.NoError(t, err)
			assert.Equal(t, tc.kind, v.Kind())
		}
	})

	t.Run("length must match shape", func(t *testing.T) {
		_, err := NewVariable("X", []string{"a", "b"}, []int{2, 3}, []float64{1, 2})
		require.Error(t, err)
	})

	t.Run("rank must match dims", func(t *testing.T) {
		_, err := NewVariable("X", []string{"a"}, []int{2, 1}, []float64{1, 2})
		require.Error(t, err)
	})

	t.Run("unsupported element type", func(t *testing.T) {
		_, err := NewVariable("X", []string{"a"}, []int{1}, []int32{1})
		require.Error(t, err)
	})

	t.Run("scalar", func(t *testing.T) {
		v, err := NewVariable("X", nil, nil, []string{"2020"})
		require.NoError(t, err)
		assert.Equal(t, 1, v.Len())
		assert.Equal(t, 0, v.Rank())
	})
}

func TestFull(t *testing.T) {
	f := Full("F", []string{"n"}, []int{2}, Float)
	assert.True(t, math.IsNaN(f.Floats()[0]))
	assert.Equal(t, []int64{IntFill, IntFill}, Full("I", []string{"n"}, []int{2}, Int).Ints())
	assert.Equal(t, []string{" ", " "}, Full("S", []string{"n"}, []int{2}, String).Strings())
	assert.True(t, Full("T", []string{"n"}, []int{1}, Time).IsMissing(0))
	assert.True(t, Full("O", []string{"n"}, []int{1}, Object).IsMissing(0))
}

func TestVariableTake(t *testing.T) {
	// 2 x 3 grid, row-major.
	v := MustVariable("G", []string{"r", "c"}, []int{2, 3}, []int64{1, 2, 3, 4, 5, 6})

	t.Run("rows with fill", func(t *testing.T) {
		got := v.Take(0, []int{1, -1})
		assert.Equal(t, []int{2, 3}, got.Shape())
		assert.Equal(t, []int64{4, 5, 6, IntFill, IntFill, IntFill}, got.Ints())
	})

	t.Run("columns reordered", func(t *testing.T) {
		got := v.Take(1, []int{2, 0})
		assert.Equal(t, []int64{3, 1, 6, 4}, got.Ints())
	})

	t.Run("source untouched", func(t *testing.T) {
		v.Take(0, []int{0})
		assert.Equal(t, []int64{1, 2, 3, 4, 5, 6}, v.Ints())
	})
}

func TestChoose(t *testing.T) {
	a := MustVariable("A", []string{"n"}, []int{3}, []float64{1, 2, 3})
	b := MustVariable("B", []string{"n"}, []int{3}, []float64{10, 20, 30})

	t.Run("per element source", func(t *testing.T) {
		got, err := Choose("C", []int{0, 1, -1}, a, b)
		require.NoError(t, err)
		assert.Equal(t, "C", got.Name())
		assert.Equal(t, 1.0, got.Floats()[0])
		assert.Equal(t, 20.0, got.Floats()[1])
		assert.True(t, math.IsNaN(got.Floats()[2]))
	})

	t.Run("kind mismatch", func(t *testing.T) {
		i := MustVariable("I", []string{"n"}, []int{3}, []int64{1, 2, 3})
		_, err := Choose("C", []int{0, 0, 0}, a, i)
		require.Error(t, err)
	})
}

func TestVariableUnique(t *testing.T) {
	v := MustVariable("X", []string{"n"}, []int{5}, []float64{1, math.NaN(), 1, math.NaN(), 2})
	assert.Equal(t, []string{"1", "NaN", "2"}, v.Unique())
}

func TestDatasetSet(t *testing.T) {
	ds := pointFixture(t)

	t.Run("dimension conflict", func(t *testing.T) {
		err := ds.Set(MustVariable("BAD", []string{DimIndex}, []int{3}, []float64{1, 2, 3}))
		require.Error(t, err)
		assert.False(t, ds.Has("BAD"))
	})

	t.Run("replace keeps position", func(t *testing.T) {
		require.NoError(t, ds.Set(MustVariable("PRES", []string{DimIndex}, []int{4}, []float64{1, 2, 3, 4})))
		assert.Equal(t, []string{"PRES", "CYCLE_NUMBER", "DATA_MODE", "TIME"}, ds.Names())
	})

	t.Run("coords split from data vars", func(t *testing.T) {
		assert.Equal(t, []string{"TIME"}, ds.Coords())
		assert.Equal(t, []string{"PRES", "CYCLE_NUMBER", "DATA_MODE"}, ds.DataVars())
	})
}

func TestDatasetTake(t *testing.T) {
	ds := pointFixture(t)
	ds.Attrs().Set("title", "Argo float")

	got, err := ds.Take(DimIndex, []int{3, 0})
	require.NoError(t, err)

	n, _ := got.DimLen(DimIndex)
	assert.Equal(t, 2, n)
	assert.Equal(t, []int64{2, 1}, got.Variable("CYCLE_NUMBER").Ints())
	assert.Equal(t, []string{"R", "R"}, got.Variable("DATA_MODE").Strings())
	assert.True(t, got.IsCoord("TIME"))
	assert.Equal(t, "Argo float", got.Attrs().GetString("title"))
	assert.Equal(t, Point, got.Mode())

	n, _ = ds.DimLen(DimIndex)
	assert.Equal(t, 4, n, "source dataset must not change")

	_, err = ds.Take("N_PROF", nil)
	assert.True(t, errors.Is(err, ErrStructural))
}

func TestDatasetDropDims(t *testing.T) {
	ds := pointFixture(t)
	require.NoError(t, ds.Set(MustVariable("HISTORY_INSTITUTION", []string{"N_HISTORY"}, []int{0}, []any{})))
	require.NoError(t, ds.Set(MustVariable("DATE_CREATION", nil, nil, []any{"20200101000000"})))

	ds.DropDims("N_HISTORY")
	assert.False(t, ds.Has("HISTORY_INSTITUTION"))
	assert.True(t, ds.Has("DATE_CREATION"))
	assert.False(t, ds.HasDim("N_HISTORY"))

	ds.Drop("PRES", "CYCLE_NUMBER", "DATA_MODE", "TIME")
	ds.PruneDims()
	assert.Empty(t, ds.Dims())
}

func TestDatasetCloneIsDeep(t *testing.T) {
	ds := pointFixture(t)
	cp := ds.Clone()
	cp.Variable("PRES").Floats()[0] = 99
	cp.Attrs().Set("title", "changed")
	cp.SetCoords("PRES")

	assert.Equal(t, 5.0, ds.Variable("PRES").Floats()[0])
	assert.Empty(t, ds.Attrs().GetString("title"))
	assert.False(t, ds.IsCoord("PRES"))
}

func TestAppendHistory(t *testing.T) {
	ds := New()
	ds.AppendHistory("first")
	ds.AppendHistory("second")
	assert.Equal(t, "first; second", ds.Attrs().GetString(HistoryKey))
}

func TestInferMode(t *testing.T) {
	ds := New()
	assert.Equal(t, Unknown, ds.InferMode())
	ds.SetDim(DimIndex, 3)
	assert.Equal(t, Point, ds.InferMode())
	ds.SetDim(DimProf, 2)
	assert.Equal(t, Profile, ds.InferMode())
}

func TestSortVariables(t *testing.T) {
	ds := pointFixture(t)
	ds.SortVariables()
	if diff := cmp.Diff([]string{"CYCLE_NUMBER", "DATA_MODE", "PRES", "TIME"}, ds.Names()); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
}

func TestErrorKinds(t *testing.T) {
	serr := Structural("point2profile", "dataset is in %s mode", Profile)
	var se *StructuralError
	require.True(t, errors.As(serr, &se))
	assert.Equal(t, "point2profile", se.Op)
	assert.True(t, errors.Is(serr, ErrStructural))
	assert.False(t, errors.Is(serr, ErrSourceNotFound))

	nf := &SourceNotFoundError{Path: "/data/coriolis/6902746/6902746_prof.nc"}
	assert.True(t, errors.Is(nf, ErrSourceNotFound))
	assert.Contains(t, nf.Error(), "6902746_prof.nc")
}
