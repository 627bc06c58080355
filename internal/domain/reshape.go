package domain

import (
	"cmp"
	"log/slog"
	"math"
	"slices"
	"strings"

	"github.com/spf13/cast"

	"github.com/pocean23/argopy/internal/dataset"
)

const (
	opPointToProfile = "point2profile"
	opProfileToPoint = "profile2point"
)

// verticalAxis is the level coordinate; it stays on N_LEVELS even when it is
// constant within a profile.
const verticalAxis = "PRES"

// pointCoords are the variables designated as coordinates in point form.
var pointCoords = []string{"LATITUDE", "LONGITUDE", "TIME", "JULD"}

// profileGroup is the set of point records sharing one profile identifier,
// in arrival order.
type profileGroup struct {
	uid     int64
	records []int
}

// PointToProfile turns a point dataset into a profile dataset. Records are
// grouped by profile identifier into N_PROF rows ordered by identifier.
// N_LEVELS is the size of the largest group. Variables other than PRES that
// hold a single value within every group become N_PROF vectors; the others
// become N_PROF x N_LEVELS grids filled left to right in record order and
// padded with fill values. Variables on "index" and another dimension are
// dropped. Profiles are then sorted by TIME (JULD if there is no TIME).
func PointToProfile(ds *dataset.Dataset, logger *slog.Logger) (*dataset.Dataset, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if m := modeOf(ds); m != dataset.Point {
		return nil, dataset.Structural(opPointToProfile, "only available for a collection of points, dataset is in %s mode", m)
	}
	n, _ := ds.DimLen(dataset.DimIndex)

	uids, err := recordUIDs(ds, n)
	if err != nil {
		return nil, err
	}
	groups := groupRecords(uids)
	nProf, nLevels := len(groups), 0
	for _, g := range groups {
		nLevels = max(nLevels, len(g.records))
	}

	out := dataset.New()
	out.SetDim(dataset.DimProf, nProf)
	out.SetDim(dataset.DimLevels, nLevels)

	for _, name := range ds.Names() {
		v := ds.Variable(name)
		if name == dataset.DimIndex {
			continue
		}
		if !v.HasDims(dataset.DimIndex) {
			if v.Axis(dataset.DimIndex) >= 0 {
				logger.Debug("dropping variable that cannot be regridded",
					"variable", name,
					"dims", v.Dims(),
				)
				continue
			}
			if err := out.Set(v.Clone()); err != nil {
				return nil, err
			}
			continue
		}
		var reshaped *dataset.Variable
		if name != verticalAxis && isProfileScalar(v, groups) {
			idx := make([]int, nProf)
			for p, g := range groups {
				idx[p] = g.records[0]
			}
			reshaped, err = v.Gather([]string{dataset.DimProf}, []int{nProf}, idx)
		} else {
			idx := slices.Repeat([]int{-1}, nProf*nLevels)
			for p, g := range groups {
				copy(idx[p*nLevels:], g.records)
			}
			reshaped, err = v.Gather([]string{dataset.DimProf, dataset.DimLevels}, []int{nProf, nLevels}, idx)
		}
		if err != nil {
			return nil, err
		}
		if err := out.Set(reshaped); err != nil {
			return nil, err
		}
	}
	out.SetCoords(ds.Coords()...)

	if out, err = sortByTime(out, dataset.DimProf); err != nil {
		return nil, err
	}
	out, _ = CastTypes(out, logger)
	return finish(ds, out, dataset.Profile, HistoryPointToProfile), nil
}

// ProfileToPoint flattens a profile dataset into a point dataset, row by
// row. Variables on a zero-length dimension or on dimensions other than
// (), (N_PROF) or (N_PROF, N_LEVELS) are dropped; the kept ones are
// broadcast to the grid first. Points without a PRES value are discarded and
// the rest are sorted by TIME (JULD if there is no TIME). The "index"
// coordinate keeps each point's position in the flattened grid.
func ProfileToPoint(ds *dataset.Dataset, logger *slog.Logger) (*dataset.Dataset, error) {
	if m := modeOf(ds); m != dataset.Profile {
		return nil, dataset.Structural(opProfileToPoint, "only available for a collection of profiles, dataset is in %s mode", m)
	}
	pres := ds.Variable("PRES")
	if pres == nil {
		return nil, dataset.Structural(opProfileToPoint, "PRES variable is missing")
	}

	in := ds.Clone()
	var empty []string
	for _, dim := range in.Dims() {
		if n, _ := in.DimLen(dim); n == 0 {
			empty = append(empty, dim)
		}
	}
	in.DropDims(empty...)

	nProf, _ := in.DimLen(dataset.DimProf)
	nLevels, ok := in.DimLen(dataset.DimLevels)
	if !ok {
		nLevels = 1
	}
	total := nProf * nLevels

	out := dataset.New()
	out.SetDim(dataset.DimIndex, total)
	for _, name := range in.Names() {
		v := in.Variable(name)
		idx := make([]int, total)
		switch {
		case v.HasDims():
			// Scalars repeat on every point.
		case v.HasDims(dataset.DimProf):
			for e := range idx {
				idx[e] = e / nLevels
			}
		case v.HasDims(dataset.DimProf, dataset.DimLevels):
			for e := range idx {
				idx[e] = e
			}
		default:
			continue
		}
		flat, err := v.Gather([]string{dataset.DimIndex}, []int{total}, idx)
		if err != nil {
			return nil, err
		}
		if err := out.Set(flat); err != nil {
			return nil, err
		}
	}
	positions := make([]int64, total)
	for i := range positions {
		positions[i] = int64(i)
	}
	index := dataset.MustVariable(dataset.DimIndex, []string{dataset.DimIndex}, []int{total}, positions)
	if err := out.Set(index); err != nil {
		return nil, err
	}
	out.SetCoords(dataset.DimIndex)
	out.SetCoords(pointCoords...)

	flatPres := out.Variable("PRES")
	if flatPres == nil {
		return nil, dataset.Structural(opProfileToPoint, "PRES has dimensions %v, want [%s %s]", pres.Dims(), dataset.DimProf, dataset.DimLevels)
	}
	var keep []int
	for i := range total {
		if !flatPres.IsMissing(i) {
			keep = append(keep, i)
		}
	}
	out, err := out.Take(dataset.DimIndex, keep)
	if err != nil {
		return nil, err
	}

	if out, err = sortByTime(out, dataset.DimIndex); err != nil {
		return nil, err
	}
	out, _ = CastTypes(out, logger)
	return finish(ds, out, dataset.Point, HistoryProfileToPoint), nil
}

// finish copies metadata forward from src and tags the result.
func finish(src, out *dataset.Dataset, mode dataset.Mode, history string) *dataset.Dataset {
	for _, k := range src.Attrs().Keys() {
		v, _ := src.Attrs().Get(k)
		out.Attrs().Set(k, v)
	}
	for _, k := range src.Encoding().Keys() {
		v, _ := src.Encoding().Get(k)
		out.Encoding().Set(k, v)
	}
	out.SortVariables()
	addHistory(out, history)
	out.SetMode(mode)
	return out
}

// recordUIDs encodes PLATFORM_NUMBER, CYCLE_NUMBER and DIRECTION per record.
func recordUIDs(ds *dataset.Dataset, n int) ([]int64, error) {
	var cols [2][]int64
	for i, name := range []string{"PLATFORM_NUMBER", "CYCLE_NUMBER"} {
		v := ds.Variable(name)
		if v == nil || !v.HasDims(dataset.DimIndex) {
			return nil, dataset.Structural(opPointToProfile, "%s must be a variable along %s", name, dataset.DimIndex)
		}
		ints, err := toInt(v)
		if err != nil {
			return nil, dataset.Structural(opPointToProfile, "%s is not numeric: %v", name, err)
		}
		cols[i] = ints.Ints()
	}
	dir := ds.Variable("DIRECTION")
	if dir == nil || !dir.HasDims(dataset.DimIndex) {
		return nil, dataset.Structural(opPointToProfile, "DIRECTION must be a variable along %s", dataset.DimIndex)
	}
	directions := make([]Direction, n)
	for i := range directions {
		d, err := ParseDirection(cast.ToString(dir.Value(i)))
		if err != nil {
			return nil, dataset.Structural(opPointToProfile, "record %d: %v", i, err)
		}
		directions[i] = d
	}
	return EncodeUIDs(cols[0], cols[1], directions)
}

// groupRecords groups record positions by identifier, ordered by identifier.
func groupRecords(uids []int64) []profileGroup {
	byUID := make(map[int64][]int)
	for r, uid := range uids {
		byUID[uid] = append(byUID[uid], r)
	}
	groups := make([]profileGroup, 0, len(byUID))
	for uid, records := range byUID {
		groups = append(groups, profileGroup{uid: uid, records: records})
	}
	slices.SortFunc(groups, func(a, b profileGroup) int { return cmp.Compare(a.uid, b.uid) })
	return groups
}

// isProfileScalar reports whether v holds one distinct value in every group.
func isProfileScalar(v *dataset.Variable, groups []profileGroup) bool {
	for _, g := range groups {
		first := v.Key(g.records[0])
		for _, r := range g.records[1:] {
			if v.Key(r) != first {
				return false
			}
		}
	}
	return true
}

// sortByTime orders dim by the TIME variable, or JULD when TIME is absent.
// For a gridded time variable the first level is used. Missing times sort
// last and ties keep their order.
func sortByTime(ds *dataset.Dataset, dim string) (*dataset.Dataset, error) {
	var key *dataset.Variable
	for _, name := range []string{"TIME", "JULD"} {
		if v := ds.Variable(name); v != nil && v.Axis(dim) == 0 {
			key = v
			break
		}
	}
	if key == nil {
		return ds, nil
	}
	n, _ := ds.DimLen(dim)
	stride := key.Len() / max(n, 1)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return compareTime(key, a*stride, b*stride)
	})
	return ds.Take(dim, order)
}

func compareTime(v *dataset.Variable, i, j int) int {
	mi, mj := v.IsMissing(i), v.IsMissing(j)
	switch {
	case mi && mj:
		return 0
	case mi:
		return 1
	case mj:
		return -1
	}
	if ts := v.Times(); ts != nil {
		return ts[i].Compare(ts[j])
	}
	return cmp.Compare(sortValue(v.Value(i)), sortValue(v.Value(j)))
}

func sortValue(e any) float64 {
	switch x := e.(type) {
	case float64:
		return x
	case int64:
		return float64(x)
	case string:
		f, err := cast.ToFloat64E(strings.TrimSpace(x))
		if err == nil {
			return f
		}
	}
	return math.Inf(1)
}
