package domain

import (
	"fmt"
	"strings"
)

// uidBase separates the platform and cycle fields of a profile identifier.
// Both fields must stay below it.
const uidBase = 100_000

// Direction is the vertical sampling direction of a profile.
type Direction int

const (
	// NoDirection encodes identifiers without a sign. Decoding such an
	// identifier reports Ascending.
	NoDirection Direction = iota
	Ascending
	Descending
)

func (d Direction) String() string {
	switch d {
	case Ascending:
		return "Ascending"
	case Descending:
		return "Descending"
	default:
		return ""
	}
}

// Code returns the one-letter DIRECTION value used in Argo files.
func (d Direction) Code() string {
	switch d {
	case Ascending:
		return "A"
	case Descending:
		return "D"
	default:
		return " "
	}
}

// ParseDirection accepts A, D, Ascending or Descending in any case. A blank
// string yields NoDirection.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "a", "ascending":
		return Ascending, nil
	case "d", "descending":
		return Descending, nil
	case "":
		return NoDirection, nil
	default:
		return NoDirection, fmt.Errorf("unknown profile direction %q", s)
	}
}

// EncodeUID packs a platform number, cycle number and direction into one
// signed identifier: sign*(platform*1e5 + cycle), negative for descending
// profiles. Platform and cycle must be in [0, 1e5).
func EncodeUID(platform, cycle int64, d Direction) int64 {
	id := platform*uidBase + cycle
	if d == Descending {
		return -id
	}
	return id
}

// EncodeUIDs encodes element-wise. A nil directions slice encodes magnitudes
// only.
func EncodeUIDs(platforms, cycles []int64, directions []Direction) ([]int64, error) {
	if len(platforms) != len(cycles) {
		return nil, fmt.Errorf("encode uid: %d platforms for %d cycles", len(platforms), len(cycles))
	}
	if directions != nil && len(directions) != len(platforms) {
		return nil, fmt.Errorf("encode uid: %d directions for %d platforms", len(directions), len(platforms))
	}
	out := make([]int64, len(platforms))
	for i := range platforms {
		d := NoDirection
		if directions != nil {
			d = directions[i]
		}
		out[i] = EncodeUID(platforms[i], cycles[i], d)
	}
	return out, nil
}

// DecodeUID recovers platform, cycle and direction. Non-negative identifiers
// decode as Ascending.
func DecodeUID(id int64) (platform, cycle int64, d Direction) {
	d = Ascending
	if id < 0 {
		d = Descending
		id = -id
	}
	platform = id / uidBase
	cycle = id - platform*uidBase
	return platform, cycle, d
}

// DecodeUIDs decodes element-wise.
func DecodeUIDs(ids []int64) (platforms, cycles []int64, directions []Direction) {
	platforms = make([]int64, len(ids))
	cycles = make([]int64, len(ids))
	directions = make([]Direction, len(ids))
	for i, id := range ids {
		platforms[i], cycles[i], directions[i] = DecodeUID(id)
	}
	return platforms, cycles, directions
}
