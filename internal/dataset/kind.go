package dataset

import (
	"fmt"
	"math"
	"time"
)

// Kind is the element type of a Variable.
type Kind int

const (
	// Object holds untyped values, typically raw text read from a file that
	// has not been through type normalization yet.
	Object Kind = iota
	String
	Int
	Float
	Time
)

func (k Kind) String() string {
	switch k {
	case Object:
		return "object"
	case String:
		return "string"
	case Int:
		return "int64"
	case Float:
		return "float64"
	case Time:
		return "datetime"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// IntFill is the padding sentinel for integer variables.
const IntFill int64 = 99999

// StringFill is the padding sentinel for text variables.
const StringFill = " "

// FillValue returns the padding value for elements of kind k: a blank for
// text, 99999 for integers, NaN for floats, the zero time (not-a-time) for
// timestamps and nil for objects.
func FillValue(k Kind) any {
	switch k {
	case String:
		return StringFill
	case Int:
		return IntFill
	case Float:
		return math.NaN()
	case Time:
		return time.Time{}
	default:
		return nil
	}
}
