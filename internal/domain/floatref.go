package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// FloatRef addresses one float in a data snapshot. Institute is either a
// two-letter institution code (IF) or a data assembly center name
// (coriolis).
type FloatRef struct {
	Institute string
	WMO       int
}

func (r FloatRef) String() string {
	return fmt.Sprintf("%s:%d", r.Institute, r.WMO)
}

// ParseFloatRefs parses a comma-separated list of institute:wmo pairs.
// Blank entries are skipped.
func ParseFloatRefs(s string) ([]FloatRef, error) {
	var refs []FloatRef
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		inst, wmo, ok := strings.Cut(part, ":")
		if !ok || strings.TrimSpace(inst) == "" {
			return nil, fmt.Errorf("float reference %q: want <institute>:<wmo>", part)
		}
		n, err := strconv.Atoi(strings.TrimSpace(wmo))
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("float reference %q: invalid WMO number", part)
		}
		refs = append(refs, FloatRef{Institute: strings.TrimSpace(inst), WMO: n})
	}
	return refs, nil
}
