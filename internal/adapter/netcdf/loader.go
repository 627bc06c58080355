package netcdf

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pocean23/argopy/internal/dataset"
	"github.com/pocean23/argopy/internal/domain"
)

// ErrUnknownInstitute is returned for an institution code with no Data
// Assembly Center.
var ErrUnknownInstitute = errors.New("unknown institute code")

// dacs maps institution codes to the DAC directory names of the GDAC tree.
var dacs = map[string]string{
	"KM": "kma",
	"IF": "coriolis",
	"AO": "aoml",
	"CS": "csiro",
	"KO": "kordi",
	"JA": "jma",
	"HZ": "csio",
	"IN": "incois",
	"NM": "nmdis",
	"ME": "meds",
	"BO": "bodc",
}

// DACName returns the DAC directory for an institution code.
func DACName(code string) (string, bool) {
	name, ok := dacs[strings.ToUpper(strings.TrimSpace(code))]
	return name, ok
}

// ResolveInstitute maps an institution code to its DAC name and passes any
// other value through as a DAC name.
func ResolveInstitute(institute string) string {
	if name, ok := DACName(institute); ok {
		return name
	}
	return institute
}

// LocalLoader reads multi-profile files from a local copy of the GDAC
// tree laid out as <root>/<dac>/<wmo>/<wmo>_prof.nc.
type LocalLoader struct {
	root string
}

// NewLocalLoader creates a loader rooted at root.
func NewLocalLoader(root string) *LocalLoader {
	return &LocalLoader{root: root}
}

// Path returns the multi-profile file of a float under a DAC directory.
func (l *LocalLoader) Path(dac string, wmo int) string {
	id := strconv.Itoa(wmo)
	return filepath.Join(l.root, dac, id, id+"_prof.nc")
}

// LoadFromInstCode loads a float by institution code (IF, AO, ...).
func (l *LocalLoader) LoadFromInstCode(code string, wmo int) (*dataset.Dataset, error) {
	dac, ok := DACName(code)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownInstitute, code)
	}
	return l.LoadFromInst(dac, wmo)
}

// LoadFromInst loads a float by DAC name (coriolis, aoml, ...). A missing
// file yields a *dataset.SourceNotFoundError.
func (l *LocalLoader) LoadFromInst(dac string, wmo int) (*dataset.Dataset, error) {
	return Open(l.Path(dac, wmo))
}

// Load resolves ref by institution code or DAC name.
func (l *LocalLoader) Load(ctx context.Context, ref domain.FloatRef) (*dataset.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return l.LoadFromInst(ResolveInstitute(ref.Institute), ref.WMO)
}
