package netcdf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pocean23/argopy/internal/dataset"
	"github.com/pocean23/argopy/internal/domain"
)

// DirectorySink writes transformed datasets under
// <root>/<dac>/<wmo>/<wmo>_<point|profile>.nc.
type DirectorySink struct {
	root string
}

// NewDirectorySink creates a sink rooted at root.
func NewDirectorySink(root string) *DirectorySink {
	return &DirectorySink{root: root}
}

// Path returns where the dataset of ref in the given form is stored.
func (s *DirectorySink) Path(ref domain.FloatRef, form dataset.Mode) string {
	id := strconv.Itoa(ref.WMO)
	return filepath.Join(s.root, ResolveInstitute(ref.Institute), id, fmt.Sprintf("%s_%s.nc", id, form))
}

// Store writes ds, creating directories as needed, and returns the path.
func (s *DirectorySink) Store(ctx context.Context, ref domain.FloatRef, ds *dataset.Dataset) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path := s.Path(ref, ds.Mode())
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("creating output directory for %s: %w", ref, err)
	}
	if err := Write(path, ds); err != nil {
		return "", err
	}
	return path, nil
}
