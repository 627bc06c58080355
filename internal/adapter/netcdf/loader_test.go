package netcdf

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pocean23/argopy/internal/dataset"
	"github.com/pocean23/argopy/internal/domain"
	"github.com/pocean23/argopy/internal/mock"
)

// writeFloat stores a small mock float in a GDAC-style tree under root.
func writeFloat(t *testing.T, root, dac string, wmo int) {
	t.Helper()
	opts := mock.DefaultOptions()
	opts.Platform, opts.Profiles, opts.Levels = int64(wmo), 3, 4
	l := NewLocalLoader(root)
	path := l.Path(dac, wmo)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, Write(path, mock.Float(opts)))
}

func TestDACName(t *testing.T) {
	tests := []struct {
		code string
		want string
		ok   bool
	}{
		{"IF", "coriolis", true},
		{"ao", "aoml", true},
		{" BO ", "bodc", true},
		{"KM", "kma", true},
		{"XX", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			got, ok := DACName(tt.code)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveInstitute(t *testing.T) {
	assert.Equal(t, "coriolis", ResolveInstitute("IF"))
	assert.Equal(t, "coriolis", ResolveInstitute("coriolis"))
	assert.Equal(t, "somewhere", ResolveInstitute("somewhere"))
}

func TestLocalLoader_Path(t *testing.T) {
	l := NewLocalLoader("/data/gdac")
	assert.Equal(t, filepath.Join("/data/gdac", "coriolis", "6902746", "6902746_prof.nc"), l.Path("coriolis", 6902746))
}

func TestLocalLoader_LoadFromInstCode(t *testing.T) {
	root := t.TempDir()
	writeFloat(t, root, "coriolis", 6902746)
	l := NewLocalLoader(root)

	ds, err := l.LoadFromInstCode("IF", 6902746)
	require.NoError(t, err)
	assert.Equal(t, dataset.Profile, ds.Mode())
	assert.Equal(t, l.Path("coriolis", 6902746), ds.Encoding().GetString("source"))
}

func TestLocalLoader_LoadFromInst(t *testing.T) {
	root := t.TempDir()
	writeFloat(t, root, "aoml", 1901393)
	l := NewLocalLoader(root)

	ds, err := l.LoadFromInst("aoml", 1901393)
	require.NoError(t, err)
	n, _ := ds.DimLen(dataset.DimProf)
	assert.Equal(t, 3, n)
}

func TestLocalLoader_UnknownCode(t *testing.T) {
	_, err := NewLocalLoader(t.TempDir()).LoadFromInstCode("ZZ", 1)
	assert.ErrorIs(t, err, ErrUnknownInstitute)
}

func TestLocalLoader_MissingFloat(t *testing.T) {
	root := t.TempDir()
	_, err := NewLocalLoader(root).Load(context.Background(), domain.FloatRef{Institute: "IF", WMO: 42})
	require.Error(t, err)

	var notFound *dataset.SourceNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, filepath.Join(root, "coriolis", "42", "42_prof.nc"), notFound.Path)
}

func TestLocalLoader_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewLocalLoader(t.TempDir()).Load(ctx, domain.FloatRef{Institute: "IF", WMO: 1})
	assert.ErrorIs(t, err, context.Canceled)
}
