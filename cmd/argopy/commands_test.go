package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pocean23/argopy/internal/adapter/netcdf"
	"github.com/pocean23/argopy/internal/dataset"
	"github.com/pocean23/argopy/internal/mock"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeMockFloat(t *testing.T) string {
	t.Helper()
	opts := mock.DefaultOptions()
	opts.Profiles, opts.Levels = 5, 6
	path := filepath.Join(t.TempDir(), "6902746_prof.nc")
	require.NoError(t, netcdf.Write(path, mock.Float(opts)))
	return path
}

func TestUIDEncode(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"ascending", []string{"690024", "13", "A"}, "69002400013\n"},
		{"descending", []string{"6902746", "12", "descending"}, "-690274600012\n"},
		{"no direction", []string{"690024", "13"}, "69002400013\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, append([]string{"uid", "encode"}, tt.args...)...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestUIDEncode_Invalid(t *testing.T) {
	_, err := execute(t, "uid", "encode", "690024", "13", "sideways")
	assert.Error(t, err)

	_, err = execute(t, "uid", "encode", "wmo", "13")
	assert.Error(t, err)
}

func TestUIDDecode(t *testing.T) {
	out, err := execute(t, "uid", "decode", "--", "69002400013", "-690274600012")
	require.NoError(t, err)
	assert.Equal(t, "69002400013\t690024\t13\tAscending\n-690274600012\t6902746\t12\tDescending\n", out)
}

func TestConvert_ToPoint(t *testing.T) {
	in := writeMockFloat(t)
	outPath := filepath.Join(t.TempDir(), "6902746_point.nc")

	out, err := execute(t, "convert", in, outPath, "--to", "point", "--filter-data-mode")
	require.NoError(t, err)
	assert.Contains(t, out, "point")

	ds, err := netcdf.Open(outPath)
	require.NoError(t, err)
	assert.Equal(t, dataset.Point, ds.Mode())
	assert.False(t, ds.Has("PRES_ADJUSTED"))
	assert.True(t, ds.Has("PRES_ERROR"))
}

func TestConvert_ToProfileWithoutErrors(t *testing.T) {
	in := writeMockFloat(t)
	outPath := filepath.Join(t.TempDir(), "6902746_profile.nc")

	_, err := execute(t, "convert", in, outPath, "--to", "profile", "--filter-data-mode", "--keep-error=false")
	require.NoError(t, err)

	ds, err := netcdf.Open(outPath)
	require.NoError(t, err)
	assert.Equal(t, dataset.Profile, ds.Mode())
	assert.False(t, ds.Has("PRES_ERROR"))
}

func TestConvert_BadForm(t *testing.T) {
	_, err := execute(t, "convert", writeMockFloat(t), filepath.Join(t.TempDir(), "x.nc"), "--to", "trajectory")
	assert.Error(t, err)
}

func TestConvert_MissingInput(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "convert", filepath.Join(dir, "absent.nc"), filepath.Join(dir, "out.nc"))
	require.ErrorIs(t, err, dataset.ErrSourceNotFound)
	_, statErr := os.Stat(filepath.Join(dir, "out.nc"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestInfo(t *testing.T) {
	out, err := execute(t, "info", writeMockFloat(t))
	require.NoError(t, err)

	assert.Contains(t, out, "mode: profile")
	assert.Contains(t, out, "N_PROF = 5")
	assert.Contains(t, out, "PRES_ADJUSTED_QC")
	assert.Contains(t, out, "title: Argo float vertical profile")
}

func TestInfo_RequiresFile(t *testing.T) {
	_, err := execute(t, "info")
	assert.Error(t, err)
}
