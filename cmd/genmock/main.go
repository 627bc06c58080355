// Command genmock writes a synthetic local GDAC snapshot of Argo floats for
// the ETL and CLI test suites. Each float gets a <wmo>_prof.nc multi-profile
// file. With -point-out it also writes the point form produced by the actual
// domain package, so fixtures match real pipeline behavior.
//
// Usage:
//
//	go run ./cmd/genmock -out data/mock/gdac -floats 3 -profiles 12 -levels 20 \
//	  -point-out data/mock/point
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/pocean23/argopy/internal/adapter/netcdf"
	"github.com/pocean23/argopy/internal/dataset"
	"github.com/pocean23/argopy/internal/domain"
	"github.com/pocean23/argopy/internal/mock"
)

// firstWMO numbers the generated floats.
const firstWMO = 6902746

// institutes are assigned to floats in turn.
var institutes = []string{"IF", "AO", "BO"}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "root directory of the snapshot tree")
	floats := flag.Int("floats", 3, "number of floats")
	profiles := flag.Int("profiles", 12, "profiles per float")
	levels := flag.Int("levels", 20, "maximum levels per profile")
	seed := flag.Uint64("seed", 1, "random seed")
	pointOut := flag.String("point-out", "", "optional directory for the point-form fixtures")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}
	if *floats < 1 || *profiles < 1 || *levels < 1 {
		return fmt.Errorf("-floats, -profiles and -levels must be positive")
	}

	// Set a fixed clock for reproducible history entries.
	domain.SetClock(clockwork.NewFakeClockAt(
		time.Date(2024, time.April, 27, 6, 0, 0, 0, time.UTC),
	))
	defer domain.SetClock(nil)

	loader := netcdf.NewLocalLoader(*out)
	var sink *netcdf.DirectorySink
	if *pointOut != "" {
		sink = netcdf.NewDirectorySink(*pointOut)
	}

	refs := make([]string, 0, *floats)
	for i := range *floats {
		code := institutes[i%len(institutes)]
		dac, _ := netcdf.DACName(code)
		opts := mock.DefaultOptions()
		opts.Platform = int64(firstWMO + i)
		opts.DataCentre = code
		opts.Profiles = *profiles
		opts.Levels = *levels
		opts.Seed = *seed + uint64(i)

		ds := mock.Float(opts)
		path := loader.Path(dac, int(opts.Platform))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := netcdf.Write(path, ds); err != nil {
			return fmt.Errorf("writing float %d: %w", opts.Platform, err)
		}
		log.Printf("%s: %d profiles", path, opts.Profiles)

		ref := domain.FloatRef{Institute: code, WMO: int(opts.Platform)}
		refs = append(refs, ref.String())
		if sink != nil {
			if err := writePoint(sink, ref, ds); err != nil {
				return err
			}
		}
	}

	log.Printf("total: %d floats", len(refs))
	fmt.Printf("ARGO_LOCAL_FTP=%s\nARGO_FLOATS=%s\n", *out, strings.Join(refs, ","))
	return nil
}

func writePoint(sink *netcdf.DirectorySink, ref domain.FloatRef, raw *dataset.Dataset) error {
	ds, err := domain.FilterDataMode(raw, nil)
	if err != nil {
		return fmt.Errorf("filtering float %s: %w", ref, err)
	}
	if ds, err = domain.ProfileToPoint(ds, nil); err != nil {
		return fmt.Errorf("reshaping float %s: %w", ref, err)
	}
	path, err := sink.Store(context.Background(), ref, ds)
	if err != nil {
		return fmt.Errorf("writing point fixture %s: %w", ref, err)
	}
	log.Printf("%s: %d points", path, ds.Variable("PRES").Len())
	return nil
}
