// Command argopy converts Argo datasets between point and profile form,
// summarizes netCDF files, and encodes or decodes profile identifiers.
//
// Usage:
//
//	argopy convert 6902746_prof.nc 6902746_point.nc --to point --filter-data-mode
//	argopy info 6902746_prof.nc
//	argopy uid encode 6902746 12 D
//	argopy uid decode -- -690274600012
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
