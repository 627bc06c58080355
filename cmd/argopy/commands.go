package main

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pocean23/argopy/internal/adapter/netcdf"
	"github.com/pocean23/argopy/internal/dataset"
	"github.com/pocean23/argopy/internal/domain"
	"github.com/pocean23/argopy/internal/observability"
	"github.com/pocean23/argopy/internal/pipeline"
)

func newRootCmd() *cobra.Command {
	var logLevel string
	root := &cobra.Command{
		Use:           "argopy",
		Short:         "Work with Argo float datasets",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "debug, info, warn or error")
	logger := func() *slog.Logger { return observability.NewLogger(logLevel, "text") }

	uid := &cobra.Command{
		Use:   "uid",
		Short: "Encode or decode profile identifiers",
	}
	uid.AddCommand(newUIDEncodeCmd(), newUIDDecodeCmd())
	root.AddCommand(newConvertCmd(logger), newInfoCmd(), uid)
	return root
}

func newConvertCmd(logger func() *slog.Logger) *cobra.Command {
	var (
		to             string
		filterDataMode bool
		keepError      bool
	)
	cmd := &cobra.Command{
		Use:   "convert IN OUT",
		Short: "Normalize a dataset and write it in point or profile form",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			form, err := dataset.ParseMode(to)
			if err != nil {
				return err
			}
			in, err := netcdf.Open(args[0])
			if err != nil {
				return err
			}
			t := pipeline.NewTransformer(form, filterDataMode, keepError, logger(), nil)
			out, err := t.Transform(cmd.Context(), in)
			if err != nil {
				return fmt.Errorf("converting %s: %w", args[0], err)
			}
			if err := netcdf.Write(args[1], out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%s, %d variables)\n", args[1], out.Mode(), len(out.Names()))
			return nil
		},
	}
	cmd.Flags().StringVar(&to, "to", "point", "output form: point or profile")
	cmd.Flags().BoolVar(&filterDataMode, "filter-data-mode", false, "merge real-time and adjusted values by DATA_MODE")
	cmd.Flags().BoolVar(&keepError, "keep-error", true, "keep <PARAM>_ERROR when filtering by DATA_MODE")
	return cmd
}

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info FILE",
		Short: "Summarize the dimensions, variables and history of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := netcdf.Open(args[0])
			if err != nil {
				return err
			}
			printInfo(cmd.OutOrStdout(), ds)
			return nil
		},
	}
}

func printInfo(w io.Writer, ds *dataset.Dataset) {
	fmt.Fprintf(w, "mode: %s\n", ds.Mode())
	fmt.Fprintln(w, "dimensions:")
	for _, d := range ds.Dims() {
		n, _ := ds.DimLen(d)
		fmt.Fprintf(w, "  %s = %d\n", d, n)
	}
	fmt.Fprintln(w, "variables:")
	for _, name := range ds.Names() {
		v := ds.Variable(name)
		marker := ""
		if ds.IsCoord(name) {
			marker = " (coordinate)"
		}
		fmt.Fprintf(w, "  %-28s %-8s (%s)%s\n", name, v.Kind(), strings.Join(v.Dims(), ", "), marker)
	}
	if title := ds.Attrs().GetString("title"); title != "" {
		fmt.Fprintf(w, "title: %s\n", title)
	}
	if history := ds.Attrs().GetString(dataset.HistoryKey); history != "" {
		fmt.Fprintln(w, "history:")
		for _, entry := range strings.Split(history, "; ") {
			fmt.Fprintf(w, "  %s\n", entry)
		}
	}
}

func newUIDEncodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "encode WMO CYCLE [DIRECTION]",
		Short: "Encode a platform, cycle and optional direction (A or D)",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			platform, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid WMO %q", args[0])
			}
			cycle, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid cycle %q", args[1])
			}
			d := domain.NoDirection
			if len(args) == 3 {
				if d, err = domain.ParseDirection(args[2]); err != nil {
					return err
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), domain.EncodeUID(platform, cycle, d))
			return nil
		},
	}
}

func newUIDDecodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode ID...",
		Short: "Decode profile identifiers into platform, cycle and direction",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, len(args))
			for i, a := range args {
				id, err := strconv.ParseInt(a, 10, 64)
				if err != nil {
					return fmt.Errorf("invalid identifier %q", a)
				}
				ids[i] = id
			}
			platforms, cycles, directions := domain.DecodeUIDs(ids)
			for i, id := range ids {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%d\t%d\t%s\n", id, platforms[i], cycles[i], directions[i])
			}
			return nil
		},
	}
}
