package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"geotag/internal/display"
	"geotag/internal/exifgps"
	"geotag/internal/format"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>...",
	Short: "Show the GPS state of image files",
	Long: `Inspect prints each file's GPS coordinates, if any, and whether they
came from this tool, a camera, or another tagger. Useful before and
after a scan to see what would be (or was) touched.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runInspect,
}

func runInspect(cmd *cobra.Command, args []string) error {
	reader := exifgps.NewReader()

	tbl := format.NewTable(format.ASCII)
	tbl.Header("File", "Size", "GPS", "Source")
	tbl.Columns(format.ColumnConfig{Number: 2, Align: format.AlignRight})

	for _, path := range args {
		fi, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("inspect %s: %w", path, err)
		}
		info, err := reader.Read(path)
		if err != nil {
			return fmt.Errorf("inspect %s: %w", path, err)
		}

		gps := "-"
		if info.HasGPS {
			gps = display.GPSTag(info.Point.DMS(), info.Provenance())
		}
		tbl.Row(path, humanize.Bytes(uint64(fi.Size())), gps, display.Provenance(info.Provenance()))
	}

	fmt.Fprintln(cmd.OutOrStdout(), tbl.String())
	return nil
}
